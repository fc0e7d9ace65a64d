package neat

import (
	"fmt"
	"math"
)

// OrganismEvaluation is the result of evaluating one network.
type OrganismEvaluation struct {
	Fitness float64
	Error   float64
}

// Reset returns the evaluation to its zero state.
func (e *OrganismEvaluation) Reset() {
	*e = OrganismEvaluation{}
}

// Sanitized returns a copy with a non-finite fitness replaced by 0 and a
// non-finite error replaced by math.MaxFloat64.
func (e OrganismEvaluation) Sanitized() OrganismEvaluation {
	return OrganismEvaluation{
		Fitness: finiteOr(e.Fitness, 0),
		Error:   finiteOr(e.Error, math.MaxFloat64),
	}
}

// Organism wraps a genome with its latest evaluation. Organisms live in the
// population's buffer; Species is a non-owning reference.
type Organism struct {
	Index      int
	Genome     *Genome
	Eval       OrganismEvaluation
	Species    *Species
	SpeciesID  int
	Generation int

	adjustedFitness float64
}

// String returns a short summary of the Organism.
func (o *Organism) String() string {
	return fmt.Sprintf("Organism(#%d, Species: %d, Fitness: %.4f, Error: %.4f)", o.Index, o.SpeciesID, o.Eval.Fitness, o.Eval.Error)
}

// copyOrganism returns a deep copy of o. The species reference is shared.
func copyOrganism(o *Organism) *Organism {
	c := *o
	c.Genome = o.Genome.Clone()
	return &c
}
