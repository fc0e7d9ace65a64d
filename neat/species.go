package neat

import (
	"fmt"
	"math"
)

// Species groups genetically similar organisms. Members point into the
// population buffer; Representative is an owned copy used for speciation.
type Species struct {
	ID                   int
	Age                  int
	AgeOfLastImprovement int
	MaxFitnessEver       float64
	Members              []*Organism
	Representative       *Genome

	AverageFitness    float64 // mean raw fitness of the last evaluated generation
	ExpectedOffspring int     // quota assigned by the last allocation
}

// NewSpecies creates an empty species represented by a copy of rep.
func NewSpecies(id int, rep *Genome) *Species {
	return &Species{
		ID:             id,
		MaxFitnessEver: math.Inf(-1),
		Representative: rep.Clone(),
	}
}

// Champion returns the best member. Members must already be ranked.
func (s *Species) Champion() *Organism {
	if len(s.Members) == 0 {
		return nil
	}
	return s.Members[0]
}

// BestFitness returns the highest raw fitness among the members.
func (s *Species) BestFitness() float64 {
	best := math.Inf(-1)
	for _, o := range s.Members {
		if o.Eval.Fitness > best {
			best = o.Eval.Fitness
		}
	}
	return best
}

// String returns a string representation of the Species.
func (s *Species) String() string {
	return fmt.Sprintf("Species(ID: %d, Size: %d, Age: %d, AF: %.4f)", s.ID, len(s.Members), s.Age, s.AverageFitness)
}

// speciate assigns every organism of the current generation to the first
// species whose representative it is compatible with, creating species as
// needed. Empty species are dropped and representatives are refreshed from
// each species' first member.
func (p *SpeciesPopulation) speciate() {
	for _, sp := range p.species {
		sp.Members = sp.Members[:0]
	}

	orgs := p.buf.Curr()
	for i := range orgs {
		o := &orgs[i]
		var home *Species
		for _, sp := range p.species {
			if p.gm.AreCompatible(o.Genome, sp.Representative) {
				home = sp
				break
			}
		}
		if home == nil {
			p.lastSpecies++
			home = NewSpecies(p.lastSpecies, o.Genome)
			p.species = append(p.species, home)
			p.logger.Debug("new species", "generation", p.generation, "species", home.ID)
		}
		home.Members = append(home.Members, o)
		o.Species = home
		o.SpeciesID = home.ID
	}

	alive := p.species[:0]
	for _, sp := range p.species {
		if len(sp.Members) == 0 {
			p.logger.Debug("species extinct", "generation", p.generation, "species", sp.ID)
			continue
		}
		sp.Representative.CopyFrom(sp.Members[0].Genome)
		alive = append(alive, sp)
	}
	for i := len(alive); i < len(p.species); i++ {
		p.species[i] = nil
	}
	p.species = alive
}
