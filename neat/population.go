package neat

import (
	"fmt"
	"io"
	"log/slog"
	"math"
)

// BatchEvaluator evaluates a batch of genomes, writing one result per genome
// at the matching index. It must fill every slot or return an error.
type BatchEvaluator interface {
	EvaluateBatch(genomes []*Genome, results []OrganismEvaluation) error
}

// Population is the contract a run loop drives.
type Population interface {
	Size() int
	Get(i int) *Organism
	// MakeCopy returns a deep copy of organism i that shares no genome state.
	MakeCopy(i int) *Organism
	NextGeneration() error
	Verify() error
	Write(w io.Writer) error
}

// State is the lifecycle state of a SpeciesPopulation.
type State int

const (
	StateInitialized State = iota
	StateEvaluating
	StateSpeciating
	StateReproducing
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateEvaluating:
		return "evaluating"
	case StateSpeciating:
		return "speciating"
	case StateReproducing:
		return "reproducing"
	case StateTerminated:
		return "terminated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// SpeciesPopulation is a speciated population driven one generation at a time.
// It is not safe for concurrent use.
type SpeciesPopulation struct {
	cfg       *Config
	gm        GenomeManager
	evaluator BatchEvaluator
	logger    *slog.Logger

	buf     *OrganismsBuffer
	species []*Species

	generation         int
	lastSpecies        int
	highestFitness     float64
	highestLastChanged int

	baseSeed  int64
	rng       *RNG
	state     State
	evaluated bool

	genomes []*Genome
	results []OrganismEvaluation
}

var _ Population = (*SpeciesPopulation)(nil)

// NewSpeciesPopulation builds a population from seed genomes, which it takes
// ownership of. The population size stays len(seeds) for the whole run. rng
// is consulted once for the base seed of the population's own random source.
func NewSpeciesPopulation(cfg *Config, gm GenomeManager, evaluator BatchEvaluator, rng *RNG, seeds []*Genome) (*SpeciesPopulation, error) {
	if len(seeds) == 0 {
		return nil, ErrEmptyPopulation
	}
	p := newSpeciesPopulation(cfg, gm, evaluator, rng.Int63(), seeds)
	p.speciate()
	return p, nil
}

func newSpeciesPopulation(cfg *Config, gm GenomeManager, evaluator BatchEvaluator, baseSeed int64, seeds []*Genome) *SpeciesPopulation {
	p := &SpeciesPopulation{
		cfg:            cfg,
		gm:             gm,
		evaluator:      evaluator,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		buf:            NewOrganismsBuffer(seeds),
		highestFitness: math.Inf(-1),
		baseSeed:       baseSeed,
		rng:            NewRNG(baseSeed),
		state:          StateInitialized,
		genomes:        make([]*Genome, len(seeds)),
		results:        make([]OrganismEvaluation, len(seeds)),
	}
	return p
}

// SetLogger replaces the discard logger.
func (p *SpeciesPopulation) SetLogger(l *slog.Logger) {
	if l != nil {
		p.logger = l
	}
}

func (p *SpeciesPopulation) Size() int {
	return p.buf.Size()
}

func (p *SpeciesPopulation) Get(i int) *Organism {
	return &p.buf.Curr()[i]
}

func (p *SpeciesPopulation) MakeCopy(i int) *Organism {
	return copyOrganism(p.Get(i))
}

// Generation returns the number of completed generations.
func (p *SpeciesPopulation) Generation() int {
	return p.generation
}

// Species returns the current species list. The slice must not be modified.
func (p *SpeciesPopulation) Species() []*Species {
	return p.species
}

// State returns the lifecycle state.
func (p *SpeciesPopulation) State() State {
	return p.state
}

// HighestFitness returns the best fitness seen during the run and the number
// of generations since it last improved.
func (p *SpeciesPopulation) HighestFitness() (float64, int) {
	return p.highestFitness, p.highestLastChanged
}

// Evaluate scores the current generation with one batch call. Calling it
// again before NextGeneration does nothing.
func (p *SpeciesPopulation) Evaluate() error {
	if p.state == StateTerminated {
		return ErrEmptyPopulation
	}
	if p.evaluated {
		return nil
	}
	p.state = StateEvaluating

	orgs := p.buf.Curr()
	for i := range orgs {
		p.genomes[i] = orgs[i].Genome
		p.results[i].Reset()
	}
	if err := p.evaluator.EvaluateBatch(p.genomes, p.results); err != nil {
		return fmt.Errorf("generation %d: evaluate batch: %w", p.generation, err)
	}
	for i := range orgs {
		orgs[i].Eval = p.results[i]
	}
	p.evaluated = true
	return nil
}

// NextGeneration advances the population one full cycle: evaluate, update
// species statistics, allocate offspring, reproduce into the spare slab, swap
// and speciate the new generation.
func (p *SpeciesPopulation) NextGeneration() error {
	if err := p.Evaluate(); err != nil {
		return err
	}
	p.rng.Seed(p.baseSeed + int64(p.generation))

	p.state = StateSpeciating
	newFittest := p.updateStatistics()

	quotas, err := p.allocate()
	if err != nil {
		p.state = StateTerminated
		return err
	}

	p.state = StateReproducing
	p.reproduce(quotas)
	p.gm.FinalizeGeneration(newFittest)

	p.buf.Swap()
	p.generation++
	p.evaluated = false
	p.speciate()
	p.state = StateInitialized

	p.logger.Info("generation complete",
		"generation", p.generation,
		"species", len(p.species),
		"fitness", p.highestFitness,
		"stale", p.highestLastChanged)
	return nil
}

// updateStatistics ages species, updates watermarks and reports whether the
// generation produced a new run-wide best.
func (p *SpeciesPopulation) updateStatistics() bool {
	best := math.Inf(-1)
	for _, sp := range p.species {
		sp.updateStagnation()
		if f := sp.BestFitness(); f > best {
			best = f
		}
	}
	if best > p.highestFitness {
		p.highestFitness = best
		p.highestLastChanged = 0
		return true
	}
	p.highestLastChanged++
	return false
}

// allocate computes the offspring quota of every species.
func (p *SpeciesPopulation) allocate() ([]int, error) {
	rc := &p.cfg.Reproduction
	shares := make([]float64, len(p.species))
	for i, sp := range p.species {
		shares[i] = sp.adjustFitness(rc)
	}
	quotas := LargestRemainder(shares, p.Size())
	if quotas == nil {
		return nil, fmt.Errorf("generation %d: %w", p.generation, ErrEmptyPopulation)
	}

	if p.highestLastChanged >= rc.DeltaCodingAge {
		p.logger.Info("delta coding engaged", "generation", p.generation, "stale", p.highestLastChanged)
		quotas = deltaCodingQuotas(p.species, p.Size())
		for i, sp := range p.species {
			if quotas[i] > 0 {
				sp.AgeOfLastImprovement = sp.Age
			}
		}
		p.highestLastChanged = 0
	}
	return quotas, nil
}

// Fittest returns a copy of the best organism of the current generation.
// Ties go to the lower index.
func (p *SpeciesPopulation) Fittest() *Organism {
	orgs := p.buf.Curr()
	best := 0
	for i := range orgs {
		if orgs[i].Eval.Fitness > orgs[best].Eval.Fitness {
			best = i
		}
	}
	return p.MakeCopy(best)
}

// Verify checks every genome and the organism/species partition.
func (p *SpeciesPopulation) Verify() error {
	verr := &VerifyError{}
	orgs := p.buf.Curr()

	seen := make(map[*Organism]int, len(orgs))
	inList := make(map[*Species]bool, len(p.species))
	for _, sp := range p.species {
		inList[sp] = true
		if len(sp.Members) == 0 {
			verr.add("species %d has no members", sp.ID)
		}
		for _, o := range sp.Members {
			seen[o]++
			if o.Species != sp {
				verr.add("organism %d listed in species %d but points to another species", o.Index, sp.ID)
			}
		}
	}
	for i := range orgs {
		o := &orgs[i]
		o.Genome.verifyInto(verr)
		switch {
		case o.Species == nil:
			verr.add("organism %d has no species", i)
		case !inList[o.Species]:
			verr.add("organism %d belongs to species %d which is not in the population", i, o.Species.ID)
		}
		switch seen[o] {
		case 1:
		case 0:
			verr.add("organism %d missing from every species member list", i)
		default:
			verr.add("organism %d listed %d times", i, seen[o])
		}
		delete(seen, o)
	}
	for o := range seen {
		verr.add("species member %d is not part of the current generation", o.Index)
	}
	return verr.errOrNil()
}

// Write dumps the population species by species in the genome text format.
func (p *SpeciesPopulation) Write(w io.Writer) error {
	for _, sp := range p.species {
		if _, err := fmt.Fprintf(w, "/* Species #%d : (Size %d) (AF %g) (Age %d) */\n",
			sp.ID, len(sp.Members), sp.AverageFitness, sp.Age); err != nil {
			return err
		}
		for _, o := range sp.Members {
			if err := WriteOrganism(w, o); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// WriteOrganism writes one organism header followed by its genome.
func WriteOrganism(w io.Writer, o *Organism) error {
	if _, err := fmt.Fprintf(w, "/* Organism #%d Fitness: %g Error: %g */\n", o.Index, o.Eval.Fitness, o.Eval.Error); err != nil {
		return err
	}
	return o.Genome.Print(w)
}

// Stats summarises the current generation.
type Stats struct {
	Generation         int
	Size               int
	NumSpecies         int
	BestFitness        float64
	MeanFitness        float64
	StdevFitness       float64
	BestError          float64
	HighestFitness     float64
	HighestLastChanged int
	MeanNodes          float64
	MeanLinks          float64
}

// Stats computes summary statistics of the current generation.
func (p *SpeciesPopulation) Stats() Stats {
	orgs := p.buf.Curr()
	fitness := make([]float64, len(orgs))
	errs := make([]float64, len(orgs))
	nodes := make([]float64, len(orgs))
	links := make([]float64, len(orgs))
	for i := range orgs {
		fitness[i] = orgs[i].Eval.Fitness
		errs[i] = orgs[i].Eval.Error
		nodes[i] = float64(len(orgs[i].Genome.Nodes))
		links[i] = float64(len(orgs[i].Genome.Links))
	}
	return Stats{
		Generation:         p.generation,
		Size:               len(orgs),
		NumSpecies:         len(p.species),
		BestFitness:        MaxFloat(fitness),
		MeanFitness:        Mean(fitness),
		StdevFitness:       Stdev(fitness),
		BestError:          MinFloat(errs),
		HighestFitness:     p.highestFitness,
		HighestLastChanged: p.highestLastChanged,
		MeanNodes:          Mean(nodes),
		MeanLinks:          Mean(links),
	}
}
