package neat

import (
	"fmt"
	"sync"
)

// GenomeType names a genome encoding.
type GenomeType string

// GenomeInnov is the innovation-numbered link encoding.
const GenomeInnov GenomeType = "innov"

// MutationOp restricts which mutation families Mutate may apply.
type MutationOp int

const (
	MutateWeights MutationOp = iota
	MutateStructure
	MutateAny
)

func (op MutationOp) String() string {
	switch op {
	case MutateWeights:
		return "weights"
	case MutateStructure:
		return "structure"
	case MutateAny:
		return "any"
	}
	return fmt.Sprintf("MutationOp(%d)", int(op))
}

// GenomeManager is the protocol through which the population manipulates
// genomes without knowing their internals.
type GenomeManager interface {
	// MakeDefault returns a minimal valid genome: bias and sensors fully
	// connected to the outputs.
	MakeDefault() *Genome
	// CreateSeedGeneration returns n independent genomes of the given shape.
	// ninputs counts the bias node.
	CreateSeedGeneration(n int, rng *RNG, ntraits, ninputs, noutputs, nhidden int) ([]*Genome, error)
	AreCompatible(g1, g2 *Genome) bool
	Compatibility(g1, g2 *Genome) float64
	// Clone deep-copies orig into out.
	Clone(orig, out *Genome)
	// Mate writes the crossover of g1 and g2 into offspring, drawing
	// randomness from offspring's source.
	Mate(g1, g2, offspring *Genome, fitness1, fitness2 float64)
	Mutate(g *Genome, op MutationOp)
	// FinalizeGeneration is called once per generation after reproduction.
	FinalizeGeneration(newFittest bool)
}

// InnovationTracker is implemented by managers that expose their innovation table.
type InnovationTracker interface {
	Innovations() *InnovationTable
}

// NewGenomeManager creates the manager for cfg.NEAT.GenomeType.
func NewGenomeManager(cfg *Config) (GenomeManager, error) {
	switch GenomeType(cfg.NEAT.GenomeType) {
	case GenomeInnov:
		st, err := ParseSearchType(cfg.NEAT.SearchType)
		if err != nil {
			return nil, err
		}
		return &innovManager{
			cfg:    cfg,
			search: st,
			table:  NewInnovationTable(),
			phase:  phaseComplexify,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGenomeType, cfg.NEAT.GenomeType)
	}
}

type searchPhase int

const (
	phaseComplexify searchPhase = iota
	phasePrune
)

// innovManager implements GenomeManager for GenomeInnov genomes.
type innovManager struct {
	cfg    *Config
	search SearchType
	table  *InnovationTable

	mu        sync.Mutex
	phase     searchPhase
	stale     int // generations without a new fittest
	pruneGens int // generations spent in the current prune phase
}

func (m *innovManager) Innovations() *InnovationTable {
	return m.table
}

func (m *innovManager) MakeDefault() *Genome {
	gc := m.cfg.Genome
	g := m.seedTemplate(gc.NumTraits, gc.NumInputs, gc.NumOutputs, 0)
	g.ID = 0
	return g
}

// seedTemplate builds the shared structure of a seed generation. Node ids are
// assigned bias first, then sensors, outputs and hidden nodes.
func (m *innovManager) seedTemplate(ntraits, ninputs, noutputs, nhidden int) *Genome {
	g := NewGenome(0)
	for i := 1; i <= ntraits; i++ {
		g.Traits = append(g.Traits, Trait{ID: i})
	}
	traitID := 0
	if ntraits > 0 {
		traitID = 1
	}

	id := 1
	var inputs, outputs, hidden []int
	for i := 0; i < ninputs; i++ {
		t := NodeSensor
		if i == 0 {
			t = NodeBias
		}
		g.Nodes = append(g.Nodes, NodeGene{ID: id, Type: t, TraitID: traitID})
		inputs = append(inputs, id)
		id++
	}
	for i := 0; i < noutputs; i++ {
		g.Nodes = append(g.Nodes, NodeGene{ID: id, Type: NodeOutput, TraitID: traitID})
		outputs = append(outputs, id)
		id++
	}
	for i := 0; i < nhidden; i++ {
		g.Nodes = append(g.Nodes, NodeGene{ID: id, Type: NodeHidden, TraitID: traitID})
		hidden = append(hidden, id)
		id++
	}
	m.table.ReserveNode(id - 1)

	connect := func(from, to []int) {
		for _, in := range from {
			for _, out := range to {
				g.addLink(LinkGene{
					In:         in,
					Out:        out,
					Enabled:    true,
					TraitID:    traitID,
					Innovation: m.table.LinkInnovation(in, out),
				})
			}
		}
	}
	if nhidden > 0 {
		connect(inputs, hidden)
		connect(hidden, outputs)
	} else {
		connect(inputs, outputs)
	}
	return g
}

func (m *innovManager) CreateSeedGeneration(n int, rng *RNG, ntraits, ninputs, noutputs, nhidden int) ([]*Genome, error) {
	if n <= 0 {
		return nil, fmt.Errorf("seed generation size must be positive, got %d", n)
	}
	if ninputs < 1 || noutputs < 1 || ntraits < 0 || nhidden < 0 {
		return nil, fmt.Errorf("invalid seed shape: ntraits=%d ninputs=%d noutputs=%d nhidden=%d", ntraits, ninputs, noutputs, nhidden)
	}
	template := m.seedTemplate(ntraits, ninputs, noutputs, nhidden)
	if !template.OutputsReachable() {
		return nil, fmt.Errorf("seed genome has unreachable outputs")
	}

	genomes := make([]*Genome, n)
	for i := range genomes {
		g := NewGenome(i)
		g.CopyFrom(template)
		g.ID = i
		g.Seed(rng.Int63())
		grng := g.RNG()
		for t := range g.Traits {
			for p := range g.Traits[t].Params {
				g.Traits[t].Params[p] = grng.Prob()
			}
		}
		for l := range g.Links {
			w := grng.Posneg() * grng.Prob()
			g.Links[l].Weight = w
			g.Links[l].MutationNum = w
			g.Links[l].TraitID = g.randomTraitID()
		}
		genomes[i] = g
	}
	return genomes, nil
}

func (m *innovManager) Compatibility(g1, g2 *Genome) float64 {
	return Compatibility(g1, g2, &m.cfg.Genome)
}

func (m *innovManager) AreCompatible(g1, g2 *Genome) bool {
	return m.Compatibility(g1, g2) < m.cfg.Species.CompatThreshold
}

func (m *innovManager) Clone(orig, out *Genome) {
	out.CopyFrom(orig)
}

func (m *innovManager) FinalizeGeneration(newFittest bool) {
	if m.search != SearchPhased {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	mc := m.cfg.Mutation
	if newFittest {
		m.phase = phaseComplexify
		m.stale = 0
		m.pruneGens = 0
		return
	}
	switch m.phase {
	case phaseComplexify:
		m.stale++
		if m.stale >= mc.PhaseStagnationGens {
			m.phase = phasePrune
			m.pruneGens = 0
		}
	case phasePrune:
		m.pruneGens++
		if m.pruneGens >= mc.PhasePruneGens {
			m.phase = phaseComplexify
			m.stale = 0
		}
	}
}

// mutationRates are the structural probabilities in effect for the current
// search strategy and phase.
type mutationRates struct {
	addNode, addLink, deleteNode, deleteLink float64
}

func (m *innovManager) rates() mutationRates {
	mc := m.cfg.Mutation
	r := mutationRates{
		addNode:    mc.AddNodeProb,
		addLink:    mc.AddLinkProb,
		deleteNode: mc.DeleteNodeProb,
		deleteLink: mc.DeleteLinkProb,
	}
	switch m.search {
	case SearchComplexify:
		r.deleteNode, r.deleteLink = 0, 0
	case SearchBlended:
		r.deleteNode *= 0.1
		r.deleteLink *= 0.1
	case SearchPhased:
		m.mu.Lock()
		phase := m.phase
		m.mu.Unlock()
		if phase == phaseComplexify {
			r.deleteNode, r.deleteLink = 0, 0
		} else {
			r.addNode, r.addLink = 0, 0
		}
	}
	return r
}
