package neat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// evaluatorFunc adapts a per-genome scoring function to BatchEvaluator.
type evaluatorFunc func(g *Genome) OrganismEvaluation

func (f evaluatorFunc) EvaluateBatch(genomes []*Genome, results []OrganismEvaluation) error {
	for i, g := range genomes {
		results[i] = f(g)
	}
	return nil
}

// weightFitness rewards large enabled weights. It is always positive.
func weightFitness(g *Genome) OrganismEvaluation {
	f := 4.0
	for _, l := range g.Links {
		if l.Enabled {
			f += l.Weight
		}
	}
	if f < 0.1 {
		f = 0.1
	}
	return OrganismEvaluation{Fitness: f, Error: 1 / f}
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.NEAT.PopSize = 50
	return cfg
}

func newTestManager(t *testing.T, cfg *Config) *innovManager {
	t.Helper()
	gm, err := NewGenomeManager(cfg)
	require.NoError(t, err)
	return gm.(*innovManager)
}

func seedGenomes(t *testing.T, m *innovManager, n int, seed int64) []*Genome {
	t.Helper()
	gc := m.cfg.Genome
	genomes, err := m.CreateSeedGeneration(n, NewRNG(seed), gc.NumTraits, gc.NumInputs, gc.NumOutputs, gc.NumHidden)
	require.NoError(t, err)
	return genomes
}

func newTestPopulation(t *testing.T, cfg *Config, eval BatchEvaluator, seed int64) *SpeciesPopulation {
	t.Helper()
	m := newTestManager(t, cfg)
	rng := NewRNG(seed)
	gc := cfg.Genome
	seeds, err := m.CreateSeedGeneration(cfg.NEAT.PopSize, rng, gc.NumTraits, gc.NumInputs, gc.NumOutputs, gc.NumHidden)
	require.NoError(t, err)
	p, err := NewSpeciesPopulation(cfg, m, eval, rng, seeds)
	require.NoError(t, err)
	return p
}

// linkGenome builds a genome whose links carry the given innovations. Node
// references are not meaningful; it is only used for alignment.
func linkGenome(id int, weight float64, innovations ...int) *Genome {
	g := NewGenome(id)
	for _, innov := range innovations {
		g.Links = append(g.Links, LinkGene{In: 1, Out: 2, Weight: weight, Enabled: true, Innovation: innov})
	}
	return g
}
