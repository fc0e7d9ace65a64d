package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// divergedPair returns two genomes from one seed generation that have grown
// different structure.
func divergedPair(t *testing.T, m *innovManager) (*Genome, *Genome) {
	t.Helper()
	genomes := seedGenomes(t, m, 2, 21)
	for _, g := range genomes {
		for k := 0; k < 30; k++ {
			m.Mutate(g, MutateStructure)
			m.Mutate(g, MutateWeights)
		}
		require.NoError(t, g.Verify())
	}
	return genomes[0], genomes[1]
}

func TestMateProducesValidOffspring(t *testing.T) {
	modes := map[string]func(*MatingConfig){
		"multipoint":     func(mc *MatingConfig) { mc.MultipointProb, mc.MultipointAvgProb, mc.SinglepointProb = 1, 0, 0 },
		"multipoint-avg": func(mc *MatingConfig) { mc.MultipointProb, mc.MultipointAvgProb, mc.SinglepointProb = 0, 1, 0 },
		"singlepoint":    func(mc *MatingConfig) { mc.MultipointProb, mc.MultipointAvgProb, mc.SinglepointProb = 0, 0, 1 },
	}
	for name, set := range modes {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig().WithSearchType(SearchBlended)
			set(&cfg.Mating)
			m := newTestManager(t, cfg)
			a, b := divergedPair(t, m)

			for k := 0; k < 20; k++ {
				child := NewGenome(99)
				child.Seed(int64(k))
				m.Mate(a, b, child, float64(k%3), 1.0)
				require.NoError(t, child.Verify())
				assert.Equal(t, cfg.Genome.NumOutputs, child.CountNodes(NodeOutput))
				assert.Equal(t, 1, child.CountNodes(NodeBias))
				assert.Len(t, child.Traits, len(a.Traits))

				for _, l := range child.Links {
					_, inA := a.LinkIndex(l.Innovation)
					_, inB := b.LinkIndex(l.Innovation)
					assert.True(t, inA || inB, "innovation %d from neither parent", l.Innovation)
				}
			}
		})
	}
}

func TestMateFitterParentDisjointGenes(t *testing.T) {
	cfg := testConfig().WithSearchType(SearchBlended)
	cfg.Mating.ReenableProb = 0
	m := newTestManager(t, cfg)
	a, b := divergedPair(t, m)

	child := NewGenome(5)
	child.Seed(3)
	m.Mate(a, b, child, 2.0, 1.0)

	terms := AlignLinks(a, b)
	assert.Len(t, child.Links, len(a.Links))
	for i, l := range child.Links {
		assert.Equal(t, a.Links[i].Innovation, l.Innovation)
	}
	assert.Equal(t, terms.Matched+terms.Disjoint+terms.Excess, len(a.Links)+len(b.Links)-terms.Matched)
}

func TestMateMatchedDisabledStaysDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Mating.ReenableProb = 0
	m := newTestManager(t, cfg)
	genomes := seedGenomes(t, m, 2, 22)
	a, b := genomes[0], genomes[1]
	b.Links[0].Enabled = false

	child := NewGenome(1)
	child.Seed(1)
	m.Mate(a, b, child, 1.0, 1.0)
	require.Len(t, child.Links, len(a.Links))
	assert.False(t, child.Links[0].Enabled)
	assert.True(t, child.Links[1].Enabled)
}

func TestMateAveragesTraits(t *testing.T) {
	cfg := testConfig()
	m := newTestManager(t, cfg)
	genomes := seedGenomes(t, m, 2, 23)
	a, b := genomes[0], genomes[1]

	child := NewGenome(1)
	m.Mate(a, b, child, 1.0, 0.5)
	for p := range child.Traits[0].Params {
		want := (a.Traits[0].Params[p] + b.Traits[0].Params[p]) / 2
		assert.InDelta(t, want, child.Traits[0].Params[p], 1e-12)
	}
}
