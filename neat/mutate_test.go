package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutationsKeepGenomesValid(t *testing.T) {
	for _, st := range []SearchType{SearchPhased, SearchBlended, SearchComplexify} {
		t.Run(string(st), func(t *testing.T) {
			cfg := testConfig().WithSearchType(st)
			cfg.Mutation.AddNodeProb = 0.2
			cfg.Mutation.DeleteNodeProb = 0.1
			m := newTestManager(t, cfg)
			genomes := seedGenomes(t, m, 10, 11)

			for round := 0; round < 100; round++ {
				if round == 50 && st == SearchPhased {
					m.restoreSearchState(SearchState{Pruning: true})
				}
				for _, g := range genomes {
					for _, op := range []MutationOp{MutateAny, MutateStructure, MutateWeights} {
						m.Mutate(g, op)
					}
					require.NoError(t, g.Verify(), "round %d", round)
					for _, l := range g.Links {
						assert.LessOrEqual(t, l.Weight, cfg.Genome.WeightCap)
						assert.GreaterOrEqual(t, l.Weight, -cfg.Genome.WeightCap)
					}
					assert.Equal(t, cfg.Genome.NumInputs, g.CountNodes(NodeBias)+g.CountNodes(NodeSensor))
					assert.Equal(t, cfg.Genome.NumOutputs, g.CountNodes(NodeOutput))
				}
			}
		})
	}
}

func TestAddNodeSplitsLink(t *testing.T) {
	cfg := testConfig()
	cfg.Genome.NumInputs = 2
	m := newTestManager(t, cfg)
	g := seedGenomes(t, m, 1, 12)[0]
	old := g.Links[g.findLink(2, 3)]

	require.True(t, m.mutateAddNode(g))
	require.NoError(t, g.Verify())

	split := m.table.NodeSplit(old.In, old.Out, old.Innovation)
	assert.True(t, g.HasNode(split.Node))
	i, ok := g.LinkIndex(old.Innovation)
	require.True(t, ok)
	assert.False(t, g.Links[i].Enabled)

	i, ok = g.LinkIndex(split.InInnovation)
	require.True(t, ok)
	assert.Equal(t, 1.0, g.Links[i].Weight)
	assert.Equal(t, old.In, g.Links[i].In)

	i, ok = g.LinkIndex(split.OutInnovation)
	require.True(t, ok)
	assert.Equal(t, old.Weight, g.Links[i].Weight)
	assert.Equal(t, old.Out, g.Links[i].Out)
}

func TestAddLinkFindsNewConnection(t *testing.T) {
	cfg := testConfig()
	cfg.Mutation.RecurOnlyProb = 0
	cfg.Mutation.RecurProb = 0
	m := newTestManager(t, cfg)
	g := seedGenomes(t, m, 1, 13)[0]
	require.True(t, m.mutateAddNode(g))
	before := len(g.Links)

	added := false
	for k := 0; k < 20 && !added; k++ {
		added = m.mutateAddLink(g)
	}
	require.True(t, added)
	require.NoError(t, g.Verify())
	assert.Len(t, g.Links, before+1)
	for _, l := range g.Links {
		assert.False(t, l.Recurrent)
	}
}

func TestAddLinkRecurrentOnly(t *testing.T) {
	cfg := testConfig()
	cfg.Mutation.RecurOnlyProb = 1
	m := newTestManager(t, cfg)
	g := seedGenomes(t, m, 1, 14)[0]

	added := false
	for k := 0; k < 20 && !added; k++ {
		added = m.mutateAddLink(g)
	}
	require.True(t, added)
	recurrent := 0
	for _, l := range g.Links {
		if l.Recurrent {
			recurrent++
		}
	}
	assert.Equal(t, 1, recurrent)
}

func TestDeleteNodeRemovesLinks(t *testing.T) {
	cfg := testConfig()
	m := newTestManager(t, cfg)
	g := seedGenomes(t, m, 1, 15)[0]
	require.True(t, m.mutateAddNode(g))
	require.Equal(t, 1, g.CountNodes(NodeHidden))

	require.True(t, m.mutateDeleteNode(g))
	require.NoError(t, g.Verify())
	assert.Zero(t, g.CountNodes(NodeHidden))
	assert.False(t, m.mutateDeleteNode(g))
}

func TestDeleteLinkRemovesOrphans(t *testing.T) {
	cfg := testConfig()
	cfg.Genome.NumInputs = 2
	m := newTestManager(t, cfg)
	g := seedGenomes(t, m, 1, 16)[0]
	require.True(t, m.mutateAddNode(g))

	for len(g.Links) > 0 {
		require.True(t, m.mutateDeleteLink(g))
		require.NoError(t, g.Verify())
	}
	assert.Zero(t, g.CountNodes(NodeHidden))
	assert.False(t, m.mutateDeleteLink(g))
}

func TestToggleEnableKeepsAnOutgoingLink(t *testing.T) {
	g := &Genome{
		Nodes: []NodeGene{{ID: 1, Type: NodeSensor}, {ID: 2, Type: NodeOutput}},
		Links: []LinkGene{{In: 1, Out: 2, Enabled: true, Innovation: 1}},
	}
	g.Seed(1)
	for k := 0; k < 10; k++ {
		mutateToggleEnable(g)
		assert.True(t, g.Links[0].Enabled)
	}
}

func TestSearchTypeRates(t *testing.T) {
	cfg := testConfig()

	complexify := newTestManager(t, cfg.WithSearchType(SearchComplexify)).rates()
	assert.Zero(t, complexify.deleteLink)
	assert.Zero(t, complexify.deleteNode)
	assert.Equal(t, cfg.Mutation.AddLinkProb, complexify.addLink)

	blended := newTestManager(t, cfg.WithSearchType(SearchBlended)).rates()
	assert.InDelta(t, cfg.Mutation.DeleteLinkProb*0.1, blended.deleteLink, 1e-12)
	assert.Equal(t, cfg.Mutation.AddNodeProb, blended.addNode)

	phased := newTestManager(t, cfg.WithSearchType(SearchPhased))
	r := phased.rates()
	assert.Zero(t, r.deleteLink)
	assert.Equal(t, cfg.Mutation.AddLinkProb, r.addLink)

	for k := 0; k < cfg.Mutation.PhaseStagnationGens; k++ {
		phased.FinalizeGeneration(false)
	}
	r = phased.rates()
	assert.Zero(t, r.addLink)
	assert.Zero(t, r.addNode)
	assert.Equal(t, cfg.Mutation.DeleteLinkProb, r.deleteLink)

	for k := 0; k < cfg.Mutation.PhasePruneGens; k++ {
		phased.FinalizeGeneration(false)
	}
	assert.Equal(t, cfg.Mutation.AddLinkProb, phased.rates().addLink)

	for k := 0; k < cfg.Mutation.PhaseStagnationGens; k++ {
		phased.FinalizeGeneration(false)
	}
	phased.FinalizeGeneration(true)
	assert.Equal(t, SearchState{}, phased.searchState())
}
