package neat

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkInnovationIsStable(t *testing.T) {
	table := NewInnovationTable()
	a := table.LinkInnovation(1, 4)
	b := table.LinkInnovation(2, 4)

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, table.LinkInnovation(1, 4))
	assert.NotEqual(t, a, table.LinkInnovation(4, 1))
	assert.Greater(t, table.NextInnovation(), b)
}

func TestNodeSplitIsStable(t *testing.T) {
	table := NewInnovationTable()
	table.ReserveNode(4)
	innov := table.LinkInnovation(2, 4)

	s1 := table.NodeSplit(2, 4, innov)
	s2 := table.NodeSplit(2, 4, innov)
	assert.Equal(t, s1, s2)
	assert.Equal(t, 5, s1.Node)
	assert.NotEqual(t, s1.InInnovation, s1.OutInnovation)

	// A later link between the same nodes is a different gene and splits into a new node.
	s3 := table.NodeSplit(2, 4, innov+100)
	assert.NotEqual(t, s1.Node, s3.Node)
}

func TestInnovationTableConcurrentUse(t *testing.T) {
	table := NewInnovationTable()
	const workers = 8
	got := make([][]int, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for in := 1; in <= 10; in++ {
				got[w] = append(got[w], table.LinkInnovation(in, 20))
			}
		}(w)
	}
	wg.Wait()

	for w := 1; w < workers; w++ {
		assert.Equal(t, got[0], got[w])
	}
}

func TestInnovationSnapshotRestore(t *testing.T) {
	table := NewInnovationTable()
	table.ReserveNode(3)
	innov := table.LinkInnovation(1, 3)
	split := table.NodeSplit(1, 3, innov)
	table.LinkInnovation(2, 3)

	restored := NewInnovationTable()
	restored.Restore(table.Snapshot())

	assert.Equal(t, table.Snapshot(), restored.Snapshot())
	assert.Equal(t, innov, restored.LinkInnovation(1, 3))
	assert.Equal(t, split, restored.NodeSplit(1, 3, innov))
	assert.Equal(t, table.LinkInnovation(5, 6), restored.LinkInnovation(5, 6))
	assert.Equal(t, table.NodeSplit(2, 3, 99), restored.NodeSplit(2, 3, 99))
}

func TestSameSplitInTwoGenomesSharesNumbers(t *testing.T) {
	cfg := testConfig()
	cfg.Genome.NumInputs = 2 // bias + one sensor; only the sensor link can split
	m := newTestManager(t, cfg)
	genomes := seedGenomes(t, m, 2, 6)

	require.True(t, m.mutateAddNode(genomes[0]))
	require.True(t, m.mutateAddNode(genomes[1]))

	a, b := genomes[0], genomes[1]
	require.NoError(t, a.Verify())
	require.NoError(t, b.Verify())
	require.Len(t, a.Nodes, len(b.Nodes))
	for i := range a.Nodes {
		assert.Equal(t, a.Nodes[i].ID, b.Nodes[i].ID)
	}
	require.Len(t, a.Links, len(b.Links))
	for i := range a.Links {
		assert.Equal(t, a.Links[i].Innovation, b.Links[i].Innovation)
		assert.Equal(t, a.Links[i].In, b.Links[i].In)
		assert.Equal(t, a.Links[i].Out, b.Links[i].Out)
	}

	// A third genome splitting the same link receives the same node.
	c := seedGenomes(t, m, 1, 7)[0]
	require.True(t, m.mutateAddNode(c))
	assert.Equal(t, a.Nodes, c.Nodes)
}
