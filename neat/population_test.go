package neat

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSpeciesPopulationRejectsEmptySeeds(t *testing.T) {
	cfg := testConfig()
	m := newTestManager(t, cfg)
	_, err := NewSpeciesPopulation(cfg, m, evaluatorFunc(weightFitness), NewRNG(1), nil)
	assert.ErrorIs(t, err, ErrEmptyPopulation)
}

func TestNewSpeciesPopulationSpeciates(t *testing.T) {
	cfg := testConfig()
	p := newTestPopulation(t, cfg, evaluatorFunc(weightFitness), 1)

	assert.Equal(t, cfg.NEAT.PopSize, p.Size())
	assert.Equal(t, 0, p.Generation())
	assert.Equal(t, StateInitialized, p.State())
	require.NotEmpty(t, p.Species())
	require.NoError(t, p.Verify())
	for i := 0; i < p.Size(); i++ {
		assert.Equal(t, i, p.Get(i).Index)
		assert.Equal(t, i, p.Get(i).Genome.ID)
	}
}

func TestNextGenerationKeepsSizeAndPartition(t *testing.T) {
	cfg := testConfig()
	cfg.Species.CompatThreshold = 2.0
	p := newTestPopulation(t, cfg, evaluatorFunc(weightFitness), 2)

	for gen := 1; gen <= 20; gen++ {
		require.NoError(t, p.NextGeneration())
		assert.Equal(t, gen, p.Generation())
		assert.Equal(t, cfg.NEAT.PopSize, p.Size())
		require.NoError(t, p.Verify(), "generation %d", gen)

		ids := make(map[int]bool)
		members := 0
		for _, sp := range p.Species() {
			assert.False(t, ids[sp.ID], "species id %d reused", sp.ID)
			ids[sp.ID] = true
			members += len(sp.Members)
		}
		assert.Equal(t, p.Size(), members)
		for i := 0; i < p.Size(); i++ {
			o := p.Get(i)
			assert.Equal(t, i, o.Index)
			assert.Equal(t, i, o.Genome.ID)
			assert.Equal(t, gen, o.Generation)
		}
	}
	best, _ := p.HighestFitness()
	assert.Greater(t, best, 4.0)
}

type countingEvaluator struct {
	calls int
}

func (c *countingEvaluator) EvaluateBatch(genomes []*Genome, results []OrganismEvaluation) error {
	c.calls++
	for i := range genomes {
		results[i] = OrganismEvaluation{Fitness: 1, Error: 0}
	}
	return nil
}

func TestEvaluateOncePerGeneration(t *testing.T) {
	eval := &countingEvaluator{}
	p := newTestPopulation(t, testConfig(), eval, 3)

	require.NoError(t, p.Evaluate())
	require.NoError(t, p.Evaluate())
	assert.Equal(t, 1, eval.calls)

	require.NoError(t, p.NextGeneration())
	assert.Equal(t, 1, eval.calls)
	require.NoError(t, p.NextGeneration())
	assert.Equal(t, 2, eval.calls)
}

type failingEvaluator struct {
	err error
}

func (f failingEvaluator) EvaluateBatch([]*Genome, []OrganismEvaluation) error {
	return f.err
}

func TestEvaluateErrorIsReported(t *testing.T) {
	boom := errors.New("boom")
	p := newTestPopulation(t, testConfig(), failingEvaluator{err: boom}, 3)

	err := p.NextGeneration()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, p.Generation())
}

func TestZeroFitnessEmptiesPopulation(t *testing.T) {
	zero := evaluatorFunc(func(*Genome) OrganismEvaluation { return OrganismEvaluation{Fitness: 0} })
	p := newTestPopulation(t, testConfig(), zero, 4)

	err := p.NextGeneration()
	require.ErrorIs(t, err, ErrEmptyPopulation)
	assert.Equal(t, StateTerminated, p.State())
	assert.ErrorIs(t, p.NextGeneration(), ErrEmptyPopulation)
}

func TestDeltaCodingFavoursTopTwoSpecies(t *testing.T) {
	cfg := testConfig()
	cfg.Species.CompatThreshold = 0.3
	p := newTestPopulation(t, cfg, evaluatorFunc(weightFitness), 5)
	require.GreaterOrEqual(t, len(p.Species()), 3)

	require.NoError(t, p.Evaluate())
	p.updateStatistics()
	p.highestLastChanged = cfg.Reproduction.DeltaCodingAge

	quotas, err := p.allocate()
	require.NoError(t, err)
	assert.Zero(t, p.highestLastChanged)

	order := make([]int, len(p.Species()))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return p.Species()[order[a]].BestFitness() > p.Species()[order[b]].BestFitness()
	})
	n := p.Size()
	assert.Equal(t, (n+1)/2, quotas[order[0]])
	assert.Equal(t, n-(n+1)/2, quotas[order[1]])
	for _, i := range order[2:] {
		assert.Zero(t, quotas[i])
	}
	top := p.Species()[order[0]]
	assert.Equal(t, top.Age, top.AgeOfLastImprovement)
}

func TestAllocateSumsToPopulationSize(t *testing.T) {
	cfg := testConfig()
	cfg.Species.CompatThreshold = 1.0
	p := newTestPopulation(t, cfg, evaluatorFunc(weightFitness), 6)
	require.NoError(t, p.Evaluate())
	p.updateStatistics()

	quotas, err := p.allocate()
	require.NoError(t, err)
	require.Len(t, quotas, len(p.Species()))
	sum := 0
	for _, q := range quotas {
		sum += q
	}
	assert.Equal(t, p.Size(), sum)
}

func TestSameSeedSameRun(t *testing.T) {
	run := func() string {
		cfg := testConfig()
		cfg.Species.CompatThreshold = 2.0
		p := newTestPopulation(t, cfg, evaluatorFunc(weightFitness), 7)
		for gen := 0; gen < 15; gen++ {
			require.NoError(t, p.NextGeneration())
		}
		var sb strings.Builder
		require.NoError(t, p.Write(&sb))
		return sb.String()
	}
	first := run()
	assert.NotEmpty(t, first)
	assert.Equal(t, first, run())
}

func TestFittestAndMakeCopy(t *testing.T) {
	p := newTestPopulation(t, testConfig(), evaluatorFunc(weightFitness), 8)
	require.NoError(t, p.Evaluate())

	best := p.Fittest()
	for i := 0; i < p.Size(); i++ {
		assert.LessOrEqual(t, p.Get(i).Eval.Fitness, best.Eval.Fitness)
	}

	c := p.MakeCopy(best.Index)
	c.Genome.Links[0].Weight += 100
	assert.NotEqual(t, c.Genome.Links[0].Weight, p.Get(best.Index).Genome.Links[0].Weight)
}

func TestWrite(t *testing.T) {
	p := newTestPopulation(t, testConfig(), evaluatorFunc(weightFitness), 9)
	require.NoError(t, p.NextGeneration())

	var sb strings.Builder
	require.NoError(t, p.Write(&sb))
	out := sb.String()
	assert.Equal(t, len(p.Species()), strings.Count(out, "/* Species #"))
	assert.Equal(t, p.Size(), strings.Count(out, "/* Organism #"))
	assert.Equal(t, p.Size(), strings.Count(out, "genomestart"))
	assert.Equal(t, p.Size(), strings.Count(out, "genomeend"))
}

func TestStats(t *testing.T) {
	p := newTestPopulation(t, testConfig(), evaluatorFunc(weightFitness), 10)
	require.NoError(t, p.Evaluate())

	s := p.Stats()
	assert.Equal(t, p.Size(), s.Size)
	assert.Equal(t, len(p.Species()), s.NumSpecies)
	assert.Equal(t, p.Fittest().Eval.Fitness, s.BestFitness)
	assert.LessOrEqual(t, s.MeanFitness, s.BestFitness)
	assert.Equal(t, 4.0, s.MeanNodes)
	assert.Equal(t, 3.0, s.MeanLinks)
}

func TestVerifyDetectsBrokenPartition(t *testing.T) {
	p := newTestPopulation(t, testConfig(), evaluatorFunc(weightFitness), 11)
	require.NoError(t, p.Verify())

	sp := p.Species()[0]
	sp.Members = append(sp.Members, sp.Members[0])
	assert.Error(t, p.Verify())
}
