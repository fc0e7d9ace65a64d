package experiment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/accneat-go/neat"
	"github.com/baldhumanity/accneat-go/store"
)

func xorConfig(t *testing.T) *neat.Config {
	t.Helper()
	cfg, err := neat.LoadConfig(filepath.Join("..", "..", "examples", "xor", "configs", "xor-config"))
	require.NoError(t, err)
	return cfg
}

func TestXORRunIsReproducible(t *testing.T) {
	run := func(backend string) string {
		cfg := xorConfig(t).WithPopSize(150)
		cfg.Executor.Backend = backend
		pop, err := NewPopulation(cfg, XOR(), 1)
		require.NoError(t, err)
		for gen := 0; gen < 50; gen++ {
			require.NoError(t, pop.NextGeneration())
			require.NoError(t, pop.Verify())
		}
		var sb strings.Builder
		require.NoError(t, pop.Write(&sb))
		return sb.String()
	}

	first := run("cpu")
	require.NotEmpty(t, first)
	assert.Equal(t, first, run("cpu"))
	assert.Equal(t, first, run("lane"))
}

func TestXORImproves(t *testing.T) {
	cfg := xorConfig(t)
	pop, err := NewPopulation(cfg, XOR(), 3)
	require.NoError(t, err)

	require.NoError(t, pop.Evaluate())
	start := pop.Fittest().Eval.Fitness
	for gen := 0; gen < 30; gen++ {
		require.NoError(t, pop.NextGeneration())
	}
	require.NoError(t, pop.Evaluate())
	best, _ := pop.HighestFitness()
	assert.GreaterOrEqual(t, best, start)
	assert.Equal(t, cfg.NEAT.PopSize, pop.Size())
}

func TestRunnerWritesResults(t *testing.T) {
	ctx := context.Background()
	cfg := xorConfig(t).WithPopSize(40)
	cfg.NEAT.NumRuns = 2
	cfg.NEAT.PrintEvery = 2
	st := store.NewMemoryStore()
	out := filepath.Join(t.TempDir(), "experiments")

	r := &Runner{Config: cfg, Experiment: XOR(), Store: st, OutDir: out, Seed: 5, MaxGens: 5}
	results, err := r.Run(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for i, res := range results {
		assert.Equal(t, i, res.Index)
		assert.GreaterOrEqual(t, res.Generations, 1)
		assert.LessOrEqual(t, res.Generations, 5)

		run, ok, err := st.GetRun(ctx, res.RunID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(5+i), run.Seed)
		assert.Equal(t, "xor", run.Experiment)

		gens, err := st.Generations(ctx, res.RunID)
		require.NoError(t, err)
		assert.Len(t, gens, res.Generations)

		fittest, err := st.Fittest(ctx, res.RunID)
		require.NoError(t, err)
		require.NotEmpty(t, fittest)
		assert.Contains(t, fittest[0].Genome, "genomestart")

		dir := filepath.Join(out, "xor", fmt.Sprintf("run-%d", i))
		_, err = os.Stat(filepath.Join(dir, "gen_0"))
		assert.NoError(t, err)
		_, err = os.Stat(filepath.Join(dir, "fittest_0"))
		assert.NoError(t, err)

		resumed, err := Resume(ctx, st, cfg, XOR(), res.RunID)
		require.NoError(t, err)
		require.NoError(t, resumed.Verify())
		assert.Equal(t, cfg.NEAT.PopSize, resumed.Size())
	}
}

func TestRunnerRefusesExistingDir(t *testing.T) {
	ctx := context.Background()
	cfg := xorConfig(t).WithPopSize(20)
	out := t.TempDir()

	r := &Runner{Config: cfg, Experiment: XOR(), Store: store.NewMemoryStore(), OutDir: out, MaxGens: 1}
	_, err := r.Run(ctx)
	assert.ErrorIs(t, err, ErrRunDirExists)

	r.Force = true
	_, err = r.Run(ctx)
	assert.NoError(t, err)
}

func TestRunnerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := xorConfig(t).WithPopSize(20)

	r := &Runner{Config: cfg, Experiment: XOR(), Store: store.NewMemoryStore(), OutDir: filepath.Join(t.TempDir(), "out"), MaxGens: 10}
	_, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunnerValidatesInputs(t *testing.T) {
	_, err := (&Runner{}).Run(context.Background())
	assert.Error(t, err)

	r := &Runner{Config: neat.DefaultConfig(), Experiment: XOR(), Store: store.NewMemoryStore()}
	_, err = r.Run(context.Background())
	assert.Error(t, err)
}

func TestResumeWithoutCheckpoint(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.Init(ctx))
	_, err := Resume(ctx, st, xorConfig(t), XOR(), "missing")
	assert.Error(t, err)
}
