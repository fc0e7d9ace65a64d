package experiment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/baldhumanity/accneat-go/neat"
	"github.com/baldhumanity/accneat-go/neat/nn"
	"github.com/baldhumanity/accneat-go/store"
)

var (
	// ErrRunDirExists is returned when the output directory already exists and Force is not set.
	ErrRunDirExists = errors.New("experiment output directory already exists")
	// ErrUnknownExperiment is returned by Lookup for an unregistered name.
	ErrUnknownExperiment = errors.New("unknown experiment")
)

// Runner evolves populations against an experiment, writing fittest genomes
// and population dumps under OutDir and statistics and checkpoints to Store.
type Runner struct {
	Config     *neat.Config
	Experiment *Experiment
	Store      store.Store
	Logger     *slog.Logger

	OutDir  string // defaults to "experiments"
	Force   bool   // delete an existing OutDir instead of failing
	Seed    int64
	MaxGens int
}

// RunResult summarises one run.
type RunResult struct {
	RunID       string
	Index       int
	Generations int
	Solved      bool
	Fitness     float64
	Error       float64
}

// Run executes Config.NEAT.NumRuns runs with seeds Seed, Seed+1, ...
func (r *Runner) Run(ctx context.Context) ([]RunResult, error) {
	if r.Config == nil || r.Experiment == nil || r.Store == nil {
		return nil, fmt.Errorf("runner needs a config, an experiment and a store")
	}
	if r.MaxGens <= 0 {
		return nil, fmt.Errorf("max generations must be positive, got %d", r.MaxGens)
	}
	if err := r.Config.Validate(); err != nil {
		return nil, err
	}
	if r.Logger == nil {
		r.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if r.OutDir == "" {
		r.OutDir = "experiments"
	}
	if err := r.prepareOutDir(); err != nil {
		return nil, err
	}
	if err := r.Store.Init(ctx); err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	results := make([]RunResult, 0, r.Config.NEAT.NumRuns)
	for i := 0; i < r.Config.NEAT.NumRuns; i++ {
		res, err := r.runOne(ctx, i)
		if err != nil {
			return results, fmt.Errorf("run %d: %w", i, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) prepareOutDir() error {
	if _, err := os.Stat(r.OutDir); err == nil {
		if !r.Force {
			return fmt.Errorf("%w: %s (use force to delete)", ErrRunDirExists, r.OutDir)
		}
		if err := os.RemoveAll(r.OutDir); err != nil {
			return fmt.Errorf("remove %s: %w", r.OutDir, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", r.OutDir, err)
	}
	return nil
}

func (r *Runner) runOne(ctx context.Context, index int) (RunResult, error) {
	cfg := r.Config
	exp := r.Experiment
	seed := r.Seed + int64(index)
	runID := store.NewRunID()
	logger := r.Logger.With("run", index, "run_id", runID)

	dir := filepath.Join(r.OutDir, exp.Name, fmt.Sprintf("run-%d", index))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return RunResult{}, fmt.Errorf("create run dir: %w", err)
	}
	if err := r.Store.SaveRun(ctx, store.Run{
		ID:         runID,
		Experiment: exp.Name,
		Seed:       seed,
		PopSize:    cfg.NEAT.PopSize,
		SearchType: cfg.NEAT.SearchType,
		CreatedAt:  time.Now(),
	}); err != nil {
		return RunResult{}, err
	}

	pop, err := NewPopulation(cfg, exp, seed)
	if err != nil {
		return RunResult{}, err
	}
	pop.SetLogger(logger)

	res := RunResult{RunID: runID, Index: index}
	best := -1.0
	for gen := 0; gen < r.MaxGens; gen++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := pop.Evaluate(); err != nil {
			return res, err
		}
		stats := pop.Stats()
		fittest := pop.Fittest()
		res.Generations = gen + 1
		res.Fitness = fittest.Eval.Fitness
		res.Error = fittest.Eval.Error

		if err := r.Store.SaveGeneration(ctx, store.GenerationRecord{
			RunID:          runID,
			Generation:     stats.Generation,
			NumSpecies:     stats.NumSpecies,
			BestFitness:    stats.BestFitness,
			MeanFitness:    stats.MeanFitness,
			BestError:      stats.BestError,
			HighestFitness: stats.HighestFitness,
			MeanNodes:      stats.MeanNodes,
			MeanLinks:      stats.MeanLinks,
		}); err != nil {
			return res, err
		}

		if fittest.Eval.Fitness > best {
			best = fittest.Eval.Fitness
			if err := r.writeFittest(ctx, runID, dir, gen, fittest); err != nil {
				return res, err
			}
			logger.Info("new fittest", "generation", gen, "fitness", fittest.Eval.Fitness, "error", fittest.Eval.Error,
				"nodes", len(fittest.Genome.Nodes), "links", len(fittest.Genome.Links))
		}

		if gen%cfg.NEAT.PrintEvery == 0 {
			if err := writeFile(filepath.Join(dir, fmt.Sprintf("gen_%d", gen)), pop.Write); err != nil {
				return res, err
			}
			if err := r.saveCheckpoint(ctx, runID, pop); err != nil {
				return res, err
			}
		}

		if fittest.Eval.Fitness >= cfg.NEAT.FitnessThreshold {
			res.Solved = true
			logger.Info("solved", "generation", gen, "fitness", fittest.Eval.Fitness)
			break
		}
		if err := pop.NextGeneration(); err != nil {
			return res, err
		}
	}
	if err := r.saveCheckpoint(ctx, runID, pop); err != nil {
		return res, err
	}
	return res, nil
}

func (r *Runner) writeFittest(ctx context.Context, runID, dir string, gen int, o *neat.Organism) error {
	var sb strings.Builder
	if err := neat.WriteOrganism(&sb, o); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("fittest_%d", gen)), []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write fittest: %w", err)
	}
	return r.Store.SaveFittest(ctx, store.FittestRecord{
		RunID:      runID,
		Generation: gen,
		Fitness:    o.Eval.Fitness,
		Error:      o.Eval.Error,
		Genome:     sb.String(),
	})
}

func (r *Runner) saveCheckpoint(ctx context.Context, runID string, pop *neat.SpeciesPopulation) error {
	var buf bytes.Buffer
	if err := neat.EncodeCheckpoint(&buf, pop.Snapshot()); err != nil {
		return err
	}
	return r.Store.SaveCheckpoint(ctx, runID, pop.Generation(), buf.Bytes())
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// NewPopulation seeds a population of cfg.NEAT.PopSize genomes shaped for
// exp and wires it to the configured executor backend.
func NewPopulation(cfg *neat.Config, exp *Experiment, seed int64) (*neat.SpeciesPopulation, error) {
	gm, err := neat.NewGenomeManager(cfg)
	if err != nil {
		return nil, err
	}
	evaluator, err := nn.NewBatchEvaluator(cfg, exp.Task, cfg.NEAT.PopSize)
	if err != nil {
		return nil, err
	}
	rng := neat.NewRNG(seed)
	seeds, err := gm.CreateSeedGeneration(cfg.NEAT.PopSize, rng, cfg.Genome.NumTraits, exp.NumInputs, exp.NumOutputs, cfg.Genome.NumHidden)
	if err != nil {
		return nil, err
	}
	return neat.NewSpeciesPopulation(cfg, gm, evaluator, rng, seeds)
}

// Resume rebuilds a population from the latest checkpoint of runID.
func Resume(ctx context.Context, st store.Store, cfg *neat.Config, exp *Experiment, runID string) (*neat.SpeciesPopulation, error) {
	_, payload, ok, err := st.LatestCheckpoint(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no checkpoint for run %s", runID)
	}
	cp, err := neat.DecodeCheckpoint(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	gm, err := neat.NewGenomeManager(cfg)
	if err != nil {
		return nil, err
	}
	evaluator, err := nn.NewBatchEvaluator(cfg, exp.Task, len(cp.Genomes))
	if err != nil {
		return nil, err
	}
	return neat.RestoreSpeciesPopulation(cfg, gm, evaluator, cp)
}
