// Command accneat evolves networks for one of the registered experiments.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/baldhumanity/accneat-go/neat"
	"github.com/baldhumanity/accneat-go/neat/experiment"
	"github.com/baldhumanity/accneat-go/store"
)

type options struct {
	force      bool
	numRuns    int
	seed       int64
	popSize    int
	maxGens    int
	searchType string
	configPath string
	backend    string
	storeKind  string
	dbPath     string
	outDir     string
	verbose    bool

	// Set when the flag was given explicitly and overrides the config file.
	popSizeSet bool
	searchSet  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "accneat [flags] experiment",
		Short: "Evolve neural networks with speciated NEAT",
		Long: "Evolve neural networks with speciated NEAT.\n\nExperiments: " +
			strings.Join(experiment.Names(), ", "),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.popSizeSet = cmd.Flags().Changed("popsize")
			opts.searchSet = cmd.Flags().Changed("search")
			return run(cmd.Context(), opts, args[0])
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&opts.force, "force", "f", false, "delete an existing experiments directory")
	f.IntVarP(&opts.numRuns, "runs", "c", 1, "number of runs")
	f.Int64VarP(&opts.seed, "seed", "r", 1, "random seed")
	f.IntVarP(&opts.popSize, "popsize", "n", 1000, "population size")
	f.IntVarP(&opts.maxGens, "maxgens", "x", 10000, "maximum generations per run")
	f.StringVarP(&opts.searchType, "search", "s", string(neat.SearchPhased), "search type: phased, blended or complexify")
	f.StringVar(&opts.configPath, "config", "", "INI file overriding the default parameters")
	f.StringVar(&opts.backend, "backend", "", "executor backend: cpu or lane (default from config)")
	f.StringVar(&opts.storeKind, "store", "memory", "result store: memory or sqlite")
	f.StringVar(&opts.dbPath, "db", "accneat.db", "sqlite database path")
	f.StringVar(&opts.outDir, "out", "experiments", "output directory")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log every generation")
	return cmd
}

func loadConfig(opts *options) (*neat.Config, error) {
	cfg := neat.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := neat.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		opts.popSizeSet, opts.searchSet = true, true
	}
	if opts.searchSet {
		st, err := neat.ParseSearchType(opts.searchType)
		if err != nil {
			return nil, err
		}
		cfg = cfg.WithSearchType(st)
	}
	if opts.popSizeSet {
		cfg = cfg.WithPopSize(opts.popSize)
	}
	cfg.NEAT.NumRuns = opts.numRuns
	if opts.backend != "" {
		cfg.Executor.Backend = opts.backend
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, opts *options, name string) error {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	exp, err := experiment.Lookup(name)
	if err != nil {
		return err
	}
	if opts.maxGens <= 0 {
		return fmt.Errorf("maxgens must be positive, got %d", opts.maxGens)
	}

	st, err := store.NewStore(opts.storeKind, opts.dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	runner := &experiment.Runner{
		Config:     cfg,
		Experiment: exp,
		Store:      st,
		Logger:     logger,
		OutDir:     opts.outDir,
		Force:      opts.force,
		Seed:       opts.seed,
		MaxGens:    opts.maxGens,
	}
	results, err := runner.Run(ctx)
	for _, r := range results {
		status := "failed"
		if r.Solved {
			status = "solved"
		}
		fmt.Printf("run %d (%s): %s after %d generations, fitness %.6f, error %.6f\n",
			r.Index, r.RunID, status, r.Generations, r.Fitness, r.Error)
	}
	return err
}
