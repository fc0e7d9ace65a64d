package nn

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/baldhumanity/accneat-go/neat"
)

var (
	// ErrNotConfigured is returned by Execute before a successful Configure.
	ErrNotConfigured = errors.New("executor not configured")
	// ErrUnsupportedBackend is returned by NewExecutor for an unknown backend name.
	ErrUnsupportedBackend = errors.New("unsupported executor backend")
	// ErrBatchFailed wraps any failure that invalidates a whole batch.
	ErrBatchFailed = errors.New("batch execution failed")
)

// Backend names accepted by NewExecutor.
const (
	BackendCPU  = "cpu"
	BackendLane = "lane"
)

// Executor evaluates batches of independent networks. Execute blocks until
// every result slot is written or the batch fails as a whole.
type Executor interface {
	// Configure pushes the task to the backend and fixes the maximum batch size.
	Configure(cfg EvaluatorConfig, batchSize int) error
	// Execute evaluates nets, writing results[i] for nets[i]. An empty batch is a no-op.
	Execute(nets []*Network, results []neat.OrganismEvaluation) error
}

// Options tunes an executor.
type Options struct {
	ActivationsPerInput int
	Workers             int // 0 means GOMAXPROCS
	LaneWidth           int
	Logger              *slog.Logger
}

// OptionsFromConfig derives executor options from the [Executor] section.
func OptionsFromConfig(ec neat.ExecutorConfig) Options {
	return Options{
		ActivationsPerInput: ec.ActivationsPerInput,
		Workers:             ec.Workers,
		LaneWidth:           ec.LaneWidth,
	}
}

func (o Options) withDefaults() Options {
	if o.ActivationsPerInput <= 0 {
		o.ActivationsPerInput = 10
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.LaneWidth <= 0 {
		o.LaneWidth = 64
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// NewExecutor creates the executor for backend.
func NewExecutor(backend string, opts Options) (Executor, error) {
	opts = opts.withDefaults()
	switch backend {
	case BackendCPU:
		return &cpuExecutor{base: base{opts: opts}}, nil
	case BackendLane:
		return &laneExecutor{base: base{opts: opts}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, backend)
	}
}

// base holds the state shared by both backends.
type base struct {
	opts      Options
	cfg       EvaluatorConfig
	batchSize int
}

func (b *base) configure(cfg EvaluatorConfig, batchSize int) error {
	if cfg == nil {
		return fmt.Errorf("evaluator config is nil")
	}
	if batchSize < 0 {
		return fmt.Errorf("batch size cannot be negative, got %d", batchSize)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid evaluator config: %w", err)
	}
	b.cfg = cfg
	b.batchSize = batchSize
	return nil
}

func (b *base) check(nets []*Network, results []neat.OrganismEvaluation) error {
	if b.cfg == nil {
		return ErrNotConfigured
	}
	if len(nets) > b.batchSize {
		return fmt.Errorf("%w: batch of %d exceeds configured size %d", ErrBatchFailed, len(nets), b.batchSize)
	}
	if len(results) < len(nets) {
		return fmt.Errorf("%w: %d result slots for %d networks", ErrBatchFailed, len(results), len(nets))
	}
	return nil
}

// sanitize replaces non-finite values in one result slot.
func sanitize(r neat.OrganismEvaluation) neat.OrganismEvaluation {
	return r.Sanitized()
}

// resetResults clears the result slots of a failed batch.
func resetResults(results []neat.OrganismEvaluation) {
	for i := range results {
		results[i].Reset()
	}
}

// recoverBatch converts a panic in a batch task into an ErrBatchFailed error.
func recoverBatch(err *error, what string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %s panicked: %v", ErrBatchFailed, what, r)
	}
}
