package nn

import (
	"fmt"

	"github.com/baldhumanity/accneat-go/neat"
)

// GenomeEvaluator compiles genomes into networks and evaluates them with an
// Executor. Networks are kept between batches and recompiled in place.
type GenomeEvaluator struct {
	exec        Executor
	activation  string
	aggregation string
	nets        []*Network
}

var _ neat.BatchEvaluator = (*GenomeEvaluator)(nil)

// NewGenomeEvaluator wraps a configured executor.
func NewGenomeEvaluator(exec Executor, activation, aggregation string) (*GenomeEvaluator, error) {
	if _, err := neat.GetActivation(activation); err != nil {
		return nil, err
	}
	if _, err := neat.GetAggregation(aggregation); err != nil {
		return nil, err
	}
	return &GenomeEvaluator{exec: exec, activation: activation, aggregation: aggregation}, nil
}

// NewBatchEvaluator builds the executor selected by cfg, configures it for
// batches of up to batchSize networks and wraps it in a GenomeEvaluator.
func NewBatchEvaluator(cfg *neat.Config, task EvaluatorConfig, batchSize int) (*GenomeEvaluator, error) {
	exec, err := NewExecutor(cfg.Executor.Backend, OptionsFromConfig(cfg.Executor))
	if err != nil {
		return nil, err
	}
	if err := exec.Configure(task, batchSize); err != nil {
		return nil, fmt.Errorf("configure %s executor: %w", cfg.Executor.Backend, err)
	}
	return NewGenomeEvaluator(exec, cfg.Genome.Activation, cfg.Genome.Aggregation)
}

// EvaluateBatch implements neat.BatchEvaluator.
func (e *GenomeEvaluator) EvaluateBatch(genomes []*neat.Genome, results []neat.OrganismEvaluation) error {
	for len(e.nets) < len(genomes) {
		n := &Network{}
		if err := n.SetFunctions(e.activation, e.aggregation); err != nil {
			return err
		}
		e.nets = append(e.nets, n)
	}
	nets := e.nets[:len(genomes)]
	for i, g := range genomes {
		if err := nets[i].Compile(g); err != nil {
			return fmt.Errorf("compile genome %d: %w", g.ID, err)
		}
	}
	return e.exec.Execute(nets, results)
}
