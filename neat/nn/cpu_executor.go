package nn

import (
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/baldhumanity/accneat-go/neat"
)

// cpuExecutor fans networks out over a bounded goroutine pool.
type cpuExecutor struct {
	base
}

func (e *cpuExecutor) Configure(cfg EvaluatorConfig, batchSize int) error {
	return e.configure(cfg, batchSize)
}

func (e *cpuExecutor) Execute(nets []*Network, results []neat.OrganismEvaluation) error {
	if len(nets) == 0 {
		return nil
	}
	if err := e.check(nets, results); err != nil {
		return err
	}

	workers := e.opts.Workers
	if workers > len(nets) {
		workers = len(nets)
	}
	chunk := (len(nets) + workers - 1) / workers

	p := pool.New().WithErrors().WithMaxGoroutines(workers)
	for lo := 0; lo < len(nets); lo += chunk {
		lo, hi := lo, lo+chunk
		if hi > len(nets) {
			hi = len(nets)
		}
		p.Go(func() (err error) {
			defer recoverBatch(&err, fmt.Sprintf("networks [%d, %d)", lo, hi))
			for i := lo; i < hi; i++ {
				results[i] = runEvaluator(nets[i], e.cfg, e.opts.ActivationsPerInput)
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		resetResults(results[:len(nets)])
		e.opts.Logger.Error("cpu batch failed", "networks", len(nets), "error", err)
		return err
	}
	return nil
}
