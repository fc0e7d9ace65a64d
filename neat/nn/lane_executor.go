package nn

import (
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/baldhumanity/accneat-go/neat"
)

// laneExecutor is the accelerator backend. Each group of LaneWidth networks
// is uploaded into flat struct-of-arrays buffers, one region per lane, and
// all lanes of a group are stepped in lockstep by a single kernel that walks
// the combined link arrays. Groups run concurrently. Only sum aggregation
// maps onto the kernel; any other aggregation fails the batch.
type laneExecutor struct {
	base
	groups []*laneGroup
}

func (e *laneExecutor) Configure(cfg EvaluatorConfig, batchSize int) error {
	if err := e.configure(cfg, batchSize); err != nil {
		return err
	}
	ngroups := (batchSize + e.opts.LaneWidth - 1) / e.opts.LaneWidth
	e.groups = make([]*laneGroup, ngroups)
	for i := range e.groups {
		e.groups[i] = &laneGroup{}
	}
	return nil
}

func (e *laneExecutor) Execute(nets []*Network, results []neat.OrganismEvaluation) error {
	if len(nets) == 0 {
		return nil
	}
	if err := e.check(nets, results); err != nil {
		return err
	}
	for i, n := range nets {
		if n.AggregationName() != "sum" {
			return fmt.Errorf("%w: lane backend supports only sum aggregation, network %d uses %q", ErrBatchFailed, i, n.AggregationName())
		}
	}

	width := e.opts.LaneWidth
	p := pool.New().WithErrors().WithMaxGoroutines(e.opts.Workers)
	for g := 0; g*width < len(nets); g++ {
		lo, hi := g*width, (g+1)*width
		if hi > len(nets) {
			hi = len(nets)
		}
		group := e.groups[g]
		p.Go(func() (err error) {
			defer recoverBatch(&err, fmt.Sprintf("lane group [%d, %d)", lo, hi))
			group.upload(nets[lo:hi])
			group.run(e.cfg, e.opts.ActivationsPerInput, results[lo:hi])
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		resetResults(results[:len(nets)])
		e.opts.Logger.Error("lane batch failed", "networks", len(nets), "error", err)
		return err
	}
	return nil
}

// laneGroup holds the device buffers of one lane group. Node indices are
// global within the group; lane k owns nodes [nodeBase[k], nodeBase[k+1]).
type laneGroup struct {
	act  []float64
	sums []float64

	nodeBase   []int
	targetBase []int
	sensorBase []int
	outputBase []int

	targets   []int
	targetAct []neat.ActivationFunc
	sensors   []int
	outputs   []int

	linkSrc []int
	linkDst []int
	linkW   []float64

	evals []Evaluator
	live  []bool
}

// upload copies the networks into the group's buffers.
func (g *laneGroup) upload(nets []*Network) {
	g.act = g.act[:0]
	g.nodeBase = g.nodeBase[:0]
	g.targetBase = g.targetBase[:0]
	g.sensorBase = g.sensorBase[:0]
	g.outputBase = g.outputBase[:0]
	g.targets = g.targets[:0]
	g.targetAct = g.targetAct[:0]
	g.sensors = g.sensors[:0]
	g.outputs = g.outputs[:0]
	g.linkSrc = g.linkSrc[:0]
	g.linkDst = g.linkDst[:0]
	g.linkW = g.linkW[:0]

	for _, n := range nets {
		nb := len(g.act)
		g.nodeBase = append(g.nodeBase, nb)
		g.targetBase = append(g.targetBase, len(g.targets))
		g.sensorBase = append(g.sensorBase, len(g.sensors))
		g.outputBase = append(g.outputBase, len(g.outputs))

		for i := 0; i < n.numNodes; i++ {
			g.act = append(g.act, 0)
		}
		for _, b := range n.bias {
			g.act[nb+b] = 1.0
		}
		for _, s := range n.sensors {
			g.sensors = append(g.sensors, nb+s)
		}
		for _, o := range n.outputs {
			g.outputs = append(g.outputs, nb+o)
		}
		for t, idx := range n.targets {
			g.targets = append(g.targets, nb+idx)
			g.targetAct = append(g.targetAct, n.activation)
			for k := n.start[t]; k < n.start[t+1]; k++ {
				g.linkSrc = append(g.linkSrc, nb+n.linkSrc[k])
				g.linkDst = append(g.linkDst, nb+idx)
				g.linkW = append(g.linkW, n.linkWeight[k])
			}
		}
	}
	g.nodeBase = append(g.nodeBase, len(g.act))
	g.targetBase = append(g.targetBase, len(g.targets))
	g.sensorBase = append(g.sensorBase, len(g.sensors))
	g.outputBase = append(g.outputBase, len(g.outputs))
	g.sums = growFloat(g.sums, len(g.act))
}

func (g *laneGroup) lanes() int {
	return len(g.nodeBase) - 1
}

// pass is the kernel: one synchronous activation of every lane.
func (g *laneGroup) pass() {
	for _, t := range g.targets {
		g.sums[t] = 0
	}
	for k, src := range g.linkSrc {
		// The conversion rounds the product so it is never fused with the add.
		g.sums[g.linkDst[k]] += float64(g.linkW[k] * g.act[src])
	}
	for i, t := range g.targets {
		g.act[t] = g.targetAct[i](g.sums[t])
	}
}

func (g *laneGroup) clearLane(lane int) {
	for _, t := range g.targets[g.targetBase[lane]:g.targetBase[lane+1]] {
		g.act[t] = 0
	}
}

func (g *laneGroup) loadSensors(lane int, values []float64) {
	for i, idx := range g.sensors[g.sensorBase[lane]:g.sensorBase[lane+1]] {
		if i < len(values) {
			g.act[idx] = values[i]
		} else {
			g.act[idx] = 0
		}
	}
}

func (g *laneGroup) readOutputs(lane int, dst []float64) []float64 {
	dst = dst[:0]
	for _, idx := range g.outputs[g.outputBase[lane]:g.outputBase[lane+1]] {
		dst = append(dst, g.act[idx])
	}
	return dst
}

// run drives one evaluator per lane until every lane has finished its task.
func (g *laneGroup) run(cfg EvaluatorConfig, activations int, results []neat.OrganismEvaluation) {
	n := g.lanes()
	if cap(g.evals) < n {
		g.evals = make([]Evaluator, n)
		g.live = make([]bool, n)
	}
	g.evals = g.evals[:n]
	g.live = g.live[:n]
	for lane := 0; lane < n; lane++ {
		g.evals[lane] = cfg.NewEvaluator()
		g.live[lane] = true
	}

	var out []float64
	for {
		stepping := false
		for lane, ev := range g.evals {
			if !g.live[lane] {
				continue
			}
			if !ev.NextStep() {
				g.live[lane] = false
				continue
			}
			stepping = true
			if ev.ClearNonInput() {
				g.clearLane(lane)
			}
			g.loadSensors(lane, ev.Sensors())
		}
		if !stepping {
			break
		}
		for k := 0; k < activations; k++ {
			g.pass()
		}
		for lane, ev := range g.evals {
			if g.live[lane] {
				out = g.readOutputs(lane, out)
				ev.Evaluate(out)
			}
		}
	}
	for lane, ev := range g.evals {
		results[lane] = sanitize(ev.Result())
		g.evals[lane] = nil
	}
}
