package nn

import (
	"fmt"

	"github.com/baldhumanity/accneat-go/neat"
)

// Network is the compiled phenotype of a genome. Nodes keep the genome's id
// order; links are grouped by target node so that one pass over the link
// arrays computes every node's input.
type Network struct {
	numNodes int
	bias     []int // node indices held at 1.0
	sensors  []int
	outputs  []int

	// targets lists non-input nodes with at least one enabled incoming
	// link; the links of targets[t] are linkSrc/linkWeight[start[t]:start[t+1]].
	targets    []int
	start      []int
	linkSrc    []int
	linkWeight []float64

	act     []float64
	buf     []float64
	out     []float64
	scratch []float64

	activation      neat.ActivationFunc
	aggregation     neat.AggregationFunc
	aggregationName string
}

// NewNetwork compiles g using the named activation and aggregation functions.
func NewNetwork(g *neat.Genome, activation, aggregation string) (*Network, error) {
	n := &Network{}
	if err := n.SetFunctions(activation, aggregation); err != nil {
		return nil, err
	}
	if err := n.Compile(g); err != nil {
		return nil, err
	}
	return n, nil
}

// SetFunctions selects the node functions by name.
func (n *Network) SetFunctions(activation, aggregation string) error {
	act, err := neat.GetActivation(activation)
	if err != nil {
		return err
	}
	agg, err := neat.GetAggregation(aggregation)
	if err != nil {
		return err
	}
	n.activation = act
	n.aggregation = agg
	n.aggregationName = aggregation
	return nil
}

// Compile rebuilds the network from g, reusing the existing storage.
func (n *Network) Compile(g *neat.Genome) error {
	if n.activation == nil || n.aggregation == nil {
		return fmt.Errorf("network functions not set")
	}
	n.numNodes = len(g.Nodes)
	n.bias = n.bias[:0]
	n.sensors = n.sensors[:0]
	n.outputs = n.outputs[:0]
	n.targets = n.targets[:0]
	n.start = n.start[:0]
	n.linkSrc = n.linkSrc[:0]
	n.linkWeight = n.linkWeight[:0]

	for i, node := range g.Nodes {
		switch node.Type {
		case neat.NodeBias:
			n.bias = append(n.bias, i)
		case neat.NodeSensor:
			n.sensors = append(n.sensors, i)
		case neat.NodeOutput:
			n.outputs = append(n.outputs, i)
		}
	}

	// Bucket the enabled links by target, keeping innovation order inside a bucket.
	counts := make([]int, n.numNodes)
	for _, l := range g.Links {
		if !l.Enabled {
			continue
		}
		out, ok := g.NodeIndex(l.Out)
		if !ok {
			return fmt.Errorf("genome %d: link %d targets missing node %d", g.ID, l.Innovation, l.Out)
		}
		if _, ok := g.NodeIndex(l.In); !ok {
			return fmt.Errorf("genome %d: link %d starts at missing node %d", g.ID, l.Innovation, l.In)
		}
		counts[out]++
	}
	offsets := make([]int, n.numNodes)
	total := 0
	for i, node := range g.Nodes {
		offsets[i] = total
		if node.Type.IsInput() || counts[i] == 0 {
			continue
		}
		n.targets = append(n.targets, i)
		n.start = append(n.start, total)
		total += counts[i]
	}
	n.start = append(n.start, total)

	n.linkSrc = grow(n.linkSrc, total)
	n.linkWeight = growFloat(n.linkWeight, total)
	fill := make([]int, n.numNodes)
	for _, l := range g.Links {
		if !l.Enabled {
			continue
		}
		out, _ := g.NodeIndex(l.Out)
		if g.Nodes[out].Type.IsInput() {
			continue
		}
		in, _ := g.NodeIndex(l.In)
		k := offsets[out] + fill[out]
		fill[out]++
		n.linkSrc[k] = in
		n.linkWeight[k] = l.Weight
	}

	n.act = growFloat(n.act, n.numNodes)
	n.buf = growFloat(n.buf, n.numNodes)
	n.out = growFloat(n.out, len(n.outputs))
	for i := range n.act {
		n.act[i] = 0
	}
	for _, i := range n.bias {
		n.act[i] = 1.0
	}
	return nil
}

// NumSensors returns the number of sensor nodes, excluding bias.
func (n *Network) NumSensors() int {
	return len(n.sensors)
}

// NumOutputs returns the number of output nodes.
func (n *Network) NumOutputs() int {
	return len(n.outputs)
}

// AggregationName returns the name of the aggregation function.
func (n *Network) AggregationName() string {
	return n.aggregationName
}

// LoadSensors copies values into the sensor nodes. Extra values are ignored
// and missing ones read as zero.
func (n *Network) LoadSensors(values []float64) {
	for i, idx := range n.sensors {
		if i < len(values) {
			n.act[idx] = values[i]
		} else {
			n.act[idx] = 0
		}
	}
}

// ClearNonInput zeroes every output and hidden node.
func (n *Network) ClearNonInput() {
	for _, i := range n.targets {
		n.act[i] = 0
	}
}

// Activate performs one synchronous pass: every target's input is computed
// from the previous activations before any node is updated. Nodes without
// incoming links keep their value.
func (n *Network) Activate() {
	for t, idx := range n.targets {
		n.scratch = n.gather(n.scratch[:0], n.start[t], n.start[t+1])
		n.buf[idx] = n.activation(n.aggregation(n.scratch))
	}
	for _, idx := range n.targets {
		n.act[idx] = n.buf[idx]
	}
}

func (n *Network) gather(dst []float64, lo, hi int) []float64 {
	for k := lo; k < hi; k++ {
		dst = append(dst, n.linkWeight[k]*n.act[n.linkSrc[k]])
	}
	return dst
}

// Outputs returns the output activations. The slice is reused by the next call.
func (n *Network) Outputs() []float64 {
	for i, idx := range n.outputs {
		n.out[i] = n.act[idx]
	}
	return n.out
}

func grow(s []int, n int) []int {
	if cap(s) < n {
		return make([]int, n)
	}
	return s[:n]
}

func growFloat(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	return s[:n]
}
