package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/accneat-go/neat"
)

func ioNodes() []neat.NodeGene {
	return []neat.NodeGene{
		{ID: 1, Type: neat.NodeBias},
		{ID: 2, Type: neat.NodeSensor},
		{ID: 3, Type: neat.NodeOutput},
	}
}

func TestNetworkActivate(t *testing.T) {
	g := &neat.Genome{
		Nodes: ioNodes(),
		Links: []neat.LinkGene{
			{In: 1, Out: 3, Weight: 0.5, Enabled: true, Innovation: 1},
			{In: 2, Out: 3, Weight: 1.0, Enabled: true, Innovation: 2},
		},
	}
	net, err := NewNetwork(g, "identity", "sum")
	require.NoError(t, err)
	assert.Equal(t, 1, net.NumSensors())
	assert.Equal(t, 1, net.NumOutputs())

	net.LoadSensors([]float64{2})
	net.Activate()
	assert.Equal(t, []float64{2.5}, net.Outputs())
}

func TestNetworkActivationIsSynchronous(t *testing.T) {
	g := &neat.Genome{
		Nodes: append(ioNodes(), neat.NodeGene{ID: 4, Type: neat.NodeHidden}),
		Links: []neat.LinkGene{
			{In: 2, Out: 4, Weight: 1, Enabled: true, Innovation: 1},
			{In: 4, Out: 3, Weight: 1, Enabled: true, Innovation: 2},
		},
	}
	net, err := NewNetwork(g, "identity", "sum")
	require.NoError(t, err)

	net.LoadSensors([]float64{1})
	net.Activate()
	assert.Equal(t, 0.0, net.Outputs()[0])
	net.Activate()
	assert.Equal(t, 1.0, net.Outputs()[0])

	net.ClearNonInput()
	assert.Equal(t, 0.0, net.Outputs()[0])
	net.Activate()
	net.Activate()
	assert.Equal(t, 1.0, net.Outputs()[0], "sensor values survive a clear")
}

func TestNetworkIgnoresDisabledLinks(t *testing.T) {
	g := &neat.Genome{
		Nodes: ioNodes(),
		Links: []neat.LinkGene{
			{In: 1, Out: 3, Weight: 0.5, Enabled: true, Innovation: 1},
			{In: 2, Out: 3, Weight: 1.0, Enabled: false, Innovation: 2},
		},
	}
	net, err := NewNetwork(g, "identity", "sum")
	require.NoError(t, err)
	net.LoadSensors([]float64{7})
	net.Activate()
	assert.Equal(t, 0.5, net.Outputs()[0])
}

func TestNetworkRecurrentStaysFinite(t *testing.T) {
	g := &neat.Genome{
		Nodes: ioNodes(),
		Links: []neat.LinkGene{
			{In: 2, Out: 3, Weight: 3, Enabled: true, Innovation: 1},
			{In: 3, Out: 3, Weight: 5, Enabled: true, Recurrent: true, Innovation: 2},
		},
	}
	net, err := NewNetwork(g, "sigmoid", "sum")
	require.NoError(t, err)
	net.LoadSensors([]float64{1})
	for k := 0; k < 1000; k++ {
		net.Activate()
	}
	out := net.Outputs()[0]
	assert.False(t, math.IsNaN(out) || math.IsInf(out, 0))
	assert.InDelta(t, 1.0, out, 1e-3)
}

func TestNetworkOutputWithoutInputsStaysZero(t *testing.T) {
	g := &neat.Genome{Nodes: ioNodes()}
	net, err := NewNetwork(g, "sigmoid", "sum")
	require.NoError(t, err)
	net.LoadSensors([]float64{1})
	net.Activate()
	assert.Equal(t, 0.0, net.Outputs()[0])
}

func TestNetworkCompileReusesStorage(t *testing.T) {
	big := &neat.Genome{
		Nodes: append(ioNodes(), neat.NodeGene{ID: 4, Type: neat.NodeHidden}, neat.NodeGene{ID: 5, Type: neat.NodeHidden}),
		Links: []neat.LinkGene{
			{In: 2, Out: 4, Weight: 1, Enabled: true, Innovation: 1},
			{In: 4, Out: 5, Weight: 1, Enabled: true, Innovation: 2},
			{In: 5, Out: 3, Weight: 1, Enabled: true, Innovation: 3},
		},
	}
	small := &neat.Genome{
		Nodes: ioNodes(),
		Links: []neat.LinkGene{{In: 2, Out: 3, Weight: 2, Enabled: true, Innovation: 4}},
	}
	net, err := NewNetwork(big, "identity", "sum")
	require.NoError(t, err)
	net.LoadSensors([]float64{1})
	for k := 0; k < 3; k++ {
		net.Activate()
	}
	require.Equal(t, 1.0, net.Outputs()[0])

	require.NoError(t, net.Compile(small))
	net.LoadSensors([]float64{3})
	net.Activate()
	assert.Equal(t, []float64{6}, net.Outputs())
}

func TestNetworkErrors(t *testing.T) {
	g := &neat.Genome{Nodes: ioNodes()}
	_, err := NewNetwork(g, "nope", "sum")
	assert.Error(t, err)
	_, err = NewNetwork(g, "sigmoid", "nope")
	assert.Error(t, err)

	broken := &neat.Genome{
		Nodes: ioNodes(),
		Links: []neat.LinkGene{{In: 2, Out: 9, Weight: 1, Enabled: true, Innovation: 1}},
	}
	_, err = NewNetwork(broken, "sigmoid", "sum")
	assert.Error(t, err)

	assert.Error(t, (&Network{}).Compile(g))
}
