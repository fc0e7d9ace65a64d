package neat

import "fmt"

// NumTraitParams is the number of parameters carried by every trait.
const NumTraitParams = 8

// NodeType identifies the role of a node in a genome.
type NodeType int

const (
	NodeBias NodeType = iota
	NodeSensor
	NodeOutput
	NodeHidden
)

func (t NodeType) String() string {
	switch t {
	case NodeBias:
		return "bias"
	case NodeSensor:
		return "sensor"
	case NodeOutput:
		return "output"
	case NodeHidden:
		return "hidden"
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// IsInput reports whether nodes of this type take values from outside the network.
func (t NodeType) IsInput() bool {
	return t == NodeBias || t == NodeSensor
}

// --------------------------- Trait ---------------------------

// Trait is a shared parameter group referenced by nodes and links.
type Trait struct {
	ID     int
	Params [NumTraitParams]float64
}

// String returns a string representation of the Trait.
func (t Trait) String() string {
	return fmt.Sprintf("Trait(ID: %d, Params: %v)", t.ID, t.Params)
}

// average sets t to the per-parameter mean of a and b.
func (t *Trait) average(a, b *Trait) {
	t.ID = a.ID
	for i := range t.Params {
		t.Params[i] = (a.Params[i] + b.Params[i]) / 2.0
	}
}

// --------------------------- NodeGene ---------------------------

// NodeGene represents a neuron in the genome.
type NodeGene struct {
	ID      int
	Type    NodeType
	TraitID int // 0 when the genome has no traits
}

// String returns a string representation of the NodeGene.
func (n NodeGene) String() string {
	return fmt.Sprintf("NodeGene(ID: %d, Type: %s, Trait: %d)", n.ID, n.Type, n.TraitID)
}

// --------------------------- LinkGene ---------------------------

// LinkGene represents a weighted connection between two nodes. Innovation
// identifies the structural mutation that first created the (In, Out) pair.
type LinkGene struct {
	In          int
	Out         int
	Weight      float64
	Enabled     bool
	Recurrent   bool
	TraitID     int
	Innovation  int
	MutationNum float64 // weight at the time of the last mutation
}

// String returns a string representation of the LinkGene.
func (l LinkGene) String() string {
	return fmt.Sprintf("LinkGene(%d -> %d, Innov: %d, Weight: %.3f, Enabled: %t, Recurrent: %t)",
		l.In, l.Out, l.Innovation, l.Weight, l.Enabled, l.Recurrent)
}
