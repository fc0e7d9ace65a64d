package neat

import (
	"fmt"
	"io"
	"sort"
)

// Genome is the genotype of an organism: traits, nodes sorted by id and links
// sorted by innovation number. Each genome owns its random source, so two
// genomes can be mutated concurrently without sharing state.
type Genome struct {
	ID     int
	Traits []Trait
	Nodes  []NodeGene
	Links  []LinkGene

	rng *RNG
}

// NewGenome creates an empty genome.
func NewGenome(id int) *Genome {
	return &Genome{ID: id}
}

// Seed resets the genome's random source.
func (g *Genome) Seed(seed int64) {
	if g.rng == nil {
		g.rng = NewRNG(seed)
		return
	}
	g.rng.Seed(seed)
}

// RNG returns the genome's random source, seeding it from the genome id on first use.
func (g *Genome) RNG() *RNG {
	if g.rng == nil {
		g.rng = NewRNG(int64(g.ID))
	}
	return g.rng
}

// CopyFrom overwrites g with a deep copy of src, reusing g's backing storage.
// The random source of g is kept.
func (g *Genome) CopyFrom(src *Genome) {
	g.ID = src.ID
	g.Traits = append(g.Traits[:0], src.Traits...)
	g.Nodes = append(g.Nodes[:0], src.Nodes...)
	g.Links = append(g.Links[:0], src.Links...)
}

// Clone returns an independent deep copy of g with a fresh random source
// seeded from the genome id.
func (g *Genome) Clone() *Genome {
	c := NewGenome(g.ID)
	c.CopyFrom(g)
	return c
}

// reset empties the genome, keeping capacity.
func (g *Genome) reset() {
	g.Traits = g.Traits[:0]
	g.Nodes = g.Nodes[:0]
	g.Links = g.Links[:0]
}

// NodeIndex returns the position of node id in g.Nodes.
func (g *Genome) NodeIndex(id int) (int, bool) {
	i := sort.Search(len(g.Nodes), func(i int) bool { return g.Nodes[i].ID >= id })
	return i, i < len(g.Nodes) && g.Nodes[i].ID == id
}

// HasNode reports whether node id is part of the genome.
func (g *Genome) HasNode(id int) bool {
	_, ok := g.NodeIndex(id)
	return ok
}

// LinkIndex returns the position of the link with the given innovation number.
func (g *Genome) LinkIndex(innovation int) (int, bool) {
	i := sort.Search(len(g.Links), func(i int) bool { return g.Links[i].Innovation >= innovation })
	return i, i < len(g.Links) && g.Links[i].Innovation == innovation
}

// findLink returns the position of the link from in to out, or -1.
func (g *Genome) findLink(in, out int) int {
	for i := range g.Links {
		if g.Links[i].In == in && g.Links[i].Out == out {
			return i
		}
	}
	return -1
}

// addNode inserts n keeping the node list sorted. It returns false if the id is taken.
func (g *Genome) addNode(n NodeGene) bool {
	i, ok := g.NodeIndex(n.ID)
	if ok {
		return false
	}
	g.Nodes = append(g.Nodes, NodeGene{})
	copy(g.Nodes[i+1:], g.Nodes[i:])
	g.Nodes[i] = n
	return true
}

// addLink inserts l keeping the link list sorted. It returns false if the innovation is taken.
func (g *Genome) addLink(l LinkGene) bool {
	i, ok := g.LinkIndex(l.Innovation)
	if ok {
		return false
	}
	g.Links = append(g.Links, LinkGene{})
	copy(g.Links[i+1:], g.Links[i:])
	g.Links[i] = l
	return true
}

// removeNode deletes node id together with every link touching it.
func (g *Genome) removeNode(id int) {
	if i, ok := g.NodeIndex(id); ok {
		g.Nodes = append(g.Nodes[:i], g.Nodes[i+1:]...)
	}
	links := g.Links[:0]
	for _, l := range g.Links {
		if l.In != id && l.Out != id {
			links = append(links, l)
		}
	}
	g.Links = links
}

// removeOrphans deletes hidden nodes that no longer have any link.
func (g *Genome) removeOrphans() {
	used := make(map[int]bool, len(g.Links)*2)
	for _, l := range g.Links {
		used[l.In] = true
		used[l.Out] = true
	}
	nodes := g.Nodes[:0]
	for _, n := range g.Nodes {
		if n.Type != NodeHidden || used[n.ID] {
			nodes = append(nodes, n)
		}
	}
	g.Nodes = nodes
}

// MaxInnovation returns the largest innovation number in g, or 0.
func (g *Genome) MaxInnovation() int {
	if len(g.Links) == 0 {
		return 0
	}
	return g.Links[len(g.Links)-1].Innovation
}

// CountNodes returns the number of nodes of type t.
func (g *Genome) CountNodes(t NodeType) int {
	n := 0
	for _, node := range g.Nodes {
		if node.Type == t {
			n++
		}
	}
	return n
}

// EnabledLinks returns the number of enabled links.
func (g *Genome) EnabledLinks() int {
	n := 0
	for _, l := range g.Links {
		if l.Enabled {
			n++
		}
	}
	return n
}

// randomTraitID returns a uniformly chosen trait id, or 0 when g has no traits.
func (g *Genome) randomTraitID() int {
	if len(g.Traits) == 0 {
		return 0
	}
	return g.Traits[g.RNG().Index(len(g.Traits))].ID
}

// Verify checks ordering, uniqueness and referential integrity of the genome.
func (g *Genome) Verify() error {
	verr := &VerifyError{}
	g.verifyInto(verr)
	return verr.errOrNil()
}

func (g *Genome) verifyInto(verr *VerifyError) {
	for i := 1; i < len(g.Nodes); i++ {
		if g.Nodes[i-1].ID >= g.Nodes[i].ID {
			verr.add("genome %d: node ids not strictly increasing at %d (%d, %d)", g.ID, i, g.Nodes[i-1].ID, g.Nodes[i].ID)
		}
	}
	for i, l := range g.Links {
		if i > 0 && g.Links[i-1].Innovation >= l.Innovation {
			verr.add("genome %d: duplicate or unsorted innovation %d", g.ID, l.Innovation)
		}
		if !g.HasNode(l.In) || !g.HasNode(l.Out) {
			verr.add("genome %d: link %d references missing node (%d -> %d)", g.ID, l.Innovation, l.In, l.Out)
		}
		if n, ok := g.NodeIndex(l.Out); ok && g.Nodes[n].Type.IsInput() {
			verr.add("genome %d: link %d targets input node %d", g.ID, l.Innovation, l.Out)
		}
	}
}

// Print writes g in the genome text format:
//
//	genomestart <id>
//	trait <id> <p0> ... <p7>
//	node <id> <trait> <type>
//	gene <trait> <in> <out> <weight> <recurrent> <innovation> <mutation> <enabled>
//	genomeend <id>
func (g *Genome) Print(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "genomestart %d\n", g.ID); err != nil {
		return err
	}
	for _, t := range g.Traits {
		if _, err := fmt.Fprintf(w, "trait %d", t.ID); err != nil {
			return err
		}
		for _, p := range t.Params {
			if _, err := fmt.Fprintf(w, " %g", p); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	for _, n := range g.Nodes {
		if _, err := fmt.Fprintf(w, "node %d %d %d\n", n.ID, n.TraitID, int(n.Type)); err != nil {
			return err
		}
	}
	for _, l := range g.Links {
		if _, err := fmt.Fprintf(w, "gene %d %d %d %g %d %d %g %d\n",
			l.TraitID, l.In, l.Out, l.Weight, boolInt(l.Recurrent), l.Innovation, l.MutationNum, boolInt(l.Enabled)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "genomeend %d\n", g.ID)
	return err
}

// String returns a short summary of the Genome.
func (g *Genome) String() string {
	return fmt.Sprintf("Genome(ID: %d, Nodes: %d, Links: %d, Enabled: %d)", g.ID, len(g.Nodes), len(g.Links), g.EnabledLinks())
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
