package neat

import (
	"sort"
	"sync"
)

type linkKey struct {
	in, out int
}

type splitKey struct {
	in, out, innovation int
}

// Split describes the result of splitting a link with a new hidden node.
type Split struct {
	Node          int
	InInnovation  int // innovation of the link into the new node
	OutInnovation int // innovation of the link out of the new node
}

// InnovationTable hands out innovation numbers and hidden node ids for a run.
// The same structural mutation always receives the same numbers, no matter
// which genome performs it. It is safe for concurrent use.
type InnovationTable struct {
	mu        sync.Mutex
	nextInnov int
	nextNode  int
	links     map[linkKey]int
	splits    map[splitKey]Split
}

// NewInnovationTable creates an empty table. Innovation numbers start at 1;
// node ids start above any id already used by the seed genomes, see ReserveNode.
func NewInnovationTable() *InnovationTable {
	return &InnovationTable{
		nextInnov: 1,
		nextNode:  1,
		links:     make(map[linkKey]int),
		splits:    make(map[splitKey]Split),
	}
}

// ReserveNode records that id is in use so that splits never hand it out.
func (t *InnovationTable) ReserveNode(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id >= t.nextNode {
		t.nextNode = id + 1
	}
}

// LinkInnovation returns the innovation number of the link in -> out,
// allocating one the first time the pair is seen.
func (t *InnovationTable) LinkInnovation(in, out int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.linkInnovationLocked(in, out)
}

func (t *InnovationTable) linkInnovationLocked(in, out int) int {
	k := linkKey{in, out}
	if innov, ok := t.links[k]; ok {
		return innov
	}
	innov := t.nextInnov
	t.nextInnov++
	t.links[k] = innov
	return innov
}

// NodeSplit returns the node id and link innovations created by splitting the
// link in -> out with the given innovation.
func (t *InnovationTable) NodeSplit(in, out, innovation int) Split {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := splitKey{in, out, innovation}
	if s, ok := t.splits[k]; ok {
		return s
	}
	node := t.nextNode
	t.nextNode++
	s := Split{
		Node:          node,
		InInnovation:  t.linkInnovationLocked(in, node),
		OutInnovation: t.linkInnovationLocked(node, out),
	}
	t.splits[k] = s
	return s
}

// NextInnovation returns the innovation number the next new link would get.
func (t *InnovationTable) NextInnovation() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nextInnov
}

// InnovationSnapshot is the serializable state of an InnovationTable.
type InnovationSnapshot struct {
	NextInnovation int
	NextNode       int
	Links          []LinkRecord
	Splits         []SplitRecord
}

// LinkRecord is one (in, out) -> innovation entry.
type LinkRecord struct {
	In, Out, Innovation int
}

// SplitRecord is one split entry.
type SplitRecord struct {
	In, Out, Innovation int
	Split               Split
}

// Snapshot returns the table contents in a deterministic order.
func (t *InnovationTable) Snapshot() InnovationSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := InnovationSnapshot{
		NextInnovation: t.nextInnov,
		NextNode:       t.nextNode,
		Links:          make([]LinkRecord, 0, len(t.links)),
		Splits:         make([]SplitRecord, 0, len(t.splits)),
	}
	for k, innov := range t.links {
		snap.Links = append(snap.Links, LinkRecord{In: k.in, Out: k.out, Innovation: innov})
	}
	for k, s := range t.splits {
		snap.Splits = append(snap.Splits, SplitRecord{In: k.in, Out: k.out, Innovation: k.innovation, Split: s})
	}
	sort.Slice(snap.Links, func(i, j int) bool { return snap.Links[i].Innovation < snap.Links[j].Innovation })
	sort.Slice(snap.Splits, func(i, j int) bool { return snap.Splits[i].Split.Node < snap.Splits[j].Split.Node })
	return snap
}

// Restore replaces the table contents with snap.
func (t *InnovationTable) Restore(snap InnovationSnapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextInnov = snap.NextInnovation
	t.nextNode = snap.NextNode
	t.links = make(map[linkKey]int, len(snap.Links))
	t.splits = make(map[splitKey]Split, len(snap.Splits))
	for _, r := range snap.Links {
		t.links[linkKey{r.In, r.Out}] = r.Innovation
	}
	for _, r := range snap.Splits {
		t.splits[splitKey{r.In, r.Out, r.Innovation}] = r.Split
	}
}
