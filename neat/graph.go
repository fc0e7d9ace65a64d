package neat

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// linkGraph builds a directed graph of the enabled links of g. Self loops are
// left out; callers handle in == out themselves.
func linkGraph(g *Genome) *simple.DirectedGraph {
	dg := simple.NewDirectedGraph()
	for _, n := range g.Nodes {
		dg.AddNode(simple.Node(n.ID))
	}
	for _, l := range g.Links {
		if !l.Enabled || l.In == l.Out {
			continue
		}
		dg.SetEdge(dg.NewEdge(simple.Node(l.In), simple.Node(l.Out)))
	}
	return dg
}

// isRecurrent reports whether adding in -> out to the graph would close a cycle.
func isRecurrent(dg *simple.DirectedGraph, in, out int) bool {
	if in == out {
		return true
	}
	if dg.Node(int64(out)) == nil || dg.Node(int64(in)) == nil {
		return false
	}
	return topo.PathExistsIn(dg, simple.Node(out), simple.Node(in))
}

// OutputsReachable reports whether every output node can be reached from at
// least one input node through enabled links.
func (g *Genome) OutputsReachable() bool {
	dg := linkGraph(g)
	for _, out := range g.Nodes {
		if out.Type != NodeOutput {
			continue
		}
		reached := false
		for _, in := range g.Nodes {
			if in.Type.IsInput() && topo.PathExistsIn(dg, simple.Node(in.ID), simple.Node(out.ID)) {
				reached = true
				break
			}
		}
		if !reached {
			return false
		}
	}
	return true
}
