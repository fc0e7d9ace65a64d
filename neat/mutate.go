package neat

// Mutate applies mutations to g according to op. Failed structural mutations
// are skipped silently.
func (m *innovManager) Mutate(g *Genome, op MutationOp) {
	r := m.rates()
	rng := g.RNG()

	switch op {
	case MutateWeights:
		m.mutateLinkWeights(g)
	case MutateStructure:
		m.mutateStructure(g, r)
	case MutateAny:
		switch {
		case rng.Under(r.addNode):
			m.mutateAddNode(g)
		case rng.Under(r.addLink):
			m.mutateAddLink(g)
		case rng.Under(r.deleteLink):
			m.mutateDeleteLink(g)
		case rng.Under(r.deleteNode):
			m.mutateDeleteNode(g)
		default:
			m.mutateNonStructural(g)
		}
	}
}

// mutateStructure picks one structural family in proportion to its rate.
func (m *innovManager) mutateStructure(g *Genome, r mutationRates) bool {
	total := r.addNode + r.addLink + r.deleteNode + r.deleteLink
	if total <= 0 {
		return false
	}
	x := g.RNG().Prob() * total
	switch {
	case x < r.addNode:
		return m.mutateAddNode(g)
	case x < r.addNode+r.addLink:
		return m.mutateAddLink(g)
	case x < r.addNode+r.addLink+r.deleteLink:
		return m.mutateDeleteLink(g)
	default:
		return m.mutateDeleteNode(g)
	}
}

func (m *innovManager) mutateNonStructural(g *Genome) {
	mc := m.cfg.Mutation
	rng := g.RNG()
	if rng.Under(mc.RandomTraitProb) {
		m.mutateRandomTrait(g)
	}
	if rng.Under(mc.LinkTraitProb) {
		mutateLinkTrait(g)
	}
	if rng.Under(mc.NodeTraitProb) {
		mutateNodeTrait(g)
	}
	if rng.Under(mc.LinkWeightsProb) {
		m.mutateLinkWeights(g)
	}
	if rng.Under(mc.ToggleEnableProb) {
		mutateToggleEnable(g)
	}
	if rng.Under(mc.GeneReenableProb) {
		mutateGeneReenable(g)
	}
}

// mutateLinkWeights perturbs every link weight, replacing it outright with
// probability cold_gauss_prob. Weights stay within ±weight_cap.
func (m *innovManager) mutateLinkWeights(g *Genome) {
	rng := g.RNG()
	power := m.cfg.Mutation.WeightMutPower
	limit := m.cfg.Genome.WeightCap
	for i := range g.Links {
		l := &g.Links[i]
		delta := rng.Posneg() * rng.Prob() * power
		if rng.Under(m.cfg.Mutation.ColdGaussProb) {
			l.Weight = delta
		} else {
			l.Weight += delta
		}
		l.Weight = clamp(l.Weight, -limit, limit)
		l.MutationNum = l.Weight
	}
}

func (m *innovManager) mutateRandomTrait(g *Genome) {
	if len(g.Traits) == 0 {
		return
	}
	rng := g.RNG()
	t := &g.Traits[rng.Index(len(g.Traits))]
	for i := range t.Params {
		if rng.Under(m.cfg.Mutation.TraitParamMutProb) {
			t.Params[i] = clamp(t.Params[i]+rng.Posneg()*rng.Prob()*m.cfg.Mutation.TraitMutationPower, 0, 1)
		}
	}
}

func mutateLinkTrait(g *Genome) {
	if len(g.Traits) == 0 || len(g.Links) == 0 {
		return
	}
	l := &g.Links[g.RNG().Index(len(g.Links))]
	l.TraitID = g.randomTraitID()
}

func mutateNodeTrait(g *Genome) {
	if len(g.Traits) == 0 || len(g.Nodes) == 0 {
		return
	}
	n := &g.Nodes[g.RNG().Index(len(g.Nodes))]
	n.TraitID = g.randomTraitID()
}

// mutateToggleEnable flips one link. A link is only disabled when its source
// keeps another enabled outgoing link.
func mutateToggleEnable(g *Genome) {
	if len(g.Links) == 0 {
		return
	}
	i := g.RNG().Index(len(g.Links))
	l := &g.Links[i]
	if !l.Enabled {
		l.Enabled = true
		return
	}
	for j := range g.Links {
		if j != i && g.Links[j].In == l.In && g.Links[j].Enabled {
			l.Enabled = false
			return
		}
	}
}

// mutateGeneReenable enables the first disabled link.
func mutateGeneReenable(g *Genome) {
	for i := range g.Links {
		if !g.Links[i].Enabled {
			g.Links[i].Enabled = true
			return
		}
	}
}

// mutateAddNode splits a random enabled link whose source is not the bias
// node. The split link is disabled; the link into the new node gets weight 1
// and the link out of it keeps the old weight.
func (m *innovManager) mutateAddNode(g *Genome) bool {
	candidates := make([]int, 0, len(g.Links))
	for i, l := range g.Links {
		if !l.Enabled {
			continue
		}
		if n, ok := g.NodeIndex(l.In); ok && g.Nodes[n].Type == NodeBias {
			continue
		}
		candidates = append(candidates, i)
	}
	if len(candidates) == 0 {
		return false
	}
	old := g.Links[candidates[g.RNG().Index(len(candidates))]]

	split := m.table.NodeSplit(old.In, old.Out, old.Innovation)
	if g.HasNode(split.Node) {
		return false
	}
	if i, ok := g.LinkIndex(old.Innovation); ok {
		g.Links[i].Enabled = false
	}
	g.addNode(NodeGene{ID: split.Node, Type: NodeHidden, TraitID: old.TraitID})
	g.addLink(LinkGene{
		In:          old.In,
		Out:         split.Node,
		Weight:      1.0,
		Enabled:     true,
		Recurrent:   old.Recurrent,
		TraitID:     old.TraitID,
		Innovation:  split.InInnovation,
		MutationNum: 0,
	})
	g.addLink(LinkGene{
		In:          split.Node,
		Out:         old.Out,
		Weight:      old.Weight,
		Enabled:     true,
		TraitID:     old.TraitID,
		Innovation:  split.OutInnovation,
		MutationNum: 0,
	})
	return true
}

// mutateAddLink connects two unconnected nodes. With recur_only_prob the
// search looks only for recurrent links, half of the time a self loop.
// Otherwise recurrent candidates are accepted with recur_prob.
func (m *innovManager) mutateAddLink(g *Genome) bool {
	mc := m.cfg.Mutation
	rng := g.RNG()

	var targets []int
	for i, n := range g.Nodes {
		if !n.Type.IsInput() {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		return false
	}

	dg := linkGraph(g)
	doRecur := rng.Under(mc.RecurOnlyProb)
	loop := doRecur && rng.Under(0.5)

	for try := 0; try < mc.NewLinkTries; try++ {
		var in, out int
		switch {
		case loop:
			in = g.Nodes[targets[rng.Index(len(targets))]].ID
			out = in
		case doRecur:
			in = g.Nodes[targets[rng.Index(len(targets))]].ID
			out = g.Nodes[targets[rng.Index(len(targets))]].ID
		default:
			in = g.Nodes[rng.Index(len(g.Nodes))].ID
			out = g.Nodes[targets[rng.Index(len(targets))]].ID
		}
		if g.findLink(in, out) >= 0 {
			continue
		}
		recur := isRecurrent(dg, in, out)
		if doRecur && !recur {
			continue
		}
		if !doRecur && recur && !rng.Under(mc.RecurProb) {
			continue
		}

		w := rng.Posneg() * rng.Prob()
		return g.addLink(LinkGene{
			In:          in,
			Out:         out,
			Weight:      w,
			Enabled:     true,
			Recurrent:   recur,
			TraitID:     g.randomTraitID(),
			Innovation:  m.table.LinkInnovation(in, out),
			MutationNum: w,
		})
	}
	return false
}

// mutateDeleteLink removes a random link and any hidden node left without links.
func (m *innovManager) mutateDeleteLink(g *Genome) bool {
	if len(g.Links) == 0 {
		return false
	}
	i := g.RNG().Index(len(g.Links))
	g.Links = append(g.Links[:i], g.Links[i+1:]...)
	g.removeOrphans()
	return true
}

// mutateDeleteNode removes a random hidden node and its links.
func (m *innovManager) mutateDeleteNode(g *Genome) bool {
	var hidden []int
	for _, n := range g.Nodes {
		if n.Type == NodeHidden {
			hidden = append(hidden, n.ID)
		}
	}
	if len(hidden) == 0 {
		return false
	}
	g.removeNode(hidden[g.RNG().Index(len(hidden))])
	g.removeOrphans()
	return true
}
