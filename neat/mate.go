package neat

type mateMode int

const (
	mateMultipoint mateMode = iota
	mateMultipointAvg
	mateSinglepoint
)

func (m *innovManager) chooseMateMode(rng *RNG) mateMode {
	mc := m.cfg.Mating
	total := mc.MultipointProb + mc.MultipointAvgProb + mc.SinglepointProb
	x := rng.Prob() * total
	switch {
	case x < mc.MultipointProb:
		return mateMultipoint
	case x < mc.MultipointProb+mc.MultipointAvgProb:
		return mateMultipointAvg
	default:
		return mateSinglepoint
	}
}

// Mate aligns the parents' links by innovation number and writes the child
// into offspring. Matched genes come from the fitter parent (random on a tie),
// are averaged in multipoint-avg mode, or are taken from g1 before and g2
// after a random cut in singlepoint mode. Unmatched genes come from the
// fitter parent; on equal fitness each is kept with mate_equal_disjoint_prob.
func (m *innovManager) Mate(g1, g2, offspring *Genome, fitness1, fitness2 float64) {
	mc := m.cfg.Mating
	rng := offspring.RNG()
	mode := m.chooseMateMode(rng)

	better := 0
	switch {
	case fitness1 > fitness2:
		better = 1
	case fitness2 > fitness1:
		better = 2
	}

	offspring.reset()
	mateTraits(g1, g2, offspring)

	cut := -1
	if mode == mateSinglepoint {
		matched := AlignLinks(g1, g2).Matched
		cut = rng.Index(matched + 1)
	}

	keepUnmatched := func(owner int) bool {
		if better == 0 {
			return rng.Under(mc.EqualDisjointProb)
		}
		return better == owner
	}
	emit := func(l LinkGene) {
		if !l.Enabled && rng.Under(mc.ReenableProb) {
			l.Enabled = true
		}
		offspring.Links = append(offspring.Links, l)
	}

	matchedIdx := 0
	i, j := 0, 0
	for i < len(g1.Links) || j < len(g2.Links) {
		switch {
		case j == len(g2.Links) || (i < len(g1.Links) && g1.Links[i].Innovation < g2.Links[j].Innovation):
			if keepUnmatched(1) {
				emit(g1.Links[i])
			}
			i++
		case i == len(g1.Links) || g2.Links[j].Innovation < g1.Links[i].Innovation:
			if keepUnmatched(2) {
				emit(g2.Links[j])
			}
			j++
		default:
			l1, l2 := g1.Links[i], g2.Links[j]
			var child LinkGene
			switch mode {
			case mateSinglepoint:
				if matchedIdx < cut {
					child = l1
				} else {
					child = l2
				}
			default:
				switch better {
				case 1:
					child = l1
				case 2:
					child = l2
				default:
					if rng.Under(0.5) {
						child = l1
					} else {
						child = l2
					}
				}
				if mode == mateMultipointAvg {
					child.Weight = (l1.Weight + l2.Weight) / 2.0
					child.MutationNum = (l1.MutationNum + l2.MutationNum) / 2.0
				}
			}
			if !l1.Enabled || !l2.Enabled {
				child.Enabled = false
			}
			emit(child)
			matchedIdx++
			i++
			j++
		}
	}

	mateNodes(g1, g2, offspring, better)
}

// mateTraits averages the parents' traits position by position.
func mateTraits(g1, g2, offspring *Genome) {
	for i := range g1.Traits {
		t := g1.Traits[i]
		if i < len(g2.Traits) {
			t.average(&g1.Traits[i], &g2.Traits[i])
		}
		offspring.Traits = append(offspring.Traits, t)
	}
}

// mateNodes gives offspring the input and output nodes of the fitter parent
// plus every hidden node its links reference.
func mateNodes(g1, g2, offspring *Genome, better int) {
	primary, secondary := g1, g2
	if better == 2 {
		primary, secondary = g2, g1
	}
	for _, n := range primary.Nodes {
		if n.Type != NodeHidden {
			offspring.Nodes = append(offspring.Nodes, n)
		}
	}

	ensure := func(id int) {
		if offspring.HasNode(id) {
			return
		}
		if i, ok := primary.NodeIndex(id); ok {
			offspring.addNode(primary.Nodes[i])
		} else if i, ok := secondary.NodeIndex(id); ok {
			offspring.addNode(secondary.Nodes[i])
		}
	}
	for _, l := range offspring.Links {
		ensure(l.In)
		ensure(l.Out)
	}
}
