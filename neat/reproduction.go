package neat

import (
	"math"
	"sort"
)

// LargestRemainder converts non-negative shares into integer quotas summing
// to total. Each quota starts at the floor of its exact proportional value;
// the leftover units go one each to the largest fractional parts, ties going
// to the lower index. It returns nil when the shares sum to zero or less.
func LargestRemainder(shares []float64, total int) []int {
	sum := 0.0
	for _, s := range shares {
		if s > 0 {
			sum += s
		}
	}
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil
	}

	quotas := make([]int, len(shares))
	fractions := make([]float64, len(shares))
	assigned := 0
	for i, s := range shares {
		if s <= 0 {
			continue
		}
		exact := s / sum * float64(total)
		whole := math.Floor(exact)
		quotas[i] = int(whole)
		fractions[i] = exact - whole
		assigned += quotas[i]
	}

	order := make([]int, 0, len(shares))
	for i, s := range shares {
		if s > 0 {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fractions[order[a]] > fractions[order[b]]
	})
	for k := 0; assigned < total; k = (k + 1) % len(order) {
		quotas[order[k]]++
		assigned++
	}
	return quotas
}

// numParents returns how many of a species' ranked members may reproduce.
func numParents(size int, survivalThresh float64) int {
	n := int(math.Floor(survivalThresh*float64(size) + 1))
	if n > size {
		n = size
	}
	if n < 1 {
		n = 1
	}
	return n
}

// reproduce fills the next slab according to the species quotas. The current
// slab is only read.
func (p *SpeciesPopulation) reproduce(quotas []int) {
	rc := p.cfg.Reproduction
	next := p.buf.Next()
	slot := 0

	for si, sp := range p.species {
		q := quotas[si]
		sp.ExpectedOffspring = q
		if q == 0 {
			continue
		}
		parents := sp.Members[:numParents(len(sp.Members), rc.SurvivalThresh)]
		champion := sp.Members[0]

		for c := 0; c < q; c++ {
			child := &next[slot]
			child.Genome.Seed(p.rng.Int63())

			switch {
			case c == 0 && len(sp.Members) >= rc.ChampionMinSize && p.rng.Under(rc.ChampionCloneProb):
				p.gm.Clone(champion.Genome, child.Genome)

			case len(parents) == 1 || p.rng.Under(rc.MutateOnlyProb):
				mom := parents[p.rng.Index(len(parents))]
				p.gm.Clone(mom.Genome, child.Genome)
				p.gm.Mutate(child.Genome, MutateAny)

			default:
				mom := parents[p.rng.Index(len(parents))]
				dad := parents[p.rng.Index(len(parents))]
				if len(p.species) > 1 && p.rng.Under(p.cfg.Mating.InterspeciesMateRate) {
					other := p.rng.Index(len(p.species) - 1)
					if other >= si {
						other++
					}
					dad = p.species[other].Champion()
				}
				p.gm.Mate(mom.Genome, dad.Genome, child.Genome, mom.Eval.Fitness, dad.Eval.Fitness)
				if mom == dad || !p.rng.Under(p.cfg.Mating.MateOnlyProb) {
					p.gm.Mutate(child.Genome, MutateAny)
				}
			}

			child.Index = slot
			child.Genome.ID = slot
			child.Eval.Reset()
			child.Species = nil
			child.SpeciesID = 0
			child.Generation = p.generation + 1
			child.adjustedFitness = 0
			slot++
		}
	}
}
