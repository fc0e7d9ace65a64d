package neat

import (
	"math"
	"sort"
)

// youngSpeciesAge is the age up to which a species receives the age_significance bonus.
const youngSpeciesAge = 10

// rankMembers sorts members by descending fitness, keeping buffer order on ties.
func (s *Species) rankMembers() {
	sort.SliceStable(s.Members, func(i, j int) bool {
		return s.Members[i].Eval.Fitness > s.Members[j].Eval.Fitness
	})
}

// updateStagnation ages the species and moves its fitness watermark.
func (s *Species) updateStagnation() {
	s.Age++
	best := s.BestFitness()
	if best > s.MaxFitnessEver {
		s.MaxFitnessEver = best
		s.AgeOfLastImprovement = s.Age
	}
}

// stagnant reports whether the species has gone more than dropoffAge
// generations without improving.
func (s *Species) stagnant(dropoffAge int) bool {
	return s.Age-s.AgeOfLastImprovement > dropoffAge
}

// adjustFitness applies fitness sharing and returns the species' share of
// offspring. Negative or undefined fitness counts as zero; stagnant species
// are penalised and young species boosted.
func (s *Species) adjustFitness(rc *ReproductionConfig) float64 {
	if len(s.Members) == 0 {
		return 0
	}
	s.rankMembers()

	size := float64(len(s.Members))
	share := 0.0
	raw := 0.0
	for _, o := range s.Members {
		f := o.Eval.Fitness
		if math.IsNaN(f) || f < 0 {
			f = 0
		}
		raw += f
		if s.stagnant(rc.DropoffAge) {
			f *= 0.01
		}
		if s.Age <= youngSpeciesAge {
			f *= rc.AgeSignificance
		}
		o.adjustedFitness = f / size
		share += o.adjustedFitness
	}
	s.AverageFitness = raw / size
	return share
}

// deltaCodingQuotas splits total between the two species with the best
// current fitness: the best gets the larger half, the runner-up the rest.
// A lone species gets everything.
func deltaCodingQuotas(species []*Species, total int) []int {
	quotas := make([]int, len(species))
	if len(species) == 0 {
		return quotas
	}
	order := make([]int, len(species))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return species[order[a]].BestFitness() > species[order[b]].BestFitness()
	})
	if len(species) == 1 {
		quotas[order[0]] = total
		return quotas
	}
	first := (total + 1) / 2
	quotas[order[0]] = first
	quotas[order[1]] = total - first
	return quotas
}
