package neat

import "math"

// CompatibilityTerms holds the raw quantities behind a compatibility distance.
type CompatibilityTerms struct {
	Disjoint   int
	Excess     int
	Matched    int
	WeightDiff float64 // mean absolute weight difference over matched links
}

// AlignLinks walks the links of two genomes in innovation order and counts
// matched, disjoint and excess genes. A gene is excess when its innovation is
// beyond the other genome's largest innovation number.
func AlignLinks(g1, g2 *Genome) CompatibilityTerms {
	var terms CompatibilityTerms
	max1, max2 := g1.MaxInnovation(), g2.MaxInnovation()
	weightSum := 0.0

	i, j := 0, 0
	for i < len(g1.Links) || j < len(g2.Links) {
		switch {
		case i == len(g1.Links):
			countUnmatched(&terms, g2.Links[j].Innovation, max1)
			j++
		case j == len(g2.Links):
			countUnmatched(&terms, g1.Links[i].Innovation, max2)
			i++
		default:
			l1, l2 := &g1.Links[i], &g2.Links[j]
			switch {
			case l1.Innovation == l2.Innovation:
				terms.Matched++
				weightSum += math.Abs(l1.Weight - l2.Weight)
				i++
				j++
			case l1.Innovation < l2.Innovation:
				countUnmatched(&terms, l1.Innovation, max2)
				i++
			default:
				countUnmatched(&terms, l2.Innovation, max1)
				j++
			}
		}
	}
	if terms.Matched > 0 {
		terms.WeightDiff = weightSum / float64(terms.Matched)
	}
	return terms
}

func countUnmatched(terms *CompatibilityTerms, innovation, otherMax int) {
	if innovation > otherMax {
		terms.Excess++
	} else {
		terms.Disjoint++
	}
}

// Compatibility computes disjoint·D + excess·E + mutdiff·W for two genomes.
// With CompatNormalize set, D and E are divided by the larger link count.
// The result does not depend on argument order.
func Compatibility(g1, g2 *Genome, cfg *GenomeConfig) float64 {
	terms := AlignLinks(g1, g2)
	d, e := float64(terms.Disjoint), float64(terms.Excess)
	if cfg.CompatNormalize {
		n := len(g1.Links)
		if len(g2.Links) > n {
			n = len(g2.Links)
		}
		if n > 1 {
			d /= float64(n)
			e /= float64(n)
		}
	}
	return cfg.DisjointCoeff*d + cfg.ExcessCoeff*e + cfg.MutDiffCoeff*terms.WeightDiff
}
