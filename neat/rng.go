package neat

import "math/rand"

// RNG is a deterministic random source. Each genome and each population owns
// one; an RNG must not be shared between goroutines.
type RNG struct {
	r *rand.Rand
}

// NewRNG returns a source seeded with seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewSource(seed))}
}

// Seed resets the source to the sequence determined by seed.
func (g *RNG) Seed(seed int64) {
	g.r.Seed(seed)
}

// Prob returns a uniform value in [0, 1).
func (g *RNG) Prob() float64 {
	return g.r.Float64()
}

// Under reports whether a uniform draw falls below p.
func (g *RNG) Under(p float64) bool {
	return g.r.Float64() < p
}

// Posneg returns +1 or -1 with equal probability.
func (g *RNG) Posneg() float64 {
	if g.r.Intn(2) == 0 {
		return -1.0
	}
	return 1.0
}

// Index returns a uniform index in [0, n). n must be positive.
func (g *RNG) Index(n int) int {
	return g.r.Intn(n)
}

// Gauss returns a standard normal draw.
func (g *RNG) Gauss() float64 {
	return g.r.NormFloat64()
}

// Int63 returns a non-negative 63-bit value, used to derive child seeds.
func (g *RNG) Int63() int64 {
	return g.r.Int63()
}
