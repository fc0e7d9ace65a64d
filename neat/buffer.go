package neat

// OrganismsBuffer holds two fixed-size organism slabs. The current slab is
// read during reproduction while the next slab is written; Swap exchanges
// their roles without reallocating organisms or genomes.
type OrganismsBuffer struct {
	slabs [2][]Organism
	cur   int
}

// NewOrganismsBuffer adopts seeds as the current generation and allocates an
// equally sized next slab.
func NewOrganismsBuffer(seeds []*Genome) *OrganismsBuffer {
	b := &OrganismsBuffer{}
	n := len(seeds)
	b.slabs[0] = make([]Organism, n)
	b.slabs[1] = make([]Organism, n)
	for i := 0; i < n; i++ {
		seeds[i].ID = i
		b.slabs[0][i] = Organism{Index: i, Genome: seeds[i]}
		b.slabs[1][i] = Organism{Index: i, Genome: NewGenome(i)}
	}
	return b
}

// Size returns the number of organisms per slab.
func (b *OrganismsBuffer) Size() int {
	return len(b.slabs[0])
}

// Curr returns the current generation.
func (b *OrganismsBuffer) Curr() []Organism {
	return b.slabs[b.cur]
}

// Next returns the slab the next generation is written into.
func (b *OrganismsBuffer) Next() []Organism {
	return b.slabs[1-b.cur]
}

// Swap makes the next slab current.
func (b *OrganismsBuffer) Swap() {
	b.cur = 1 - b.cur
}
