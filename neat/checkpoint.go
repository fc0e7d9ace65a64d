package neat

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// Checkpoint is the serializable state of a SpeciesPopulation between generations.
type Checkpoint struct {
	Generation         int
	LastSpecies        int
	HighestFitness     float64
	HighestLastChanged int
	BaseSeed           int64
	Evaluated          bool

	Genomes []*Genome
	Evals   []OrganismEvaluation
	Species []SpeciesRecord

	Innovations *InnovationSnapshot
	Search      *SearchState
}

// SpeciesRecord is the serializable state of one species.
type SpeciesRecord struct {
	ID                   int
	Age                  int
	AgeOfLastImprovement int
	MaxFitnessEver       float64
	AverageFitness       float64
	Representative       *Genome
	Members              []int // organism indices
}

// SearchState is the phase bookkeeping of a phased search.
type SearchState struct {
	Pruning   bool
	Stale     int
	PruneGens int
}

// searchStater is implemented by managers that track a search phase.
type searchStater interface {
	searchState() SearchState
	restoreSearchState(SearchState)
}

func (m *innovManager) searchState() SearchState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return SearchState{Pruning: m.phase == phasePrune, Stale: m.stale, PruneGens: m.pruneGens}
}

func (m *innovManager) restoreSearchState(s SearchState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = phaseComplexify
	if s.Pruning {
		m.phase = phasePrune
	}
	m.stale = s.Stale
	m.pruneGens = s.PruneGens
}

// Snapshot captures the population and, when the genome manager exposes
// them, its innovation table and search phase. Genomes are deep copies.
func (p *SpeciesPopulation) Snapshot() *Checkpoint {
	orgs := p.buf.Curr()
	cp := &Checkpoint{
		Generation:         p.generation,
		LastSpecies:        p.lastSpecies,
		HighestFitness:     p.highestFitness,
		HighestLastChanged: p.highestLastChanged,
		BaseSeed:           p.baseSeed,
		Evaluated:          p.evaluated,
		Genomes:            make([]*Genome, len(orgs)),
		Evals:              make([]OrganismEvaluation, len(orgs)),
		Species:            make([]SpeciesRecord, len(p.species)),
	}
	for i := range orgs {
		cp.Genomes[i] = orgs[i].Genome.Clone()
		cp.Evals[i] = orgs[i].Eval
	}
	for i, sp := range p.species {
		rec := SpeciesRecord{
			ID:                   sp.ID,
			Age:                  sp.Age,
			AgeOfLastImprovement: sp.AgeOfLastImprovement,
			MaxFitnessEver:       sp.MaxFitnessEver,
			AverageFitness:       sp.AverageFitness,
			Representative:       sp.Representative.Clone(),
			Members:              make([]int, len(sp.Members)),
		}
		for j, o := range sp.Members {
			rec.Members[j] = o.Index
		}
		cp.Species[i] = rec
	}
	if t, ok := p.gm.(InnovationTracker); ok {
		snap := t.Innovations().Snapshot()
		cp.Innovations = &snap
	}
	if s, ok := p.gm.(searchStater); ok {
		st := s.searchState()
		cp.Search = &st
	}
	return cp
}

// RestoreSpeciesPopulation rebuilds a population from a checkpoint. The
// genome manager's innovation table and search phase are restored too when
// it supports them. A restored run continues exactly as the original would.
func RestoreSpeciesPopulation(cfg *Config, gm GenomeManager, evaluator BatchEvaluator, cp *Checkpoint) (*SpeciesPopulation, error) {
	if len(cp.Genomes) == 0 {
		return nil, ErrEmptyPopulation
	}
	if len(cp.Evals) != len(cp.Genomes) {
		return nil, fmt.Errorf("checkpoint has %d genomes but %d evaluations", len(cp.Genomes), len(cp.Evals))
	}
	seeds := make([]*Genome, len(cp.Genomes))
	for i, g := range cp.Genomes {
		seeds[i] = g.Clone()
	}

	p := newSpeciesPopulation(cfg, gm, evaluator, cp.BaseSeed, seeds)
	p.generation = cp.Generation
	p.lastSpecies = cp.LastSpecies
	p.highestFitness = cp.HighestFitness
	p.highestLastChanged = cp.HighestLastChanged
	p.evaluated = cp.Evaluated

	orgs := p.buf.Curr()
	for i := range orgs {
		orgs[i].Eval = cp.Evals[i]
		orgs[i].Generation = cp.Generation
	}
	for _, rec := range cp.Species {
		if rec.Representative == nil {
			return nil, fmt.Errorf("checkpoint species %d has no representative", rec.ID)
		}
		sp := &Species{
			ID:                   rec.ID,
			Age:                  rec.Age,
			AgeOfLastImprovement: rec.AgeOfLastImprovement,
			MaxFitnessEver:       rec.MaxFitnessEver,
			AverageFitness:       rec.AverageFitness,
			Representative:       rec.Representative.Clone(),
			Members:              make([]*Organism, 0, len(rec.Members)),
		}
		for _, idx := range rec.Members {
			if idx < 0 || idx >= len(orgs) {
				return nil, fmt.Errorf("checkpoint species %d references organism %d out of range", rec.ID, idx)
			}
			o := &orgs[idx]
			o.Species = sp
			o.SpeciesID = sp.ID
			sp.Members = append(sp.Members, o)
		}
		p.species = append(p.species, sp)
	}

	if cp.Innovations != nil {
		if t, ok := gm.(InnovationTracker); ok {
			t.Innovations().Restore(*cp.Innovations)
		}
	}
	if cp.Search != nil {
		if s, ok := gm.(searchStater); ok {
			s.restoreSearchState(*cp.Search)
		}
	}
	if err := p.Verify(); err != nil {
		return nil, fmt.Errorf("restored population is inconsistent: %w", err)
	}
	return p, nil
}

// EncodeCheckpoint writes cp to w as gzip-compressed gob.
func EncodeCheckpoint(w io.Writer, cp *Checkpoint) error {
	gzWriter := gzip.NewWriter(w)
	if err := gob.NewEncoder(gzWriter).Encode(cp); err != nil {
		gzWriter.Close()
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush checkpoint: %w", err)
	}
	return nil
}

// DecodeCheckpoint reads a checkpoint written by EncodeCheckpoint.
func DecodeCheckpoint(r io.Reader) (*Checkpoint, error) {
	gzReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer gzReader.Close()

	cp := &Checkpoint{}
	if err := gob.NewDecoder(gzReader).Decode(cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	return cp, nil
}

// SaveCheckpoint writes the population state to filePath.
func (p *SpeciesPopulation) SaveCheckpoint(filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file '%s': %w", filePath, err)
	}
	if err := EncodeCheckpoint(file, p.Snapshot()); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close checkpoint file '%s': %w", filePath, err)
	}
	p.logger.Info("checkpoint saved", "generation", p.generation, "path", filePath)
	return nil
}

// LoadCheckpoint reads a checkpoint file written by SaveCheckpoint.
func LoadCheckpoint(filePath string) (*Checkpoint, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file '%s': %w", filePath, err)
	}
	defer file.Close()
	return DecodeCheckpoint(file)
}
