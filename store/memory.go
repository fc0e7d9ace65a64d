package store

import (
	"context"
	"sort"
	"sync"
)

type checkpoint struct {
	generation int
	payload    []byte
}

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]Run
	generations map[string][]GenerationRecord
	fittest     map[string][]FittestRecord
	checkpoints map[string][]checkpoint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.runs = make(map[string]Run)
	s.generations = make(map[string][]GenerationRecord)
	s.fittest = make(map[string][]FittestRecord)
	s.checkpoints = make(map[string][]checkpoint)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return Run{}, false, ErrNotInitialized
	}
	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) SaveGeneration(_ context.Context, rec GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	recs := s.generations[rec.RunID]
	for i := range recs {
		if recs[i].Generation == rec.Generation {
			recs[i] = rec
			return nil
		}
	}
	recs = append(recs, rec)
	sort.Slice(recs, func(i, j int) bool { return recs[i].Generation < recs[j].Generation })
	s.generations[rec.RunID] = recs
	return nil
}

func (s *MemoryStore) Generations(_ context.Context, runID string) ([]GenerationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	return append([]GenerationRecord(nil), s.generations[runID]...), nil
}

func (s *MemoryStore) SaveFittest(_ context.Context, rec FittestRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	s.fittest[rec.RunID] = append(s.fittest[rec.RunID], rec)
	return nil
}

func (s *MemoryStore) Fittest(_ context.Context, runID string) ([]FittestRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	return append([]FittestRecord(nil), s.fittest[runID]...), nil
}

func (s *MemoryStore) SaveCheckpoint(_ context.Context, runID string, generation int, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	s.checkpoints[runID] = append(s.checkpoints[runID], checkpoint{
		generation: generation,
		payload:    append([]byte(nil), payload...),
	})
	return nil
}

func (s *MemoryStore) LatestCheckpoint(_ context.Context, runID string) (int, []byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return 0, nil, false, ErrNotInitialized
	}
	cps := s.checkpoints[runID]
	if len(cps) == 0 {
		return 0, nil, false, nil
	}
	best := cps[0]
	for _, cp := range cps[1:] {
		if cp.generation >= best.generation {
			best = cp
		}
	}
	return best.generation, append([]byte(nil), best.payload...), true, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
