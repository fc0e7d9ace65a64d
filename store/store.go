// Package store persists run metadata, per-generation statistics, fittest
// genomes and population checkpoints.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotInitialized is returned when a store is used before Init.
var ErrNotInitialized = errors.New("store is not initialized")

// Run describes one evolutionary run.
type Run struct {
	ID         string
	Experiment string
	Seed       int64
	PopSize    int
	SearchType string
	CreatedAt  time.Time
}

// GenerationRecord holds the statistics of one completed generation.
type GenerationRecord struct {
	RunID          string
	Generation     int
	NumSpecies     int
	BestFitness    float64
	MeanFitness    float64
	BestError      float64
	HighestFitness float64
	MeanNodes      float64
	MeanLinks      float64
}

// FittestRecord is the best organism of a generation in genome text format.
type FittestRecord struct {
	RunID      string
	Generation int
	Fitness    float64
	Error      float64
	Genome     string
}

// Store defines the persistence operations used by the run loop.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	SaveGeneration(ctx context.Context, rec GenerationRecord) error
	Generations(ctx context.Context, runID string) ([]GenerationRecord, error)
	SaveFittest(ctx context.Context, rec FittestRecord) error
	Fittest(ctx context.Context, runID string) ([]FittestRecord, error)
	SaveCheckpoint(ctx context.Context, runID string, generation int, payload []byte) error
	// LatestCheckpoint returns the checkpoint with the highest generation.
	LatestCheckpoint(ctx context.Context, runID string) (generation int, payload []byte, ok bool, err error)
	Close() error
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}
