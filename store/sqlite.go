package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists to a SQLite database file.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	s.db = db
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, experiment, seed, pop_size, search_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			experiment = excluded.experiment,
			seed = excluded.seed,
			pop_size = excluded.pop_size,
			search_type = excluded.search_type,
			created_at = excluded.created_at
	`, run.ID, run.Experiment, run.Seed, run.PopSize, run.SearchType, run.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (Run, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Run{}, false, err
	}
	var (
		run     Run
		created string
	)
	err = db.QueryRowContext(ctx, `
		SELECT id, experiment, seed, pop_size, search_type, created_at FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Experiment, &run.Seed, &run.PopSize, &run.SearchType, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, fmt.Errorf("get run %s: %w", id, err)
	}
	run.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Run{}, false, fmt.Errorf("parse run %s created_at: %w", id, err)
	}
	return run, true, nil
}

func (s *SQLiteStore) SaveGeneration(ctx context.Context, rec GenerationRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO generations (run_id, generation, num_species, best_fitness, mean_fitness, best_error, highest_fitness, mean_nodes, mean_links)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			num_species = excluded.num_species,
			best_fitness = excluded.best_fitness,
			mean_fitness = excluded.mean_fitness,
			best_error = excluded.best_error,
			highest_fitness = excluded.highest_fitness,
			mean_nodes = excluded.mean_nodes,
			mean_links = excluded.mean_links
	`, rec.RunID, rec.Generation, rec.NumSpecies, rec.BestFitness, rec.MeanFitness, rec.BestError, rec.HighestFitness, rec.MeanNodes, rec.MeanLinks)
	if err != nil {
		return fmt.Errorf("save generation %s/%d: %w", rec.RunID, rec.Generation, err)
	}
	return nil
}

func (s *SQLiteStore) Generations(ctx context.Context, runID string) ([]GenerationRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT generation, num_species, best_fitness, mean_fitness, best_error, highest_fitness, mean_nodes, mean_links
		FROM generations WHERE run_id = ? ORDER BY generation
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query generations %s: %w", runID, err)
	}
	defer rows.Close()

	var recs []GenerationRecord
	for rows.Next() {
		rec := GenerationRecord{RunID: runID}
		if err := rows.Scan(&rec.Generation, &rec.NumSpecies, &rec.BestFitness, &rec.MeanFitness, &rec.BestError, &rec.HighestFitness, &rec.MeanNodes, &rec.MeanLinks); err != nil {
			return nil, fmt.Errorf("scan generation %s: %w", runID, err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *SQLiteStore) SaveFittest(ctx context.Context, rec FittestRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO fittest (run_id, generation, fitness, error, genome)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			fitness = excluded.fitness,
			error = excluded.error,
			genome = excluded.genome
	`, rec.RunID, rec.Generation, rec.Fitness, rec.Error, rec.Genome)
	if err != nil {
		return fmt.Errorf("save fittest %s/%d: %w", rec.RunID, rec.Generation, err)
	}
	return nil
}

func (s *SQLiteStore) Fittest(ctx context.Context, runID string) ([]FittestRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT generation, fitness, error, genome FROM fittest WHERE run_id = ? ORDER BY generation
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query fittest %s: %w", runID, err)
	}
	defer rows.Close()

	var recs []FittestRecord
	for rows.Next() {
		rec := FittestRecord{RunID: runID}
		if err := rows.Scan(&rec.Generation, &rec.Fitness, &rec.Error, &rec.Genome); err != nil {
			return nil, fmt.Errorf("scan fittest %s: %w", runID, err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *SQLiteStore) SaveCheckpoint(ctx context.Context, runID string, generation int, payload []byte) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO checkpoints (run_id, generation, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			payload = excluded.payload
	`, runID, generation, payload)
	if err != nil {
		return fmt.Errorf("save checkpoint %s/%d: %w", runID, generation, err)
	}
	return nil
}

func (s *SQLiteStore) LatestCheckpoint(ctx context.Context, runID string) (int, []byte, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return 0, nil, false, err
	}
	var (
		generation int
		payload    []byte
	)
	err = db.QueryRowContext(ctx, `
		SELECT generation, payload FROM checkpoints WHERE run_id = ? ORDER BY generation DESC LIMIT 1
	`, runID).Scan(&generation, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, false, nil
	}
	if err != nil {
		return 0, nil, false, fmt.Errorf("latest checkpoint %s: %w", runID, err)
	}
	return generation, payload, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			experiment TEXT NOT NULL,
			seed INTEGER NOT NULL,
			pop_size INTEGER NOT NULL,
			search_type TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			num_species INTEGER NOT NULL,
			best_fitness REAL NOT NULL,
			mean_fitness REAL NOT NULL,
			best_error REAL NOT NULL,
			highest_fitness REAL NOT NULL,
			mean_nodes REAL NOT NULL,
			mean_links REAL NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
		CREATE TABLE IF NOT EXISTS fittest (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			fitness REAL NOT NULL,
			error REAL NOT NULL,
			genome TEXT NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
		CREATE TABLE IF NOT EXISTS checkpoints (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
	`)
	return err
}
