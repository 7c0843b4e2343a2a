package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/CONEXUS-dev/research-validation/pkg/errors"
)

// Store is a SQLite-backed archive of trial records.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS trial_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	experiment_id TEXT NOT NULL,
	domain TEXT NOT NULL,
	method TEXT NOT NULL,
	seed INTEGER NOT NULL,
	best_fitness REAL NOT NULL,
	best_complexity INTEGER NOT NULL,
	best_encoding TEXT NOT NULL,
	paradox_count INTEGER NOT NULL,
	generations INTEGER NOT NULL,
	checksum TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trial_experiment ON trial_results(experiment_id, domain, method);
CREATE UNIQUE INDEX IF NOT EXISTS idx_trial_identity ON trial_results(experiment_id, domain, method, seed);
`

// NewStore opens (or creates) the results database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, errors.StorageFailed, "failed to open results database")
	}

	// Single writer; WAL keeps concurrent readers cheap.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.StorageFailed, "failed to enable WAL mode")
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.StorageFailed, "failed to initialize schema")
	}

	return &Store{db: db}, nil
}

// Put inserts one trial record. Re-running a trial with the same identity is
// a conflict, not an update: stored results are immutable by design.
func (s *Store) Put(ctx context.Context, record TrialRecord) error {
	encoding, err := json.Marshal(record.BestEncoding)
	if err != nil {
		return errors.Wrap(err, errors.StorageFailed, "failed to encode candidate")
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trial_results
		(experiment_id, domain, method, seed, best_fitness, best_complexity,
		 best_encoding, paradox_count, generations, checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ExperimentID, record.Domain, record.Method, record.Seed,
		record.BestFitness, record.BestComplexity, string(encoding),
		record.ParadoxCount, record.Generations, record.Checksum, createdAt)
	if err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.StorageFailed, "failed to insert trial record"),
			errors.Fields{"domain": record.Domain, "seed": record.Seed})
	}
	return nil
}

// List returns every record of an experiment, ordered by method then seed.
func (s *Store) List(ctx context.Context, experimentID string) ([]TrialRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT experiment_id, domain, method, seed, best_fitness, best_complexity,
		       best_encoding, paradox_count, generations, checksum, created_at
		FROM trial_results
		WHERE experiment_id = ?
		ORDER BY method, seed`, experimentID)
	if err != nil {
		return nil, errors.Wrap(err, errors.StorageFailed, "failed to query trial records")
	}
	defer rows.Close()

	var records []TrialRecord
	for rows.Next() {
		var record TrialRecord
		var encoding string
		if err := rows.Scan(&record.ExperimentID, &record.Domain, &record.Method,
			&record.Seed, &record.BestFitness, &record.BestComplexity, &encoding,
			&record.ParadoxCount, &record.Generations, &record.Checksum,
			&record.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.StorageFailed, "failed to scan trial record")
		}
		if err := json.Unmarshal([]byte(encoding), &record.BestEncoding); err != nil {
			return nil, errors.Wrap(err, errors.RecordMalformed, "stored encoding is not valid JSON")
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Fitnesses returns the best-fitness column for one (domain, method) arm,
// ordered by seed so the statistics input is stable across reads.
func (s *Store) Fitnesses(ctx context.Context, experimentID, domain, method string) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT best_fitness FROM trial_results
		WHERE experiment_id = ? AND domain = ? AND method = ?
		ORDER BY seed`, experimentID, domain, method)
	if err != nil {
		return nil, errors.Wrap(err, errors.StorageFailed, "failed to query fitnesses")
	}
	defer rows.Close()

	var fitnesses []float64
	for rows.Next() {
		var f float64
		if err := rows.Scan(&f); err != nil {
			return nil, errors.Wrap(err, errors.StorageFailed, "failed to scan fitness")
		}
		fitnesses = append(fitnesses, f)
	}
	return fitnesses, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
