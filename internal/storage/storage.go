// Package storage keeps the full evaluation history in SQLite.
//
// The rolling text report only holds the latest few entries; this store keeps every
// evaluation and run error so results can be queried later. Records beyond the
// configured maximum are rotated out oldest first.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rewired-gh/dltcheck/internal/models"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("record not found")

const schema = `
CREATE TABLE IF NOT EXISTS evaluations (
	id            TEXT PRIMARY KEY,
	eval_period   TEXT NOT NULL,
	cutoff_period TEXT NOT NULL,
	report_path   TEXT NOT NULL,
	total_prize   INTEGER NOT NULL,
	created_at    INTEGER NOT NULL,
	payload       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_evaluations_period ON evaluations(eval_period);
CREATE INDEX IF NOT EXISTS idx_evaluations_created ON evaluations(created_at);

CREATE TABLE IF NOT EXISTS run_errors (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	kind       TEXT NOT NULL,
	message    TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
`

// RunError is a persisted failed run.
type RunError struct {
	ID        int64
	Kind      string
	Message   string
	CreatedAt time.Time
}

// Storage is a SQLite-backed evaluation history.
type Storage struct {
	db         *sql.DB
	maxRecords int
	mu         sync.Mutex
}

// New opens (or creates) the database at dbPath. ":memory:" gives a private in-memory store.
func New(maxRecords int, dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "dltcheck", "history.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite registers as "sqlite", not "sqlite3"
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection: keeps ":memory:" a single database and serialises writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Storage{db: db, maxRecords: maxRecords}, nil
}

// Close releases the database.
func (s *Storage) Close() error {
	return s.db.Close()
}

// AddEvaluation stores an evaluation.
func (s *Storage) AddEvaluation(e *models.Evaluation) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid evaluation: %w", err)
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal evaluation: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		`INSERT INTO evaluations (id, eval_period, cutoff_period, report_path, total_prize, created_at, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.EvalPeriod, e.CutoffPeriod, e.ReportPath, e.TotalPrize, e.CreatedAt.UnixNano(), string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert evaluation: %w", err)
	}
	return nil
}

// GetEvaluation retrieves an evaluation by ID.
func (s *Storage) GetEvaluation(id string) (*models.Evaluation, error) {
	row := s.db.QueryRow(`SELECT payload FROM evaluations WHERE id = ?`, id)
	return scanEvaluation(row)
}

// LatestForPeriod returns the newest evaluation of a period.
func (s *Storage) LatestForPeriod(period string) (*models.Evaluation, error) {
	row := s.db.QueryRow(
		`SELECT payload FROM evaluations WHERE eval_period = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		period,
	)
	return scanEvaluation(row)
}

// ListEvaluations returns up to limit evaluations, newest first. limit <= 0 returns all.
func (s *Storage) ListEvaluations(limit int) ([]*models.Evaluation, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT payload FROM evaluations ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	var out []*models.Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AddRunError stores a failed run.
func (s *Storage) AddRunError(kind, message string, at time.Time) error {
	if kind == "" {
		return errors.New("run error kind must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO run_errors (kind, message, created_at) VALUES (?, ?, ?)`,
		kind, message, at.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run error: %w", err)
	}
	return nil
}

// ListRunErrors returns up to limit run errors, newest first.
func (s *Storage) ListRunErrors(limit int) ([]RunError, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT id, kind, message, created_at FROM run_errors ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run errors: %w", err)
	}
	defer rows.Close()

	var out []RunError
	for rows.Next() {
		var r RunError
		var nanos int64
		if err := rows.Scan(&r.ID, &r.Kind, &r.Message, &nanos); err != nil {
			return nil, fmt.Errorf("failed to scan run error: %w", err)
		}
		r.CreatedAt = time.Unix(0, nanos)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Rotate removes the oldest evaluations and run errors beyond the maximum.
func (s *Storage) Rotate() error {
	if s.maxRecords <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`DELETE FROM evaluations WHERE id NOT IN (
			SELECT id FROM evaluations ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, s.maxRecords)
	if err != nil {
		return fmt.Errorf("failed to rotate evaluations: %w", err)
	}
	_, err = s.db.Exec(
		`DELETE FROM run_errors WHERE id NOT IN (
			SELECT id FROM run_errors ORDER BY created_at DESC, id DESC LIMIT ?
		)`, s.maxRecords)
	if err != nil {
		return fmt.Errorf("failed to rotate run errors: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(row scanner) (*models.Evaluation, error) {
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan evaluation: %w", err)
	}
	var e models.Evaluation
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal evaluation: %w", err)
	}
	return &e, nil
}
