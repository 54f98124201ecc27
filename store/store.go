// SPDX-License-Identifier: MIT

// Package store persists sweep results in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/katalvlaran/disco/distribution"
	"github.com/katalvlaran/disco/sweep"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS results (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	kind           TEXT    NOT NULL,
	scale          REAL    NOT NULL,
	charging_time  INTEGER NOT NULL,
	nodes          INTEGER NOT NULL,
	slots          INTEGER NOT NULL,
	latency        REAL,
	final_fraction REAL,
	converged      INTEGER NOT NULL,
	error          TEXT,
	tag            TEXT    NOT NULL DEFAULT '',
	created_at     TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_kind ON results(kind, charging_time);

CREATE TABLE IF NOT EXISTS fits (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	charging_time INTEGER NOT NULL,
	nodes         INTEGER NOT NULL,
	slots         INTEGER NOT NULL,
	scale         REAL,
	latency       REAL,
	evaluations   INTEGER NOT NULL,
	error         TEXT,
	created_at    TEXT    NOT NULL
);
`

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("store: closed")

// Store is a SQLite-backed result store. It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

// Result is one stored sweep record. Latency and Final are zero when
// Error is set.
type Result struct {
	ID           int64
	Kind         distribution.Kind
	Scale        float64
	ChargingTime int
	Nodes        int
	Slots        int
	Latency      float64
	Final        float64
	Converged    bool
	Error        string
	Tag          string
	CreatedAt    time.Time
}

// FitResult is one stored scale fit. Scale and Latency are zero when Error
// is set.
type FitResult struct {
	ID           int64
	ChargingTime int
	Nodes        int
	Slots        int
	Scale        float64
	Latency      float64
	Evaluations  int
	Error        string
	CreatedAt    time.Time
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Kind         *distribution.Kind
	ChargingTime int
	Nodes        int
	Tag          string

	// ConvergedOnly drops records whose fraction stayed below threshold.
	ConvergedOnly bool

	// Limit caps the number of rows; 0 means no limit.
	Limit int
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Save inserts all records in one transaction.
func (s *Store) Save(ctx context.Context, recs []sweep.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	created := time.Now().UTC().Format(time.RFC3339Nano)
	return s.inTx(ctx, `INSERT INTO results
		(kind, scale, charging_time, nodes, slots, latency, final_fraction, converged, error, tag, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		len(recs), func(i int) []any {
			r := recs[i]
			return []any{
				r.Kind.String(), r.Scale, r.ChargingTime, r.Nodes, r.Slots,
				score(r.Latency, r.Err), score(r.Final, r.Err), r.Converged,
				nullString(r.Err), r.Tag, created,
			}
		})
}

// SaveFits inserts all fits in one transaction.
func (s *Store) SaveFits(ctx context.Context, fits []sweep.Fit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	created := time.Now().UTC().Format(time.RFC3339Nano)
	return s.inTx(ctx, `INSERT INTO fits
		(charging_time, nodes, slots, scale, latency, evaluations, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		len(fits), func(i int) []any {
			f := fits[i]
			return []any{
				f.ChargingTime, f.Nodes, f.Slots, score(f.Scale, f.Err), score(f.Latency, f.Err),
				f.Evaluations, nullString(f.Err), created,
			}
		})
}

// inTx runs one prepared statement n times inside a transaction.
func (s *Store) inTx(ctx context.Context, query string, n int, args func(i int) []any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("store: prepare: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("store: insert row %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// List returns stored results matching f, oldest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	var (
		where []string
		args  []any
	)
	if f.Kind != nil {
		where = append(where, "kind = ?")
		args = append(args, f.Kind.String())
	}
	if f.ChargingTime > 0 {
		where = append(where, "charging_time = ?")
		args = append(args, f.ChargingTime)
	}
	if f.Nodes > 0 {
		where = append(where, "nodes = ?")
		args = append(args, f.Nodes)
	}
	if f.Tag != "" {
		where = append(where, "tag = ?")
		args = append(args, f.Tag)
	}
	if f.ConvergedOnly {
		where = append(where, "converged = 1")
	}

	query := `SELECT id, kind, scale, charging_time, nodes, slots, latency, final_fraction, converged, error, tag, created_at FROM results`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query results: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var (
			r              Result
			kind           string
			latency, final sql.NullFloat64
			errText        sql.NullString
			created        string
		)
		if err := rows.Scan(&r.ID, &kind, &r.Scale, &r.ChargingTime, &r.Nodes, &r.Slots,
			&latency, &final, &r.Converged, &errText, &r.Tag, &created); err != nil {
			return nil, fmt.Errorf("store: scan result: %w", err)
		}
		r.Latency, r.Final = latency.Float64, final.Float64
		if r.Kind, err = distribution.ParseKind(kind); err != nil {
			return nil, fmt.Errorf("store: row %d: %w", r.ID, err)
		}
		r.Error = errText.String
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("store: row %d created_at: %w", r.ID, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate results: %w", err)
	}
	return out, nil
}

// ListFits returns all stored fits ordered by charging time, then nodes.
func (s *Store) ListFits(ctx context.Context) ([]FitResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, charging_time, nodes, slots, scale, latency, evaluations, error, created_at
		FROM fits ORDER BY charging_time, nodes, id`)
	if err != nil {
		return nil, fmt.Errorf("store: query fits: %w", err)
	}
	defer rows.Close()

	var out []FitResult
	for rows.Next() {
		var (
			f              FitResult
			scale, latency sql.NullFloat64
			errText        sql.NullString
			created        string
		)
		if err := rows.Scan(&f.ID, &f.ChargingTime, &f.Nodes, &f.Slots, &scale, &latency,
			&f.Evaluations, &errText, &created); err != nil {
			return nil, fmt.Errorf("store: scan fit: %w", err)
		}
		f.Scale, f.Latency = scale.Float64, latency.Float64
		f.Error = errText.String
		if f.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("store: fit %d created_at: %w", f.ID, err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate fits: %w", err)
	}
	return out, nil
}

// Close closes the database. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// score stores v, or NULL when the job that produced it failed.
func score(v float64, err error) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: err == nil}
}

func nullString(err error) sql.NullString {
	if err == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: err.Error(), Valid: true}
}
