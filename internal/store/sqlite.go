// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/shelfgrab/pkg/types"
)

// SQLiteStore keeps the ledger in a single SQLite file. Every Put is its
// own committed insert.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenSQLite opens or creates the database at path and its schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS acquisitions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		source TEXT NOT NULL,
		file TEXT,
		acquired_at TEXT
	)`)
	return err
}

// Has reports whether id is recorded. A failed lookup counts as recorded
// so the item is skipped rather than fetched a second time.
func (s *SQLiteStore) Has(id string) bool {
	_, err := s.lookup(id)
	return !errors.Is(err, sql.ErrNoRows)
}

func (s *SQLiteStore) Get(id string) (types.AcquisitionRecord, bool) {
	rec, err := s.lookup(id)
	return rec, err == nil
}

// lookup returns sql.ErrNoRows when id is absent. Other errors are logged.
func (s *SQLiteStore) lookup(id string) (types.AcquisitionRecord, error) {
	row := s.db.QueryRow(`SELECT id, title, author, source, file, acquired_at FROM acquisitions WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		slog.Error("record lookup failed", "id", id, "error", err)
	}
	return rec, err
}

func (s *SQLiteStore) Len() int {
	var n int
	if err := s.db.QueryRow(`SELECT count(*) FROM acquisitions`).Scan(&n); err != nil {
		slog.Error("counting records failed", "error", err)
		return 0
	}
	return n
}

// Put inserts rec unless its ID exists. The existing row is never updated.
func (s *SQLiteStore) Put(ctx context.Context, rec types.AcquisitionRecord) (bool, error) {
	if rec.ID == "" {
		return false, fmt.Errorf("record has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var acquiredAt sql.NullString
	if !rec.AcquiredAt.IsZero() {
		acquiredAt = sql.NullString{String: rec.AcquiredAt.UTC().Format(time.RFC3339), Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO acquisitions (id, title, author, source, file, acquired_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Title, rec.Author, rec.Source, rec.File, acquiredAt)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return n == 1, nil
}

func (s *SQLiteStore) Records() ([]types.AcquisitionRecord, error) {
	rows, err := s.db.Query(`SELECT id, title, author, source, file, acquired_at FROM acquisitions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []types.AcquisitionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (types.AcquisitionRecord, error) {
	var (
		rec        types.AcquisitionRecord
		file       sql.NullString
		acquiredAt sql.NullString
	)
	if err := sc.Scan(&rec.ID, &rec.Title, &rec.Author, &rec.Source, &file, &acquiredAt); err != nil {
		return rec, err
	}
	rec.File = file.String
	if acquiredAt.Valid {
		if t, err := time.Parse(time.RFC3339, acquiredAt.String); err == nil {
			rec.AcquiredAt = t
		}
	}
	return rec, nil
}

var _ Store = (*SQLiteStore)(nil)
