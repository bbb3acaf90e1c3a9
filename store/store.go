// Package store keeps a SQLite catalog of every table the pipeline
// produces: which process and field it belongs to, where it was written,
// its checksum and which run produced it. The catalog is bookkeeping only;
// the text tables remain the canonical output.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"
)

// Kind labels the table variants tracked in the catalog.
type Kind string

const (
	KindRate    Kind = "rate"
	KindCDF     Kind = "cdf"
	KindDensity Kind = "density"
)

// Entry is one catalog record.
type Entry struct {
	ID        int64
	RunID     string
	Process   string
	Field     string
	Kind      Kind
	Path      string
	SHA256    string
	Rows      int
	CreatedAt time.Time
}

// Store handles catalog database operations.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the catalog at the given path and migrates the
// schema. WAL mode keeps concurrent readers safe; writers must still be
// serialized externally.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tables (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		process TEXT NOT NULL,
		field TEXT NOT NULL,
		kind TEXT NOT NULL,
		path TEXT NOT NULL,
		sha256 TEXT NOT NULL,
		rows INTEGER NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_tables_process_field ON tables(process, field);
	CREATE INDEX IF NOT EXISTS idx_tables_run ON tables(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record catalogs a produced table, hashing the file at path.
func (s *Store) Record(runID, process, field string, kind Kind, path string, rows int) error {
	sum, err := fileSHA256(path)
	if err != nil {
		return fmt.Errorf("store: checksum %s: %w", path, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO tables (run_id, process, field, kind, path, sha256, rows) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, process, field, string(kind), path, sum, rows,
	)
	if err != nil {
		return fmt.Errorf("store: record %s: %w", path, err)
	}
	return nil
}

// List returns all catalog entries, newest first.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, process, field, kind, path, sha256, rows, created_at
		 FROM tables ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.ID, &e.RunID, &e.Process, &e.Field, &kind, &e.Path, &e.SHA256, &e.Rows, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		e.Kind = Kind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListRun returns the catalog entries for one run, oldest first.
func (s *Store) ListRun(runID string) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, process, field, kind, path, sha256, rows, created_at
		 FROM tables WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: list run: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.ID, &e.RunID, &e.Process, &e.Field, &kind, &e.Path, &e.SHA256, &e.Rows, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		e.Kind = Kind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func fileSHA256(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
