package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migrations upgrade a history database one user_version at a time;
// migrations[i] moves version i to i+1. The base schema in schema.sql is
// always applied first, so a migration only adds to it.
var migrations = []func(*sql.Tx) error{
	// v1: per-scenario history lookups ("every run of py3-slim").
	func(tx *sql.Tx) error {
		_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_cases_scenario ON cases(scenario, run_id)`)
		return err
	},
}

var currentSchemaVersion = len(migrations)

// historyPragmas configure every connection. A harness run writes from one
// goroutine while `slsreq history` may read the same file.
var historyPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// Store records harness runs, their cases and the commands each case
// launched.
type Store struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces the wall clock used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the UUIDv7 run ID generator.
func WithIDGenerator(next func() string) Option {
	return func(s *Store) { s.newID = next }
}

// NewRunID returns a time-sortable UUIDv7 string.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Open opens the run-history database at path, creating it if needed, and
// upgrades it to the current schema. Reopening an up-to-date file is a no-op.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := prepare(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run history %s: %w", path, err)
	}

	s := &Store{db: db, now: time.Now, newID: NewRunID}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func prepare(db *sql.DB) error {
	for _, pragma := range historyPragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return migrate(db)
}

// migrate runs every migration above the file's user_version in a single
// transaction, then records the new version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version >= currentSchemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for v := version; v < currentSchemaVersion; v++ {
		if err := migrations[v](tx); err != nil {
			return fmt.Errorf("failed to migrate schema to v%d: %w", v+1, err)
		}
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return tx.Commit()
}

// verifyPragma reports whether pragma name currently reads expected.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
