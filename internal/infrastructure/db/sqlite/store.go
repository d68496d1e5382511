// Package sqlite implements the repositories on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sqlitedriver "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

const timeFormat = time.RFC3339Nano

//go:embed schema.sql
var schema string

// Store owns the database handle shared by the repositories.
type Store struct {
	db *sql.DB
}

// Open opens the database at path and applies the schema. The path ":memory:"
// opens a private in-memory database.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := ":memory:"
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Identities() *IdentityRepository { return &IdentityRepository{db: s.db} }
func (s *Store) Records() *RecordRepository       { return &RecordRepository{db: s.db} }
func (s *Store) Audit() *AuditRepository          { return &AuditRepository{db: s.db} }

// assignID returns id unchanged when set, raising the named sequence to it if
// numeric, and the next sequence value otherwise. The sequence never
// decreases, so deleted ids are not reused.
func assignID(ctx context.Context, tx *sql.Tx, name, id string) (string, int64, error) {
	if id != "" {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return id, 0, nil
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sequences (name, value) VALUES (?, ?)
			 ON CONFLICT(name) DO UPDATE SET value = max(value, excluded.value)`,
			name, n)
		if err != nil {
			return "", 0, fmt.Errorf("raise %s sequence: %w", name, err)
		}
		return id, n, nil
	}

	var next int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO sequences (name, value) VALUES (?, 1)
		 ON CONFLICT(name) DO UPDATE SET value = value + 1
		 RETURNING value`,
		name).Scan(&next)
	if err != nil {
		return "", 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return strconv.FormatInt(next, 10), next, nil
}

// resultCode returns the extended SQLite result code carried by err, or 0.
func resultCode(err error) int {
	var se *sqlitedriver.Error
	if errors.As(err, &se) {
		return se.Code()
	}
	return 0
}

func isPrimaryKeyViolation(err error) bool {
	return resultCode(err) == sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY
}

func isUniqueViolation(err error) bool {
	return resultCode(err) == sqlitelib.SQLITE_CONSTRAINT_UNIQUE
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
