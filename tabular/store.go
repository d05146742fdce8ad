// Package tabular loads CSV files into SQLite tables and runs read queries against them.
package tabular

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "modernc.org/sqlite" // pure Go sqlite driver
)

// Store wraps a SQLite database holding CSV backed tables
type Store struct {
	db   *sql.DB
	logf func(format string, args ...any)
}

// Option configures a Store
type Option func(*Store)

// WithLogf sets the logger
func WithLogf(logf func(format string, args ...any)) Option {
	return func(s *Store) {
		if logf != nil {
			s.logf = logf
		}
	}
}

// Open opens or creates the database at dsn; ":memory:" keeps everything on one connection
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = ":memory:"
	}
	memory := isMemory(dsn)
	db, err := sql.Open("sqlite", withPragmas(dsn, !memory, 5000))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", dsn, err)
	}
	if memory {
		db.SetMaxOpenConns(1)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open sqlite %s: %w", dsn, err)
	}
	ret := &Store{db: db, logf: log.Printf}
	for _, opt := range opts {
		opt(ret)
	}
	return ret, nil
}

// DB returns the underlying handle
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func isMemory(dsn string) bool {
	lower := strings.ToLower(dsn)
	return dsn == ":memory:" || strings.HasPrefix(lower, "file::memory:") || strings.Contains(lower, "mode=memory")
}

// withPragmas appends busy timeout and optionally WAL pragmas to a file DSN
func withPragmas(dsn string, wal bool, busyTimeoutMS int) string {
	if isMemory(dsn) {
		return dsn
	}
	lower := strings.ToLower(dsn)
	if wal && !strings.Contains(lower, "_pragma=journal_mode") {
		dsn = addPragma(dsn, "journal_mode(WAL)")
	}
	if busyTimeoutMS > 0 && !strings.Contains(lower, "_pragma=busy_timeout") {
		dsn = addPragma(dsn, fmt.Sprintf("busy_timeout(%d)", busyTimeoutMS))
	}
	return dsn
}

func addPragma(dsn, pragma string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=" + pragma
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
