package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"radiocalico/internal/config"
	"radiocalico/internal/metrics"
)

// Store manages rating persistence backed by SQLite.
type Store struct {
	db    *sql.DB
	path  string
	clock *clock
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		metrics.RecordBusyRetry()
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// observe records the duration and outcome of a store operation. Use it as
// `defer observe("op", time.Now(), &err)` with a named error result.
func observe(operation string, start time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	metrics.RecordDBQuery(operation, time.Since(start), err)
}

// dsn applies pragmas per connection so every pooled connection enforces
// foreign keys and waits on locks. Transactions begin IMMEDIATE so writers
// queue on busy_timeout instead of failing on lock upgrade.
func dsn(path string) string {
	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "busy_timeout(5000)")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Set("_txlock", "immediate")
	return "file:" + path + "?" + params.Encode()
}

// Open initializes or connects to the rating database and applies pending migrations.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("open store: config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(context.Background(), cfg.Paths.DatabasePath)
}

// OpenPath opens the database file at path directly.
func OpenPath(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("open store: database path is required")
	}
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: path, clock: newClock(time.Now)}
	if err := store.Ping(ensureContext(ctx)); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.Migrate(ensureContext(ctx)); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.seedClock(ensureContext(ctx)); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

const latestTimestampSQL = `
SELECT MAX(ts) FROM (
    SELECT MAX(updated_at) AS ts FROM users
    UNION ALL SELECT MAX(updated_at) FROM songs
    UNION ALL SELECT MAX(updated_at) FROM song_ratings
    UNION ALL SELECT MAX(applied_at) FROM schema_migrations
)`

// seedClock starts the clock after the newest stored timestamp so a wall
// clock that moved backwards between runs cannot produce older updated_at
// values. Timestamps not in TimestampLayout are ignored.
func (s *Store) seedClock(ctx context.Context) error {
	var latest sql.NullString
	if err := s.db.QueryRowContext(ctx, latestTimestampSQL).Scan(&latest); err != nil {
		return fmt.Errorf("read latest timestamp: %w", err)
	}
	if !latest.Valid {
		return nil
	}
	if ts, err := ParseTimestamp(latest.String); err == nil {
		s.clock.raiseFloor(ts)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies the database answers a trivial query.
func (s *Store) Ping(ctx context.Context) (err error) {
	defer observe("ping", time.Now(), &err)
	var one int
	if err := s.db.QueryRowContext(ensureContext(ctx), "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Version reports the SQLite library version.
func (s *Store) Version(ctx context.Context) (string, error) {
	var version string
	if err := s.db.QueryRowContext(ensureContext(ctx), "SELECT sqlite_version()").Scan(&version); err != nil {
		return "", fmt.Errorf("query sqlite version: %w", err)
	}
	return version, nil
}
