package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	_ "modernc.org/sqlite"

	"eris/internal/config"
	"eris/internal/logging"
)

const sqliteBusyCode = 5

var (
	// ErrNotFound is returned when a novel does not exist.
	ErrNotFound = errors.New("novel not found")
	// ErrDuplicateTitle is returned when another novel already uses a title.
	ErrDuplicateTitle = errors.New("novel title already in library")
)

// Options tunes a Store.
type Options struct {
	BusyRetries    int
	BusyRetryDelay time.Duration
	Logger         *slog.Logger
}

// Store manages library persistence backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// Open opens the library configured in cfg, creating directories as needed.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.Paths.LibraryPath, Options{
		BusyRetries:    cfg.Library.BusyRetries,
		BusyRetryDelay: cfg.BusyRetryDelay(),
		Logger:         logger,
	})
}

// OpenPath initializes or connects to the library database at path.
func OpenPath(path string, opts Options) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if opts.BusyRetries < 0 {
		opts.BusyRetries = 0
	}
	store := &Store{
		db:     db,
		path:   path,
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "library"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
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

// withRetry runs op, retrying only while the database reports it is busy.
func (s *Store) withRetry(ctx context.Context, name string, op func() error) error {
	return retry.Do(
		op,
		retry.Context(ctx),
		retry.Attempts(uint(s.opts.BusyRetries)+1),
		retry.Delay(s.opts.BusyRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isSQLiteBusy),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Debug("library busy, retrying",
				logging.String("operation", name),
				logging.Int("attempt", int(n)+1),
				logging.Error(err),
			)
		}),
	)
}

// inTx runs fn inside a transaction, retried as a whole on SQLITE_BUSY.
func (s *Store) inTx(ctx context.Context, name string, fn func(*sql.Tx) error) error {
	return s.withRetry(ctx, name, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin %s tx: %w", name, err)
		}
		defer func() { _ = tx.Rollback() }()
		if err := fn(tx); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", name, err)
		}
		return nil
	})
}

func (s *Store) timestamp() string {
	return s.now().Format(time.RFC3339Nano)
}

func nullableString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func parseTime(raw sql.NullString) time.Time {
	if !raw.Valid || raw.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
