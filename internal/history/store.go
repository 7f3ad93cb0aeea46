package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Kind distinguishes the two run types.
type Kind string

const (
	KindSync    Kind = "sync"
	KindPublish Kind = "publish"
)

// StatusRunning marks a run that has not finished (or crashed before Finish).
const StatusRunning = "running"

// Run is one history row.
type Run struct {
	ID            string
	Kind          Kind
	StartedAt     time.Time
	FinishedAt    time.Time
	Status        string
	Items         int
	Errors        int
	Batches       int
	CatalogDigest string
	Message       string
}

// Duration returns the wall time of a finished run.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome carries the values recorded when a run finishes.
type Outcome struct {
	Status        string
	Items         int
	Errors        int
	Batches       int
	CatalogDigest string
	Message       string
}

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Begin inserts a running row and returns its id.
func (s *Store) Begin(ctx context.Context, kind Kind) (string, error) {
	id := uuid.NewString()
	err := s.exec(ctx,
		"INSERT INTO runs (id, kind, started_at, status) VALUES (?, ?, ?, ?)",
		id, string(kind), s.now().UnixMilli(), StatusRunning,
	)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return id, nil
}

// Finish records the outcome of run id.
func (s *Store) Finish(ctx context.Context, id string, out Outcome) error {
	status := strings.TrimSpace(out.Status)
	if status == "" {
		status = "ok"
	}
	err := s.exec(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, items = ?, errors = ?, batches = ?,
		 catalog_digest = ?, message = ? WHERE id = ?`,
		s.now().UnixMilli(), status, out.Items, out.Errors, out.Batches, out.CatalogDigest, out.Message, id,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, started_at, finished_at, status, items, errors, batches, catalog_digest, message
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LastDigest returns the catalog digest of the newest successful sync, or "".
func (s *Store) LastDigest(ctx context.Context) (string, error) {
	var digest string
	err := s.db.QueryRowContext(ctx,
		`SELECT catalog_digest FROM runs WHERE kind = ? AND status = 'ok' AND catalog_digest != ''
		 ORDER BY started_at DESC, rowid DESC LIMIT 1`, string(KindSync),
	).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query last digest: %w", err)
	}
	return digest, nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		run      Run
		kind     string
		started  int64
		finished sql.NullInt64
	)
	if err := rows.Scan(&run.ID, &kind, &started, &finished, &run.Status, &run.Items,
		&run.Errors, &run.Batches, &run.CatalogDigest, &run.Message); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Kind = Kind(kind)
	run.StartedAt = time.UnixMilli(started)
	if finished.Valid {
		run.FinishedAt = time.UnixMilli(finished.Int64)
	}
	return run, nil
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
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
