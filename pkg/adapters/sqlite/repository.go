// Package sqlite stores the note collection in a SQLite database using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	sqlite3 "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/aretw0/nudge/pkg/core"
)

const (
	// DefaultFileName is the database file created inside the vault.
	DefaultFileName = "notes.db"
	// DefaultBusyTimeout is how long a writer waits for another process.
	DefaultBusyTimeout = 5 * time.Second
)

const schema = `
CREATE TABLE IF NOT EXISTS notes (
	id         INTEGER PRIMARY KEY,
	title      TEXT    NOT NULL,
	content    TEXT    NOT NULL DEFAULT '',
	category   TEXT    NOT NULL,
	reminder   TEXT,
	completed  INTEGER NOT NULL DEFAULT 0,
	created_at TEXT    NOT NULL,
	updated_at TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// timeLayout keeps instants as text so the full time.Time range survives,
// unlike UnixNano which only covers 1678-2262.
const timeLayout = time.RFC3339Nano

// Config holds the configuration for the SQLite repository.
type Config struct {
	Path        string // vault directory
	FileName    string // e.g. "notes.db"
	MustExist   bool
	ReadOnly    bool
	BusyTimeout time.Duration
	Logger      *slog.Logger
}

// Repository implements core.Repository on a SQLite database.
//
// Each Update runs in one IMMEDIATE transaction: the snapshot is read, the
// callback mutates it, and only the rows that differ are written back.
type Repository struct {
	config Config
	db     *sql.DB

	mu        sync.Mutex
	writes    int
	lastWrite *time.Time
}

// NewRepository creates a repository. The database is opened by Initialize.
func NewRepository(config Config) *Repository {
	if config.FileName == "" {
		config.FileName = DefaultFileName
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = DefaultBusyTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Repository{config: config}
}

// DataPath returns the database file path.
func (r *Repository) DataPath() string {
	return filepath.Join(r.config.Path, r.config.FileName)
}

// Initialize opens the database and creates the schema.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist || r.config.ReadOnly {
		if _, err := os.Stat(r.DataPath()); err != nil {
			return fmt.Errorf("%w: database does not exist: %w", core.ErrStorageUnavailable, err)
		}
	} else if err := os.MkdirAll(r.config.Path, 0755); err != nil {
		return fmt.Errorf("%w: failed to create vault directory: %w", core.ErrStorageUnavailable, err)
	}

	if err := r.open(); err != nil {
		return err
	}

	if r.config.ReadOnly {
		_, err := r.Load(ctx)
		return err
	}

	if err := r.createSchema(ctx); err != nil {
		return err
	}

	r.config.Logger.Debug("sqlite repository ready", "path", r.DataPath())
	_, err := r.Load(ctx)
	return err
}

func (r *Repository) createSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		return storageError("failed to enable WAL mode", err)
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return storageError("failed to create schema", err)
	}
	return nil
}

// storageError classifies a driver error: a file that is not a database, or
// a damaged one, is ErrMalformedState; anything else is ErrStorageUnavailable.
func storageError(msg string, err error) error {
	var se *sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlitelib.SQLITE_NOTADB, sqlitelib.SQLITE_CORRUPT:
			return fmt.Errorf("%w: %s: %w", core.ErrMalformedState, msg, err)
		}
	}
	return fmt.Errorf("%w: %s: %w", core.ErrStorageUnavailable, msg, err)
}

// open creates the database handle once. Connections are opened lazily by database/sql.
func (r *Repository) open() error {
	if r.db != nil {
		return nil
	}
	dsn := fmt.Sprintf("%s?_txlock=immediate&_pragma=busy_timeout(%d)",
		r.DataPath(), r.config.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("%w: failed to open database: %w", core.ErrStorageUnavailable, err)
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	r.db = db
	return nil
}

// Close releases the database handle.
func (r *Repository) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// Load reads the complete current snapshot.
func (r *Repository) Load(ctx context.Context) (core.Snapshot, error) {
	if r.db == nil {
		return core.Snapshot{}, fmt.Errorf("%w: repository not initialized", core.ErrStorageUnavailable)
	}

	// Notes and lastId must come from the same committed state.
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return core.Snapshot{}, storageError("failed to begin read", err)
	}
	defer tx.Rollback() //nolint:errcheck

	return loadSnapshot(ctx, tx)
}

// Update runs fn against the current snapshot inside one transaction.
// Nothing is written if fn fails.
func (r *Repository) Update(ctx context.Context, fn func(*core.Snapshot) error) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	if r.db == nil {
		return fmt.Errorf("%w: repository not initialized", core.ErrStorageUnavailable)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError("failed to begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	before, err := loadSnapshot(ctx, tx)
	if err != nil {
		return err
	}

	after := before.Clone()
	if err := fn(&after); err != nil {
		return err
	}
	if err := after.Validate(); err != nil {
		return err
	}

	changes := core.Diff(before, after, time.Now())
	if len(changes) == 0 && after.LastID == before.LastID {
		return nil
	}

	for _, c := range changes {
		if c.Type == core.EventDelete {
			if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, c.ID); err != nil {
				return fmt.Errorf("%w: failed to delete note %d: %w", core.ErrStorageUnavailable, c.ID, err)
			}
			continue
		}
		n, err := after.Get(c.ID)
		if err != nil {
			return err
		}
		if err := upsert(ctx, tx, n); err != nil {
			return err
		}
	}
	if after.LastID != before.LastID {
		if err := setMeta(ctx, tx, lastIDKey, strconv.Itoa(after.LastID)); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit: %w", core.ErrStorageUnavailable, err)
	}

	r.recordWrite()
	r.config.Logger.Debug("note collection written", "path", r.DataPath(), "changes", len(changes))
	return nil
}

// Reset moves the database aside and creates an empty one.
// The previous files are kept as <file>.corrupt-<timestamp> for inspection.
func (r *Repository) Reset(ctx context.Context) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := os.MkdirAll(r.config.Path, 0755); err != nil {
		return fmt.Errorf("%w: failed to create vault directory: %w", core.ErrStorageUnavailable, err)
	}
	if err := r.Close(); err != nil {
		r.config.Logger.Warn("failed to close database before reset", "error", err)
	}

	suffix := ".corrupt-" + time.Now().UTC().Format("20060102T150405Z")
	for _, ext := range []string{"", "-wal", "-shm"} {
		path := r.DataPath() + ext
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := os.Rename(path, path+suffix); err != nil {
			return fmt.Errorf("%w: failed to move aside %s: %w", core.ErrStorageUnavailable, path, err)
		}
	}

	if err := r.open(); err != nil {
		return err
	}
	if err := r.createSchema(ctx); err != nil {
		return err
	}
	r.config.Logger.Warn("note collection reset", "path", r.DataPath(), "backup_suffix", suffix)
	return nil
}

const lastIDKey = "notes.last_id"

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func setMeta(ctx context.Context, e execer, key, value string) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("%w: failed to write %s: %w", core.ErrStorageUnavailable, key, err)
	}
	return nil
}

func loadSnapshot(ctx context.Context, q querier) (core.Snapshot, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, title, content, category, reminder, completed, created_at, updated_at
		FROM notes ORDER BY id`)
	if err != nil {
		return core.Snapshot{}, storageError("failed to query notes", err)
	}
	defer rows.Close()

	var snap core.Snapshot
	for rows.Next() {
		var (
			n                core.Note
			reminder         sql.NullString
			completed        int
			created, updated string
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.Category, &reminder, &completed, &created, &updated); err != nil {
			return core.Snapshot{}, fmt.Errorf("%w: %w", core.ErrMalformedState, err)
		}
		if reminder.Valid {
			t, err := parseTime(reminder.String)
			if err != nil {
				return core.Snapshot{}, err
			}
			n.Reminder = &t
		}
		n.Completed = completed != 0
		if n.CreatedAt, err = parseTime(created); err != nil {
			return core.Snapshot{}, err
		}
		if n.UpdatedAt, err = parseTime(updated); err != nil {
			return core.Snapshot{}, err
		}
		snap.Notes = append(snap.Notes, n)
	}
	if err := rows.Err(); err != nil {
		return core.Snapshot{}, storageError("failed to read notes", err)
	}
	// Release the connection before the next query; the pool holds only one.
	_ = rows.Close()

	var lastID string
	err = q.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, lastIDKey).Scan(&lastID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return core.Snapshot{}, storageError("failed to read "+lastIDKey, err)
	default:
		if snap.LastID, err = strconv.Atoi(lastID); err != nil {
			return core.Snapshot{}, fmt.Errorf("%w: %s: %w", core.ErrMalformedState, lastIDKey, err)
		}
	}

	if err := snap.Validate(); err != nil {
		return core.Snapshot{}, err
	}
	return snap, nil
}

func upsert(ctx context.Context, tx *sql.Tx, n core.Note) error {
	var reminder sql.NullString
	if n.Reminder != nil {
		reminder = sql.NullString{String: formatTime(*n.Reminder), Valid: true}
	}
	completed := 0
	if n.Completed {
		completed = 1
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO notes (id, title, content, category, reminder, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			category = excluded.category,
			reminder = excluded.reminder,
			completed = excluded.completed,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		n.ID, n.Title, n.Content, n.Category, reminder, completed,
		formatTime(n.CreatedAt), formatTime(n.UpdatedAt))
	if err != nil {
		return fmt.Errorf("%w: failed to write note %d: %w", core.ErrStorageUnavailable, n.ID, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad timestamp %q: %w", core.ErrMalformedState, v, err)
	}
	return t.UTC(), nil
}

func (r *Repository) recordWrite() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.lastWrite = &now
	r.writes++
}

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	DataFile  string     `json:"data_file"`
	ReadOnly  bool       `json:"read_only"`
	Writes    int        `json:"writes"`
	LastWrite *time.Time `json:"last_write,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RepositoryState{
		DataFile:  r.DataPath(),
		ReadOnly:  r.config.ReadOnly,
		Writes:    r.writes,
		LastWrite: r.lastWrite,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "sqlite-repository"
}

var _ core.Repository = (*Repository)(nil)
var _ core.Resettable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)

// Checkpoint stores the scanner's last window end in the meta table.
type Checkpoint struct {
	repo *Repository
}

// NewCheckpoint returns a checkpoint backed by this database.
func (r *Repository) NewCheckpoint() *Checkpoint {
	return &Checkpoint{repo: r}
}

const lastScanKey = "scanner.last_scan"

// Load returns the saved instant, or ok=false if none was saved.
func (c *Checkpoint) Load() (time.Time, bool, error) {
	if c.repo.db == nil {
		return time.Time{}, false, fmt.Errorf("%w: repository not initialized", core.ErrStorageUnavailable)
	}
	var value string
	err := c.repo.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, lastScanKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		c.repo.config.Logger.Warn("ignoring unreadable scanner checkpoint", "value", value)
		return time.Time{}, false, nil
	}
	return t, true, nil
}

// Save records t as the end of the last successful scan.
func (c *Checkpoint) Save(t time.Time) error {
	if c.repo.config.ReadOnly {
		return core.ErrReadOnly
	}
	if c.repo.db == nil {
		return fmt.Errorf("%w: repository not initialized", core.ErrStorageUnavailable)
	}
	return setMeta(context.Background(), c.repo.db, lastScanKey, formatTime(t))
}
