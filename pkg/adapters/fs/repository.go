package fs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/nudge/pkg/core"
)

const (
	// DefaultFileName is the data file created inside the vault.
	DefaultFileName = "notes.json"
	// DefaultSystemDir holds the lock file and scanner checkpoint.
	DefaultSystemDir = ".nudge"
	// DefaultIOTimeout bounds lock acquisition and reads.
	DefaultIOTimeout = 5 * time.Second

	lockFileName = "store.lock"
)

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path         string // vault directory
	FileName     string // e.g. "notes.json"; the extension picks the serializer
	SystemDir    string // e.g. ".nudge"
	MustExist    bool   // fail instead of creating a missing vault directory
	ReadOnly     bool
	IOTimeout    time.Duration
	Logger       *slog.Logger
	ErrorHandler func(error) // receives watcher failures
}

// Repository implements core.Repository on top of a single snapshot file.
//
// Every mutation holds the in-process write lock and the cross-process lock
// file for the whole read-modify-write cycle. Reads share the RWMutex and
// never see a partial file because writes go through an atomic rename.
type Repository struct {
	Path       string
	config     Config
	serializer Serializer
	lock       *fileLock

	io sync.RWMutex // serializes snapshot I/O

	mu            sync.RWMutex // guards the fields below
	watcherActive bool
	lastWrite     *time.Time
	writes        int
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) (*Repository, error) {
	if config.FileName == "" {
		config.FileName = DefaultFileName
	}
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.IOTimeout <= 0 {
		config.IOTimeout = DefaultIOTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	serializer, err := SerializerFor(filepath.Ext(config.FileName))
	if err != nil {
		return nil, err
	}

	return &Repository{
		Path:       config.Path,
		config:     config,
		serializer: serializer,
		lock:       newFileLock(filepath.Join(config.Path, config.SystemDir, lockFileName)),
	}, nil
}

// DataPath returns the absolute location of the snapshot file.
func (r *Repository) DataPath() string {
	return filepath.Join(r.Path, r.config.FileName)
}

// SystemPath returns the hidden directory used for locks and checkpoints.
func (r *Repository) SystemPath() string {
	return filepath.Join(r.Path, r.config.SystemDir)
}

// Initialize performs the necessary setup for the repository.
//
// Workflow:
//  1. Ensure the vault directory exists (or create it unless MustExist).
//  2. Ensure the system directory exists.
//  3. Create an empty collection if the data file is absent.
//  4. Otherwise, verify the existing file decodes; ErrMalformedState if not.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist || r.config.ReadOnly {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("vault path does not exist: %s", r.Path)
		}
		if err != nil {
			return fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", r.Path)
		}
	} else {
		if err := os.MkdirAll(r.Path, 0755); err != nil {
			return fmt.Errorf("%w: failed to create vault directory: %w", core.ErrStorageUnavailable, err)
		}
	}

	if r.config.ReadOnly {
		_, err := r.Load(ctx)
		return err
	}

	if err := os.MkdirAll(r.SystemPath(), 0755); err != nil {
		return fmt.Errorf("%w: failed to create system directory: %w", core.ErrStorageUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.IOTimeout)
	defer cancel()

	unlock, err := r.lockWrite(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := os.Stat(r.DataPath()); os.IsNotExist(err) {
		r.config.Logger.Info("creating empty note collection", "path", r.DataPath())
		return r.write(ctx, core.Snapshot{})
	}

	_, err = r.read(ctx)
	return err
}

// Reset moves the current data file aside and writes an empty collection.
// The previous file is kept as <file>.corrupt-<timestamp> for inspection.
func (r *Repository) Reset(ctx context.Context) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := os.MkdirAll(r.SystemPath(), 0755); err != nil {
		return fmt.Errorf("%w: failed to create system directory: %w", core.ErrStorageUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.IOTimeout)
	defer cancel()

	unlock, err := r.lockWrite(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := os.Stat(r.DataPath()); err == nil {
		backup := fmt.Sprintf("%s.corrupt-%s", r.DataPath(), time.Now().UTC().Format("20060102T150405Z"))
		if err := os.Rename(r.DataPath(), backup); err != nil {
			return fmt.Errorf("%w: failed to move aside %s: %w", core.ErrStorageUnavailable, r.DataPath(), err)
		}
		r.config.Logger.Warn("moved unreadable note collection aside", "backup", backup)
	}

	return r.write(ctx, core.Snapshot{})
}

// Load reads the complete current snapshot.
func (r *Repository) Load(ctx context.Context) (core.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.IOTimeout)
	defer cancel()

	r.io.RLock()
	defer r.io.RUnlock()

	return r.read(ctx)
}

// Update runs a full read-modify-write cycle under the writer locks.
// Nothing is written if fn fails.
func (r *Repository) Update(ctx context.Context, fn func(*core.Snapshot) error) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.IOTimeout)
	defer cancel()

	unlock, err := r.lockWrite(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	snap, err := r.read(ctx)
	if err != nil {
		return err
	}

	if err := fn(&snap); err != nil {
		return err
	}

	if err := snap.Validate(); err != nil {
		return err
	}

	return r.write(ctx, snap)
}

// lockWrite takes the in-process write lock, then the cross-process lock file.
func (r *Repository) lockWrite(ctx context.Context) (func(), error) {
	r.io.Lock()

	release, err := r.lock.Acquire(ctx)
	if err != nil {
		r.io.Unlock()
		return nil, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}

	return func() {
		release()
		r.io.Unlock()
	}, nil
}

// read loads and decodes the data file. The caller holds r.io.
func (r *Repository) read(ctx context.Context) (core.Snapshot, error) {
	data, err := readFileContext(ctx, r.DataPath())
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("%w: failed to read %s: %w", core.ErrStorageUnavailable, r.DataPath(), err)
	}

	snap, err := r.serializer.Decode(data)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("%w: %s: %w", core.ErrMalformedState, r.DataPath(), err)
	}
	if err := snap.Validate(); err != nil {
		return core.Snapshot{}, fmt.Errorf("%s: %w", r.DataPath(), err)
	}
	return snap, nil
}

// write encodes and atomically replaces the data file. The caller holds the write locks.
func (r *Repository) write(ctx context.Context, snap core.Snapshot) error {
	data, err := r.serializer.Encode(snap)
	if err != nil {
		return fmt.Errorf("failed to serialize notes: %w", err)
	}

	// Last chance to abandon the write; after the rename the change is durable.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}

	if err := writeFileAtomic(r.DataPath(), data, 0644); err != nil {
		return fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}

	r.recordWrite()
	r.config.Logger.Debug("note collection written", "path", r.DataPath(), "notes", len(snap.Notes))
	return nil
}

// readFileContext reads a file but stops waiting once ctx is done, so a
// stalled medium cannot hang the caller indefinitely.
func readFileContext(ctx context.Context, path string) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}

	ch := make(chan result, 1)
	go func() {
		data, err := os.ReadFile(path)
		ch <- result{data: data, err: err}
	}()

	select {
	case res := <-ch:
		return res.data, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
