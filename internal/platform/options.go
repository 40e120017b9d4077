package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/nudge/pkg/core"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterFS     = "fs"
	AdapterSQLite = "sqlite"
)

// options holds the internal configuration for the nudge service.
type options struct {
	repository      core.Repository
	logger          *slog.Logger
	adapter         string
	clock           func() time.Time
	defaultCategory string
	fileName        string
	systemDir       string
	ioTimeout       time.Duration
	autoInit        bool
	mustExist       bool
	readOnly        bool
	forceTemp       bool
	devSafety       bool
	errorHandler    func(error)
}

// Option defines a functional option for configuring nudge.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter:         AdapterFS,
		defaultCategory: core.DefaultCategory,
		autoInit:        true,
		devSafety:       true,
	}
}

func buildOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithAutoInit creates the vault directory and an empty collection when missing.
// Enabled by default.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.autoInit = auto
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithMustExist ensures the vault directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithLogger sets the logger for the service and the adapters.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRepository injects a custom storage adapter (e.g. a mock).
// If provided, the named adapter is skipped.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithAdapter selects the storage adapter by name ("fs" or "sqlite").
func WithAdapter(name string) Option {
	return func(o *options) {
		if name != "" {
			o.adapter = name
		}
	}
}

// WithFileName sets the data file inside the vault. For the fs adapter the
// extension selects the format (.json, .yaml, .csv).
func WithFileName(name string) Option {
	return func(o *options) {
		o.fileName = name
	}
}

// WithSystemDir sets the hidden directory name (default ".nudge").
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.systemDir = name
	}
}

// WithClock overrides the service clock.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithDefaultCategory sets the category given to notes created without one.
func WithDefaultCategory(category string) Option {
	return func(o *options) {
		if category != "" {
			o.defaultCategory = category
		}
	}
}

// WithIOTimeout bounds lock acquisition and reads of the backing medium.
func WithIOTimeout(d time.Duration) Option {
	return func(o *options) {
		o.ioTimeout = d
	}
}

// WithWatcherErrorHandler registers a callback for failures of the Watch loop.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithReadOnly enables read-only mode.
// In this mode:
// 1. Mutations return ErrReadOnly.
// 2. Initialization creates nothing.
// 3. The dev sandbox is bypassed (the real path is used).
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithDevSafety controls the sandbox used when running via `go run`.
// By default (true), a temporary directory is used to prevent accidental data loss.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}
