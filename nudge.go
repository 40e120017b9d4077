package nudge

import (
	"log/slog"
	"time"

	"github.com/aretw0/nudge/internal/platform"
	"github.com/aretw0/nudge/pkg/core"
	"github.com/aretw0/nudge/pkg/reminder"
)

// Version is the release version, set at build time with
// -ldflags "-X github.com/aretw0/nudge.Version=v1.2.3".
var Version = "dev"

// --- Types ---

// Note is a public alias for the core note entity.
type Note = core.Note

// Service is a public alias for the note service.
type Service = core.Service

// --- Configuration ---

// Option defines a functional option for configuring nudge.
type Option = platform.Option

// Config mirrors the optional nudge.yaml file in a vault.
type Config = platform.Config

// WithAutoInit creates the vault and an empty collection when missing (default true).
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist ensures the vault directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRepository allows injecting a custom storage adapter.
func WithRepository(repo core.Repository) Option {
	return platform.WithRepository(repo)
}

// WithAdapter selects the storage adapter by name ("fs" or "sqlite").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithFileName sets the data file inside the vault.
func WithFileName(name string) Option {
	return platform.WithFileName(name)
}

// WithSystemDir allows specifying the hidden directory name (e.g. ".nudge").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithClock overrides the service clock.
func WithClock(clock func() time.Time) Option {
	return platform.WithClock(clock)
}

// WithDefaultCategory sets the category of notes created without one.
func WithDefaultCategory(category string) Option {
	return platform.WithDefaultCategory(category)
}

// WithIOTimeout bounds lock acquisition and reads of the backing medium.
func WithIOTimeout(d time.Duration) Option {
	return platform.WithIOTimeout(d)
}

// WithReadOnly enables read-only mode.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithDevSafety controls the `go run` sandbox.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithWatcherErrorHandler registers a callback for Watch loop failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New creates a new note service.
func New(path string, opts ...Option) (*core.Service, error) {
	return platform.New(path, opts...)
}

// Init initializes a repository explicitly.
func Init(path string, opts ...Option) (core.Repository, error) {
	return platform.Init(path, opts...)
}

// Open builds the configured repository without initializing it, so that a
// store failing with core.ErrMalformedState can still be Reset.
func Open(path string, opts ...Option) (core.Repository, error) {
	return platform.Open(path, opts...)
}

// NewRunner creates a reminder runner over svc. If the repository can keep a
// scanner checkpoint, the runner resumes from it after a restart.
func NewRunner(svc *core.Service, notifier reminder.Notifier, opts ...reminder.RunnerOption) *reminder.Runner {
	all := []reminder.RunnerOption{reminder.WithClock(svc.Now)}
	if cp := platform.CheckpointFor(svc.Repository()); cp != nil {
		all = append(all, reminder.WithCheckpoint(cp))
	}
	return reminder.NewRunner(svc, notifier, append(all, opts...)...)
}

// --- Utils ---

// LoadConfig reads <dir>/nudge.yaml; a missing file yields a zero Config.
func LoadConfig(dir string) (Config, error) {
	return platform.LoadConfig(dir)
}

// WriteConfig writes cfg to <dir>/nudge.yaml.
func WriteConfig(dir string, cfg Config) error {
	return platform.WriteConfig(dir, cfg)
}

// FindVaultRoot looks upwards for a .nudge directory or nudge.yaml file.
func FindVaultRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

// ResolveVaultPath determines the actual path for the vault based on safety rules.
func ResolveVaultPath(userPath string, forceTemp bool) string {
	return platform.ResolveVaultPath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}
