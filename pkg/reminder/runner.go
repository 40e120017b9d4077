package reminder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"

	"github.com/aretw0/nudge/pkg/core"
)

// Checkpoint persists the end of the last successful scan window so a
// restarted runner can catch up on reminders that fell due while it was down.
type Checkpoint interface {
	Load() (time.Time, bool, error)
	Save(t time.Time) error
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithInterval sets the period between scans.
func WithInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithCheckpoint enables catch-up across restarts.
func WithCheckpoint(cp Checkpoint) RunnerOption {
	return func(r *Runner) {
		r.checkpoint = cp
	}
}

// WithMaxCatchUp bounds how far back a resumed checkpoint may reach.
// Zero means unbounded.
func WithMaxCatchUp(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.maxCatchUp = d
	}
}

// Runner scans on a fixed period and dispatches due events to a Notifier.
type Runner struct {
	scanner    *Scanner
	notifier   Notifier
	interval   time.Duration
	clock      func() time.Time
	logger     *slog.Logger
	checkpoint Checkpoint
	maxCatchUp time.Duration

	mu        sync.Mutex
	started   bool
	running   bool
	scans     int
	failures  int
	fired     int
	lastError string
	done      chan struct{}
}

// NewRunner creates a runner reading from source.
func NewRunner(source Source, notifier Notifier, opts ...RunnerOption) *Runner {
	r := &Runner{
		notifier: notifier,
		interval: DefaultInterval,
		clock:    time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.notifier == nil {
		r.notifier = LogNotifier(r.logger)
	}
	r.scanner = NewScanner(source, r.interval)
	return r
}

// Scanner exposes the underlying scanner.
func (r *Runner) Scanner() *Scanner {
	return r.scanner
}

// ErrRunnerStarted is returned when a Runner is started a second time.
var ErrRunnerStarted = errors.New("reminder runner already started")

// Start runs the scan loop in the background until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	if err := r.claim(); err != nil {
		return err
	}
	lifecycle.Go(ctx, r.run, lifecycle.WithErrorHandler(func(err error) {
		r.logger.Error("reminder runner stopped", "error", err)
	}))
	return nil
}

// Done is closed when the scan loop returns.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Run blocks, scanning once immediately and then every interval.
// A Runner runs at most once; later calls to Run or Start return ErrRunnerStarted.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.claim(); err != nil {
		return err
	}
	return r.run(ctx)
}

func (r *Runner) claim() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return ErrRunnerStarted
	}
	r.started = true
	return nil
}

func (r *Runner) run(ctx context.Context) error {
	defer close(r.done)

	r.mu.Lock()
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	r.resume()
	r.logger.Info("reminder runner started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.Tick(ctx); err != nil && ctx.Err() == nil {
			r.logger.Warn("reminder scan failed, window kept for next tick", "error", err)
		}

		select {
		case <-ctx.Done():
			r.logger.Info("reminder runner stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick performs one scan ending at the current clock reading and dispatches
// the due events. It returns how many events were dispatched.
func (r *Runner) Tick(ctx context.Context) (int, error) {
	now := r.clock()
	due, w, err := r.scanner.Scan(ctx, now)

	r.mu.Lock()
	r.scans++
	if err != nil {
		r.failures++
		r.lastError = err.Error()
	}
	r.mu.Unlock()

	if err != nil {
		return 0, err
	}

	r.logger.Debug("reminder scan", "from", w.From, "to", w.To, "due", len(due))

	for _, e := range due {
		if err := r.notifier.Notify(ctx, e); err != nil {
			r.logger.Error("reminder notification failed", "id", e.NoteID, "error", err)
		}
	}

	r.mu.Lock()
	r.fired += len(due)
	r.mu.Unlock()

	if r.checkpoint != nil {
		if last, ok := r.scanner.LastScan(); ok {
			switch err := r.checkpoint.Save(last); {
			case errors.Is(err, core.ErrReadOnly):
				r.logger.Debug("scanner checkpoint not saved in read-only mode")
			case err != nil:
				r.logger.Warn("failed to save scanner checkpoint", "error", err)
			}
		}
	}
	return len(due), nil
}

func (r *Runner) resume() {
	if r.checkpoint == nil {
		return
	}
	last, ok, err := r.checkpoint.Load()
	if err != nil {
		r.logger.Warn("failed to load scanner checkpoint", "error", err)
		return
	}
	if !ok {
		return
	}

	now := r.clock()
	if r.maxCatchUp > 0 && now.Sub(last) > r.maxCatchUp {
		last = now.Add(-r.maxCatchUp)
	}
	if last.After(now) {
		last = now
	}
	r.scanner.Resume(last)
	r.logger.Debug("resumed scanner", "lastScan", last)
}

// RunnerState is the introspection snapshot of a Runner.
type RunnerState struct {
	Interval  string     `json:"interval"`
	Running   bool       `json:"running"`
	Scans     int        `json:"scans"`
	Failures  int        `json:"failures"`
	Fired     int        `json:"fired"`
	LastScan  *time.Time `json:"last_scan,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Runner) State() any {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := RunnerState{
		Interval:  r.interval.String(),
		Running:   r.running,
		Scans:     r.scans,
		Failures:  r.failures,
		Fired:     r.fired,
		LastError: r.lastError,
	}
	if last, ok := r.scanner.LastScan(); ok {
		s.LastScan = &last
	}
	return s
}

// ComponentType implements introspection.Component.
func (r *Runner) ComponentType() string {
	return "reminder-runner"
}

var _ introspection.Introspectable = (*Runner)(nil)
var _ introspection.Component = (*Runner)(nil)
