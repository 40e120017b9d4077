package reminder_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nudge/pkg/core"
	"github.com/aretw0/nudge/pkg/reminder"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type memCheckpoint struct {
	mu    sync.Mutex
	at    time.Time
	saves int
	err   error
}

func (m *memCheckpoint) Load() (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return time.Time{}, false, m.err
	}
	return m.at, !m.at.IsZero(), nil
}

func (m *memCheckpoint) Save(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.at = t
	m.saves++
	return nil
}

func TestRunner_TickDispatches(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{now: t0.Add(-10 * time.Second)}
	src := &staticSource{notes: []core.Note{noteAt(1, t0)}}
	var buf bytes.Buffer

	r := reminder.NewRunner(src, reminder.WriterNotifier(&buf), reminder.WithClock(clock.Now))

	n, err := r.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	clock.Set(t0.Add(5 * time.Second))
	n, err = r.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, buf.String(), "Reminder: note")

	clock.Set(t0.Add(70 * time.Second))
	n, err = r.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	state := r.State().(reminder.RunnerState)
	assert.Equal(t, 3, state.Scans)
	assert.Equal(t, 1, state.Fired)
	assert.Equal(t, "reminder-runner", r.ComponentType())
}

func TestRunner_NotifierErrorDoesNotRetry(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{now: t0.Add(-time.Second)}
	src := &staticSource{notes: []core.Note{noteAt(1, t0)}}
	var attempts int
	failing := reminder.NotifierFunc(func(context.Context, reminder.DueEvent) error {
		attempts++
		return errors.New("display unavailable")
	})

	r := reminder.NewRunner(src, failing, reminder.WithClock(clock.Now))
	_, err := r.Tick(ctx)
	require.NoError(t, err)

	clock.Set(t0.Add(time.Second))
	_, err = r.Tick(ctx)
	require.NoError(t, err)

	clock.Set(t0.Add(time.Minute))
	_, err = r.Tick(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, attempts)
}

func TestRunner_CheckpointCatchUp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The previous run stopped ten minutes before the reminder; now it is
	// ten minutes after it.
	cp := &memCheckpoint{at: t0.Add(-10 * time.Minute)}
	clock := &manualClock{now: t0.Add(10 * time.Minute)}
	src := &staticSource{notes: []core.Note{noteAt(1, t0)}}
	notifier := reminder.NewChannelNotifier(4)

	r := reminder.NewRunner(src, notifier,
		reminder.WithClock(clock.Now),
		reminder.WithCheckpoint(cp),
		reminder.WithInterval(time.Hour),
	)
	require.NoError(t, r.Start(ctx))
	assert.ErrorIs(t, r.Start(ctx), reminder.ErrRunnerStarted)

	select {
	case e := <-notifier.Events():
		assert.Equal(t, 1, e.NoteID)
	case <-time.After(3 * time.Second):
		t.Fatal("missed reminder was not caught up")
	}

	cancel()
	select {
	case <-r.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("runner did not stop")
	}

	at, ok, err := cp.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, at.Equal(t0.Add(10*time.Minute)))
}

func TestRunner_MaxCatchUp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cp := &memCheckpoint{at: t0.Add(-48 * time.Hour)}
	clock := &manualClock{now: t0}
	src := &staticSource{notes: []core.Note{noteAt(1, t0.Add(-24*time.Hour))}}
	var fired int
	var mu sync.Mutex
	notifier := reminder.NotifierFunc(func(context.Context, reminder.DueEvent) error {
		mu.Lock()
		fired++
		mu.Unlock()
		return nil
	})

	r := reminder.NewRunner(src, notifier,
		reminder.WithClock(clock.Now),
		reminder.WithCheckpoint(cp),
		reminder.WithMaxCatchUp(time.Hour),
		reminder.WithInterval(time.Hour),
	)
	require.NoError(t, r.Start(ctx))

	assert.Eventually(t, func() bool {
		return r.State().(reminder.RunnerState).Scans == 1
	}, 3*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, fired)
}

func TestRunner_FailedScanIsCounted(t *testing.T) {
	clock := &manualClock{now: t0}
	src := &staticSource{err: core.ErrStorageUnavailable}
	r := reminder.NewRunner(src, nil, reminder.WithClock(clock.Now))

	_, err := r.Tick(context.Background())
	require.ErrorIs(t, err, core.ErrStorageUnavailable)

	state := r.State().(reminder.RunnerState)
	assert.Equal(t, 1, state.Failures)
	assert.Nil(t, state.LastScan)
	assert.NotEmpty(t, state.LastError)
}

func TestRunner_RunOnlyOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clock := &manualClock{now: t0}
	r := reminder.NewRunner(&staticSource{}, nil, reminder.WithClock(clock.Now), reminder.WithInterval(time.Hour))

	cancel()
	require.NoError(t, r.Run(ctx))
	<-r.Done()

	// A finished runner cannot be reused, whichever entry point is called.
	assert.ErrorIs(t, r.Run(ctx), reminder.ErrRunnerStarted)
	assert.ErrorIs(t, r.Start(ctx), reminder.ErrRunnerStarted)
}
