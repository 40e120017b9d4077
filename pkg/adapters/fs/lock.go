package fs

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// fileLock is a cross-process mutex on the vault's lock file.
// It complements the in-process RWMutex so two nudge processes sharing a
// vault cannot interleave their read-modify-write cycles. The OS drops the
// lock if the holder dies, so a leftover file never blocks anyone.
type fileLock struct {
	path  string
	retry time.Duration
}

func newFileLock(path string) *fileLock {
	return &fileLock{
		path:  path,
		retry: 10 * time.Millisecond,
	}
}

// Acquire blocks until the lock is held or ctx is done.
func (l *fileLock) Acquire(ctx context.Context) (func(), error) {
	fl := flock.New(l.path)
	locked, err := fl.TryLockContext(ctx, l.retry)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", l.path, err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to acquire lock %s", l.path)
	}
	return func() {
		_ = fl.Unlock()
	}, nil
}
