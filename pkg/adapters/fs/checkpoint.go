package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/nudge/pkg/core"
)

const checkpointFileName = "scanner.json"

// Checkpoint persists the instant of the last successful reminder scan so a
// restarted runner can resume its window instead of skipping elapsed reminders.
type Checkpoint struct {
	Path     string
	ReadOnly bool
}

type checkpointFile struct {
	LastScan time.Time `json:"lastScan"`
}

// NewCheckpoint returns the checkpoint stored in the repository's system directory.
func (r *Repository) NewCheckpoint() *Checkpoint {
	return &Checkpoint{
		Path:     filepath.Join(r.SystemPath(), checkpointFileName),
		ReadOnly: r.config.ReadOnly,
	}
}

// Load returns the stored instant. ok is false if no checkpoint exists yet.
// An unreadable checkpoint is treated as absent rather than fatal.
func (c *Checkpoint) Load() (lastScan time.Time, ok bool, err error) {
	data, err := os.ReadFile(c.Path)
	if os.IsNotExist(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var cp checkpointFile
	if err := json.Unmarshal(data, &cp); err != nil || cp.LastScan.IsZero() {
		return time.Time{}, false, nil
	}
	return cp.LastScan, true, nil
}

// Save records lastScan atomically.
func (c *Checkpoint) Save(lastScan time.Time) error {
	if c.ReadOnly {
		return core.ErrReadOnly
	}
	data, err := json.Marshal(checkpointFile{LastScan: lastScan.UTC()})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return writeFileAtomic(c.Path, data, 0644)
}
