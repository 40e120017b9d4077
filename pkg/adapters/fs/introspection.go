package fs

import (
	"path/filepath"
	"time"

	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path          string     `json:"path"`
	DataFile      string     `json:"data_file"`
	SystemDir     string     `json:"system_dir"`
	Format        string     `json:"format"`
	ReadOnly      bool       `json:"read_only"`
	IOTimeout     string     `json:"io_timeout"`
	WatcherActive bool       `json:"watcher_active"`
	Writes        int        `json:"writes"`
	LastWrite     *time.Time `json:"last_write,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return RepositoryState{
		Path:          r.Path,
		DataFile:      r.config.FileName,
		SystemDir:     r.config.SystemDir,
		Format:        filepath.Ext(r.config.FileName),
		ReadOnly:      r.config.ReadOnly,
		IOTimeout:     r.config.IOTimeout.String(),
		WatcherActive: r.watcherActive,
		Writes:        r.writes,
		LastWrite:     r.lastWrite,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "fs-repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)

func (r *Repository) setWatcherActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watcherActive = active
}

func (r *Repository) recordWrite() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.lastWrite = &now
	r.writes++
}
