package platform

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/aretw0/nudge/pkg/adapters/fs"
)

// ErrRootNotFound is returned by FindRoot when no vault marker exists above the start directory.
var ErrRootNotFound = errors.New("vault root not found")

// FindRoot looks upwards from startDir for a vault root indicator:
// a .nudge directory or a nudge.yaml file.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, fs.DefaultSystemDir) || hasFile(dir, ConfigFileName) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", ErrRootNotFound
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
