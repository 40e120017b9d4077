package platform

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the optional per-vault configuration file.
const ConfigFileName = "nudge.yaml"

// Config mirrors nudge.yaml. Zero values mean "use the default".
type Config struct {
	Adapter         string        `yaml:"adapter,omitempty"`
	File            string        `yaml:"file,omitempty"`
	SystemDir       string        `yaml:"system_dir,omitempty"`
	DefaultCategory string        `yaml:"default_category,omitempty"`
	ScanInterval    time.Duration `yaml:"scan_interval,omitempty"`
	IOTimeout       time.Duration `yaml:"io_timeout,omitempty"`
	Listen          string        `yaml:"listen,omitempty"`
	ReadOnly        bool          `yaml:"read_only,omitempty"`
}

// LoadConfig reads <dir>/nudge.yaml. A missing file yields a zero Config.
func LoadConfig(dir string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(filepath.Join(dir, ConfigFileName))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read %s: %w", ConfigFileName, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("invalid %s: %w", ConfigFileName, err)
	}
	return cfg, nil
}

// WriteConfig writes cfg to <dir>/nudge.yaml, replacing any existing file.
func WriteConfig(dir string, cfg Config) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode %s: %w", ConfigFileName, err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ConfigFileName), buf.Bytes(), 0644)
}

// Options converts the file settings into functional options. Options passed
// after these (e.g. from CLI flags) take precedence.
func (c Config) Options() []Option {
	var opts []Option
	if c.Adapter != "" {
		opts = append(opts, WithAdapter(c.Adapter))
	}
	if c.File != "" {
		opts = append(opts, WithFileName(c.File))
	}
	if c.SystemDir != "" {
		opts = append(opts, WithSystemDir(c.SystemDir))
	}
	if c.DefaultCategory != "" {
		opts = append(opts, WithDefaultCategory(c.DefaultCategory))
	}
	if c.IOTimeout > 0 {
		opts = append(opts, WithIOTimeout(c.IOTimeout))
	}
	if c.ReadOnly {
		opts = append(opts, WithReadOnly(true))
	}
	return opts
}
