package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/aretw0/nudge"
	"github.com/aretw0/nudge/pkg/core"
)

// resolveVault picks the vault directory: --dir, else the nearest vault above
// the working directory, else the working directory itself.
func resolveVault() (string, error) {
	if vaultDir != "" {
		return vaultDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	root, err := nudge.FindVaultRoot(cwd)
	if err != nil {
		return cwd, nil
	}
	return root, nil
}

// vaultOptions merges nudge.yaml with the global flags. Flags win.
func vaultOptions(dir string, extra ...nudge.Option) (nudge.Config, []nudge.Option, error) {
	cfg, err := nudge.LoadConfig(dir)
	if err != nil {
		return cfg, nil, err
	}

	opts := append(cfg.Options(), nudge.WithLogger(slog.Default()))
	if adapterName != "" {
		opts = append(opts, nudge.WithAdapter(adapterName))
	}
	return cfg, append(opts, extra...), nil
}

// openService opens the vault for commands that operate on existing notes.
func openService(extra ...nudge.Option) (*core.Service, nudge.Config, error) {
	dir, err := resolveVault()
	if err != nil {
		return nil, nudge.Config{}, err
	}
	cfg, opts, err := vaultOptions(dir, extra...)
	if err != nil {
		return nil, cfg, err
	}

	svc, err := nudge.New(dir, opts...)
	if errors.Is(err, core.ErrMalformedState) {
		return nil, cfg, fmt.Errorf("%w (run 'nudge init --reset' to start over)", err)
	}
	return svc, cfg, err
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid note id %q", arg)
	}
	return id, nil
}

// parseReminder accepts an RFC 3339 instant or a duration from now ("10m", "2h30m").
func parseReminder(s string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(d), nil
	}
	return time.Time{}, fmt.Errorf("invalid reminder %q: use RFC 3339 (2026-03-01T18:00:00Z) or a duration (10m)", s)
}
