package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aretw0/nudge"
	"github.com/aretw0/nudge/pkg/core"
	"github.com/spf13/cobra"
)

var initReset bool

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a nudge vault",
	Long: `Initialize a vault in the current directory (or --dir): create the empty note
collection and a nudge.yaml. With --reset, an unreadable collection is moved aside
and replaced by an empty one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := vaultDir
		if dir == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			dir = cwd
		}

		cfg, opts, err := vaultOptions(dir, nudge.WithAutoInit(true))
		if err != nil {
			return err
		}

		if initReset {
			repo, err := nudge.Open(dir, opts...)
			if err != nil {
				return err
			}
			err = core.NewService(repo).Reset(context.Background())
			if c, ok := repo.(io.Closer); ok {
				_ = c.Close()
			}
			if err != nil {
				return fmt.Errorf("failed to reset vault: %w", err)
			}
		} else if _, err := nudge.Init(dir, opts...); err != nil {
			return fmt.Errorf("failed to initialize vault: %w", err)
		}

		if _, err := os.Stat(filepath.Join(dir, "nudge.yaml")); os.IsNotExist(err) {
			if adapterName != "" {
				cfg.Adapter = adapterName
			}
			if err := nudge.WriteConfig(dir, cfg); err != nil {
				return err
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Initialized nudge vault in", dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initReset, "reset", false, "Discard an unreadable collection and start empty")
}
