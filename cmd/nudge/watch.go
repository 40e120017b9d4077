package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/nudge"
	lcsource "github.com/aretw0/nudge/pkg/adapters/lifecycle"
	"github.com/aretw0/nudge/pkg/core"
	"github.com/aretw0/nudge/pkg/reminder"
	"github.com/spf13/cobra"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the reminder scanner and print notes as they become due",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, cfg, err := openService()
		if err != nil {
			return err
		}

		notifier := reminder.Multi(
			reminder.WriterNotifier(cmd.OutOrStdout()),
			reminder.LogNotifier(slog.Default()),
		)
		runner := nudge.NewRunner(svc, notifier,
			reminder.WithInterval(scanInterval(cmd, watchInterval, cfg)),
			reminder.WithLogger(slog.Default()),
		)

		logStoreChanges(ctx, svc)

		if err := runner.Start(ctx); err != nil {
			return err
		}
		<-runner.Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchInterval, "interval", reminder.DefaultInterval, "Time between reminder scans")
}

// scanInterval prefers the --interval flag, then nudge.yaml, then the flag default.
func scanInterval(cmd *cobra.Command, flag time.Duration, cfg nudge.Config) time.Duration {
	if !cmd.Flags().Changed("interval") && cfg.ScanInterval > 0 {
		return cfg.ScanInterval
	}
	return flag
}

// logStoreChanges reports writes made by other processes while running.
// Adapters without change notification are skipped.
func logStoreChanges(ctx context.Context, svc *core.Service) {
	events, err := svc.Watch(ctx)
	if err != nil {
		slog.Debug("store change notification unavailable", "error", err)
		return
	}

	src := lcsource.NewSource(events)
	if err := src.Start(ctx); err != nil {
		slog.Warn("failed to start store event source", "error", err)
		return
	}
	go func() {
		for e := range src.Events() {
			slog.Info("store changed", "event", e.String())
		}
	}()
}
