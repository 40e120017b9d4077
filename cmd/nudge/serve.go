package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/nudge"
	"github.com/aretw0/nudge/pkg/api"
	"github.com/aretw0/nudge/pkg/reminder"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var (
	serveListen   string
	serveInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run the reminder scanner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, cfg, err := openService()
		if err != nil {
			return err
		}

		listen := serveListen
		if !cmd.Flags().Changed("listen") && cfg.Listen != "" {
			listen = cfg.Listen
		}

		runner := nudge.NewRunner(svc, reminder.LogNotifier(slog.Default()),
			reminder.WithInterval(scanInterval(cmd, serveInterval, cfg)),
			reminder.WithLogger(slog.Default()),
		)
		server := api.New(svc,
			api.WithLogger(slog.Default()),
			api.WithComponents(runner),
		)

		if err := runner.Start(ctx); err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Listen(listen)
		}()

		select {
		case err = <-errCh:
			stop()
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if serr := server.Shutdown(shutdownCtx); serr != nil {
				slog.Error("http shutdown failed", "error", serr)
			}
			err = <-errCh
		}

		<-runner.Done()
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", ":3000", "HTTP listen address")
	serveCmd.Flags().DurationVar(&serveInterval, "interval", reminder.DefaultInterval, "Time between reminder scans")
}
