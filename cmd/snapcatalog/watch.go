package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	snapcatalog "github.com/anatolykoptev/go-snapcatalog"
)

var watchQuiet time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch an inbox directory and process new screenshots as they arrive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := loadRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()
		cfg := rt.Config

		return cfg.WatchInbox(ctx, args[0], watchQuiet, func(ctx context.Context, paths []string) error {
			images, err := cfg.LoadFiles(paths)
			if err != nil {
				return err
			}
			report, err := cfg.Run(ctx, images)
			if errors.Is(err, snapcatalog.ErrNoImages) {
				slog.Info("snapcatalog: no usable screenshots in batch", "files", len(paths))
				return nil
			}
			if report != nil {
				renderReport(cmd.OutOrStdout(), report)
			}
			if err == nil {
				slog.Info("snapcatalog: inbox batch complete", "batch", report.BatchID)
			}
			return err
		})
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchQuiet, "quiet", snapcatalog.DefaultQuietPeriod, "How long the inbox must stay quiet before a batch runs")
}
