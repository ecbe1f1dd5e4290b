package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/sitewatch/internal/model"
	"github.com/amishk599/sitewatch/internal/scheduler"
)

// Run records older than this are removed after each pass.
const runRetention = 90 * 24 * time.Hour

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the alert daemon",
	Long:  "Start the scheduler daemon; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg, st := mustSetup(logger)
	defer st.Close()

	logger.Info("config loaded",
		"db_path", cfg.Storage.DBPath,
		"timezone", cfg.Schedule.Location.String(),
		"check_interval", cfg.Schedule.CheckInterval.String(),
		"concurrency", cfg.Runner.Concurrency,
		"category", cfg.Runner.Category,
	)

	delivery := setupDelivery(cfg, false, logger)
	if delivery.Len() == 0 {
		logger.Error("no sinks configured")
		os.Exit(1)
	}
	r := setupRunner(cfg, st, st, setupPipeline(cfg), delivery, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run := func(ctx context.Context, subs []model.AlertSubscription) {
		due, err := r.Due(ctx, subs, time.Now())
		if err != nil {
			logger.Error("checking due subscriptions failed", "error", err)
			return
		}
		if len(due) == 0 {
			return
		}
		_, results, err := r.RunAll(ctx, due)
		if err != nil {
			logger.Error("run failed", "error", err)
		}
		for _, res := range results {
			if res.Err != nil {
				logger.Error("subscription failed", "email", res.Email, "error", res.Err)
			}
		}
		if err := st.CleanupRuns(ctx, runRetention); err != nil {
			logger.Warn("cleaning up run history failed", "error", err)
		}
	}

	sched := scheduler.NewScheduler(st, run, cfg.Schedule.Location, cfg.Schedule.CheckInterval, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
