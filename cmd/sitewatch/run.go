package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/sitewatch/internal/model"
	"github.com/amishk599/sitewatch/internal/report"
	"github.com/amishk599/sitewatch/internal/runner"
	"github.com/amishk599/sitewatch/internal/sink"
	"github.com/amishk599/sitewatch/internal/store"
)

var (
	runAllFlag   bool
	runDryRun    bool
	runEmailFlag string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate subscriptions once and exit",
	Long: "One-shot pass: diffs the two latest snapshots and alerts every due subscription. " +
		"--all ignores schedules; --dry-run records nothing and sends no external messages.",
	RunE: runOnce,
}

func init() {
	runCmd.Flags().BoolVar(&runAllFlag, "all", false, "run every subscription regardless of schedule")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "do not record runs or send slack/email")
	runCmd.Flags().StringVar(&runEmailFlag, "email", "", "only run the subscription for this email")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg, st := mustSetup(logger)
	defer st.Close()

	var runs model.RunLog = st
	if runDryRun {
		logger.Info("dry-run mode enabled, runs will not be recorded")
		runs = store.NewNopRunLog()
	}
	r := setupRunner(cfg, st, runs, setupPipeline(cfg), setupDelivery(cfg, runDryRun, logger), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	subs, err := r.Subscriptions(ctx)
	if err != nil {
		logger.Error("failed to list subscriptions", "error", err)
		os.Exit(1)
	}
	if runEmailFlag != "" {
		subs = selectEmail(subs, runEmailFlag)
		if len(subs) == 0 {
			fmt.Printf("No subscription for %s.\n", runEmailFlag)
			return nil
		}
	}
	if !runAllFlag {
		if subs, err = r.Due(ctx, subs, time.Now()); err != nil {
			logger.Error("failed to check schedules", "error", err)
			os.Exit(1)
		}
	}
	if len(subs) == 0 {
		fmt.Println("No subscriptions due.")
		return nil
	}

	eval, results, err := r.RunAll(ctx, subs)
	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
	if !eval.Ready {
		fmt.Printf("Need at least two snapshots to compare, have %d.\n", eval.Snapshots)
		return nil
	}

	if cfg.Sinks.Console && allEmpty(results) {
		sink.NewConsoleSink(os.Stdout).Send(ctx, nil, subs[0])
	}
	report.WriteResults(os.Stdout, results)
	return nil
}

func selectEmail(subs []model.AlertSubscription, email string) []model.AlertSubscription {
	for _, s := range subs {
		if s.Email == email {
			return []model.AlertSubscription{s}
		}
	}
	return nil
}

func allEmpty(results []runner.Result) bool {
	for _, r := range results {
		if r.Status != runner.StatusEmpty {
			return false
		}
	}
	return true
}
