package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/sitewatch/internal/report"
	"github.com/amishk599/sitewatch/internal/sink"
	"github.com/amishk599/sitewatch/internal/store"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print trends and the latest scored changes",
	Long:  "Analyzes the stored snapshots and prints trend tables plus every scored change between the two latest snapshots, unfiltered.",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg, st := mustSetup(logger)
	defer st.Close()

	p := setupPipeline(cfg)
	r := setupRunner(cfg, st, store.NewNopRunLog(), p, sink.NewDelivery(logger), logger)

	ctx := context.Background()
	eval, err := r.Evaluate(ctx)
	if err != nil {
		logger.Error("evaluation failed", "error", err)
		os.Exit(1)
	}
	if !eval.Ready {
		fmt.Printf("Need at least two snapshots to compare, have %d.\n", eval.Snapshots)
		return nil
	}

	report.WriteTrendSummary(os.Stdout, eval.Trends)

	snaps, err := st.LoadSnapshots(ctx)
	if err != nil {
		logger.Error("failed to load snapshots", "error", err)
		os.Exit(1)
	}
	report.WriteGrowth(os.Stdout, snaps)

	scored, err := p.Score(eval.Diff, eval.Trends)
	if err != nil {
		logger.Error("scoring failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("\nChanges %s → %s\n",
		eval.Previous.CapturedAt().Format("2006-01-02 15:04"),
		eval.Current.CapturedAt().Format("2006-01-02 15:04"))
	if len(scored) > 0 {
		report.WriteChanges(os.Stdout, scored)
	}
	report.WriteSeveritySummary(os.Stdout, scored)
	return nil
}
