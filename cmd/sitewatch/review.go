package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/amishk599/sitewatch/internal/review"
	"github.com/amishk599/sitewatch/internal/sink"
	"github.com/amishk599/sitewatch/internal/store"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Browse scored changes per subscription (TUI)",
	Long:  "Shows the subscription picker, then a split-pane view of every scored change next to what that subscriber would receive.",
	RunE:  runReviewCmd,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReviewCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg, st := mustSetup(logger)
	defer st.Close()

	// Any log output while the alt-screen is active corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := setupPipeline(cfg)
	r := setupRunner(cfg, st, store.NewNopRunLog(), p, sink.NewDelivery(silentLogger), silentLogger)

	subs, err := r.Subscriptions(context.Background())
	if err != nil {
		logger.Error("failed to list subscriptions", "error", err)
		return nil
	}
	if len(subs) == 0 {
		fmt.Println("No subscriptions. Add one with `sitewatch alerts add <email>`.")
		return nil
	}

	for {
		choice, err := review.RunSubscriptionPicker(subs)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return nil
		}
		if choice < 0 {
			return nil
		}
		sub := subs[choice]

		rv, err := review.RunLoader(sub.Email, func(ctx context.Context) (*review.Review, error) {
			eval, err := r.Evaluate(ctx)
			if err != nil {
				return nil, err
			}
			if !eval.Ready {
				return nil, fmt.Errorf("need at least two snapshots to compare, have %d", eval.Snapshots)
			}
			all, err := p.Score(eval.Diff, eval.Trends)
			if err != nil {
				return nil, err
			}
			return &review.Review{Subscription: sub, All: all, Delivered: p.Filter(all, sub)}, nil
		})
		if err != nil {
			fmt.Printf("Error evaluating changes: %v\n", err)
			continue
		}

		wantQuit, err := review.RunReviewTUI(rv)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
		// else: loop → back to picker
	}
}
