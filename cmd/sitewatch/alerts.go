package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/sitewatch/internal/model"
	"github.com/amishk599/sitewatch/internal/report"
)

var (
	alertRegion        string
	alertAllCategories bool
	alertMinSeverity   string
	alertFrequency     string
	alertHour          int
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Manage alert subscriptions",
}

var alertsAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Subscribe an email address",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlertsAdd,
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subscriptions",
	RunE:  runAlertsList,
}

var alertsEditCmd = &cobra.Command{
	Use:   "edit <email>",
	Short: "Change an existing subscription",
	Long:  "Only the flags given are changed; everything else keeps its stored value.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlertsEdit,
}

var alertsRemoveCmd = &cobra.Command{
	Use:   "remove <email>",
	Short: "Unsubscribe an email address",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlertsRemove,
}

func init() {
	def := model.DefaultSubscription("")
	for _, c := range []*cobra.Command{alertsAddCmd, alertsEditCmd} {
		c.Flags().StringVar(&alertRegion, "region", "", "only alert on jobs in this region (empty for any)")
		c.Flags().BoolVar(&alertAllCategories, "all-categories", false, "alert on every category, not just "+model.ICTCategory)
		c.Flags().StringVar(&alertMinSeverity, "min-severity", def.MinSeverity.String(), "lowest severity to deliver: LOW, MEDIUM or HIGH")
		c.Flags().StringVar(&alertFrequency, "frequency", string(def.Frequency), "daily or weekly")
		c.Flags().IntVar(&alertHour, "hour", def.Hour, "hour of day (0-23) to send alerts")
	}

	alertsCmd.AddCommand(alertsAddCmd, alertsListCmd, alertsEditCmd, alertsRemoveCmd)
	rootCmd.AddCommand(alertsCmd)
}

// applyAlertFlags copies the flags set on cmd into sub. With onlyChanged,
// flags left at their defaults are ignored.
func applyAlertFlags(cmd *cobra.Command, sub *model.AlertSubscription, onlyChanged bool) error {
	set := func(name string) bool { return !onlyChanged || cmd.Flags().Changed(name) }

	if set("region") {
		sub.Region = alertRegion
	}
	if set("all-categories") {
		sub.CategoryOnly = !alertAllCategories
	}
	if set("min-severity") {
		sev, err := model.ParseSeverity(alertMinSeverity)
		if err != nil {
			return err
		}
		sub.MinSeverity = sev
	}
	if set("frequency") {
		sub.Frequency = model.Frequency(alertFrequency)
	}
	if set("hour") {
		sub.Hour = alertHour
	}
	return sub.Validate()
}

func runAlertsAdd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	_, st := mustSetup(logger)
	defer st.Close()

	sub := model.DefaultSubscription(args[0])
	if err := applyAlertFlags(cmd, &sub, false); err != nil {
		logger.Error("invalid subscription", "error", err)
		os.Exit(1)
	}
	if err := st.AddSubscription(context.Background(), sub); err != nil {
		logger.Error("failed to add subscription", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Subscribed %s.\n", sub.Email)
	return nil
}

func runAlertsList(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	_, st := mustSetup(logger)
	defer st.Close()

	subs, err := st.ListSubscriptions(context.Background())
	if err != nil {
		logger.Error("failed to list subscriptions", "error", err)
		os.Exit(1)
	}
	if len(subs) == 0 {
		fmt.Println("No subscriptions.")
		return nil
	}
	report.WriteSubscriptions(os.Stdout, subs)
	return nil
}

func runAlertsEdit(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	_, st := mustSetup(logger)
	defer st.Close()

	ctx := context.Background()
	sub, err := st.GetSubscription(ctx, args[0])
	if err != nil {
		logger.Error("failed to load subscription", "error", err)
		os.Exit(1)
	}
	if err := applyAlertFlags(cmd, &sub, true); err != nil {
		logger.Error("invalid subscription", "error", err)
		os.Exit(1)
	}
	if err := st.UpdateSubscription(ctx, sub); err != nil {
		logger.Error("failed to update subscription", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Updated %s.\n", sub.Email)
	return nil
}

func runAlertsRemove(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	_, st := mustSetup(logger)
	defer st.Close()

	if err := st.RemoveSubscription(context.Background(), args[0]); err != nil {
		logger.Error("failed to remove subscription", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Unsubscribed %s.\n", args[0])
	return nil
}
