package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/sitewatch/internal/sink"
)

var notifyEmail string

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	Long:  "Sends a sample HIGH alert through every configured sink.",
	RunE:  runNotifyTest,
}

func init() {
	notifyTestCmd.Flags().StringVar(&notifyEmail, "email", "", "recipient for the email sink (default: sinks.email.from)")
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	email := notifyEmail
	if email == "" {
		email = cfg.Sinks.Email.From
	}
	if email == "" {
		email = "sitewatch@localhost"
	}

	if err := sink.SendTestMessage(context.Background(), setupDelivery(cfg, false, logger), email); err != nil {
		logger.Error("test notification failed", "error", err)
		os.Exit(1)
	}
	logger.Info("test notification sent successfully", "email", email)
	return nil
}
