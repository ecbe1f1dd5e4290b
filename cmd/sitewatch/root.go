package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/sitewatch/internal/config"
	"github.com/amishk599/sitewatch/internal/filter"
	"github.com/amishk599/sitewatch/internal/model"
	"github.com/amishk599/sitewatch/internal/pipeline"
	"github.com/amishk599/sitewatch/internal/ratelimit"
	"github.com/amishk599/sitewatch/internal/retry"
	"github.com/amishk599/sitewatch/internal/runner"
	"github.com/amishk599/sitewatch/internal/sink"
	"github.com/amishk599/sitewatch/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "sitewatch",
	Short: "Job board change alerts",
	Long:  "SiteWatch compares job board snapshots, scores what changed and alerts subscribers.",
	// Default to `start` so that `sitewatch` with no args runs the daemon.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: SITEWATCH_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > SITEWATCH_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("SITEWATCH_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// mustSetup loads config and opens the store, exiting on failure.
func mustSetup(logger *slog.Logger) (*config.Config, *store.SQLiteStore) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	st, err := store.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		logger.Error("failed to open store", "path", cfg.Storage.DBPath, "error", err)
		os.Exit(1)
	}
	return cfg, st
}

// setupDelivery builds the configured sinks. Remote sinks are paced per
// recipient domain and retried on transient failures. Email is personal to
// the subscriber, so its failure fails the run. In dry-run mode email is
// logged instead of sent and Slack is skipped.
func setupDelivery(cfg *config.Config, dryRun bool, logger *slog.Logger) *sink.Delivery {
	var sinks []model.AlertSink
	if cfg.Sinks.Console {
		sinks = append(sinks, sink.NewConsoleSink(os.Stdout))
	}
	if cfg.Sinks.Log {
		sinks = append(sinks, sink.NewLogSink(logger))
	}

	limiter := ratelimit.NewKeyedLimiter(cfg.Delivery.MinDelay)
	remote := func(s model.AlertSink) model.AlertSink {
		s = ratelimit.NewRateLimitedSink(s, limiter, ratelimit.ByEmailDomain)
		return retry.NewRetrySink(s, cfg.Delivery.MaxRetries, cfg.Delivery.RetryDelay, logger)
	}

	if url := cfg.Sinks.Slack.WebhookURL; url != "" {
		if dryRun {
			logger.Info("dry-run: slack sink disabled")
		} else {
			httpClient := &http.Client{Timeout: 30 * time.Second}
			sinks = append(sinks, remote(sink.NewSlackSink(url, httpClient, logger)))
			logger.Info("using slack sink")
		}
	}

	if e := cfg.Sinks.Email; e.Enabled() {
		emailCfg := sink.EmailConfig{
			Host:     e.Host,
			Port:     e.Port,
			Username: e.Username,
			Password: e.Password,
			From:     e.From,
			DryRun:   e.DryRun || dryRun,
		}
		logger.Info("using email sink", "host", e.Host, "dry_run", emailCfg.DryRun)
		return sink.NewDelivery(logger, sinks...).WithPersonal(remote(sink.NewEmailSink(emailCfg, logger)))
	}
	return sink.NewDelivery(logger, sinks...)
}

func setupPipeline(cfg *config.Config) *pipeline.Pipeline {
	return pipeline.New(pipeline.WithCategory(cfg.Runner.Category))
}

func setupRunner(cfg *config.Config, st *store.SQLiteStore, runs model.RunLog, p *pipeline.Pipeline, s model.AlertSink, logger *slog.Logger) *runner.Runner {
	opts := []runner.Option{
		runner.WithHistoryDays(cfg.Runner.HistoryDays),
		runner.WithConcurrency(cfg.Runner.Concurrency),
		runner.WithLocation(cfg.Schedule.Location),
	}
	if cfg.Enrichment.ICTKeywords {
		opts = append(opts, runner.WithEnrichment(filter.NewICTKeywordFilter(cfg.Enrichment.Keywords)))
	}
	return runner.New(st, st, runs, p, s, logger, opts...)
}
