package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/amishk599/sitewatch/internal/model"
)

// Config is the root configuration for SiteWatch.
type Config struct {
	Storage    StorageConfig
	Schedule   ScheduleConfig
	Runner     RunnerConfig
	Enrichment EnrichmentConfig
	Sinks      SinksConfig
	Delivery   DeliveryConfig
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	DBPath        string
	KeepSnapshots int // 0 keeps everything
}

// ScheduleConfig controls the daemon.
type ScheduleConfig struct {
	Location      *time.Location // subscription hours are interpreted here
	CheckInterval time.Duration  // how often `start` reloads subscriptions
}

// RunnerConfig controls one evaluation pass.
type RunnerConfig struct {
	Concurrency int    // subscriptions evaluated in parallel
	HistoryDays int    // trend window in days, 0 = all snapshots
	Category    string // restricted category for category-only subscribers
}

// EnrichmentConfig controls the optional keyword-based category tagging.
type EnrichmentConfig struct {
	ICTKeywords bool
	Keywords    []string
}

// SinksConfig selects delivery channels.
type SinksConfig struct {
	Console bool
	Log     bool
	Slack   SlackConfig
	Email   EmailConfig
}

// SlackConfig holds the incoming webhook; empty disables the sink.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

// EmailConfig holds SMTP settings; empty Host disables the sink.
type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	DryRun   bool   `yaml:"dry_run"`
}

// Enabled reports whether an SMTP host was configured.
func (e EmailConfig) Enabled() bool { return e.Host != "" }

// DeliveryConfig controls retry and pacing around sinks.
type DeliveryConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	MinDelay   time.Duration // minimum gap between sends to the same recipient domain
}

// DefaultICTKeywords is the heuristic vocabulary used when none is configured.
var DefaultICTKeywords = []string{
	"software", "developer", "engineer", "engineering", "it",
	"information technology", "data", "programmer", "systems",
	"network", "cloud", "devops", "administrator", "admin",
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Storage    rawStorageConfig    `yaml:"storage"`
	Schedule   rawScheduleConfig   `yaml:"schedule"`
	Runner     rawRunnerConfig     `yaml:"runner"`
	Enrichment rawEnrichmentConfig `yaml:"enrichment"`
	Sinks      rawSinksConfig      `yaml:"sinks"`
	Delivery   rawDeliveryConfig   `yaml:"delivery"`
}

type rawStorageConfig struct {
	DBPath        string `yaml:"db_path"`
	KeepSnapshots int    `yaml:"keep_snapshots"`
}

type rawScheduleConfig struct {
	Timezone      string `yaml:"timezone"`
	CheckInterval string `yaml:"check_interval"`
}

type rawRunnerConfig struct {
	Concurrency int    `yaml:"concurrency"`
	HistoryDays int    `yaml:"history_days"`
	Category    string `yaml:"category"`
}

type rawEnrichmentConfig struct {
	ICTKeywords struct {
		Enabled  bool     `yaml:"enabled"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"ict_keywords"`
}

type rawSinksConfig struct {
	Console *bool       `yaml:"console"`
	Log     bool        `yaml:"log"`
	Slack   SlackConfig `yaml:"slack"`
	Email   EmailConfig `yaml:"email"`
}

type rawDeliveryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	RetryDelay string `yaml:"retry_delay"`
	MinDelay   string `yaml:"min_delay"`
}

// LoadEnv loads .env.local then .env from the working directory, if present.
// Values already in the environment win.
func LoadEnv() error {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	if err := LoadEnv(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML config bytes, expanding environment variables first.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var err error

	dbPath := raw.Storage.DBPath
	if dbPath == "" {
		dbPath = "sitewatch.db"
	}

	loc := time.Local
	if raw.Schedule.Timezone != "" {
		loc, err = time.LoadLocation(raw.Schedule.Timezone)
		if err != nil {
			return nil, fmt.Errorf("parse schedule.timezone %q: %w", raw.Schedule.Timezone, err)
		}
	}

	checkInterval := 15 * time.Minute // default
	if raw.Schedule.CheckInterval != "" {
		checkInterval, err = time.ParseDuration(raw.Schedule.CheckInterval)
		if err != nil {
			return nil, fmt.Errorf("parse schedule.check_interval %q: %w", raw.Schedule.CheckInterval, err)
		}
	}

	concurrency := raw.Runner.Concurrency
	if concurrency == 0 {
		concurrency = 4
	}

	category := strings.TrimSpace(raw.Runner.Category)
	if category == "" {
		category = model.ICTCategory
	}

	keywords := raw.Enrichment.ICTKeywords.Keywords
	if len(keywords) == 0 {
		keywords = DefaultICTKeywords
	}

	console := true // default: print to the terminal
	if raw.Sinks.Console != nil {
		console = *raw.Sinks.Console
	}

	email := raw.Sinks.Email
	if email.Port == 0 {
		email.Port = 587
	}
	if email.From == "" {
		email.From = email.Username
	}

	maxRetries := 2 // default
	if raw.Delivery.MaxRetries != nil {
		maxRetries = *raw.Delivery.MaxRetries
	}

	retryDelay := 5 * time.Second // default
	if raw.Delivery.RetryDelay != "" {
		retryDelay, err = time.ParseDuration(raw.Delivery.RetryDelay)
		if err != nil {
			return nil, fmt.Errorf("parse delivery.retry_delay %q: %w", raw.Delivery.RetryDelay, err)
		}
	}

	minDelay := 2 * time.Second // default
	if raw.Delivery.MinDelay != "" {
		minDelay, err = time.ParseDuration(raw.Delivery.MinDelay)
		if err != nil {
			return nil, fmt.Errorf("parse delivery.min_delay %q: %w", raw.Delivery.MinDelay, err)
		}
	}

	cfg := &Config{
		Storage: StorageConfig{
			DBPath:        dbPath,
			KeepSnapshots: raw.Storage.KeepSnapshots,
		},
		Schedule: ScheduleConfig{
			Location:      loc,
			CheckInterval: checkInterval,
		},
		Runner: RunnerConfig{
			Concurrency: concurrency,
			HistoryDays: raw.Runner.HistoryDays,
			Category:    category,
		},
		Enrichment: EnrichmentConfig{
			ICTKeywords: raw.Enrichment.ICTKeywords.Enabled,
			Keywords:    keywords,
		},
		Sinks: SinksConfig{
			Console: console,
			Log:     raw.Sinks.Log,
			Slack:   raw.Sinks.Slack,
			Email:   email,
		},
		Delivery: DeliveryConfig{
			MaxRetries: maxRetries,
			RetryDelay: retryDelay,
			MinDelay:   minDelay,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Storage.KeepSnapshots < 0 {
		return fmt.Errorf("storage.keep_snapshots must not be negative, got %d", cfg.Storage.KeepSnapshots)
	}
	if cfg.Storage.KeepSnapshots == 1 {
		return fmt.Errorf("storage.keep_snapshots must be 0 (keep all) or at least 2, got 1")
	}
	if cfg.Schedule.CheckInterval < time.Minute {
		return fmt.Errorf("schedule.check_interval must be at least 1m, got %v", cfg.Schedule.CheckInterval)
	}
	if cfg.Runner.Concurrency < 1 {
		return fmt.Errorf("runner.concurrency must be positive, got %d", cfg.Runner.Concurrency)
	}
	if cfg.Runner.HistoryDays < 0 {
		return fmt.Errorf("runner.history_days must not be negative, got %d", cfg.Runner.HistoryDays)
	}
	if cfg.Delivery.MaxRetries < 0 {
		return fmt.Errorf("delivery.max_retries must not be negative, got %d", cfg.Delivery.MaxRetries)
	}

	if url := cfg.Sinks.Slack.WebhookURL; url != "" && !strings.HasPrefix(url, "https://hooks.slack.com/") {
		return fmt.Errorf("sinks.slack.webhook_url must start with https://hooks.slack.com/")
	}

	if e := cfg.Sinks.Email; e.Enabled() {
		if e.Port <= 0 || e.Port > 65535 {
			return fmt.Errorf("sinks.email.port must be a valid TCP port, got %d", e.Port)
		}
		if !e.DryRun && (e.Username == "" || e.Password == "") {
			return fmt.Errorf("sinks.email.username and sinks.email.password are required unless dry_run is true")
		}
		if e.From == "" {
			return fmt.Errorf("sinks.email.from (or username) is required when email is enabled")
		}
	}

	if !cfg.Sinks.Console && !cfg.Sinks.Log && cfg.Sinks.Slack.WebhookURL == "" && !cfg.Sinks.Email.Enabled() {
		return fmt.Errorf("at least one sink must be enabled")
	}

	return nil
}
