// Package config defines service configuration and its loading from defaults,
// an optional YAML file and LANEUP_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// RosterPath is the pipe-delimited roster file. Empty keeps the roster
	// in memory.
	RosterPath string `koanf:"roster_path"`

	// HistoryPath is the JSONL match history. Empty keeps history in memory.
	HistoryPath string `koanf:"history_path"`

	// QueueSize bounds the reported-result queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of result workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize caps how many applied match ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// PendingDraws caps how many draws may await a result.
	PendingDraws int `koanf:"pending_draws"`

	// BalanceThresholds is the acceptable-difference ladder, tried in order.
	BalanceThresholds []int `koanf:"balance_thresholds"`

	// MaxAcceptableDiff marks draws above it with a warning.
	MaxAcceptableDiff int `koanf:"max_acceptable_diff"`

	// FallbackOnFailure serves a random role-aware split when balancing is
	// impossible instead of failing the draw.
	FallbackOnFailure bool `koanf:"fallback_on_failure"`

	// RatingMin and RatingMax clamp role scores after a result.
	RatingMin int `koanf:"rating_min"`
	RatingMax int `koanf:"rating_max"`

	// HistoryPageSize is the default page size of the match history.
	HistoryPageSize int `koanf:"history_page_size"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// MetricsEnabled exposes the metrics on /healthz when true.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsPrefix is prepended to every metric name.
	MetricsPrefix string `koanf:"metrics_prefix"`

	// MetricsLabels holds constant labels as "key=value,key=value".
	MetricsLabels string `koanf:"metrics_labels"`

	// MetricsRefreshInterval is the runtime sampling period.
	MetricsRefreshInterval time.Duration `koanf:"metrics_refresh_interval"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		RosterPath:        "data/main_db.txt",
		HistoryPath:       "data/match_history.jsonl",
		QueueSize:         1024,
		WorkerCount:       2,
		DedupeSize:        10_000,
		PendingDraws:      1024,
		BalanceThresholds: []int{3, 5, 7},
		MaxAcceptableDiff: 7,
		FallbackOnFailure: true,
		RatingMin:         1,
		RatingMax:         10,
		HistoryPageSize:   10,
		ShutdownTimeout:   10 * time.Second,

		MetricsEnabled:         true,
		MetricsRefreshInterval: 10 * time.Second,
	}
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.PendingDraws < 1:
		return fmt.Errorf("%w: pending_draws must be positive, got %d", ErrInvalidConfig, c.PendingDraws)
	case c.HistoryPageSize < 1:
		return fmt.Errorf("%w: history_page_size must be positive, got %d", ErrInvalidConfig, c.HistoryPageSize)
	case c.MaxAcceptableDiff < 0:
		return fmt.Errorf("%w: max_acceptable_diff must not be negative", ErrInvalidConfig)
	case c.RatingMin < 1 || c.RatingMin > c.RatingMax:
		return fmt.Errorf("%w: rating bounds %d..%d", ErrInvalidConfig, c.RatingMin, c.RatingMax)
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("%w: shutdown_timeout must be positive", ErrInvalidConfig)
	case c.MetricsRefreshInterval <= 0:
		return fmt.Errorf("%w: metrics_refresh_interval must be positive", ErrInvalidConfig)
	}
	if _, err := c.MetricLabels(); err != nil {
		return err
	}
	for _, t := range c.BalanceThresholds {
		if t < 0 {
			return fmt.Errorf("%w: balance_thresholds must not be negative, got %v", ErrInvalidConfig, c.BalanceThresholds)
		}
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// MetricLabels parses MetricsLabels. An empty string yields no labels.
func (c *Config) MetricLabels() (map[string]string, error) {
	labels := map[string]string{}
	for _, pair := range strings.Split(c.MetricsLabels, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("%w: metrics_labels entry %q is not key=value", ErrInvalidConfig, pair)
		}
		labels[k] = v
	}
	return labels, nil
}
