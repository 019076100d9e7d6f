// Package config provides application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Snapshot sources selectable via SNAPSHOT_SOURCE.
const (
	SourceNone   = ""
	SourceGit    = "git"
	SourceGitHub = "github"
	SourceFiles  = "files"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Port                int
	LogLevel            string
	MaxBodyBytes        int64 // Upper bound on a request body (both snapshots)
	MaxConcurrentDiffs  int   // Worker slots shared by HTTP requests and batches
	UnifiedContextLines int

	// Snapshot source for ref-based comparisons (optional)
	SnapshotSource string

	// git: local clone of a diagram history repository
	HistoryRepo         string        // e.g. "https://github.com/org/diagrams"
	HistoryLocalPath    string        // e.g. "/tmp/diagram-diff-history"
	HistorySyncInterval time.Duration // How often to pull (e.g. 1h)

	// github: contents API
	GitHubOwner          string
	GitHubRepo           string
	GitHubToken          string
	GitHubAppID          int64
	GitHubInstallationID int64
	GitHubPrivateKey     string // PEM file contents

	// github: pull request reviews via webhook (optional)
	WebhookSecret     string   // enables POST /webhook when set
	DiagramExtensions []string // e.g. [".uml", ".puml"]; empty means the built-in list

	// files: directory tree laid out as {SnapshotDir}/{ref}/{path}
	SnapshotDir string

	// OpenTelemetry (optional)
	OTelEnabled bool // OTEL_ENABLED feature flag
}

// Load reads configuration from environment variables, validates the
// selected snapshot source and applies defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:                8080,
		LogLevel:            "info",
		MaxBodyBytes:        1 << 20,
		MaxConcurrentDiffs:  5,
		UnifiedContextLines: 3,
	}

	if err := loadCoreConfig(&cfg); err != nil {
		return Config{}, err
	}

	if err := loadSourceConfig(&cfg); err != nil {
		return Config{}, err
	}

	loadOTelConfig(&cfg)

	return cfg, nil
}

func loadCoreConfig(cfg *Config) error {
	var err error
	if cfg.Port, err = parseIntOrDefault("PORT", cfg.Port); err != nil {
		return err
	}
	if cfg.MaxConcurrentDiffs, err = parseIntOrDefault("MAX_CONCURRENT_DIFFS", cfg.MaxConcurrentDiffs); err != nil {
		return err
	}
	if cfg.MaxConcurrentDiffs < 1 {
		return fmt.Errorf("MAX_CONCURRENT_DIFFS must be at least 1, got %d", cfg.MaxConcurrentDiffs)
	}
	if cfg.UnifiedContextLines, err = parseIntOrDefault("UNIFIED_CONTEXT_LINES", cfg.UnifiedContextLines); err != nil {
		return err
	}

	maxBody, err := parseIntOrDefault("MAX_BODY_BYTES", int(cfg.MaxBodyBytes))
	if err != nil {
		return err
	}
	cfg.MaxBodyBytes = int64(maxBody)

	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)

	return nil
}

func loadSourceConfig(cfg *Config) error {
	cfg.SnapshotSource = os.Getenv("SNAPSHOT_SOURCE")

	switch cfg.SnapshotSource {
	case SourceNone:
		return nil // ref-based comparisons are optional
	case SourceGit:
		return loadGitConfig(cfg)
	case SourceGitHub:
		return loadGitHubConfig(cfg)
	case SourceFiles:
		cfg.SnapshotDir = os.Getenv("SNAPSHOT_DIR")
		if cfg.SnapshotDir == "" {
			return errors.New("SNAPSHOT_DIR is required when SNAPSHOT_SOURCE=files")
		}
		return nil
	default:
		return fmt.Errorf("invalid SNAPSHOT_SOURCE %q: want git, github or files", cfg.SnapshotSource)
	}
}

func loadGitConfig(cfg *Config) error {
	cfg.HistoryRepo = os.Getenv("HISTORY_REPO")
	if cfg.HistoryRepo == "" {
		return errors.New("HISTORY_REPO is required when SNAPSHOT_SOURCE=git")
	}

	cfg.HistoryLocalPath = getEnvOrDefault("HISTORY_LOCAL_PATH", "/tmp/diagram-diff-history")

	dur, err := parseDurationOrDefault("HISTORY_SYNC_INTERVAL", 1*time.Hour)
	if err != nil {
		return err
	}
	cfg.HistorySyncInterval = dur

	return nil
}

func loadGitHubConfig(cfg *Config) error {
	cfg.GitHubOwner = os.Getenv("GITHUB_OWNER")
	cfg.GitHubRepo = os.Getenv("GITHUB_REPO")
	if cfg.GitHubOwner == "" || cfg.GitHubRepo == "" {
		return errors.New("GITHUB_OWNER and GITHUB_REPO are required when SNAPSHOT_SOURCE=github")
	}

	cfg.WebhookSecret = os.Getenv("WEBHOOK_SECRET")
	cfg.DiagramExtensions = parseList(os.Getenv("DIAGRAM_EXTENSIONS"))

	// A token takes precedence over GitHub App credentials.
	cfg.GitHubToken = os.Getenv("GITHUB_TOKEN")
	if cfg.GitHubToken != "" {
		return nil
	}

	var err error
	cfg.GitHubAppID, err = parseRequiredInt64("GITHUB_APP_ID")
	if err != nil {
		return fmt.Errorf("GITHUB_TOKEN not set: %w", err)
	}

	cfg.GitHubInstallationID, err = parseRequiredInt64("GITHUB_INSTALLATION_ID")
	if err != nil {
		return err
	}

	cfg.GitHubPrivateKey = os.Getenv("GITHUB_PRIVATE_KEY")
	if cfg.GitHubPrivateKey == "" {
		return errors.New("GITHUB_PRIVATE_KEY is required")
	}

	return nil
}

func parseRequiredInt64(envKey string) (int64, error) {
	v := os.Getenv(envKey)
	if v == "" {
		return 0, fmt.Errorf("%s is required", envKey)
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, v, err)
	}
	return id, nil
}

func parseIntOrDefault(envKey string, defaultValue int) (int, error) {
	v := os.Getenv(envKey)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, v, err)
	}
	return n, nil
}

// parseList splits a comma-separated value, dropping empty items.
func parseList(v string) []string {
	var items []string
	for item := range strings.SplitSeq(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func getEnvOrDefault(envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

func loadOTelConfig(cfg *Config) {
	cfg.OTelEnabled = os.Getenv("OTEL_ENABLED") == "true"
}

func parseDurationOrDefault(envKey string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(envKey)
	if v == "" {
		return defaultValue, nil
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, v, err)
	}
	return dur, nil
}
