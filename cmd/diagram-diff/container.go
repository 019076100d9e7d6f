// Package main provides the diagram-diff HTTP server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gogithub "github.com/google/go-github/v68/github"

	githistory "github.com/nathantilsley/diagram-diff/internal/diff/adapters/git_history"
	githubcontents "github.com/nathantilsley/diagram-diff/internal/diff/adapters/github_contents"
	githubin "github.com/nathantilsley/diagram-diff/internal/diff/adapters/github_in"
	githubout "github.com/nathantilsley/diagram-diff/internal/diff/adapters/github_out"
	httpin "github.com/nathantilsley/diagram-diff/internal/diff/adapters/http_in"
	inlinediff "github.com/nathantilsley/diagram-diff/internal/diff/adapters/inline_diff"
	linediff "github.com/nathantilsley/diagram-diff/internal/diff/adapters/line_diff"
	localfiles "github.com/nathantilsley/diagram-diff/internal/diff/adapters/local_files"
	markdownout "github.com/nathantilsley/diagram-diff/internal/diff/adapters/markdown_out"
	prfiles "github.com/nathantilsley/diagram-diff/internal/diff/adapters/pr_files"
	"github.com/nathantilsley/diagram-diff/internal/diff/app"
	"github.com/nathantilsley/diagram-diff/internal/diff/ports"
	"github.com/nathantilsley/diagram-diff/internal/platform/config"
	"github.com/nathantilsley/diagram-diff/internal/platform/gitrepo"
	ghclient "github.com/nathantilsley/diagram-diff/internal/platform/github"
	"github.com/nathantilsley/diagram-diff/internal/platform/telemetry"
)

// Container holds all application dependencies.
type Container struct {
	Config         config.Config
	Logger         *slog.Logger
	Telemetry      *telemetry.Telemetry
	HistoryRepo    *gitrepo.GitRepo // nil unless SNAPSHOT_SOURCE=git
	GitHubClient   *gogithub.Client // nil unless SNAPSHOT_SOURCE=github
	CompareService ports.CompareUseCase
	Handler        *httpin.Handler
	WebhookHandler *githubin.WebhookHandler // nil unless WEBHOOK_SECRET is set
}

// NewContainer builds and wires all dependencies.
func NewContainer(ctx context.Context, cfg config.Config, log *slog.Logger) (*Container, error) {
	// Platform dependencies
	tel, err := telemetry.New(ctx, cfg.OTelEnabled)
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}
	if tel.Enabled() {
		log.Info("opentelemetry enabled")
	}

	c := &Container{Config: cfg, Logger: log, Telemetry: tel}

	source, err := c.snapshotSource(ctx)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, err
	}

	// Domain service
	compareService, err := app.NewCompareService(
		source, // nil if not configured
		linediff.New(cfg.UnifiedContextLines),
		inlinediff.New(),
		cfg.MaxConcurrentDiffs,
		tel.Meter,
		tel.Tracer,
		log,
	)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("creating compare service: %w", err)
	}
	c.CompareService = compareService

	report := markdownout.New(telemetry.ServiceName, markdownout.MaxReportLen)

	// HTTP handler
	c.Handler = httpin.NewHandler(compareService, report, cfg.MaxBodyBytes, cfg.MaxConcurrentDiffs, log)

	// Pull request reviews need the contents API to read both commits.
	if c.GitHubClient != nil && cfg.WebhookSecret != "" {
		log.Info("pull request reviews enabled", "extensions", cfg.DiagramExtensions)
		reviewService := app.NewReviewService(
			prfiles.New(c.GitHubClient, cfg.DiagramExtensions, log),
			compareService,
			githubout.New(c.GitHubClient, report, telemetry.ServiceName, log),
			tel.Tracer,
			log,
		)
		c.WebhookHandler = githubin.NewWebhookHandler(reviewService, cfg.WebhookSecret, cfg.MaxConcurrentDiffs, log)
	}

	return c, nil
}

func (c *Container) snapshotSource(ctx context.Context) (ports.SnapshotSourcePort, error) {
	cfg, log := c.Config, c.Logger

	switch cfg.SnapshotSource {
	case config.SourceGit:
		log.Info("git history source enabled",
			"repo", cfg.HistoryRepo,
			"localPath", cfg.HistoryLocalPath,
			"syncInterval", cfg.HistorySyncInterval,
		)
		repo := gitrepo.New(cfg.HistoryRepo, cfg.HistoryLocalPath, cfg.HistorySyncInterval, log)
		repo.OnSync(func() {
			log.Debug("diagram history synced", "path", repo.Path())
		})
		if err := repo.Start(ctx); err != nil {
			return nil, fmt.Errorf("starting history repo: %w", err)
		}
		c.HistoryRepo = repo
		return githistory.New(repo), nil

	case config.SourceGitHub:
		client, err := ghclient.NewClient(ghclient.Credentials{
			Token:          cfg.GitHubToken,
			AppID:          cfg.GitHubAppID,
			InstallationID: cfg.GitHubInstallationID,
			PrivateKeyPEM:  cfg.GitHubPrivateKey,
		})
		if err != nil {
			return nil, fmt.Errorf("creating github client: %w", err)
		}
		log.Info("github contents source enabled", "owner", cfg.GitHubOwner, "repo", cfg.GitHubRepo)
		c.GitHubClient = client
		return githubcontents.New(client, cfg.GitHubOwner, cfg.GitHubRepo), nil

	case config.SourceFiles:
		log.Info("local files source enabled", "dir", cfg.SnapshotDir)
		return localfiles.New(cfg.SnapshotDir), nil

	default:
		log.Info("no snapshot source configured, ref comparisons disabled")
		return nil, nil
	}
}

// Close stops background sync, finishes running pull request reviews and
// flushes telemetry.
func (c *Container) Close() {
	if c.HistoryRepo != nil {
		c.HistoryRepo.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if c.WebhookHandler != nil {
		if err := c.WebhookHandler.Shutdown(ctx); err != nil {
			c.Logger.Warn("pull request reviews cancelled at shutdown", "error", err)
		}
	}
	if err := c.Telemetry.Shutdown(ctx); err != nil {
		c.Logger.Warn("telemetry shutdown failed", "error", err)
	}
}
