package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	gogithub "github.com/google/go-github/v68/github"
	"github.com/spf13/cobra"

	githubcontents "github.com/nathantilsley/diagram-diff/internal/diff/adapters/github_contents"
	githubout "github.com/nathantilsley/diagram-diff/internal/diff/adapters/github_out"
	markdownout "github.com/nathantilsley/diagram-diff/internal/diff/adapters/markdown_out"
	prfiles "github.com/nathantilsley/diagram-diff/internal/diff/adapters/pr_files"
	"github.com/nathantilsley/diagram-diff/internal/diff/app"
	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
	"github.com/nathantilsley/diagram-diff/internal/diff/ports"
	ghclient "github.com/nathantilsley/diagram-diff/internal/platform/github"
	"github.com/nathantilsley/diagram-diff/internal/platform/telemetry"
)

type prOptions struct {
	owner      string
	repo       string
	number     int
	token      string
	apiURL     string
	extensions []string
	post       bool
}

func newPRCmd(opts *globalOptions) *cobra.Command {
	pr := &prOptions{}

	cmd := &cobra.Command{
		Use:   "pr",
		Short: "Compare every diagram a GitHub pull request changes",
		Long: `Compare every diagram a pull request changes between its base and head
commits. With --post the markdown report replaces the previous report
comment on the pull request instead of being printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPR(cmd, opts, pr)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&pr.owner, "owner", "", "Repository owner")
	flags.StringVar(&pr.repo, "repo", "", "Repository name")
	flags.IntVar(&pr.number, "number", 0, "Pull request number")
	flags.StringVar(&pr.token, "token", os.Getenv("GITHUB_TOKEN"), "GitHub token (default $GITHUB_TOKEN)")
	flags.StringVar(&pr.apiURL, "api-url", "", "GitHub Enterprise base URL")
	flags.StringSliceVar(&pr.extensions, "ext", nil, "Diagram file extensions (default .uml, .puml, .plantuml, .iuml)")
	flags.BoolVar(&pr.post, "post", false, "Post the report as a pull request comment")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("repo")
	_ = cmd.MarkFlagRequired("number")
	return cmd
}

func runPR(cmd *cobra.Command, opts *globalOptions, pr *prOptions) error {
	if pr.token == "" {
		return errors.New("a GitHub token is required: set GITHUB_TOKEN or pass --token")
	}
	client, err := newGitHubClient(pr.token, pr.apiURL)
	if err != nil {
		return err
	}

	log := newLogger(cmd, opts)
	files := prfiles.New(client, pr.extensions, log)

	prCtx, err := files.Lookup(cmd.Context(), pr.owner, pr.repo, pr.number)
	if err != nil {
		return err
	}

	svc, err := newService(cmd, opts, githubcontents.New(client, pr.owner, pr.repo))
	if err != nil {
		return err
	}

	var reporter ports.ReportingPort
	printer := &printReporter{w: cmd.OutOrStdout(), opts: opts}
	if pr.post {
		reporter = githubout.New(client, markdownout.New(telemetry.ServiceName, 0), telemetry.ServiceName, log)
	} else {
		reporter = printer
	}

	review := app.NewReviewService(files, svc, reporter, telemetry.Noop().Tracer, log)
	if err := review.Review(cmd.Context(), prCtx); err != nil {
		return err
	}

	if !pr.post {
		if printer.comparisons == nil {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "No diagram changes in %s/%s#%d.\n", pr.owner, pr.repo, pr.number)
			return err
		}
		return finish(opts, printer.comparisons)
	}
	return nil
}

func newGitHubClient(token, apiURL string) (*gogithub.Client, error) {
	client, err := ghclient.NewClient(ghclient.Credentials{Token: token})
	if err != nil {
		return nil, fmt.Errorf("creating github client: %w", err)
	}
	if apiURL == "" {
		return client, nil
	}
	client, err = client.WithEnterpriseURLs(apiURL, apiURL)
	if err != nil {
		return nil, fmt.Errorf("parsing --api-url: %w", err)
	}
	return client, nil
}

// printReporter writes the review to the terminal instead of the pull request.
type printReporter struct {
	w           io.Writer
	opts        *globalOptions
	comparisons []domain.Comparison
}

func (p *printReporter) PostReport(_ context.Context, _ domain.PRContext, comparisons []domain.Comparison) error {
	p.comparisons = comparisons
	return writeComparisons(p.w, p.opts, comparisons)
}
