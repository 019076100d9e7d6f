// Package githubin receives GitHub pull_request webhooks and starts a
// diagram review for each one.
package githubin

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	gogithub "github.com/google/go-github/v68/github"
	"go.opentelemetry.io/otel/trace"

	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
	"github.com/nathantilsley/diagram-diff/internal/diff/ports"
)

// reviewedActions are the pull_request actions that change what a review
// would report. Everything else is acknowledged and dropped.
var reviewedActions = map[string]bool{
	"opened":           true,
	"synchronize":      true,
	"reopened":         true,
	"ready_for_review": true,
}

// WebhookHandler reviews the diagrams of opened or updated pull requests.
// Draft pull requests are skipped until they are marked ready for review.
type WebhookHandler struct {
	reviewer ports.PRReviewUseCase
	secret   []byte
	logger   *slog.Logger
	slots    chan struct{}

	ctx      context.Context // parent of every review; cancelled by Shutdown
	cancel   context.CancelFunc
	mu       sync.Mutex // orders wg.Add against Shutdown
	stopping chan struct{}
	wg       sync.WaitGroup
}

// NewWebhookHandler creates a handler running at most maxConcurrent
// reviews at a time; values below 1 mean one.
func NewWebhookHandler(reviewer ports.PRReviewUseCase, secret string, maxConcurrent int, logger *slog.Logger) *WebhookHandler {
	ctx, cancel := context.WithCancel(context.Background())
	return &WebhookHandler{
		reviewer: reviewer,
		secret:   []byte(secret),
		logger:   logger,
		slots:    make(chan struct{}, max(maxConcurrent, 1)),
		ctx:      ctx,
		cancel:   cancel,
		stopping: make(chan struct{}),
	}
}

// ServeHTTP verifies the signature, answers 202 for reviewable events and
// runs the review in the background. GitHub gives up on a delivery after
// 10s, far less than a review of many diagrams can take.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	payload, err := gogithub.ValidatePayload(r, h.secret)
	if err != nil {
		h.logger.Warn("rejected webhook delivery", "error", err)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	event, err := gogithub.ParseWebHook(gogithub.WebHookType(r), payload)
	if err != nil {
		h.logger.Error("unreadable webhook payload", "event", gogithub.WebHookType(r), "error", err)
		http.Error(w, "failed to parse webhook", http.StatusBadRequest)
		return
	}

	prEvent, ok := event.(*gogithub.PullRequestEvent)
	if !ok || !reviewedActions[prEvent.GetAction()] {
		w.WriteHeader(http.StatusOK)
		return
	}

	pr := pullRequest(prEvent)
	log := h.logger.With("owner", pr.Owner, "repo", pr.Repo, "pr", pr.PRNumber)

	if prEvent.GetPullRequest().GetDraft() {
		log.Debug("skipping draft pull request")
		w.WriteHeader(http.StatusOK)
		return
	}

	log.Info("reviewing pull request diagrams", "action", prEvent.GetAction(), "head", pr.HeadSHA)

	// Keep the delivery's trace; cancellation belongs to Shutdown.
	ctx := trace.ContextWithRemoteSpanContext(h.ctx,
		trace.SpanContextFromContext(r.Context()),
	)
	if !h.track() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	go h.review(ctx, pr, log)

	w.WriteHeader(http.StatusAccepted)
}

// Shutdown drops reviews still waiting for a slot and waits for running
// ones. When ctx expires first, running reviews are cancelled and ctx's
// error is returned.
func (h *WebhookHandler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	select {
	case <-h.stopping:
	default:
		close(h.stopping)
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.cancel()
		return nil
	case <-ctx.Done():
		h.cancel()
		<-done
		return ctx.Err()
	}
}

// track registers a review unless Shutdown has started.
func (h *WebhookHandler) track() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.stopping:
		return false
	default:
		h.wg.Add(1)
		return true
	}
}

func (h *WebhookHandler) review(ctx context.Context, pr domain.PRContext, log *slog.Logger) {
	defer h.wg.Done()

	select {
	case <-h.stopping:
		log.Warn("pull request review dropped at shutdown")
		return
	default:
	}
	select {
	case h.slots <- struct{}{}:
	case <-h.stopping:
		log.Warn("pull request review dropped at shutdown")
		return
	}
	defer func() { <-h.slots }()

	if err := h.reviewer.Review(ctx, pr); err != nil {
		log.Error("pull request review failed", "error", err)
	}
}

func pullRequest(e *gogithub.PullRequestEvent) domain.PRContext {
	return domain.PRContext{
		Owner:    e.GetRepo().GetOwner().GetLogin(),
		Repo:     e.GetRepo().GetName(),
		PRNumber: e.GetNumber(),
		BaseSHA:  e.GetPullRequest().GetBase().GetSHA(),
		HeadSHA:  e.GetPullRequest().GetHead().GetSHA(),
	}
}
