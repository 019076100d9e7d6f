// Package httpin exposes the compare use case over a JSON HTTP API.
package httpin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/nathantilsley/diagram-diff/api"
	"github.com/nathantilsley/diagram-diff/internal/diff/app"
	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
	"github.com/nathantilsley/diagram-diff/internal/diff/ports"
)

const defaultName = "diagram"

// ReportFormatter renders comparisons as a markdown report.
type ReportFormatter interface {
	FormatReport(comparisons []domain.Comparison) string
}

// Handler serves the diff endpoints.
type Handler struct {
	useCase      ports.CompareUseCase
	report       ReportFormatter
	maxBodyBytes int64
	logger       *slog.Logger
	sem          chan struct{}
}

// NewHandler creates a new handler. At most maxConcurrent requests compute
// diffs at once; the rest wait for a slot or their own cancellation.
func NewHandler(
	uc ports.CompareUseCase,
	report ReportFormatter,
	maxBodyBytes int64,
	maxConcurrent int,
	logger *slog.Logger,
) *Handler {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Handler{
		useCase:      uc,
		report:       report,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
		sem:          make(chan struct{}, maxConcurrent),
	}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/diff", h.Diff)
	mux.HandleFunc("POST /v1/rows", h.Rows)
	mux.HandleFunc("POST /v1/compare", h.Compare)
}

// Diff compares two snapshots from the request body. With ?format=markdown
// the response is a markdown report instead of JSON.
func (h *Handler) Diff(w http.ResponseWriter, r *http.Request) {
	var req api.TextCompareRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.acquire(w, r) {
		return
	}
	defer h.release()

	name := req.Name
	if name == "" {
		name = defaultName
	}
	c := h.useCase.CompareText(r.Context(), name, req.Latest, req.Previous)

	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, h.report.FormatReport([]domain.Comparison{c}))
		return
	}
	h.writeJSON(w, http.StatusOK, ToAPIComparison(c))
}

// Rows returns only the side-by-side rows of two snapshots.
func (h *Handler) Rows(w http.ResponseWriter, r *http.Request) {
	var req api.TextCompareRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.acquire(w, r) {
		return
	}
	defer h.release()

	rows := domain.RenderRows(req.Latest, req.Previous)
	h.writeJSON(w, http.StatusOK, api.RowsResponse{Rows: ToAPIRows(rows, nil)})
}

// Compare fetches two revisions of a diagram from the snapshot source and
// compares them.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	var req api.RefCompareRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Path == "" {
		h.writeError(w, http.StatusBadRequest, errors.New("path is required"))
		return
	}
	if req.LatestRef == "" || req.PreviousRef == "" {
		h.writeError(w, http.StatusBadRequest, errors.New("latestRef and previousRef are required"))
		return
	}

	previousPath := req.PreviousPath
	if previousPath == "" {
		previousPath = req.Path
	}
	compareReq := domain.CompareRequest{
		Name:     req.Name,
		Latest:   domain.SnapshotRef{Path: req.Path, Ref: req.LatestRef},
		Previous: domain.SnapshotRef{Path: previousPath, Ref: req.PreviousRef},
	}
	if err := compareReq.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if !h.acquire(w, r) {
		return
	}
	defer h.release()

	c, err := h.useCase.CompareRefs(r.Context(), compareReq)
	if err != nil {
		h.logger.Error("compare failed",
			"path", req.Path,
			"latestRef", req.LatestRef,
			"previousRef", req.PreviousRef,
			"error", err,
		)
		h.writeError(w, statusFor(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, ToAPIComparison(c))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRef):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrNoSnapshotSource):
		return http.StatusNotImplemented
	case domain.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// decode reads a JSON body of at most maxBodyBytes into v and writes the
// error response itself when that fails.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return false
	}
	return true
}

func (h *Handler) acquire(w http.ResponseWriter, r *http.Request) bool {
	select {
	case h.sem <- struct{}{}: // acquire worker slot
		return true
	case <-r.Context().Done():
		h.writeError(w, http.StatusServiceUnavailable, r.Context().Err())
		return false
	}
}

func (h *Handler) release() { <-h.sem }

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, api.ErrorResponse{Error: err.Error()})
}
