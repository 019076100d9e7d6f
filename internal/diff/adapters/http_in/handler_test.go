package httpin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathantilsley/diagram-diff/api"
	"github.com/nathantilsley/diagram-diff/internal/diff/app"
	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
	"github.com/nathantilsley/diagram-diff/internal/platform/logger"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

// fakeUseCase runs the real engine for text comparisons and returns the
// configured result for ref comparisons.
type fakeUseCase struct {
	refErr  error
	mu      sync.Mutex
	lastReq domain.CompareRequest
	gate    chan struct{} // blocks CompareText when set
	active  atomic.Int32
}

func (f *fakeUseCase) CompareText(_ context.Context, name, latest, previous string) domain.Comparison {
	if f.gate != nil {
		f.active.Add(1)
		<-f.gate
		defer f.active.Add(-1)
	}
	ops := domain.Align(latest, previous)
	status := domain.StatusSuccess
	result := domain.Classify(ops)
	if result.HasChanges() {
		status = domain.StatusChanges
	}
	return domain.Comparison{
		Name:          name,
		LatestLabel:   name + " (latest)",
		PreviousLabel: name + " (previous)",
		Status:        status,
		Result:        result,
		Rows:          domain.ToRows(ops),
		Summary:       "summary",
	}
}

func (f *fakeUseCase) CompareRefs(ctx context.Context, req domain.CompareRequest) (domain.Comparison, error) {
	f.mu.Lock()
	f.lastReq = req
	f.mu.Unlock()
	if f.refErr != nil {
		return domain.Comparison{}, f.refErr
	}
	return f.CompareText(ctx, req.DisplayName(), "a\nX", "a\nb"), nil
}

func (f *fakeUseCase) CompareBatch(context.Context, []domain.CompareRequest) []domain.Comparison {
	return nil
}

type fakeReport struct{}

func (fakeReport) FormatReport(comparisons []domain.Comparison) string {
	return "# report for " + comparisons[0].Name
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestServer(t *testing.T, uc *fakeUseCase, maxBody int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	NewHandler(uc, fakeReport{}, maxBody, 2, logger.Discard()).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestDiff(t *testing.T) {
	srv := newTestServer(t, &fakeUseCase{}, 1<<20)

	resp := post(t, srv.URL+"/v1/diff", `{"name":"shop.uml","latest":"a\nX\nc\nd","previous":"a\nb\nc"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	got := decodeBody[api.Comparison](t, resp)
	assert.Equal(t, "shop.uml", got.Name)
	assert.Equal(t, "Changes", got.Status)
	assert.Equal(t, api.Stats{Added: 1, Modified: 1, Unchanged: 2}, got.Stats)
	assert.Equal(t, []string{"d"}, got.Result.Added)
	assert.Equal(t, []string{}, got.Result.Removed)
	assert.Equal(t, []api.Change{{From: "X", To: "b"}}, got.Result.Modified)
	require.Len(t, got.Rows, 4)
	assert.Equal(t, api.Row{Left: "X", Right: "b", Kind: "modified"}, got.Rows[1])
}

func TestDiff_DefaultName(t *testing.T) {
	srv := newTestServer(t, &fakeUseCase{}, 1<<20)

	resp := post(t, srv.URL+"/v1/diff", `{"latest":"a","previous":"a"}`)
	got := decodeBody[api.Comparison](t, resp)

	assert.Equal(t, defaultName, got.Name)
	assert.Equal(t, "Success", got.Status)
}

func TestDiff_Markdown(t *testing.T) {
	srv := newTestServer(t, &fakeUseCase{}, 1<<20)

	resp := post(t, srv.URL+"/v1/diff?format=markdown", `{"name":"shop.uml","latest":"a","previous":"b"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/markdown; charset=utf-8", resp.Header.Get("Content-Type"))

	var sb strings.Builder
	_, err := io.Copy(&sb, resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "# report for shop.uml", sb.String())
}

func TestRows(t *testing.T) {
	srv := newTestServer(t, &fakeUseCase{}, 1<<20)

	resp := post(t, srv.URL+"/v1/rows", `{"latest":"a\nc","previous":"a\nb"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeBody[api.RowsResponse](t, resp)
	assert.Equal(t, []api.Row{
		{Left: "a", Right: "a", Kind: "unchanged"},
		{Left: "c", Right: "b", Kind: "modified"},
	}, got.Rows)
}

func TestRows_EmptyInputs(t *testing.T) {
	srv := newTestServer(t, &fakeUseCase{}, 1<<20)

	resp := post(t, srv.URL+"/v1/rows", `{"latest":"","previous":""}`)
	got := decodeBody[api.RowsResponse](t, resp)

	assert.Equal(t, []api.Row{{Left: "", Right: "", Kind: "unchanged"}}, got.Rows)
}

func TestCompare(t *testing.T) {
	uc := &fakeUseCase{}
	srv := newTestServer(t, uc, 1<<20)

	resp := post(t, srv.URL+"/v1/compare",
		`{"path":"models/shop.uml","previousPath":"shop.uml","latestRef":"feature","previousRef":"main"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	uc.mu.Lock()
	lastReq := uc.lastReq
	uc.mu.Unlock()
	assert.Equal(t, domain.CompareRequest{
		Latest:   domain.SnapshotRef{Path: "models/shop.uml", Ref: "feature"},
		Previous: domain.SnapshotRef{Path: "shop.uml", Ref: "main"},
	}, lastReq)

	got := decodeBody[api.Comparison](t, resp)
	assert.Equal(t, "models/shop.uml", got.Name)
	assert.Equal(t, []api.Change{{From: "X", To: "b"}}, got.Result.Modified)
}

func TestCompare_Errors(t *testing.T) {
	tests := []struct {
		name       string
		refErr     error
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "missing path",
			body:       `{"latestRef":"a","previousRef":"b"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "path is required",
		},
		{
			name:       "missing refs",
			body:       `{"path":"shop.uml","latestRef":"a"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "latestRef and previousRef are required",
		},
		{
			name:       "option-like latest ref",
			body:       `{"path":"shop.uml","latestRef":"--output=/tmp/x","previousRef":"v1"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "ref must not start with '-'",
		},
		{
			name:       "option-like previous ref",
			body:       `{"path":"shop.uml","latestRef":"v2","previousRef":"-p"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "ref must not start with '-'",
		},
		{
			name:       "no snapshot source",
			refErr:     app.ErrNoSnapshotSource,
			body:       `{"path":"shop.uml","latestRef":"a","previousRef":"b"}`,
			wantStatus: http.StatusNotImplemented,
			wantError:  "no snapshot source configured",
		},
		{
			name:       "snapshot not found",
			refErr:     domain.NewNotFoundError("shop.uml", "a"),
			body:       `{"path":"shop.uml","latestRef":"a","previousRef":"b"}`,
			wantStatus: http.StatusNotFound,
			wantError:  "not found",
		},
		{
			name:       "source failure",
			refErr:     errors.New("connection refused"),
			body:       `{"path":"shop.uml","latestRef":"a","previousRef":"b"}`,
			wantStatus: http.StatusBadGateway,
			wantError:  "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeUseCase{refErr: tt.refErr}, 1<<20)

			resp := post(t, srv.URL+"/v1/compare", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			got := decodeBody[api.ErrorResponse](t, resp)
			assert.Contains(t, got.Error, tt.wantError)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"malformed json", `{"latest":`, http.StatusBadRequest},
		{"unknown field", `{"latest":"a","previous":"b","extra":1}`, http.StatusBadRequest},
		{"wrong type", `{"latest":1}`, http.StatusBadRequest},
		{"too large", `{"latest":"` + strings.Repeat("x", 200) + `","previous":""}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeUseCase{}, 100)

			resp := post(t, srv.URL+"/v1/diff", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &fakeUseCase{}, 1<<20)

	resp, err := http.Get(srv.URL + "/v1/diff")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestBoundedConcurrency(t *testing.T) {
	uc := &fakeUseCase{gate: make(chan struct{})}
	srv := newTestServer(t, uc, 1<<20) // 2 slots

	done := make(chan struct{})
	for range 4 {
		go func() {
			defer func() { done <- struct{}{} }()
			resp, err := http.Post(srv.URL+"/v1/diff", "application/json", strings.NewReader(`{"latest":"a","previous":"a"}`))
			if err == nil {
				resp.Body.Close()
			}
		}()
	}

	require.Eventually(t, func() bool { return uc.active.Load() == 2 }, time.Second, 5*time.Millisecond)
	// The remaining requests must still be waiting for a slot.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), uc.active.Load())

	close(uc.gate)
	for range 4 {
		<-done
	}
}

func TestToAPIRows_AttachesSpans(t *testing.T) {
	rows := []domain.Row{
		{Left: "a", Right: "a", Kind: domain.RowUnchanged},
		{Left: "ab", Right: "a", Kind: domain.RowModified},
	}
	inline := []domain.InlineChange{{Row: 1, Spans: []domain.Span{
		{Op: domain.SpanEqual, Text: "a"},
		{Op: domain.SpanInsert, Text: "b"},
	}}}

	got := ToAPIRows(rows, inline)

	assert.Nil(t, got[0].Spans)
	assert.Equal(t, []api.Span{{Op: "equal", Text: "a"}, {Op: "insert", Text: "b"}}, got[1].Spans)
}

func TestToAPIComparison_ErrorHasEmptyBuckets(t *testing.T) {
	got := ToAPIComparison(domain.Comparison{Name: "x", Status: domain.StatusError, Summary: "boom"})

	assert.Equal(t, "Error", got.Status)
	assert.Equal(t, []string{}, got.Result.Added)
	assert.Equal(t, []api.Change{}, got.Result.Modified)
	assert.Equal(t, []api.Row{}, got.Rows)
}
