// Package api defines the wire schemas of the diagram-diff HTTP API and the
// batch manifest file.
package api

// TextCompareRequest is the body of POST /v1/diff and POST /v1/rows.
type TextCompareRequest struct {
	Name     string `json:"name,omitempty"`
	Latest   string `json:"latest"`
	Previous string `json:"previous"`
}

// RefCompareRequest is the body of POST /v1/compare.
type RefCompareRequest struct {
	Name         string `json:"name,omitempty"`
	Path         string `json:"path"`
	PreviousPath string `json:"previousPath,omitempty"`
	LatestRef    string `json:"latestRef"`
	PreviousRef  string `json:"previousRef"`
}

// Change is a modified line. From holds the latest value, To the previous one.
type Change struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DiffResult is the bucketed summary of a comparison.
type DiffResult struct {
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	Modified  []Change `json:"modified"`
	Unchanged []string `json:"unchanged"`
}

// Row is one side-by-side display row. Kind is one of "added", "removed",
// "modified" or "unchanged".
type Row struct {
	Left  string `json:"left"`
	Right string `json:"right"`
	Kind  string `json:"kind"`
	Spans []Span `json:"spans,omitempty"`
}

// Span is an intra-line fragment of a modified row. Op is one of "equal",
// "insert" or "delete".
type Span struct {
	Op   string `json:"op"`
	Text string `json:"text"`
}

// Stats counts lines per bucket.
type Stats struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Modified  int `json:"modified"`
	Unchanged int `json:"unchanged"`
}

// Comparison is the response of POST /v1/diff and POST /v1/compare.
type Comparison struct {
	Name        string     `json:"name"`
	Latest      string     `json:"latest"`
	Previous    string     `json:"previous"`
	Status      string     `json:"status"`
	Summary     string     `json:"summary"`
	Stats       Stats      `json:"stats"`
	Result      DiffResult `json:"result"`
	Rows        []Row      `json:"rows"`
	UnifiedDiff string     `json:"unifiedDiff,omitempty"`
}

// RowsResponse is the response of POST /v1/rows.
type RowsResponse struct {
	Rows []Row `json:"rows"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}
