package domain

// SpanOp classifies a fragment of a modified line.
type SpanOp int

const (
	SpanEqual SpanOp = iota
	SpanInsert
	SpanDelete
)

// String returns the string representation of the SpanOp.
func (o SpanOp) String() string {
	if o < 0 || int(o) >= len(spanOpNames) {
		return "unknown"
	}
	return spanOpNames[o]
}

var spanOpNames = [...]string{
	SpanEqual:  "equal",
	SpanInsert: "insert",
	SpanDelete: "delete",
}

// Span is a fragment of a modified row. Insert text comes from the latest
// line, delete text from the previous line.
type Span struct {
	Op   SpanOp
	Text string
}

// InlineChange attaches spans to the row at index Row.
type InlineChange struct {
	Row   int
	Spans []Span
}
