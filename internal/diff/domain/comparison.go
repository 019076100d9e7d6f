package domain

// Status represents the outcome of a comparison.
type Status int

const (
	StatusSuccess Status = iota // No changes detected
	StatusChanges               // Changes detected
	StatusError                 // Error occurred while comparing
)

// String returns the string representation of the Status.
// Implements the Stringer interface.
func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "Unknown"
	}
	return statusNames[s]
}

var statusNames = [...]string{
	StatusSuccess: "Success",
	StatusChanges: "Changes",
	StatusError:   "Error",
}

// Comparison is the reported outcome of diffing two snapshots of one diagram.
type Comparison struct {
	Name          string
	LatestLabel   string
	PreviousLabel string
	Status        Status
	Result        DiffResult
	Rows          []Row
	Inline        []InlineChange // Intra-line spans for modified rows
	UnifiedDiff   string
	Summary       string // Human-readable summary (or error message if Status == StatusError)
}

// Stats returns the bucket counts of the comparison.
func (c Comparison) Stats() Stats {
	return c.Result.Counts()
}

// CountByStatus returns counts of comparisons grouped by status.
func CountByStatus(comparisons []Comparison) (success, changes, errors int) {
	for _, c := range comparisons {
		switch c.Status {
		case StatusSuccess:
			success++
		case StatusChanges:
			changes++
		case StatusError:
			errors++
		}
	}
	return
}

// DiffLabel creates an identifier for one side of a comparison.
// Example: "models/shop.uml (main)"
func DiffLabel(name, ref string) string {
	if ref == "" {
		return name
	}
	return name + " (" + ref + ")"
}
