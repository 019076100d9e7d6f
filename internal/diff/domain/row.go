package domain

import "fmt"

// RowKind classifies a side-by-side display row.
type RowKind int

const (
	RowUnchanged RowKind = iota
	RowAdded
	RowRemoved
	RowModified
)

// String returns the string representation of the RowKind.
func (k RowKind) String() string {
	if k < 0 || int(k) >= len(rowKindNames) {
		return "unknown"
	}
	return rowKindNames[k]
}

var rowKindNames = [...]string{
	RowUnchanged: "unchanged",
	RowAdded:     "added",
	RowRemoved:   "removed",
	RowModified:  "modified",
}

// ParseRowKind is the inverse of RowKind.String.
func ParseRowKind(s string) (RowKind, error) {
	for i, name := range rowKindNames {
		if name == s {
			return RowKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown row kind %q", s)
}

// Row is one line of a two-column comparison. Left shows the latest
// snapshot and Right the previous one.
type Row struct {
	Left  string
	Right string
	Kind  RowKind
}

// RenderRows aligns two snapshots and projects the result into rows.
func RenderRows(latest, previous string) []Row {
	return ToRows(Align(latest, previous))
}

// ToRows walks an alignment the same way Classify does and emits one row
// per consumed step, keeping alignment order.
func ToRows(ops []Operation) []Row {
	rows := make([]Row, 0, len(ops))
	for i := 0; i < len(ops); i++ {
		op := ops[i]
		switch {
		case op.Kind == OpEqual:
			rows = append(rows, Row{Left: op.Value, Right: op.Value, Kind: RowUnchanged})
		case pairsWithNext(ops, i):
			rows = append(rows, Row{Left: ops[i+1].Value, Right: op.Value, Kind: RowModified})
			i++
		case op.Kind == OpDelete:
			rows = append(rows, Row{Left: "", Right: op.Value, Kind: RowRemoved})
		case op.Kind == OpInsert:
			rows = append(rows, Row{Left: op.Value, Right: "", Kind: RowAdded})
		}
	}
	return rows
}

// CountRows counts rows per kind. For the same inputs it matches
// DiffResult.Counts.
func CountRows(rows []Row) Stats {
	var s Stats
	for _, r := range rows {
		switch r.Kind {
		case RowAdded:
			s.Added++
		case RowRemoved:
			s.Removed++
		case RowModified:
			s.Modified++
		case RowUnchanged:
			s.Unchanged++
		}
	}
	return s
}
