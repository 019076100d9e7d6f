package domain

// OpKind classifies one step of an alignment.
type OpKind int

const (
	OpEqual  OpKind = iota // Line present in both snapshots
	OpInsert               // Line present only in the latest snapshot
	OpDelete               // Line present only in the previous snapshot
)

// String returns the string representation of the OpKind.
func (k OpKind) String() string {
	if k < 0 || int(k) >= len(opKindNames) {
		return "unknown"
	}
	return opKindNames[k]
}

var opKindNames = [...]string{
	OpEqual:  "equal",
	OpInsert: "insert",
	OpDelete: "delete",
}

// Operation is a single aligned line.
type Operation struct {
	Kind  OpKind
	Value string
}

// pairsWithNext reports whether ops[i] is a delete immediately followed by
// an insert. Such a pair surfaces as one modified line.
//
// Only adjacent pairs are considered. A run of two deletes followed by two
// inserts pairs the second delete with the first insert and leaves the
// rest as a lone delete and a lone insert.
func pairsWithNext(ops []Operation, i int) bool {
	return ops[i].Kind == OpDelete && i+1 < len(ops) && ops[i+1].Kind == OpInsert
}
