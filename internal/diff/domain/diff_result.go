package domain

// Change pairs a line from the latest snapshot with the previous line it
// replaced. From holds the latest value and To holds the previous value.
type Change struct {
	From string
	To   string
}

// DiffResult buckets every aligned line of a comparison. A delete/insert
// pair that became a Change appears in Modified only.
type DiffResult struct {
	Added     []string
	Removed   []string
	Modified  []Change
	Unchanged []string
}

// Stats counts the lines in each bucket.
type Stats struct {
	Added     int
	Removed   int
	Modified  int
	Unchanged int
}

// Total returns the number of bucket entries (a modified pair counts once).
func (s Stats) Total() int {
	return s.Added + s.Removed + s.Modified + s.Unchanged
}

// ComputeDiff aligns two snapshots and buckets the result.
func ComputeDiff(latest, previous string) DiffResult {
	return Classify(Align(latest, previous))
}

// Classify buckets an alignment in a single pass with one operation of
// lookahead. It depends only on ops, so a stored alignment can be
// re-classified at any time.
func Classify(ops []Operation) DiffResult {
	r := DiffResult{
		Added:     []string{},
		Removed:   []string{},
		Modified:  []Change{},
		Unchanged: []string{},
	}

	for i := 0; i < len(ops); i++ {
		op := ops[i]
		switch {
		case op.Kind == OpEqual:
			r.Unchanged = append(r.Unchanged, op.Value)
		case pairsWithNext(ops, i):
			r.Modified = append(r.Modified, Change{From: ops[i+1].Value, To: op.Value})
			i++
		case op.Kind == OpDelete:
			r.Removed = append(r.Removed, op.Value)
		case op.Kind == OpInsert:
			r.Added = append(r.Added, op.Value)
		}
	}
	return r
}

// HasChanges reports whether any line was added, removed or modified.
func (r DiffResult) HasChanges() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0 || len(r.Modified) > 0
}

// Counts returns the size of each bucket.
func (r DiffResult) Counts() Stats {
	return Stats{
		Added:     len(r.Added),
		Removed:   len(r.Removed),
		Modified:  len(r.Modified),
		Unchanged: len(r.Unchanged),
	}
}
