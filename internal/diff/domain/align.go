package domain

// Align compares two snapshots line by line and returns the edit script
// turning previous into latest, in left-to-right order.
func Align(latest, previous string) []Operation {
	return AlignLines(SplitLines(latest), SplitLines(previous))
}

// AlignLines computes a longest-common-subsequence alignment of two line
// sequences. When both directions keep the same LCS length the latest line
// is taken as an insert before the previous line is taken as a delete, so
// a replaced line comes out as a delete followed by an insert.
func AlignLines(latest, previous []string) []Operation {
	a, b := previous, latest
	table := lcsTable(a, b)

	ops := make([]Operation, 0, len(a)+len(b))
	i, j := len(a), len(b)
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && a[i-1] == b[j-1]:
			ops = append(ops, Operation{Kind: OpEqual, Value: a[i-1]})
			i--
			j--
		case j > 0 && (i == 0 || table[i][j-1] >= table[i-1][j]):
			ops = append(ops, Operation{Kind: OpInsert, Value: b[j-1]})
			j--
		default:
			ops = append(ops, Operation{Kind: OpDelete, Value: a[i-1]})
			i--
		}
	}

	reverse(ops)
	return ops
}

// lcsTable returns L where L[i][j] is the LCS length of a[:i] and b[:j].
func lcsTable(a, b []string) [][]int {
	table := make([][]int, len(a)+1)
	for i := range table {
		table[i] = make([]int, len(b)+1)
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				table[i][j] = table[i-1][j-1] + 1
			} else {
				table[i][j] = max(table[i-1][j], table[i][j-1])
			}
		}
	}
	return table
}

func reverse(ops []Operation) {
	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}
}
