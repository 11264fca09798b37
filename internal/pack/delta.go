package pack

// Delta is the set of objects one replica lacks relative to another.
type Delta struct {
	Issues   []string
	Diffs    map[string][]string
	Comments map[string][]string
}

// Missing returns the objects listed in want but not in have.
func Missing(have, want Manifest) Delta {
	d := Delta{Diffs: map[string][]string{}, Comments: map[string][]string{}}
	d.Issues = difference(want.Issues, have.Issues)
	for id, ids := range want.Diffs {
		if miss := difference(ids, have.Diffs[id]); len(miss) > 0 {
			d.Diffs[id] = miss
		}
	}
	for id, ids := range want.Comments {
		if miss := difference(ids, have.Comments[id]); len(miss) > 0 {
			d.Comments[id] = miss
		}
	}
	return d
}

// Counts returns the number of missing issues, diff batches and
// comments.
func (d Delta) Counts() (issues, diffs, comments int) {
	for _, ids := range d.Diffs {
		diffs += len(ids)
	}
	for _, ids := range d.Comments {
		comments += len(ids)
	}
	return len(d.Issues), diffs, comments
}

// Empty reports whether nothing is missing.
func (d Delta) Empty() bool {
	i, df, c := d.Counts()
	return i == 0 && df == 0 && c == 0
}

// Touched returns the sorted ids of issues gaining any object.
func (d Delta) Touched() []string {
	var ids []string
	ids = append(ids, d.Issues...)
	for id := range d.Diffs {
		ids = append(ids, id)
	}
	for id := range d.Comments {
		ids = append(ids, id)
	}
	return union(nil, ids)
}

// difference returns the sorted elements of a not in b.
func difference(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, v := range b {
		in[v] = true
	}
	var out []string
	for _, v := range union(nil, a) {
		if !in[v] {
			out = append(out, v)
		}
	}
	return out
}
