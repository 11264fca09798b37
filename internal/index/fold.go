package index

import (
	"sort"

	"issue-lite/internal/diff"
)

// Sort orders diffs by timestamp. Diffs sharing a timestamp keep their
// relative order.
func Sort(diffs []diff.Diff) []diff.Diff {
	out := append([]diff.Diff(nil), diffs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

// Fold replays diffs in timestamp order on top of seed and returns the
// resulting snapshot. seed is not modified; a nil seed means the empty
// snapshot. Fold is pure: equal inputs give equal snapshots.
func Fold(seed *Snapshot, diffs []diff.Diff) *Snapshot {
	var s *Snapshot
	if seed == nil {
		s = NewSnapshot()
	} else {
		s = seed.Clone()
	}
	for _, d := range Sort(diffs) {
		apply(s, d)
	}
	return s
}

func apply(s *Snapshot, d diff.Diff) {
	switch a := d.Action.(type) {
	case diff.Open:
		s.Status = StatusOpen
		s.Open = &Stamp{Author: d.Author, Timestamp: d.Timestamp}
	case diff.Close:
		s.Status = StatusClosed
		ts := d.Timestamp
		if a.GitTimestamp != nil {
			ts = *a.GitTimestamp
		}
		s.Close = &Stamp{Author: d.Author, Timestamp: ts}
		if a.GitCommit != "" {
			s.ClosingGitCommit = a.GitCommit
		}
	case diff.SetMessage:
		s.Message = a.Text
	case diff.PushTags:
		s.Tags = addAll(s.Tags, a.Tags)
	case diff.RemoveTags:
		// Historical logs may remove tags that were never pushed.
		s.Tags = removeAll(s.Tags, a.Tags)
	case diff.ParameterSet:
		s.Parameters[a.Key] = a.Value
	case diff.ParameterRemove:
		delete(s.Parameters, a.Key)
	case diff.PushMilestones:
		s.Milestones = append(s.Milestones, a.Milestones...)
	case diff.SetStatus:
		s.Status = a.Status
	case diff.SetProjectTag:
		s.ProjectTag = a.Tag
	case diff.SetProjectName:
		s.ProjectName = a.Name
	case diff.ChainLink:
		s.Chained = addAll(s.Chained, a.IDs)
	case diff.ChainUnlink:
		s.Chained = removeAll(s.Chained, a.IDs)
	case diff.ChainAttach:
		s.Attached = addAll(s.Attached, a.IDs)
	case diff.SetParent:
		s.Parent = a.ID
	case diff.WorkStart:
		if _, running := s.WorkStarted[d.Author.Email]; !running {
			s.WorkStarted[d.Author.Email] = d.Timestamp
		}
	case diff.WorkStop:
		if start, running := s.WorkStarted[d.Author.Email]; running {
			if d.Timestamp > start {
				s.WorkSeconds += d.Timestamp - start
			}
			delete(s.WorkStarted, d.Author.Email)
		}
	default:
		// Unknown and non-issue actions leave the snapshot unchanged.
	}
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// addAll appends the values of add not already in list.
func addAll(list, add []string) []string {
	for _, v := range add {
		if !contains(list, v) {
			list = append(list, v)
		}
	}
	return list
}

// removeAll drops every value of rm from list. Missing values are
// ignored.
func removeAll(list, rm []string) []string {
	out := list[:0]
	for _, v := range list {
		if !contains(rm, v) {
			out = append(out, v)
		}
	}
	return out
}
