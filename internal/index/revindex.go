package index

import (
	"context"

	"issue-lite/internal/diff"
)

// Revindex synthesizes a diff batch reproducing the stored snapshot of
// id and appends it to the issue's log. The result is lossy: parameters,
// links and history are not recovered. fallback authors the diffs when
// the snapshot does not name one.
func (ix *Indexer) Revindex(ctx context.Context, id string, fallback diff.Author) (string, error) {
	s, err := ix.Load(id)
	if err != nil {
		return "", err
	}
	return ix.store.IssueLog(id).Append(ctx, Synthesize(s, fallback))
}

// Synthesize returns the diffs that rebuild s from the empty snapshot.
func Synthesize(s *Snapshot, fallback diff.Author) []diff.Diff {
	author := fallback
	var ts float64
	if s.Open != nil {
		ts = s.Open.Timestamp
		if s.Open.Author != (diff.Author{}) {
			author = s.Open.Author
		}
	}
	out := []diff.Diff{
		diff.New(author, ts, diff.Open{}),
		diff.New(author, ts+1, diff.SetMessage{Text: s.Message}),
		diff.New(author, ts+1, diff.PushTags{Tags: nonNil(s.Tags)}),
		diff.New(author, ts+1, diff.PushMilestones{Milestones: nonNil(s.Milestones)}),
	}
	if s.Status == StatusClosed {
		closer := fallback
		var closeTS float64
		if s.Close != nil {
			closeTS = s.Close.Timestamp
			if s.Close.Author != (diff.Author{}) {
				closer = s.Close.Author
			}
		}
		if closeTS < ts+1 {
			closeTS = ts + 1
		}
		out = append(out, diff.New(closer, closeTS, diff.Close{GitCommit: s.ClosingGitCommit}))
	}
	return out
}
