package issues

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"issue-lite/internal/diff"
	"issue-lite/internal/graph"
	"issue-lite/internal/index"
	"issue-lite/internal/objectstore"
	"issue-lite/internal/shortlog"
)

// Filter selects issues for List. Zero fields match everything.
type Filter struct {
	// Status matches the snapshot status exactly.
	Status string
	// Tags must all be set on the issue.
	Tags []string
	// Since and Until bound the open time, inclusive.
	Since time.Time
	Until time.Time
	// Author matches a substring of the opener's name or email.
	Author string
	// Keyword matches a case-insensitive substring of the message.
	Keyword string
	// Ready keeps open issues whose chained issues are all closed;
	// Blocked keeps the others.
	Ready   bool
	Blocked bool
}

// Match reports whether snap passes the filter.
func (f Filter) Match(snap *index.Snapshot) bool {
	if f.Status != "" && snap.Status != f.Status {
		return false
	}
	for _, t := range f.Tags {
		if !snap.HasTag(t) {
			return false
		}
	}
	if !f.Since.IsZero() || !f.Until.IsZero() || f.Author != "" {
		if snap.Open == nil {
			return false
		}
		opened := diff.Time(snap.Open.Timestamp)
		if !f.Since.IsZero() && opened.Before(f.Since) {
			return false
		}
		if !f.Until.IsZero() && opened.After(f.Until) {
			return false
		}
		if f.Author != "" {
			a := snap.Open.Author
			if !strings.Contains(a.Name, f.Author) && !strings.Contains(a.Email, f.Author) {
				return false
			}
		}
	}
	if f.Keyword != "" && !strings.Contains(strings.ToLower(snap.Message), strings.ToLower(f.Keyword)) {
		return false
	}
	return true
}

// Entry is one issue in a listing.
type Entry struct {
	ID       string
	Snapshot *index.Snapshot
}

// List returns the issues passing f, oldest first. Issues that cannot be
// indexed are logged and left out.
func (s *Service) List(ctx context.Context, f Filter) ([]Entry, error) {
	ids, err := s.store.ListIssues(ctx)
	if err != nil {
		return nil, err
	}
	snaps := s.loadAll(ctx, ids)
	var blockers map[string][]string
	if f.Ready || f.Blocked {
		blockers = graph.Blockers(snaps)
	}
	var out []Entry
	for id, snap := range snaps {
		if !f.Match(snap) {
			continue
		}
		if f.Ready && !graph.Ready(snaps, blockers, id) {
			continue
		}
		if f.Blocked && len(blockers[id]) == 0 {
			continue
		}
		out = append(out, Entry{ID: id, Snapshot: snap})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	sort.SliceStable(out, func(i, j int) bool { return openedAt(out[i]) < openedAt(out[j]) })
	return out, nil
}

// loadAll returns the snapshots of ids, skipping those that cannot be
// indexed.
func (s *Service) loadAll(ctx context.Context, ids []string) graph.Snapshots {
	snaps := make(graph.Snapshots, len(ids))
	for _, id := range ids {
		snap, err := s.Snapshot(ctx, id)
		if err != nil {
			s.logger.Warn().Str("issue", id).Err(err).Msg("skipping issue")
			continue
		}
		snaps[id] = snap
	}
	return snaps
}

// blockers returns the open issues snap is chained to.
func (s *Service) blockers(ctx context.Context, id string, snap *index.Snapshot) []string {
	snaps := s.loadAll(ctx, snap.Chained)
	snaps[id] = snap
	return graph.Blockers(snaps)[id]
}

// Children returns the issues below id in the parent tree, breadth
// first.
func (s *Service) Children(ctx context.Context, id string) ([]graph.Node, graph.Snapshots, error) {
	ids, err := s.store.ListIssues(ctx)
	if err != nil {
		return nil, nil, err
	}
	snaps := s.loadAll(ctx, ids)
	return graph.Descendants(snaps, id), snaps, nil
}

// CloseOrder sorts ids so that each comes after the issues it is
// chained to. On a cycle the input order is returned unchanged.
func (s *Service) CloseOrder(ctx context.Context, ids []string) []string {
	ordered, err := graph.CloseOrder(s.loadAll(ctx, ids), ids)
	if err != nil {
		s.logger.Debug().Err(err).Msg("closing in the given order")
	}
	return ordered
}

func openedAt(e Entry) float64 {
	if e.Snapshot.Open == nil {
		return 0
	}
	return e.Snapshot.Open.Timestamp
}

// Details is an issue with its comments.
type Details struct {
	ID       string
	Snapshot *index.Snapshot
	Comments []objectstore.Comment
	// BlockedBy lists the open issues this one is chained to.
	BlockedBy []string
}

// Show returns id with its comments and marks it as the last issue used.
func (s *Service) Show(ctx context.Context, id string) (Details, error) {
	snap, err := s.Snapshot(ctx, id)
	if err != nil {
		return Details{}, err
	}
	comments, err := s.store.Comments(ctx, id)
	if err != nil {
		return Details{}, err
	}
	s.touch(id)
	s.record(id, shortlog.EventShow, nil)
	return Details{ID: id, Snapshot: snap, Comments: comments, BlockedBy: s.blockers(ctx, id, snap)}, nil
}

// Log returns the diff log of id in fold order.
func (s *Service) Log(ctx context.Context, id string) ([]diff.Diff, error) {
	if !s.store.IssueExists(id) {
		return nil, fmt.Errorf("%s: %w", id, objectstore.ErrNotAnIssue)
	}
	diffs, err := s.store.IssueLog(id).Read(ctx)
	if err != nil {
		return nil, err
	}
	return index.Sort(diffs), nil
}

// Stats summarises the repository.
type Stats struct {
	Total     int
	ByStatus  map[string]int
	ByTag     map[string]int
	ByAuthor  map[string]int
	Comments  int
	TimeSpent time.Duration
	// MeanTimeToClose averages close minus open over closed issues.
	MeanTimeToClose time.Duration
}

// Statistics scans every issue. Issues that cannot be indexed are
// logged and left out.
func (s *Service) Statistics(ctx context.Context) (Stats, error) {
	st := Stats{ByStatus: map[string]int{}, ByTag: map[string]int{}, ByAuthor: map[string]int{}}
	entries, err := s.List(ctx, Filter{})
	if err != nil {
		return st, err
	}
	now := s.clock.Now()
	var closeSum float64
	var closed int
	for _, e := range entries {
		snap := e.Snapshot
		st.Total++
		st.ByStatus[snap.Status]++
		for _, t := range snap.Tags {
			st.ByTag[t]++
		}
		if snap.Open != nil {
			st.ByAuthor[snap.Open.Author.Email]++
		}
		st.TimeSpent += snap.TimeSpent(now)
		if snap.Status == index.StatusClosed && snap.Open != nil && snap.Close != nil && snap.Close.Timestamp >= snap.Open.Timestamp {
			closeSum += snap.Close.Timestamp - snap.Open.Timestamp
			closed++
		}
		ids, err := s.store.ListCommentIDs(ctx, e.ID)
		if err != nil {
			s.logger.Warn().Str("issue", e.ID).Err(err).Msg("listing comments failed")
			continue
		}
		st.Comments += len(ids)
	}
	if closed > 0 {
		st.MeanTimeToClose = time.Duration(closeSum / float64(closed) * float64(time.Second))
	}
	return st, nil
}
