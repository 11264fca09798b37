// Package release implements the single-active-release state machine.
//
// At most one release is open repository-wide; its name is kept in the
// .issue/next_release pointer file. Closing a release records which
// issues were opened and closed while it was open.
package release

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"issue-lite/internal/diff"
	"issue-lite/internal/objectstore"
)

// Current is the sentinel accepted by Close for "whichever release is
// open".
const Current = "-"

var (
	ErrReleaseAlreadyOpen = errors.New("a release is already open")
	ErrNoReleaseOpen      = errors.New("no release is open")
	ErrReleaseMismatch    = errors.New("release is not the open one")
)

// Stamp records who performed a transition and when.
type Stamp struct {
	Author    diff.Author
	Timestamp float64
}

// Release is the folded state of a release log.
type Release struct {
	Name         string
	Opened       *Stamp
	Closed       *Stamp
	OpenedIssues []string
	ClosedIssues []string
}

// IsOpen reports whether the release has not been closed.
func (r Release) IsOpen() bool { return r.Closed == nil }

// Manager drives releases of one repository.
type Manager struct {
	store *objectstore.Store
}

// New returns a release manager for store.
func New(store *objectstore.Store) *Manager {
	return &Manager{store: store}
}

// Current returns the name of the open release, or "".
func (m *Manager) Current() (string, error) {
	return m.store.Repo().NextRelease()
}

// Open starts release name. It fails if any release is open.
func (m *Manager) Open(ctx context.Context, name string, author diff.Author, ts float64) error {
	if err := objectstore.ValidateName(name); err != nil {
		return err
	}
	cur, err := m.Current()
	if err != nil {
		return err
	}
	if cur != "" {
		return fmt.Errorf("%q is open: %w", cur, ErrReleaseAlreadyOpen)
	}
	if m.store.ReleaseExists(name) {
		return fmt.Errorf("%q: %w", name, objectstore.ErrReleaseExists)
	}
	if _, err := m.store.ReleaseLog(name).Append(ctx, []diff.Diff{diff.New(author, ts, diff.Open{Name: name})}); err != nil {
		return err
	}
	return m.store.Repo().SetNextRelease(name)
}

// Close ends the open release. name must be the open release or
// Current. The closing batch lists the issues opened and closed since
// the release was opened.
func (m *Manager) Close(ctx context.Context, name string, author diff.Author, ts float64) (Release, error) {
	cur, err := m.Current()
	if err != nil {
		return Release{}, err
	}
	if cur == "" {
		return Release{}, ErrNoReleaseOpen
	}
	if name != Current && name != cur {
		return Release{}, fmt.Errorf("%q (open release is %q): %w", name, cur, ErrReleaseMismatch)
	}
	rel, err := m.Load(ctx, cur)
	if err != nil {
		return Release{}, err
	}
	var since float64
	if rel.Opened != nil {
		since = rel.Opened.Timestamp
	}
	opened, closed, err := m.scan(ctx, since, ts)
	if err != nil {
		return Release{}, err
	}

	batch := []diff.Diff{diff.New(author, ts, diff.Close{})}
	if len(opened) > 0 {
		batch = append(batch, diff.New(author, ts, diff.OpenIssue{IDs: opened}))
	}
	if len(closed) > 0 {
		batch = append(batch, diff.New(author, ts, diff.CloseIssue{IDs: closed}))
	}
	if _, err := m.store.ReleaseLog(cur).Append(ctx, batch); err != nil {
		return Release{}, err
	}
	if err := m.store.Repo().SetNextRelease(""); err != nil {
		return Release{}, err
	}
	return m.Load(ctx, cur)
}

// scan returns the issues with an open or close diff in (since, until].
func (m *Manager) scan(ctx context.Context, since, until float64) (opened, closed []string, err error) {
	ids, err := m.store.ListIssues(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, id := range ids {
		diffs, err := m.store.IssueLog(id).Read(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", id, err)
		}
		var o, c bool
		for _, d := range diffs {
			if d.Timestamp <= since || d.Timestamp > until {
				continue
			}
			switch d.Action.(type) {
			case diff.Open:
				o = true
			case diff.Close:
				c = true
			}
		}
		if o {
			opened = append(opened, id)
		}
		if c {
			closed = append(closed, id)
		}
	}
	return opened, closed, nil
}

// Load folds the log of release name.
func (m *Manager) Load(ctx context.Context, name string) (Release, error) {
	if !m.store.ReleaseExists(name) {
		return Release{}, fmt.Errorf("%q: %w", name, objectstore.ErrNoRelease)
	}
	diffs, err := m.store.ReleaseLog(name).Read(ctx)
	if err != nil {
		return Release{}, err
	}
	sort.SliceStable(diffs, func(i, j int) bool { return diffs[i].Timestamp < diffs[j].Timestamp })
	rel := Release{Name: name}
	for _, d := range diffs {
		switch a := d.Action.(type) {
		case diff.Open:
			rel.Opened = &Stamp{Author: d.Author, Timestamp: d.Timestamp}
		case diff.Close:
			rel.Closed = &Stamp{Author: d.Author, Timestamp: d.Timestamp}
		case diff.OpenIssue:
			rel.OpenedIssues = append(rel.OpenedIssues, a.IDs...)
		case diff.CloseIssue:
			rel.ClosedIssues = append(rel.ClosedIssues, a.IDs...)
		}
	}
	return rel, nil
}

// List returns every release ordered by opening time.
func (m *Manager) List(ctx context.Context) ([]Release, error) {
	names, err := m.store.ListReleases(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Release, 0, len(names))
	for _, name := range names {
		rel, err := m.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, rel)
	}
	sort.SliceStable(out, func(i, j int) bool { return openedAt(out[i]) < openedAt(out[j]) })
	return out, nil
}

// Notes returns the notes of release name; Current selects the open
// release.
func (m *Manager) Notes(name string) (string, error) {
	name, err := m.resolve(name)
	if err != nil {
		return "", err
	}
	return m.store.ReleaseNotes(name)
}

// SetNotes replaces the notes of release name; Current selects the open
// release.
func (m *Manager) SetNotes(name, notes string) error {
	name, err := m.resolve(name)
	if err != nil {
		return err
	}
	return m.store.SetReleaseNotes(name, notes)
}

func (m *Manager) resolve(name string) (string, error) {
	if name != Current {
		return name, nil
	}
	cur, err := m.Current()
	if err != nil {
		return "", err
	}
	if cur == "" {
		return "", ErrNoReleaseOpen
	}
	return cur, nil
}

func openedAt(r Release) float64 {
	if r.Opened == nil {
		return 0
	}
	return r.Opened.Timestamp
}
