package issues

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"issue-lite/internal/diff"
	"issue-lite/internal/index"
	"issue-lite/internal/objectstore"
	"issue-lite/internal/pack"
	"issue-lite/internal/shortlog"
	"issue-lite/internal/tags"
	"issue-lite/internal/testutil"
)

var alice = diff.Author{Name: "Alice", Email: "alice@example.com"}

type fixture struct {
	svc    *Service
	store  *objectstore.Store
	clock  *testutil.StubClock
	events *shortlog.Log
}

func setup(t *testing.T, tagNames ...string) fixture {
	t.Helper()
	repo := testutil.NewRepo(t)
	store := objectstore.New(repo)
	clock := testutil.TickingClock(time.Second)
	for _, name := range tagNames {
		if err := tags.Make(context.Background(), store, name, alice, 1, "", false); err != nil {
			t.Fatalf("creating tag %s: %v", name, err)
		}
	}
	events := shortlog.New(repo.ShortlogPath(), 80, clock, zerolog.Nop())
	svc := New(store, alice, WithClock(clock), WithShortlog(events))
	return fixture{svc: svc, store: store, clock: clock, events: events}
}

func (f fixture) open(t *testing.T, msg string, tagNames ...string) string {
	t.Helper()
	id, _, err := f.svc.Open(context.Background(), OpenRequest{Message: msg, Tags: tagNames})
	if err != nil {
		t.Fatalf("Open(%q): %v", msg, err)
	}
	return id
}

func TestOpenCloseScenario(t *testing.T) {
	ctx := context.Background()
	f := setup(t, "bug")

	id, snap, err := f.svc.Open(ctx, OpenRequest{Message: "Fix crash on startup\n\nSegfault in init.", Tags: []string{"bug"}})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if snap.Status != index.StatusOpen {
		t.Errorf("status = %q, want open", snap.Status)
	}
	if len(snap.Tags) != 1 || snap.Tags[0] != "bug" {
		t.Errorf("tags = %v, want [bug]", snap.Tags)
	}
	if snap.Title() != "Fix crash on startup" {
		t.Errorf("title = %q", snap.Title())
	}

	snap, err = f.svc.Close(ctx, id, CloseRequest{})
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if snap.Status != index.StatusClosed {
		t.Errorf("status = %q, want closed", snap.Status)
	}
	if snap.Close.Timestamp <= snap.Open.Timestamp {
		t.Errorf("close %v not after open %v", snap.Close.Timestamp, snap.Open.Timestamp)
	}

	m, err := pack.Build(ctx, f.store)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Issues) != 1 || m.Issues[0] != id {
		t.Errorf("issues = %v, want [%s]", m.Issues, id)
	}
	if n := len(m.Diffs[id]); n != 2 {
		t.Errorf("diff batches = %d, want 2", n)
	}

	last, err := f.store.Repo().LastIssue()
	if err != nil || last != id {
		t.Errorf("last = %q, %v; want %s", last, err, id)
	}
}

func TestOpen_UnknownTag(t *testing.T) {
	f := setup(t)
	_, _, err := f.svc.Open(context.Background(), OpenRequest{Message: "x", Tags: []string{"nope"}})
	if !errors.Is(err, ErrTagNotFound) {
		t.Fatalf("err = %v, want ErrTagNotFound", err)
	}
	ids, _ := f.store.ListIssues(context.Background())
	if len(ids) != 0 {
		t.Errorf("issue created despite error: %v", ids)
	}
}

func TestOpen_EmptyMessage(t *testing.T) {
	f := setup(t)
	if _, _, err := f.svc.Open(context.Background(), OpenRequest{Message: "  \n"}); !errors.Is(err, ErrEmptyIssueMessage) {
		t.Errorf("err = %v, want ErrEmptyIssueMessage", err)
	}
}

func TestClose_ChainedOpenDependents(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	parent := f.open(t, "parent")
	child := f.open(t, "child")
	if _, err := f.svc.Link(ctx, parent, child); err != nil {
		t.Fatalf("Link: %v", err)
	}
	before, err := f.store.IssueLog(parent).List(ctx)
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.svc.Close(ctx, parent, CloseRequest{})
	var chained *ChainedOpenError
	if !errors.As(err, &chained) {
		t.Fatalf("err = %v, want *ChainedOpenError", err)
	}
	if !errors.Is(err, ErrChainedOpen) {
		t.Error("ChainedOpenError does not wrap ErrChainedOpen")
	}
	if len(chained.Dependents) != 1 || chained.Dependents[0] != child {
		t.Errorf("dependents = %v, want [%s]", chained.Dependents, child)
	}
	after, _ := f.store.IssueLog(parent).List(ctx)
	if len(after) != len(before) {
		t.Errorf("close diff written despite error: %d batches, want %d", len(after), len(before))
	}

	if _, err := f.svc.Close(ctx, child, CloseRequest{}); err != nil {
		t.Fatalf("Close child: %v", err)
	}
	if _, err := f.svc.Close(ctx, parent, CloseRequest{}); err != nil {
		t.Errorf("Close parent after child closed: %v", err)
	}
}

func TestClose_GitCommit(t *testing.T) {
	f := setup(t)
	id := f.open(t, "x")
	gitTS := 1700000000.0
	snap, err := f.svc.Close(context.Background(), id, CloseRequest{GitCommit: "abc123", GitTimestamp: &gitTS})
	if err != nil {
		t.Fatal(err)
	}
	if snap.ClosingGitCommit != "abc123" || snap.Close.Timestamp != gitTS {
		t.Errorf("close = %+v commit %q", snap.Close, snap.ClosingGitCommit)
	}
}

func TestTags(t *testing.T) {
	ctx := context.Background()
	f := setup(t, "bug", "ui")
	id := f.open(t, "x", "bug")

	if _, err := f.svc.AddTags(ctx, id, "missing"); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("AddTags missing: %v", err)
	}
	snap, err := f.svc.AddTags(ctx, id, "ui", "bug")
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Tags) != 2 {
		t.Errorf("tags = %v, want bug and ui once each", snap.Tags)
	}
	if _, err := f.svc.RemoveTags(ctx, id, "ui"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.RemoveTags(ctx, id, "ui"); !errors.Is(err, ErrTagNotPresent) {
		t.Errorf("second RemoveTags: %v, want ErrTagNotPresent", err)
	}
}

func TestParams(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	id := f.open(t, "x")
	snap, err := f.svc.SetParam(ctx, id, "priority", "high")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Parameters["priority"] != "high" {
		t.Errorf("parameters = %v", snap.Parameters)
	}
	if _, err := f.svc.RemoveParam(ctx, id, "priority"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.RemoveParam(ctx, id, "priority"); !errors.Is(err, ErrParameterNotSet) {
		t.Errorf("err = %v, want ErrParameterNotSet", err)
	}
}

func TestRelations(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a := f.open(t, "a")
	b := f.open(t, "b")

	if _, err := f.svc.Link(ctx, a, a); !errors.Is(err, ErrSelfReference) {
		t.Errorf("self link: %v", err)
	}
	if _, err := f.svc.SetParent(ctx, b, a); err != nil {
		t.Fatal(err)
	}
	snap, err := f.svc.Attach(ctx, b, a)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Parent != a || len(snap.Attached) != 1 {
		t.Errorf("parent %q attached %v", snap.Parent, snap.Attached)
	}
	if _, err := f.svc.Link(ctx, a, b); err != nil {
		t.Fatal(err)
	}
	snap, err = f.svc.Unlink(ctx, a, b)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Chained) != 0 {
		t.Errorf("chained = %v after unlink", snap.Chained)
	}
}

func TestWork(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	id := f.open(t, "x")

	if _, err := f.svc.StopWork(ctx, id); !errors.Is(err, ErrNoWorkInProgress) {
		t.Errorf("StopWork before start: %v", err)
	}
	if _, err := f.svc.StartWork(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.StartWork(ctx, id); !errors.Is(err, ErrWorkInProgress) {
		t.Errorf("second StartWork: %v", err)
	}
	f.clock.Advance(time.Hour)
	snap, err := f.svc.StopWork(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if snap.WorkSeconds < 3600 {
		t.Errorf("work seconds = %v, want at least an hour", snap.WorkSeconds)
	}
}

func TestResolveLast(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	if _, err := f.svc.Resolve(ctx, LastIssueRef); !errors.Is(err, ErrNoLastIssue) {
		t.Errorf("err = %v, want ErrNoLastIssue", err)
	}
	id := f.open(t, "x")
	got, err := f.svc.Resolve(ctx, LastIssueRef)
	if err != nil || got != id {
		t.Errorf("Resolve(-) = %q, %v; want %s", got, err, id)
	}
	if err := f.svc.Drop(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Resolve(ctx, LastIssueRef); !errors.Is(err, ErrNoLastIssue) {
		t.Errorf("after drop: %v", err)
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	f := setup(t, "bug")
	a := f.open(t, "Crash in parser", "bug")
	f.clock.Advance(72 * time.Hour)
	b := f.open(t, "Slow startup")
	if _, err := f.svc.Close(ctx, b, CloseRequest{}); err != nil {
		t.Fatal(err)
	}
	now := f.clock.Now()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{a, b}},
		{"open", Filter{Status: index.StatusOpen}, []string{a}},
		{"closed", Filter{Status: index.StatusClosed}, []string{b}},
		{"tag", Filter{Tags: []string{"bug"}}, []string{a}},
		{"keyword", Filter{Keyword: "PARSER"}, []string{a}},
		{"author", Filter{Author: "alice@"}, []string{a, b}},
		{"other author", Filter{Author: "bob"}, nil},
		{"since", Filter{Since: now.Add(-24 * time.Hour)}, []string{b}},
		{"until", Filter{Until: now.Add(-24 * time.Hour)}, []string{a}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := f.svc.List(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(entries), len(tt.want))
			}
			for i, e := range entries {
				if e.ID != tt.want[i] {
					t.Errorf("entry %d = %s, want %s", i, e.ID, tt.want[i])
				}
			}
		})
	}
}

func TestShowRecordsEvents(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	id := f.open(t, "x")
	if _, err := f.svc.Comment(ctx, id, "first"); err != nil {
		t.Fatal(err)
	}
	d, err := f.svc.Show(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Comments) != 1 || d.Comments[0].Message != "first" {
		t.Errorf("comments = %+v", d.Comments)
	}
	var kinds []string
	for _, e := range f.events.Read() {
		kinds = append(kinds, e.Event)
	}
	want := []string{shortlog.EventOpen, shortlog.EventComment, shortlog.EventShow}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("events = %v, want %v", kinds, want)
		}
	}
}

func TestLogAndStatistics(t *testing.T) {
	ctx := context.Background()
	f := setup(t, "bug")
	a := f.open(t, "a", "bug")
	f.open(t, "b")
	if _, err := f.svc.Close(ctx, a, CloseRequest{}); err != nil {
		t.Fatal(err)
	}

	diffs, err := f.svc.Log(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := diffs[0].Action.(diff.Open); !ok {
		t.Errorf("first diff = %T, want open", diffs[0].Action)
	}
	if _, ok := diffs[len(diffs)-1].Action.(diff.Close); !ok {
		t.Errorf("last diff = %T, want close", diffs[len(diffs)-1].Action)
	}

	st, err := f.svc.Statistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Total != 2 || st.ByStatus[index.StatusOpen] != 1 || st.ByStatus[index.StatusClosed] != 1 {
		t.Errorf("stats = %+v", st)
	}
	if st.ByTag["bug"] != 1 || st.ByAuthor[alice.Email] != 2 {
		t.Errorf("stats = %+v", st)
	}
	if st.MeanTimeToClose <= 0 {
		t.Errorf("mean time to close = %v", st.MeanTimeToClose)
	}
}

func TestParseTime(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"3d", now.Add(-72 * time.Hour)},
		{"2w", now.Add(-14 * 24 * time.Hour)},
		{"90m", now.Add(-90 * time.Minute)},
		{"2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"2024-01-02T15:04", time.Date(2024, 1, 2, 15, 4, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseTime(tt.in, now)
		if err != nil {
			t.Errorf("ParseTime(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	for _, bad := range []string{"", "3x", "yesterday", "d3"} {
		if _, err := ParseTime(bad, now); !errors.Is(err, ErrInvalidTimeDelta) {
			t.Errorf("ParseTime(%q) err = %v, want ErrInvalidTimeDelta", bad, err)
		}
	}
}
