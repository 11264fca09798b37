package release

import (
	"context"
	"errors"
	"testing"

	"issue-lite/internal/diff"
	"issue-lite/internal/idgen"
	"issue-lite/internal/objectstore"
	"issue-lite/internal/testutil"
)

var alice = diff.Author{Name: "Alice", Email: "alice@example.com"}

func newManager(t *testing.T) (*Manager, *objectstore.Store) {
	t.Helper()
	store := objectstore.New(testutil.NewRepo(t))
	return New(store), store
}

func addIssue(t *testing.T, store *objectstore.Store, diffs ...diff.Diff) string {
	t.Helper()
	id := idgen.IssueID("m", nil, nil)
	if err := store.CreateIssue(id); err != nil {
		t.Fatal(err)
	}
	if _, err := store.IssueLog(id).Append(context.Background(), diffs); err != nil {
		t.Fatal(err)
	}
	return id
}

func TestStateMachine(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	if _, err := m.Close(ctx, Current, alice, 10); !errors.Is(err, ErrNoReleaseOpen) {
		t.Errorf("Close with nothing open error = %v, want ErrNoReleaseOpen", err)
	}
	if err := m.Open(ctx, "v1.0", alice, 100); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if cur, _ := m.Current(); cur != "v1.0" {
		t.Errorf("Current = %q, want v1.0", cur)
	}
	if err := m.Open(ctx, "v2.0", alice, 110); !errors.Is(err, ErrReleaseAlreadyOpen) {
		t.Errorf("second Open error = %v, want ErrReleaseAlreadyOpen", err)
	}
	if _, err := m.Close(ctx, "v2.0", alice, 120); !errors.Is(err, ErrReleaseMismatch) {
		t.Errorf("Close(wrong name) error = %v, want ErrReleaseMismatch", err)
	}
	rel, err := m.Close(ctx, "v1.0", alice, 200)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if rel.IsOpen() || rel.Closed.Timestamp != 200 {
		t.Errorf("release = %+v", rel)
	}
	if cur, _ := m.Current(); cur != "" {
		t.Errorf("Current after close = %q, want empty", cur)
	}
	if err := m.Open(ctx, "v1.0", alice, 300); !errors.Is(err, objectstore.ErrReleaseExists) {
		t.Errorf("reopening a closed release error = %v, want ErrReleaseExists", err)
	}
}

func TestClose_RecordsIssuesInWindow(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)

	before := addIssue(t, store, diff.New(alice, 50, diff.Open{}))
	if err := m.Open(ctx, "v1.0", alice, 100); err != nil {
		t.Fatal(err)
	}
	during := addIssue(t, store, diff.New(alice, 150, diff.Open{}), diff.New(alice, 160, diff.Close{}))
	if _, err := store.IssueLog(before).Append(ctx, []diff.Diff{diff.New(alice, 170, diff.Close{})}); err != nil {
		t.Fatal(err)
	}
	addIssue(t, store, diff.New(alice, 500, diff.Open{}))

	rel, err := m.Close(ctx, Current, alice, 200)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(rel.OpenedIssues) != 1 || rel.OpenedIssues[0] != during {
		t.Errorf("OpenedIssues = %v, want [%s]", rel.OpenedIssues, during)
	}
	if len(rel.ClosedIssues) != 2 {
		t.Errorf("ClosedIssues = %v, want the two issues closed in the window", rel.ClosedIssues)
	}
}

func TestListAndNotes(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	if err := m.Open(ctx, "b-second", alice, 100); err != nil {
		t.Fatal(err)
	}
	if err := m.SetNotes(Current, "Initial notes"); err != nil {
		t.Fatalf("SetNotes: %v", err)
	}
	if _, err := m.Close(ctx, Current, alice, 150); err != nil {
		t.Fatal(err)
	}
	if err := m.Open(ctx, "a-third", alice, 200); err != nil {
		t.Fatal(err)
	}

	list, err := m.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != "b-second" || list[1].Name != "a-third" {
		t.Errorf("List = %+v, want opening order", list)
	}
	if !list[1].IsOpen() || list[0].IsOpen() {
		t.Error("open/closed state wrong")
	}
	notes, err := m.Notes("b-second")
	if err != nil || notes != "Initial notes" {
		t.Errorf("Notes = %q, %v", notes, err)
	}
	if _, err := m.Load(ctx, "missing"); !errors.Is(err, objectstore.ErrNoRelease) {
		t.Errorf("Load(missing) error = %v", err)
	}
}
