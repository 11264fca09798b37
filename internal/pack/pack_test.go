package pack

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"issue-lite/internal/diff"
	"issue-lite/internal/idgen"
	"issue-lite/internal/index"
	"issue-lite/internal/objectstore"
	"issue-lite/internal/repository"
	"issue-lite/internal/testutil"
	"issue-lite/internal/transport"
)

var alice = diff.Author{Name: "Alice", Email: "alice@example.com"}

type replica struct {
	repo    repository.Handle
	store   *objectstore.Store
	indexer *index.Indexer
	rec     *Reconciler
}

func newReplica(t *testing.T, role string) *replica {
	t.Helper()
	repo := testutil.NewRepoWithRole(t, role)
	store := objectstore.New(repo)
	ix := index.New(store)
	return &replica{repo: repo, store: store, indexer: ix, rec: NewReconciler(store, ix)}
}

func (r *replica) endpoint() transport.Endpoint {
	return transport.NewFileSystem(r.repo.Root())
}

// openIssue writes an issue with one open batch, one close batch and a
// comment, and indexes it.
func (r *replica) openIssue(t *testing.T, msg string, ts float64) string {
	t.Helper()
	ctx := context.Background()
	id := idgen.IssueID(msg, nil, nil)
	if err := r.store.CreateIssue(id); err != nil {
		t.Fatal(err)
	}
	log := r.store.IssueLog(id)
	if _, err := log.Append(ctx, []diff.Diff{
		diff.New(alice, ts, diff.Open{}),
		diff.New(alice, ts, diff.SetMessage{Text: msg}),
		diff.New(alice, ts, diff.PushTags{Tags: []string{"bug"}}),
		diff.New(alice, ts, diff.PushMilestones{Milestones: []string{}}),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := log.Append(ctx, []diff.Diff{diff.New(alice, ts+10, diff.Close{})}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.store.AddComment(ctx, id, objectstore.Comment{AuthorName: "Alice", Message: "note", Timestamp: ts + 5}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.indexer.Index(ctx, id); err != nil {
		t.Fatal(err)
	}
	return id
}

func TestMissing(t *testing.T) {
	have := Manifest{
		Issues:   []string{"a"},
		Diffs:    map[string][]string{"a": {"d1"}},
		Comments: map[string][]string{"a": {"c1"}},
	}
	want := Manifest{
		Issues:   []string{"a", "b"},
		Diffs:    map[string][]string{"a": {"d1", "d2"}, "b": {"d3"}},
		Comments: map[string][]string{"a": {"c1"}, "b": {"c2"}},
	}
	d := Missing(have, want)

	if len(d.Issues) != 1 || d.Issues[0] != "b" {
		t.Errorf("Issues = %v, want [b]", d.Issues)
	}
	if got := d.Diffs["a"]; len(got) != 1 || got[0] != "d2" {
		t.Errorf("Diffs[a] = %v, want [d2]", got)
	}
	if got := d.Diffs["b"]; len(got) != 1 || got[0] != "d3" {
		t.Errorf("Diffs[b] = %v, want all diffs of the new issue", got)
	}
	if _, ok := d.Comments["a"]; ok {
		t.Error("issue a has no missing comments and should be absent")
	}
	issues, diffs, comments := d.Counts()
	if issues != 1 || diffs != 2 || comments != 1 {
		t.Errorf("Counts = %d %d %d, want 1 2 1", issues, diffs, comments)
	}
	if touched := d.Touched(); len(touched) != 2 {
		t.Errorf("Touched = %v, want [a b]", touched)
	}
	if !Missing(want, want).Empty() {
		t.Error("a manifest misses nothing relative to itself")
	}
}

func TestUnionAndEncode(t *testing.T) {
	a := Manifest{Issues: []string{"b", "a"}, Diffs: map[string][]string{"a": {"2", "1"}}}
	b := Manifest{Issues: []string{"c", "a"}, Diffs: map[string][]string{"a": {"3"}}, Comments: map[string][]string{"c": {"x"}}}
	u := Union(a, b)

	data, err := u.Encode()
	if err != nil {
		t.Fatal(err)
	}
	want := `{"issues":["a","b","c"],"comments":{"c":["x"]},"diffs":{"a":["1","2","3"]}}`
	if string(data) != want {
		t.Errorf("Encode = %s\nwant     %s", data, want)
	}
	if !Equal(u, Union(b, a)) {
		t.Error("Union is not symmetric")
	}
}

func TestBuild_Scenario(t *testing.T) {
	r := newReplica(t, repository.RoleEndpoint)
	id := r.openIssue(t, "Fix crash on startup", 1000)

	m, err := Build(context.Background(), r.store)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Issues) != 1 || m.Issues[0] != id {
		t.Errorf("Issues = %v, want [%s]", m.Issues, id)
	}
	if len(m.Diffs[id]) != 2 {
		t.Errorf("Diffs[id] = %v, want open and close batches", m.Diffs[id])
	}
	if len(m.Comments[id]) != 1 {
		t.Errorf("Comments[id] = %v", m.Comments[id])
	}
}

func TestPull_ReproducesSnapshot(t *testing.T) {
	ctx := context.Background()
	r1 := newReplica(t, repository.RoleEndpoint)
	r2 := newReplica(t, repository.RoleEndpoint)
	id := r1.openIssue(t, "Fix crash on startup", 1000)
	if _, err := r1.rec.Pack(ctx); err != nil {
		t.Fatal(err)
	}

	report, err := r2.rec.Pull(ctx, r1.endpoint(), Options{})
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if report.Failed != 0 || report.Transferred != 3 {
		t.Errorf("report = %+v, want 3 objects transferred", report)
	}
	if len(report.Reindexed) != 1 || report.Reindexed[0] != id {
		t.Errorf("Reindexed = %v", report.Reindexed)
	}

	want, err := os.ReadFile(r1.store.SnapshotPath(id))
	if err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(r2.store.SnapshotPath(id))
	if err != nil {
		t.Fatalf("snapshot not created on r2: %v", err)
	}
	if !bytes.Equal(want, got) {
		t.Errorf("snapshots differ:\nr1 %s\nr2 %s", want, got)
	}

	cached, err := Load(r2.repo.RemotePackPath())
	if err != nil || len(cached.Issues) != 1 {
		t.Errorf("remote pack cache = %+v, %v", cached, err)
	}
	local, err := Load(r2.repo.PackPath())
	if err != nil || len(local.Issues) != 1 {
		t.Errorf("local pack after pull = %+v, %v", local, err)
	}
}

func TestPull_Probe(t *testing.T) {
	ctx := context.Background()
	r1 := newReplica(t, repository.RoleEndpoint)
	r2 := newReplica(t, repository.RoleEndpoint)
	r1.openIssue(t, "one", 1000)
	if _, err := r1.rec.Pack(ctx); err != nil {
		t.Fatal(err)
	}

	report, err := r2.rec.Pull(ctx, r1.endpoint(), Options{Probe: true})
	if err != nil {
		t.Fatal(err)
	}
	issues, diffs, comments := report.Delta.Counts()
	if issues != 1 || diffs != 2 || comments != 1 {
		t.Errorf("probe counts = %d %d %d", issues, diffs, comments)
	}
	ids, _ := r2.store.ListIssues(ctx)
	if len(ids) != 0 {
		t.Errorf("probe transferred issues: %v", ids)
	}
}

func TestReconcile_Completeness(t *testing.T) {
	ctx := context.Background()
	a := newReplica(t, repository.RoleEndpoint)
	b := newReplica(t, repository.RoleEndpoint)
	a.openIssue(t, "from a", 1000)
	shared := a.openIssue(t, "shared", 2000)
	b.openIssue(t, "from b", 3000)

	if _, err := a.rec.Pack(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := b.rec.Pull(ctx, a.endpoint(), Options{}); err != nil {
		t.Fatal(err)
	}
	// b adds a diff to the shared issue after receiving it.
	if _, err := b.store.IssueLog(shared).Append(ctx, []diff.Diff{diff.New(alice, 5000, diff.SetMessage{Text: "edited"})}); err != nil {
		t.Fatal(err)
	}
	if _, err := b.rec.Pack(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := a.rec.Pull(ctx, b.endpoint(), Options{}); err != nil {
		t.Fatal(err)
	}

	ma, _ := Build(ctx, a.store)
	mb, _ := Build(ctx, b.store)
	if !Equal(ma, mb) {
		ea, _ := ma.Encode()
		eb, _ := mb.Encode()
		t.Errorf("manifests differ after reconciliation:\na %s\nb %s", ea, eb)
	}
	if issues, _, _ := ma.Count(); issues != 3 {
		t.Errorf("got %d issues, want 3", issues)
	}
	s, err := a.indexer.Load(shared)
	if err != nil || s.Message != "edited" {
		t.Errorf("shared issue on a: %+v, %v", s, err)
	}
}

func TestPush_RequiresExchange(t *testing.T) {
	ctx := context.Background()
	local := newReplica(t, repository.RoleEndpoint)
	peer := newReplica(t, repository.RoleEndpoint)
	local.openIssue(t, "x", 1)

	_, err := local.rec.Push(ctx, peer.endpoint(), Options{})
	if !errors.Is(err, ErrNotExchange) {
		t.Errorf("error = %v, want ErrNotExchange", err)
	}
	ids, _ := peer.store.ListIssues(ctx)
	if len(ids) != 0 {
		t.Errorf("rejected push still transferred %v", ids)
	}
}

func TestPush_PublishesManifestLast(t *testing.T) {
	ctx := context.Background()
	local := newReplica(t, repository.RoleEndpoint)
	hub := newReplica(t, repository.RoleExchange)
	id := local.openIssue(t, "pushed", 1000)

	report, err := local.rec.Push(ctx, hub.endpoint(), Options{})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if report.Transferred != 3 {
		t.Errorf("Transferred = %d, want 3", report.Transferred)
	}
	published, err := Load(hub.repo.PackPath())
	if err != nil {
		t.Fatal(err)
	}
	built, _ := Build(ctx, hub.store)
	if !Equal(published, built) {
		t.Error("published manifest does not match hub contents")
	}
	if len(published.Diffs[id]) != 2 {
		t.Errorf("published diffs = %v", published.Diffs[id])
	}
}

// flakyEndpoint fails writes to paths containing fail.
type flakyEndpoint struct {
	transport.Endpoint
	fail   string
	writes []string
}

func (f *flakyEndpoint) WriteFile(ctx context.Context, p string, data []byte) error {
	f.writes = append(f.writes, p)
	if f.fail != "" && strings.Contains(p, f.fail) {
		return errors.New("simulated transfer failure")
	}
	return f.Endpoint.WriteFile(ctx, p, data)
}

func TestPush_PartialFailure(t *testing.T) {
	ctx := context.Background()
	local := newReplica(t, repository.RoleEndpoint)
	hub := newReplica(t, repository.RoleExchange)
	id := local.openIssue(t, "partial", 1000)

	comments, _ := local.store.ListCommentIDs(ctx, id)
	flaky := &flakyEndpoint{Endpoint: hub.endpoint(), fail: comments[0]}

	report, err := local.rec.Push(ctx, flaky, Options{})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if report.Failed != 1 || report.Transferred != 2 {
		t.Errorf("report = %+v, want 1 failure and 2 transfers", report)
	}
	if last := flaky.writes[len(flaky.writes)-1]; last != ManifestFile {
		t.Errorf("last write = %q, want the manifest", last)
	}
	published, _ := Load(hub.repo.PackPath())
	if len(published.Comments[id]) != 0 {
		t.Errorf("manifest lists a comment that failed to transfer: %v", published.Comments[id])
	}
	if len(published.Diffs[id]) != 2 {
		t.Errorf("published diffs = %v, want both batches", published.Diffs[id])
	}

	// A retry transfers only the missing comment.
	flaky.fail = ""
	report, err = local.rec.Push(ctx, flaky, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, diffs, comments := report.Delta.Counts(); diffs != 0 || comments != 1 {
		t.Errorf("retry delta = %d diffs %d comments, want 0 and 1", diffs, comments)
	}
}

func TestRemoteRole(t *testing.T) {
	ctx := context.Background()
	hub := newReplica(t, repository.RoleExchange)
	role, err := RemoteRole(ctx, hub.endpoint())
	if err != nil || role != repository.RoleExchange {
		t.Errorf("RemoteRole = %q, %v", role, err)
	}
	role, err = RemoteRole(ctx, transport.NewFileSystem(t.TempDir()))
	if err != nil || role != repository.RoleEndpoint {
		t.Errorf("RemoteRole without status = %q, %v", role, err)
	}
}
