package cmd

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"issue-lite/internal/objectstore"
	"issue-lite/internal/pack"
	"issue-lite/internal/repository"
	"issue-lite/internal/synclock"
	"issue-lite/internal/testutil"
	"issue-lite/internal/transport"
)

func TestPullFromEndpoint(t *testing.T) {
	src := setupTestApp(t)
	id := openIssue(t, src, "Shared issue")
	mustRun(t, src, newCommentCmd(NewTestProvider(src)), id, "-m", "first")
	mustRun(t, src, newPackCmd(NewTestProvider(src)))

	dst := setupTestApp(t)
	provider := NewTestProvider(dst)
	mustRun(t, dst, newRemoteCmd(provider), "set", "origin", src.Repo.WorkDir())

	out := mustRun(t, dst, newPullCmd(provider), "--probe")
	if !strings.Contains(out, "would transfer 1 issues, 1 diffs, 1 comments") {
		t.Errorf("probe output %q", out)
	}
	if dst.Store.IssueExists(id) {
		t.Fatal("probe transferred objects")
	}

	dst.JSON = true
	out = mustRun(t, dst, newPullCmd(NewTestProvider(dst)))
	var report ReportJSON
	decodeJSON(t, out, &report)
	if report.Remote != "origin" || len(report.Reindexed) != 1 || report.Reindexed[0] != id || report.Failed != 0 {
		t.Errorf("report = %+v", report)
	}

	snap, err := dst.Indexer.Load(id)
	if err != nil {
		t.Fatalf("pulled issue not indexed: %v", err)
	}
	if snap.Message != "Shared issue" {
		t.Errorf("message = %q", snap.Message)
	}

	// A second pull has nothing left to fetch.
	out = mustRun(t, dst, newPullCmd(NewTestProvider(dst)))
	decodeJSON(t, out, &report)
	if report.Transferred != 0 || report.Issues+report.Diffs+report.Comments != 0 {
		t.Errorf("second pull = %+v", report)
	}
}

func TestPushToExchange(t *testing.T) {
	src := setupTestApp(t)
	provider := NewTestProvider(src)
	id := openIssue(t, src, "Pushed issue")

	endpoint := testutil.NewRepo(t)
	mustRun(t, src, newRemoteCmd(provider), "set", "peer", endpoint.WorkDir())
	if _, err := run(t, src, newPushCmd(provider), "peer"); !errors.Is(err, pack.ErrNotExchange) {
		t.Errorf("push to endpoint: %v", err)
	}

	hub := testutil.NewRepoWithRole(t, repository.RoleExchange)
	mustRun(t, src, newRemoteCmd(provider), "set", "hub", hub.WorkDir(), "--exchange")
	out := mustRun(t, src, newPushCmd(provider), "hub")
	if !strings.Contains(out, "Pushed hub") {
		t.Errorf("push output %q", out)
	}

	m, err := pack.Load(hub.PackPath())
	if err != nil {
		t.Fatalf("hub manifest: %v", err)
	}
	if !slices.Contains(m.Issues, id) {
		t.Errorf("hub manifest lacks %s: %+v", id, m)
	}

	// The hub can now serve a third replica.
	third := setupTestAppIn(t, testutil.NewRepo(t))
	mustRun(t, third, newRemoteCmd(NewTestProvider(third)), "set", "hub", hub.WorkDir())
	mustRun(t, third, newPullCmd(NewTestProvider(third)))
	if _, err := third.Indexer.Load(id); err != nil {
		t.Errorf("issue did not travel through the hub: %v", err)
	}
}

func TestRemoteCommands(t *testing.T) {
	app := setupTestApp(t)
	provider := NewTestProvider(app)
	hub := testutil.NewRepoWithRole(t, repository.RoleExchange)

	mustRun(t, app, newRemoteCmd(provider), "set", "hub", hub.WorkDir(), "--exchange")
	out := mustRun(t, app, newRemoteCmd(provider), "show", "hub")
	if !strings.Contains(out, "hub (exchange)") || !strings.Contains(out, "0 issues") {
		t.Errorf("show output %q", out)
	}
	out = mustRun(t, app, newRemoteCmd(provider), "ls")
	if !strings.Contains(out, "hub\t"+hub.WorkDir()+"\texchange") {
		t.Errorf("ls output %q", out)
	}

	mustRun(t, app, newRemoteCmd(provider), "rm", "hub")
	if _, err := run(t, app, newPullCmd(provider), "hub"); !errors.Is(err, repository.ErrRemoteNotFound) {
		t.Errorf("pull from removed remote: %v", err)
	}
}

func TestPushRefusedWhileExchangeLocked(t *testing.T) {
	app := setupTestApp(t)
	provider := NewTestProvider(app)
	id := openIssue(t, app, "Waiting issue")

	hub := testutil.NewRepoWithRole(t, repository.RoleExchange)
	mustRun(t, app, newRemoteCmd(provider), "set", "hub", hub.WorkDir(), "--exchange")
	hubStore := objectstore.New(hub)
	ep := transport.NewFileSystem(hub.WorkDir())
	if _, err := synclock.Acquire(context.Background(), ep, "other-host:1", app.Clock.Now()); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, app, newPushCmd(provider), "hub"); !errors.Is(err, synclock.ErrHeld) {
		t.Errorf("push while locked: %v", err)
	}
	if hubStore.IssueExists(id) {
		t.Error("objects sent while the exchange was locked")
	}
	// Probes write nothing and ignore the lock.
	mustRun(t, app, newPushCmd(provider), "hub", "--probe")

	if err := synclock.Release(context.Background(), ep, "other-host:1"); err != nil {
		t.Fatal(err)
	}
	mustRun(t, app, newPushCmd(provider), "hub")
	if !hubStore.IssueExists(id) {
		t.Error("issue not pushed after the lock was released")
	}
	if _, err := synclock.Check(context.Background(), ep); !errors.Is(err, transport.ErrNotExist) {
		t.Errorf("lock not released after push: %v", err)
	}
}
