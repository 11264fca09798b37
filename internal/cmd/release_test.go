package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"issue-lite/internal/release"
)

func TestReleaseFlow(t *testing.T) {
	app := setupTestApp(t)
	provider := NewTestProvider(app)

	before := openIssue(t, app, "before the release")
	mustRun(t, app, newReleaseCmd(provider), "open", "v1.0")
	if _, err := run(t, app, newReleaseCmd(provider), "open", "v1.1"); !errors.Is(err, release.ErrReleaseAlreadyOpen) {
		t.Errorf("second open: %v", err)
	}

	during := openIssue(t, app, "during the release")
	mustRun(t, app, newCloseCmd(provider), before)

	mustRun(t, app, newReleaseCmd(provider), "notes", "-m", "First stable release")
	out := mustRun(t, app, newReleaseCmd(provider), "notes", "v1.0")
	if out != "First stable release\n" {
		t.Errorf("notes = %q", out)
	}

	app.JSON = true
	out = mustRun(t, app, newReleaseCmd(NewTestProvider(app)), "close")
	var rel ReleaseJSON
	decodeJSON(t, out, &rel)
	if rel.Name != "v1.0" || rel.Open {
		t.Errorf("release = %+v", rel)
	}
	if len(rel.OpenedIssues) != 1 || rel.OpenedIssues[0] != during {
		t.Errorf("opened issues = %v, want [%s]", rel.OpenedIssues, during)
	}
	if len(rel.ClosedIssues) != 1 || rel.ClosedIssues[0] != before {
		t.Errorf("closed issues = %v, want [%s]", rel.ClosedIssues, before)
	}

	if _, err := run(t, app, newReleaseCmd(NewTestProvider(app)), "close"); !errors.Is(err, release.ErrNoReleaseOpen) {
		t.Errorf("close without open release: %v", err)
	}

	out = mustRun(t, app, newReleaseCmd(NewTestProvider(app)), "ls")
	var rels []ReleaseJSON
	decodeJSON(t, out, &rels)
	if len(rels) != 1 || rels[0].Name != "v1.0" {
		t.Errorf("releases = %+v", rels)
	}
}

func TestReleaseNotesFromFileAndEditor(t *testing.T) {
	app := setupTestApp(t)
	provider := NewTestProvider(app)
	mustRun(t, app, newReleaseCmd(provider), "open", "v2")

	file := filepath.Join(t.TempDir(), "notes.md")
	if err := os.WriteFile(file, []byte("  from a file  \n"), 0644); err != nil {
		t.Fatal(err)
	}
	out := mustRun(t, app, newReleaseCmd(provider), "notes", "--file", file)
	if out != "from a file\n" {
		t.Errorf("notes = %q", out)
	}
	out = mustRun(t, app, newReleaseCmd(provider), "notes", "--edit")
	if !strings.HasPrefix(out, "edited message") {
		t.Errorf("notes = %q", out)
	}
}
