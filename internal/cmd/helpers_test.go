package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"issue-lite/internal/config"
	"issue-lite/internal/editor"
	"issue-lite/internal/repository"
	"issue-lite/internal/testutil"
)

// setupTestApp returns an App over a fresh endpoint repository with an
// author configured and an editor that writes "edited message".
func setupTestApp(t *testing.T) *App {
	t.Helper()
	return setupTestAppIn(t, testutil.NewRepo(t))
}

func setupTestAppIn(t *testing.T, repo repository.Handle) *App {
	t.Helper()
	cfg, err := loadConfig(config.Paths{Local: repo.ConfigPath()})
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	cfg.SetInMemory(config.KeyAuthorName, "Alice")
	cfg.SetInMemory(config.KeyAuthorEmail, "alice@example.com")
	app := newApp(repo, cfg, testutil.TickingClock(time.Second), zerolog.Nop(), &bytes.Buffer{}, &bytes.Buffer{})
	app.Editor = editor.New("vi", "#", repo.TmpDir(), editor.WithRunner(editorWriting("edited message")))
	return app
}

func editorWriting(text string) editor.Runner {
	return func(ctx context.Context, name, path string) error {
		return os.WriteFile(path, []byte(text), 0644)
	}
}

// run executes cmd with args and returns what it printed on stdout.
func run(t *testing.T, app *App, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := app.Out.(*bytes.Buffer)
	out.Reset()
	app.Err.(*bytes.Buffer).Reset()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(app.Err)
	err := cmd.Execute()
	return out.String(), err
}

// mustRun is run that fails the test on error.
func mustRun(t *testing.T, app *App, cmd *cobra.Command, args ...string) string {
	t.Helper()
	out, err := run(t, app, cmd, args...)
	if err != nil {
		t.Fatalf("%s %v: %v", cmd.Name(), args, err)
	}
	return out
}

// openIssue opens an issue through the open command and returns its id.
func openIssue(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out := mustRun(t, app, newOpenCmd(NewTestProvider(app)), args...)
	id := extractOpenedID(out)
	if id == "" {
		t.Fatalf("no id in open output %q", out)
	}
	return id
}

// extractOpenedID extracts the issue ID from open command output:
//
//	✓ Opened issue: <id>
//	  Title: ...
func extractOpenedID(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if _, id, ok := strings.Cut(line, "Opened issue:"); ok {
			return strings.TrimSpace(id)
		}
	}
	return ""
}

func decodeJSON(t *testing.T, data string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(data), v); err != nil {
		t.Fatalf("decoding %q: %v", data, err)
	}
}
