package e2etests

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// Runner executes the issue binary against sandbox directories.
type Runner struct {
	IssueCmd string // path to the issue binary
	// Home isolates the global config of every invocation.
	Home string
}

// newRunner returns a runner for $ISSUE_CMD, skipping the test when it
// is not set.
func newRunner(t *testing.T) *Runner {
	t.Helper()
	issueCmd := os.Getenv("ISSUE_CMD")
	if issueCmd == "" {
		t.Skip("ISSUE_CMD environment variable not set; skipping e2e tests")
	}
	return &Runner{IssueCmd: issueCmd, Home: t.TempDir()}
}

// Sandbox initialises a repository in a fresh directory and returns the
// directory. Extra args are passed to init.
func (r *Runner) Sandbox(t *testing.T, initArgs ...string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "work")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	args := append([]string{"init", dir}, initArgs...)
	if res := r.RunRaw(args...); res.ExitCode != 0 {
		t.Fatalf("init %s failed (exit %d): %s", dir, res.ExitCode, res.Stderr)
	}
	return dir
}

// RunResult holds the output of a command execution.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes an issue command in the repository found from sandbox.
func (r *Runner) Run(sandbox string, args ...string) RunResult {
	return r.RunRaw(append([]string{"--path", sandbox}, args...)...)
}

// RunJSON executes an issue command with --json appended.
func (r *Runner) RunJSON(sandbox string, args ...string) RunResult {
	return r.Run(sandbox, append(args, "--json")...)
}

// RunRaw executes the binary with the given arguments directly,
// without --path. Useful for --help and init.
func (r *Runner) RunRaw(args ...string) RunResult {
	cmd := exec.Command(r.IssueCmd, args...)
	cmd.Env = append(os.Environ(),
		"HOME="+r.Home,
		"XDG_CONFIG_HOME="+filepath.Join(r.Home, ".config"),
		"ISSUE_AUTHOR_NAME=E2E Tester",
		"ISSUE_AUTHOR_EMAIL=e2e@example.com",
		"EDITOR=false",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	return RunResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}
