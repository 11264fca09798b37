// Package editor obtains messages from the user's text editor.
package editor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"issue-lite/internal/fsutil"
)

// ErrEmptyMessage is returned when the edited message has no content.
var ErrEmptyMessage = errors.New("aborting due to empty message")

// Runner opens path in the named editor and waits for it to exit.
type Runner func(ctx context.Context, editor, path string) error

// Editor composes messages in a scratch directory.
type Editor struct {
	command string
	marker  string
	tmpDir  string
	run     Runner
}

// Option configures an Editor.
type Option func(*Editor)

// WithRunner replaces the process that opens the editor.
func WithRunner(r Runner) Option {
	return func(e *Editor) { e.run = r }
}

// New returns an Editor running command on files under tmpDir. Lines
// beginning with marker are dropped from the result.
func New(command, marker, tmpDir string, opts ...Option) *Editor {
	if marker == "" {
		marker = "#"
	}
	e := &Editor{command: command, marker: marker, tmpDir: tmpDir, run: runProcess}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compose writes template to a scratch file, lets the user edit it and
// returns the text without comment lines. Occurrences of each key of subs
// in the template are replaced by its value first.
func (e *Editor) Compose(ctx context.Context, template string, subs map[string]string) (string, error) {
	for k, v := range subs {
		template = strings.ReplaceAll(template, k, v)
	}
	if err := os.MkdirAll(e.tmpDir, fsutil.DirPerms); err != nil {
		return "", fmt.Errorf("creating scratch directory: %w", err)
	}
	f, err := os.CreateTemp(e.tmpDir, "message-*.txt")
	if err != nil {
		return "", fmt.Errorf("creating scratch file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(template); err != nil {
		f.Close()
		return "", fmt.Errorf("writing scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing scratch file: %w", err)
	}

	if err := e.run(ctx, e.command, path); err != nil {
		return "", fmt.Errorf("editor exited with error: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading edited file: %w", err)
	}
	msg := Strip(string(data), e.marker)
	if msg == "" {
		return "", ErrEmptyMessage
	}
	return msg, nil
}

// Strip removes lines starting with marker and trims surrounding blank
// space.
func Strip(text, marker string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, marker) {
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t\r"))
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func runProcess(ctx context.Context, editor, path string) error {
	fields := strings.Fields(editor)
	if len(fields) == 0 {
		fields = []string{"vi"}
	}
	bin, err := exec.LookPath(filepath.Base(fields[0]))
	if err != nil {
		bin = fields[0]
	}
	args := append(fields[1:], path)
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
