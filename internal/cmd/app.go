// Package cmd implements the issue command-line interface.
package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"issue-lite/internal/config"
	"issue-lite/internal/diff"
	"issue-lite/internal/editor"
	"issue-lite/internal/index"
	"issue-lite/internal/issues"
	"issue-lite/internal/objectstore"
	"issue-lite/internal/pack"
	"issue-lite/internal/release"
	"issue-lite/internal/repository"
	"issue-lite/internal/shortlog"
	"issue-lite/internal/transport"
)

// ErrNoAuthor is returned by commands that record diffs when the author
// is not configured.
var ErrNoAuthor = errors.New("author.name and author.email must be configured (issue config set author.name ...)")

// App holds application state shared across commands.
type App struct {
	Repo     repository.Handle
	Store    *objectstore.Store
	Indexer  *index.Indexer
	Issues   *issues.Service
	Releases *release.Manager
	Events   *shortlog.Log
	Config   config.Store
	Editor   *editor.Editor
	Clock    diff.Clock
	Logger   zerolog.Logger
	Out      io.Writer
	Err      io.Writer
	JSON     bool // output in JSON format
}

// newApp wires the services of one repository.
func newApp(repo repository.Handle, cfg config.Store, clock diff.Clock, logger zerolog.Logger, out, errOut io.Writer) *App {
	store := objectstore.New(repo, objectstore.WithLogger(logger))
	events := shortlog.New(repo.ShortlogPath(), config.EventsLogSize(cfg), clock, logger)
	author := authorFrom(cfg)
	svc := issues.New(store, author, issues.WithClock(clock), issues.WithShortlog(events))
	editorCmd, _ := cfg.Get(config.KeyEditor)
	marker, _ := cfg.Get(config.KeyCommentMarker)
	return &App{
		Repo:     repo,
		Store:    store,
		Indexer:  svc.Indexer(),
		Issues:   svc,
		Releases: release.New(store),
		Events:   events,
		Config:   cfg,
		Editor:   editor.New(editorCmd, marker, repo.TmpDir()),
		Clock:    clock,
		Logger:   logger,
		Out:      out,
		Err:      errOut,
	}
}

func authorFrom(cfg config.Store) diff.Author {
	name, _ := cfg.Get(config.KeyAuthorName)
	email, _ := cfg.Get(config.KeyAuthorEmail)
	return diff.Author{Name: name, Email: email}
}

// Author returns the configured author, or ErrNoAuthor.
func (a *App) Author() (diff.Author, error) {
	author := a.Issues.Author()
	if author.Name == "" || author.Email == "" {
		return author, ErrNoAuthor
	}
	return author, nil
}

// Now returns the current diff timestamp.
func (a *App) Now() float64 {
	return diff.Timestamp(a.Clock.Now())
}

// compose runs the editor on template. %MARKER% in the template is
// replaced by the configured comment marker.
func (a *App) compose(ctx context.Context, template string) (string, error) {
	marker, _ := a.Config.Get(config.KeyCommentMarker)
	return a.Editor.Compose(ctx, template, map[string]string{"%MARKER%": marker})
}

// Reconciler returns a reconciler over the local object store.
func (a *App) Reconciler() *pack.Reconciler {
	return pack.NewReconciler(a.Store, a.Indexer)
}

// S3Config returns the credentials used for s3:// remotes.
func (a *App) S3Config() transport.S3Config {
	get := func(k string) string {
		v, _ := a.Config.Get(k)
		return v
	}
	return transport.S3Config{
		Region:          get(config.KeyS3Region),
		AccessKeyID:     get(config.KeyS3AccessKeyID),
		SecretAccessKey: get(config.KeyS3SecretKey),
		Endpoint:        get(config.KeyS3Endpoint),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// SuccessColor returns the string wrapped in green ANSI codes if stdout is a terminal,
// otherwise returns the string unchanged.
func (a *App) SuccessColor(s string) string {
	if isTerminal(a.Out) {
		return "\033[32m" + s + "\033[0m"
	}
	return s
}

// WarnColor returns the string wrapped in orange ANSI codes if stdout is a terminal,
// otherwise returns the string unchanged.
func (a *App) WarnColor(s string) string {
	if isTerminal(a.Out) {
		return "\033[38;5;214m" + s + "\033[0m"
	}
	return s
}

// IDColor highlights an issue id on terminals.
func (a *App) IDColor(s string) string {
	if isTerminal(a.Out) {
		return "\033[33m" + s + "\033[0m"
	}
	return s
}

// newLogger returns the console logger for one invocation: warnings and
// above by default, everything with verbose.
func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	cw := zerolog.ConsoleWriter{
		Out:          w,
		NoColor:      !isTerminal(w),
		PartsExclude: []string{zerolog.TimestampFieldName},
	}
	return zerolog.New(cw).Level(level)
}
