package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"issue-lite/internal/issues"
	"issue-lite/internal/objectstore"
)

// resolveIssue expands a possibly shortened id, listing the candidates
// when it is ambiguous.
func resolveIssue(ctx context.Context, app *App, ref string) (string, error) {
	id, err := app.Issues.Resolve(ctx, ref)
	if err == nil {
		return id, nil
	}
	var amb *objectstore.AmbiguousError
	if errors.As(err, &amb) {
		short := make([]string, len(amb.Candidates))
		for i, c := range amb.Candidates {
			short[i] = shortID(c)
		}
		return "", fmt.Errorf("%w: %q matches %s", objectstore.ErrUIDAmbiguous, ref, strings.Join(short, ", "))
	}
	return "", err
}

func resolveIssues(ctx context.Context, app *App, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		id, err := resolveIssue(ctx, app, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// eachIssue runs fn for every ref, reporting failures on stderr and
// continuing. It returns the ids that succeeded and the first error.
func eachIssue(ctx context.Context, app *App, refs []string, fn func(id string) error) ([]string, []error) {
	var done []string
	var errs []error
	for _, ref := range refs {
		id, err := resolveIssue(ctx, app, ref)
		if err == nil {
			err = fn(id)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ref, err))
			continue
		}
		done = append(done, id)
	}
	return done, errs
}

// reportErrors prints every error to stderr and returns the first.
func reportErrors(app *App, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	for _, e := range errs {
		fmt.Fprintf(app.Err, "Error: %v\n", e)
	}
	return errs[0]
}

func errorStrings(errs []error) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}

// issueArg returns args[0], or the last issue used when there are none.
func issueArg(args []string) string {
	if len(args) == 0 {
		return issues.LastIssueRef
	}
	return args[0]
}
