package objectstore

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotAnIssue means the id resolves to no stored entity at all.
	ErrNotAnIssue = errors.New("not an issue")
	// ErrNotIndexed means the entity exists but has no snapshot, or a
	// batch it lists has disappeared. Re-indexing is the remedy.
	ErrNotIndexed    = errors.New("issue not indexed")
	ErrUIDNotMatched = errors.New("no issue matches id")
	ErrUIDAmbiguous  = errors.New("ambiguous issue id")
	ErrTagExists     = errors.New("tag already exists")
	ErrTagNotFound   = errors.New("tag not found")
	ErrReleaseExists = errors.New("release already exists")
	ErrNoRelease     = errors.New("release not found")
)

// AmbiguousError lists every issue matching a short id.
type AmbiguousError struct {
	Prefix     string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous issue id %q matches %d issues:\n  %s",
		e.Prefix, len(e.Candidates), strings.Join(e.Candidates, "\n  "))
}

func (e *AmbiguousError) Unwrap() error { return ErrUIDAmbiguous }
