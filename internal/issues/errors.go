package issues

import (
	"errors"
	"fmt"
	"strings"

	"issue-lite/internal/objectstore"
)

var (
	// ErrTagNotFound is returned when an issue is tagged with a tag that
	// was never created.
	ErrTagNotFound = objectstore.ErrTagNotFound

	ErrTagNotPresent     = errors.New("tag not present on issue")
	ErrParameterNotSet   = errors.New("parameter not set")
	ErrInvalidTimeDelta  = errors.New("invalid time or delta")
	ErrChainedOpen       = errors.New("chained issues are still open")
	ErrWorkInProgress    = errors.New("work already in progress")
	ErrNoWorkInProgress  = errors.New("no work in progress")
	ErrNoLastIssue       = errors.New("no issue was used recently")
	ErrSelfReference     = errors.New("issue cannot refer to itself")
	ErrChainCycle        = errors.New("chain link would create a cycle")
	ErrParentCycle       = errors.New("parent would create a cycle")
	ErrEmptyIssueMessage = errors.New("issue message is empty")
)

// ChainedOpenError is returned when closing an issue whose chained issues
// are not all closed. No close diff is recorded.
type ChainedOpenError struct {
	Issue      string
	Dependents []string
}

func (e *ChainedOpenError) Error() string {
	return fmt.Sprintf("cannot close %s: chained issues still open: %s", e.Issue, strings.Join(e.Dependents, ", "))
}

func (e *ChainedOpenError) Unwrap() error { return ErrChainedOpen }
