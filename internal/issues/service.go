// Package issues implements the user-level operations on issues. Every
// mutation appends one diff batch to the issue's log, folds it into the
// snapshot, and records the issue as the last one used.
package issues

import (
	"context"

	"github.com/rs/zerolog"

	"issue-lite/internal/diff"
	"issue-lite/internal/graph"
	"issue-lite/internal/index"
	"issue-lite/internal/objectstore"
	"issue-lite/internal/shortlog"
)

// LastIssueRef refers to the most recently used issue.
const LastIssueRef = "-"

// Service performs issue operations on behalf of one author.
type Service struct {
	store   *objectstore.Store
	indexer *index.Indexer
	author  diff.Author
	clock   diff.Clock
	events  *shortlog.Log
	logger  zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the source of diff timestamps.
func WithClock(c diff.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithShortlog records user-facing events in l.
func WithShortlog(l *shortlog.Log) Option {
	return func(s *Service) { s.events = l }
}

// New returns a Service writing diffs as author.
func New(store *objectstore.Store, author diff.Author, opts ...Option) *Service {
	s := &Service{
		store:   store,
		indexer: index.New(store),
		author:  author,
		clock:   diff.RealClock{},
		logger:  store.Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying object store.
func (s *Service) Store() *objectstore.Store { return s.store }

// Indexer returns the indexer used after each mutation.
func (s *Service) Indexer() *index.Indexer { return s.indexer }

// Author returns the author recorded on new diffs.
func (s *Service) Author() diff.Author { return s.author }

func (s *Service) now() float64 {
	return diff.Timestamp(s.clock.Now())
}

// Resolve expands ref to a full issue id. LastIssueRef names the last
// issue used.
func (s *Service) Resolve(ctx context.Context, ref string) (string, error) {
	if ref == LastIssueRef {
		id, err := s.store.Repo().LastIssue()
		if err != nil {
			return "", err
		}
		if id == "" || !s.store.IssueExists(id) {
			return "", ErrNoLastIssue
		}
		return id, nil
	}
	return s.store.Resolve(ctx, ref)
}

// ResolveAll resolves every ref, stopping at the first failure.
func (s *Service) ResolveAll(ctx context.Context, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		id, err := s.Resolve(ctx, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Snapshot returns the current state of id, indexing it if needed.
func (s *Service) Snapshot(ctx context.Context, id string) (*index.Snapshot, error) {
	return s.indexer.LoadOrIndex(ctx, id)
}

func (s *Service) loader(ctx context.Context) graph.LoadFunc {
	return func(id string) (*index.Snapshot, error) {
		return s.Snapshot(ctx, id)
	}
}

// apply appends actions to the log of id as one batch and folds the
// batch into the snapshot.
func (s *Service) apply(ctx context.Context, id string, actions ...diff.Action) (*index.Snapshot, error) {
	ts := s.now()
	batch := make([]diff.Diff, len(actions))
	for i, a := range actions {
		batch[i] = diff.New(s.author, ts, a)
	}
	batchID, err := s.store.IssueLog(id).Append(ctx, batch)
	if err != nil {
		return nil, err
	}
	snap, err := s.indexer.Index(ctx, id, batchID)
	if err != nil {
		return nil, err
	}
	s.touch(id)
	return snap, nil
}

// touch remembers id as the last issue used. Failure is not fatal.
func (s *Service) touch(id string) {
	if err := s.store.Repo().SetLastIssue(id); err != nil {
		s.logger.Warn().Str("issue", id).Err(err).Msg("recording last issue failed")
	}
}

// record appends an event to the shortlog, if one is configured.
func (s *Service) record(id, event string, params map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(id, event, params); err != nil {
		s.logger.Warn().Str("issue", id).Err(err).Msg("recording event failed")
	}
}
