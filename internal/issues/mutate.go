package issues

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"issue-lite/internal/diff"
	"issue-lite/internal/graph"
	"issue-lite/internal/idgen"
	"issue-lite/internal/index"
	"issue-lite/internal/objectstore"
	"issue-lite/internal/shortlog"
)

// OpenRequest describes a new issue.
type OpenRequest struct {
	Message    string
	Tags       []string
	Milestones []string
	Parent     string
	Chained    []string
}

// Open creates an issue. Its open, message, tag and milestone diffs are
// written as a single batch. Every tag must have been created first.
func (s *Service) Open(ctx context.Context, req OpenRequest) (string, *index.Snapshot, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return "", nil, ErrEmptyIssueMessage
	}
	if err := s.checkTags(req.Tags); err != nil {
		return "", nil, err
	}
	var parent string
	if req.Parent != "" {
		p, err := s.Resolve(ctx, req.Parent)
		if err != nil {
			return "", nil, fmt.Errorf("parent: %w", err)
		}
		parent = p
	}
	chained, err := s.ResolveAll(ctx, req.Chained)
	if err != nil {
		return "", nil, fmt.Errorf("chained: %w", err)
	}

	id := idgen.IssueID(msg, req.Tags, req.Milestones)
	if err := s.store.CreateIssue(id); err != nil {
		return "", nil, err
	}
	actions := []diff.Action{
		diff.Open{},
		diff.SetMessage{Text: msg},
		diff.PushTags{Tags: nonNil(req.Tags)},
		diff.PushMilestones{Milestones: nonNil(req.Milestones)},
	}
	if parent != "" {
		actions = append(actions, diff.SetParent{ID: parent})
	}
	if len(chained) > 0 {
		actions = append(actions, diff.ChainLink{IDs: chained})
	}
	snap, err := s.apply(ctx, id, actions...)
	if err != nil {
		return "", nil, err
	}
	s.record(id, shortlog.EventOpen, map[string]any{"message": snap.Title()})
	return id, snap, nil
}

// Reopen sets a closed issue back to open.
func (s *Service) Reopen(ctx context.Context, id string) (*index.Snapshot, error) {
	snap, err := s.apply(ctx, id, diff.Open{})
	if err != nil {
		return nil, err
	}
	s.record(id, shortlog.EventOpen, map[string]any{"message": snap.Title()})
	return snap, nil
}

// CloseRequest carries the optional commit that closed an issue.
type CloseRequest struct {
	GitCommit    string
	GitTimestamp *float64
}

// Close closes id. It fails with a *ChainedOpenError, and writes nothing,
// while any issue chained to id is not closed.
func (s *Service) Close(ctx context.Context, id string, req CloseRequest) (*index.Snapshot, error) {
	snap, err := s.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	var open []string
	for _, dep := range snap.Chained {
		depSnap, err := s.Snapshot(ctx, dep)
		if errors.Is(err, objectstore.ErrNotAnIssue) {
			s.logger.Warn().Str("issue", id).Str("chained", dep).Msg("chained issue does not exist")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("checking chained issue %s: %w", dep, err)
		}
		if depSnap.Status != index.StatusClosed {
			open = append(open, dep)
		}
	}
	if len(open) > 0 {
		return nil, &ChainedOpenError{Issue: id, Dependents: open}
	}
	snap, err = s.apply(ctx, id, diff.Close{GitCommit: req.GitCommit, GitTimestamp: req.GitTimestamp})
	if err != nil {
		return nil, err
	}
	s.record(id, shortlog.EventClose, nil)
	return snap, nil
}

// SetMessage replaces the message of id.
func (s *Service) SetMessage(ctx context.Context, id, message string) (*index.Snapshot, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyIssueMessage
	}
	return s.apply(ctx, id, diff.SetMessage{Text: message})
}

// Comment attaches a comment to id and returns the comment id.
func (s *Service) Comment(ctx context.Context, id, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyIssueMessage
	}
	cid, err := s.store.AddComment(ctx, id, objectstore.Comment{
		AuthorName:  s.author.Name,
		AuthorEmail: s.author.Email,
		Message:     message,
		Timestamp:   s.now(),
	})
	if err != nil {
		return "", err
	}
	s.touch(id)
	s.record(id, shortlog.EventComment, map[string]any{"comment": cid})
	return cid, nil
}

// AddTags tags id. Every tag must have been created first.
func (s *Service) AddTags(ctx context.Context, id string, tags ...string) (*index.Snapshot, error) {
	if err := s.checkTags(tags); err != nil {
		return nil, err
	}
	snap, err := s.apply(ctx, id, diff.PushTags{Tags: tags})
	if err != nil {
		return nil, err
	}
	s.record(id, shortlog.EventTagged, map[string]any{"tags": tags})
	return snap, nil
}

// RemoveTags untags id. Every tag must currently be set on the issue.
func (s *Service) RemoveTags(ctx context.Context, id string, tags ...string) (*index.Snapshot, error) {
	snap, err := s.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		if !snap.HasTag(t) {
			return nil, fmt.Errorf("%q on %s: %w", t, id, ErrTagNotPresent)
		}
	}
	return s.apply(ctx, id, diff.RemoveTags{Tags: tags})
}

// SetParam sets parameter key of id.
func (s *Service) SetParam(ctx context.Context, id, key string, value any) (*index.Snapshot, error) {
	if key == "" {
		return nil, fmt.Errorf("empty key: %w", ErrParameterNotSet)
	}
	return s.apply(ctx, id, diff.ParameterSet{Key: key, Value: value})
}

// RemoveParam removes parameter key of id. The parameter must be set.
func (s *Service) RemoveParam(ctx context.Context, id, key string) (*index.Snapshot, error) {
	snap, err := s.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok := snap.Parameters[key]; !ok {
		return nil, fmt.Errorf("%q on %s: %w", key, id, ErrParameterNotSet)
	}
	return s.apply(ctx, id, diff.ParameterRemove{Key: key})
}

// Link chains others to id. id cannot be closed while any of them is
// open.
func (s *Service) Link(ctx context.Context, id string, others ...string) (*index.Snapshot, error) {
	if err := noSelf(id, others); err != nil {
		return nil, err
	}
	load := s.loader(ctx)
	for _, o := range others {
		if graph.Reaches(load, o, id) {
			return nil, fmt.Errorf("%s -> %s: %w", id, o, ErrChainCycle)
		}
	}
	snap, err := s.apply(ctx, id, diff.ChainLink{IDs: others})
	if err != nil {
		return nil, err
	}
	s.record(id, shortlog.EventChainedTo, map[string]any{"chained_to": others})
	return snap, nil
}

// Unlink removes others from the chain of id.
func (s *Service) Unlink(ctx context.Context, id string, others ...string) (*index.Snapshot, error) {
	return s.apply(ctx, id, diff.ChainUnlink{IDs: others})
}

// Attach records a weak, append-only reference from id to others.
func (s *Service) Attach(ctx context.Context, id string, others ...string) (*index.Snapshot, error) {
	if err := noSelf(id, others); err != nil {
		return nil, err
	}
	return s.apply(ctx, id, diff.ChainAttach{IDs: others})
}

// SetParent makes parent the parent of id.
func (s *Service) SetParent(ctx context.Context, id, parent string) (*index.Snapshot, error) {
	if err := noSelf(id, []string{parent}); err != nil {
		return nil, err
	}
	ancestors, err := graph.Ancestors(s.loader(ctx), parent)
	if err != nil {
		return nil, err
	}
	if slices.Contains(ancestors, id) {
		return nil, fmt.Errorf("%s under %s: %w", id, parent, ErrParentCycle)
	}
	return s.apply(ctx, id, diff.SetParent{ID: parent})
}

// SetStatus forces the status of id to an arbitrary value.
func (s *Service) SetStatus(ctx context.Context, id, status string) (*index.Snapshot, error) {
	return s.apply(ctx, id, diff.SetStatus{Status: status})
}

// SetProject sets the project tag and name of id. Empty values are
// left unchanged.
func (s *Service) SetProject(ctx context.Context, id, tag, name string) (*index.Snapshot, error) {
	var actions []diff.Action
	if tag != "" {
		actions = append(actions, diff.SetProjectTag{Tag: tag})
	}
	if name != "" {
		actions = append(actions, diff.SetProjectName{Name: name})
	}
	if len(actions) == 0 {
		return s.Snapshot(ctx, id)
	}
	return s.apply(ctx, id, actions...)
}

// StartWork opens a work interval on id for the service's author.
func (s *Service) StartWork(ctx context.Context, id string) (*index.Snapshot, error) {
	snap, err := s.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap.WorkInProgress(s.author.Email) {
		return nil, fmt.Errorf("%s: %w", id, ErrWorkInProgress)
	}
	return s.apply(ctx, id, diff.WorkStart{})
}

// StopWork closes the author's work interval on id.
func (s *Service) StopWork(ctx context.Context, id string) (*index.Snapshot, error) {
	snap, err := s.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if !snap.WorkInProgress(s.author.Email) {
		return nil, fmt.Errorf("%s: %w", id, ErrNoWorkInProgress)
	}
	return s.apply(ctx, id, diff.WorkStop{})
}

// Drop irreversibly removes id.
func (s *Service) Drop(ctx context.Context, id string) error {
	if err := s.store.Drop(id); err != nil {
		return err
	}
	if last, err := s.store.Repo().LastIssue(); err == nil && last == id {
		if err := s.store.Repo().SetLastIssue(""); err != nil {
			s.logger.Warn().Err(err).Msg("clearing last issue failed")
		}
	}
	return nil
}

func (s *Service) checkTags(tags []string) error {
	for _, t := range tags {
		if !s.store.TagExists(t) {
			return fmt.Errorf("%q: %w", t, ErrTagNotFound)
		}
	}
	return nil
}

func noSelf(id string, others []string) error {
	for _, o := range others {
		if o == id {
			return fmt.Errorf("%s: %w", id, ErrSelfReference)
		}
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
