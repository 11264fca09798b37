// Package objectstore lays out issues, tags and releases on disk.
//
// Issues are sharded by the first two characters of their id:
//
//	objects/issues/<id[:2]>/<id>.json           snapshot
//	objects/issues/<id[:2]>/<id>/diff/*.json    diff batches
//	objects/issues/<id[:2]>/<id>/comments/*.json
//
// Tags and releases are named directly:
//
//	objects/tags/<name>/diff/*.json
//	objects/releases/<name>/diff/*.json, objects/releases/<name>/notes
package objectstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"issue-lite/internal/fsutil"
	"issue-lite/internal/idgen"
	"issue-lite/internal/repository"
)

// Store gives access to the objects of one repository.
type Store struct {
	repo   repository.Handle
	logger zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger receiving corruption warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New returns a store over repo.
func New(repo repository.Handle, opts ...Option) *Store {
	s := &Store{repo: repo, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repo returns the repository handle.
func (s *Store) Repo() repository.Handle { return s.repo }

// Logger returns the store's logger.
func (s *Store) Logger() zerolog.Logger { return s.logger }

// IssueDir returns the directory holding id's diff log and comments.
func (s *Store) IssueDir(id string) string {
	return filepath.Join(s.repo.IssuesDir(), idgen.Shard(id), id)
}

// SnapshotPath returns the path of id's materialized snapshot.
func (s *Store) SnapshotPath(id string) string {
	return filepath.Join(s.repo.IssuesDir(), idgen.Shard(id), id+".json")
}

func (s *Store) DiffDir(id string) string     { return filepath.Join(s.IssueDir(id), "diff") }
func (s *Store) CommentsDir(id string) string { return filepath.Join(s.IssueDir(id), "comments") }

// IssueLog returns the diff log of issue id.
func (s *Store) IssueLog(id string) *Log {
	return newLog(id, s.DiffDir(id), s.logger)
}

// IssueExists reports whether the issue directory is present.
func (s *Store) IssueExists(id string) bool {
	return fsutil.IsDir(s.IssueDir(id))
}

// CreateIssue creates the empty skeleton of issue id. Existing
// directories are left alone, so concurrent creators of a shard do not
// fail each other.
func (s *Store) CreateIssue(id string) error {
	for _, dir := range []string{s.DiffDir(id), s.CommentsDir(id)} {
		if err := os.MkdirAll(dir, fsutil.DirPerms); err != nil {
			return fmt.Errorf("creating issue %s: %w", id, err)
		}
	}
	return nil
}

// ListIssues returns every issue id in the repository, sorted.
func (s *Store) ListIssues(ctx context.Context) ([]string, error) {
	shards, err := os.ReadDir(s.repo.IssuesDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	var ids []string
	for _, shard := range shards {
		if !shard.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(s.repo.IssuesDir(), shard.Name()))
		if err != nil {
			return nil, fmt.Errorf("listing issues: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() && idgen.IsValid(e.Name()) {
				ids = append(ids, e.Name())
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Resolve expands a possibly shortened issue id. No match yields
// ErrUIDNotMatched; several matches yield an *AmbiguousError listing all
// of them.
func (s *Store) Resolve(ctx context.Context, prefix string) (string, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if !idgen.IsPrefix(prefix) {
		return "", fmt.Errorf("%q: %w", prefix, ErrUIDNotMatched)
	}
	if idgen.IsValid(prefix) && s.IssueExists(prefix) {
		return prefix, nil
	}
	ids, err := s.ListIssues(ctx)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, id := range ids {
		if strings.HasPrefix(id, prefix) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%q: %w", prefix, ErrUIDNotMatched)
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{Prefix: prefix, Candidates: matches}
	}
}

// Drop irreversibly removes issue id: its log, comments and snapshot.
func (s *Store) Drop(id string) error {
	if !s.IssueExists(id) {
		return fmt.Errorf("%s: %w", id, ErrNotAnIssue)
	}
	if err := os.RemoveAll(s.IssueDir(id)); err != nil {
		return fmt.Errorf("dropping %s: %w", id, err)
	}
	if err := os.Remove(s.SnapshotPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("dropping %s snapshot: %w", id, err)
	}
	return nil
}

// ReadSnapshot returns the raw snapshot of id. A missing snapshot is
// ErrNotIndexed when the issue directory exists and ErrNotAnIssue
// otherwise.
func (s *Store) ReadSnapshot(id string) ([]byte, error) {
	data, err := os.ReadFile(s.SnapshotPath(id))
	if err == nil {
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading snapshot %s: %w", id, err)
	}
	if s.IssueExists(id) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotIndexed)
	}
	return nil, fmt.Errorf("%s: %w", id, ErrNotAnIssue)
}

// WriteSnapshot atomically replaces the snapshot of id.
func (s *Store) WriteSnapshot(id string, data []byte) error {
	return fsutil.WriteFile(s.SnapshotPath(id), data)
}
