// Package index materializes issue snapshots by folding diff logs, and
// synthesizes diff logs back from legacy snapshots.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"issue-lite/internal/objectstore"
)

// Indexer folds issue logs into snapshots stored beside them.
type Indexer struct {
	store *objectstore.Store
}

// New returns an indexer over store.
func New(store *objectstore.Store) *Indexer {
	return &Indexer{store: store}
}

// Load reads the stored snapshot of id. It returns
// objectstore.ErrNotIndexed or objectstore.ErrNotAnIssue when there is
// none.
func (ix *Indexer) Load(id string) (*Snapshot, error) {
	data, err := ix.store.ReadSnapshot(id)
	if err != nil {
		return nil, err
	}
	s := NewSnapshot()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", id, err)
	}
	return s, nil
}

// Index folds the log of id and writes the snapshot. With batchIDs and
// an existing snapshot, only those batches are folded onto it; otherwise
// the whole log is folded from the empty snapshot.
func (ix *Indexer) Index(ctx context.Context, id string, batchIDs ...string) (*Snapshot, error) {
	if !ix.store.IssueExists(id) {
		return nil, fmt.Errorf("%s: %w", id, objectstore.ErrNotAnIssue)
	}
	var seed *Snapshot
	if len(batchIDs) > 0 {
		prior, err := ix.Load(id)
		switch {
		case err == nil:
			seed = prior
		case errors.Is(err, objectstore.ErrNotIndexed):
			batchIDs = nil
		default:
			return nil, err
		}
	}
	diffs, err := ix.store.IssueLog(id).Read(ctx, batchIDs...)
	if err != nil {
		return nil, err
	}
	s := Fold(seed, diffs)
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot %s: %w", id, err)
	}
	if err := ix.store.WriteSnapshot(id, data); err != nil {
		return nil, err
	}
	return s, nil
}

// IndexAll rebuilds every snapshot in the repository. Failures are
// logged and the remaining issues are still indexed; the ids that
// failed are returned with the first error.
func (ix *Indexer) IndexAll(ctx context.Context) ([]string, error) {
	ids, err := ix.store.ListIssues(ctx)
	if err != nil {
		return nil, err
	}
	logger := ix.store.Logger()
	var failed []string
	var firstErr error
	for _, id := range ids {
		if _, err := ix.Index(ctx, id); err != nil {
			logger.Warn().Str("issue", id).Err(err).Msg("indexing failed")
			failed = append(failed, id)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return failed, firstErr
}

// LoadOrIndex returns the snapshot of id, folding the log first when
// the issue has never been indexed.
func (ix *Indexer) LoadOrIndex(ctx context.Context, id string) (*Snapshot, error) {
	s, err := ix.Load(id)
	if errors.Is(err, objectstore.ErrNotIndexed) {
		return ix.Index(ctx, id)
	}
	return s, err
}
