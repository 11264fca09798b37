package objectstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"issue-lite/internal/diff"
	"issue-lite/internal/idgen"
	"issue-lite/internal/kvstorage"
	"issue-lite/internal/kvstorage/filesystem"
)

var ErrEmptyBatch = errors.New("diff batch is empty")

// Log is the append-only diff log of one entity. Each batch is one
// immutable file holding a JSON list of records.
type Log struct {
	entity string
	kv     *filesystem.Store
	logger zerolog.Logger
}

func newLog(entity, dir string, logger zerolog.Logger) *Log {
	return &Log{entity: entity, kv: filesystem.New(dir), logger: logger}
}

// Dir returns the directory holding the batches.
func (l *Log) Dir() string { return l.kv.Dir() }

// Append writes diffs as a new batch and returns the batch id.
func (l *Log) Append(ctx context.Context, diffs []diff.Diff) (string, error) {
	if len(diffs) == 0 {
		return "", ErrEmptyBatch
	}
	data, err := diff.EncodeBatch(diffs)
	if err != nil {
		return "", err
	}
	first := diffs[0]
	id := idgen.DiffID(first.Author.Name, first.Author.Email, first.Timestamp)
	if err := l.kv.Set(ctx, id, data, kvstorage.SetOptions{FailIfExists: true}); err != nil {
		return "", fmt.Errorf("appending to %s: %w", l.entity, err)
	}
	return id, nil
}

// List returns the batch ids without opening them.
func (l *Log) List(ctx context.Context) ([]string, error) {
	return l.kv.List(ctx)
}

// Read parses the named batches, or every batch when none are named,
// and concatenates their records in batch order. A corrupt batch is
// logged and skipped. A named batch that does not exist is reported as
// ErrNotIndexed.
func (l *Log) Read(ctx context.Context, batchIDs ...string) ([]diff.Diff, error) {
	if len(batchIDs) == 0 {
		ids, err := l.List(ctx)
		if err != nil {
			return nil, err
		}
		batchIDs = ids
	}
	var out []diff.Diff
	for _, id := range batchIDs {
		data, err := l.kv.Get(ctx, id)
		if err != nil {
			if errors.Is(err, kvstorage.ErrKeyNotFound) {
				return nil, fmt.Errorf("%s: batch %s missing: %w", l.entity, id, ErrNotIndexed)
			}
			return nil, err
		}
		diffs, recordErrs, err := diff.DecodeBatch(data)
		if err != nil {
			l.logger.Warn().Str("entity", l.entity).Str("batch", id).Err(err).Msg("skipping corrupt diff batch")
			continue
		}
		for _, rerr := range recordErrs {
			l.logger.Warn().Str("entity", l.entity).Str("batch", id).Err(rerr).Msg("skipping corrupt diff record")
		}
		out = append(out, diffs...)
	}
	return out, nil
}
