package objectstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"issue-lite/internal/idgen"
	"issue-lite/internal/kvstorage"
	"issue-lite/internal/kvstorage/filesystem"
)

// Comment is leaf data attached to an issue. Comments are never folded
// into the snapshot.
type Comment struct {
	ID          string  `json:"-"`
	AuthorName  string  `json:"author.name"`
	AuthorEmail string  `json:"author.email"`
	Message     string  `json:"message"`
	Timestamp   float64 `json:"timestamp"`
}

func (s *Store) comments(issueID string) *filesystem.Store {
	return filesystem.New(s.CommentsDir(issueID))
}

// AddComment stores c on issueID and returns the comment id.
func (s *Store) AddComment(ctx context.Context, issueID string, c Comment) (string, error) {
	if !s.IssueExists(issueID) {
		return "", fmt.Errorf("%s: %w", issueID, ErrNotAnIssue)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encoding comment: %w", err)
	}
	id := idgen.CommentID(issueID, c.Timestamp, c.Message)
	if err := s.comments(issueID).Set(ctx, id, data, kvstorage.SetOptions{FailIfExists: true}); err != nil {
		return "", fmt.Errorf("adding comment to %s: %w", issueID, err)
	}
	return id, nil
}

// ListCommentIDs returns the comment ids of issueID.
func (s *Store) ListCommentIDs(ctx context.Context, issueID string) ([]string, error) {
	return s.comments(issueID).List(ctx)
}

// Comments returns the comments of issueID sorted by timestamp. Corrupt
// comment files are logged and skipped.
func (s *Store) Comments(ctx context.Context, issueID string) ([]Comment, error) {
	kv := s.comments(issueID)
	ids, err := kv.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Comment, 0, len(ids))
	for _, id := range ids {
		data, err := kv.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		var c Comment
		if err := json.Unmarshal(data, &c); err != nil {
			s.logger.Warn().Str("issue", issueID).Str("comment", id).Err(err).Msg("skipping corrupt comment")
			continue
		}
		c.ID = id
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}
