// Package pack computes replica manifests and reconciles replicas by
// transferring exactly the objects one side is missing.
package pack

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"sort"

	"issue-lite/internal/fsutil"
	"issue-lite/internal/idgen"
	"issue-lite/internal/objectstore"
)

// Relative paths of the files a replica publishes.
const (
	ManifestFile = "pack.json"
	StatusFile   = "status"
)

// Manifest lists every object id a replica holds. Snapshots are derived
// data and are not listed.
type Manifest struct {
	Issues   []string            `json:"issues"`
	Comments map[string][]string `json:"comments"`
	Diffs    map[string][]string `json:"diffs"`
}

// NewManifest returns an empty manifest.
func NewManifest() Manifest {
	return Manifest{Issues: []string{}, Comments: map[string][]string{}, Diffs: map[string][]string{}}
}

// Build enumerates the object store. It needs no metadata beyond the
// directory tree.
func Build(ctx context.Context, store *objectstore.Store) (Manifest, error) {
	m := NewManifest()
	ids, err := store.ListIssues(ctx)
	if err != nil {
		return m, err
	}
	for _, id := range ids {
		m.Issues = append(m.Issues, id)
		batches, err := store.IssueLog(id).List(ctx)
		if err != nil {
			return m, fmt.Errorf("listing diffs of %s: %w", id, err)
		}
		m.Diffs[id] = nonNil(batches)
		comments, err := store.ListCommentIDs(ctx, id)
		if err != nil {
			return m, fmt.Errorf("listing comments of %s: %w", id, err)
		}
		m.Comments[id] = nonNil(comments)
	}
	return m, nil
}

// Parse decodes a manifest. Missing sections are treated as empty.
func Parse(data []byte) (Manifest, error) {
	m := NewManifest()
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Issues == nil {
		m.Issues = []string{}
	}
	if m.Comments == nil {
		m.Comments = map[string][]string{}
	}
	if m.Diffs == nil {
		m.Diffs = map[string][]string{}
	}
	return m, nil
}

// Encode serialises m with every list sorted.
func (m Manifest) Encode() ([]byte, error) {
	return json.Marshal(m.normalized())
}

// Load reads a manifest file. A missing file is an empty manifest.
func Load(p string) (Manifest, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return NewManifest(), nil
		}
		return Manifest{}, err
	}
	return Parse(data)
}

// Save writes m to p atomically.
func Save(p string, m Manifest) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	return fsutil.WriteFile(p, data)
}

// Count returns the number of issues, diff batches and comments in m.
func (m Manifest) Count() (issues, diffs, comments int) {
	for _, ids := range m.Diffs {
		diffs += len(ids)
	}
	for _, ids := range m.Comments {
		comments += len(ids)
	}
	return len(m.Issues), diffs, comments
}

// Union returns the objects present in a or b.
func Union(a, b Manifest) Manifest {
	out := NewManifest()
	out.Issues = union(a.Issues, b.Issues)
	for _, src := range []Manifest{a, b} {
		for id, ids := range src.Diffs {
			out.Diffs[id] = union(out.Diffs[id], ids)
		}
		for id, ids := range src.Comments {
			out.Comments[id] = union(out.Comments[id], ids)
		}
	}
	return out
}

// Equal reports whether a and b list the same ids.
func Equal(a, b Manifest) bool {
	ea, err1 := a.Encode()
	eb, err2 := b.Encode()
	return err1 == nil && err2 == nil && string(ea) == string(eb)
}

func (m Manifest) normalized() Manifest {
	out := NewManifest()
	out.Issues = union(nil, m.Issues)
	for id, ids := range m.Diffs {
		out.Diffs[id] = union(nil, ids)
	}
	for id, ids := range m.Comments {
		out.Comments[id] = union(nil, ids)
	}
	return out
}

// IssueDir returns the relative path of an issue's directory.
func IssueDir(id string) string {
	return path.Join("objects", "issues", idgen.Shard(id), id)
}

// DiffPath returns the relative path of a diff batch.
func DiffPath(id, batch string) string {
	return path.Join(IssueDir(id), "diff", batch+".json")
}

// CommentPath returns the relative path of a comment.
func CommentPath(id, comment string) string {
	return path.Join(IssueDir(id), "comments", comment+".json")
}

// union returns the sorted, de-duplicated elements of a and b.
func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := []string{}
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	sort.Strings(out)
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
