// Package tags builds the tag read-model: tags created explicitly and
// tags merely mentioned by issues.
package tags

import (
	"context"
	"fmt"
	"os"
	"sort"

	"issue-lite/internal/diff"
	"issue-lite/internal/objectstore"
)

// Tag is one entry of the gathered tag list.
type Tag struct {
	Name string
	// Real is set when the tag was created explicitly; otherwise it is
	// only referenced by issues.
	Real bool
	// Mentions counts push-tags references across all issue logs.
	Mentions int
	// Issues lists the ids of issues that pushed the tag, sorted and
	// de-duplicated.
	Issues []string
}

// Gathered is the result of a full scan.
type Gathered struct {
	// Mentions holds every tag name once per push-tags reference.
	Mentions []string
	// ByIssue maps a tag to the issues that pushed it.
	ByIssue map[string][]string
	Tags    []Tag
}

// Gather scans every issue's diff log for push-tags actions and merges
// the result with the explicitly created tags.
func Gather(ctx context.Context, store *objectstore.Store) (Gathered, error) {
	g := Gathered{ByIssue: map[string][]string{}}
	ids, err := store.ListIssues(ctx)
	if err != nil {
		return g, err
	}
	for _, id := range ids {
		diffs, err := store.IssueLog(id).Read(ctx)
		if err != nil {
			return g, fmt.Errorf("reading %s: %w", id, err)
		}
		for _, d := range diffs {
			push, ok := d.Action.(diff.PushTags)
			if !ok {
				continue
			}
			for _, name := range push.Tags {
				g.Mentions = append(g.Mentions, name)
				g.ByIssue[name] = appendUnique(g.ByIssue[name], id)
			}
		}
	}

	created, err := store.ListTags(ctx)
	if err != nil {
		return g, err
	}
	isReal := map[string]bool{}
	for _, name := range created {
		isReal[name] = true
		if _, ok := g.ByIssue[name]; !ok {
			g.ByIssue[name] = []string{}
		}
	}
	counts := map[string]int{}
	for _, name := range g.Mentions {
		counts[name]++
	}
	for name, issues := range g.ByIssue {
		sort.Strings(issues)
		g.Tags = append(g.Tags, Tag{Name: name, Real: isReal[name], Mentions: counts[name], Issues: issues})
	}
	sort.Slice(g.Tags, func(i, j int) bool { return g.Tags[i].Name < g.Tags[j].Name })
	return g, nil
}

// Virtual returns the names of tags referenced by issues but never
// created.
func (g Gathered) Virtual() []string {
	var out []string
	for _, t := range g.Tags {
		if !t.Real {
			out = append(out, t.Name)
		}
	}
	return out
}

// Make creates tag name. An existing tag is an error unless force is
// set, in which case its log is discarded first.
func Make(ctx context.Context, store *objectstore.Store, name string, author diff.Author, ts float64, projectName string, force bool) error {
	if err := objectstore.ValidateName(name); err != nil {
		return err
	}
	if store.TagExists(name) {
		if !force {
			return fmt.Errorf("%q: %w", name, objectstore.ErrTagExists)
		}
		if err := os.RemoveAll(store.TagDir(name)); err != nil {
			return fmt.Errorf("removing tag %q: %w", name, err)
		}
	}
	batch := []diff.Diff{diff.New(author, ts, diff.TagOpen{Name: name})}
	if projectName != "" {
		batch = append(batch, diff.New(author, ts, diff.TagSetProjectName{Name: projectName}))
	}
	_, err := store.TagLog(name).Append(ctx, batch)
	return err
}

// Info is the folded state of a created tag.
type Info struct {
	Name        string
	Author      diff.Author
	Timestamp   float64
	ProjectName string
}

// Load folds the log of tag name.
func Load(ctx context.Context, store *objectstore.Store, name string) (Info, error) {
	if !store.TagExists(name) {
		return Info{}, fmt.Errorf("%q: %w", name, objectstore.ErrTagNotFound)
	}
	diffs, err := store.TagLog(name).Read(ctx)
	if err != nil {
		return Info{}, err
	}
	sort.SliceStable(diffs, func(i, j int) bool { return diffs[i].Timestamp < diffs[j].Timestamp })
	info := Info{Name: name}
	for _, d := range diffs {
		switch a := d.Action.(type) {
		case diff.TagOpen:
			info.Author = d.Author
			info.Timestamp = d.Timestamp
		case diff.TagSetProjectName:
			info.ProjectName = a.Name
		}
	}
	return info, nil
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
