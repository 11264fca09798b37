// Package graph provides stateless traversals over issue snapshots: the
// parent tree and the chain-link graph.
//
// A chain link X -> Y means X cannot be closed while Y is open, so Y
// comes before X in close order.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"issue-lite/internal/index"
)

// ErrCycle is returned when a walk revisits an issue.
var ErrCycle = errors.New("cycle detected")

// Snapshots maps issue ids to their folded state.
type Snapshots map[string]*index.Snapshot

// LoadFunc fetches one snapshot. Walks that reach an issue LoadFunc
// cannot load stop there.
type LoadFunc func(id string) (*index.Snapshot, error)

// Lookup adapts a snapshot map to a LoadFunc.
func (s Snapshots) Lookup(id string) (*index.Snapshot, error) {
	snap, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("%s: not loaded", id)
	}
	return snap, nil
}

// Ancestors walks the parent chain of id and returns the parents in
// order, nearest first.
func Ancestors(load LoadFunc, id string) ([]string, error) {
	visited := map[string]bool{}
	var out []string
	current := id
	for {
		if visited[current] {
			return out, fmt.Errorf("parent chain of %s at %s: %w", id, current, ErrCycle)
		}
		visited[current] = true

		snap, err := load(current)
		if err != nil || snap.Parent == "" {
			return out, nil
		}
		out = append(out, snap.Parent)
		current = snap.Parent
	}
}

// Descendants returns the issues below rootID in the parent tree,
// breadth first, with their depth below the root.
func Descendants(snaps Snapshots, rootID string) []Node {
	children := map[string][]string{}
	for id, s := range snaps {
		if s.Parent != "" {
			children[s.Parent] = append(children[s.Parent], id)
		}
	}
	for _, ids := range children {
		sort.Strings(ids)
	}

	var out []Node
	visited := map[string]bool{rootID: true}
	queue := []Node{{ID: rootID}}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, c := range children[n.ID] {
			if visited[c] {
				continue
			}
			visited[c] = true
			child := Node{ID: c, Depth: n.Depth + 1}
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}

// Node is one issue of a tree walk.
type Node struct {
	ID    string
	Depth int
}

// Reaches reports whether target is reachable from id by following
// chain links.
func Reaches(load LoadFunc, id, target string) bool {
	visited := map[string]bool{}
	stack := []string{id}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == target {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true
		snap, err := load(current)
		if err != nil {
			continue
		}
		stack = append(stack, snap.Chained...)
	}
	return false
}

// CloseOrder sorts ids so that every issue comes after the issues it is
// chained to, using Kahn's algorithm on the links among ids. Ties keep
// the input order. Links to issues outside ids are ignored.
func CloseOrder(snaps Snapshots, ids []string) ([]string, error) {
	in := make(map[string]bool, len(ids))
	for _, id := range ids {
		in[id] = true
	}

	inDegree := make(map[string]int, len(ids))
	// before[y] lists the issues that wait for y.
	before := make(map[string][]string, len(ids))
	for _, id := range ids {
		snap, ok := snaps[id]
		if !ok {
			continue
		}
		for _, dep := range snap.Chained {
			if !in[dep] || dep == id {
				continue
			}
			before[dep] = append(before[dep], id)
			inDegree[id]++
		}
	}

	var queue, out []string
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		out = append(out, id)
		for _, next := range before[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(out) != len(ids) {
		return ids, fmt.Errorf("ordered %d of %d issues: %w", len(out), len(ids), ErrCycle)
	}
	return out, nil
}

// Blockers returns, for every open issue in snaps, the open issues it is
// chained to. Issues without open links are absent from the result.
// Links to issues missing from snaps do not block.
func Blockers(snaps Snapshots) map[string][]string {
	out := map[string][]string{}
	for id, s := range snaps {
		if s.Status == index.StatusClosed {
			continue
		}
		for _, dep := range s.Chained {
			if d, ok := snaps[dep]; ok && d.Status != index.StatusClosed {
				out[id] = append(out[id], dep)
			}
		}
	}
	return out
}

// Ready reports whether the open issue id could be closed now.
func Ready(snaps Snapshots, blockers map[string][]string, id string) bool {
	s, ok := snaps[id]
	return ok && s.Status != index.StatusClosed && len(blockers[id]) == 0
}
