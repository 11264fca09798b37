package testutil

import (
	"fmt"
	"math/rand"

	"issue-lite/internal/diff"
)

// LogGenerator produces random but reproducible issue diff logs.
type LogGenerator struct {
	rng     *rand.Rand
	ts      float64
	authors []diff.Author
	tags    []string
}

// NewLogGenerator returns a generator seeded with seed.
func NewLogGenerator(seed int64) *LogGenerator {
	return &LogGenerator{
		rng: rand.New(rand.NewSource(seed)),
		ts:  1700000000,
		authors: []diff.Author{
			{Name: "Alice", Email: "alice@example.com"},
			{Name: "Bob", Email: "bob@example.com"},
		},
		tags: []string{"bug", "feature", "docs", "ui"},
	}
}

// Log returns an open diff followed by n random mutations. Roughly one
// in five diffs reuses the previous timestamp so ties are exercised.
func (g *LogGenerator) Log(n int) []diff.Diff {
	out := []diff.Diff{g.next(diff.Open{})}
	for i := 0; i < n; i++ {
		out = append(out, g.next(g.action(i)))
	}
	return out
}

// Batches splits diffs into consecutive batches of at most size records.
func Batches(diffs []diff.Diff, size int) [][]diff.Diff {
	var out [][]diff.Diff
	for len(diffs) > 0 {
		n := size
		if n > len(diffs) {
			n = len(diffs)
		}
		out = append(out, diffs[:n])
		diffs = diffs[n:]
	}
	return out
}

func (g *LogGenerator) next(a diff.Action) diff.Diff {
	if g.rng.Intn(5) != 0 {
		g.ts += float64(1 + g.rng.Intn(600))
	}
	author := g.authors[g.rng.Intn(len(g.authors))]
	return diff.New(author, g.ts, a)
}

func (g *LogGenerator) tag() string {
	return g.tags[g.rng.Intn(len(g.tags))]
}

func (g *LogGenerator) action(i int) diff.Action {
	switch g.rng.Intn(12) {
	case 0:
		return diff.SetMessage{Text: fmt.Sprintf("Message %d", i)}
	case 1:
		return diff.PushTags{Tags: []string{g.tag(), g.tag()}}
	case 2:
		return diff.RemoveTags{Tags: []string{g.tag()}}
	case 3:
		return diff.ParameterSet{Key: fmt.Sprintf("k%d", g.rng.Intn(3)), Value: fmt.Sprintf("v%d", i)}
	case 4:
		return diff.ParameterRemove{Key: fmt.Sprintf("k%d", g.rng.Intn(3))}
	case 5:
		return diff.PushMilestones{Milestones: []string{fmt.Sprintf("m%d", i)}}
	case 6:
		return diff.Close{}
	case 7:
		return diff.Open{}
	case 8:
		return diff.ChainLink{IDs: []string{fmt.Sprintf("%040d", g.rng.Intn(4))}}
	case 9:
		return diff.ChainUnlink{IDs: []string{fmt.Sprintf("%040d", g.rng.Intn(4))}}
	case 10:
		return diff.WorkStart{}
	default:
		return diff.WorkStop{}
	}
}
