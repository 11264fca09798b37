// Package shortlog keeps a bounded log of recent user-facing events,
// used to show what was worked on lately.
package shortlog

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/rs/zerolog"

	"issue-lite/internal/diff"
	"issue-lite/internal/fsutil"
)

// Event types.
const (
	EventOpen      = "open"
	EventClose     = "close"
	EventComment   = "comment"
	EventShow      = "show"
	EventTagged    = "tagged"
	EventChainedTo = "chained_to"
	EventSlug      = "slug"
)

// weights rank event types for squashing; lower is more important.
var weights = map[string]int{
	EventShow:      10,
	EventSlug:      0,
	EventComment:   7,
	EventOpen:      0,
	EventClose:     0,
	EventTagged:    8,
	EventChainedTo: 5,
}

// Event is one entry of log/events_log.json.
type Event struct {
	IssueUID   string         `json:"issue_uid"`
	Timestamp  float64        `json:"timestamp"`
	Event      string         `json:"event"`
	Parameters map[string]any `json:"parameters"`
}

// Log is the events log of one repository, capped at size entries.
type Log struct {
	path   string
	size   int
	clock  diff.Clock
	logger zerolog.Logger
}

// New returns the log stored at path.
func New(path string, size int, clock diff.Clock, logger zerolog.Logger) *Log {
	return &Log{path: path, size: size, clock: clock, logger: logger}
}

// Read returns the events oldest first. A corrupt file is logged and
// read as empty.
func (l *Log) Read() []Event {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Warn().Err(err).Msg("reading events log failed")
		}
		return nil
	}
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		l.logger.Warn().Err(err).Msg("failed to decode events log")
		return nil
	}
	return events
}

// Append records an event. An event repeating the previous one for the
// same issue is dropped.
func (l *Log) Append(issueUID, event string, params map[string]any) error {
	events := l.Read()
	if n := len(events); n > 0 && events[n-1].Event == event && events[n-1].IssueUID == issueUID {
		return nil
	}
	if params == nil {
		params = map[string]any{}
	}
	events = append(events, Event{
		IssueUID:   issueUID,
		Timestamp:  diff.Timestamp(l.clock.Now()),
		Event:      event,
		Parameters: params,
	})
	if l.size > 0 && len(events) > l.size {
		events = events[len(events)-l.size:]
	}
	return fsutil.WriteJSON(l.path, events)
}

// Squash collapses the log for display and returns it newest first.
// Level 0 drops consecutive repeats; level 1 also keeps only the more
// important of adjacent events for the same issue; level 2 compares
// each event with the last kept event for its issue anywhere in the log.
func Squash(events []Event, level int) []Event {
	if len(events) < 2 {
		return newestFirst(events)
	}
	out := []Event{events[0]}
	for _, e := range events[1:] {
		last := out[len(out)-1]
		if e.IssueUID == last.IssueUID && e.Event == last.Event {
			continue
		}
		out = append(out, e)
	}
	if level > 0 {
		out = squashAdjacent(out)
	}
	if level > 1 {
		out = squashByIssue(out)
	}
	return newestFirst(out)
}

func squashAdjacent(events []Event) []Event {
	if len(events) < 2 {
		return events
	}
	out := []Event{events[0]}
	for _, e := range events[1:] {
		last := out[len(out)-1]
		if e.IssueUID == last.IssueUID {
			lw, ew := ranks(last, e)
			if lw > ew {
				out = out[:len(out)-1]
			} else if lw < ew {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

func squashByIssue(events []Event) []Event {
	if len(events) < 2 {
		return events
	}
	out := []Event{events[0]}
	for _, e := range events[1:] {
		i := lastIndexOf(out, e.IssueUID)
		if i >= 0 {
			lw, ew := ranks(out[i], e)
			if lw > ew {
				out = append(out[:i], out[i+1:]...)
			} else if lw < ew {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// ranks returns the weights of a and b. An event type without a weight
// ties with everything.
func ranks(a, b Event) (int, int) {
	wa, okA := weights[a.Event]
	wb, okB := weights[b.Event]
	if !okA || !okB {
		return 0, 0
	}
	return wa, wb
}

func lastIndexOf(events []Event, issueUID string) int {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].IssueUID == issueUID {
			return i
		}
	}
	return -1
}

func newestFirst(events []Event) []Event {
	out := append([]Event(nil), events...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}
