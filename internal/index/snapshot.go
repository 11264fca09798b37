package index

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"issue-lite/internal/diff"
)

const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Stamp records who performed a lifecycle transition and when.
type Stamp struct {
	Author    diff.Author
	Timestamp float64
}

// Snapshot is the materialized state of an issue. Nil stamps and empty
// strings mean "never set".
type Snapshot struct {
	Status           string
	Message          string
	Tags             []string
	Milestones       []string
	Parameters       map[string]any
	Open             *Stamp
	Close            *Stamp
	ClosingGitCommit string
	ProjectTag       string
	ProjectName      string
	Parent           string
	Chained          []string
	Attached         []string

	// WorkSeconds accumulates closed work intervals. WorkStarted maps
	// author email to the start of that author's open interval.
	WorkSeconds float64
	WorkStarted map[string]float64
}

// NewSnapshot returns the empty fold seed.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Tags:        []string{},
		Milestones:  []string{},
		Parameters:  map[string]any{},
		Chained:     []string{},
		Attached:    []string{},
		WorkStarted: map[string]float64{},
	}
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	c.Tags = append([]string{}, s.Tags...)
	c.Milestones = append([]string{}, s.Milestones...)
	c.Chained = append([]string{}, s.Chained...)
	c.Attached = append([]string{}, s.Attached...)
	c.Parameters = make(map[string]any, len(s.Parameters))
	for k, v := range s.Parameters {
		c.Parameters[k] = v
	}
	c.WorkStarted = make(map[string]float64, len(s.WorkStarted))
	for k, v := range s.WorkStarted {
		c.WorkStarted[k] = v
	}
	if s.Open != nil {
		o := *s.Open
		c.Open = &o
	}
	if s.Close != nil {
		cl := *s.Close
		c.Close = &cl
	}
	return &c
}

// Title returns the first line of the message.
func (s *Snapshot) Title() string {
	title, _, _ := strings.Cut(s.Message, "\n")
	return title
}

// HasTag reports whether tag is set on the issue.
func (s *Snapshot) HasTag(tag string) bool {
	return contains(s.Tags, tag)
}

// TimeSpent returns the tracked work time, counting intervals still open
// at now.
func (s *Snapshot) TimeSpent(now time.Time) time.Duration {
	total := s.WorkSeconds
	current := diff.Timestamp(now)
	for _, start := range s.WorkStarted {
		if current > start {
			total += current - start
		}
	}
	return time.Duration(total * float64(time.Second))
}

// WorkInProgress reports whether email has an open work interval.
func (s *Snapshot) WorkInProgress(email string) bool {
	_, ok := s.WorkStarted[email]
	return ok
}

// FormatDuration renders d as H:MM:SS.
func FormatDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}

// MarshalJSON writes the flat on-disk form. Keys are emitted in sorted
// order, so equal snapshots encode to equal bytes.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"status":     s.Status,
		"message":    s.Message,
		"tags":       nonNil(s.Tags),
		"milestones": nonNil(s.Milestones),
		"parameters": s.Parameters,
		"chained":    nonNil(s.Chained),
		"attached":   nonNil(s.Attached),
	}
	if s.Parameters == nil {
		m["parameters"] = map[string]any{}
	}
	putStamp(m, "open", s.Open)
	putStamp(m, "close", s.Close)
	putString(m, "closing_git_commit", s.ClosingGitCommit)
	putString(m, "project.tag", s.ProjectTag)
	putString(m, "project.name", s.ProjectName)
	putString(m, "parent", s.Parent)
	if s.WorkSeconds > 0 {
		m["work.seconds"] = s.WorkSeconds
		m["total_time_spent"] = FormatDuration(time.Duration(s.WorkSeconds * float64(time.Second)))
	}
	if len(s.WorkStarted) > 0 {
		m["work.started"] = s.WorkStarted
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads the flat on-disk form, including snapshots written
// by older clients that used "labels" and a bare "timestamp".
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = *NewSnapshot()

	fields := []struct {
		key string
		dst any
	}{
		{"status", &s.Status},
		{"message", &s.Message},
		{"tags", &s.Tags},
		{"milestones", &s.Milestones},
		{"parameters", &s.Parameters},
		{"closing_git_commit", &s.ClosingGitCommit},
		{"project.tag", &s.ProjectTag},
		{"project.name", &s.ProjectName},
		{"parent", &s.Parent},
		{"chained", &s.Chained},
		{"attached", &s.Attached},
		{"work.seconds", &s.WorkSeconds},
		{"work.started", &s.WorkStarted},
	}
	for _, f := range fields {
		v, ok := raw[f.key]
		if !ok || string(v) == "null" {
			continue
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return fmt.Errorf("snapshot field %q: %w", f.key, err)
		}
	}
	if _, ok := raw["tags"]; !ok {
		if v, ok := raw["labels"]; ok {
			if err := json.Unmarshal(v, &s.Tags); err != nil {
				return fmt.Errorf("snapshot field %q: %w", "labels", err)
			}
		}
	}

	var err error
	if s.Open, err = readStamp(raw, "open"); err != nil {
		return err
	}
	if s.Close, err = readStamp(raw, "close"); err != nil {
		return err
	}
	if s.Open == nil {
		if v, ok := raw["timestamp"]; ok {
			var ts float64
			if err := json.Unmarshal(v, &ts); err == nil {
				s.Open = &Stamp{Timestamp: ts}
			}
		}
	}
	s.Tags = nonNil(s.Tags)
	s.Milestones = nonNil(s.Milestones)
	s.Chained = nonNil(s.Chained)
	s.Attached = nonNil(s.Attached)
	if s.Parameters == nil {
		s.Parameters = map[string]any{}
	}
	if s.WorkStarted == nil {
		s.WorkStarted = map[string]float64{}
	}
	return nil
}

func putStamp(m map[string]any, prefix string, st *Stamp) {
	if st == nil {
		return
	}
	m[prefix+".author.name"] = st.Author.Name
	m[prefix+".author.email"] = st.Author.Email
	m[prefix+".timestamp"] = st.Timestamp
}

func readStamp(raw map[string]json.RawMessage, prefix string) (*Stamp, error) {
	tsRaw, ok := raw[prefix+".timestamp"]
	if !ok {
		return nil, nil
	}
	st := &Stamp{}
	if err := json.Unmarshal(tsRaw, &st.Timestamp); err != nil {
		return nil, fmt.Errorf("snapshot field %q: %w", prefix+".timestamp", err)
	}
	if v, ok := raw[prefix+".author.name"]; ok {
		_ = json.Unmarshal(v, &st.Author.Name)
	}
	if v, ok := raw[prefix+".author.email"]; ok {
		_ = json.Unmarshal(v, &st.Author.Email)
	}
	return st, nil
}

func putString(m map[string]any, key, v string) {
	if v != "" {
		m[key] = v
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
