// Package diff defines the immutable records that make up an entity's log.
//
// A diff is one authored, timestamped action. Diffs are written in
// batches: a batch file holds a JSON list of records and is created once
// by a single command invocation, never modified afterwards.
package diff

import (
	"encoding/json"
	"time"
)

// Author identifies who wrote a diff or comment.
type Author struct {
	Name  string `json:"author.name"`
	Email string `json:"author.email"`
}

// Diff is a decoded log entry.
type Diff struct {
	Action    Action
	Author    Author
	Timestamp float64
}

// New returns a diff for action written by author at ts.
func New(author Author, ts float64, action Action) Diff {
	return Diff{Action: action, Author: author, Timestamp: ts}
}

// Record is the on-disk form of a diff.
type Record struct {
	Action    string          `json:"action"`
	Params    json.RawMessage `json:"params,omitempty"`
	Author    Author          `json:"author"`
	Timestamp float64         `json:"timestamp"`
}

// Clock abstracts time retrieval so timestamps are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Timestamp converts t to fractional unix seconds, the unit stored in
// every record.
func Timestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// Time converts fractional unix seconds back to a time.Time.
func Time(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
