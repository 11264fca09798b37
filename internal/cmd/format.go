package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"issue-lite/internal/diff"
	"issue-lite/internal/index"
	"issue-lite/internal/objectstore"
)

// shortIDLen is how many id characters are printed in listings.
const shortIDLen = 10

// IssueJSON is the JSON output format of an issue.
type IssueJSON struct {
	ID               string         `json:"id"`
	Status           string         `json:"status"`
	Title            string         `json:"title"`
	Message          string         `json:"message"`
	Tags             []string       `json:"tags"`
	Milestones       []string       `json:"milestones,omitempty"`
	Parameters       map[string]any `json:"parameters,omitempty"`
	OpenedBy         string         `json:"opened_by,omitempty"`
	OpenedAt         string         `json:"opened_at,omitempty"`
	ClosedBy         string         `json:"closed_by,omitempty"`
	ClosedAt         string         `json:"closed_at,omitempty"`
	ClosingGitCommit string         `json:"closing_git_commit,omitempty"`
	Parent           string         `json:"parent,omitempty"`
	Chained          []string       `json:"chained,omitempty"`
	Attached         []string       `json:"attached,omitempty"`
	BlockedBy        []string       `json:"blocked_by,omitempty"`
	TimeSpent        string         `json:"time_spent,omitempty"`
	Comments         []CommentJSON  `json:"comments,omitempty"`
}

// CommentJSON is the JSON output format of a comment.
type CommentJSON struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// DiffJSON is the JSON output format of one log entry.
type DiffJSON struct {
	Action    string         `json:"action"`
	Params    map[string]any `json:"params"`
	Author    string         `json:"author"`
	Timestamp string         `json:"timestamp"`
}

func toIssueJSON(id string, s *index.Snapshot, now time.Time) IssueJSON {
	out := IssueJSON{
		ID:               id,
		Status:           s.Status,
		Title:            s.Title(),
		Message:          s.Message,
		Tags:             s.Tags,
		Milestones:       s.Milestones,
		Parameters:       s.Parameters,
		ClosingGitCommit: s.ClosingGitCommit,
		Parent:           s.Parent,
		Chained:          s.Chained,
		Attached:         s.Attached,
	}
	if s.Open != nil {
		out.OpenedBy = formatAuthor(s.Open.Author)
		out.OpenedAt = formatTime(s.Open.Timestamp)
	}
	if s.Close != nil {
		out.ClosedBy = formatAuthor(s.Close.Author)
		out.ClosedAt = formatTime(s.Close.Timestamp)
	}
	if spent := s.TimeSpent(now); spent > 0 {
		out.TimeSpent = index.FormatDuration(spent)
	}
	return out
}

func toCommentJSON(c objectstore.Comment) CommentJSON {
	return CommentJSON{
		ID:        c.ID,
		Author:    formatAuthor(diff.Author{Name: c.AuthorName, Email: c.AuthorEmail}),
		Message:   c.Message,
		Timestamp: formatTime(c.Timestamp),
	}
}

func toDiffJSON(d diff.Diff) (DiffJSON, error) {
	rec, err := diff.Encode(d)
	if err != nil {
		return DiffJSON{}, err
	}
	params := map[string]any{}
	if len(rec.Params) > 0 {
		if err := json.Unmarshal(rec.Params, &params); err != nil {
			return DiffJSON{}, err
		}
	}
	return DiffJSON{
		Action:    rec.Action,
		Params:    params,
		Author:    formatAuthor(d.Author),
		Timestamp: formatTime(d.Timestamp),
	}, nil
}

func formatAuthor(a diff.Author) string {
	if a.Email == "" {
		return a.Name
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

func formatTime(ts float64) string {
	return diff.Time(ts).Local().Format("2006-01-02 15:04:05")
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
