package idgen

import (
	"strings"
)

// MinPrefix is the shortest id prefix accepted for lookups.
const MinPrefix = 1

// IssueID returns a new id for an issue opened with the given content.
func IssueID(message string, tags, milestones []string) string {
	return hashFields(
		"issue",
		message,
		strings.Join(tags, ","),
		strings.Join(milestones, ","),
		nonce(),
	)
}

// DiffID returns a new id for a diff batch written by the given author.
func DiffID(authorName, authorEmail string, timestamp float64) string {
	return hashFields("diff", authorEmail, authorName, formatTimestamp(timestamp), nonce())
}

// CommentID returns a new id for a comment on issueID.
func CommentID(issueID string, timestamp float64, message string) string {
	return hashFields("comment", issueID, formatTimestamp(timestamp), message, nonce())
}

// IsValid reports whether id looks like a generated object id: at least
// 40 lowercase hex characters. Older repositories used 40-character SHA-1
// ids, which remain valid.
func IsValid(id string) bool {
	if len(id) < 40 {
		return false
	}
	for _, r := range id {
		if !isHex(r) {
			return false
		}
	}
	return true
}

// IsPrefix reports whether s can be a prefix of a generated id.
func IsPrefix(s string) bool {
	if len(s) < MinPrefix {
		return false
	}
	for _, r := range s {
		if !isHex(r) {
			return false
		}
	}
	return true
}

// Shard returns the name of the bucket directory holding id.
func Shard(id string) string {
	if len(id) < 2 {
		return id
	}
	return id[:2]
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
}
