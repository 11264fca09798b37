package idgen

import (
	"testing"
)

func TestIssueIDFormat(t *testing.T) {
	id := IssueID("Fix crash on startup", []string{"bug"}, nil)
	if len(id) != Length {
		t.Fatalf("len(IssueID) = %d, want %d", len(id), Length)
	}
	if !IsValid(id) {
		t.Errorf("IsValid(%q) = false", id)
	}
}

func TestIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		for _, id := range []string{
			IssueID("same", nil, nil),
			DiffID("alice", "alice@example.com", 1700000000),
			CommentID("abc", 1700000000, "same"),
		} {
			if seen[id] {
				t.Fatalf("duplicate id %s", id)
			}
			seen[id] = true
		}
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"", false},
		{"abc", false},
		{"da39a3ee5e6b4b0d3255bfef95601890afd80709", true},
		{"DA39A3EE5E6B4B0D3255BFEF95601890AFD80709", false},
		{"zz39a3ee5e6b4b0d3255bfef95601890afd80709", false},
	}
	for _, tt := range tests {
		if got := IsValid(tt.id); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestShard(t *testing.T) {
	if got := Shard("abcdef"); got != "ab" {
		t.Errorf("Shard = %q, want %q", got, "ab")
	}
	if got := Shard("a"); got != "a" {
		t.Errorf("Shard(short) = %q, want %q", got, "a")
	}
}
