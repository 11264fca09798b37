package testutil

import (
	"testing"

	"issue-lite/internal/repository"
)

// NewRepo initialises an endpoint repository in a temp directory.
func NewRepo(t *testing.T) repository.Handle {
	t.Helper()
	return NewRepoWithRole(t, repository.RoleEndpoint)
}

// NewRepoWithRole initialises a repository with the given role.
func NewRepoWithRole(t *testing.T, role string) repository.Handle {
	t.Helper()
	h, err := repository.Init(t.TempDir(), repository.InitOptions{Role: role})
	if err != nil {
		t.Fatalf("init repository: %v", err)
	}
	return h
}
