// Package repository locates and initialises the .issue directory and
// exposes the paths of everything persisted inside it.
package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"issue-lite/internal/fsutil"
)

// DirName is the hidden directory holding a repository.
const DirName = ".issue"

// Replica roles written to the status file.
const (
	RoleEndpoint = "endpoint"
	RoleExchange = "exchange"
)

var (
	ErrRepositoryNotFound = errors.New("no .issue repository found")
	ErrRepositoryExists   = errors.New("repository already exists")
	ErrInvalidRole        = errors.New("invalid repository role")
)

// Handle is the resolved location of one repository. It is built once
// per command invocation and never changes afterwards.
type Handle struct {
	root string
}

// Open returns a handle for the repository at root, which must be the
// .issue directory itself.
func Open(root string) (Handle, error) {
	if !fsutil.IsDir(root) {
		return Handle{}, fmt.Errorf("%s: %w", root, ErrRepositoryNotFound)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Handle{}, fmt.Errorf("resolving path: %w", err)
	}
	return Handle{root: abs}, nil
}

// Find walks from start towards the filesystem root looking for a
// .issue directory.
func Find(start string) (Handle, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return Handle{}, fmt.Errorf("resolving path: %w", err)
	}
	for {
		candidate := filepath.Join(dir, DirName)
		if fsutil.IsDir(candidate) {
			return Handle{root: candidate}, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Handle{}, ErrRepositoryNotFound
		}
		dir = parent
	}
}

// InitOptions controls Init.
type InitOptions struct {
	Role string
	// Force wipes an existing repository first.
	Force bool
	// Upgrade fills in missing directories of an existing repository.
	Upgrade bool
}

// Init creates a repository in where/.issue.
func Init(where string, opts InitOptions) (Handle, error) {
	role := opts.Role
	if role == "" {
		role = RoleEndpoint
	}
	if err := ValidateRole(role); err != nil {
		return Handle{}, err
	}
	abs, err := filepath.Abs(filepath.Join(where, DirName))
	if err != nil {
		return Handle{}, fmt.Errorf("resolving path: %w", err)
	}
	h := Handle{root: abs}

	if fsutil.IsDir(abs) {
		switch {
		case opts.Force:
			if err := os.RemoveAll(abs); err != nil {
				return Handle{}, fmt.Errorf("removing existing repository: %w", err)
			}
		case !opts.Upgrade:
			return Handle{}, fmt.Errorf("%s: %w", abs, ErrRepositoryExists)
		}
	}

	for _, dir := range []string{h.TmpDir(), h.IssuesDir(), h.TagsDir(), h.ReleasesDir(), h.LogDir()} {
		if err := os.MkdirAll(dir, fsutil.DirPerms); err != nil {
			return Handle{}, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := h.SetRole(role); err != nil {
		return Handle{}, err
	}
	return h, nil
}

// ValidateRole reports whether role is a known replica role.
func ValidateRole(role string) error {
	if role != RoleEndpoint && role != RoleExchange {
		return fmt.Errorf("%q (want %s or %s): %w", role, RoleEndpoint, RoleExchange, ErrInvalidRole)
	}
	return nil
}

// Root returns the .issue directory.
func (h Handle) Root() string { return h.root }

// WorkDir returns the directory containing .issue.
func (h Handle) WorkDir() string { return filepath.Dir(h.root) }

func (h Handle) ObjectsDir() string  { return filepath.Join(h.root, "objects") }
func (h Handle) IssuesDir() string   { return filepath.Join(h.ObjectsDir(), "issues") }
func (h Handle) TagsDir() string     { return filepath.Join(h.ObjectsDir(), "tags") }
func (h Handle) ReleasesDir() string { return filepath.Join(h.ObjectsDir(), "releases") }
func (h Handle) TmpDir() string      { return filepath.Join(h.root, "tmp") }
func (h Handle) LogDir() string      { return filepath.Join(h.root, "log") }

func (h Handle) StatusPath() string      { return filepath.Join(h.root, "status") }
func (h Handle) RemotesPath() string     { return filepath.Join(h.root, "remotes.json") }
func (h Handle) PackPath() string        { return filepath.Join(h.root, "pack.json") }
func (h Handle) RemotePackPath() string  { return filepath.Join(h.root, "remote_pack.json") }
func (h Handle) LastPath() string        { return filepath.Join(h.root, "last") }
func (h Handle) ShortlogPath() string    { return filepath.Join(h.LogDir(), "events_log.json") }
func (h Handle) NextReleasePath() string { return filepath.Join(h.root, "next_release") }
func (h Handle) ConfigPath() string      { return filepath.Join(h.root, "config.yaml") }
func (h Handle) LegacyConfigPath() string {
	return filepath.Join(h.root, "config.json")
}

// Role returns the replica role from the status file. A missing file
// means endpoint.
func (h Handle) Role() (string, error) {
	v, err := h.readWord(h.StatusPath())
	if err != nil {
		return "", err
	}
	if v == "" {
		return RoleEndpoint, nil
	}
	return v, nil
}

// SetRole rewrites the status file.
func (h Handle) SetRole(role string) error {
	if err := ValidateRole(role); err != nil {
		return err
	}
	return fsutil.WriteFile(h.StatusPath(), []byte(role))
}

// LastIssue returns the id of the last touched issue, or "" if none.
func (h Handle) LastIssue() (string, error) {
	return h.readWord(h.LastPath())
}

// SetLastIssue records id as the last touched issue.
func (h Handle) SetLastIssue(id string) error {
	return fsutil.WriteFile(h.LastPath(), []byte(id))
}

// NextRelease returns the name of the currently open release, or "".
func (h Handle) NextRelease() (string, error) {
	return h.readWord(h.NextReleasePath())
}

// SetNextRelease writes the release pointer; an empty name clears it.
func (h Handle) SetNextRelease(name string) error {
	if name == "" {
		if err := os.Remove(h.NextReleasePath()); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("clearing release pointer: %w", err)
		}
		return nil
	}
	return fsutil.WriteFile(h.NextReleasePath(), []byte(name))
}

func (h Handle) readWord(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
