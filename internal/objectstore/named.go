package objectstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"issue-lite/internal/fsutil"
)

// ValidateName checks a tag or release name, which is used directly as
// a directory name.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("invalid name %q", name)
	}
	return nil
}

func (s *Store) TagDir(name string) string     { return filepath.Join(s.repo.TagsDir(), name) }
func (s *Store) ReleaseDir(name string) string { return filepath.Join(s.repo.ReleasesDir(), name) }

// TagLog returns the diff log of tag name.
func (s *Store) TagLog(name string) *Log {
	return newLog("tag "+name, filepath.Join(s.TagDir(name), "diff"), s.logger)
}

// ReleaseLog returns the diff log of release name.
func (s *Store) ReleaseLog(name string) *Log {
	return newLog("release "+name, filepath.Join(s.ReleaseDir(name), "diff"), s.logger)
}

func (s *Store) TagExists(name string) bool     { return fsutil.IsDir(s.TagDir(name)) }
func (s *Store) ReleaseExists(name string) bool { return fsutil.IsDir(s.ReleaseDir(name)) }

// ListTags returns the names of explicitly created tags.
func (s *Store) ListTags(ctx context.Context) ([]string, error) {
	return listDirs(s.repo.TagsDir())
}

// ListReleases returns the names of all releases.
func (s *Store) ListReleases(ctx context.Context) ([]string, error) {
	return listDirs(s.repo.ReleasesDir())
}

// ReleaseNotesPath returns the path of release name's free-text notes.
func (s *Store) ReleaseNotesPath(name string) string {
	return filepath.Join(s.ReleaseDir(name), "notes")
}

// ReleaseNotes returns the notes of release name, or "" if none.
func (s *Store) ReleaseNotes(name string) (string, error) {
	data, err := os.ReadFile(s.ReleaseNotesPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// SetReleaseNotes replaces the notes of release name.
func (s *Store) SetReleaseNotes(name, notes string) error {
	if !s.ReleaseExists(name) {
		return fmt.Errorf("%q: %w", name, ErrNoRelease)
	}
	return fsutil.WriteFile(s.ReleaseNotesPath(name), []byte(notes))
}

func listDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
