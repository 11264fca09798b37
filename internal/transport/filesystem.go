package transport

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"issue-lite/internal/fsutil"
	"issue-lite/internal/repository"
)

// FileSystem is a replica reachable through the local filesystem.
type FileSystem struct {
	root string
}

// NewFileSystem returns an endpoint for the replica at root. root may be
// the .issue directory or the directory containing it.
func NewFileSystem(root string) *FileSystem {
	if nested := filepath.Join(root, repository.DirName); fsutil.IsDir(nested) {
		root = nested
	}
	return &FileSystem{root: root}
}

func (f *FileSystem) abs(path string) string {
	return filepath.Join(f.root, filepath.FromSlash(path))
}

func (f *FileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(f.abs(path))
	if os.IsNotExist(err) {
		return nil, ErrNotExist
	}
	return data, err
}

func (f *FileSystem) WriteFile(ctx context.Context, path string, data []byte) error {
	if existing, err := os.ReadFile(f.abs(path)); err == nil && bytes.Equal(existing, data) {
		return nil
	}
	return fsutil.WriteFile(f.abs(path), data)
}

func (f *FileSystem) MkdirAll(ctx context.Context, path string) error {
	return os.MkdirAll(f.abs(path), fsutil.DirPerms)
}

func (f *FileSystem) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(f.abs(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (f *FileSystem) Remove(ctx context.Context, path string) error {
	if err := os.Remove(f.abs(path)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *FileSystem) String() string { return f.root }

var _ Endpoint = (*FileSystem)(nil)
