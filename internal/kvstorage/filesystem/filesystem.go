// Package filesystem implements kvstorage.KVStore as a directory holding
// one <key>.json file per record.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"issue-lite/internal/fsutil"
	"issue-lite/internal/kvstorage"
)

const (
	ext        = ".json"
	tempPrefix = ".tmp-"
)

// Store is a record directory such as objects/issues/ab/<id>/diff.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory holding the records.
func (s *Store) Dir() string {
	return s.dir
}

// Init creates the directory. An existing directory is success.
func (s *Store) Init(ctx context.Context) error {
	return os.MkdirAll(s.dir, fsutil.DirPerms)
}

// Set stores value under key. With FailIfExists the record is written to
// a temp file and hard-linked into place, so a concurrent writer of the
// same key gets ErrAlreadyExists and readers never see a partial record.
func (s *Store) Set(ctx context.Context, key string, value []byte, opts kvstorage.SetOptions) error {
	if err := kvstorage.ValidateKey(key); err != nil {
		return err
	}
	if !opts.FailIfExists {
		return fsutil.WriteFile(s.path(key), value)
	}
	if err := s.Init(ctx); err != nil {
		return err
	}
	return s.create(key, value)
}

func (s *Store) create(key string, value []byte) error {
	tmp, err := os.CreateTemp(s.dir, tempPrefix+"*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(fsutil.FilePerms); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Link(tmp.Name(), s.path(key)); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("key %q: %w", key, kvstorage.ErrAlreadyExists)
		}
		return err
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := kvstorage.ValidateKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("key %q: %w", key, kvstorage.ErrKeyNotFound)
	}
	return data, err
}

// List returns the record keys in sorted order. Subdirectories, foreign
// files and in-flight temp files are skipped.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if key, ok := strings.CutSuffix(name, ext); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+ext)
}

var _ kvstorage.KVStore = (*Store)(nil)
