// Package yamlstore implements config.Store backed by a flat YAML file
// of dotted keys such as "author.email". Keys are written in
// alphabetical order.
package yamlstore

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"gopkg.in/yaml.v3"

	"issue-lite/internal/config"
	"issue-lite/internal/fsutil"
)

// Store is one YAML config layer: the global config.yaml under
// $XDG_CONFIG_HOME/issue or the replica's .issue/config.yaml.
type Store struct {
	path string
	data map[string]string
}

// New loads the layer at path. A missing or empty file is an empty
// layer; the file is created by the first Set.
func New(path string) (*Store, error) {
	data, err := decode(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, data: data}, nil
}

func (s *Store) Get(key string) (string, bool) {
	v, ok := s.data[key]
	return v, ok
}

// Set validates key and persists key=value.
func (s *Store) Set(key, value string) error {
	if err := config.ValidateKey(key); err != nil {
		return err
	}
	return s.update(func(data map[string]string) { data[key] = value })
}

func (s *Store) SetInMemory(key, value string) {
	s.data[key] = value
}

func (s *Store) Unset(key string) error {
	return s.update(func(data map[string]string) { delete(data, key) })
}

func (s *Store) All() map[string]string {
	out := make(map[string]string, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// update applies fn to the file's current content under an exclusive
// flock on <path>.lock, so two `issue config set` runs against the same
// layer do not lose each other's keys. In-memory overrides are dropped.
func (s *Store) update(fn func(map[string]string)) error {
	if err := os.MkdirAll(filepath.Dir(s.path), fsutil.DirPerms); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	unlock, err := lock(s.path + ".lock")
	if err != nil {
		return err
	}
	defer unlock()

	data, err := decode(s.path)
	if err != nil {
		return err
	}
	fn(data)

	raw, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", s.path, err)
	}
	if err := fsutil.WriteFile(s.path, raw); err != nil {
		return err
	}
	s.data = data
	return nil
}

func lock(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, fsutil.FilePerms)
	if err != nil {
		return nil, fmt.Errorf("opening config lock: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquiring config lock: %w", err)
	}
	return func() {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
	}, nil
}

// decode reads the flat key map stored at path.
func decode(path string) (map[string]string, error) {
	data := map[string]string{}
	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return data, nil
	case err != nil:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if data == nil {
		data = map[string]string{}
	}
	return data, nil
}

var _ config.Store = (*Store)(nil)
