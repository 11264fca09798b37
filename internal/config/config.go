// Package config handles layered configuration loading and defaults.
//
// Configuration is read from several files merged key-by-key, later
// layers winning: the legacy global ~/.issueconfig.json, the global
// $XDG_CONFIG_HOME/issue/config.yaml, the legacy repository
// .issue/config.json and the repository .issue/config.yaml.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

var ErrReadOnly = errors.New("config layer is read-only")

// Paths captures resolved locations of the config layers. Empty paths
// are skipped.
type Paths struct {
	LegacyGlobal string // ~/.issueconfig.json
	Global       string // $XDG_CONFIG_HOME/issue/config.yaml
	LegacyLocal  string // .issue/config.json
	Local        string // .issue/config.yaml
}

// DefaultPaths resolves the layer locations. repoRoot is the .issue
// directory, or "" when running outside a repository.
func DefaultPaths(repoRoot string) Paths {
	var p Paths
	if home, err := os.UserHomeDir(); err == nil {
		p.LegacyGlobal = filepath.Join(home, ".issueconfig.json")
		p.Global = filepath.Join(home, ".config", "issue", "config.yaml")
	}
	if xdg := os.Getenv(EnvConfigHome); xdg != "" {
		p.Global = filepath.Join(xdg, "issue", "config.yaml")
	}
	if repoRoot != "" {
		p.LegacyLocal = filepath.Join(repoRoot, "config.json")
		p.Local = filepath.Join(repoRoot, "config.yaml")
	}
	return p
}

// Layered merges several stores. Reads consult in-memory overrides
// first, then the layers from last to first. Writes go to the last
// layer.
type Layered struct {
	layers   []Store
	override map[string]string
}

// NewLayered stacks layers; the last one receives writes.
func NewLayered(layers ...Store) *Layered {
	return &Layered{layers: layers, override: make(map[string]string)}
}

func (l *Layered) Get(key string) (string, bool) {
	if v, ok := l.override[key]; ok {
		return v, true
	}
	for i := len(l.layers) - 1; i >= 0; i-- {
		if v, ok := l.layers[i].Get(key); ok {
			return v, true
		}
	}
	return "", false
}

func (l *Layered) Set(key, value string) error {
	if len(l.layers) == 0 {
		return ErrReadOnly
	}
	delete(l.override, key)
	return l.layers[len(l.layers)-1].Set(key, value)
}

func (l *Layered) SetInMemory(key, value string) {
	l.override[key] = value
}

func (l *Layered) Unset(key string) error {
	if len(l.layers) == 0 {
		return ErrReadOnly
	}
	delete(l.override, key)
	return l.layers[len(l.layers)-1].Unset(key)
}

func (l *Layered) All() map[string]string {
	out := make(map[string]string)
	for _, layer := range l.layers {
		for k, v := range layer.All() {
			out[k] = v
		}
	}
	for k, v := range l.override {
		out[k] = v
	}
	return out
}

// LegacyJSON is a read-only layer backed by a JSON file written by
// older clients. Comments and trailing commas are tolerated.
type LegacyJSON struct {
	data map[string]string
}

// LoadLegacyJSON reads path. A missing file yields an empty layer.
func LoadLegacyJSON(path string) (*LegacyJSON, error) {
	s := &LegacyJSON{data: make(map[string]string)}
	if path == "" {
		return s, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var values map[string]any
	if err := json.Unmarshal(jsonc.ToJSON(raw), &values); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for k, v := range values {
		switch v := v.(type) {
		case nil:
		case string:
			s.data[k] = v
		default:
			s.data[k] = fmt.Sprint(v)
		}
	}
	return s, nil
}

func (s *LegacyJSON) Get(key string) (string, bool) {
	v, ok := s.data[key]
	return v, ok
}

func (s *LegacyJSON) Set(key, value string) error { return ErrReadOnly }

func (s *LegacyJSON) SetInMemory(key, value string) { s.data[key] = value }

func (s *LegacyJSON) Unset(key string) error { return ErrReadOnly }

func (s *LegacyJSON) All() map[string]string {
	out := make(map[string]string, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

var (
	_ Store = (*Layered)(nil)
	_ Store = (*LegacyJSON)(nil)
)
