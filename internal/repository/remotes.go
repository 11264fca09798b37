package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/tidwall/jsonc"

	"issue-lite/internal/fsutil"
)

var ErrRemoteNotFound = errors.New("remote not found")

// Remote is one entry of remotes.json. Besides "url" and "status" a
// remote may carry arbitrary user-set keys.
type Remote map[string]string

func (r Remote) URL() string    { return r["url"] }
func (r Remote) Status() string { return r["status"] }

// Remotes maps remote names to their settings.
type Remotes map[string]Remote

// Names returns the remote names in sorted order.
func (rs Remotes) Names() []string {
	names := make([]string, 0, len(rs))
	for name := range rs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named remote or ErrRemoteNotFound.
func (rs Remotes) Get(name string) (Remote, error) {
	r, ok := rs[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrRemoteNotFound)
	}
	return r, nil
}

// Remotes loads remotes.json. A missing file yields an empty set.
func (h Handle) Remotes() (Remotes, error) {
	data, err := os.ReadFile(h.RemotesPath())
	if err != nil {
		if os.IsNotExist(err) {
			return Remotes{}, nil
		}
		return nil, fmt.Errorf("reading remotes: %w", err)
	}
	rs := Remotes{}
	if err := json.Unmarshal(jsonc.ToJSON(data), &rs); err != nil {
		return nil, fmt.Errorf("parsing remotes: %w", err)
	}
	return rs, nil
}

// SaveRemotes replaces remotes.json.
func (h Handle) SaveRemotes(rs Remotes) error {
	if err := fsutil.WriteJSON(h.RemotesPath(), rs); err != nil {
		return fmt.Errorf("writing remotes: %w", err)
	}
	return nil
}
