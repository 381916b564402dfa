// Package metadata loads the match metadata the arena controller drops on
// the robot's USB stick, and gates user access to it until the match has
// started.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/golang/glog"
)

// EnvPath names the directory to search for the metadata file. Unset means
// no arena controller is present and the defaults apply.
const EnvPath = "SBOT_METADATA_PATH"

const fileName = "metadata.json"

// ErrNotReady is returned when metadata is read before the match starts;
// the arena controller may rewrite the file any time up to that point.
var ErrNotReady = errors.New("metadata: not available until the match starts")

// Metadata describes the robot's slot in the current match.
type Metadata struct {
	IsCompetition bool `json:"is_competition"`
	Zone          int  `json:"zone"`
}

// Default is the out-of-arena metadata: development mode, zone 0.
func Default() Metadata { return Metadata{} }

// Load reads the metadata directory named by EnvPath. An unset variable
// yields the defaults; a set variable with no metadata file is an error,
// as a competition robot must not silently fall back to development mode.
func Load() (Metadata, error) {
	dir, ok := os.LookupEnv(EnvPath)
	if !ok || dir == "" {
		glog.V(1).Infof("metadata: %s unset, using defaults", EnvPath)
		return Default(), nil
	}
	return LoadDir(dir)
}

// LoadDir searches dir and its immediate children for the metadata file.
// Children are visited in reverse name order so the most recently labelled
// mount wins when several are present.
func LoadDir(dir string) (Metadata, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Metadata{}, fmt.Errorf("metadata: %w", err)
	}
	candidates := []string{filepath.Join(dir, fileName)}
	var children []string
	for _, entry := range entries {
		if entry.IsDir() {
			children = append(children, filepath.Join(dir, entry.Name(), fileName))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(children)))
	candidates = append(candidates, children...)

	for _, path := range candidates {
		raw, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Metadata{}, fmt.Errorf("metadata: %w", err)
		}
		var md Metadata
		if err := json.Unmarshal(raw, &md); err != nil {
			return Metadata{}, fmt.Errorf("metadata: %s: %w", path, err)
		}
		glog.Infof("metadata: loaded %s: competition=%v zone=%d", path, md.IsCompetition, md.Zone)
		return md, nil
	}
	return Metadata{}, fmt.Errorf("metadata: no %s under %s", fileName, dir)
}

// Store hands metadata to user code once the match has started.
type Store struct {
	mu    sync.RWMutex
	md    Metadata
	ready bool
}

// Set publishes the metadata; called once the start signal arrives.
func (s *Store) Set(md Metadata) {
	s.mu.Lock()
	s.md = md
	s.ready = true
	s.mu.Unlock()
}

// Get returns the match metadata, or ErrNotReady before the start signal.
func (s *Store) Get() (Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return Metadata{}, ErrNotReady
	}
	return s.md, nil
}
