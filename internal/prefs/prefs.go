// Package prefs persists per-project module preferences and the
// small MRU lists (recent projects, favorites, command history, known
// main classes) that survive across sessions.
package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lazymvn/lazymvn/internal/profile"
)

// HashProjectRoot derives the stable cache key used throughout this
// package, grounded on the same DJB2-style hash internal/project uses
// for its own cache filenames.
func HashProjectRoot(root string) uint64 {
	var h uint64 = 5381
	for i := 0; i < len(root); i++ {
		h = h*33 + uint64(root[i])
	}
	return h
}

// ModulePreferences is the persisted per-module state: the set of
// profile ids the user explicitly turned on, and the set of enabled
// flag names, read on tab open and written on toggle.
type ModulePreferences struct {
	ExplicitOnProfiles map[string]bool `json:"explicit_on_profiles"`
	EnabledFlags       map[string]bool `json:"enabled_flags"`
}

// ProjectPreferences is the on-disk schema for one
// preferences/<project-hash>.json file: one ModulePreferences per
// module path.
type ProjectPreferences struct {
	Modules map[string]*ModulePreferences `json:"modules"`
}

func newProjectPreferences() *ProjectPreferences {
	return &ProjectPreferences{Modules: make(map[string]*ModulePreferences)}
}

// ForModule returns the preferences for module, creating an empty
// entry on first access.
func (p *ProjectPreferences) ForModule(module string) *ModulePreferences {
	mp, ok := p.Modules[module]
	if !ok {
		mp = &ModulePreferences{
			ExplicitOnProfiles: make(map[string]bool),
			EnabledFlags:       make(map[string]bool),
		}
		p.Modules[module] = mp
	}
	return mp
}

// ApplyExplicitOn records the profiles currently in ExplicitOn state
// for module, discarding any previously recorded set (Default and
// ExplicitOff selections are not persisted; only explicit opt-in is).
func (mp *ModulePreferences) ApplyExplicitOn(selections map[string]profile.SelectionState) {
	mp.ExplicitOnProfiles = make(map[string]bool)
	for id, state := range selections {
		if state == profile.ExplicitOn {
			mp.ExplicitOnProfiles[id] = true
		}
	}
}

// Store is the on-disk preferences directory, keyed by project root
// hash. The MRU lists are separate MRUList values.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir (the user config directory's
// preferences/ subtree, per spec.md §6).
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) projectPath(root string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%016x.json", HashProjectRoot(root)))
}

// Load reads the preferences for root, returning an empty
// ProjectPreferences (not an error) when none exist yet.
func (s *Store) Load(root string) (*ProjectPreferences, error) {
	data, err := os.ReadFile(s.projectPath(root))
	if os.IsNotExist(err) {
		return newProjectPreferences(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading preferences: %w", err)
	}
	prefs := newProjectPreferences()
	if err := json.Unmarshal(data, prefs); err != nil {
		return nil, fmt.Errorf("parsing preferences: %w", err)
	}
	if prefs.Modules == nil {
		prefs.Modules = make(map[string]*ModulePreferences)
	}
	return prefs, nil
}

// Save atomically writes prefs for root via a temp-file rename.
func (s *Store) Save(root string, prefs *ProjectPreferences) error {
	return atomicWriteJSON(s.projectPath(root), prefs)
}

func atomicWriteJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
