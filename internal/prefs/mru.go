package prefs

import (
	"encoding/json"
	"os"
)

// MRUList is a finite, most-recently-used, deduplicated string list,
// the same shape used for recent.json (capacity 20), favorites.json,
// and command_history.json.
type MRUList struct {
	path     string
	capacity int
	entries  []string
}

// OpenMRUList loads path (a JSON array of strings, most-recent
// first), or starts empty if it doesn't exist yet.
func OpenMRUList(path string, capacity int) (*MRUList, error) {
	l := &MRUList{path: path, capacity: capacity}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &l.entries); err != nil {
		return nil, err
	}
	return l, nil
}

// Entries returns the list, most-recent first.
func (l *MRUList) Entries() []string {
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Submit moves entry to the front, deduplicating, evicting the oldest
// once capacity is exceeded, and persists the result.
func (l *MRUList) Submit(entry string) error {
	if entry == "" {
		return nil
	}
	for i, e := range l.entries {
		if e == entry {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			break
		}
	}
	l.entries = append([]string{entry}, l.entries...)
	if l.capacity > 0 && len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
	return l.save()
}

// Remove drops entry if present and persists the result; used by the
// favorites list's toggle-off action.
func (l *MRUList) Remove(entry string) error {
	for i, e := range l.entries {
		if e == entry {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return l.save()
		}
	}
	return nil
}

func (l *MRUList) save() error {
	return atomicWriteJSON(l.path, l.entries)
}

// RecentProjectsCapacity is the default cap for recent.json.
const RecentProjectsCapacity = 20

// KnownMainClasses is the on-disk schema for starters/<hash>.json: the
// main-class cache, keyed by module path. The launcher's main-class
// finder neither reads nor writes it.
type KnownMainClasses struct {
	path    string
	Classes map[string]string `json:"classes"`
}

// OpenKnownMainClasses loads path, or starts empty if absent.
func OpenKnownMainClasses(path string) (*KnownMainClasses, error) {
	k := &KnownMainClasses{path: path, Classes: make(map[string]string)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return k, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, k); err != nil {
		return nil, err
	}
	if k.Classes == nil {
		k.Classes = make(map[string]string)
	}
	return k, nil
}

// Set records module's main class and persists the cache.
func (k *KnownMainClasses) Set(module, mainClass string) error {
	k.Classes[module] = mainClass
	return atomicWriteJSON(k.path, k)
}

// Get returns the cached main class for module, if known.
func (k *KnownMainClasses) Get(module string) (string, bool) {
	v, ok := k.Classes[module]
	return v, ok
}
