// Package search implements regex search over an output.Buffer with
// O(1) next/previous navigation and viewport-centering on the current
// match.
package search

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/lazymvn/lazymvn/internal/output"
)

// Match is one regex occurrence, ordered by (LineIndex, ByteStart).
type Match struct {
	LineIndex int
	ByteStart int
	ByteEnd   int
}

// InvalidRegexError wraps a regexp compile failure for display in the
// search status line.
type InvalidRegexError struct {
	Pattern string
	Err     error
}

func (e *InvalidRegexError) Error() string {
	return fmt.Sprintf("invalid regex %q: %v", e.Pattern, e.Err)
}

func (e *InvalidRegexError) Unwrap() error { return e.Err }

// State is the live search over a buffer: the active pattern, its
// matches in document order, and a cursor into them.
type State struct {
	Pattern         string
	CaseInsensitive bool
	Matches         []Match
	CurrentIndex    int // -1 when there are no matches
	PendingCenter   bool
}

// Apply compiles pattern and scans buf for every occurrence, in
// document order. A fresh search starts with CurrentIndex at -1, so
// the first Next() lands on the first match rather than the second.
// When keepCurrent is true and the pattern (and its case sensitivity)
// is unchanged from prev, CurrentIndex is preserved (clamped to the
// new match count) instead.
func Apply(buf *output.Buffer, pattern string, caseInsensitive bool, keepCurrent bool, prev *State) (*State, error) {
	expr := pattern
	if caseInsensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &InvalidRegexError{Pattern: pattern, Err: err}
	}

	var matches []Match
	for i := 0; i < buf.Len(); i++ {
		line := buf.LineDisplay(i)
		for _, loc := range re.FindAllStringIndex(line, -1) {
			matches = append(matches, Match{LineIndex: i, ByteStart: loc[0], ByteEnd: loc[1]})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].LineIndex != matches[j].LineIndex {
			return matches[i].LineIndex < matches[j].LineIndex
		}
		return matches[i].ByteStart < matches[j].ByteStart
	})

	state := &State{
		Pattern:         pattern,
		CaseInsensitive: caseInsensitive,
		Matches:         matches,
		CurrentIndex:    -1,
	}

	if keepCurrent && prev != nil && prev.Pattern == pattern && prev.CaseInsensitive == caseInsensitive && len(matches) > 0 {
		idx := prev.CurrentIndex
		if idx < 0 {
			idx = 0
		}
		if idx >= len(matches) {
			idx = len(matches) - 1
		}
		state.CurrentIndex = idx
		state.PendingCenter = false
	}

	return state, nil
}

// Next moves to the next match, wrapping around modulo the match
// count. A no-op when there are no matches.
func (s *State) Next() {
	if len(s.Matches) == 0 {
		return
	}
	s.CurrentIndex = (s.CurrentIndex + 1) % len(s.Matches)
	s.PendingCenter = true
}

// Previous moves to the previous match, wrapping around. The inverse
// of Next (invariant 8).
func (s *State) Previous() {
	if len(s.Matches) == 0 {
		return
	}
	s.CurrentIndex = (s.CurrentIndex - 1 + len(s.Matches)) % len(s.Matches)
	s.PendingCenter = true
}

// JumpTo selects match index directly and requests centering. Returns
// false (no-op) for an out-of-range index.
func (s *State) JumpTo(index int) bool {
	if index < 0 || index >= len(s.Matches) {
		return false
	}
	s.CurrentIndex = index
	s.PendingCenter = true
	return true
}

// Current returns the currently selected match and whether one exists.
func (s *State) Current() (Match, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Matches) {
		return Match{}, false
	}
	return s.Matches[s.CurrentIndex], true
}

// CenterOffset computes the scroll offset that puts matchRow at
// viewport_top + floor(view_height/2), clamped to [0, maxScrollOffset].
func CenterOffset(matchRow, viewHeight, maxScrollOffset int) int {
	offset := matchRow - viewHeight/2
	if offset < 0 {
		offset = 0
	}
	if offset > maxScrollOffset {
		offset = maxScrollOffset
	}
	return offset
}
