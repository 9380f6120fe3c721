// Package output implements the bounded per-tab line buffer and its
// wrap-aware row metrics.
package output

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// DefaultCapacity is the default bound on lines kept per tab.
const DefaultCapacity = 50000

// Line is one raw line of child output, decoded lossily to UTF-8 with
// ANSI sequences preserved; stripping is the formatter's job (an
// external collaborator, see spec.md §1).
type Line struct {
	Raw string
}

// Buffer is an ordered, capacity-bounded sequence of Line with lazily
// recomputed wrap metrics.
type Buffer struct {
	capacity int
	lines    []Line
	dropped  int // total lines ever dropped from the front

	width int // current wrap width; 0 until known

	displayCache   []string
	startRowCache  []int
	totalRowsCache int
	metricsDirty   bool
}

// New returns an empty Buffer bounded at capacity lines. capacity<=0
// uses DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{capacity: capacity, metricsDirty: true}
}

// Append inserts a new line, dropping the oldest line (and shifting
// scroll bookkeeping via Dropped()) when already at capacity.
func (b *Buffer) Append(raw string) {
	if len(b.lines) >= b.capacity {
		b.lines = b.lines[1:]
		b.dropped++
	}
	b.lines = append(b.lines, Line{Raw: raw})
	b.metricsDirty = true
}

// Len returns the number of lines currently held.
func (b *Buffer) Len() int { return len(b.lines) }

// Dropped returns the total number of lines ever dropped from the
// front since the buffer was created, used by callers to re-base
// absolute indices (e.g. a SearchMatch.LineIndex) after an overflow.
func (b *Buffer) Dropped() int { return b.dropped }

// Line returns the raw content of line i, i in [0, Len()).
func (b *Buffer) Line(i int) string { return b.lines[i].Raw }

// Lines returns every raw line, for callers (search) that need to
// scan the whole buffer.
func (b *Buffer) Lines() []string {
	out := make([]string, len(b.lines))
	for i, l := range b.lines {
		out[i] = l.Raw
	}
	return out
}

// SetWidth sets the viewport width used for wrap metrics; it marks
// the derived views dirty so they are recomputed on next access.
func (b *Buffer) SetWidth(width int) {
	if width != b.width {
		b.width = width
		b.metricsDirty = true
	}
}

// stripANSI removes ANSI escape sequences for display-width purposes.
// Colorization/stripping for rendering is the formatter's job; this
// local strip exists only so wrap math isn't thrown off by escape
// bytes, which carry zero display width.
func stripANSI(s string) string {
	var sb strings.Builder
	inEscape := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inEscape {
			if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
				inEscape = false
			}
			continue
		}
		if c == 0x1b {
			inEscape = true
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// DisplayWidth measures a string's terminal column width using
// East-Asian-wide rules with zero-width combiners contributing 0,
// grounded on go-runewidth's width table and uniseg's grapheme
// clustering (both already in the teacher's dependency graph via
// bubbletea/lipgloss, promoted to direct use here).
func DisplayWidth(s string) int {
	width := 0
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		cluster := gr.Str()
		w := runewidth.StringWidth(cluster)
		if w == 0 && cluster != "" {
			// A grapheme cluster combining a wide base rune with
			// zero-width marks should take the base rune's width, not
			// the marks' (which runewidth already reports as 0 on
			// their own); this branch only guards against clusters
			// runewidth can't size at all (control points).
			continue
		}
		width += w
	}
	return width
}

func (b *Buffer) recompute() {
	if !b.metricsDirty {
		return
	}
	n := len(b.lines)
	b.displayCache = make([]string, n)
	b.startRowCache = make([]int, n)
	row := 0
	width := b.width
	if width <= 0 {
		width = 1
	}
	for i, l := range b.lines {
		display := stripANSI(l.Raw)
		b.displayCache[i] = display
		b.startRowCache[i] = row
		rows := 1
		if dw := DisplayWidth(display); dw > 0 {
			rows = (dw + width - 1) / width
			if rows < 1 {
				rows = 1
			}
		}
		row += rows
	}
	b.totalRowsCache = row
	b.metricsDirty = false
}

// LineDisplay returns the ANSI-stripped display form of line i.
func (b *Buffer) LineDisplay(i int) string {
	b.recompute()
	return b.displayCache[i]
}

// TotalRows returns the total number of wrapped rows across the whole
// buffer at the current width.
func (b *Buffer) TotalRows() int {
	b.recompute()
	return b.totalRowsCache
}

// RowFor returns the wrapped row index containing the character that
// starts at byte offset byteCol within line (byteCol indexes the
// start of a character, not one-past-the-end). Invariant 7:
// RowFor(lastLine, lastCol)+1 == TotalRows(), where lastCol is the
// byte offset of the final character in the final line.
func (b *Buffer) RowFor(line, byteCol int) int {
	b.recompute()
	if line < 0 || line >= len(b.lines) {
		return 0
	}
	display := b.displayCache[line]
	if byteCol < 0 {
		byteCol = 0
	}
	if byteCol > len(display) {
		byteCol = len(display)
	}
	width := b.width
	if width <= 0 {
		width = 1
	}
	prefixWidth := DisplayWidth(display[:byteCol])
	return b.startRowCache[line] + prefixWidth/width
}

// MaxScrollOffset returns the largest row offset that still leaves a
// full viewport of viewHeight rows visible.
func (b *Buffer) MaxScrollOffset(viewHeight int) int {
	b.recompute()
	max := b.totalRowsCache - viewHeight
	if max < 0 {
		return 0
	}
	return max
}
