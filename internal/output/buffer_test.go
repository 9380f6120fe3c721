package output

import "testing"

func TestAppend_BoundedCapacityDropsFromFront(t *testing.T) {
	b := New(3)
	b.Append("a")
	b.Append("b")
	b.Append("c")
	b.Append("d")

	if b.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", b.Len())
	}
	if b.Line(0) != "b" || b.Line(1) != "c" || b.Line(2) != "d" {
		t.Errorf("lines = %q %q %q, want b c d", b.Line(0), b.Line(1), b.Line(2))
	}
	if b.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", b.Dropped())
	}
}

func TestDefaultCapacity(t *testing.T) {
	b := New(0)
	if b.capacity != DefaultCapacity {
		t.Errorf("capacity = %d, want %d", b.capacity, DefaultCapacity)
	}
}

func TestLineDisplay_StripsANSI(t *testing.T) {
	b := New(10)
	b.Append("\x1b[31mhello\x1b[0m")
	if got := b.LineDisplay(0); got != "hello" {
		t.Errorf("LineDisplay() = %q, want %q", got, "hello")
	}
}

// Invariant 7.
func TestRowFor_LastCharacterMatchesTotalRows(t *testing.T) {
	b := New(10)
	b.SetWidth(5)
	b.Append("0123456789") // width 10, W=5 -> 2 rows
	b.Append("abc")        // width 3, W=5 -> 1 row

	total := b.TotalRows()
	if total != 3 {
		t.Fatalf("TotalRows() = %d, want 3", total)
	}

	lastLine := 1
	lastCol := len(b.LineDisplay(lastLine)) - 1
	if got := b.RowFor(lastLine, lastCol) + 1; got != total {
		t.Errorf("RowFor(last,last)+1 = %d, want %d (== TotalRows)", got, total)
	}
}

func TestTotalRows_SumsPerLineRows(t *testing.T) {
	b := New(10)
	b.SetWidth(4)
	lines := []string{"ab", "abcdefgh", "abcd"}
	for _, l := range lines {
		b.Append(l)
	}
	// ab -> 1 row (ceil(2/4)); abcdefgh -> 2 rows (ceil(8/4)); abcd -> 1 row (ceil(4/4))
	if got := b.TotalRows(); got != 4 {
		t.Errorf("TotalRows() = %d, want 4", got)
	}
}

func TestMaxScrollOffset(t *testing.T) {
	b := New(20)
	b.SetWidth(80)
	for i := 0; i < 20; i++ {
		b.Append("line")
	}
	if got := b.MaxScrollOffset(5); got != 15 {
		t.Errorf("MaxScrollOffset(5) = %d, want 15", got)
	}
	if got := b.MaxScrollOffset(30); got != 0 {
		t.Errorf("MaxScrollOffset(30) = %d, want 0 (viewport taller than content)", got)
	}
}

func TestDisplayWidth_EastAsianWide(t *testing.T) {
	// A CJK character occupies two columns.
	if got := DisplayWidth("中"); got != 2 {
		t.Errorf("DisplayWidth(中) = %d, want 2", got)
	}
	if got := DisplayWidth("a"); got != 1 {
		t.Errorf("DisplayWidth(a) = %d, want 1", got)
	}
}
