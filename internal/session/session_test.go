package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewSessionID_Format(t *testing.T) {
	ts := time.Date(2026, 7, 30, 14, 5, 9, 123_000_000, time.UTC)
	id := NewSessionID(ts)
	want := "20260730-140509-123"
	if id != want {
		t.Errorf("NewSessionID() = %q, want %q", id, want)
	}
}

func TestLogger_LineFormat(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, "20260730-140509-123")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	l.Info("starting %s", "build")
	l.Close()

	data, err := os.ReadFile(filepath.Join(dir, "debug.log"))
	if err != nil {
		t.Fatalf("reading debug.log: %v", err)
	}
	line := strings.TrimRight(string(data), "\n")
	if !strings.HasPrefix(line, "[SESSION:20260730-140509-123] [") {
		t.Errorf("line = %q, want prefix [SESSION:...] [...", line)
	}
	if !strings.Contains(line, "INFO - starting build") {
		t.Errorf("line = %q, want to contain %q", line, "INFO - starting build")
	}
}

func TestLogger_ErrorAlsoWritesErrorLog(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, "sess1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	l.Info("info line")
	l.Error("boom")
	l.Close()

	errData, err := os.ReadFile(filepath.Join(dir, "error.log"))
	if err != nil {
		t.Fatalf("reading error.log: %v", err)
	}
	if strings.Contains(string(errData), "info line") {
		t.Error("error.log should not contain info-level lines")
	}
	if !strings.Contains(string(errData), "boom") {
		t.Error("error.log should contain the error-level line")
	}
}

func TestCurrentSessionLines_FiltersBySessionID(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, "current-session")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("from this session")
	l.Close()

	// Simulate an older session's line mixed into the same file.
	path := filepath.Join(dir, "debug.log")
	existing, _ := os.ReadFile(path)
	mixed := "[SESSION:old-session] [2020-01-01T00:00:00Z] INFO - stale line\n" + string(existing)
	if err := os.WriteFile(path, []byte(mixed), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	lines, err := l.CurrentSessionLines(f)
	if err != nil {
		t.Fatalf("CurrentSessionLines: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("lines = %v, want 1 matching line", lines)
	}
	if !strings.Contains(lines[0], "from this session") {
		t.Errorf("line = %q, want to contain %q", lines[0], "from this session")
	}
}

func TestRotatingWriter_RotatesPastThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "debug.log")
	w, err := newRotatingWriter(path)
	if err != nil {
		t.Fatalf("newRotatingWriter: %v", err)
	}
	defer w.Close()

	// Force a tiny threshold via direct field manipulation isn't
	// exposed; instead write a payload that exceeds the real
	// threshold to exercise rotation end-to-end.
	chunk := make([]byte, 1024)
	for i := range chunk {
		chunk[i] = 'x'
	}
	total := 0
	for total < RotateThreshold+1024 {
		n, err := w.Write(chunk)
		if err != nil {
			t.Fatalf("Write: %v", err)
		}
		total += n
	}
	w.Close()

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("expected rotated backup %s.1 to exist: %v", path, err)
	}
}

func TestPruneOldLogs_DeletesStaleFiles(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "debug.log.3")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	oldTime := time.Now().Add(-31 * 24 * time.Hour)
	if err := os.Chtimes(stale, oldTime, oldTime); err != nil {
		t.Fatal(err)
	}

	if err := pruneOldLogs(dir, time.Now()); err != nil {
		t.Fatalf("pruneOldLogs: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale backup should have been deleted")
	}
}
