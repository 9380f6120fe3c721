package tabs

import (
	"errors"
	"os"
	"testing"

	"github.com/lazymvn/lazymvn/internal/project"
)

func newTestProject(root string) *project.Project {
	return &project.Project{RootPath: root, Modules: []string{"."}}
}

func TestOpen_EnforcesMaxTabs(t *testing.T) {
	m := NewManager(0)
	for i := 0; i < MaxTabs; i++ {
		if _, err := m.Open(newTestProject("p"), nil); err != nil {
			t.Fatalf("Open #%d: %v", i, err)
		}
	}
	if _, err := m.Open(newTestProject("p"), nil); err == nil {
		t.Fatal("expected TooManyTabsError on the 11th Open")
	} else {
		var tooMany *TooManyTabsError
		if !errors.As(err, &tooMany) {
			t.Errorf("error type = %T, want *TooManyTabsError", err)
		}
	}
	if m.Len() != MaxTabs {
		t.Errorf("Len() = %d, want %d", m.Len(), MaxTabs)
	}
}

func TestClose_RefusesLastTab(t *testing.T) {
	m := NewManager(0)
	tab, _ := m.Open(newTestProject("p"), nil)
	err := m.Close(tab.ID)
	var lastErr *LastTabError
	if !errors.As(err, &lastErr) {
		t.Fatalf("Close on last tab = %v, want *LastTabError", err)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (close refused)", m.Len())
	}
}

func TestClose_RemovesOverrideFilesOwnedByThatTab(t *testing.T) {
	m := NewManager(0)
	a, _ := m.Open(newTestProject("a"), nil)
	_, _ = m.Open(newTestProject("b"), nil)

	dir := t.TempDir()
	f := dir + "/override.properties"
	if err := os.WriteFile(f, []byte("x=1"), 0o644); err != nil {
		t.Fatal(err)
	}
	a.OverrideFiles = []string{f}

	if err := m.Close(a.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(f); !os.IsNotExist(err) {
		t.Error("override file should have been removed on Close")
	}
}

func TestActiveTab_AlwaysExactlyOneWhileTabsExist(t *testing.T) {
	m := NewManager(0)
	if m.Current() != nil {
		t.Fatal("Current() should be nil with no tabs")
	}
	a, _ := m.Open(newTestProject("a"), nil)
	if m.Current() != a {
		t.Error("newly opened tab should become active")
	}
	b, _ := m.Open(newTestProject("b"), nil)
	if m.Current() != b {
		t.Error("second opened tab should become active")
	}

	if err := m.Close(b.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if m.Current() != a {
		t.Error("closing the active tab should fall back to a remaining tab")
	}
}

func TestCycleNext_CyclePrev_WrapAround(t *testing.T) {
	m := NewManager(0)
	a, _ := m.Open(newTestProject("a"), nil)
	b, _ := m.Open(newTestProject("b"), nil)
	c, _ := m.Open(newTestProject("c"), nil)
	_ = a

	m.SwitchTo(0)
	m.CyclePrev()
	if m.Current() != c {
		t.Error("CyclePrev from index 0 should wrap to the last tab")
	}
	m.CycleNext()
	if m.Current().ID != m.Tabs()[0].ID {
		t.Error("CycleNext from the last tab should wrap to index 0")
	}
	_ = b
}

func TestSwitchTo_OutOfRange(t *testing.T) {
	m := NewManager(0)
	m.Open(newTestProject("a"), nil)
	if err := m.SwitchTo(5); err == nil {
		t.Error("expected error for out-of-range SwitchTo")
	}
}

func TestStartCommand_RefusesConcurrentStart(t *testing.T) {
	m := NewManager(0)
	tab, _ := m.Open(newTestProject("a"), nil)

	if err := tab.StartCommand(nil); err != nil {
		t.Fatalf("first StartCommand: %v", err)
	}
	if tab.State != Running {
		t.Fatalf("State = %v, want Running", tab.State)
	}

	err := tab.StartCommand(nil)
	var busy *BusyError
	if !errors.As(err, &busy) {
		t.Errorf("second StartCommand error = %v, want *BusyError", err)
	}
}

func TestKill_TransitionsRunningToIdle(t *testing.T) {
	m := NewManager(0)
	tab, _ := m.Open(newTestProject("a"), nil)
	tab.StartCommand(nil)
	tab.Kill()
	if tab.State != Idle {
		t.Errorf("State after Kill = %v, want Idle", tab.State)
	}
}

func TestFinishCommand_TransitionsRunningToIdle(t *testing.T) {
	m := NewManager(0)
	tab, _ := m.Open(newTestProject("a"), nil)
	tab.StartCommand(nil)
	tab.FinishCommand(nil)
	if tab.State != Idle {
		t.Errorf("State after FinishCommand = %v, want Idle", tab.State)
	}
}

func TestFileChange_OnlyAcceptedWhileRunning(t *testing.T) {
	m := NewManager(0)
	tab, _ := m.Open(newTestProject("a"), nil)
	if tab.FileChange() {
		t.Error("FileChange should be rejected while Idle")
	}
	tab.StartCommand(nil)
	if !tab.FileChange() {
		t.Error("FileChange should be accepted while Running")
	}
}
