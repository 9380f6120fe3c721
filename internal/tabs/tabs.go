// Package tabs implements the Tab Manager: independent per-project
// tabs, their lifecycle, and the single active-tab selection that
// every command key goes through.
package tabs

import (
	"fmt"
	"os"
	"time"

	"github.com/lazymvn/lazymvn/internal/launcher"
	"github.com/lazymvn/lazymvn/internal/output"
	"github.com/lazymvn/lazymvn/internal/profile"
	"github.com/lazymvn/lazymvn/internal/project"
	"github.com/lazymvn/lazymvn/internal/search"
	"github.com/lazymvn/lazymvn/internal/supervisor"
)

// MaxTabs is the default hard cap enforced at the Tab Manager
// boundary (spec: "stated as 10 in documentation but not strictly
// enforced everywhere in the source; treat as a hard cap here").
const MaxTabs = 10

// RunState is a tab's Idle/Running state machine.
type RunState int

const (
	Idle RunState = iota
	Running
)

func (s RunState) String() string {
	if s == Running {
		return "Running"
	}
	return "Idle"
}

// TooManyTabsError is returned by Open once MaxTabs tabs are already
// open.
type TooManyTabsError struct{ Max int }

func (e *TooManyTabsError) Error() string {
	return fmt.Sprintf("too many tabs: limit is %d", e.Max)
}

// BusyError is returned when a command start is requested on a tab
// that is already Running.
type BusyError struct{ TabID int }

func (e *BusyError) Error() string {
	return fmt.Sprintf("tab %d is busy", e.TabID)
}

// NotFoundError is returned for an unknown tab id or out-of-range
// switch_to index.
type NotFoundError struct{ TabID int }

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tab %d not found", e.TabID)
}

// LastTabError is returned by Close when it targets the only
// remaining tab.
type LastTabError struct{}

func (e *LastTabError) Error() string { return "cannot close the last tab" }

// Tab is one independent project session: its own project, profile
// selections, output buffer, search state, and running child, if any.
type Tab struct {
	ID             int
	Project        *project.Project
	Profiles       []profile.Profile
	Selections     map[string]profile.SelectionState
	Flags          []launcher.BuildFlag
	SelectedModule string

	Output       *output.Buffer
	ScrollOffset int
	Search       *search.State

	Running      *supervisor.ChildHandle
	State        RunState
	CommandStart *time.Time

	// OverrideFiles are paths generated by the launcher for this tab's
	// most recent plan; removed on Close unless another tab's plan
	// uses the same content-addressed file.
	OverrideFiles []string
}

// Manager owns the set of open tabs and the single active-tab
// selection; it is the sole mutator of Tab lifecycle state.
type Manager struct {
	tabs     []*Tab
	active   int // index into tabs, or -1 when empty
	nextID   int
	capacity int // output buffer capacity for new tabs
}

// NewManager returns an empty Manager. outputCapacity<=0 uses
// output.DefaultCapacity for each tab's buffer.
func NewManager(outputCapacity int) *Manager {
	return &Manager{active: -1, capacity: outputCapacity}
}

// Open creates a new tab for proj, returning TooManyTabsError once
// MaxTabs tabs already exist. The new tab becomes active.
func (m *Manager) Open(proj *project.Project, profiles []profile.Profile) (*Tab, error) {
	if len(m.tabs) >= MaxTabs {
		return nil, &TooManyTabsError{Max: MaxTabs}
	}
	t := &Tab{
		ID:         m.nextID,
		Project:    proj,
		Profiles:   profiles,
		Selections: make(map[string]profile.SelectionState),
		Output:     output.New(m.capacity),
		State:      Idle,
	}
	m.nextID++
	m.tabs = append(m.tabs, t)
	m.active = len(m.tabs) - 1
	return t, nil
}

// Close kills the tab's running child (if any), removes its
// exclusively-owned override files, and removes the tab. Refuses to
// close the last remaining tab.
func (m *Manager) Close(tabID int) error {
	if len(m.tabs) <= 1 {
		if _, ok := m.find(tabID); ok {
			return &LastTabError{}
		}
		return &NotFoundError{TabID: tabID}
	}
	idx, ok := m.find(tabID)
	if !ok {
		return &NotFoundError{TabID: tabID}
	}
	t := m.tabs[idx]
	if t.Running != nil {
		t.Running.Terminate()
	}
	shared := make(map[string]bool)
	for _, other := range m.tabs {
		if other != t {
			for _, f := range other.OverrideFiles {
				shared[f] = true
			}
		}
	}
	for _, f := range t.OverrideFiles {
		if !shared[f] {
			_ = os.Remove(f)
		}
	}

	m.tabs = append(m.tabs[:idx], m.tabs[idx+1:]...)
	if m.active == idx {
		if m.active >= len(m.tabs) {
			m.active = len(m.tabs) - 1
		}
	} else if m.active > idx {
		m.active--
	}
	return nil
}

// SwitchTo makes the tab at index the active tab.
func (m *Manager) SwitchTo(index int) error {
	if index < 0 || index >= len(m.tabs) {
		return &NotFoundError{TabID: index}
	}
	m.active = index
	return nil
}

// CycleNext advances the active tab forward, wrapping around.
func (m *Manager) CycleNext() {
	if len(m.tabs) == 0 {
		return
	}
	m.active = (m.active + 1) % len(m.tabs)
}

// CyclePrev moves the active tab backward, wrapping around.
func (m *Manager) CyclePrev() {
	if len(m.tabs) == 0 {
		return
	}
	m.active = (m.active - 1 + len(m.tabs)) % len(m.tabs)
}

// Current returns the active tab, or nil if no tabs exist.
func (m *Manager) Current() *Tab {
	if m.active < 0 || m.active >= len(m.tabs) {
		return nil
	}
	return m.tabs[m.active]
}

// Tabs returns every open tab, in open order.
func (m *Manager) Tabs() []*Tab {
	out := make([]*Tab, len(m.tabs))
	copy(out, m.tabs)
	return out
}

// Len returns the number of open tabs.
func (m *Manager) Len() int { return len(m.tabs) }

func (m *Manager) find(tabID int) (int, bool) {
	for i, t := range m.tabs {
		if t.ID == tabID {
			return i, true
		}
	}
	return -1, false
}

// StartCommand transitions a tab from Idle to Running, refusing with
// BusyError on an already-Running tab (concurrent start on the same
// tab).
func (t *Tab) StartCommand(h *supervisor.ChildHandle) error {
	if t.State == Running {
		return &BusyError{TabID: t.ID}
	}
	t.State = Running
	t.Running = h
	now := currentTime()
	t.CommandStart = &now
	return nil
}

// FinishCommand transitions Running -> Idle, recording the plan's
// override files as exclusively owned by this tab.
func (t *Tab) FinishCommand(plan *launcher.Plan) {
	t.State = Idle
	t.Running = nil
	if plan != nil {
		t.OverrideFiles = plan.OverrideFiles
	}
}

// Kill transitions Running -> Idle by terminating the child; a no-op
// on an Idle tab.
func (t *Tab) Kill() {
	if t.State != Running {
		return
	}
	if t.Running != nil {
		t.Running.Terminate()
	}
	t.State = Idle
	t.Running = nil
}

// FileChange reports whether the tab's state machine accepts a
// file-change signal: true only while Running. It changes no state,
// and nothing in the Manager or the engine re-runs a command in
// response to it.
func (t *Tab) FileChange() bool {
	return t.State == Running
}

var currentTime = time.Now
