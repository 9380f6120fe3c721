// Package tui is the bubbletea front end: a thin renderer over
// internal/engine. It contains no build logic, launch-strategy
// decisions, or process management of its own — every one of those
// concerns lives in the core packages and is merely displayed here.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lazymvn/lazymvn/internal/engine"
	"github.com/lazymvn/lazymvn/internal/profile"
	"github.com/lazymvn/lazymvn/internal/tabs"
)

// ViewMode is the current rendering mode.
type ViewMode int

const (
	ViewMain ViewMode = iota
	ViewOpenProject
	ViewSearch
)

// Pane identifies which list has keyboard focus in ViewMain.
type Pane int

const (
	PaneModules Pane = iota
	PaneGoals
	PaneProfiles
)

// tickMsg drives the ~20ms event loop tick (spec.md §5).
type tickMsg time.Time

func scheduleTick() tea.Cmd {
	return tea.Tick(engine.Tick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Model is the bubbletea model: render state plus a handle to the
// engine that owns every tab's actual state.
type Model struct {
	eng             *engine.Engine
	mavenExecutable string
	cacheDir        string
	scratchDir      string
	currentJDK      string

	width, height int
	currentView   ViewMode
	focused       Pane

	modulesList list.Model
	goalsList   list.Model
	profileList list.Model
	output      viewport.Model
	input       textinput.Model

	err error
}

// BuiltInGoals mirrors the teacher's BuiltInTasks but as plain goal
// entries the engine runs via RunMavenGoal; the "Run" entry is always
// listed and goes through DetectCapabilities and LaunchApplication
// instead.
func BuiltInGoals() []goalItem {
	return []goalItem{
		{name: "Clean", description: "Remove build artifacts", goals: []string{"clean"}},
		{name: "Compile", description: "Compile source code", goals: []string{"compile"}},
		{name: "Test", description: "Run tests", goals: []string{"test"}},
		{name: "Package", description: "Create JAR/WAR", goals: []string{"package"}},
		{name: "Verify", description: "Run integration tests", goals: []string{"verify"}},
		{name: "Install", description: "Install to local repo", goals: []string{"install"}},
		{name: "Clean Install", description: "Clean and install", goals: []string{"clean", "install"}},
		{name: "Run", description: "Launch (spring-boot:run or exec:java, auto-detected)", goals: []string{"run"}},
	}
}

// New constructs the initial Model. eng is fully configured (Config,
// cache/prefs directories, Session Logger); mavenExecutable is the
// resolved mvn/mvnw binary for the first opened project.
func New(eng *engine.Engine, mavenExecutable, cacheDir, scratchDir string, customGoals []engine.CustomGoal) Model {
	goals := BuiltInGoals()
	for _, g := range customGoals {
		goals = append(goals, goalItem{name: g.Name, description: strings.Join(g.Args, " "), goals: g.Args})
	}
	goalItems := make([]list.Item, len(goals))
	for i, g := range goals {
		goalItems[i] = g
	}

	goalsList := list.New(goalItems, list.NewDefaultDelegate(), 0, 0)
	goalsList.Title = "Goals"
	goalsList.SetShowStatusBar(false)
	goalsList.SetFilteringEnabled(false)

	modulesList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	modulesList.Title = "Modules"
	modulesList.SetShowStatusBar(false)
	modulesList.SetFilteringEnabled(false)

	profileList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	profileList.Title = "Profiles"
	profileList.SetShowStatusBar(false)
	profileList.SetFilteringEnabled(false)

	input := textinput.New()
	input.Placeholder = "project path or search pattern"

	return Model{
		eng:             eng,
		mavenExecutable: mavenExecutable,
		cacheDir:        cacheDir,
		scratchDir:      scratchDir,
		currentJDK:      profile.DetectCurrentJavaVersion(),
		currentView:     ViewMain,
		focused:         PaneGoals,
		modulesList:     modulesList,
		goalsList:       goalsList,
		profileList:     profileList,
		output:          viewport.New(0, 0),
		input:           input,
	}
}

func (m Model) Init() tea.Cmd {
	return scheduleTick()
}

func (m *Model) currentTab() *tabs.Tab { return m.eng.Tabs().Current() }

func (m *Model) refreshModulesList() {
	tab := m.currentTab()
	if tab == nil {
		m.modulesList.SetItems(nil)
		return
	}
	items := make([]list.Item, len(tab.Project.Modules))
	for i, mod := range tab.Project.Modules {
		items[i] = moduleItem{path: mod, selected: mod == tab.SelectedModule}
	}
	m.modulesList.SetItems(items)
}

func (m *Model) refreshProfilesList() {
	tab := m.currentTab()
	if tab == nil {
		m.profileList.SetItems(nil)
		return
	}
	items := make([]list.Item, len(tab.Profiles))
	for i, p := range tab.Profiles {
		glyph := " "
		switch tab.Selections[p.ID] {
		case profile.ExplicitOn:
			glyph = "+"
		case profile.ExplicitOff:
			glyph = "-"
		}
		items[i] = profileItem{id: p.ID, glyph: glyph, source: p.Source.String()}
	}
	m.profileList.SetItems(items)
}

func (m *Model) refreshOutput() {
	tab := m.currentTab()
	if tab == nil {
		m.output.SetContent("")
		return
	}
	var sb strings.Builder
	for i := 0; i < tab.Output.Len(); i++ {
		sb.WriteString(tab.Output.LineDisplay(i))
		sb.WriteByte('\n')
	}
	m.output.SetContent(sb.String())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		listWidth := m.width / 3
		listHeight := m.height - 6
		m.modulesList.SetSize(listWidth, listHeight/3)
		m.goalsList.SetSize(listWidth, listHeight/3)
		m.profileList.SetSize(listWidth, listHeight/3)
		m.output.Width = m.width - listWidth - 2
		m.output.Height = listHeight
		return m, nil

	case tickMsg:
		result := m.eng.Tick()
		if result.LinesAppended > 0 || result.Finished {
			m.refreshOutput()
		}
		return m, scheduleTick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.currentView == ViewOpenProject || m.currentView == ViewSearch {
		return m.handleInputModeKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		m.eng.Shutdown()
		return m, tea.Quit
	case "tab":
		m.eng.Tabs().CycleNext()
		m.refreshModulesList()
		m.refreshProfilesList()
		m.refreshOutput()
		return m, nil
	case "shift+tab":
		m.eng.Tabs().CyclePrev()
		m.refreshModulesList()
		m.refreshProfilesList()
		m.refreshOutput()
		return m, nil
	case "o":
		m.currentView = ViewOpenProject
		m.input.SetValue("")
		m.input.Placeholder = "project path"
		m.input.Focus()
		return m, nil
	case "w":
		if tab := m.currentTab(); tab != nil {
			if err := m.eng.CloseTab(tab.ID); err != nil {
				m.err = err
			}
			m.refreshModulesList()
			m.refreshProfilesList()
			m.refreshOutput()
		}
		return m, nil
	case "/":
		m.currentView = ViewSearch
		m.input.SetValue("")
		m.input.Placeholder = "search pattern"
		m.input.Focus()
		return m, nil
	case "n":
		if tab := m.currentTab(); tab != nil && tab.Search != nil {
			tab.Search.Next()
		}
		return m, nil
	case "N":
		if tab := m.currentTab(); tab != nil && tab.Search != nil {
			tab.Search.Previous()
		}
		return m, nil
	case "k":
		if tab := m.currentTab(); tab != nil {
			tab.Kill()
		}
		return m, nil
	case " ":
		return m.toggleFocusedProfile(), nil
	case "enter":
		return m.runFocusedGoal(), nil
	case "left", "h":
		m.focused = (m.focused + 2) % 3
		return m, nil
	case "right", "l":
		m.focused = (m.focused + 1) % 3
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focused {
	case PaneModules:
		m.modulesList, cmd = m.modulesList.Update(msg)
	case PaneGoals:
		m.goalsList, cmd = m.goalsList.Update(msg)
	case PaneProfiles:
		m.profileList, cmd = m.profileList.Update(msg)
	}
	return m, cmd
}

func (m Model) handleInputModeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.currentView = ViewMain
		m.input.Blur()
		return m, nil
	case "enter":
		value := m.input.Value()
		switch m.currentView {
		case ViewOpenProject:
			if _, err := m.eng.OpenTab(value); err != nil {
				m.err = err
			} else {
				m.refreshModulesList()
				m.refreshProfilesList()
				m.refreshOutput()
			}
		case ViewSearch:
			if tab := m.currentTab(); tab != nil {
				if err := m.eng.ApplySearch(tab, value, false, false); err != nil {
					m.err = err
				}
			}
		}
		m.currentView = ViewMain
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) toggleFocusedProfile() Model {
	tab := m.currentTab()
	if tab == nil || m.focused != PaneProfiles {
		return m
	}
	item, ok := m.profileList.SelectedItem().(profileItem)
	if !ok {
		return m
	}
	var autoActive bool
	for _, p := range tab.Profiles {
		if p.ID == item.id {
			autoActive = profile.IsAutoActive(p.Activation, m.currentJDK, profile.CurrentOS())
			break
		}
	}
	tab.Selections[item.id] = profile.Toggle(tab.Selections[item.id], autoActive)
	_ = m.eng.SavePreferences(tab)
	m.refreshProfilesList()
	return m
}

func (m Model) runFocusedGoal() Model {
	tab := m.currentTab()
	if tab == nil || m.focused != PaneGoals {
		return m
	}
	item, ok := m.goalsList.SelectedItem().(goalItem)
	if !ok || len(item.goals) == 0 {
		return m
	}
	module := tab.SelectedModule
	if module == "" {
		module = "."
	}
	ctx := context.Background()
	if item.name == "Run" {
		caps, err := m.eng.DetectCapabilities(ctx, tab, module, m.mavenExecutable)
		if err != nil {
			m.err = err
			return m
		}
		_, err = m.eng.LaunchApplication(ctx, tab, module, m.mavenExecutable, caps, m.scratchDir)
		m.err = err
		return m
	}
	// All of the entry's goals run as one Maven invocation; a second
	// start on the same tab would be refused as busy.
	if err := m.eng.RunMavenGoal(ctx, tab, strings.Join(item.goals, " "), module, m.mavenExecutable); err != nil {
		m.err = err
	}
	return m
}

func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderTabBar())
	b.WriteString("\n")

	left := lipgloss.JoinVertical(lipgloss.Left, m.modulesList.View(), m.goalsList.View(), m.profileList.View())
	right := m.output.View()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())

	if m.currentView == ViewOpenProject || m.currentView == ViewSearch {
		b.WriteString("\n")
		b.WriteString(m.input.View())
	}
	return b.String()
}

func (m Model) renderTabBar() string {
	active := lipgloss.NewStyle().Bold(true).Underline(true)
	var parts []string
	for i, t := range m.eng.Tabs().Tabs() {
		label := fmt.Sprintf(" %d:%s ", i+1, tabLabel(t))
		if t == m.currentTab() {
			label = active.Render(label)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, "|")
}

func tabLabel(t *tabs.Tab) string {
	parts := strings.Split(strings.ReplaceAll(t.Project.RootPath, "\\", "/"), "/")
	return parts[len(parts)-1]
}

func (m Model) renderStatusLine() string {
	tab := m.currentTab()
	if tab == nil {
		return "no project open — press 'o' to open one"
	}
	state := tab.State.String()
	if m.err != nil {
		return fmt.Sprintf("%s | error: %v", state, m.err)
	}
	return fmt.Sprintf("%s | %s", state, tab.Project.RootPath)
}
