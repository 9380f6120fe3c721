// Package engine composes the Project, Profile, Launcher, Supervisor,
// Output, Search, Tab, Preferences, Watcher, and Session components
// into the non-blocking event loop that internal/tui drives.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/lazymvn/lazymvn/internal/launcher"
	"github.com/lazymvn/lazymvn/internal/prefs"
	"github.com/lazymvn/lazymvn/internal/profile"
	"github.com/lazymvn/lazymvn/internal/project"
	"github.com/lazymvn/lazymvn/internal/search"
	"github.com/lazymvn/lazymvn/internal/session"
	"github.com/lazymvn/lazymvn/internal/supervisor"
	"github.com/lazymvn/lazymvn/internal/tabs"
	"github.com/lazymvn/lazymvn/internal/watch"
)

// Tick is the event loop's fixed cadence (spec.md §5: "≈ 20 ms").
const Tick = 20 * time.Millisecond

// DefaultDrainPerTick bounds how many supervisor Updates are drained
// for the active tab in a single tick (spec.md §5's "K, default 256").
const DefaultDrainPerTick = 256

// LaunchMode overrides the Launcher Planner's strategy decision for
// the whole session.
type LaunchMode int

const (
	Auto LaunchMode = iota
	ForceRun
	ForceExec
)

// LoggingPackageLevel configures one package's injected log level.
type LoggingPackageLevel struct {
	Name  string
	Level string
}

// CustomGoal is a user-named runnable goal exposed to the UI
// alongside the built-in Maven lifecycle goals.
type CustomGoal struct {
	Name string
	Args []string
}

// Config is the typed configuration record the engine consumes
// (spec.md §6); the file format that produces it is out of scope.
type Config struct {
	MavenSettings   string
	LaunchMode      LaunchMode
	LoggingPackages []LoggingPackageLevel
	LogFormat       string
	WatchPatterns   []string
	WatchGoals      []string
	CustomGoals     []CustomGoal
	MaxTabs         int
	OutputCapacity  int
}

// Engine owns the Tab Manager and the per-process collaborators
// (preferences, logger, cache directory) every tab's operations need.
type Engine struct {
	cfg      Config
	tabs     *tabs.Manager
	prefs    *prefs.Store
	logger   *session.Logger
	cacheDir string
	watchers map[int]*watch.Watcher
	drain    int
}

// New constructs an Engine. cacheDir and prefsDir are the on-disk
// locations for §6's cache.json and preferences/ trees respectively.
func New(cfg Config, cacheDir, prefsDir string, logger *session.Logger) *Engine {
	if cfg.MaxTabs <= 0 {
		cfg.MaxTabs = tabs.MaxTabs
	}
	return &Engine{
		cfg:      cfg,
		tabs:     tabs.NewManager(cfg.OutputCapacity),
		prefs:    prefs.NewStore(prefsDir),
		logger:   logger,
		cacheDir: cacheDir,
		watchers: make(map[int]*watch.Watcher),
		drain:    DefaultDrainPerTick,
	}
}

// Tabs exposes the Tab Manager for the front end's rendering.
func (e *Engine) Tabs() *tabs.Manager { return e.tabs }

// OpenTab resolves the Maven project at root (consulting the cache),
// collects its profiles, restores persisted Explicit-On selections,
// and opens a new tab for it.
func (e *Engine) OpenTab(root string) (*tabs.Tab, error) {
	proj, err := project.WithCache(root, e.cacheDir)
	if err != nil {
		return nil, fmt.Errorf("resolving project: %w", err)
	}

	// Collect joins each module path onto root itself.
	profiles, collectErrs := profile.Collect(root, proj.Modules, "")
	for _, cerr := range collectErrs {
		if e.logger != nil {
			e.logger.Warn("profile collection: %v", cerr)
		}
	}

	tab, err := e.tabs.Open(proj, profiles)
	if err != nil {
		return nil, err
	}

	if saved, err := e.prefs.Load(root); err == nil {
		for _, p := range profiles {
			mp := saved.ForModule(".")
			if mp.ExplicitOnProfiles[p.ID] {
				tab.Selections[p.ID] = profile.ExplicitOn
			}
		}
	}

	if len(e.cfg.WatchPatterns) > 0 {
		w, err := watch.New(root, watch.Config{Patterns: e.cfg.WatchPatterns, Goals: e.cfg.WatchGoals})
		if err == nil {
			e.watchers[tab.ID] = w
		} else if e.logger != nil {
			e.logger.Warn("starting watcher for %s: %v", root, err)
		}
	}

	return tab, nil
}

// CloseTab closes tab, tearing down its watcher along with its
// child process and override files.
func (e *Engine) CloseTab(tabID int) error {
	if w, ok := e.watchers[tabID]; ok {
		_ = w.Close()
		delete(e.watchers, tabID)
	}
	return e.tabs.Close(tabID)
}

// RunMavenGoal starts a plain Maven lifecycle/plugin goal (e.g.
// "test", "clean install") on module for tab: settings flag, profile
// selection, module selector, and enabled flags, with no launch
// strategy or logging-override injection (that's LaunchApplication's
// job). Refuses with tabs.BusyError on a tab that is already Running.
func (e *Engine) RunMavenGoal(ctx context.Context, tab *tabs.Tab, goal, module, mavenExecutable string) error {
	if tab.State == tabs.Running {
		return &tabs.BusyError{TabID: tab.ID}
	}

	var args []string
	if e.cfg.MavenSettings != "" {
		args = append(args, "--settings", e.cfg.MavenSettings)
	}
	args = append(args, profile.EffectiveCommandArguments(tab.Selections)...)
	if module != "" && module != "." {
		args = append(args, "-pl", module)
	}
	for _, f := range tab.Flags {
		if f.Enabled {
			args = append(args, launcher.FilterForSpringBootRun(f.ArgTokens, goal)...)
		}
	}
	args = append(args, strings.Fields(goal)...)

	handle, err := supervisor.Start(ctx, mavenExecutable, args, nil, tab.Project.RootPath, 256)
	if err != nil {
		return fmt.Errorf("starting maven: %w", err)
	}
	if err := tab.StartCommand(handle); err != nil {
		handle.Terminate()
		return err
	}
	return nil
}

// LaunchApplication plans and starts a Spring Boot or exec:java launch
// on module for tab, synthesizing any configured logging overrides.
// Refuses with tabs.BusyError on a tab that is already Running.
func (e *Engine) LaunchApplication(ctx context.Context, tab *tabs.Tab, module, mavenExecutable string, caps launcher.Capabilities, scratchDir string) (launcher.Plan, error) {
	if tab.State == tabs.Running {
		return launcher.Plan{}, &tabs.BusyError{TabID: tab.ID}
	}

	override := e.loggingOverride()
	var overrideFiles launcher.OverrideFiles
	if override.Active() {
		var err error
		overrideFiles, err = launcher.GenerateOverrides(scratchDir, override)
		if err != nil {
			return launcher.Plan{}, fmt.Errorf("generating overrides: %w", err)
		}
	}

	var activeOn []string
	for id, state := range tab.Selections {
		if state == profile.ExplicitOn {
			activeOn = append(activeOn, id)
		}
	}

	plan, err := launcher.BuildPlan(launcher.PlanInput{
		SettingsFile:  e.cfg.MavenSettings,
		ProfileArgs:   profile.EffectiveCommandArguments(tab.Selections),
		ActiveOnIDs:   activeOn,
		Module:        module,
		Caps:          e.applyForcedStrategy(caps),
		Override:      override,
		OverrideFiles: overrideFiles,
		Windows:       runtime.GOOS == "windows",
	})
	if err != nil {
		return launcher.Plan{}, err
	}

	handle, err := supervisor.Start(ctx, mavenExecutable, plan.Args, plan.Env, tab.Project.RootPath, 256)
	if err != nil {
		return launcher.Plan{}, fmt.Errorf("starting maven: %w", err)
	}

	if err := tab.StartCommand(handle); err != nil {
		handle.Terminate()
		return launcher.Plan{}, err
	}
	// This plan supersedes whatever override files the tab's previous
	// launch left behind (spec.md:64). Content-addressed files that the
	// new plan reuses are kept.
	reused := make(map[string]bool, len(plan.OverrideFiles))
	for _, f := range plan.OverrideFiles {
		reused[f] = true
	}
	for _, f := range tab.OverrideFiles {
		if !reused[f] {
			_ = os.Remove(f)
		}
	}
	tab.OverrideFiles = plan.OverrideFiles
	return plan, nil
}

// DetectCapabilities fetches the effective POM for module and parses
// its plugins/properties into launcher.Capabilities, falling back to
// a source scan for the main class (spec.md §4.C additions).
func (e *Engine) DetectCapabilities(ctx context.Context, tab *tabs.Tab, module, mavenExecutable string) (launcher.Capabilities, error) {
	xmlOut, err := launcher.FetchEffectivePom(ctx, mavenExecutable, tab.Project.RootPath, module, e.cfg.MavenSettings)
	if err != nil {
		return launcher.Capabilities{}, err
	}
	moduleDir := tab.Project.RootPath
	if module != "" && module != "." {
		moduleDir = filepath.Join(tab.Project.RootPath, module)
	}
	return launcher.DetectCapabilities(xmlOut, moduleDir)
}

func (e *Engine) applyForcedStrategy(caps launcher.Capabilities) launcher.Capabilities {
	switch e.cfg.LaunchMode {
	case ForceRun:
		caps.HasSpringBootPlugin = true
	case ForceExec:
		caps.HasSpringBootPlugin = false
		caps.HasExecPlugin = true
	}
	return caps
}

func (e *Engine) loggingOverride() launcher.LoggingOverride {
	pkgs := make([]launcher.PackageLevel, len(e.cfg.LoggingPackages))
	for i, p := range e.cfg.LoggingPackages {
		pkgs[i] = launcher.PackageLevel{Name: p.Name, Level: p.Level}
	}
	return launcher.LoggingOverride{Packages: pkgs, LogFormat: e.cfg.LogFormat}
}

// TickResult summarizes what one Tick call drained, for the front end
// to decide whether a re-render is warranted.
type TickResult struct {
	LinesAppended int
	Finished      bool
	ExitCode      int
	WatchFired    map[int]string // tab id -> changed path
}

// Tick drains up to DefaultDrainPerTick supervisor updates for the
// active tab into its output buffer, and polls every tab's watcher
// for a debounced change signal. It never blocks: a tab with no
// pending updates or watch events contributes nothing to the result.
func (e *Engine) Tick() TickResult {
	var result TickResult
	result.WatchFired = make(map[int]string)

	if tab := e.tabs.Current(); tab != nil && tab.Running != nil {
	drainLoop:
		for i := 0; i < e.drain; i++ {
			select {
			case u, ok := <-tab.Running.Updates():
				if !ok {
					break drainLoop
				}
				switch u.Kind {
				case supervisor.UpdateLine:
					tab.Output.Append(u.Line)
					result.LinesAppended++
				case supervisor.UpdateFinished:
					tab.FinishCommand(nil)
					result.Finished = true
					result.ExitCode = u.ExitCode
				}
			default:
				break drainLoop
			}
		}
	}

	for _, tab := range e.tabs.Tabs() {
		w, ok := e.watchers[tab.ID]
		if !ok {
			continue
		}
		select {
		case path := <-w.Changes():
			result.WatchFired[tab.ID] = path
		default:
		}
	}

	return result
}

// ApplySearch re-applies pattern over tab's output buffer.
func (e *Engine) ApplySearch(tab *tabs.Tab, pattern string, caseInsensitive, keepCurrent bool) error {
	s, err := search.Apply(tab.Output, pattern, caseInsensitive, keepCurrent, tab.Search)
	if err != nil {
		return err
	}
	tab.Search = s
	return nil
}

// SavePreferences persists tab's Explicit-On profile selections for
// its project root.
func (e *Engine) SavePreferences(tab *tabs.Tab) error {
	p, err := e.prefs.Load(tab.Project.RootPath)
	if err != nil {
		return err
	}
	p.ForModule(".").ApplyExplicitOn(tab.Selections)
	return e.prefs.Save(tab.Project.RootPath, p)
}

// Shutdown terminates every tab's running child and closes every
// watcher, draining the whole session (spec.md §5's "global shutdown
// path drains all tabs' supervisors").
func (e *Engine) Shutdown() {
	for _, tab := range e.tabs.Tabs() {
		tab.Kill()
		removeOverrideFiles(tab.OverrideFiles)
		tab.OverrideFiles = nil
	}
	for id, w := range e.watchers {
		_ = w.Close()
		delete(e.watchers, id)
	}
}

// removeOverrideFiles deletes every generated override file, ignoring
// errors for files already gone.
func removeOverrideFiles(files []string) {
	for _, f := range files {
		_ = os.Remove(f)
	}
}
