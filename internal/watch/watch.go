// Package watch implements a debounced file watcher per tab: a change
// to a file matching the configured patterns is reported on Changes().
// CommandMatchesWatchList is a separate predicate over goal lists; the
// Watcher itself never re-runs a command.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the default coalescing window for a burst of
// filesystem events.
const DefaultDebounce = 500 * time.Millisecond

// Config configures one tab's watcher.
type Config struct {
	Patterns []string // glob patterns matched against the changed file's base name
	Goals    []string // watch-list goal keywords for CommandMatchesWatchList, e.g. "test"; unused by Watcher
	Debounce time.Duration
}

// Watcher wraps an fsnotify.Watcher with pattern filtering, debounce
// coalescing, and recursive directory-add so newly created
// subdirectories are watched without restarting the process.
type Watcher struct {
	fsw     *fsnotify.Watcher
	cfg     Config
	changes chan string // emits the changed path once per debounce window
	stopped chan struct{}

	// mu guards timer/pending, written from loop()'s goroutine and
	// read from the separate timer goroutine time.AfterFunc spawns
	// for fire().
	mu      sync.Mutex
	timer   *time.Timer
	pending string
}

// New starts watching root (recursively) under cfg.
func New(root string, cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	w := &Watcher{
		fsw:     fsw,
		cfg:     cfg,
		changes: make(chan string, 1),
		stopped: make(chan struct{}),
	}

	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}

	go w.loop()
	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Changes delivers one path per coalesced debounce window; a burst of
// many events inside the window collapses to a single emission.
func (w *Watcher) Changes() <-chan string { return w.changes }

// Close stops the underlying fsnotify watcher and its debounce loop.
func (w *Watcher) Close() error {
	close(w.stopped)
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case <-w.fsw.Errors:
			// Watcher errors are non-fatal; the caller only observes
			// Changes()/Close(), matching the rest of the core's
			// channel-only collaboration style.
		case <-w.stopped:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if isDir(event.Name) {
			_ = w.fsw.Add(event.Name)
		}
	}
	if !w.matches(event.Name) {
		return
	}
	w.mu.Lock()
	w.pending = event.Name
	if w.timer == nil {
		w.timer = time.AfterFunc(w.cfg.Debounce, w.fire)
	} else {
		w.timer.Reset(w.cfg.Debounce)
	}
	w.mu.Unlock()
}

func (w *Watcher) fire() {
	w.mu.Lock()
	path := w.pending
	w.mu.Unlock()

	select {
	case w.changes <- path:
	default:
		// A previous emission hasn't been drained yet; drop this one.
		// The reader then receives the older path, not this one.
	}
}

func (w *Watcher) matches(path string) bool {
	if len(w.cfg.Patterns) == 0 {
		return true
	}
	base := filepath.Base(path)
	for _, pat := range w.cfg.Patterns {
		if ok, _ := filepath.Match(pat, base); ok {
			return true
		}
	}
	return false
}

// CommandMatchesWatchList is the pure predicate: does a previously-run
// command (its goal list) intersect the configured watch goals. Kept
// free of any watcher state so it is testable in isolation.
func CommandMatchesWatchList(commandGoals []string, watchGoals []string) bool {
	if len(watchGoals) == 0 {
		return false
	}
	watched := make(map[string]bool, len(watchGoals))
	for _, g := range watchGoals {
		watched[strings.ToLower(g)] = true
	}
	for _, g := range commandGoals {
		if watched[strings.ToLower(g)] {
			return true
		}
	}
	return false
}
