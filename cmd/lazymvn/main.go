// Command lazymvn is the terminal front end: it resolves flags and
// the starting project, wires the Event Loop, and runs the
// bubbletea program.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/lazymvn/lazymvn/internal/engine"
	"github.com/lazymvn/lazymvn/internal/project"
	"github.com/lazymvn/lazymvn/internal/session"
	"github.com/lazymvn/lazymvn/internal/tui"
)

var (
	projectPath string
	debug       bool
	forceRun    bool
	forceExec   bool
)

var rootCmd = &cobra.Command{
	Use:   "lazymvn",
	Short: "Terminal UI for driving a Maven-based Java project",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&projectPath, "project", "", "path to the Maven project root (defaults to the nearest pom.xml at or above the current directory)")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "log a debug-mode marker line to the session log (debug lines are always written)")
	rootCmd.Flags().BoolVar(&forceRun, "force-run", false, "force spring-boot:run for this session, overriding auto-detection")
	rootCmd.Flags().BoolVar(&forceExec, "force-exec", false, "force exec:java for this session, overriding auto-detection")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if forceRun && forceExec {
		return fmt.Errorf("--force-run and --force-exec are mutually exclusive")
	}

	root := projectPath
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}
		found, err := project.Resolve(cwd)
		if err != nil {
			return fmt.Errorf("locating project: %w", err)
		}
		root = found
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	lazymvnDir := filepath.Join(configDir, "lazymvn")
	cacheDir := filepath.Join(lazymvnDir, "cache")
	prefsDir := filepath.Join(lazymvnDir, "preferences")
	logDir := filepath.Join(lazymvnDir, "logs")
	scratchDir := filepath.Join(os.TempDir(), "lazymvn-overrides")

	sessionID := session.NewSessionID(time.Now())
	logger, err := session.New(logDir, sessionID)
	if err != nil {
		return fmt.Errorf("creating session logger: %w", err)
	}
	defer logger.Close()
	if debug {
		logger.Debug("debug logging enabled for session %s", sessionID)
	}

	launchMode := engine.Auto
	switch {
	case forceRun:
		launchMode = engine.ForceRun
	case forceExec:
		launchMode = engine.ForceExec
	}

	eng := engine.New(engine.Config{
		LaunchMode:     launchMode,
		MaxTabs:        10,
		OutputCapacity: 50000,
	}, cacheDir, prefsDir, logger)

	if _, err := eng.OpenTab(root); err != nil {
		return fmt.Errorf("opening project: %w", err)
	}

	mavenExecutable := project.FindMavenExecutable(root, runtime.GOOS == "windows")
	model := tui.New(eng, mavenExecutable, cacheDir, scratchDir, nil)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		eng.Shutdown()
		os.Exit(0)
	}()

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}
