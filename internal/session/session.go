// Package session is the process-wide logging sink: a generated
// session id, a fixed line format, size-based rotation, and age-based
// cleanup on init.
package session

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// RotateThreshold is the file size at which a log is rotated.
const RotateThreshold = 10 * 1024 * 1024 // 10 MiB

// MaxBackups is the number of rotated backups kept (.1 through .5).
const MaxBackups = 5

// MaxAge is how long a rotated or current log file is kept before
// being deleted on init.
const MaxAge = 30 * 24 * time.Hour

// NewSessionID returns a session id of the form
// "YYYYMMDD-HHMMSS-mmm", using t (pass time.Now() in production;
// tests pass a fixed time for determinism).
func NewSessionID(t time.Time) string {
	return fmt.Sprintf("%s-%03d", t.Format("20060102-150405"), t.Nanosecond()/1_000_000)
}

// Logger is the session-wide sink: every line is written to debug.log
// (all levels) and, for Error and above, also to error.log. Built on
// hclog.Logger for leveled call sites and Named() sub-loggers; the
// literal "[SESSION:<id>] [<ts>] <LEVEL> - <msg>" wire format is
// produced by this package directly since hclog's own text formatter
// doesn't support it, and written straight to the rotating log files;
// the embedded hclog.Logger outputs to io.Discard and only backs
// Named().
type Logger struct {
	sessionID string
	debug     *rotatingWriter
	errorLog  *rotatingWriter
	hlog      hclog.Logger
	mu        sync.Mutex
}

// New creates (or continues) a session log under dir, deleting files
// older than MaxAge first.
func New(dir string, sessionID string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}
	if err := pruneOldLogs(dir, time.Now()); err != nil {
		return nil, fmt.Errorf("pruning old logs: %w", err)
	}

	debugW, err := newRotatingWriter(filepath.Join(dir, "debug.log"))
	if err != nil {
		return nil, err
	}
	errorW, err := newRotatingWriter(filepath.Join(dir, "error.log"))
	if err != nil {
		return nil, err
	}

	l := &Logger{
		sessionID: sessionID,
		debug:     debugW,
		errorLog:  errorW,
	}
	l.hlog = hclog.New(&hclog.LoggerOptions{
		Name:       "lazymvn",
		Output:     io.Discard,
		JSONFormat: false,
		DisableTime: true,
	})
	return l, nil
}

// SessionID returns the id this logger was created with.
func (l *Logger) SessionID() string { return l.sessionID }

func (l *Logger) write(level hclog.Level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	ts := time.Now().Format("2006-01-02T15:04:05.000Z07:00")
	line := fmt.Sprintf("[SESSION:%s] [%s] %s - %s\n", l.sessionID, ts, strings.ToUpper(level.String()), msg)

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.debug.Write([]byte(line))
	if level >= hclog.Error {
		_, _ = l.errorLog.Write([]byte(line))
	}
}

func (l *Logger) Debug(format string, args ...interface{}) { l.write(hclog.Debug, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.write(hclog.Info, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.write(hclog.Warn, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.write(hclog.Error, format, args...) }

// Named returns an hclog.Logger child namespaced under name, sharing
// this session's leveling but writing nowhere on its own — components
// that want a hclog.Logger-shaped dependency (to match the teacher's
// constructor signatures) get one; components that want the literal
// session format call Logger's own Debug/Info/Warn/Error.
func (l *Logger) Named(name string) hclog.Logger { return l.hlog.Named(name) }

// Close flushes and closes both underlying files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err1 := l.debug.Close()
	err2 := l.errorLog.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// CurrentSessionLines reads r and returns only the lines stamped with
// this session's id, used by the debug-report feature.
func (l *Logger) CurrentSessionLines(r io.Reader) ([]string, error) {
	marker := fmt.Sprintf("[SESSION:%s]", l.sessionID)
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, marker) {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return lines, err
	}
	return lines, nil
}

// pruneOldLogs deletes debug.log/error.log and their rotated backups
// if their modification time is older than MaxAge relative to now.
func pruneOldLogs(dir string, now time.Time) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, "debug.log") && !strings.HasPrefix(name, "error.log") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > MaxAge {
			_ = os.Remove(filepath.Join(dir, name))
		}
	}
	return nil
}

// rotatingWriter is an io.WriteCloser that rotates its target file to
// ".1".."MaxBackups" once it exceeds RotateThreshold, dropping the
// oldest backup.
type rotatingWriter struct {
	path string
	file *os.File
	size int64
}

func newRotatingWriter(path string) (*rotatingWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &rotatingWriter{path: path, file: f, size: info.Size()}, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	if w.size+int64(len(p)) > RotateThreshold {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *rotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}
	oldest := fmt.Sprintf("%s.%d", w.path, MaxBackups)
	_ = os.Remove(oldest)
	for i := MaxBackups - 1; i >= 1; i-- {
		from := fmt.Sprintf("%s.%d", w.path, i)
		to := fmt.Sprintf("%s.%d", w.path, i+1)
		if _, err := os.Stat(from); err == nil {
			_ = os.Rename(from, to)
		}
	}
	if _, err := os.Stat(w.path); err == nil {
		if err := os.Rename(w.path, w.path+".1"); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	w.file = f
	w.size = 0
	return nil
}

func (w *rotatingWriter) Close() error {
	return w.file.Close()
}
