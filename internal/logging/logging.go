package logging

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
)

// Level represents logging severity.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

var (
	mu               sync.RWMutex
	currentLevel     = LevelWarn
	currentVerbosity = 0
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
}

// SetVerbosity configures logger output from count of -v flags (0-4).
func SetVerbosity(count int) {
	if count < 0 {
		count = 0
	}
	if count > 4 {
		count = 4
	}
	mu.Lock()
	defer mu.Unlock()
	currentVerbosity = count
	switch count {
	case 0:
		currentLevel = LevelWarn
	case 1:
		currentLevel = LevelInfo
	case 2:
		currentLevel = LevelDebug
	default:
		currentLevel = LevelTrace
	}
}

// SetLevel sets the level directly, e.g. from "debug: true" in the config file.
func SetLevel(l Level) {
	if l < LevelError {
		l = LevelError
	}
	if l > LevelTrace {
		l = LevelTrace
	}
	mu.Lock()
	defer mu.Unlock()
	currentLevel = l
	switch l {
	case LevelError, LevelWarn:
		currentVerbosity = 0
	case LevelInfo:
		currentVerbosity = 1
	case LevelDebug:
		currentVerbosity = 2
	default:
		currentVerbosity = 4
	}
}

// SetOutput redirects all log output.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// Verbosity returns the stored -v count.
func Verbosity() int {
	mu.RLock()
	defer mu.RUnlock()
	return currentVerbosity
}

// CurrentLevel returns the active level.
func CurrentLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// LevelName returns current level label.
func LevelName() string {
	mu.RLock()
	defer mu.RUnlock()
	return LevelToString(currentLevel)
}

// LevelToString converts a Level to human readable text.
func LevelToString(l Level) string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelTrace:
		return "trace"
	default:
		return "unknown"
	}
}

// ParseLevel returns Level + verbosity count from string.
func ParseLevel(s string) (Level, int, error) {
	switch strings.ToLower(s) {
	case "error":
		return LevelError, 0, nil
	case "warn", "warning":
		return LevelWarn, 0, nil
	case "info":
		return LevelInfo, 1, nil
	case "debug":
		return LevelDebug, 2, nil
	case "trace":
		return LevelTrace, 4, nil
	default:
		return LevelWarn, Verbosity(), fmt.Errorf("unknown level %s", s)
	}
}

func shouldLog(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l <= currentLevel
}

func logf(l Level, prefix, scope, format string, args ...any) {
	if !shouldLog(l) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if scope != "" {
		log.Printf("[%s] [%s] %s", strings.ToUpper(prefix), scope, msg)
		return
	}
	log.Printf("[%s] %s", strings.ToUpper(prefix), msg)
}

// Errorf always prints.
func Errorf(format string, args ...any) {
	logf(LevelError, "err", "", format, args...)
}

func Warnf(format string, args ...any) {
	logf(LevelWarn, "warn", "", format, args...)
}

func Infof(format string, args ...any) {
	logf(LevelInfo, "info", "", format, args...)
}

func Debugf(format string, args ...any) {
	logf(LevelDebug, "dbg", "", format, args...)
}

func Tracef(format string, args ...any) {
	logf(LevelTrace, "trc", "", format, args...)
}

// Logger tags every line with a scope, usually the accessory display name.
// A nil *Logger logs without a scope.
type Logger struct {
	scope string
}

// New returns a Logger for scope.
func New(scope string) *Logger {
	return &Logger{scope: scope}
}

// With returns a child logger whose scope is appended to l's.
func (l *Logger) With(scope string) *Logger {
	if l == nil || l.scope == "" {
		return New(scope)
	}
	return New(l.scope + "/" + scope)
}

func (l *Logger) name() string {
	if l == nil {
		return ""
	}
	return l.scope
}

func (l *Logger) Errorf(format string, args ...any) {
	logf(LevelError, "err", l.name(), format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	logf(LevelWarn, "warn", l.name(), format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	logf(LevelInfo, "info", l.name(), format, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	logf(LevelDebug, "dbg", l.name(), format, args...)
}

func (l *Logger) Tracef(format string, args ...any) {
	logf(LevelTrace, "trc", l.name(), format, args...)
}
