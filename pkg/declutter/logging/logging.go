// Package logging provides component-scoped loggers for declutter,
// backed by charmbracelet/log with a rotating file writer.
//
// Basic usage:
//
//	if err := logging.Init(logging.Config{Level: "info"}); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Close()
//
//	logger := logging.Get("scanner")
//	logger.Info("scan started", "root", "/home/user")
//
// Before Init is called every logger writes to io.Discard, so library
// code may log unconditionally.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level represents a logging level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ErrInvalidLevel is returned for an unrecognized level string.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a level name.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// toCharmLevel converts a Level to the charmbracelet/log equivalent.
func (l Level) toCharmLevel() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default level (debug, info, warn, error).
	Level string

	// Path is the log file path. Empty uses DefaultLogPath.
	Path string

	// Rotation configures file rotation.
	Rotation RotationConfig

	// Components maps component names to level overrides.
	Components map[string]string

	// Console mirrors warn-and-above to stderr when true.
	Console bool
}

// Logger is a component-scoped logger.
type Logger struct {
	inner     *log.Logger
	console   *log.Logger
	component string
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) { l.emit(LevelDebug, msg, args...) }

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) { l.emit(LevelInfo, msg, args...) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) { l.emit(LevelWarn, msg, args...) }

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) { l.emit(LevelError, msg, args...) }

// With returns a logger with additional key/value context.
func (l *Logger) With(args ...any) *Logger {
	out := &Logger{inner: l.inner.With(args...), component: l.component}
	if l.console != nil {
		out.console = l.console.With(args...)
	}
	return out
}

func (l *Logger) emit(level Level, msg string, args ...any) {
	logTo(l.inner, level, msg, args...)
	if l.console != nil {
		logTo(l.console, level, msg, args...)
	}
}

func logTo(logger *log.Logger, level Level, msg string, args ...any) {
	switch level {
	case LevelDebug:
		logger.Debug(msg, args...)
	case LevelWarn:
		logger.Warn(msg, args...)
	case LevelError:
		logger.Error(msg, args...)
	default:
		logger.Info(msg, args...)
	}
}

// state holds global logging state.
type state struct {
	mu          sync.RWMutex
	initialized bool
	writer      *RotatingWriter
	level       Level
	components  map[string]Level
	console     bool
	loggers     map[string]*Logger
}

var globalState = &state{
	loggers:    make(map[string]*Logger),
	components: make(map[string]Level),
}

// Init initializes logging. Calling it again reconfigures existing
// loggers in place.
func Init(cfg Config) error {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if globalState.initialized && globalState.writer != nil {
		if err := globalState.writer.Close(); err != nil {
			return fmt.Errorf("closing existing writer: %w", err)
		}
		globalState.writer = nil
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	globalState.level = level

	globalState.components = make(map[string]Level)
	for comp, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
		globalState.components[comp] = parsed
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}

	writer, err := NewRotatingWriter(path, cfg.Rotation)
	if err != nil {
		return fmt.Errorf("creating log writer: %w", err)
	}
	globalState.writer = writer
	globalState.console = cfg.Console
	globalState.initialized = true

	for component := range globalState.loggers {
		reconfigure(globalState.loggers[component], component)
	}

	return nil
}

// Get returns the logger for a component, creating it on first use.
func Get(component string) *Logger {
	globalState.mu.RLock()
	if logger, ok := globalState.loggers[component]; ok {
		globalState.mu.RUnlock()
		return logger
	}
	globalState.mu.RUnlock()

	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if logger, ok := globalState.loggers[component]; ok {
		return logger
	}

	logger := &Logger{component: component}
	reconfigure(logger, component)
	globalState.loggers[component] = logger
	return logger
}

// reconfigure points a logger at the current global state. Must be
// called with globalState.mu held.
func reconfigure(logger *Logger, component string) {
	level := globalState.level
	if override, ok := globalState.components[component]; ok {
		level = override
	}

	var w io.Writer = io.Discard
	if globalState.initialized {
		w = globalState.writer
	}

	logger.inner = log.NewWithOptions(w, log.Options{
		Level:           level.toCharmLevel(),
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          component,
	})

	logger.console = nil
	if globalState.initialized && globalState.console {
		logger.console = log.NewWithOptions(os.Stderr, log.Options{
			Level:           LevelWarn.toCharmLevel(),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		})
	}
}

// Close flushes and closes the log file.
func Close() error {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if !globalState.initialized {
		return nil
	}

	if globalState.writer != nil {
		if err := globalState.writer.Close(); err != nil {
			return fmt.Errorf("closing log writer: %w", err)
		}
		globalState.writer = nil
	}

	globalState.initialized = false
	for component, logger := range globalState.loggers {
		reconfigure(logger, component)
	}
	return nil
}

// DefaultLogPath returns $XDG_STATE_HOME/declutter/declutter.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "declutter", "declutter.log")
}
