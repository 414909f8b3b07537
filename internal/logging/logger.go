// Package logging provides the zerolog-backed structured logger used
// throughout the daemon, with a process-wide default instance callers can
// fetch or override.
package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

// Level mirrors zerolog's level names as a small closed set callers
// configure with, rather than importing zerolog.Level directly.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Config holds logger construction parameters.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// DefaultConfig returns console-formatted, info-level logging to stderr.
func DefaultConfig() *Config {
	return &Config{Level: LevelInfo, Output: os.Stderr}
}

// Logger wraps a zerolog.Logger. The zero value is not usable; construct
// with NewLogger.
type Logger struct {
	zl zerolog.Logger
}

func zerologLevel(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger constructs a Logger from config, defaulting to DefaultConfig
// when config is nil.
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	output := config.Output
	if output == nil {
		output = os.Stderr
	}

	var zl zerolog.Logger
	if config.JSONOutput {
		zl = zerolog.New(output).With().Timestamp().Logger()
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
	zl = zl.Level(zerologLevel(config.Level))

	return &Logger{zl: zl}
}

// Default returns the process-wide logger, creating one with DefaultConfig
// on first use.
func Default() *Logger {
	mu.RLock()
	if defaultLogger != nil {
		defer mu.RUnlock()
		return defaultLogger
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger(nil)
	}
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(logger *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

// With returns a child logger carrying the given key-value pairs on every
// subsequent entry. Args must come in (key string, value any) pairs; an
// unpaired trailing key is dropped.
func (l *Logger) With(args ...any) *Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(args); i += 2 {
		key, _ := args[i].(string)
		ctx = ctx.Interface(key, args[i+1])
	}
	return &Logger{zl: ctx.Logger()}
}

// WithComponent returns a child logger tagged with a "component" field —
// the same subsystem-tagging convention the daemon's queues and disks use
// to make concurrent log streams distinguishable.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", component).Logger()}
}

func (l *Logger) event(level zerolog.Level, msg string, args []any) {
	ev := l.zl.WithLevel(level)
	for i := 0; i+1 < len(args); i += 2 {
		key, _ := args[i].(string)
		ev = ev.Interface(key, args[i+1])
	}
	ev.Msg(msg)
}

func (l *Logger) Debug(msg string, args ...any) { l.event(zerolog.DebugLevel, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.event(zerolog.InfoLevel, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.event(zerolog.WarnLevel, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.event(zerolog.ErrorLevel, msg, args) }

// Zerolog exposes the underlying zerolog.Logger for call sites that want
// zerolog's fluent event builder directly (e.g. attaching an error with
// .Err()).
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zl
}

// Global convenience functions operating on the process-wide default.
func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }
