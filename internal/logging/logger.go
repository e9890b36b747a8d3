// Package logging configures the charmbracelet/log loggers used by the
// command line and the engine.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Environment variables consulted by FromEnv.
const (
	EnvLevel  = "ATCLINT_LOG_LEVEL"
	EnvFormat = "ATCLINT_LOG_FORMAT"
)

// Log output formats.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatLogfmt = "logfmt"
)

// Options configures a logger.
type Options struct {
	// Level is "debug", "info", "warn" or "error". Anything else is info.
	Level string

	// Format is FormatText, FormatJSON or FormatLogfmt. Empty is text.
	Format string

	// Writer defaults to os.Stderr.
	Writer io.Writer

	// Prefix labels every line, e.g. the component name.
	Prefix string

	// Timestamps adds a time field to every line.
	Timestamps bool
}

var (
	defaultMu     sync.RWMutex
	defaultLogger *log.Logger
)

// ParseLevel maps a level name to a log.Level. Names are case-insensitive;
// "warning" is accepted for warn. Unknown names return an error and info.
func ParseLevel(level string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel, nil
	case "info", "":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

func formatter(format string) (log.Formatter, error) {
	switch strings.ToLower(format) {
	case FormatText, "":
		return log.TextFormatter, nil
	case FormatJSON:
		return log.JSONFormatter, nil
	case FormatLogfmt:
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("unknown log format %q", format)
	}
}

// NewWithOptions creates a logger. Invalid levels and formats fall back to
// info and text; the returned error reports what was ignored.
func NewWithOptions(opts Options) (*log.Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	level, levelErr := ParseLevel(opts.Level)
	format, formatErr := formatter(opts.Format)

	logger := log.NewWithOptions(writer, log.Options{
		Level:           level,
		Formatter:       format,
		Prefix:          opts.Prefix,
		ReportTimestamp: opts.Timestamps,
	})

	if levelErr != nil {
		return logger, levelErr
	}
	return logger, formatErr
}

// New creates a text logger on stderr at the given level.
func New(level string) *log.Logger {
	logger, _ := NewWithOptions(Options{Level: level})
	return logger
}

// NewInteractive creates the info-level logger used by commands that talk
// to a person, such as init and rules.
func NewInteractive() *log.Logger {
	logger, _ := NewWithOptions(Options{Level: "info"})
	return logger
}

// FromEnv creates a logger configured by ATCLINT_LOG_LEVEL and
// ATCLINT_LOG_FORMAT, using level when the variable is unset.
func FromEnv(level string) (*log.Logger, error) {
	if env := os.Getenv(EnvLevel); env != "" {
		level = env
	}
	return NewWithOptions(Options{Level: level, Format: os.Getenv(EnvFormat)})
}

// Default returns the package-level logger, creating an info logger on
// first use.
func Default() *log.Logger {
	defaultMu.RLock()
	logger := defaultLogger
	defaultMu.RUnlock()
	if logger != nil {
		return logger
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New("info")
	}
	return defaultLogger
}

// SetDefault replaces the package-level logger.
func SetDefault(logger *log.Logger) {
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
}

// SetLevel updates the level of the package-level logger. Unknown names
// select info.
func SetLevel(level string) {
	parsed, _ := ParseLevel(level)
	Default().SetLevel(parsed)
}
