package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "15:04:05.000"

// Config selects where log lines go. Console output is human readable and goes
// to stderr so it never mixes with command output. File output is JSON.
type Config struct {
	Level   string
	Console bool
	File    string
}

// New creates a console logger writing to out
func New(level string, out io.Writer) zerolog.Logger {
	zerolog.ErrorFieldName = "err"

	cw := zerolog.ConsoleWriter{Out: out, TimeFormat: consoleTimeFormat}
	return zerolog.New(cw).Level(ParseLevel(level, zerolog.WarnLevel)).With().Timestamp().Logger()
}

// Open builds the logger described by cfg. The returned close function
// releases the log file, if any, and is never nil.
func Open(cfg Config) (zerolog.Logger, func() error, error) {
	noop := func() error { return nil }
	level := ParseLevel(cfg.Level, zerolog.WarnLevel)

	var writers []io.Writer
	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: consoleTimeFormat})
	}

	closeFn := noop
	if path := strings.TrimSpace(cfg.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return Nop(), noop, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return Nop(), noop, fmt.Errorf("failed to open log file %q: %w", path, err)
		}
		writers = append(writers, f)
		closeFn = f.Close
	}

	if len(writers) == 0 {
		return Nop(), closeFn, nil
	}

	zerolog.ErrorFieldName = "err"
	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
	return zl, closeFn, nil
}

// Nop returns a logger that never writes anything.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// ParseLevel maps a config level name to a zerolog level, def when unknown.
func ParseLevel(s string, def zerolog.Level) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "OFF", "DISABLED":
		return zerolog.Disabled
	default:
		return def
	}
}
