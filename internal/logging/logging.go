// SPDX-License-Identifier: MPL-2.0

// Package logging builds the updater's logger: charmbracelet/log on stderr,
// optionally teed into a rotating log file, with a per-run ID on every line.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dota2-divine-ui/updater/internal/config"
)

const (
	// Prefix is prepended to every console line.
	Prefix = "divineui"

	maxFileSizeMB  = 5
	maxFileBackups = 3
	maxFileAgeDays = 30
)

type (
	// Options controls logger construction.
	Options struct {
		// Level is the minimum level logged. Empty means info.
		Level config.LogLevel
		// Verbose forces debug level regardless of Level.
		Verbose bool
		// File enables a rotating log file when non-empty.
		File string
		// Output receives console log lines. Defaults to os.Stderr.
		Output io.Writer
	}

	// Logger is a configured logger and the resources it holds.
	Logger struct {
		*log.Logger

		// RunID identifies this process run in every log line.
		RunID string

		file *lumberjack.Logger
	}
)

// New creates a Logger. Close must be called to release the log file.
func New(opts Options) (*Logger, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var file *lumberjack.Logger
	if path := strings.TrimSpace(opts.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		file = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxFileSizeMB,
			MaxBackups: maxFileBackups,
			MaxAge:     maxFileAgeDays,
		}
		out = io.MultiWriter(out, file)
	}

	runID := uuid.NewString()
	logger := log.NewWithOptions(out, log.Options{
		Prefix:          Prefix,
		Level:           ParseLevel(opts.Level, opts.Verbose),
		ReportTimestamp: file != nil,
	}).With("run_id", runID)

	return &Logger{Logger: logger, RunID: runID, file: file}, nil
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	return &Logger{Logger: log.New(io.Discard), RunID: uuid.Nil.String()}
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ParseLevel maps a configured level to a log.Level; verbose wins.
func ParseLevel(level config.LogLevel, verbose bool) log.Level {
	if verbose {
		return log.DebugLevel
	}
	switch level {
	case config.LogLevelDebug:
		return log.DebugLevel
	case config.LogLevelWarn:
		return log.WarnLevel
	case config.LogLevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
