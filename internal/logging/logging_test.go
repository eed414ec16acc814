// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/dota2-divine-ui/updater/internal/config"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level   config.LogLevel
		verbose bool
		want    log.Level
	}{
		{config.LogLevelDebug, false, log.DebugLevel},
		{config.LogLevelInfo, false, log.InfoLevel},
		{config.LogLevelWarn, false, log.WarnLevel},
		{config.LogLevelError, false, log.ErrorLevel},
		{"", false, log.InfoLevel},
		{config.LogLevelError, true, log.DebugLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.level, tt.verbose); got != tt.want {
			t.Errorf("ParseLevel(%q, %v) = %v, want %v", tt.level, tt.verbose, got, tt.want)
		}
	}
}

func TestNew_ConsoleOnly(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(Options{Level: config.LogLevelWarn, Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer logger.Close()

	if _, err := uuid.Parse(logger.RunID); err != nil {
		t.Errorf("RunID %q is not a UUID: %v", logger.RunID, err)
	}

	logger.Info("hidden")
	logger.Warn("mirror failed", "mirror", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered at warn level:\n%s", out)
	}
	if !strings.Contains(out, "mirror failed") || !strings.Contains(out, logger.RunID) {
		t.Errorf("warn line missing message or run_id:\n%s", out)
	}
}

func TestNew_FileLog(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "updater.log")

	var buf bytes.Buffer
	logger, err := New(Options{File: path, Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("update complete", "version", "2.1.0")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "update complete") || !strings.Contains(string(data), logger.RunID) {
		t.Errorf("log file missing entry:\n%s", data)
	}
	if !strings.Contains(buf.String(), "update complete") {
		t.Errorf("console missing entry:\n%s", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	logger := Discard()
	logger.Error("dropped")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
