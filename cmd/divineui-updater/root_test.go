// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dota2-divine-ui/updater/internal/config"
	"github.com/dota2-divine-ui/updater/internal/gamedir"
)

// newTestApp returns an App with buffered streams whose config loader
// returns cfg, or err when set.
func newTestApp(cfg *config.Config, path string, err error) (app *App, stdout, stderr *bytes.Buffer) {
	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	app = NewApp(Dependencies{
		LoadConfig: func(context.Context, config.LoadOptions) (*config.LoadResult, error) {
			if err != nil {
				return nil, err
			}
			return &config.LoadResult{Config: cfg, Path: path}, nil
		},
		Stdin:  strings.NewReader(""),
		Stdout: stdout,
		Stderr: stderr,
	})
	return app, stdout, stderr
}

func executeRoot(t *testing.T, app *App, args ...string) error {
	t.Helper()

	root := NewRootCommand(app)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func TestExitError(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := &ExitError{Code: ExitFailure, Err: cause}
	if err.Error() != "boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("ExitError should unwrap to its cause")
	}

	bare := &ExitError{Code: ExitUserError}
	if bare.Error() != "exit status 1" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestUpdate_ConfigLoadFailure(t *testing.T) {
	t.Parallel()

	app, _, stderr := newTestApp(nil, "", errors.New("bad schema"))
	err := executeRoot(t, app, "--no-pause")

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %v", err)
	}
	if exitErr.Code != ExitUserError {
		t.Errorf("Code = %d, want %d", exitErr.Code, ExitUserError)
	}
	if !strings.Contains(stderr.String(), "bad schema") {
		t.Errorf("stderr missing cause:\n%s", stderr.String())
	}
}

func TestUpdate_GameDirNotFound(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.UI.PauseOnExit = false
	cfg.GameDir = t.TempDir() // no dota/ inside

	app, stdout, stderr := newTestApp(cfg, "", nil)
	err := executeRoot(t, app)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %v", err)
	}
	if exitErr.Code != ExitUserError {
		t.Errorf("Code = %d, want %d", exitErr.Code, ExitUserError)
	}
	if !errors.Is(err, gamedir.ErrGameNotFound) {
		t.Errorf("error should wrap ErrGameNotFound: %v", err)
	}
	if !strings.Contains(stdout.String(), "Divine UI Updater") {
		t.Errorf("banner missing:\n%s", stdout.String())
	}
	if !strings.Contains(stderr.String(), "locate game directory") {
		t.Errorf("stderr missing detection failure:\n%s", stderr.String())
	}
}

func TestConfigShow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		want   string
	}{
		{"cue", "dir_name:"},
		{"json", `"dir_name": "dota_divine_ui"`},
		{"toml", "dir_name = "},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			app, stdout, stderr := newTestApp(config.DefaultConfig(), "/etc/divineui/config.cue", nil)
			if err := executeRoot(t, app, "config", "show", "--format", tt.format); err != nil {
				t.Fatalf("config show error: %v", err)
			}
			if !strings.Contains(stdout.String(), tt.want) {
				t.Errorf("stdout missing %q:\n%s", tt.want, stdout.String())
			}
			if !strings.Contains(stderr.String(), "loaded from /etc/divineui/config.cue") {
				t.Errorf("stderr missing source note:\n%s", stderr.String())
			}
		})
	}
}

func TestConfigShow_UnknownFormat(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(config.DefaultConfig(), "", nil)
	err := executeRoot(t, app, "config", "show", "-f", "yaml")
	if !errors.Is(err, errUnknownFormat) {
		t.Fatalf("error = %v, want errUnknownFormat", err)
	}
}

func TestFormatErrorForDisplay(t *testing.T) {
	t.Parallel()

	plain := errors.New("plain failure")
	if got := formatErrorForDisplay(plain, true); got != "plain failure" {
		t.Errorf("formatErrorForDisplay(plain) = %q", got)
	}

	_, err := gamedir.Detect(gamedir.Options{Override: t.TempDir()})
	if err == nil {
		t.Fatal("Detect() on an empty directory should fail")
	}
	got := formatErrorForDisplay(err, false)
	if !strings.Contains(got, "failed to locate game directory") || !strings.Contains(got, "•") {
		t.Errorf("ActionableError should render with suggestions:\n%s", got)
	}
}

func TestGetVersionString(t *testing.T) {
	t.Parallel()

	if got := getVersionString(); Version == "dev" && got != "dev (built from source)" {
		t.Errorf("getVersionString() = %q", got)
	}
}
