// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/dota2-divine-ui/updater/internal/config"
	"github.com/dota2-divine-ui/updater/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type (
	// App wires the CLI to its dependencies. Command handlers receive an App
	// and never touch os.Stdin/os.Stdout directly.
	App struct {
		LoadConfig func(ctx context.Context, opts config.LoadOptions) (*config.LoadResult, error)
		stdin      io.Reader
		stdout     io.Writer
		stderr     io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		LoadConfig func(ctx context.Context, opts config.LoadOptions) (*config.LoadResult, error)
		Stdin      io.Reader
		Stdout     io.Writer
		Stderr     io.Writer
	}

	// globalFlags are the persistent flags shared by every command.
	globalFlags struct {
		verbose    bool
		configFile string
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		LoadConfig: deps.LoadConfig,
		stdin:      deps.Stdin,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
	}
	if app.LoadConfig == nil {
		app.LoadConfig = config.LoadWithSource
	}
	if app.stdin == nil {
		app.stdin = os.Stdin
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// NewRootCommand builds the command tree.
func NewRootCommand(app *App) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := newUpdateCommand(app, flags)
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default is <config dir>/divineui-updater/config.cue)")

	rootCmd.AddCommand(newConfigCommand(app, flags))
	rootCmd.SetIn(app.stdin)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits the process with the resulting code.
// This is called by main.main().
func Execute() {
	os.Exit(Main())
}

// Main runs the CLI against the process streams and returns the exit code.
func Main() int {
	return run(context.Background(), NewApp(Dependencies{}))
}

// run executes the root command and maps its error to an exit code.
func run(ctx context.Context, app *App) int {
	rootCmd := NewRootCommand(app)

	// fang overrides rootCmd.Version, so the version is passed explicitly.
	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			// Commands returning ExitError have already reported the failure.
			var exitErr *ExitError
			if errors.As(err, &exitErr) {
				return
			}
			fang.DefaultErrorHandler(w, styles, err)
		}),
	)
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUserError
}

// loadConfig loads the configuration selected by the global flags.
func (app *App) loadConfig(ctx context.Context, flags *globalFlags) (*config.LoadResult, error) {
	return app.LoadConfig(ctx, config.LoadOptions{ConfigFilePath: flags.configFile})
}

// formatErrorForDisplay formats an error for user display.
// ActionableErrors use their own Format; verbose mode shows the full chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
