// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dota2-divine-ui/updater/internal/config"
	"github.com/dota2-divine-ui/updater/internal/issue"
)

// Output formats accepted by `config show`.
const (
	formatCUE  = "cue"
	formatTOML = "toml"
	formatJSON = "json"
)

var errUnknownFormat = errors.New("unknown output format")

// newConfigCommand creates the `divineui-updater config` command tree.
func newConfigCommand(app *App, global *globalFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage divineui-updater configuration",
		Long: `Manage divineui-updater configuration.

Configuration is read from the first file found of:
  - the --config flag
  - Linux: ~/.config/divineui-updater/config.cue
  - macOS: ~/Library/Application Support/divineui-updater/config.cue
  - Windows: %APPDATA%\divineui-updater\config.cue
  - config.cue in the current directory

Every key can also be set through an environment variable, for example
DIVINEUI_NETWORK_TIMEOUT=30s or DIVINEUI_GAME_DIR=/path/to/game.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var format string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			return showConfig(cmd, app, global, format)
		},
	}
	showCmd.Flags().StringVarP(&format, "format", "f", formatCUE, "output format: cue, toml or json")
	cfgCmd.AddCommand(showCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			return initConfig(cmd)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfigPath(cmd)
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App, global *globalFlags, format string) error {
	loaded, err := app.loadConfig(cmd.Context(), global)
	if err != nil {
		cmd.SilenceErrors = true
		fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, global.verbose))
		renderIssue(cmd.ErrOrStderr(), issue.Get(issue.ConfigLoadFailedID))
		return &ExitError{Code: ExitUserError, Err: err}
	}

	var out string
	switch strings.ToLower(format) {
	case formatCUE:
		out = config.GenerateCUE(loaded.Config)
	case formatTOML:
		out, err = config.GenerateTOML(loaded.Config)
	case formatJSON:
		out, err = config.GenerateJSON(loaded.Config)
	default:
		return fmt.Errorf("%w %q (valid: %s, %s, %s)", errUnknownFormat, format, formatCUE, formatTOML, formatJSON)
	}
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if loaded.Path != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), SubtitleStyle.Render("# loaded from "+loaded.Path))
	} else {
		fmt.Fprintln(cmd.ErrOrStderr(), SubtitleStyle.Render("# no config file found, showing defaults"))
	}
	fmt.Fprint(w, out)
	if !strings.HasSuffix(out, "\n") {
		fmt.Fprintln(w)
	}
	return nil
}

func initConfig(cmd *cobra.Command) error {
	cfgPath, err := config.ConfigFilePath()
	if err != nil {
		return err
	}
	existed := fileExistsCheck(cfgPath)

	if _, err := config.CreateDefaultConfig(); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	if existed {
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration already exists at %s\n", cfgPath)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), cfgPath)
	return nil
}

func showConfigPath(cmd *cobra.Command) error {
	cfgPath, err := config.ConfigFilePath()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cfgPath)
	return nil
}

// fileExistsCheck checks if a file exists and is not a directory.
func fileExistsCheck(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
