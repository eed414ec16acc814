// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dota2-divine-ui/updater/internal/config"
	"github.com/dota2-divine-ui/updater/internal/gamedir"
	"github.com/dota2-divine-ui/updater/internal/issue"
	"github.com/dota2-divine-ui/updater/internal/logging"
	"github.com/dota2-divine-ui/updater/internal/modupdate"
)

type (
	// updateFlags are the flags of the root (update) command.
	updateFlags struct {
		gameDir     string
		check       bool
		redownload  bool
		keepArchive bool
		noPause     bool
	}

	// updateParams bundles the dependencies and flags for an update, so
	// runUpdate can be tested without a real Cobra command or live servers.
	updateParams struct {
		stdout      io.Writer
		stderr      io.Writer
		logger      *log.Logger
		updater     *modupdate.Updater
		location    *gamedir.Location
		installDir  string
		testingMode bool // installing next to a development checkout
		check       bool // report only, install nothing
		redownload  bool
		keepArchive bool
	}
)

// newUpdateCommand creates the root command, which checks for and installs
// Divine UI updates.
func newUpdateCommand(app *App, global *globalFlags) *cobra.Command {
	flags := &updateFlags{}

	cmd := &cobra.Command{
		Use:   "divineui-updater",
		Short: "Install and update Divine UI for Dota 2",
		Long: TitleStyle.Render("divineui-updater") + SubtitleStyle.Render(" - Divine UI installer and updater") + `

Finds your Dota 2 installation, compares the installed Divine UI version
with the latest published one and, when they differ, downloads the package,
installs it into the game folder and writes the gameinfo.gi the game needs
to load it.

` + SubtitleStyle.Render("Game folder lookup order:") + `
  1. --game-dir flag or game_dir in the config file
  2. the current directory
  3. the directory this program is in
  4. your Steam libraries`,
		Example: `  # Install or update
  divineui-updater

  # Only report whether an update is available
  divineui-updater --check

  # Point at the game explicitly and ignore a cached archive
  divineui-updater --game-dir "D:\SteamLibrary\steamapps\common\dota 2 beta\game" --redownload`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true
			return executeUpdate(cmd.Context(), app, global, flags)
		},
	}

	cmd.Flags().StringVar(&flags.gameDir, "game-dir", "", "Dota 2 'game' directory (skips detection)")
	cmd.Flags().BoolVar(&flags.check, "check", false, "check for an update without installing")
	cmd.Flags().BoolVar(&flags.redownload, "redownload", false, "ignore a previously downloaded archive")
	cmd.Flags().BoolVar(&flags.keepArchive, "keep-archive", false, "keep the downloaded archive after installing")
	cmd.Flags().BoolVar(&flags.noPause, "no-pause", false, "do not wait for Enter before exiting")

	return cmd
}

// executeUpdate wires config, logging and detection into updateParams, runs
// the update and reports failures. It always returns *ExitError on failure.
func executeUpdate(ctx context.Context, app *App, global *globalFlags, flags *updateFlags) error {
	pause := !flags.noPause
	defer func() {
		if pause {
			waitForEnter(app.stdin, app.stdout)
		}
	}()

	fmt.Fprintln(app.stdout, TitleStyle.Render("Divine UI Updater")+" "+SubtitleStyle.Render(getVersionString()))
	fmt.Fprintln(app.stdout)

	loaded, err := app.loadConfig(ctx, global)
	if err != nil {
		pause = pause && config.DefaultConfig().UI.PauseOnExit
		fmt.Fprintln(app.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, global.verbose))
		renderIssue(app.stderr, issue.Get(issue.ConfigLoadFailedID))
		return &ExitError{Code: ExitUserError, Err: err}
	}
	cfg := loaded.Config
	pause = pause && cfg.UI.PauseOnExit
	verbose := global.verbose || cfg.UI.Verbose

	logger, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		Verbose: verbose,
		File:    cfg.Log.File,
		Output:  app.stderr,
	})
	if err != nil {
		fmt.Fprintln(app.stderr, ErrorStyle.Render("Error: ")+"opening log file: "+err.Error())
		return &ExitError{Code: ExitUserError, Err: err}
	}
	defer func() { _ = logger.Close() }() // best-effort flush of the log file

	if loaded.Path != "" {
		logger.Debug("configuration loaded", "path", loaded.Path)
	}

	override := flags.gameDir
	if override == "" {
		override = cfg.GameDir
	}
	loc, err := gamedir.Detect(gamedir.Options{Override: override})
	if err != nil {
		fmt.Fprintln(app.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
		renderIssue(app.stderr, issue.Get(issue.GameNotFoundID))
		return &ExitError{Code: ExitUserError, Err: err}
	}
	logger.Debug("game directory found", "path", loc.GameDir, "source", loc.Source)

	installDir, testingMode := gamedir.InstallDir(loc.GameDir, cfg.Install.DirName, cfg.Install.TestDirName)

	p := updateParams{
		stdout:      app.stdout,
		stderr:      app.stderr,
		logger:      logger.Logger,
		updater:     newUpdater(cfg, loc.GameDir, installDir, logger.Logger, app.stdout),
		location:    loc,
		installDir:  installDir,
		testingMode: testingMode,
		check:       flags.check,
		redownload:  flags.redownload,
		keepArchive: flags.keepArchive || cfg.Install.KeepArchive,
	}

	if err := runUpdate(ctx, p); err != nil {
		fmt.Fprintln(app.stderr, formatUpdateError(err, verbose, issueStyle(app.stderr)))
		return &ExitError{Code: classifyUpdateExitCode(err), Err: err}
	}
	return nil
}

// newUpdater builds a modupdate.Updater from the loaded configuration.
func newUpdater(cfg *config.Config, gameDir, installDir string, logger *log.Logger, progress io.Writer) *modupdate.Updater {
	userAgent := cfg.Network.UserAgent
	if userAgent == config.DefaultConfig().Network.UserAgent {
		userAgent = config.AppName + "/" + Version
	}

	clientOpts := []modupdate.ClientOption{
		modupdate.WithUserAgent(userAgent),
		modupdate.WithTimeout(cfg.Network.Timeout),
	}
	// A token raises the GitHub rate limit (5000/hour vs 60/hour unauthenticated).
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		clientOpts = append(clientOpts, modupdate.WithToken(token))
	}

	return modupdate.NewUpdater(
		modupdate.Paths{GameDir: gameDir, InstallDir: installDir},
		modupdate.Settings{
			VersionURL:    cfg.Source.VersionURL.String(),
			Mirrors:       cfg.Source.MirrorStrings(),
			AuxConfigURL:  cfg.Source.AuxConfigURL.String(),
			AuxConfigPath: cfg.Install.AuxConfigPath,
			WrapperDir:    cfg.Install.WrapperDir,
			SkipFiles:     cfg.Install.SkipFiles,
		},
		modupdate.WithClient(modupdate.NewClient(clientOpts...)),
		modupdate.WithLogger(logger),
		modupdate.WithProgressOutput(progress),
	)
}

// runUpdate is the core update logic, separated from Cobra for testability.
// All user-facing output goes through p.stdout; the logger carries details.
//
// Flow:
//  1. Compare the installed version with the published one.
//  2. If they are equal, report and return.
//  3. If --check, report the available change and return.
//  4. Otherwise download, install, write the aux config and verify.
func runUpdate(ctx context.Context, p updateParams) error {
	fmt.Fprintf(p.stdout, "%s %s\n", SubtitleStyle.Render("Game directory:   "), CmdStyle.Render(p.location.GameDir))
	if p.testingMode {
		fmt.Fprintln(p.stdout, WarningStyle.Render("Development checkout detected, installing into "+p.installDir))
	}

	check, err := p.updater.Check(ctx)
	if err != nil {
		return fmt.Errorf("checking for updates: %w", err)
	}

	local := check.LocalVersion
	if local == "" {
		local = "(not installed)"
	}
	fmt.Fprintf(p.stdout, "%s %s\n", SubtitleStyle.Render("Installed version:"), local)
	fmt.Fprintf(p.stdout, "%s %s\n\n", SubtitleStyle.Render("Latest version:   "), check.RemoteVersion)

	if !check.UpdateAvailable {
		fmt.Fprintln(p.stdout, SuccessStyle.Render(check.Message))
		return nil
	}

	fmt.Fprintln(p.stdout, check.Message)
	if p.check {
		fmt.Fprintln(p.stdout, "Run '"+CmdStyle.Render("divineui-updater")+"' to install it.")
		return nil
	}

	res, err := p.updater.Apply(ctx, check, modupdate.ApplyOptions{
		Redownload:  p.redownload,
		KeepArchive: p.keepArchive,
	})
	if err != nil {
		return fmt.Errorf("installing Divine UI %s: %w", check.RemoteVersion, err)
	}

	if res.UpToDate {
		fmt.Fprintln(p.stdout, SuccessStyle.Render(fmt.Sprintf("Divine UI %s is up to date.", res.Version)))
		return nil
	}

	if res.ArchiveReused {
		fmt.Fprintf(p.stdout, "Used the previously downloaded %s (delete it or pass --redownload to fetch it again)\n", res.ArchivePath)
	}
	installed := res.FilesMoved
	if installed == 0 {
		installed = res.FilesExtracted
	}
	fmt.Fprintf(p.stdout, "Installed %d files into %s\n", installed, p.installDir)
	fmt.Fprintf(p.stdout, "Wrote %s\n", res.AuxConfigPath)
	if res.ArchiveKept {
		fmt.Fprintf(p.stdout, "Kept archive %s\n", res.ArchivePath)
	}
	fmt.Fprintln(p.stdout, SuccessStyle.Render(fmt.Sprintf("Divine UI %s installed successfully.", res.Version)))

	p.logger.Info("update complete", "version", res.Version, "mirror", res.MirrorIndex+1)
	return nil
}

// classifyUpdateExitCode maps an update error to the process exit code.
// Failures the user can fix (no usable mirror, unreachable host behind a
// rate limit) use exit code 1; everything else uses exit code 2.
func classifyUpdateExitCode(err error) int {
	var rateLimitErr *modupdate.RateLimitError
	switch {
	case errors.Is(err, gamedir.ErrGameNotFound):
		return ExitUserError
	case errors.Is(err, modupdate.ErrMirrorsExhausted):
		return ExitUserError
	case errors.As(err, &rateLimitErr):
		return ExitUserError
	default:
		return ExitFailure
	}
}

// formatUpdateError produces a user-friendly error message with remediation
// guidance tailored to the specific error type. style is the glamour style
// used for issue pages.
func formatUpdateError(err error, verbose bool, style string) string {
	var rateLimitErr *modupdate.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return fmt.Sprintf("%s %s\n\nTo increase your rate limit, set a GitHub token:\n  GITHUB_TOKEN=ghp_...\nThen run the updater again.",
			ErrorStyle.Render("Error:"), rateLimitErr.Error())
	}

	var exhausted *modupdate.MirrorsExhaustedError
	if errors.As(err, &exhausted) {
		details := make([]string, 0, len(exhausted.Failures))
		for _, f := range exhausted.Failures {
			details = append(details, f.Error())
		}
		return ErrorStyle.Render("Error: ") + err.Error() + "\n" +
			renderIssueStyled(issue.Get(issue.MirrorsExhaustedID).WithDetails(details...), style)
	}

	var verifyErr *modupdate.VerifyError
	if errors.As(err, &verifyErr) {
		return WarningStyle.Render("Warning: ") + verifyErr.Error() + "\n" +
			renderIssueStyled(issue.Get(issue.VerifyFailedID).WithDetails(
				"installed: "+verifyErr.Local,
				"published: "+verifyErr.Remote,
			), style)
	}

	return fmt.Sprintf("%s %s\n\nCheck your network connection and try again.",
		ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
}
