// SPDX-License-Identifier: MPL-2.0

package gamedir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dota2-divine-ui/updater/internal/issue"
)

const (
	// ContentDir is the sub-directory that marks a Dota 2 game directory.
	ContentDir = "dota"

	// steamGamePath is the game directory relative to a Steam library root.
	steamGamePath = "steamapps/common/dota 2 beta/game"
)

// Detection sources, in priority order.
const (
	SourceOverride   Source = "override"
	SourceWorkingDir Source = "working directory"
	SourceExecutable Source = "executable directory"
	SourceSteam      Source = "steam library"
)

var (
	// ErrGameNotFound is returned when no source yields a game directory.
	ErrGameNotFound = errors.New("dota 2 game directory not found")

	//nolint:gochecknoglobals // Test seam for os.Getwd().
	getwd = os.Getwd

	//nolint:gochecknoglobals // Test seam for os.Executable().
	executable = os.Executable

	//nolint:gochecknoglobals // Test seam for Steam installation discovery.
	steamRoots = defaultSteamRoots
)

type (
	// Source names where a game directory was found.
	Source string

	// Options configures Detect.
	Options struct {
		// Override is a user-supplied game directory. When set, no other
		// source is consulted.
		Override string
	}

	// Location is a detected game directory.
	Location struct {
		// GameDir is the absolute path of the "game" directory.
		GameDir string
		// Source is where GameDir was found.
		Source Source
	}
)

// Detect finds the game directory. The returned error wraps ErrGameNotFound
// and carries suggestions for the user.
func Detect(opts Options) (*Location, error) {
	if opts.Override != "" {
		dir, ok := resolveOverride(opts.Override)
		if !ok {
			return nil, issue.NewErrorContext().
				WithOperation("locate game directory").
				WithResource(opts.Override).
				WithSuggestion("Point --game-dir at the Dota 2 'game' folder, the one containing 'dota'").
				Wrap(ErrGameNotFound).
				BuildError()
		}
		return &Location{GameDir: dir, Source: SourceOverride}, nil
	}

	if wd, err := getwd(); err == nil && IsGameDir(wd) {
		return &Location{GameDir: abs(wd), Source: SourceWorkingDir}, nil
	}

	if exe, err := executable(); err == nil {
		if resolved, evalErr := filepath.EvalSymlinks(exe); evalErr == nil {
			exe = resolved
		}
		if dir := filepath.Dir(exe); IsGameDir(dir) {
			return &Location{GameDir: abs(dir), Source: SourceExecutable}, nil
		}
	}

	for _, root := range steamRoots() {
		for _, lib := range Libraries(root) {
			dir := filepath.Join(lib, filepath.FromSlash(steamGamePath))
			if IsGameDir(dir) {
				return &Location{GameDir: abs(dir), Source: SourceSteam}, nil
			}
		}
	}

	return nil, issue.NewErrorContext().
		WithOperation("locate game directory").
		WithSuggestions(
			"Move the updater into the Dota 2 'game' folder and run it again",
			"Or pass --game-dir with the path of that folder",
		).
		Wrap(ErrGameNotFound).
		BuildError()
}

// IsGameDir reports whether dir contains the game's content directory.
func IsGameDir(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ContentDir))
	return err == nil && info.IsDir()
}

// InstallDir returns the directory the mod is installed into. When the
// regular install directory is a git checkout, the test directory is used
// instead so a development copy is never overwritten.
func InstallDir(gameDir, name, testName string) (dir string, testing bool) {
	regular := filepath.Join(gameDir, name)
	if testName == "" {
		return regular, false
	}
	if _, err := os.Stat(filepath.Join(regular, ".git")); err == nil {
		return filepath.Join(gameDir, testName), true
	}
	return regular, false
}

// resolveOverride accepts either the game directory itself or the Dota 2
// root directory above it.
func resolveOverride(path string) (string, bool) {
	for _, dir := range []string{path, filepath.Join(path, "game")} {
		if IsGameDir(dir) {
			return abs(dir), true
		}
	}
	return "", false
}

func abs(path string) string {
	if a, err := filepath.Abs(path); err == nil {
		return a
	}
	return filepath.Clean(path)
}

// String returns a human-readable description of the location.
func (l *Location) String() string {
	return fmt.Sprintf("%s (found via %s)", l.GameDir, l.Source)
}
