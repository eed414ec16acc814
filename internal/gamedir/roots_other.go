// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package gamedir

import (
	"os"
	"path/filepath"
	"runtime"
)

// defaultSteamRoots returns the usual Steam installation directories below
// the user's home directory.
func defaultSteamRoots() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	if runtime.GOOS == "darwin" {
		return []string{filepath.Join(home, "Library", "Application Support", "Steam")}
	}
	return []string{
		filepath.Join(home, ".steam", "steam"),
		filepath.Join(home, ".local", "share", "Steam"),
		filepath.Join(home, ".var", "app", "com.valvesoftware.Steam", ".local", "share", "Steam"),
	}
}
