// SPDX-License-Identifier: MPL-2.0

// Package gamedir locates the Dota 2 "game" directory the mod is installed
// into. It checks, in order, an explicit override, the working directory, the
// directory of the running executable and finally every Steam library found
// through the Steam installation.
package gamedir
