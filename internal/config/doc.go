// SPDX-License-Identifier: MPL-2.0

// Package config handles updater configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/divineui-updater/config.cue (XDG on Linux,
// ~/Library/Application Support/divineui-updater/config.cue on macOS,
// %APPDATA%\divineui-updater\config.cue on Windows), falling back to ./config.cue so a
// file can live next to the updater in the game folder. Environment variables with the
// DIVINEUI_ prefix override file values (DIVINEUI_SOURCE_MIRRORS takes a comma list).
//
// Files are validated against the embedded CUE schema (config_schema.cue); the loaded
// result is validated again in Go because env overrides bypass the schema.
package config
