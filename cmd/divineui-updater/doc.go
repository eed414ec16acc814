// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands for divineui-updater.
//
// The root command runs an update of the Divine UI mod; the config command
// tree inspects and creates the configuration file.
package cmd
