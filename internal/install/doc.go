// SPDX-License-Identifier: MPL-2.0

// Package install lays a downloaded mod package out on disk: it resets the
// install directory, extracts the ZIP archive into it, moves the files out of
// the wrapper folder the archive host adds, and writes the auxiliary game
// config. Every operation works on an afero.Fs.
package install
