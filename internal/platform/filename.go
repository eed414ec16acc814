// SPDX-License-Identifier: MPL-2.0

package platform

import "strings"

// windowsReservedNames cannot be used as file names on Windows, with or
// without an extension.
var windowsReservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"COM5": true, "COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true,
	"LPT5": true, "LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// IsWindowsReservedName reports whether name, ignoring its extension, is a
// reserved device name on Windows.
func IsWindowsReservedName(name string) bool {
	upper := strings.ToUpper(name)
	if idx := strings.Index(upper, "."); idx != -1 {
		upper = upper[:idx]
	}
	return windowsReservedNames[upper]
}

// SafeFileName turns an arbitrary string, such as a remote version, into a
// file name that is valid on every platform. Characters outside
// [A-Za-z0-9._-] become '_', reserved Windows names get a '_' prefix and an
// empty result becomes "_".
func SafeFileName(s string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)

	// Windows strips trailing dots, and "." / ".." are not names at all.
	safe = strings.TrimRight(safe, ".")
	switch {
	case safe == "":
		return "_"
	case IsWindowsReservedName(safe):
		return "_" + safe
	}
	return safe
}
