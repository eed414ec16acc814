// SPDX-License-Identifier: MPL-2.0

package gamedir

import (
	"bufio"
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/andygrunwald/vdf"
)

// libraryFoldersFile lists additional Steam libraries, relative to a Steam root.
const libraryFoldersFile = "steamapps/libraryfolders.vdf"

var errVDFSyntax = errors.New("vdf syntax error")

// Libraries returns the Steam library roots known to the Steam installation
// at root, starting with root itself. Unreadable or malformed library files
// yield just root.
func Libraries(root string) []string {
	libs := []string{filepath.Clean(root)}

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(libraryFoldersFile)))
	if err != nil {
		return libs
	}

	paths, err := parseLibraryFolders(string(data))
	if err != nil {
		return libs
	}
	for _, p := range paths {
		p = filepath.Clean(p)
		if !slices.Contains(libs, p) {
			libs = append(libs, p)
		}
	}
	return libs
}

// parseLibraryFolders extracts library paths from libraryfolders.vdf in
// index order. It understands the legacy layout ("1" "D:\\Games") and the
// current one, where each numbered entry is an object holding a "path" key.
func parseLibraryFolders(src string) ([]string, error) {
	root, err := vdf.NewParser(strings.NewReader(stripVDFComments(src))).Parse()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errVDFSyntax, err)
	}

	type entry struct {
		index int
		path  string
	}
	var entries []entry
	for key, top := range root {
		folders, ok := top.(map[string]any)
		if !ok || !strings.EqualFold(key, "libraryfolders") {
			continue
		}
		for k, v := range folders {
			index, err := strconv.Atoi(k)
			if err != nil || index < 0 {
				continue
			}
			if p := libraryPath(v); p != "" {
				entries = append(entries, entry{index: index, path: p})
			}
		}
	}

	slices.SortFunc(entries, func(a, b entry) int { return cmp.Compare(a.index, b.index) })
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.path)
	}
	return paths, nil
}

// libraryPath returns the path of one numbered libraryfolders entry: the
// value itself in the legacy layout, its "path" key in the current one.
func libraryPath(v any) string {
	switch v := v.(type) {
	case string:
		return unescapeVDF(v)
	case map[string]any:
		for k, field := range v {
			if s, ok := field.(string); ok && strings.EqualFold(k, "path") {
				return unescapeVDF(s)
			}
		}
	}
	return ""
}

// unescapeVDF undoes the backslash doubling Steam applies to Windows paths.
func unescapeVDF(s string) string {
	return strings.ReplaceAll(s, `\\`, `\`)
}

// stripVDFComments drops "//" comment lines, which Steam writes into older
// library files.
func stripVDFComments(src string) string {
	var sb strings.Builder
	sc := bufio.NewScanner(strings.NewReader(src))
	for sc.Scan() {
		if strings.HasPrefix(strings.TrimSpace(sc.Text()), "//") {
			continue
		}
		sb.WriteString(sc.Text())
		sb.WriteByte('\n')
	}
	return sb.String()
}
