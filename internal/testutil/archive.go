// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"bytes"
	"maps"
	"slices"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
)

// WrapperDir is the top-level folder the archive host wraps packages in.
const WrapperDir = "divine-ui-master"

// ZipEntry is one entry of a test archive. Names ending in "/" are
// directories and have no body.
type ZipEntry struct {
	Name string
	Body string
}

// BuildZip returns a ZIP archive holding entries in order.
func BuildZip(t testing.TB, entries ...ZipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			t.Fatalf("zip create %s: %v", e.Name, err)
		}
		if strings.HasSuffix(e.Name, "/") {
			continue
		}
		if _, err := w.Write([]byte(e.Body)); err != nil {
			t.Fatalf("zip write %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// PackageArchive builds a package the way the archive host does: every file
// below WrapperDir, with version.txt and a .gitignore next to files. File
// names in files are slash-separated and relative to the wrapper.
func PackageArchive(t testing.TB, version string, files map[string]string) []byte {
	t.Helper()

	entries := []ZipEntry{
		{Name: WrapperDir + "/"},
		{Name: WrapperDir + "/version.txt", Body: version + "\n"},
		{Name: WrapperDir + "/.gitignore", Body: "*.log\n"},
	}
	for _, name := range slices.Sorted(maps.Keys(files)) {
		entries = append(entries, ZipEntry{Name: WrapperDir + "/" + name, Body: files[name]})
	}
	return BuildZip(t, entries...)
}
