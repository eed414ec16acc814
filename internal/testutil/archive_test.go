// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/zip"
)

func TestPackageArchive(t *testing.T) {
	t.Parallel()

	data := PackageArchive(t, "1.2.3", map[string]string{
		"panorama/b.xml": "b",
		"panorama/a.xml": "a",
	})

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip.NewReader() error: %v", err)
	}

	want := []string{
		"divine-ui-master/",
		"divine-ui-master/version.txt",
		"divine-ui-master/.gitignore",
		"divine-ui-master/panorama/a.xml",
		"divine-ui-master/panorama/b.xml",
	}
	if len(zr.File) != len(want) {
		t.Fatalf("got %d entries, want %d", len(zr.File), len(want))
	}
	for i, f := range zr.File {
		if f.Name != want[i] {
			t.Errorf("entry %d = %q, want %q", i, f.Name, want[i])
		}
	}

	rc, err := zr.File[1].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "1.2.3\n" {
		t.Errorf("version.txt = %q", body)
	}
}
