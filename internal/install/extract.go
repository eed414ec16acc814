// SPDX-License-Identifier: MPL-2.0

package install

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
)

// maxExtractedSize caps the total uncompressed size of an archive.
var maxExtractedSize int64 = 1 << 30

// ErrBadArchive is the sentinel error wrapped by ExtractError.
var ErrBadArchive = errors.New("bad archive")

// ExtractError reports why an archive could not be extracted. Entry is empty
// when the archive as a whole is unreadable.
type ExtractError struct {
	Archive string
	Entry   string
	Err     error
}

// Error implements the error interface.
func (e *ExtractError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("extract %s: %v", e.Archive, e.Err)
	}
	return fmt.Sprintf("extract %s: entry %q: %v", e.Archive, e.Entry, e.Err)
}

// Unwrap returns ErrBadArchive and the underlying cause.
func (e *ExtractError) Unwrap() []error { return []error{ErrBadArchive, e.Err} }

// ExtractZip extracts archivePath into dest and returns the number of regular
// files written. Entries that would land outside dest are rejected.
func ExtractZip(fs afero.Fs, archivePath, dest string) (n int, err error) {
	f, err := fs.Open(archivePath)
	if err != nil {
		return 0, &ExtractError{Archive: archivePath, Err: err}
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return 0, &ExtractError{Archive: archivePath, Err: err}
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return 0, &ExtractError{Archive: archivePath, Err: err}
	}

	absDest := filepath.Clean(dest)
	remaining := maxExtractedSize

	for _, file := range zr.File {
		destPath, pathErr := entryPath(absDest, file.Name)
		if pathErr != nil {
			return n, &ExtractError{Archive: archivePath, Entry: file.Name, Err: pathErr}
		}

		if file.FileInfo().IsDir() {
			if mkdirErr := fs.MkdirAll(destPath, 0o755); mkdirErr != nil {
				return n, &ExtractError{Archive: archivePath, Entry: file.Name, Err: mkdirErr}
			}
			continue
		}

		if mkdirErr := fs.MkdirAll(filepath.Dir(destPath), 0o755); mkdirErr != nil {
			return n, &ExtractError{Archive: archivePath, Entry: file.Name, Err: mkdirErr}
		}

		written, extractErr := extractFile(fs, file, destPath, remaining)
		if extractErr != nil {
			return n, &ExtractError{Archive: archivePath, Entry: file.Name, Err: extractErr}
		}
		remaining -= written
		n++
	}

	return n, nil
}

// entryPath resolves a ZIP entry name below dest.
func entryPath(dest, name string) (string, error) {
	if name == "" || strings.Contains(name, "\\") || filepath.IsAbs(filepath.FromSlash(name)) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("invalid path in archive")
	}

	destPath := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, destPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes destination")
	}
	return destPath, nil
}

func extractFile(fs afero.Fs, file *zip.File, destPath string, limit int64) (written int64, err error) {
	rc, err := file.Open()
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}

	out, err := fs.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	written, err = io.CopyN(out, rc, limit+1)
	if err != nil && !errors.Is(err, io.EOF) {
		return written, err
	}
	if written > limit {
		return written, fmt.Errorf("archive exceeds the %d byte extraction limit", maxExtractedSize)
	}
	return written, nil
}
