// SPDX-License-Identifier: MPL-2.0

package install

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"
)

// Reset removes dir and everything below it, then recreates it empty.
func Reset(fsys afero.Fs, dir string) error {
	if err := fsys.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove install directory: %w", err)
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create install directory: %w", err)
	}
	return nil
}

// Relocate moves every file below installDir/wrapper up to the same relative
// path under installDir, skipping files whose base name is in skip, then
// removes the wrapper directory. Directories below the wrapper are recreated
// under installDir, empty ones included. A missing wrapper directory is not
// an error. It returns the number of files moved.
func Relocate(fsys afero.Fs, installDir, wrapper string, skip []string) (int, error) {
	wrapperDir := filepath.Join(installDir, wrapper)

	ok, err := afero.DirExists(fsys, wrapperDir)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}

	var dirs, files []string
	walkErr := afero.Walk(fsys, wrapperDir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != wrapperDir {
				dirs = append(dirs, path)
			}
			return nil
		}
		if slices.Contains(skip, info.Name()) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if walkErr != nil {
		return 0, fmt.Errorf("scan %s: %w", wrapperDir, walkErr)
	}

	for _, src := range dirs {
		rel, relErr := filepath.Rel(wrapperDir, src)
		if relErr != nil {
			return 0, relErr
		}
		dst := filepath.Join(installDir, rel)
		if mkdirErr := fsys.MkdirAll(dst, 0o755); mkdirErr != nil {
			return 0, fmt.Errorf("create %s: %w", dst, mkdirErr)
		}
	}

	moved := 0
	for _, src := range files {
		rel, relErr := filepath.Rel(wrapperDir, src)
		if relErr != nil {
			return moved, relErr
		}
		dst := filepath.Join(installDir, rel)

		if mkdirErr := fsys.MkdirAll(filepath.Dir(dst), 0o755); mkdirErr != nil {
			return moved, fmt.Errorf("create %s: %w", filepath.Dir(dst), mkdirErr)
		}
		if rmErr := fsys.Remove(dst); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return moved, fmt.Errorf("replace %s: %w", dst, rmErr)
		}
		if mvErr := fsys.Rename(src, dst); mvErr != nil {
			return moved, fmt.Errorf("move %s: %w", rel, mvErr)
		}
		moved++
	}

	if err := fsys.RemoveAll(wrapperDir); err != nil {
		return moved, fmt.Errorf("remove %s: %w", wrapperDir, err)
	}
	return moved, nil
}

// WriteAuxConfig writes content to path, creating parent directories.
func WriteAuxConfig(fsys afero.Fs, path string, content []byte) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := afero.WriteFile(fsys, path, content, 0o644); err != nil {
		return fmt.Errorf("write aux config: %w", err)
	}
	return nil
}

// RemoveArchive deletes the downloaded archive. A missing file is not an error.
func RemoveArchive(fsys afero.Fs, path string) error {
	if err := fsys.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove archive: %w", err)
	}
	return nil
}
