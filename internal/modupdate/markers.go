// SPDX-License-Identifier: MPL-2.0

package modupdate

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	// VersionFile is the version file shipped inside the package.
	VersionFile = "version.txt"
	// MarkerFile is written to the game directory after a verified install.
	MarkerFile = ".divineui-version"
)

// ReadLocalVersion returns the installed version: the first line of
// <installDir>/version.txt, or the updater's marker in gameDir when the
// package file is missing. An empty string means nothing is installed.
func ReadLocalVersion(fs afero.Fs, installDir, gameDir string) (string, error) {
	for _, path := range []string{
		filepath.Join(installDir, VersionFile),
		filepath.Join(gameDir, MarkerFile),
	} {
		v, err := readFirstLine(fs, path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		if v != "" {
			return v, nil
		}
	}
	return "", nil
}

// WriteMarker records version as the verified installed version.
func WriteMarker(fs afero.Fs, gameDir, version string) error {
	path := filepath.Join(gameDir, MarkerFile)
	if err := afero.WriteFile(fs, path, []byte(version+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing version marker: %w", err)
	}
	return nil
}

func readFirstLine(fs afero.Fs, path string) (string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	sc := bufio.NewScanner(bytes.NewReader(data))
	if sc.Scan() {
		return strings.TrimSpace(sc.Text()), nil
	}
	return "", sc.Err()
}
