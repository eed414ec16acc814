// SPDX-License-Identifier: MPL-2.0

//go:build windows

package gamedir

import (
	"path/filepath"
	"slices"

	"golang.org/x/sys/windows/registry"
)

type registryValue struct {
	root  registry.Key
	path  string
	value string
}

var steamRegistryValues = []registryValue{
	{registry.CURRENT_USER, `Software\Valve\Steam`, "SteamPath"},
	{registry.LOCAL_MACHINE, `SOFTWARE\WOW6432Node\Valve\Steam`, "InstallPath"},
	{registry.LOCAL_MACHINE, `SOFTWARE\Valve\Steam`, "InstallPath"},
}

// defaultSteamRoots reads the Steam installation directory from the registry.
// Missing keys are skipped.
func defaultSteamRoots() []string {
	var roots []string
	for _, rv := range steamRegistryValues {
		dir, err := readRegistryString(rv)
		if err != nil || dir == "" {
			continue
		}
		dir = filepath.Clean(dir)
		if !slices.Contains(roots, dir) {
			roots = append(roots, dir)
		}
	}
	return roots
}

func readRegistryString(rv registryValue) (string, error) {
	key, err := registry.OpenKey(rv.root, rv.path, registry.QUERY_VALUE)
	if err != nil {
		return "", err
	}
	defer key.Close()

	v, _, err := key.GetStringValue(rv.value)
	return v, err
}
