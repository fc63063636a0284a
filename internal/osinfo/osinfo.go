// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

// Package osinfo reads OS identity metadata from a root filesystem tree.
package osinfo

import (
	"fmt"
	"path/filepath"

	"gopkg.in/ini.v1"
)

const osReleasePath = "etc/os-release"

// GetDistroIdAndVersion reads the ID and VERSION_ID fields from the
// os-release file inside the given root tree. Missing fields yield empty
// strings.
func GetDistroIdAndVersion(rootDir string) (string, string, error) {
	path := filepath.Join(rootDir, osReleasePath)

	// os-release is a flat shell-style key=value file, which the ini parser
	// handles as the unnamed default section.
	osRelease, err := ini.Load(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read os-release file (%s):\n%w", path, err)
	}

	section := osRelease.Section("")
	id := section.Key("ID").String()
	version := section.Key("VERSION_ID").String()
	return id, version, nil
}
