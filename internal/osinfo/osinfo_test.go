// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package osinfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetDistroIdAndVersion(t *testing.T) {
	rootDir := t.TempDir()
	etcDir := filepath.Join(rootDir, "etc")
	err := os.MkdirAll(etcDir, os.ModePerm)
	assert.NoError(t, err)

	osRelease := `PRETTY_NAME="Raspbian GNU/Linux 11 (bullseye)"
NAME="Raspbian GNU/Linux"
VERSION_ID="11"
VERSION="11 (bullseye)"
ID=raspbian
ID_LIKE=debian
`
	err = os.WriteFile(filepath.Join(etcDir, "os-release"), []byte(osRelease), 0o644)
	assert.NoError(t, err)

	id, version, err := GetDistroIdAndVersion(rootDir)
	assert.NoError(t, err)
	assert.Equal(t, "raspbian", id)
	assert.Equal(t, "11", version)
}

func TestGetDistroIdAndVersionMissingFile(t *testing.T) {
	_, _, err := GetDistroIdAndVersion(t.TempDir())
	assert.Error(t, err)
}
