// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/msruhi/pi-boot-switch/internal/file"
	"github.com/msruhi/pi-boot-switch/internal/logger"
)

func TestMain(m *testing.M) {
	logger.InitStderr()
	os.Exit(m.Run())
}

func skipWithoutRsync(t *testing.T) {
	_, err := exec.LookPath("rsync")
	if err != nil {
		t.Skip("rsync is not installed")
	}
}

func TestBackupBootFiles(t *testing.T) {
	skipWithoutRsync(t)

	bootDir := t.TempDir()
	mirrorDir := filepath.Join(t.TempDir(), MirrorDirName)

	err := file.Write("root=/dev/sda2\n", filepath.Join(bootDir, CmdlineConfigFileName))
	assert.NoError(t, err)
	err = file.Write("/dev/sda2: workstation\n", filepath.Join(bootDir, DescriptionStoreFileName))
	assert.NoError(t, err)

	err = BackupBootFiles(bootDir, mirrorDir)
	assert.NoError(t, err)

	exists, err := file.PathExists(filepath.Join(mirrorDir, CmdlineConfigFileName))
	assert.NoError(t, err)
	assert.True(t, exists)

	// The shared description store stays on the boot medium.
	exists, err = file.PathExists(filepath.Join(mirrorDir, DescriptionStoreFileName))
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestRestoreBootFilesProtectsDescriptionStore(t *testing.T) {
	skipWithoutRsync(t)

	mirrorDir := t.TempDir()
	bootDir := t.TempDir()

	err := file.Write("root=/dev/sdb1\n", filepath.Join(mirrorDir, CmdlineConfigFileName))
	assert.NoError(t, err)

	err = file.Write("root=/dev/sda2\n", filepath.Join(bootDir, CmdlineConfigFileName))
	assert.NoError(t, err)
	err = file.Write("stale-kernel.img", filepath.Join(bootDir, "kernel-old.img"))
	assert.NoError(t, err)
	err = file.Write("/dev/sda2: workstation\n", filepath.Join(bootDir, DescriptionStoreFileName))
	assert.NoError(t, err)

	err = RestoreBootFiles(mirrorDir, bootDir)
	assert.NoError(t, err)

	content, err := file.Read(filepath.Join(bootDir, CmdlineConfigFileName))
	assert.NoError(t, err)
	assert.Equal(t, "root=/dev/sdb1\n", content)

	// Stale boot files are deleted, the description store is not.
	exists, err := file.PathExists(filepath.Join(bootDir, "kernel-old.img"))
	assert.NoError(t, err)
	assert.False(t, exists)

	content, err = file.Read(filepath.Join(bootDir, DescriptionStoreFileName))
	assert.NoError(t, err)
	assert.Equal(t, "/dev/sda2: workstation\n", content)
}

func TestRestoreBootFilesMissingMirror(t *testing.T) {
	err := RestoreBootFiles(filepath.Join(t.TempDir(), MirrorDirName), t.TempDir())
	assert.ErrorIs(t, err, ErrMissingMirror)
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestRestoreBootFilesIdempotent(t *testing.T) {
	skipWithoutRsync(t)

	mirrorDir := t.TempDir()
	bootDir := t.TempDir()

	err := file.Write("root=/dev/sdb1\n", filepath.Join(mirrorDir, CmdlineConfigFileName))
	assert.NoError(t, err)

	err = RestoreBootFiles(mirrorDir, bootDir)
	assert.NoError(t, err)
	err = RestoreBootFiles(mirrorDir, bootDir)
	assert.NoError(t, err)

	content, err := file.Read(filepath.Join(bootDir, CmdlineConfigFileName))
	assert.NoError(t, err)
	assert.Equal(t, "root=/dev/sdb1\n", content)
}
