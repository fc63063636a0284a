// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/msruhi/pi-boot-switch/internal/file"
	"github.com/msruhi/pi-boot-switch/internal/logger"
)

const sampleFstab = `# /etc/fstab: static file system information.
proc            /proc           proc    defaults          0       0
/dev/mmcblk0p1  /boot           vfat    defaults          0       2
/dev/mmcblk0p2  /               ext4    defaults,noatime  0       1
/var/swap       none            swap    sw                0       0
`

func TestRewriteMountTable(t *testing.T) {
	fstabPath := filepath.Join(t.TempDir(), "fstab")
	err := file.Write(sampleFstab, fstabPath)
	assert.NoError(t, err)

	err = RewriteMountTable(fstabPath, "/dev/sdb1", "UUID=0a1b2c3d-0000-1111-2222-333344445555")
	assert.NoError(t, err)

	written, err := os.ReadFile(fstabPath)
	assert.NoError(t, err)

	expected := `# /etc/fstab: static file system information.
proc            /proc           proc    defaults          0       0
UUID=0a1b2c3d-0000-1111-2222-333344445555  /boot           vfat    defaults          0       2
/dev/sdb1  /               ext4    defaults,noatime  0       1
/var/swap       none            swap    sw                0       0
`
	assert.Equal(t, expected, string(written))
}

func TestRewriteMountTableRootOnly(t *testing.T) {
	fstabPath := filepath.Join(t.TempDir(), "fstab")
	err := file.Write(sampleFstab, fstabPath)
	assert.NoError(t, err)

	err = RewriteMountTable(fstabPath, "/dev/sdb1", "")
	assert.NoError(t, err)

	written, err := os.ReadFile(fstabPath)
	assert.NoError(t, err)
	assert.Contains(t, string(written), "/dev/sdb1  /               ext4")
	assert.Contains(t, string(written), "/dev/mmcblk0p1  /boot           vfat")
}

func TestRewriteMountTableMissingRootEntry(t *testing.T) {
	fstabPath := filepath.Join(t.TempDir(), "fstab")
	err := file.Write("proc /proc proc defaults 0 0\n", fstabPath)
	assert.NoError(t, err)

	err = RewriteMountTable(fstabPath, "/dev/sdb1", "")
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestRewriteMountTableMissingBootEntryIsTolerated(t *testing.T) {
	hook := logger.NewMemoryLogHook()
	logger.Log.AddHook(hook)

	fstabPath := filepath.Join(t.TempDir(), "fstab")
	content := "/dev/sda2 / ext4 defaults 0 1\n"
	err := file.Write(content, fstabPath)
	assert.NoError(t, err)

	err = RewriteMountTable(fstabPath, "/dev/sdb1", "/dev/sdc1")
	assert.NoError(t, err)

	written, err := os.ReadFile(fstabPath)
	assert.NoError(t, err)
	assert.Equal(t, "/dev/sdb1 / ext4 defaults 0 1\n", string(written))

	warned := false
	for _, message := range hook.ConsumeMessages() {
		if message.Level == logrus.WarnLevel {
			warned = true
		}
	}
	assert.True(t, warned)
}
