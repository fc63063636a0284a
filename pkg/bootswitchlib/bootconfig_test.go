// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/msruhi/pi-boot-switch/internal/file"
)

func TestCmdlineRootValue(t *testing.T) {
	content := "console=serial0,115200 console=tty1 root=/dev/sda2 rootfstype=ext4 fsck.repair=yes rootwait\n"

	value, err := cmdlineFormat{}.RootValue(content)
	assert.NoError(t, err)
	assert.Equal(t, "/dev/sda2", value)
}

func TestCmdlineSetRootValuePreservesOtherTokens(t *testing.T) {
	content := "console=tty1  root=/dev/sda2 rootfstype=ext4 rootwait\n"

	newContent, err := cmdlineFormat{}.SetRootValue(content, "/dev/sdb1")
	assert.NoError(t, err)
	assert.Equal(t, "console=tty1  root=/dev/sdb1 rootfstype=ext4 rootwait\n", newContent)
}

func TestCmdlineSetRootValueUuidReference(t *testing.T) {
	content := "root=/dev/sda2 rootwait"

	newContent, err := cmdlineFormat{}.SetRootValue(content, "UUID=0a1b2c3d-0000-1111-2222-333344445555")
	assert.NoError(t, err)
	assert.Equal(t, "root=UUID=0a1b2c3d-0000-1111-2222-333344445555 rootwait", newContent)
}

func TestCmdlineSetRootValueMissingKey(t *testing.T) {
	_, err := cmdlineFormat{}.SetRootValue("console=tty1 rootwait", "/dev/sdb1")
	assert.Error(t, err)
}

func TestUEnvRootValue(t *testing.T) {
	content := "bootdelay=2\nrootdev=/dev/sda2\nconsole=ttyS0\n"

	value, err := uenvFormat{}.RootValue(content)
	assert.NoError(t, err)
	assert.Equal(t, "/dev/sda2", value)
}

func TestUEnvSetRootValuePreservesOtherLines(t *testing.T) {
	content := "bootdelay=2\nrootdev=/dev/sda2\nconsole=ttyS0\n"

	newContent, err := uenvFormat{}.SetRootValue(content, "UUID=0a1b2c3d-0000-1111-2222-333344445555")
	assert.NoError(t, err)
	assert.Equal(t, "bootdelay=2\nrootdev=UUID=0a1b2c3d-0000-1111-2222-333344445555\nconsole=ttyS0\n", newContent)
}

func TestUEnvSetRootValueKeepsIndentation(t *testing.T) {
	content := "bootdelay=2\n  rootdev=/dev/sda2\nconsole=ttyS0\n"

	newContent, err := uenvFormat{}.SetRootValue(content, "/dev/sdb1")
	assert.NoError(t, err)
	assert.Equal(t, "bootdelay=2\n  rootdev=/dev/sdb1\nconsole=ttyS0\n", newContent)
}

func TestUEnvSetRootValueMissingKey(t *testing.T) {
	_, err := uenvFormat{}.SetRootValue("bootdelay=2\nconsole=ttyS0\n", "/dev/sdb1")
	assert.Error(t, err)
}

func TestProbeBootConfigPrefersCmdline(t *testing.T) {
	bootDir := t.TempDir()
	err := file.Write("root=/dev/sda2\n", filepath.Join(bootDir, CmdlineConfigFileName))
	assert.NoError(t, err)
	err = file.Write("rootdev=/dev/sda3\n", filepath.Join(bootDir, UEnvConfigFileName))
	assert.NoError(t, err)

	bootConfig, err := ProbeBootConfig(bootDir)
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(bootDir, CmdlineConfigFileName), bootConfig.Path())

	ref, err := bootConfig.RootRef()
	assert.NoError(t, err)
	assert.Equal(t, "/dev/sda2", ref.Path)
}

func TestProbeBootConfigUEnvVariant(t *testing.T) {
	bootDir := t.TempDir()
	err := file.Write("rootdev=UUID=0a1b2c3d-0000-1111-2222-333344445555\n", filepath.Join(bootDir, UEnvConfigFileName))
	assert.NoError(t, err)

	bootConfig, err := ProbeBootConfig(bootDir)
	assert.NoError(t, err)

	ref, err := bootConfig.RootRef()
	assert.NoError(t, err)
	assert.Equal(t, "0a1b2c3d-0000-1111-2222-333344445555", ref.Uuid)
}

func TestProbeBootConfigMissing(t *testing.T) {
	_, err := ProbeBootConfig(t.TempDir())
	assert.ErrorIs(t, err, ErrNoBootConfig)
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestBootConfigSetRootRefRoundTrip(t *testing.T) {
	bootDir := t.TempDir()
	path := filepath.Join(bootDir, CmdlineConfigFileName)
	err := file.Write("console=tty1 root=/dev/sda2 rootwait\n", path)
	assert.NoError(t, err)

	bootConfig, err := ProbeBootConfig(bootDir)
	assert.NoError(t, err)

	err = bootConfig.SetRootRef(DeviceRef{Path: "/dev/sdb1"}, false, false)
	assert.NoError(t, err)

	err = bootConfig.WriteToFile("")
	assert.NoError(t, err)

	written, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "console=tty1 root=/dev/sdb1 rootwait\n", string(written))
}

func TestBootConfigSetRootRefSdMapping(t *testing.T) {
	bootDir := t.TempDir()
	err := file.Write("root=/dev/sda2 rootwait\n", filepath.Join(bootDir, CmdlineConfigFileName))
	assert.NoError(t, err)

	bootConfig, err := ProbeBootConfig(bootDir)
	assert.NoError(t, err)

	err = bootConfig.SetRootRef(DeviceRef{Path: "/dev/sdb3"}, false, true)
	assert.NoError(t, err)

	ref, err := bootConfig.RootRef()
	assert.NoError(t, err)
	assert.Equal(t, "/dev/mmcblk0p3", ref.Path)
}
