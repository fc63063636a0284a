// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/msruhi/pi-boot-switch/internal/diskutils"
)

func TestConfiguredBootSource(t *testing.T) {
	entries := []diskutils.FstabEntry{
		{Source: "/dev/mmcblk0p2", Target: "/", FsType: "ext4"},
		{Source: "/dev/mmcblk0p1", Target: "/boot", FsType: "vfat"},
	}

	assert.Equal(t, "/dev/mmcblk0p1", configuredBootSource(entries))
}

func TestConfiguredBootSourceMissing(t *testing.T) {
	entries := []diskutils.FstabEntry{
		{Source: "/dev/mmcblk0p2", Target: "/", FsType: "ext4"},
	}

	assert.Equal(t, "(none)", configuredBootSource(entries))
}

func TestRefDisplay(t *testing.T) {
	assert.Equal(t, "/dev/sda2", refDisplay(DeviceRef{Path: "/dev/sda2"}))
	assert.Equal(t, "UUID=0a1b2c3d-0000-1111-2222-333344445555",
		refDisplay(DeviceRef{Uuid: "0a1b2c3d-0000-1111-2222-333344445555"}))
	assert.Equal(t, "(unknown)", refDisplay(DeviceRef{}))
}
