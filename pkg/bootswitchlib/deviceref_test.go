// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDeviceRefPath(t *testing.T) {
	ref, err := ParseDeviceRef("/dev/sda2")
	assert.NoError(t, err)
	assert.Equal(t, "/dev/sda2", ref.Path)
	assert.Empty(t, ref.Uuid)
}

func TestParseDeviceRefUuid(t *testing.T) {
	ref, err := ParseDeviceRef("UUID=0A1B2C3D-0000-1111-2222-333344445555")
	assert.NoError(t, err)
	assert.Equal(t, "0a1b2c3d-0000-1111-2222-333344445555", ref.Uuid)
	assert.Empty(t, ref.Path)
}

func TestParseDeviceRefInvalidUuid(t *testing.T) {
	_, err := ParseDeviceRef("UUID=not-a-uuid")
	assert.Error(t, err)
}

func TestParseDeviceRefUnrecognized(t *testing.T) {
	_, err := ParseDeviceRef("LABEL=rootfs")
	assert.Error(t, err)
}

func TestReferencePathMode(t *testing.T) {
	ref := DeviceRef{Path: "/dev/sdb1", Uuid: "0a1b2c3d-0000-1111-2222-333344445555"}

	value, err := ref.Reference(false, false)
	assert.NoError(t, err)
	assert.Equal(t, "/dev/sdb1", value)
}

func TestReferenceUuidMode(t *testing.T) {
	ref := DeviceRef{Path: "/dev/sdb1", Uuid: "0a1b2c3d-0000-1111-2222-333344445555"}

	value, err := ref.Reference(true, false)
	assert.NoError(t, err)
	assert.Equal(t, "UUID=0a1b2c3d-0000-1111-2222-333344445555", value)
}

func TestReferenceUuidModeWinsOverSd(t *testing.T) {
	ref := DeviceRef{Path: "/dev/sdb1", Uuid: "0a1b2c3d-0000-1111-2222-333344445555"}

	value, err := ref.Reference(true, true)
	assert.NoError(t, err)
	assert.Equal(t, "UUID=0a1b2c3d-0000-1111-2222-333344445555", value)
}

func TestReferenceUuidModeMissingUuid(t *testing.T) {
	ref := DeviceRef{Path: "/dev/sdb1"}

	_, err := ref.Reference(true, false)
	assert.Error(t, err)
}

func TestReferenceSdMode(t *testing.T) {
	ref := DeviceRef{Path: "/dev/sda12"}

	value, err := ref.Reference(false, true)
	assert.NoError(t, err)
	assert.Equal(t, "/dev/mmcblk0p12", value)
}

func TestReferenceSdModeAlreadySdPath(t *testing.T) {
	ref := DeviceRef{Path: "/dev/mmcblk0p1"}

	value, err := ref.Reference(false, true)
	assert.NoError(t, err)
	assert.Equal(t, "/dev/mmcblk0p1", value)
}

func TestReferenceSdModeUnmappable(t *testing.T) {
	ref := DeviceRef{Path: "/dev/nvme0n1p2"}

	_, err := ref.Reference(false, true)
	assert.Error(t, err)
}

func TestSameDevice(t *testing.T) {
	byUuidA := DeviceRef{Path: "/dev/sda2", Uuid: "0a1b2c3d-0000-1111-2222-333344445555"}
	byUuidB := DeviceRef{Path: "/dev/mmcblk0p2", Uuid: "0a1b2c3d-0000-1111-2222-333344445555"}
	byPath := DeviceRef{Path: "/dev/sda2"}
	other := DeviceRef{Path: "/dev/sdb1", Uuid: "99990000-0000-1111-2222-333344445555"}

	assert.True(t, byUuidA.SameDevice(byUuidB))
	assert.True(t, byUuidA.SameDevice(byPath))
	assert.False(t, byUuidA.SameDevice(other))
	assert.False(t, DeviceRef{}.SameDevice(DeviceRef{}))
}
