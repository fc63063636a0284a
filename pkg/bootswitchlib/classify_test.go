// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPartition(t *testing.T) {
	currentRoot := DeviceRef{Path: "/dev/sda2", Uuid: "0a1b2c3d-0000-1111-2222-333344445555"}
	nextRoot := DeviceRef{Path: "/dev/sdb1"}
	bootSource := DeviceRef{Path: "/dev/mmcblk0p1"}

	assert.Equal(t, RoleCurrentRoot,
		ClassifyPartition(DeviceRef{Path: "/dev/sda2"}, currentRoot, nextRoot, bootSource))
	assert.Equal(t, RoleNextRoot,
		ClassifyPartition(DeviceRef{Path: "/dev/sdb1"}, currentRoot, nextRoot, bootSource))
	assert.Equal(t, RoleBootSource,
		ClassifyPartition(DeviceRef{Path: "/dev/mmcblk0p1"}, currentRoot, nextRoot, bootSource))
	assert.Equal(t, RoleUnassigned,
		ClassifyPartition(DeviceRef{Path: "/dev/sdc1"}, currentRoot, nextRoot, bootSource))
}

func TestClassifyPartitionCurrentRootWinsOverNextRoot(t *testing.T) {
	// After the repair path, the boot config points back at the current root.
	currentRoot := DeviceRef{Path: "/dev/sda2"}
	nextRoot := DeviceRef{Path: "/dev/sda2"}

	role := ClassifyPartition(DeviceRef{Path: "/dev/sda2"}, currentRoot, nextRoot, DeviceRef{Path: "/dev/sda1"})
	assert.Equal(t, RoleCurrentRoot, role)
}

func TestClassifyPartitionMatchesByUuid(t *testing.T) {
	currentRoot := DeviceRef{Path: "/dev/sda2", Uuid: "0a1b2c3d-0000-1111-2222-333344445555"}
	probe := DeviceRef{Path: "/dev/mmcblk0p2", Uuid: "0a1b2c3d-0000-1111-2222-333344445555"}

	role := ClassifyPartition(probe, currentRoot, DeviceRef{}, DeviceRef{})
	assert.Equal(t, RoleCurrentRoot, role)
}
