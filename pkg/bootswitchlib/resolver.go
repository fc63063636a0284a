// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

import (
	"fmt"

	"github.com/moby/sys/mountinfo"

	"github.com/msruhi/pi-boot-switch/internal/diskutils"
	"github.com/msruhi/pi-boot-switch/internal/sliceutils"
)

// ResolveMountSource returns the device backing a mount point.
func ResolveMountSource(mountPoint string) (string, error) {
	mounts, err := mountinfo.GetMounts(mountinfo.SingleEntryFilter(mountPoint))
	if err != nil {
		return "", fmt.Errorf("failed to query mounts for (%s):\n%w", mountPoint, err)
	}
	if len(mounts) < 1 {
		return "", NewBootSwitchError(ErrPrecondition,
			fmt.Sprintf("mount point is not mounted (%s)", mountPoint))
	}
	return mounts[0].Source, nil
}

// ResolveCurrentRoot returns the partition the running system booted from,
// with its UUID filled in when discoverable.
func ResolveCurrentRoot() (DeviceRef, error) {
	source, err := ResolveMountSource("/")
	if err != nil {
		return DeviceRef{}, err
	}
	return completeDeviceRef(DeviceRef{Path: source})
}

// ResolveBootDevice returns the partition mounted as the boot medium.
func ResolveBootDevice() (DeviceRef, error) {
	source, err := ResolveMountSource(BootMountPoint)
	if err != nil {
		return DeviceRef{}, ErrMissingBootMount
	}
	return completeDeviceRef(DeviceRef{Path: source})
}

// ResolveNextRoot returns the partition the boot configuration will boot
// next, resolving UUID references to device paths when possible.
func ResolveNextRoot(bootDir string) (DeviceRef, error) {
	bootConfig, err := ProbeBootConfig(bootDir)
	if err != nil {
		return DeviceRef{}, err
	}

	ref, err := bootConfig.RootRef()
	if err != nil {
		return DeviceRef{}, err
	}
	return completeDeviceRef(ref)
}

// completeDeviceRef fills in the missing half of a ref, resolving path to
// UUID or UUID to path by scanning the system's partitions. A ref that
// cannot be completed is returned as-is; the addressing mode checks catch
// unusable refs later.
func completeDeviceRef(ref DeviceRef) (DeviceRef, error) {
	if ref.Path != "" && ref.Uuid == "" {
		uuid, err := diskutils.GetPartitionUuid(ref.Path)
		if err == nil {
			ref.Uuid = uuid
		}
		return ref, nil
	}

	if ref.Uuid != "" && ref.Path == "" {
		partitions, err := diskutils.GetSystemPartitions()
		if err != nil {
			return ref, fmt.Errorf("failed to scan partitions:\n%w", err)
		}

		partition, found := sliceutils.FindValueFunc(partitions, func(p diskutils.PartitionInfo) bool {
			return p.Uuid == ref.Uuid
		})
		if found {
			ref.Path = partition.Path
		}
	}

	return ref, nil
}

// ResolveTargetDevice validates a target device argument and returns a
// completed ref for it.
func ResolveTargetDevice(devicePath string) (DeviceRef, error) {
	isBlock, err := diskutils.IsBlockDevice(devicePath)
	if err != nil {
		return DeviceRef{}, fmt.Errorf("failed to stat target device (%s):\n%w", devicePath, err)
	}
	if !isBlock {
		return DeviceRef{}, preconditionErrorf("target is not a block device (%s)", devicePath)
	}

	return completeDeviceRef(DeviceRef{Path: devicePath})
}

// IsDeviceMounted reports whether any mount point is backed by the device.
func IsDeviceMounted(devicePath string) (bool, error) {
	mounts, err := mountinfo.GetMounts(nil)
	if err != nil {
		return false, fmt.Errorf("failed to query mounts:\n%w", err)
	}
	for _, mount := range mounts {
		if mount.Source == devicePath {
			return true, nil
		}
	}
	return false, nil
}
