// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

import (
	"path/filepath"

	"github.com/msruhi/pi-boot-switch/internal/diskutils"
	"github.com/msruhi/pi-boot-switch/internal/logger"
	"github.com/msruhi/pi-boot-switch/internal/safemount"
	"github.com/msruhi/pi-boot-switch/internal/shell"
)

// PromoteSharedBoot turns the target partition into a boot partition shared
// by every multiboot member: the active boot contents are copied onto it,
// and the fstab of every labeled member partition is rewritten to mount
// /boot from the new device. This converts the set from per-partition boot
// mirrors to one shared physical boot partition.
func PromoteSharedBoot(opts Options) error {
	targetRef, err := ResolveTargetDevice(opts.TargetDevice)
	if err != nil {
		return err
	}

	mounted, err := IsDeviceMounted(targetRef.Path)
	if err != nil {
		return err
	}
	if mounted {
		return preconditionErrorf("target device is currently mounted (%s)", targetRef.Path)
	}

	currentRoot, err := ResolveCurrentRoot()
	if err != nil {
		return err
	}
	if targetRef.SameDevice(currentRoot) {
		return preconditionErrorf("cannot promote the current root (%s) to a boot partition", targetRef.Path)
	}

	if opts.Format {
		err = diskutils.FormatPartition(bootFsType, targetRef.Path)
		if err != nil {
			return toolFailureErrorf(err, "failed to format new boot partition (%s)", targetRef.Path)
		}
		targetRef, err = completeDeviceRef(DeviceRef{Path: targetRef.Path})
		if err != nil {
			return err
		}
	}

	fsType, err := diskutils.GetFileSystemType(targetRef.Path)
	if err != nil {
		return err
	}
	if fsType == "" {
		return preconditionErrorf("target has no filesystem (%s), run with format enabled", targetRef.Path)
	}

	newBootMountDir := filepath.Join(opts.WorkDir, bootMountDirName)
	newBootMount, err := safemount.NewMount(targetRef.Path, newBootMountDir, fsType, 0, "", true)
	if err != nil {
		return toolFailureErrorf(err, "failed to mount new boot partition (%s)", targetRef.Path)
	}
	defer newBootMount.Close()

	// The new shared boot gets everything, the description store included.
	err = shell.ExecuteLive(true /*squashErrors*/, "rsync", "-a", "--delete",
		BootMountPoint+"/", newBootMountDir)
	if err != nil {
		return toolFailureErrorf(err, "failed to copy boot contents to new boot partition")
	}

	label := opts.Label
	if label == "" {
		label = "boot"
	}
	err = diskutils.SetPartitionLabel(label, targetRef.Path, fsType)
	if err != nil {
		return toolFailureErrorf(err, "failed to label new boot partition (%s)", targetRef.Path)
	}

	err = newBootMount.CleanClose()
	if err != nil {
		return toolFailureErrorf(err, "failed to unmount new boot partition (%s)", targetRef.Path)
	}

	newBootRef, err := targetRef.Reference(opts.UseUuid, opts.SdTarget)
	if err != nil {
		return err
	}

	// The running system's own fstab first, then every other member.
	err = RewriteMountTable("/etc/fstab", "", newBootRef)
	if err != nil {
		return err
	}

	return repointMembersAtSharedBoot(newBootRef, currentRoot, targetRef, opts)
}

// repointMembersAtSharedBoot rewrites the fstab /boot entry of every labeled
// partition that carries a boot mirror, except the current root and the new
// boot partition itself. Members that cannot be mounted are skipped with a
// warning rather than aborting the fleet-wide rewrite partway.
func repointMembersAtSharedBoot(newBootRef string, currentRoot DeviceRef, newBoot DeviceRef,
	opts Options,
) error {
	partitions, err := diskutils.GetSystemPartitions()
	if err != nil {
		return err
	}

	memberMountDir := filepath.Join(opts.WorkDir, targetMountDirName)

	for _, partition := range partitions {
		if partition.Label == "" || partition.FileSystemType == "" {
			continue
		}
		ref := DeviceRef{Path: partition.Path, Uuid: partition.Uuid}
		if ref.SameDevice(currentRoot) || ref.SameDevice(newBoot) {
			continue
		}
		if partition.Mountpoint != "" {
			continue
		}

		err = repointMember(partition, memberMountDir, newBootRef)
		if err != nil {
			logger.Log.Warnf("Skipping partition (%s): %v", partition.Path, err)
		}
	}

	return nil
}

func repointMember(partition diskutils.PartitionInfo, mountDir string, newBootRef string) error {
	memberMount, err := safemount.NewMount(partition.Path, mountDir, partition.FileSystemType,
		0, "", true)
	if err != nil {
		return err
	}
	defer memberMount.Close()

	hasMirror, err := HasBootMirror(mountDir)
	if err != nil {
		return err
	}
	if !hasMirror {
		// Not a multiboot member, leave it alone.
		return memberMount.CleanClose()
	}

	err = RewriteMountTable(filepath.Join(mountDir, "etc/fstab"), "", newBootRef)
	if err != nil {
		return err
	}

	logger.Log.Infof("Repointed %s at shared boot partition %s", partition.Path, newBootRef)
	return memberMount.CleanClose()
}
