// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/msruhi/pi-boot-switch/internal/diskutils"
	"github.com/msruhi/pi-boot-switch/internal/file"
	"github.com/msruhi/pi-boot-switch/internal/logger"
	"github.com/msruhi/pi-boot-switch/internal/osinfo"
	"github.com/msruhi/pi-boot-switch/internal/safemount"
	"github.com/msruhi/pi-boot-switch/internal/shell"
	"github.com/msruhi/pi-boot-switch/internal/sliceutils"
)

// CopySource describes where a clone operation reads from.
type CopySource struct {
	// RootDir is the mounted source root tree. "/" when cloning the running
	// system.
	RootDir string

	// BootDir is the active boot directory to mirror onto the target. Empty
	// when the source tree already carries its own boot mirror (cloning
	// another already-cloned partition), in which case the mirror arrives
	// with the bulk copy.
	BootDir string

	// DevicePath is the partition backing RootDir, when there is one. Empty
	// for loop-mounted image sources.
	DevicePath string
}

// CopyRoot clones a source root tree onto a target partition: optional
// format, bulk copy, mount table and boot mirror rewrite, label and
// description inheritance.
//
// Each step is a commit point. A failure aborts without rolling back earlier
// steps; only mounts made by this invocation are cleaned up.
func CopyRoot(source CopySource, opts Options) error {
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

	if source.DevicePath != "" && source.DevicePath == targetRef.Path {
		return ErrSourceIsTarget
	}

	// The description store lives on the running system's boot medium, which
	// must therefore be mounted for every clone.
	currentBoot, err := ResolveBootDevice()
	if err != nil {
		return err
	}

	if opts.Format {
		err = diskutils.FormatPartition(rootFsType, targetRef.Path)
		if err != nil {
			return toolFailureErrorf(err, "failed to format target (%s)", targetRef.Path)
		}
		// Formatting assigns a fresh UUID.
		targetRef, err = completeDeviceRef(DeviceRef{Path: targetRef.Path})
		if err != nil {
			return err
		}
	} else {
		logger.Log.Warnf("Not formatting target (%s), copying onto the existing filesystem", targetRef.Path)
	}

	fsType, err := diskutils.GetFileSystemType(targetRef.Path)
	if err != nil {
		return err
	}
	if fsType == "" {
		return preconditionErrorf("target has no filesystem (%s), run with format enabled", targetRef.Path)
	}

	targetMountDir := filepath.Join(opts.WorkDir, targetMountDirName)
	targetMount, err := safemount.NewMount(targetRef.Path, targetMountDir, fsType, 0, "", true)
	if err != nil {
		return toolFailureErrorf(err, "failed to mount target (%s)", targetRef.Path)
	}
	defer targetMount.Close()

	err = copyRootTree(source.RootDir, targetMountDir, opts.KeepHome)
	if err != nil {
		return err
	}

	err = copySwapFile(source.RootDir, targetMountDir)
	if err != nil {
		return err
	}

	err = rewriteTargetMountTable(targetMountDir, targetRef, currentBoot, opts)
	if err != nil {
		return err
	}

	targetMirrorDir := filepath.Join(targetMountDir, MirrorDirName)
	if source.BootDir != "" {
		err = BackupBootFiles(source.BootDir, targetMirrorDir)
		if err != nil {
			return err
		}
	}

	err = rewriteMirrorBootConfig(targetMirrorDir, targetRef, opts)
	if err != nil {
		return err
	}

	label, description, err := inheritLabelAndDescription(source, opts)
	if err != nil {
		return err
	}

	err = diskutils.SetPartitionLabel(label, targetRef.Path, fsType)
	if err != nil {
		return toolFailureErrorf(err, "failed to label target (%s)", targetRef.Path)
	}

	err = recordDescription(targetRef.Path, targetMirrorDir, description)
	if err != nil {
		return err
	}

	err = targetMount.CleanClose()
	if err != nil {
		return toolFailureErrorf(err, "failed to unmount target (%s)", targetRef.Path)
	}

	logger.Log.Infof("Copied %s to %s (label %q)", source.RootDir, targetRef.Path, label)
	return nil
}

// copyRootTree bulk-copies a root tree, excluding transient state and the
// swap file. Kernel virtual filesystems and foreign mounts are excluded so a
// clone of the live "/" copies only the root filesystem itself.
func copyRootTree(srcRoot string, dstRoot string, keepHome bool) error {
	args := buildRootCopyArgs(srcRoot, dstRoot, keepHome)
	err := shell.ExecuteLive(true /*squashErrors*/, "rsync", args...)
	if err != nil {
		return toolFailureErrorf(err, "failed to copy root tree (%s -> %s)", srcRoot, dstRoot)
	}
	return nil
}

func buildRootCopyArgs(srcRoot string, dstRoot string, keepHome bool) []string {
	args := []string{
		"-aAXH", "--delete",
		"--exclude", "/tmp/*",
		"--exclude", "/var/tmp/*",
		"--exclude", "/run/*",
		"--exclude", "/proc/*",
		"--exclude", "/sys/*",
		"--exclude", "/dev/*",
		"--exclude", "/mnt/*",
		"--exclude", "/media/*",
		"--exclude", "/lost+found",
		"--exclude", "/" + swapFileRelPath,
	}
	if keepHome {
		args = append(args,
			"--exclude", "/home/*",
			"--filter", "protect /home/*")
	}
	args = append(args, filepath.Clean(srcRoot)+"/", dstRoot)
	return args
}

// copySwapFile copies the swap file sparsely, as a separate step. Ordinary
// attribute-preserving copy fills in the holes and corrupts swap signatures.
func copySwapFile(srcRoot string, dstRoot string) error {
	srcSwap := filepath.Join(srcRoot, swapFileRelPath)

	exists, err := file.PathExists(srcSwap)
	if err != nil {
		return fmt.Errorf("failed to probe swap file (%s):\n%w", srcSwap, err)
	}
	if !exists {
		return nil
	}

	dstSwap := filepath.Join(dstRoot, swapFileRelPath)
	err = os.MkdirAll(filepath.Dir(dstSwap), os.ModePerm)
	if err != nil {
		return fmt.Errorf("failed to create swap file directory:\n%w", err)
	}

	err = shell.ExecuteLive(true /*squashErrors*/, "cp", "--sparse=always", srcSwap, dstSwap)
	if err != nil {
		return toolFailureErrorf(err, "failed to copy swap file (%s)", srcSwap)
	}
	return nil
}

// rewriteTargetMountTable points the target's fstab / entry at the target
// itself and its /boot entry at whichever medium currently serves /boot,
// both rendered in the requested addressing mode.
func rewriteTargetMountTable(targetMountDir string, targetRef DeviceRef, currentBoot DeviceRef,
	opts Options,
) error {
	rootRef, err := targetRef.Reference(opts.UseUuid, opts.SdTarget)
	if err != nil {
		return err
	}

	bootRef, err := currentBoot.Reference(opts.UseUuid, opts.SdTarget)
	if err != nil {
		return err
	}

	fstabPath := filepath.Join(targetMountDir, "etc/fstab")
	return RewriteMountTable(fstabPath, rootRef, bootRef)
}

// rewriteMirrorBootConfig points the target's private boot mirror at the
// target root, so switching to the target later boots the target.
func rewriteMirrorBootConfig(mirrorDir string, targetRef DeviceRef, opts Options) error {
	exists, err := file.DirExists(mirrorDir)
	if err != nil {
		return fmt.Errorf("failed to probe boot mirror (%s):\n%w", mirrorDir, err)
	}
	if !exists {
		logger.Log.Warnf("Target has no boot mirror directory (%s), it will not be switchable until one is created", mirrorDir)
		return nil
	}

	bootConfig, err := ProbeBootConfig(mirrorDir)
	if err != nil {
		if errors.Is(err, ErrNoBootConfig) {
			logger.Log.Warnf("Target boot mirror has no recognized boot configuration (%s)", mirrorDir)
			return nil
		}
		return err
	}

	err = bootConfig.SetRootRef(targetRef, opts.UseUuid, opts.SdTarget)
	if err != nil {
		return err
	}
	return bootConfig.WriteToFile("")
}

// inheritLabelAndDescription resolves the target's label and description:
// explicit options win, then the source partition's recorded values, then a
// label derived from the source's OS identity.
func inheritLabelAndDescription(source CopySource, opts Options) (string, string, error) {
	label := opts.Label
	if label == "" && source.DevicePath != "" {
		sourceLabel, err := partitionLabel(source.DevicePath)
		if err != nil {
			return "", "", err
		}
		label = sourceLabel
	}
	if label == "" {
		id, version, err := osinfo.GetDistroIdAndVersion(source.RootDir)
		if err != nil {
			logger.Log.Debugf("Failed to read source OS identity: %v", err)
		}
		label = fmt.Sprintf("%s %s", id, version)
	}

	description := opts.Description
	if description == "" {
		inherited, found, err := inheritedDescription(source)
		if err != nil {
			return "", "", err
		}
		if found {
			// An empty recorded description is a valid value and is
			// inherited as such.
			description = inherited
		} else {
			description = label
		}
	}

	return label, description, nil
}

func partitionLabel(devicePath string) (string, error) {
	partitions, err := diskutils.GetSystemPartitions()
	if err != nil {
		return "", err
	}

	partition, found := sliceutils.FindValueFunc(partitions, func(p diskutils.PartitionInfo) bool {
		return p.Path == devicePath
	})
	if !found {
		return "", nil
	}
	return partition.Label, nil
}

// inheritedDescription looks up the source's description: the shared store
// first, then the source tree's own portable copy.
func inheritedDescription(source CopySource) (string, bool, error) {
	if source.DevicePath != "" {
		store, err := LoadDescriptionStore(BootMountPoint)
		if err != nil {
			return "", false, err
		}
		if text, ok := store.Get(source.DevicePath); ok {
			return text, true, nil
		}
	}

	markerPath := filepath.Join(source.RootDir, MirrorDirName, SelfDescriptionFileName)
	exists, err := file.PathExists(markerPath)
	if err != nil {
		return "", false, err
	}
	if !exists {
		return "", false, nil
	}

	text, err := ReadSelfDescription(filepath.Join(source.RootDir, MirrorDirName))
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// recordDescription persists the target's description in the shared store
// and as a portable copy inside the target's own mirror directory.
func recordDescription(targetDevice string, targetMirrorDir string, description string) error {
	store, err := LoadDescriptionStore(BootMountPoint)
	if err != nil {
		return err
	}
	store.Set(targetDevice, description)
	err = store.Save()
	if err != nil {
		return err
	}

	exists, err := file.DirExists(targetMirrorDir)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	return WriteSelfDescription(targetMirrorDir, description)
}
