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

// SwitchTo makes the target partition the one that boots next: the active
// boot environment is backed up into the current root's mirror, then the
// target's mirror is installed as the active boot environment.
//
// When the target is the current root this degrades to the repair path: the
// active boot files are resynchronized from the current root's own mirror.
// The repair path is idempotent.
func SwitchTo(opts Options) error {
	_, err := ResolveBootDevice()
	if err != nil {
		return err
	}

	currentRoot, err := ResolveCurrentRoot()
	if err != nil {
		return err
	}

	targetRef, err := ResolveTargetDevice(opts.TargetDevice)
	if err != nil {
		return err
	}

	if targetRef.SameDevice(currentRoot) {
		return repairActiveBoot()
	}

	return switchToOther(targetRef, opts)
}

// repairActiveBoot restores the active boot files from the current root's
// own mirror, undoing boot configuration changes made on behalf of another
// partition.
func repairActiveBoot() error {
	mirrorDir := filepath.Join("/", MirrorDirName)

	err := RestoreBootFiles(mirrorDir, BootMountPoint)
	if err != nil {
		return err
	}

	logger.Log.Infof("Restored active boot files from %s", mirrorDir)
	return nil
}

func switchToOther(targetRef DeviceRef, opts Options) error {
	// Preserve the outgoing root's ability to be switched back to.
	err := BackupBootFiles(BootMountPoint, filepath.Join("/", MirrorDirName))
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

	fsType, err := diskutils.GetFileSystemType(targetRef.Path)
	if err != nil {
		return err
	}
	if fsType == "" {
		return preconditionErrorf("target has no filesystem (%s)", targetRef.Path)
	}

	targetMountDir := filepath.Join(opts.WorkDir, targetMountDirName)
	targetMount, err := safemount.NewMount(targetRef.Path, targetMountDir, fsType, 0, "", true)
	if err != nil {
		return toolFailureErrorf(err, "failed to mount target (%s)", targetRef.Path)
	}
	defer targetMount.Close()

	mirrorDir := filepath.Join(targetMountDir, MirrorDirName)

	hasMirror, err := HasBootMirror(targetMountDir)
	if err != nil {
		return err
	}
	if !hasMirror {
		return preconditionErrorf("target has no boot mirror directory (%s), cannot switch to it",
			targetRef.Path)
	}

	// The mirror must hold a usable boot configuration before it is allowed
	// to replace the active one.
	bootConfig, err := ProbeBootConfig(mirrorDir)
	if err != nil {
		return err
	}
	logger.Log.Debugf("Target boot configuration found (%s)", bootConfig.Path())

	err = RestoreBootFiles(mirrorDir, BootMountPoint)
	if err != nil {
		return err
	}

	if opts.SyncHome {
		err = syncHome(targetMountDir)
		if err != nil {
			return err
		}
	}

	err = targetMount.CleanClose()
	if err != nil {
		return toolFailureErrorf(err, "failed to unmount target (%s)", targetRef.Path)
	}

	logger.Log.Infof("Next boot will use %s", targetRef.Path)
	return nil
}

// syncHome one-way syncs /home from the running system onto the target.
func syncHome(targetMountDir string) error {
	dst := filepath.Join(targetMountDir, "home")
	err := shell.ExecuteLive(true /*squashErrors*/, "rsync", "-aAXH", "--delete", "/home/", dst)
	if err != nil {
		return toolFailureErrorf(err, "failed to sync /home onto target")
	}
	return nil
}
