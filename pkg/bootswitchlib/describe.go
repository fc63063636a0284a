// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

import (
	"path/filepath"

	"github.com/msruhi/pi-boot-switch/internal/diskutils"
	"github.com/msruhi/pi-boot-switch/internal/file"
	"github.com/msruhi/pi-boot-switch/internal/logger"
	"github.com/msruhi/pi-boot-switch/internal/safemount"
)

// SetDescription records a description for the target partition in the
// shared store and as a portable copy inside the partition's own mirror
// directory. For the currently booted partition the portable copy lands in
// /_boot directly; other partitions are mounted briefly to place it.
func SetDescription(opts Options) error {
	targetRef, err := ResolveTargetDevice(opts.TargetDevice)
	if err != nil {
		return err
	}

	currentRoot, err := ResolveCurrentRoot()
	if err != nil {
		return err
	}

	store, err := LoadDescriptionStore(BootMountPoint)
	if err != nil {
		return err
	}
	store.Set(targetRef.Path, opts.Description)
	err = store.Save()
	if err != nil {
		return err
	}

	if targetRef.SameDevice(currentRoot) {
		hasMirror, err := HasBootMirror("/")
		if err != nil {
			return err
		}
		if !hasMirror {
			logger.Log.Warnf("No boot mirror directory on the current root, skipping the portable description copy")
			return nil
		}

		mirrorDir := filepath.Join("/", MirrorDirName)
		err = WriteSelfDescription(mirrorDir, opts.Description)
		if err != nil {
			return err
		}

		// The current root's description also lives on the active boot medium
		// so it survives the partition being physically moved.
		return file.NewFileCopyBuilder(
			filepath.Join(mirrorDir, SelfDescriptionFileName),
			filepath.Join(BootMountPoint, SelfDescriptionFileName)).Run()
	}

	mounted, err := IsDeviceMounted(targetRef.Path)
	if err != nil {
		return err
	}
	if mounted {
		logger.Log.Warnf("Target (%s) is mounted elsewhere, only the shared store was updated", targetRef.Path)
		return nil
	}

	fsType, err := diskutils.GetFileSystemType(targetRef.Path)
	if err != nil {
		return err
	}
	if fsType == "" {
		return preconditionErrorf("target has no filesystem (%s)", targetRef.Path)
	}

	mountDir := filepath.Join(opts.WorkDir, targetMountDirName)
	targetMount, err := safemount.NewMount(targetRef.Path, mountDir, fsType, 0, "", true)
	if err != nil {
		return toolFailureErrorf(err, "failed to mount target (%s)", targetRef.Path)
	}
	defer targetMount.Close()

	err = writePortableDescription(filepath.Join(mountDir, MirrorDirName), opts.Description)
	if err != nil {
		return err
	}

	return targetMount.CleanClose()
}

func writePortableDescription(mirrorDir string, text string) error {
	hasMirror, err := HasBootMirror(filepath.Dir(mirrorDir))
	if err != nil {
		return err
	}
	if !hasMirror {
		logger.Log.Warnf("No boot mirror directory (%s), skipping the portable description copy", mirrorDir)
		return nil
	}
	return WriteSelfDescription(mirrorDir, text)
}

// SetLabel sets the target partition's filesystem label.
func SetLabel(opts Options) error {
	targetRef, err := ResolveTargetDevice(opts.TargetDevice)
	if err != nil {
		return err
	}

	fsType, err := diskutils.GetFileSystemType(targetRef.Path)
	if err != nil {
		return err
	}
	if fsType == "" {
		return preconditionErrorf("target has no filesystem (%s)", targetRef.Path)
	}

	err = diskutils.SetPartitionLabel(opts.Label, targetRef.Path, fsType)
	if err != nil {
		return toolFailureErrorf(err, "failed to label target (%s)", targetRef.Path)
	}
	return nil
}
