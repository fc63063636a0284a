// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

import (
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/msruhi/pi-boot-switch/internal/diskutils"
	"github.com/msruhi/pi-boot-switch/internal/safemount"
)

// CopyRunningSystem clones the live root filesystem onto the target, taking
// the active boot medium as the source of the target's boot mirror.
func CopyRunningSystem(opts Options) error {
	currentRoot, err := ResolveCurrentRoot()
	if err != nil {
		return err
	}

	return CopyRoot(CopySource{
		RootDir:    "/",
		BootDir:    BootMountPoint,
		DevicePath: currentRoot.Path,
	}, opts)
}

// CopyFromDevice clones another already-cloned partition onto the target.
// The source is mounted read-only; its own boot mirror travels with the bulk
// copy, so no fresh mirror is taken from the active boot medium.
func CopyFromDevice(sourceDevice string, opts Options) error {
	sourceRef, err := ResolveTargetDevice(sourceDevice)
	if err != nil {
		return err
	}

	currentRoot, err := ResolveCurrentRoot()
	if err != nil {
		return err
	}
	if sourceRef.SameDevice(currentRoot) {
		// Cloning the current root goes through the live-system path so the
		// active boot medium gets mirrored.
		return CopyRunningSystem(opts)
	}

	fsType, err := diskutils.GetFileSystemType(sourceRef.Path)
	if err != nil {
		return err
	}
	if fsType == "" {
		return preconditionErrorf("source has no filesystem (%s)", sourceRef.Path)
	}

	sourceMountDir := filepath.Join(opts.WorkDir, sourceMountDirName)
	sourceMount, err := safemount.NewMount(sourceRef.Path, sourceMountDir, fsType,
		unix.MS_RDONLY, "", true)
	if err != nil {
		return toolFailureErrorf(err, "failed to mount source (%s)", sourceRef.Path)
	}
	defer sourceMount.Close()

	err = CopyRoot(CopySource{
		RootDir:    sourceMountDir,
		DevicePath: sourceRef.Path,
	}, opts)
	if err != nil {
		return err
	}

	return sourceMount.CleanClose()
}
