// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

const (
	// BootMountPoint is where the active boot medium is mounted.
	BootMountPoint = "/boot"

	// MirrorDirName is the partition-private directory holding a copy of the
	// boot medium's contents.
	MirrorDirName = "_boot"

	// DescriptionStoreFileName is the flat store of device descriptions kept
	// on the shared boot medium. It is never part of a boot mirror sync.
	DescriptionStoreFileName = "descriptions.txt"

	// SelfDescriptionFileName is the single-line description copy written
	// inside a partition's own mirror directory so the text travels with the
	// partition when it is physically moved.
	SelfDescriptionFileName = "description.txt"

	// Boot configuration file variants. The file present on the boot medium
	// selects the variant.
	CmdlineConfigFileName = "cmdline.txt"
	UEnvConfigFileName    = "uEnv.txt"

	// Filesystem type used when the caller requests formatting a new root.
	rootFsType = "ext4"

	// Filesystem type used when formatting a new shared boot partition.
	bootFsType = "vfat"

	// Scratch mount directory names under the invocation's work directory.
	targetMountDirName = "target"
	sourceMountDirName = "source"
	imageMountDirName  = "image"
	bootMountDirName   = "newboot"

	// Swap file location relative to a root tree. Bulk copy skips it; it is
	// copied sparsely as an explicit separate step.
	swapFileRelPath = "var/swap"
)
