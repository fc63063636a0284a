// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

// PartitionRole describes how a partition relates to the boot setup.
type PartitionRole string

const (
	// RoleCurrentRoot is the partition the running system booted from.
	RoleCurrentRoot PartitionRole = "current-root"

	// RoleNextRoot is the partition the boot configuration points at, when
	// it differs from the current root.
	RoleNextRoot PartitionRole = "next-root"

	// RoleBootSource is the partition backing the boot medium mount.
	RoleBootSource PartitionRole = "boot-source"

	// RoleUnassigned is everything else.
	RoleUnassigned PartitionRole = "unassigned"
)

// ClassifyPartition determines a partition's role relative to the current
// root, the configured next root, and the boot medium's backing device. The
// first matching role wins, in the order current root, boot source, next
// root.
func ClassifyPartition(ref DeviceRef, currentRoot DeviceRef, nextRoot DeviceRef, bootSource DeviceRef) PartitionRole {
	switch {
	case ref.SameDevice(currentRoot):
		return RoleCurrentRoot
	case ref.SameDevice(bootSource):
		return RoleBootSource
	case ref.SameDevice(nextRoot):
		return RoleNextRoot
	default:
		return RoleUnassigned
	}
}
