// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

// Options is the per-invocation configuration shared by every engine. It is
// built once by the CLI layer and never mutated afterwards.
type Options struct {
	// TargetDevice is the partition the primary operation acts on.
	TargetDevice string

	// UseUuid selects UUID=<uuid> device references in boot-critical files.
	UseUuid bool

	// SdTarget marks the target as an SD card, selecting the
	// /dev/mmcblk0p<N> device naming scheme in written references.
	SdTarget bool

	// Format requests formatting the target before copying onto it.
	Format bool

	// KeepHome excludes /home from the bulk copy, preserving whatever the
	// target already holds.
	KeepHome bool

	// SyncHome requests a one-way /home sync onto the target during a switch.
	SyncHome bool

	// Label and Description override the inherit-from-source defaults.
	Label       string
	Description string

	// WorkDir hosts the invocation's scratch mount points.
	WorkDir string
}
