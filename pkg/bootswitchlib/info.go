// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/msruhi/pi-boot-switch/internal/diskutils"
	"github.com/msruhi/pi-boot-switch/internal/logger"
	"github.com/msruhi/pi-boot-switch/internal/sliceutils"
)

// PrintInfo writes a summary of the multiboot state: the current root, the
// root the boot configuration points at, and every system partition with its
// role, filesystem, label, and recorded description.
func PrintInfo(out io.Writer) error {
	currentRoot, err := ResolveCurrentRoot()
	if err != nil {
		return err
	}

	bootSource, err := ResolveBootDevice()
	if err != nil {
		return err
	}

	nextRoot, err := ResolveNextRoot(BootMountPoint)
	if err != nil {
		if !errors.Is(err, ErrNoBootConfig) {
			return err
		}
		logger.Log.Warnf("No recognized boot configuration found in %s", BootMountPoint)
	}

	store, err := LoadDescriptionStore(BootMountPoint)
	if err != nil {
		return err
	}

	partitions, err := diskutils.GetSystemPartitions()
	if err != nil {
		return err
	}

	fstabEntries, err := diskutils.ReadFstabFile("/etc/fstab")
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "current root: %s\n", currentRoot.Path)
	fmt.Fprintf(out, "next root:    %s\n", refDisplay(nextRoot))
	fmt.Fprintf(out, "boot device:  %s\n", bootSource.Path)
	fmt.Fprintf(out, "fstab boot:   %s\n\n", configuredBootSource(fstabEntries))

	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DEVICE\tROLE\tFSTYPE\tLABEL\tDESCRIPTION")
	for _, partition := range partitions {
		ref := DeviceRef{Path: partition.Path, Uuid: partition.Uuid}
		role := ClassifyPartition(ref, currentRoot, nextRoot, bootSource)
		description, _ := store.Get(partition.Path)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			partition.Path, role, partition.FileSystemType, partition.Label, description)
	}
	return w.Flush()
}

// configuredBootSource returns the /boot source declared in the given mount
// table entries. A system on a shared boot medium may declare a /boot source
// that differs from the device currently mounted there.
func configuredBootSource(entries []diskutils.FstabEntry) string {
	entry, found := sliceutils.FindValueFunc(entries, func(e diskutils.FstabEntry) bool {
		return e.Target == BootMountPoint
	})
	if !found {
		return "(none)"
	}
	return entry.Source
}

func refDisplay(ref DeviceRef) string {
	switch {
	case ref.Path != "":
		return ref.Path
	case ref.Uuid != "":
		return "UUID=" + ref.Uuid
	default:
		return "(unknown)"
	}
}
