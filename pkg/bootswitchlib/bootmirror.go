// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/msruhi/pi-boot-switch/internal/file"
	"github.com/msruhi/pi-boot-switch/internal/shell"
)

// BackupBootFiles syncs the boot medium's contents into a partition's mirror
// directory. The description store stays on the boot medium only.
func BackupBootFiles(bootDir string, mirrorDir string) error {
	err := os.MkdirAll(mirrorDir, os.ModePerm)
	if err != nil {
		return fmt.Errorf("failed to create boot mirror directory (%s):\n%w", mirrorDir, err)
	}

	err = syncTrees(bootDir, mirrorDir, []string{DescriptionStoreFileName})
	if err != nil {
		return toolFailureErrorf(err, "failed to back up boot files (%s -> %s)", bootDir, mirrorDir)
	}
	return nil
}

// RestoreBootFiles syncs a partition's mirror directory onto the boot
// medium, deleting stale boot files but protecting the description store and
// the partition-private description copy.
func RestoreBootFiles(mirrorDir string, bootDir string) error {
	exists, err := file.DirExists(mirrorDir)
	if err != nil {
		return fmt.Errorf("failed to probe boot mirror directory (%s):\n%w", mirrorDir, err)
	}
	if !exists {
		return ErrMissingMirror
	}

	err = syncTrees(mirrorDir, bootDir, []string{DescriptionStoreFileName, SelfDescriptionFileName})
	if err != nil {
		return toolFailureErrorf(err, "failed to restore boot files (%s -> %s)", mirrorDir, bootDir)
	}
	return nil
}

// syncTrees performs a one-way rsync of srcDir's contents onto dstDir,
// deleting extraneous destination files except the protected names.
func syncTrees(srcDir string, dstDir string, protected []string) error {
	args := []string{"-a", "--delete"}
	for _, name := range protected {
		args = append(args,
			"--exclude", "/"+name,
			"--filter", "protect /"+name)
	}
	// The trailing slash makes rsync copy srcDir's contents rather than the
	// directory itself.
	args = append(args, filepath.Clean(srcDir)+"/", dstDir)

	return shell.ExecuteLive(true /*squashErrors*/, "rsync", args...)
}

// HasBootMirror reports whether a mounted root tree carries a boot mirror
// directory.
func HasBootMirror(rootDir string) (bool, error) {
	return file.DirExists(filepath.Join(rootDir, MirrorDirName))
}
