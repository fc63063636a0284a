// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

import (
	"fmt"

	"github.com/msruhi/pi-boot-switch/internal/diskutils"
	"github.com/msruhi/pi-boot-switch/internal/file"
	"github.com/msruhi/pi-boot-switch/internal/logger"
)

// RewriteMountTable updates the / and /boot sources of an fstab file in
// place. A nil ref leaves the corresponding entry untouched. Lines other
// than the two patched entries are preserved byte for byte.
func RewriteMountTable(fstabPath string, rootRef string, bootRef string) error {
	content, err := file.Read(fstabPath)
	if err != nil {
		return fmt.Errorf("failed to read fstab (%s):\n%w", fstabPath, err)
	}

	changed := false

	if rootRef != "" {
		newContent, patched := diskutils.PatchFstabSource(content, "/", rootRef)
		if !patched {
			return preconditionErrorf("no / entry found in fstab (%s)", fstabPath)
		}
		content = newContent
		changed = true
	}

	if bootRef != "" {
		newContent, patched := diskutils.PatchFstabSource(content, BootMountPoint, bootRef)
		if !patched {
			// Hosts that mount /boot from an initramfs may legitimately have
			// no fstab entry for it.
			logger.Log.Warnf("No %s entry found in fstab (%s), leaving it unchanged", BootMountPoint, fstabPath)
		} else {
			content = newContent
			changed = true
		}
	}

	if !changed {
		return nil
	}

	err = file.Write(content, fstabPath)
	if err != nil {
		return fmt.Errorf("failed to write fstab (%s):\n%w", fstabPath, err)
	}
	return nil
}
