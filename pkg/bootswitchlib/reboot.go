// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

import (
	"time"

	"github.com/msruhi/pi-boot-switch/internal/diskutils"
	"github.com/msruhi/pi-boot-switch/internal/logger"
	"github.com/msruhi/pi-boot-switch/internal/shell"
)

// rebootDelay gives the operator a short window to interrupt before the
// host goes down.
const rebootDelay = 5 * time.Second

// Reboot flushes disk IO, waits a fixed delay, then reboots the host
// unconditionally.
func Reboot() error {
	err := diskutils.FlushDiskIO()
	if err != nil {
		return err
	}

	logger.Log.Infof("Rebooting in %v", rebootDelay)
	time.Sleep(rebootDelay)

	err = shell.ExecuteLive(true /*squashErrors*/, "shutdown", "-r", "now")
	if err != nil {
		return toolFailureErrorf(err, "failed to reboot")
	}
	return nil
}
