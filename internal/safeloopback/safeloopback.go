// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

// Package safeloopback attaches a disk image to a loop device and guarantees
// the device is detached on every exit path.
package safeloopback

import (
	"fmt"
	"path/filepath"

	"github.com/msruhi/pi-boot-switch/internal/diskutils"
	"github.com/msruhi/pi-boot-switch/internal/logger"
)

type Loopback struct {
	devicePath   string
	diskFilePath string
	isAttached   bool
}

// NewLoopback attaches the disk file and waits for its partition device nodes
// to appear.
func NewLoopback(diskFilePath string) (*Loopback, error) {
	absDiskFilePath, err := filepath.Abs(diskFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve disk file path (%s):\n%w", diskFilePath, err)
	}

	loopback := &Loopback{
		diskFilePath: absDiskFilePath,
	}

	err = loopback.initialize()
	if err != nil {
		loopback.Close()
		return nil, err
	}

	return loopback, nil
}

func (l *Loopback) initialize() error {
	devicePath, err := diskutils.SetupLoopbackDevice(l.diskFilePath)
	if err != nil {
		return err
	}

	l.devicePath = devicePath
	l.isAttached = true

	// Make sure the image's partition device nodes exist before use.
	err = diskutils.RefreshPartitions(l.devicePath)
	if err != nil {
		return err
	}

	return nil
}

// DevicePath returns the loop device path (e.g. /dev/loop1).
func (l *Loopback) DevicePath() string {
	return l.devicePath
}

// Close detaches the loop device, logging any failures.
func (l *Loopback) Close() {
	err := l.close(false)
	if err != nil {
		logger.Log.Warnf("Failed to close loopback device (%s): %v", l.devicePath, err)
	}
}

// CleanClose detaches the loop device and waits for the kernel to release it.
func (l *Loopback) CleanClose() error {
	return l.close(true)
}

func (l *Loopback) close(waitForDetach bool) error {
	if !l.isAttached {
		return nil
	}

	err := diskutils.DetachLoopbackDevice(l.devicePath)
	if err != nil {
		return err
	}
	l.isAttached = false

	if waitForDetach {
		err = diskutils.WaitForLoopbackToDetach(l.devicePath, l.diskFilePath)
		if err != nil {
			return err
		}
	}

	return nil
}
