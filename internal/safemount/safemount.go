// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

// Package safemount provides a mount that is guaranteed to be released on
// every exit path of the operation that created it.
package safemount

import (
	"fmt"
	"os"
	"time"

	"github.com/msruhi/pi-boot-switch/internal/logger"
	"github.com/msruhi/pi-boot-switch/internal/retry"
	"golang.org/x/sys/unix"
)

type Mount struct {
	target     string
	isMounted  bool
	dirCreated bool
}

// NewMount mounts the source device at the target directory. If
// makeAndDeleteDir is set, the target directory is created and later removed
// by Close/CleanClose.
func NewMount(source, target, fstype string, flags uintptr, data string, makeAndDeleteDir bool,
) (*Mount, error) {
	mount := &Mount{
		target: target,
	}

	err := mount.initialize(source, fstype, flags, data, makeAndDeleteDir)
	if err != nil {
		mount.Close()
		return nil, err
	}

	return mount, nil
}

func (m *Mount) initialize(source, fstype string, flags uintptr, data string, makeAndDeleteDir bool,
) error {
	logger.Log.Debugf("Mounting (%s) at (%s)", source, m.target)

	if makeAndDeleteDir {
		err := os.MkdirAll(m.target, 0o755)
		if err != nil {
			return fmt.Errorf("failed to create mount directory (%s):\n%w", m.target, err)
		}
		m.dirCreated = true
	}

	err := unix.Mount(source, m.target, fstype, flags, data)
	if err != nil {
		return fmt.Errorf("failed to mount (%s) at (%s):\n%w", source, m.target, err)
	}
	m.isMounted = true

	return nil
}

// Target returns the mount's target directory.
func (m *Mount) Target() string {
	return m.target
}

// Close releases the mount, logging any failures. Safe to call on an already
// closed mount, so it can sit in a defer alongside an explicit CleanClose.
func (m *Mount) Close() {
	err := m.close()
	if err != nil {
		logger.Log.Warnf("Failed to close mount (%s): %v", m.target, err)
	}
}

// CleanClose releases the mount and reports failures to the caller.
func (m *Mount) CleanClose() error {
	return m.close()
}

func (m *Mount) close() error {
	if m.isMounted {
		logger.Log.Debugf("Unmounting (%s)", m.target)

		// The unmount can fail transiently while the kernel finishes writes.
		err := retry.Run(func() error {
			return unix.Unmount(m.target, 0)
		}, 5, time.Second)
		if err != nil {
			return fmt.Errorf("failed to unmount (%s):\n%w", m.target, err)
		}
		m.isMounted = false
	}

	if m.dirCreated {
		err := os.Remove(m.target)
		if err != nil {
			return fmt.Errorf("failed to remove mount directory (%s):\n%w", m.target, err)
		}
		m.dirCreated = false
	}

	return nil
}
