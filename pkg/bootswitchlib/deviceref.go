// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	uuidReferenceRegex = regexp.MustCompile(`^UUID=(.+)$`)
	sdPartitionRegex   = regexp.MustCompile(`^/dev/sd[a-z]+(\d+)$`)
	mmcPartitionRegex  = regexp.MustCompile(`^/dev/mmcblk\d+p\d+$`)
)

// DeviceRef identifies a partition by kernel path and, when known, by
// filesystem UUID. The same partition can be written to boot-critical files
// in different addressing modes depending on the invocation's options.
type DeviceRef struct {
	// Path is the kernel device node (e.g. /dev/sda2). May be empty when the
	// ref was parsed from a UUID= string that has not been resolved yet.
	Path string

	// Uuid is the filesystem UUID, without the UUID= prefix. May be empty.
	Uuid string
}

// ParseDeviceRef interprets a device reference string as found in boot
// configuration files and fstab: either a /dev path or a UUID=<uuid> form.
func ParseDeviceRef(s string) (DeviceRef, error) {
	match := uuidReferenceRegex.FindStringSubmatch(s)
	if match != nil {
		parsed, err := uuid.Parse(match[1])
		if err != nil {
			return DeviceRef{}, fmt.Errorf("invalid UUID reference (%s):\n%w", s, err)
		}
		return DeviceRef{Uuid: strings.ToLower(parsed.String())}, nil
	}

	if !strings.HasPrefix(s, "/dev/") {
		return DeviceRef{}, fmt.Errorf("unrecognized device reference (%s)", s)
	}

	return DeviceRef{Path: s}, nil
}

// Reference renders the ref in the requested addressing mode.
//
// UUID mode wins when a UUID is known. SD mode rewrites /dev/sdXN paths to
// the /dev/mmcblk0pN scheme the target host will see once the disk is moved
// into its SD card slot.
func (r DeviceRef) Reference(useUuid bool, sdTarget bool) (string, error) {
	if useUuid {
		if r.Uuid == "" {
			return "", fmt.Errorf("no UUID known for device (%s)", r.Path)
		}
		return "UUID=" + r.Uuid, nil
	}

	if sdTarget {
		return sdCardDevicePath(r.Path)
	}

	if r.Path == "" {
		return "", fmt.Errorf("no device path known (UUID=%s)", r.Uuid)
	}
	return r.Path, nil
}

// sdCardDevicePath maps a USB-attached partition path to the device name the
// same partition will have when the card is booted from the SD slot. Paths
// already in the SD card naming scheme pass through unchanged.
func sdCardDevicePath(path string) (string, error) {
	if mmcPartitionRegex.MatchString(path) {
		return path, nil
	}

	match := sdPartitionRegex.FindStringSubmatch(path)
	if match == nil {
		return "", fmt.Errorf("cannot map device to an SD card partition (%s)", path)
	}
	return "/dev/mmcblk0p" + match[1], nil
}

// SameDevice reports whether two refs name the same partition, by UUID when
// both are known, otherwise by path.
func (r DeviceRef) SameDevice(other DeviceRef) bool {
	if r.Uuid != "" && other.Uuid != "" {
		return r.Uuid == other.Uuid
	}
	return r.Path != "" && r.Path == other.Path
}
