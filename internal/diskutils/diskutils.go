// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

// Utilities to query and manipulate block devices and partitions.

package diskutils

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/msruhi/pi-boot-switch/internal/logger"
	"github.com/msruhi/pi-boot-switch/internal/retry"
	"github.com/msruhi/pi-boot-switch/internal/shell"
	"github.com/msruhi/pi-boot-switch/internal/sliceutils"
	"golang.org/x/sys/unix"
)

type partitionInfoOutput struct {
	Devices []PartitionInfo `json:"blockdevices"`
}

// PartitionInfo is the kernel's view of a single partition.
type PartitionInfo struct {
	Name           string `json:"name"`       // Example: sda2
	Path           string `json:"path"`       // Example: /dev/sda2
	FileSystemType string `json:"fstype"`     // Example: ext4
	Uuid           string `json:"uuid"`       // Example: 7b1367a6-5845-43f2-99b1-a742d873f590
	Label          string `json:"label"`      // Example: workstation
	Mountpoint     string `json:"mountpoint"` // Example: /
	Type           string `json:"type"`       // Example: part
	SizeInBytes    uint64 `json:"size"`       // Example: 4096
}

type loopbackListOutput struct {
	Devices []loopbackDevice `json:"loopdevices"`
}

type loopbackDevice struct {
	Name        string `json:"name"`
	BackingFile string `json:"back-file"`
}

const lsblkOutputColumns = "NAME,PATH,FSTYPE,UUID,LABEL,MOUNTPOINT,TYPE,SIZE"

// GetDiskPartitions gets the kernel's view of a disk's partitions.
func GetDiskPartitions(diskDevPath string) ([]PartitionInfo, error) {
	jsonString, stderr, err := shell.Execute("lsblk", diskDevPath, "--output", lsblkOutputColumns,
		"--bytes", "--json", "--list")
	if err != nil {
		return nil, fmt.Errorf("failed to list disk (%s) partitions:\n%v\n%w", diskDevPath, stderr, err)
	}

	return parsePartitionInfo(diskDevPath, jsonString)
}

// GetSystemPartitions gets the kernel's view of every partition on the host.
func GetSystemPartitions() ([]PartitionInfo, error) {
	jsonString, stderr, err := shell.Execute("lsblk", "--output", lsblkOutputColumns,
		"--bytes", "--json", "--list")
	if err != nil {
		return nil, fmt.Errorf("failed to list system partitions:\n%v\n%w", stderr, err)
	}

	partitions, err := parsePartitionInfo("all", jsonString)
	if err != nil {
		return nil, err
	}

	onlyPartitions := []PartitionInfo(nil)
	for _, partition := range partitions {
		if partition.Type == "part" {
			onlyPartitions = append(onlyPartitions, partition)
		}
	}
	return onlyPartitions, nil
}

func parsePartitionInfo(debugName string, jsonString string) ([]PartitionInfo, error) {
	var output partitionInfoOutput
	if jsonString != "" {
		err := json.Unmarshal([]byte(jsonString), &output)
		if err != nil {
			return nil, fmt.Errorf("failed to parse disk (%s) partitions JSON:\n%w", debugName, err)
		}
	}
	return output.Devices, nil
}

// GetPartitionUuid reads the filesystem UUID directly from the device.
// A device with no filesystem UUID yields an empty string, not an error.
func GetPartitionUuid(devicePath string) (string, error) {
	stdout, _, err := shell.Execute("blkid", "--probe", "-s", "UUID", "-o", "value", devicePath)
	if err != nil {
		return "", fmt.Errorf("failed to get filesystem UUID of partition (%s):\n%w", devicePath, err)
	}
	return strings.TrimSpace(stdout), nil
}

// GetFileSystemType reads the filesystem type directly from the device.
func GetFileSystemType(devicePath string) (string, error) {
	stdout, _, err := shell.Execute("blkid", "--probe", "-s", "TYPE", "-o", "value", devicePath)
	if err != nil {
		return "", fmt.Errorf("failed to get filesystem type of partition (%s):\n%w", devicePath, err)
	}
	return strings.TrimSpace(stdout), nil
}

// IsBlockDevice reports whether the path names a block device node.
func IsBlockDevice(path string) (bool, error) {
	var stat unix.Stat_t
	err := unix.Stat(path, &stat)
	if err != nil {
		if err == unix.ENOENT {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat (%s):\n%w", path, err)
	}
	return stat.Mode&unix.S_IFMT == unix.S_IFBLK, nil
}

var supportedFormatFsTypes = []string{"ext2", "ext3", "ext4", "vfat", "btrfs", "xfs"}

// FormatPartition creates a new filesystem of the given type on the device.
func FormatPartition(fsType string, devicePath string) error {
	if !sliceutils.ContainsValue(supportedFormatFsTypes, fsType) {
		return fmt.Errorf("unrecognized filesystem format: %v", fsType)
	}

	logger.Log.Infof("Formatting (%s) as %s", devicePath, fsType)

	_, stderr, err := shell.Execute("mkfs", "-t", fsType, devicePath)
	if err != nil {
		return fmt.Errorf("failed to format partition (%s) using mkfs:\n%v\n%w", devicePath, stderr, err)
	}
	return nil
}

// SetPartitionLabel applies a filesystem label. Filesystem types without a
// supported labeling tool are logged and skipped.
func SetPartitionLabel(label string, devicePath string, fsType string) error {
	var command string
	var args []string

	switch fsType {
	case "ext2", "ext3", "ext4":
		command = "e2label"
		args = []string{devicePath, label}

	case "vfat":
		command = "fatlabel"
		args = []string{devicePath, label}

	case "btrfs":
		command = "btrfs"
		args = []string{"filesystem", "label", devicePath, label}

	case "xfs":
		command = "xfs_admin"
		args = []string{"-L", label, devicePath}

	default:
		logger.Log.Warnf("Cannot set label (%s) on (%s): unsupported filesystem type (%s)", label,
			devicePath, fsType)
		return nil
	}

	_, stderr, err := shell.Execute(command, args...)
	if err != nil {
		return fmt.Errorf("failed to set label (%s) on (%s):\n%v\n%w", label, devicePath, stderr, err)
	}
	return nil
}

// SetupLoopbackDevice creates a /dev/loop device for the given disk file.
func SetupLoopbackDevice(diskFilePath string) (string, error) {
	logger.Log.Debugf("Attaching loopback: %v", diskFilePath)
	stdout, stderr, err := shell.Execute("losetup", "--show", "-f", "-P", diskFilePath)
	if err != nil {
		return "", fmt.Errorf("failed to create loopback device using losetup:\n%v\n%w", stderr, err)
	}

	devicePath := strings.TrimSpace(stdout)
	logger.Log.Debugf("Created loopback device at device path: %v", devicePath)
	return devicePath, nil
}

// DetachLoopbackDevice detaches the specified loopback device.
func DetachLoopbackDevice(diskDevPath string) error {
	logger.Log.Debugf("Detaching loopback device path: %v", diskDevPath)
	_, stderr, err := shell.Execute("losetup", "-d", diskDevPath)
	if err != nil {
		logger.Log.Warnf("Failed to detach loopback device using losetup: %v", stderr)
	}
	return err
}

// WaitForLoopbackToDetach waits until the kernel no longer lists the loopback
// device for the given backing file.
func WaitForLoopbackToDetach(devicePath string, diskPath string) error {
	err := retry.RunWithExpBackoff(func() error {
		stdout, _, err := shell.Execute("losetup", "--list", "--json", "--output", "NAME,BACK-FILE")
		if err != nil {
			return fmt.Errorf("failed to read loopback list:\n%w", err)
		}

		var output loopbackListOutput
		if stdout != "" {
			err = json.Unmarshal([]byte(stdout), &output)
			if err != nil {
				return fmt.Errorf("failed to parse loopback devices list JSON:\n%w", err)
			}
		}

		for _, device := range output.Devices {
			if device.Name == devicePath && device.BackingFile == diskPath {
				return fmt.Errorf("loopback device (%s) still attached", devicePath)
			}
		}
		return nil
	}, 10, 120*time.Millisecond, 2.0)
	if err != nil {
		return fmt.Errorf("timed out waiting for loopback device (%s) for disk (%s) to close:\n%w",
			devicePath, diskPath, err)
	}
	return nil
}

// WaitForDiskDevice waits for udev to finish processing a newly attached disk
// so that its partition device nodes exist.
func WaitForDiskDevice(diskDevPath string) error {
	logger.Log.Debugf("Waiting for devices to settle")
	_, _, err := shell.Execute("udevadm", "settle")
	if err != nil {
		return fmt.Errorf("failed to wait for devices to settle:\n%w", err)
	}
	return nil
}

// FlushDiskIO blocks until buffered writes have reached the disks.
func FlushDiskIO() error {
	_, _, err := shell.Execute("sync")
	if err != nil {
		return fmt.Errorf("failed to sync disks:\n%w", err)
	}
	return nil
}

// RefreshPartitions asks the kernel to reread a disk's partition table.
func RefreshPartitions(diskDevPath string) error {
	err := requestKernelRereadPartitionTable(diskDevPath)
	if err != nil {
		return fmt.Errorf("failed to request partition table reread (%s):\n%w", diskDevPath, err)
	}

	return WaitForDiskDevice(diskDevPath)
}

func requestKernelRereadPartitionTable(diskDevPath string) error {
	diskFile, err := os.OpenFile(diskDevPath, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer diskFile.Close()

	waitTime := 125 * time.Millisecond
	retries := 10
	for i := 0; ; i++ {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, diskFile.Fd(), unix.BLKRRPART, 0)
		switch {
		case errno == unix.EBUSY && i < retries:
			// Something else is using the disk at the moment.
			time.Sleep(waitTime)
			waitTime *= 2
			continue

		case errno != 0:
			return errno

		default:
			return nil
		}
	}
}
