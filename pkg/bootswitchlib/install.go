// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"golang.org/x/sys/unix"

	"github.com/msruhi/pi-boot-switch/internal/diskutils"
	"github.com/msruhi/pi-boot-switch/internal/logger"
	"github.com/msruhi/pi-boot-switch/internal/safeloopback"
	"github.com/msruhi/pi-boot-switch/internal/safemount"
	"github.com/msruhi/pi-boot-switch/internal/sliceutils"
)

// InstallImage clones a raw disk image onto the target partition. Compressed
// images (.gz, .zst) are extracted to a scratch file first. The image's
// first partition is taken as its boot filesystem and the second as its root
// filesystem; both are loop-mounted read-only and handed to the copy engine
// as the source tree.
func InstallImage(imagePath string, opts Options) error {
	rawImagePath, isScratch, err := extractImage(imagePath, opts.WorkDir)
	if err != nil {
		return err
	}
	if isScratch {
		defer os.Remove(rawImagePath)
	}

	loopback, err := safeloopback.NewLoopback(rawImagePath)
	if err != nil {
		return toolFailureErrorf(err, "failed to attach image (%s)", rawImagePath)
	}
	defer loopback.Close()

	// By convention the image's first partition is its boot filesystem and
	// the second its root filesystem.
	allDevices, err := diskutils.GetDiskPartitions(loopback.DevicePath())
	if err != nil {
		return err
	}
	partitions := sliceutils.FindMatches(allDevices, func(p diskutils.PartitionInfo) bool {
		return p.Type == "part"
	})
	if len(partitions) < 2 {
		return preconditionErrorf("image does not hold a boot and a root partition (%s)", rawImagePath)
	}
	bootPartition := partitions[0]
	rootPartition := partitions[1]

	imageMountDir := filepath.Join(opts.WorkDir, imageMountDirName)

	rootMount, err := safemount.NewMount(rootPartition.Path, imageMountDir,
		rootPartition.FileSystemType, unix.MS_RDONLY, "", true)
	if err != nil {
		return toolFailureErrorf(err, "failed to mount image root partition (%s)", rootPartition.Path)
	}
	defer rootMount.Close()

	bootMount, err := safemount.NewMount(bootPartition.Path, filepath.Join(imageMountDir, "boot"),
		bootPartition.FileSystemType, unix.MS_RDONLY, "", false)
	if err != nil {
		return toolFailureErrorf(err, "failed to mount image boot partition (%s)", bootPartition.Path)
	}
	defer bootMount.Close()

	err = CopyRoot(CopySource{
		RootDir: imageMountDir,
		BootDir: bootMount.Target(),
	}, opts)
	if err != nil {
		return err
	}

	err = bootMount.CleanClose()
	if err != nil {
		return err
	}

	err = rootMount.CleanClose()
	if err != nil {
		return err
	}

	err = loopback.CleanClose()
	if err != nil {
		return toolFailureErrorf(err, "failed to detach image (%s)", rawImagePath)
	}

	return nil
}

// extractImage materializes a raw disk image from the given path. Returns
// the raw image path and whether it is a scratch file the caller must
// remove.
func extractImage(imagePath string, workDir string) (string, bool, error) {
	newReader := compressedImageReader(imagePath)
	if newReader == nil {
		return imagePath, false, nil
	}

	logger.Log.Infof("Extracting compressed image (%s)", imagePath)

	srcFile, err := os.Open(imagePath)
	if err != nil {
		return "", false, fmt.Errorf("failed to open image (%s):\n%w", imagePath, err)
	}
	defer srcFile.Close()

	reader, err := newReader(srcFile)
	if err != nil {
		return "", false, toolFailureErrorf(err, "failed to decompress image (%s)", imagePath)
	}
	defer reader.Close()

	rawImagePath := filepath.Join(workDir, "image.raw")
	dstFile, err := os.Create(rawImagePath)
	if err != nil {
		return "", false, fmt.Errorf("failed to create scratch image (%s):\n%w", rawImagePath, err)
	}
	defer dstFile.Close()

	_, err = io.Copy(dstFile, reader)
	if err != nil {
		os.Remove(rawImagePath)
		return "", false, toolFailureErrorf(err, "failed to extract image (%s)", imagePath)
	}

	return rawImagePath, true, nil
}

// compressedImageReader picks a decompressor by file extension, or nil for
// raw images.
func compressedImageReader(imagePath string) func(io.Reader) (io.ReadCloser, error) {
	switch strings.ToLower(filepath.Ext(imagePath)) {
	case ".gz":
		return func(r io.Reader) (io.ReadCloser, error) {
			return pgzip.NewReader(r)
		}
	case ".zst", ".zstd":
		return func(r io.Reader) (io.ReadCloser, error) {
			decoder, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return decoder.IOReadCloser(), nil
		}
	default:
		return nil
	}
}
