// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package main

import (
	"fmt"
	"os"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/msruhi/pi-boot-switch/internal/exe"
	"github.com/msruhi/pi-boot-switch/internal/logger"
	"github.com/msruhi/pi-boot-switch/pkg/bootswitchlib"
)

var (
	app = kingpin.New("pibootswitch", "Manages bootable root filesystem clones on a multiboot host.")

	showInfo   = app.Flag("info", "Show the multiboot state and exit.").Bool()
	copySystem = app.Flag("copy", "Copy the running system onto the target partition.").Bool()
	copyFrom   = app.Flag("copy-from", "Copy another cloned partition onto the target partition.").PlaceHolder("DEVICE").String()
	install    = app.Flag("install", "Install a disk image (raw, .gz or .zst) onto the target partition.").PlaceHolder("IMAGE").ExistingFile()

	switchBoot = app.Flag("switch", "Make the target partition the one that boots next.").Bool()
	newBoot    = app.Flag("new-boot", "Promote the target partition to a boot partition shared by all clones.").Bool()
	label      = app.Flag("label", "Filesystem label to give the target partition.").String()
	describe   = app.Flag("describe", "Description to record for the target partition.").String()
	reboot     = app.Flag("reboot", "Reboot once the requested operations complete.").Bool()

	target   = app.Flag("to", "Target partition device.").PlaceHolder("DEVICE").String()
	useUuid  = app.Flag("uuid", "Write UUID= device references into boot files.").Bool()
	sdTarget = app.Flag("sd", "Target will boot from an SD card slot; write mmcblk-style device references.").Bool()
	format   = app.Flag("format", "Format the target partition before copying onto it.").Bool()
	keepHome = app.Flag("keep-home", "Keep the target's existing /home instead of copying the source's.").Bool()
	syncHome = app.Flag("sync-home", "Sync /home onto the target when switching.").Bool()
	verbose  = app.Flag("verbose", "Shorthand for --log-level=debug.").Short('v').Bool()

	logFlags = exe.SetupLogFlags(app)
)

// Operational and precondition failures exit with this status so wrapping
// scripts can tell them apart from usage errors.
const errorExitStatus = 3

func main() {
	app.Version(bootswitchlib.ToolVersion)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	if *verbose {
		debugLevel := "debug"
		logFlags.LogLevel = &debugLevel
	}
	logger.InitBestEffort(logFlags)

	err := run()
	if err != nil {
		logger.Log.Errorf("%v", err)
		os.Exit(errorExitStatus)
	}
}

func run() error {
	primaries := 0
	for _, selected := range []bool{*showInfo, *copySystem, *copyFrom != "", *install != ""} {
		if selected {
			primaries++
		}
	}
	if primaries > 1 {
		return fmt.Errorf("--info, --copy, --copy-from, and --install are mutually exclusive")
	}

	if *showInfo {
		return bootswitchlib.PrintInfo(os.Stdout)
	}

	anyOperation := primaries > 0 || *switchBoot || *newBoot || *label != "" || *describe != "" || *reboot
	if !anyOperation {
		return fmt.Errorf("no operation requested, see --help")
	}

	needsTarget := primaries > 0 || *switchBoot || *newBoot || *label != "" || *describe != ""
	if needsTarget && *target == "" {
		return fmt.Errorf("--to=DEVICE is required for the requested operation")
	}

	workDir, err := os.MkdirTemp("", "pibootswitch-")
	if err != nil {
		return fmt.Errorf("failed to create work directory:\n%w", err)
	}
	defer os.RemoveAll(workDir)

	opts := bootswitchlib.Options{
		TargetDevice: *target,
		UseUuid:      *useUuid,
		SdTarget:     *sdTarget,
		Format:       *format,
		KeepHome:     *keepHome,
		SyncHome:     *syncHome,
		Label:        *label,
		Description:  *describe,
		WorkDir:      workDir,
	}

	copied := false
	switch {
	case *copySystem:
		err = bootswitchlib.CopyRunningSystem(opts)
		copied = true
	case *copyFrom != "":
		err = bootswitchlib.CopyFromDevice(*copyFrom, opts)
		copied = true
	case *install != "":
		err = bootswitchlib.InstallImage(*install, opts)
		copied = true
	}
	if err != nil {
		return err
	}

	if *newBoot {
		err = bootswitchlib.PromoteSharedBoot(opts)
		if err != nil {
			return err
		}
	}

	if *switchBoot {
		err = bootswitchlib.SwitchTo(opts)
		if err != nil {
			return err
		}
	}

	// A copy already applied the label and description to its target.
	if !copied {
		if *label != "" {
			err = bootswitchlib.SetLabel(opts)
			if err != nil {
				return err
			}
		}
		if *describe != "" {
			err = bootswitchlib.SetDescription(opts)
			if err != nil {
				return err
			}
		}
	}

	if *reboot {
		return bootswitchlib.Reboot()
	}
	return nil
}
