// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

// Package exe holds shared command-line setup helpers.
package exe

import (
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/msruhi/pi-boot-switch/internal/logger"
)

// SetupLogFlags registers the logger's flags on an application and returns
// the parsed values for logger.Init.
func SetupLogFlags(k *kingpin.Application) *logger.LogFlags {
	flags := &logger.LogFlags{}
	flags.LogLevel = k.Flag(logger.LevelsFlag, logger.LevelsHelp).
		PlaceHolder(logger.LevelsPlaceholder).
		Enum(logger.Levels()...)
	flags.LogFile = k.Flag(logger.FileFlag, logger.FileFlagHelp).String()
	flags.LogColor = k.Flag(logger.ColorFlag, logger.ColorFlagHelp).
		PlaceHolder(logger.ColorsPlaceholder).
		Enum(logger.Colors()...)
	return flags
}
