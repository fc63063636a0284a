// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package diskutils

import (
	"fmt"
	"strings"

	"github.com/msruhi/pi-boot-switch/internal/file"
)

// FstabEntry is one mount declaration from an /etc/fstab file.
type FstabEntry struct {
	Source  string // Example: /dev/sda2 or UUID=4BD9-3A78
	Target  string // Example: /boot
	FsType  string // Example: vfat
	Options string // Example: defaults,noatime
	Freq    string
	PassNo  string
}

// ReadFstabFile parses an fstab file, skipping comments and blank lines.
func ReadFstabFile(fstabPath string) ([]FstabEntry, error) {
	lines, err := file.ReadLines(fstabPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read fstab file (%s):\n%w", fstabPath, err)
	}

	entries := []FstabEntry(nil)
	for _, line := range lines {
		entry, ok := parseFstabLine(line)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseFstabLine(line string) (FstabEntry, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return FstabEntry{}, false
	}

	fields := strings.Fields(trimmed)
	if len(fields) < 2 {
		return FstabEntry{}, false
	}

	entry := FstabEntry{
		Source: fields[0],
		Target: fields[1],
	}
	if len(fields) > 2 {
		entry.FsType = fields[2]
	}
	if len(fields) > 3 {
		entry.Options = fields[3]
	}
	if len(fields) > 4 {
		entry.Freq = fields[4]
	}
	if len(fields) > 5 {
		entry.PassNo = fields[5]
	}
	return entry, true
}

// PatchFstabSource replaces the source field of the entry whose mount point
// equals target, leaving every other byte of the content untouched. Matching
// is by mount-point token, independent of line order. Returns the patched
// content and whether a matching entry was found.
func PatchFstabSource(content string, target string, newSource string) (string, bool) {
	lines := strings.Split(content, "\n")
	patched := false

	for i, line := range lines {
		newLine, ok := patchFstabLineSource(line, target, newSource)
		if ok {
			lines[i] = newLine
			patched = true
		}
	}

	return strings.Join(lines, "\n"), patched
}

func patchFstabLineSource(line string, target string, newSource string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return line, false
	}

	// Locate the first two whitespace-delimited fields along with the byte
	// range of the first, so the replacement preserves the line's original
	// spacing.
	srcStart, srcEnd, mountPoint := splitFirstTwoFields(line)
	if mountPoint != target {
		return line, false
	}

	return line[:srcStart] + newSource + line[srcEnd:], true
}

func splitFirstTwoFields(line string) (srcStart int, srcEnd int, second string) {
	srcStart = -1
	srcEnd = -1
	secondStart := -1

	for i := 0; i < len(line); i++ {
		isSpace := line[i] == ' ' || line[i] == '\t'

		switch {
		case srcStart < 0 && !isSpace:
			srcStart = i

		case srcStart >= 0 && srcEnd < 0 && isSpace:
			srcEnd = i

		case srcEnd >= 0 && secondStart < 0 && !isSpace:
			secondStart = i

		case secondStart >= 0 && isSpace:
			return srcStart, srcEnd, line[secondStart:i]
		}
	}

	if secondStart >= 0 {
		return srcStart, srcEnd, line[secondStart:]
	}
	return srcStart, srcEnd, ""
}
