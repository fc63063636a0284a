// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/msruhi/pi-boot-switch/internal/file"
)

// bootConfigFormat abstracts over the two supported boot configuration file
// layouts. Implementations edit the file content textually, preserving
// everything except the root device value.
type bootConfigFormat interface {
	// Name is the config file's name on the boot medium.
	Name() string

	// RootValue extracts the root device reference from the file content.
	RootValue(content string) (string, error)

	// SetRootValue returns the content with the root device reference
	// replaced.
	SetRootValue(content string, value string) (string, error)
}

// cmdlineFormat handles cmdline.txt: a single line of space-separated
// key=value kernel parameters, with the root device under the "root" key.
type cmdlineFormat struct{}

func (cmdlineFormat) Name() string {
	return CmdlineConfigFileName
}

func (cmdlineFormat) RootValue(content string) (string, error) {
	return tokenStreamValue(content, "root")
}

func (cmdlineFormat) SetRootValue(content string, value string) (string, error) {
	return setTokenStreamValue(content, "root", value)
}

// uenvFormat handles uEnv.txt: one key=value pair per line, with the root
// device under the "rootdev" key.
type uenvFormat struct{}

func (uenvFormat) Name() string {
	return UEnvConfigFileName
}

func (uenvFormat) RootValue(content string) (string, error) {
	lines := strings.Split(content, "\n")
	for _, line := range lines {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if found && key == "rootdev" {
			return value, nil
		}
	}
	return "", fmt.Errorf("no rootdev entry found")
}

func (uenvFormat) SetRootValue(content string, value string) (string, error) {
	lines := strings.Split(content, "\n")
	replaced := false
	for i, line := range lines {
		key, _, found := strings.Cut(strings.TrimSpace(line), "=")
		if found && key == "rootdev" {
			// Splice into the original line so leading whitespace survives.
			eq := strings.Index(line, "=")
			lines[i] = line[:eq+1] + value
			replaced = true
		}
	}
	if !replaced {
		return "", fmt.Errorf("no rootdev entry found")
	}
	return strings.Join(lines, "\n"), nil
}

// tokenStreamValue finds key=value within a whitespace-separated token
// stream.
func tokenStreamValue(content string, key string) (string, error) {
	for _, token := range strings.Fields(content) {
		tokenKey, value, found := strings.Cut(token, "=")
		if found && tokenKey == key {
			return value, nil
		}
	}
	return "", fmt.Errorf("no %s= parameter found", key)
}

// setTokenStreamValue replaces the value of key=value within a token stream,
// preserving the surrounding whitespace byte for byte.
func setTokenStreamValue(content string, key string, value string) (string, error) {
	var sb strings.Builder
	replaced := false

	rest := content
	for len(rest) > 0 {
		tokenStart := strings.IndexFunc(rest, notSpace)
		if tokenStart < 0 {
			sb.WriteString(rest)
			break
		}
		sb.WriteString(rest[:tokenStart])
		rest = rest[tokenStart:]

		tokenEnd := strings.IndexFunc(rest, isSpace)
		if tokenEnd < 0 {
			tokenEnd = len(rest)
		}
		token := rest[:tokenEnd]
		rest = rest[tokenEnd:]

		tokenKey, _, found := strings.Cut(token, "=")
		if found && tokenKey == key {
			sb.WriteString(key + "=" + value)
			replaced = true
		} else {
			sb.WriteString(token)
		}
	}

	if !replaced {
		return "", fmt.Errorf("no %s= parameter found", key)
	}
	return sb.String(), nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func notSpace(r rune) bool {
	return !isSpace(r)
}

// BootConfig is a loaded boot configuration file.
type BootConfig struct {
	path    string
	content string
	format  bootConfigFormat
}

// ProbeBootConfig locates the boot configuration file within a boot
// directory and loads it. When both variants exist, cmdline.txt wins.
func ProbeBootConfig(bootDir string) (*BootConfig, error) {
	formats := []bootConfigFormat{cmdlineFormat{}, uenvFormat{}}
	for _, format := range formats {
		path := filepath.Join(bootDir, format.Name())
		exists, err := file.PathExists(path)
		if err != nil {
			return nil, fmt.Errorf("failed to probe boot config (%s):\n%w", path, err)
		}
		if !exists {
			continue
		}

		content, err := file.Read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read boot config (%s):\n%w", path, err)
		}

		return &BootConfig{
			path:    path,
			content: content,
			format:  format,
		}, nil
	}

	return nil, ErrNoBootConfig
}

// Path returns the config file's location.
func (b *BootConfig) Path() string {
	return b.path
}

// RootRef returns the root device the configuration currently points at.
func (b *BootConfig) RootRef() (DeviceRef, error) {
	value, err := b.format.RootValue(b.content)
	if err != nil {
		return DeviceRef{}, fmt.Errorf("failed to read root device from %s:\n%w", b.path, err)
	}
	return ParseDeviceRef(value)
}

// SetRootRef points the configuration at a new root device, rendered in the
// requested addressing mode.
func (b *BootConfig) SetRootRef(ref DeviceRef, useUuid bool, sdTarget bool) error {
	value, err := ref.Reference(useUuid, sdTarget)
	if err != nil {
		return err
	}

	newContent, err := b.format.SetRootValue(b.content, value)
	if err != nil {
		return fmt.Errorf("failed to set root device in %s:\n%w", b.path, err)
	}

	b.content = newContent
	return nil
}

// WriteToFile persists the configuration, to its original location by
// default or to the given path when non-empty.
func (b *BootConfig) WriteToFile(path string) error {
	if path == "" {
		path = b.path
	}
	err := file.Write(b.content, path)
	if err != nil {
		return fmt.Errorf("failed to write boot config (%s):\n%w", path, err)
	}
	return nil
}
