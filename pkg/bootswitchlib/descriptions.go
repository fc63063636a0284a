// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/msruhi/pi-boot-switch/internal/file"
)

// DescriptionStore is the flat file on the boot medium mapping partition
// device paths to human descriptions. One line per device, in the form
// "<device>: <text>". Unknown or malformed lines are dropped on save.
type DescriptionStore struct {
	path         string
	descriptions map[string]string
}

// LoadDescriptionStore reads the store from a boot directory. A missing file
// yields an empty store.
func LoadDescriptionStore(bootDir string) (*DescriptionStore, error) {
	store := &DescriptionStore{
		path:         filepath.Join(bootDir, DescriptionStoreFileName),
		descriptions: map[string]string{},
	}

	exists, err := file.PathExists(store.path)
	if err != nil {
		return nil, fmt.Errorf("failed to probe description store (%s):\n%w", store.path, err)
	}
	if !exists {
		return store, nil
	}

	lines, err := file.ReadLines(store.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read description store (%s):\n%w", store.path, err)
	}

	for _, line := range lines {
		device, text, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		device = strings.TrimSpace(device)
		if device == "" {
			continue
		}
		store.descriptions[device] = strings.TrimSpace(text)
	}

	return store, nil
}

// Get returns the description for a device and whether one is recorded. An
// empty recorded description is a valid entry.
func (s *DescriptionStore) Get(device string) (string, bool) {
	text, ok := s.descriptions[device]
	return text, ok
}

// Set records a description for a device, replacing any previous one.
func (s *DescriptionStore) Set(device string, text string) {
	s.descriptions[device] = strings.TrimSpace(text)
}

// All returns the recorded device paths, sorted.
func (s *DescriptionStore) All() []string {
	devices := make([]string, 0, len(s.descriptions))
	for device := range s.descriptions {
		devices = append(devices, device)
	}
	sort.Strings(devices)
	return devices
}

// Save writes the store back out, one device per line in sorted order.
func (s *DescriptionStore) Save() error {
	var sb strings.Builder
	for _, device := range s.All() {
		sb.WriteString(fmt.Sprintf("%s: %s\n", device, s.descriptions[device]))
	}

	err := file.Write(sb.String(), s.path)
	if err != nil {
		return fmt.Errorf("failed to write description store (%s):\n%w", s.path, err)
	}
	return nil
}

// WriteSelfDescription places a partition's own description inside its boot
// mirror directory so the text stays with the partition if the disk is
// moved to another host.
func WriteSelfDescription(mirrorDir string, text string) error {
	path := filepath.Join(mirrorDir, SelfDescriptionFileName)
	err := file.Write(strings.TrimSpace(text)+"\n", path)
	if err != nil {
		return fmt.Errorf("failed to write partition description (%s):\n%w", path, err)
	}
	return nil
}

// ReadSelfDescription reads a partition's own description from its mirror
// directory. Returns empty with no error when the file is absent.
func ReadSelfDescription(mirrorDir string) (string, error) {
	path := filepath.Join(mirrorDir, SelfDescriptionFileName)

	exists, err := file.PathExists(path)
	if err != nil {
		return "", fmt.Errorf("failed to probe partition description (%s):\n%w", path, err)
	}
	if !exists {
		return "", nil
	}

	content, err := file.Read(path)
	if err != nil {
		return "", fmt.Errorf("failed to read partition description (%s):\n%w", path, err)
	}
	return strings.TrimSpace(content), nil
}
