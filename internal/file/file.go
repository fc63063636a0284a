// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

// Package file provides small filesystem helpers.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Read returns the whole file as a string.
func Read(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file (%s):\n%w", path, err)
	}
	return string(content), nil
}

// ReadLines returns the file's contents split into lines.
func ReadLines(path string) ([]string, error) {
	content, err := Read(path)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return nil, nil
	}
	return strings.Split(content, "\n"), nil
}

// Write writes the string to the file, replacing any existing contents and
// creating the destination directory if needed.
func Write(content string, path string) error {
	err := CreateDestinationDir(path, os.ModePerm)
	if err != nil {
		return err
	}

	err = os.WriteFile(path, []byte(content), 0o644)
	if err != nil {
		return fmt.Errorf("failed to write file (%s):\n%w", path, err)
	}
	return nil
}

// PathExists reports whether the path exists, distinguishing "does not exist"
// from other stat failures.
func PathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DirExists reports whether the path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// CreateDestinationDir ensures the parent directory of dstPath exists.
func CreateDestinationDir(dstPath string, perm os.FileMode) error {
	dir := filepath.Dir(dstPath)
	err := os.MkdirAll(dir, perm)
	if err != nil {
		return fmt.Errorf("failed to create directory (%s):\n%w", dir, err)
	}
	return nil
}
