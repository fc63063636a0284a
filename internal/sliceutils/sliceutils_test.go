// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package sliceutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsValue(t *testing.T) {
	assert.True(t, ContainsValue([]string{"a", "b"}, "b"))
	assert.False(t, ContainsValue([]string{"a", "b"}, "c"))
	assert.False(t, ContainsValue(nil, "a"))
}

func TestFindMatches(t *testing.T) {
	matches := FindMatches([]int{1, 2, 3, 4}, func(v int) bool { return v%2 == 0 })
	assert.Equal(t, []int{2, 4}, matches)
}

func TestFindValueFunc(t *testing.T) {
	value, found := FindValueFunc([]string{"sda1", "sda2"}, func(v string) bool { return v == "sda2" })
	assert.True(t, found)
	assert.Equal(t, "sda2", value)

	_, found = FindValueFunc([]string{"sda1"}, func(v string) bool { return v == "sdb1" })
	assert.False(t, found)
}
