// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package shell

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/msruhi/pi-boot-switch/internal/logger"
)

func TestMain(m *testing.M) {
	logger.InitStderr()
	os.Exit(m.Run())
}

func TestExecute(t *testing.T) {
	stdout, stderr, err := Execute("echo", "hello")
	assert.NoError(t, err)
	assert.Equal(t, "hello\n", stdout)
	assert.Empty(t, stderr)
}

func TestExecuteFailure(t *testing.T) {
	_, _, err := Execute("false")
	assert.Error(t, err)
}

func TestExecuteMissingCommand(t *testing.T) {
	_, _, err := Execute("this-command-does-not-exist")
	assert.Error(t, err)
}

func TestExecBuilderStdin(t *testing.T) {
	var lines []string
	err := NewExecBuilder("cat").
		Stdin("first\nsecond\n").
		StdoutCallback(func(line string) {
			lines = append(lines, line)
		}).
		Execute()
	assert.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, lines)
}

func TestExecBuilderErrorStderrLines(t *testing.T) {
	err := NewExecBuilder("sh", "-c", "echo one >&2; echo two >&2; exit 1").
		LogLevel(logrus.DebugLevel, logrus.DebugLevel).
		ErrorStderrLines(1).
		Execute()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "two")
	assert.NotContains(t, err.Error(), "one")
}
