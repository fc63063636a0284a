// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestConsoleFormatterPrefix(t *testing.T) {
	formatter := &consoleFormatter{useColor: false}

	entry := &logrus.Entry{Level: logrus.WarnLevel, Message: "target is not formatted"}
	line, err := formatter.Format(entry)
	assert.NoError(t, err)
	assert.Equal(t, "warning: target is not formatted\n", string(line))

	entry = &logrus.Entry{Level: logrus.ErrorLevel, Message: "mount failed"}
	line, err = formatter.Format(entry)
	assert.NoError(t, err)
	assert.Equal(t, "error: mount failed\n", string(line))
}

func TestInitRejectsBadLevel(t *testing.T) {
	level := "noisy"
	err := Init(&LogFlags{LogLevel: &level})
	assert.Error(t, err)
}

func TestMemoryLogHook(t *testing.T) {
	InitStderr()
	hook := NewMemoryLogHook()
	Log.AddHook(hook)

	Log.Infof("first")
	Log.Warnf("second")

	messages := hook.ConsumeMessages()
	assert.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Message)
	assert.Equal(t, logrus.WarnLevel, messages[1].Level)

	assert.Empty(t, hook.ConsumeMessages())
}
