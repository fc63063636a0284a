// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

// Package shell wraps the external tools this program drives (mount helpers,
// mkfs, rsync, losetup, ...).
package shell

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/msruhi/pi-boot-switch/internal/logger"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultErrorStderrLines is the number of trailing stderr lines included
	// in an error message when a command fails.
	DefaultErrorStderrLines = 3
)

// Execute runs the command and returns its full stdout and stderr.
func Execute(command string, args ...string) (stdout string, stderr string, err error) {
	logger.Log.Debugf("Executing: %s %s", command, strings.Join(args, " "))

	cmd := exec.Command(command, args...)

	var stdoutBuf, stderrBuf strings.Builder
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()
	if err != nil {
		err = fmt.Errorf("command (%s) failed:\n%w", command, err)
	}
	return
}

// ExecuteLive runs the command, streaming its output into the log as it is
// produced. When squashErrors is set, stderr is logged at debug level instead
// of warn level.
func ExecuteLive(squashErrors bool, command string, args ...string) error {
	stderrLevel := logrus.WarnLevel
	if squashErrors {
		stderrLevel = logrus.DebugLevel
	}

	return NewExecBuilder(command, args...).
		LogLevel(logrus.DebugLevel, stderrLevel).
		ErrorStderrLines(DefaultErrorStderrLines).
		Execute()
}

// ExecBuilder configures a single external command invocation.
type ExecBuilder struct {
	command          string
	args             []string
	stdin            string
	stdoutCallback   func(line string)
	stdoutLogLevel   logrus.Level
	stderrLogLevel   logrus.Level
	errorStderrLines int
}

func NewExecBuilder(command string, args ...string) ExecBuilder {
	return ExecBuilder{
		command:        command,
		args:           args,
		stdoutLogLevel: logrus.DebugLevel,
		stderrLogLevel: logrus.WarnLevel,
	}
}

// Stdin provides the string fed to the command's stdin.
func (b ExecBuilder) Stdin(value string) ExecBuilder {
	b.stdin = value
	return b
}

// StdoutCallback invokes the callback for every line of stdout instead of
// logging it.
func (b ExecBuilder) StdoutCallback(callback func(line string)) ExecBuilder {
	b.stdoutCallback = callback
	return b
}

// LogLevel sets the log levels used for the command's stdout and stderr.
func (b ExecBuilder) LogLevel(stdoutLevel logrus.Level, stderrLevel logrus.Level) ExecBuilder {
	b.stdoutLogLevel = stdoutLevel
	b.stderrLogLevel = stderrLevel
	return b
}

// ErrorStderrLines sets how many trailing stderr lines are attached to the
// returned error when the command fails.
func (b ExecBuilder) ErrorStderrLines(lines int) ExecBuilder {
	b.errorStderrLines = lines
	return b
}

func (b ExecBuilder) Execute() error {
	logger.Log.Debugf("Executing: %s %s", b.command, strings.Join(b.args, " "))

	cmd := exec.Command(b.command, b.args...)
	if b.stdin != "" {
		cmd.Stdin = strings.NewReader(b.stdin)
	}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe:\n%w", err)
	}

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe:\n%w", err)
	}

	err = cmd.Start()
	if err != nil {
		return fmt.Errorf("failed to start command (%s):\n%w", b.command, err)
	}

	trailingStderr := []string(nil)

	wg := sync.WaitGroup{}
	wg.Add(2)

	go func() {
		defer wg.Done()
		forEachLine(stdoutPipe, func(line string) {
			if b.stdoutCallback != nil {
				b.stdoutCallback(line)
			} else {
				logger.Log.Log(b.stdoutLogLevel, line)
			}
		})
	}()

	go func() {
		defer wg.Done()
		forEachLine(stderrPipe, func(line string) {
			logger.Log.Log(b.stderrLogLevel, line)

			if b.errorStderrLines > 0 {
				trailingStderr = append(trailingStderr, line)
				if len(trailingStderr) > b.errorStderrLines {
					trailingStderr = trailingStderr[1:]
				}
			}
		})
	}()

	wg.Wait()

	err = cmd.Wait()
	if err != nil {
		if len(trailingStderr) > 0 {
			return fmt.Errorf("command (%s) failed:\n%s\n%w", b.command,
				strings.Join(trailingStderr, "\n"), err)
		}
		return fmt.Errorf("command (%s) failed:\n%w", b.command, err)
	}

	return nil
}

func forEachLine(reader io.Reader, callback func(line string)) {
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		callback(scanner.Text())
	}
}
