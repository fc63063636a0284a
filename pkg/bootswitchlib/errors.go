// Copyright (c) Pi Boot Switch contributors.
// Licensed under the MIT License.

package bootswitchlib

import (
	"errors"
	"fmt"
)

// Error categories. Both are fatal; the distinction is whether any
// destructive action may already have happened (tool failures) or not
// (precondition failures).
var (
	ErrPrecondition = errors.New("precondition")
	ErrToolFailure  = errors.New("tool-failure")
)

// Common precondition failures.
var (
	ErrMissingMirror    = NewBootSwitchError(ErrPrecondition, "partition has no boot mirror directory")
	ErrNoBootConfig     = NewBootSwitchError(ErrPrecondition, "no recognized boot configuration file found")
	ErrSourceIsTarget   = NewBootSwitchError(ErrPrecondition, "source and target are the same device")
	ErrMissingBootMount = NewBootSwitchError(ErrPrecondition, "the boot medium is not mounted")
)

// BootSwitchError carries an error category alongside a message and an
// optional cause.
type BootSwitchError struct {
	Type    error
	Message string
	Cause   error
}

func (e *BootSwitchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s:\n%v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BootSwitchError) Unwrap() error {
	return e.Cause
}

func (e *BootSwitchError) Is(target error) bool {
	return errors.Is(e.Type, target)
}

func NewBootSwitchError(errorType error, message string) *BootSwitchError {
	return &BootSwitchError{
		Type:    errorType,
		Message: message,
	}
}

func NewBootSwitchErrorWithCause(errorType error, message string, cause error) *BootSwitchError {
	return &BootSwitchError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

func preconditionErrorf(format string, args ...any) error {
	return NewBootSwitchError(ErrPrecondition, fmt.Sprintf(format, args...))
}

func toolFailureErrorf(cause error, format string, args ...any) error {
	return NewBootSwitchErrorWithCause(ErrToolFailure, fmt.Sprintf(format, args...), cause)
}
