package model

import (
	"errors"
	"fmt"
)

// Failure classes. Callers wrap them with context and match with errors.Is.
var (
	// ErrValidation marks malformed input that aborts the enclosing block.
	ErrValidation = errors.New("validation error")
	// ErrLengthMismatch marks a combo group whose lists disagree in length.
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrGroupType marks a group or file entry that is not a mapping.
	ErrGroupType = errors.New("group type error")
	// ErrExternalTool marks a failed clone, submit, commit or status query.
	ErrExternalTool = errors.New("external tool error")
	// ErrMissingKey marks a target file or parameter absent from the base config.
	ErrMissingKey = errors.New("missing key")
)

// ErrValidationf wraps ErrValidation with a formatted message.
func ErrValidationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ErrLengthMismatchf wraps ErrLengthMismatch with a formatted message.
func ErrLengthMismatchf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrLengthMismatch, fmt.Sprintf(format, args...))
}

// ErrGroupTypef wraps ErrGroupType with a formatted message.
func ErrGroupTypef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrGroupType, fmt.Sprintf(format, args...))
}

// ErrMissingKeyf wraps ErrMissingKey with a formatted message.
func ErrMissingKeyf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMissingKey, fmt.Sprintf(format, args...))
}
