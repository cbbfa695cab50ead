// Package errors carries coded errors across the application boundary.
package errors

import (
	stderrors "errors"
	"fmt"

	"gocorr/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, keeping its code
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    GetCode(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode wraps err under a code
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error chain holds an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the outermost code in the chain. Domain sentinels map
// onto codes; anything else is INTERNAL_ERROR.
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, core.ErrUnsupportedCombination):
		return CodeUnsupported
	case stderrors.Is(err, core.ErrVariableNotFound):
		return CodeNotFound
	case stderrors.Is(err, core.ErrInvalidOption):
		return CodeInvalidInput
	case core.IsPairError(err):
		return CodeDataError
	}
	return CodeInternalError
}

// Predefined error codes
const (
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeDatabaseError = "DATABASE_ERROR"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeNotFound      = "NOT_FOUND"
	CodeUnsupported   = "UNSUPPORTED"
	CodeDataError     = "DATA_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
)

// ExitCode maps an error onto a process exit status
func ExitCode(err error) int {
	switch GetCode(err) {
	case "":
		return 0
	case CodeConfigInvalid, CodeInvalidInput, CodeNotFound, CodeUnsupported:
		return 2
	case CodeDatabaseError:
		return 3
	}
	return 1
}

// Common error constructors
func ConfigInvalid(message string, cause error) *AppError {
	return &AppError{Code: CodeConfigInvalid, Message: message, Cause: cause}
}

func DatabaseError(message string, cause error) *AppError {
	return &AppError{Code: CodeDatabaseError, Message: message, Cause: cause}
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
