package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Request errors: fatal, reported before any computation starts
	ErrUnsupportedCombination = errors.New("unsupported method/option combination")
	ErrVariableNotFound       = errors.New("variable not found")
	ErrInvalidOption          = errors.New("invalid option")

	// Per-pair numeric errors: degrade to NA rows
	ErrDegenerateVariance = errors.New("zero variance")
	ErrInsufficientData   = errors.New("insufficient data for analysis")
	ErrModelConvergence   = errors.New("model failed to converge")
)

// ErrorKind is the stable label attached to NA rows.
type ErrorKind string

const (
	KindNone                   ErrorKind = ""
	KindDegenerateVariance     ErrorKind = "DegenerateVarianceError"
	KindInsufficientData       ErrorKind = "InsufficientDataError"
	KindModelConvergence       ErrorKind = "ModelConvergenceError"
	KindUnsupportedCombination ErrorKind = "UnsupportedCombinationError"
	KindInternal               ErrorKind = "InternalError"
)

// Error constructors with context
func NewUnsupportedError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedCombination, fmt.Sprintf(format, args...))
}

func NewVariableNotFoundError(name string) error {
	return fmt.Errorf("%w: %s", ErrVariableNotFound, name)
}

func NewInvalidOptionError(option string, reason string) error {
	return fmt.Errorf("%w %s: %s", ErrInvalidOption, option, reason)
}

func NewDegenerateError(variable string) error {
	return fmt.Errorf("%w in %s", ErrDegenerateVariance, variable)
}

func NewInsufficientDataError(n int) error {
	return fmt.Errorf("%w: %d complete observations, need at least 3", ErrInsufficientData, n)
}

func NewConvergenceError(model string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrModelConvergence, model)
	}
	return fmt.Errorf("%w: %s: %v", ErrModelConvergence, model, err)
}

// KindOf maps an error to the label used in result rows.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrDegenerateVariance):
		return KindDegenerateVariance
	case errors.Is(err, ErrInsufficientData):
		return KindInsufficientData
	case errors.Is(err, ErrModelConvergence):
		return KindModelConvergence
	case errors.Is(err, ErrUnsupportedCombination):
		return KindUnsupportedCombination
	default:
		return KindInternal
	}
}

// Error checking helpers
func IsRequestError(err error) bool {
	return errors.Is(err, ErrUnsupportedCombination) ||
		errors.Is(err, ErrVariableNotFound) ||
		errors.Is(err, ErrInvalidOption)
}

func IsPairError(err error) bool {
	return errors.Is(err, ErrDegenerateVariance) ||
		errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrModelConvergence)
}
