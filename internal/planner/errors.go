package planner

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when a plan request carries no modules.
	ErrEmptyInput = errors.New("no training modules provided")

	// ErrMissingManualParameters is returned when manual mode lacks a
	// positive num_days or hours_per_day.
	ErrMissingManualParameters = errors.New("specify num_days and hours_per_day in manual mode")

	// ErrInvalidMode is returned for any plan mode other than auto or manual.
	ErrInvalidMode = errors.New("plan_mode must be \"auto\" or \"manual\"")

	// ErrInvalidModule is returned when a module has no title or a
	// non-positive duration.
	ErrInvalidModule = errors.New("invalid training module")
)

// ValidationError describes a rejected plan request. Kind is one of the
// sentinel errors above so callers can match with errors.Is.
type ValidationError struct {
	Kind   error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Detail)
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// Code returns a stable machine-readable code for the failure.
func (e *ValidationError) Code() string {
	switch e.Kind {
	case ErrEmptyInput:
		return "EMPTY_INPUT"
	case ErrMissingManualParameters:
		return "MISSING_MANUAL_PARAMETERS"
	case ErrInvalidMode:
		return "INVALID_MODE"
	case ErrInvalidModule:
		return "INVALID_MODULE"
	default:
		return "VALIDATION_ERROR"
	}
}

func invalid(kind error, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
