package pkpd

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a validation failure.
type ErrorKind string

const (
	KindUnknownDrug       ErrorKind = "UnknownDrug"
	KindInvalidPhysiology ErrorKind = "InvalidPhysiology"
	KindInvalidDose       ErrorKind = "InvalidDose"
	KindInvalidMIC        ErrorKind = "InvalidMIC"
	KindOutOfRange        ErrorKind = "OutOfRange"
)

// Sentinel errors, one per kind. A *ValidationError unwraps to the sentinel
// of its kind so callers can use errors.Is.
var (
	ErrUnknownDrug       = errors.New("unknown drug")
	ErrInvalidPhysiology = errors.New("invalid physiology")
	ErrInvalidDose       = errors.New("invalid dose")
	ErrInvalidMIC        = errors.New("invalid MIC")
	ErrOutOfRange        = errors.New("value out of range")
)

// ValidationError identifies the offending field of a rejected input.
type ValidationError struct {
	Kind    ErrorKind
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s (got %v)", e.Kind, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error {
	switch e.Kind {
	case KindUnknownDrug:
		return ErrUnknownDrug
	case KindInvalidPhysiology:
		return ErrInvalidPhysiology
	case KindInvalidDose:
		return ErrInvalidDose
	case KindInvalidMIC:
		return ErrInvalidMIC
	default:
		return ErrOutOfRange
	}
}

func newError(kind ErrorKind, field string, value any, format string, args ...any) *ValidationError {
	return &ValidationError{
		Kind:    kind,
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	}
}

// AsValidationError extracts the *ValidationError from err, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
