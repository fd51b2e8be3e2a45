package parsing

import (
	"fmt"
	"strings"
)

// InterpretationErrorKind classifies interpretation problems
type InterpretationErrorKind string

const (
	// KindNoValidStructure means no usable structure was found; callers fall back
	KindNoValidStructure InterpretationErrorKind = "no_valid_structure"
	// KindMissingRequiredField means fields were absent and defaulted; the result is still usable
	KindMissingRequiredField InterpretationErrorKind = "missing_required_field"
)

// InterpretationError describes why a response could not be fully interpreted
type InterpretationError struct {
	Kind    InterpretationErrorKind
	Shape   Shape
	Message string
	Fields  []string
	Cause   error
}

func (e *InterpretationError) Error() string {
	msg := fmt.Sprintf("interpretation error (%s, %s): %s", e.Kind, e.Shape, e.Message)
	if len(e.Fields) > 0 {
		msg += " [" + strings.Join(e.Fields, ", ") + "]"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *InterpretationError) Unwrap() error {
	return e.Cause
}

func noStructure(shape Shape, msg string, cause error) *InterpretationError {
	return &InterpretationError{Kind: KindNoValidStructure, Shape: shape, Message: msg, Cause: cause}
}

// MissingFields reports defaulted fields of a result as a recoverable error, or nil.
func MissingFields(r ParsedResult) error {
	fields := r.DefaultedFields()
	if len(fields) == 0 {
		return nil
	}
	return &InterpretationError{
		Kind:    KindMissingRequiredField,
		Shape:   r.Shape(),
		Message: "fields were missing or malformed and have been defaulted",
		Fields:  fields,
	}
}
