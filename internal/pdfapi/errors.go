package pdfapi

import (
	"errors"
	"fmt"
)

// Sentinel errors for request construction. The typed errors below unwrap to these.
var (
	ErrMissingParameter     = errors.New("missing parameter")
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// MissingParameterError reports a parameter that the active operation or
// split strategy requires but the item did not supply.
type MissingParameterError struct {
	Name   string
	Reason string // optional detail, e.g. "must not be empty"
}

func (e *MissingParameterError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("missing required parameter '%s': %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("missing required parameter '%s'", e.Name)
}

func (e *MissingParameterError) Unwrap() error { return ErrMissingParameter }

// UnsupportedOperationError reports a value outside a known variant set.
// Kind names the variant set ("operation", "split type", "output format").
type UnsupportedOperationError struct {
	Kind  string
	Value string
}

func (e *UnsupportedOperationError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "operation"
	}
	return fmt.Sprintf("unsupported %s: '%s'", kind, e.Value)
}

func (e *UnsupportedOperationError) Unwrap() error { return ErrUnsupportedOperation }
