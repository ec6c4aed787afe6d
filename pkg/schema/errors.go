package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a single problem in one node definition.
type ValidationError struct {
	Node   string // Node ID
	Key    string // Field or slot name, optional
	Reason string // Human-readable reason for failure
	Value  any    // The offending value, optional
	Err    error  // Sentinel from package domain, optional
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "node %q", e.Node)
	if e.Key != "" {
		fmt.Fprintf(&b, " field %q", e.Key)
	}
	b.WriteString(": ")
	switch {
	case e.Reason != "":
		b.WriteString(e.Reason)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	}
	if e.Value != nil {
		fmt.Fprintf(&b, " (got %v)", e.Value)
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap exposes every failure to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error { return e.Errors }

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
