package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType categorizes failures across the distance pipeline.
type ErrorType string

const (
	// ErrorTypeConfiguration covers unrecognized metric tags, bad
	// dimensions or slice lengths, undersized workspaces and invalid
	// harness state transitions.
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeAllocation covers failures to acquire input, output or
	// workspace memory.
	ErrorTypeAllocation ErrorType = "allocation"
	// ErrorTypeComputation covers kernel execution failures, including
	// cancellation mid-dispatch and adapter-reported faults.
	ErrorTypeComputation ErrorType = "computation"
	// ErrorTypeTolerance means reference and under-test outputs disagree
	// beyond the configured tolerance.
	ErrorTypeTolerance ErrorType = "tolerance"
)

// StructuredError provides rich error context
type StructuredError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
	Context   map[string]interface{}
	Stack     []uintptr
}

// Error implements the error interface
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Operation, e.Message)
}

// Unwrap returns the underlying cause
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a new structured error
func New(errType ErrorType, operation, message string) *StructuredError {
	return &StructuredError{
		Type:      errType,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, operation, message string) *StructuredError {
	if err == nil {
		return nil
	}
	return &StructuredError{
		Type:      errType,
		Operation: operation,
		Message:   message,
		Cause:     err,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
	}
}

// WithContext adds context information to an error
func (e *StructuredError) WithContext(key string, value interface{}) *StructuredError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsType reports whether err or any error in its chain is a StructuredError
// of the given type.
func IsType(err error, errType ErrorType) bool {
	var se *StructuredError
	for errors.As(err, &se) {
		if se.Type == errType {
			return true
		}
		err = se.Cause
		se = nil
	}
	return false
}

// captureStack captures the current stack trace
func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(2, pcs[:]) // Skip this function and caller
	return pcs[:n]
}

// Common error constructors for frequent use cases

// NewConfigurationError creates a configuration error
func NewConfigurationError(operation, message string) *StructuredError {
	return New(ErrorTypeConfiguration, operation, message)
}

// NewAllocationError creates an allocation error
func NewAllocationError(operation, message string) *StructuredError {
	return New(ErrorTypeAllocation, operation, message)
}

// NewComputationError creates a computation error
func NewComputationError(operation, message string) *StructuredError {
	return New(ErrorTypeComputation, operation, message)
}

// NewToleranceError creates a tolerance violation error
func NewToleranceError(operation, message string) *StructuredError {
	return New(ErrorTypeTolerance, operation, message)
}

// WrapConfigurationError wraps an error as a configuration error
func WrapConfigurationError(err error, operation, message string) *StructuredError {
	return Wrap(err, ErrorTypeConfiguration, operation, message)
}

// WrapAllocationError wraps an error as an allocation error
func WrapAllocationError(err error, operation, message string) *StructuredError {
	return Wrap(err, ErrorTypeAllocation, operation, message)
}

// WrapComputationError wraps an error as a computation error
func WrapComputationError(err error, operation, message string) *StructuredError {
	return Wrap(err, ErrorTypeComputation, operation, message)
}
