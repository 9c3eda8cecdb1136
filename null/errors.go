package null

import (
	"errors"
	"strconv"
)

var (
	// ErrAlreadyCustomized is returned when Customize is called a second time
	// on the same builder.
	ErrAlreadyCustomized = errors.New("null: builder already customized")

	// ErrBuilderConsumed is returned when Generate is called on a builder that
	// already produced a type. Builders are single use.
	ErrBuilderConsumed = errors.New("null: builder already generated")

	// ErrNilOperation is returned when Defer or DeferType receives a nil operation.
	ErrNilOperation = errors.New("null: nil operation")

	// ErrNilTarget is returned when Mimic, Impersonate or TargetOf receives no target.
	ErrNilTarget = errors.New("null: nil target type")
)

// ConfigurationError reports misuse of the builder itself.
type ConfigurationError struct {
	// Op is the builder method that failed (e.g. "customize").
	Op  string
	Err error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	// Example: null: customize: null: builder already customized
	return "null: " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying sentinel.
func (e *ConfigurationError) Unwrap() error { return e.Err }

// InvalidTargetError is returned when mimic, impersonate or the registry is
// given a target it cannot use.
type InvalidTargetError struct {
	Op string

	// Target is the target's display name, empty for a nil target.
	Target string

	Err error
}

// Error implements the error interface.
func (e *InvalidTargetError) Error() string {
	// Example: null: mimic: null: nil target type
	if e.Target == "" {
		return "null: " + e.Op + ": " + e.Err.Error()
	}
	return "null: " + e.Op + " " + strconv.Quote(e.Target) + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *InvalidTargetError) Unwrap() error { return e.Err }

// GenerationError wraps a failure while composing the generated type.
//
// Stage is "instance" or "type". Index is the position of the failing
// operation in its list.
type GenerationError struct {
	Stage string
	Index int
	Err   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	// Example: null: generate: type operation 2: boom
	return "null: generate: " + e.Stage + " operation " + strconv.Itoa(e.Index) + ": " + e.Err.Error()
}

// Unwrap returns the operation's error.
func (e *GenerationError) Unwrap() error { return e.Err }

// NoMessageError is returned by Instance.Call for a message that no layer
// handles and no MethodMissing capability catches.
type NoMessageError struct {
	Type    string
	Message string
}

// Error implements the error interface.
func (e *NoMessageError) Error() string {
	// Example: null: NullReader does not respond to "Seek"
	return "null: " + e.Type + " does not respond to " + strconv.Quote(e.Message)
}
