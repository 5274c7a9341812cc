// Package errors provides standardized error handling for the conversion
// pipeline. It includes error classification, standard error variables, and
// helper functions for consistent error wrapping across the engine and the
// pipeline layer.
package errors

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of errors for handling purposes.
type ErrorClass int

const (
	// ErrorMissing represents a missing source file, companion file, or
	// required metadata field. Not retryable; the affected output is skipped.
	ErrorMissing ErrorClass = iota
	// ErrorInvalid represents errors due to malformed input data or
	// configuration.
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors that should stop the run.
	ErrorFatal
)

// String returns the string representation of ErrorClass.
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorMissing:
		return "missing"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions.
var (
	// Input errors
	ErrMissingInput     = errors.New("source file does not exist")
	ErrMissingCompanion = errors.New("required companion file not supplied")
	ErrNotDICOM         = errors.New("file is not a parseable DICOM dataset")

	// Resolution errors
	ErrMissingField   = errors.New("required field absent from entry table")
	ErrNoMappingRule  = errors.New("no mapping rule declared for designated tag")
	ErrUnknownRole    = errors.New("companion role not recognized")
	ErrEmptyMappedTag = errors.New("mapped tag resolved to an empty value")

	// Pixel and shape errors
	ErrShapeMismatch  = errors.New("pixel array shape mismatch")
	ErrSegmentCount   = errors.New("segment count disagreement between companions")
	ErrMissingPayload = errors.New("pixel payload absent from source file")

	// Configuration errors
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrMissingConfig  = errors.New("missing required configuration")
	ErrUnknownDevice  = errors.New("device family not registered")
	ErrUnknownProfile = errors.New("conversion profile not registered")
)

// ClassifiedError wraps an error with its classification.
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface.
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error.
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsMissing checks if an error is a missing-input or missing-field error.
func IsMissing(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorMissing
	}

	return errors.Is(err, ErrMissingInput) ||
		errors.Is(err, ErrMissingCompanion) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrMissingPayload) ||
		errors.Is(err, ErrNoMappingRule)
}

// IsInvalid checks if an error is due to invalid input data.
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}

	return errors.Is(err, ErrNotDICOM) ||
		errors.Is(err, ErrShapeMismatch) ||
		errors.Is(err, ErrSegmentCount) ||
		errors.Is(err, ErrEmptyMappedTag)
}

// IsFatal checks if an error should stop the whole run.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}

	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingConfig) ||
		errors.Is(err, ErrUnknownDevice) ||
		errors.Is(err, ErrUnknownProfile)
}

// Classify returns the error class for an error. Unknown errors classify as
// invalid so one bad file never stops the batch.
func Classify(err error) ErrorClass {
	if IsMissing(err) {
		return ErrorMissing
	}
	if IsFatal(err) {
		return ErrorFatal
	}
	return ErrorInvalid
}

// newClassified creates a new classified error.
// Internal helper - use WrapMissing(), WrapInvalid(), or WrapFatal() instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapMissing wraps an error as a missing-input/missing-field error with context.
func WrapMissing(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return newClassified(ErrorMissing, err, component, method,
		fmt.Sprintf("%s.%s: %s failed: %v", component, method, action, err))
}

// WrapInvalid wraps an error as an invalid-data error with context.
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return newClassified(ErrorInvalid, err, component, method,
		fmt.Sprintf("%s.%s: %s failed: %v", component, method, action, err))
}

// WrapFatal wraps an error as fatal with context.
func WrapFatal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return newClassified(ErrorFatal, err, component, method,
		fmt.Sprintf("%s.%s: %s failed: %v", component, method, action, err))
}

// New creates a new error. Provided so callers don't need to import both this
// package and the standard library errors package.
func New(text string) error {
	return errors.New(text)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
