// Package errors provides the error taxonomy shared by the corpus, matcher and
// source packages.
//
// Wrapping and inspection helpers are re-exported from
// github.com/cockroachdb/errors so callers get stack traces and hints without
// importing two error packages.
package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a book, chapter or source was not found
	ErrNotFound = crdb.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = crdb.New("invalid input")
	// ErrSourceUnavailable indicates the raw text of a source could not be acquired
	ErrSourceUnavailable = crdb.New("source unavailable")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = crdb.New("unsupported")
)

// Re-exported wrapping and inspection helpers.
var (
	New      = crdb.New
	Newf     = crdb.Newf
	WithHint = crdb.WithHint
	Is       = crdb.Is
	As       = crdb.As
	Unwrap   = crdb.Unwrap
	GetHints = crdb.GetAllHints
)

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "book", "source", "chapter")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// SourceUnavailableError is returned when a raw-text provider fails. It is
// fatal to the corpus build that requested the source.
type SourceUnavailableError struct {
	SourceID string // Translation code or custom-import id
	Origin   string // URL, path or store that was consulted
	Err      error  // Underlying transport or I/O error
}

func (e *SourceUnavailableError) Error() string {
	if e.Origin != "" {
		return fmt.Sprintf("source %s unavailable from %s: %v", e.SourceID, e.Origin, e.Err)
	}
	return fmt.Sprintf("source %s unavailable: %v", e.SourceID, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// Is matches ErrSourceUnavailable.
func (e *SourceUnavailableError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "reference", "zefania")
	Input   string // Offending input, if short enough to be useful
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("failed to parse %s %q: %s", e.Format, e.Input, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	return ErrUnsupported
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewSourceUnavailable creates a SourceUnavailableError
func NewSourceUnavailable(sourceID, origin string, err error) *SourceUnavailableError {
	return &SourceUnavailableError{
		SourceID: sourceID,
		Origin:   origin,
		Err:      err,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, input, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Input:   input,
		Message: message,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return crdb.Wrap(err, message)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return crdb.Wrapf(err, format, args...)
}
