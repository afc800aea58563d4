// Package errors provides standardized error types and helpers for the sqlite-orm codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyExists indicates a resource already exists
	ErrAlreadyExists = errors.New("already exists")
	// ErrClosed indicates an operation on a closed storage
	ErrClosed = errors.New("storage closed")
	// ErrUnsupported indicates an unsupported operation or feature
	ErrUnsupported = errors.New("unsupported")
)

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "table", "row", "column")
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
	Value   string // Value that failed validation (may be redacted)
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

// MappingError represents an invalid table or column mapping
type MappingError struct {
	Table   string // Mapped table name
	Field   string // Struct field or column name, if applicable
	Message string // Why the mapping is invalid
	Err     error  // Underlying error, if any
}

func (e *MappingError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid mapping for %s.%s: %s", e.Table, e.Field, e.Message)
	}
	return fmt.Sprintf("invalid mapping for %s: %s", e.Table, e.Message)
}

func (e *MappingError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// StatementError represents a failed SQL statement execution
type StatementError struct {
	SQL string // Statement that failed
	Err error  // Underlying driver error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement failed: %s: %v", e.SQL, e.Err)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// IntrospectionError represents a failure reading live schema state
type IntrospectionError struct {
	Table string // Table being introspected
	Err   error  // Underlying error
}

func (e *IntrospectionError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("failed to introspect table %s: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("failed to introspect schema: %v", e.Err)
}

func (e *IntrospectionError) Unwrap() error {
	return e.Err
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
	Format  string // Format being parsed (e.g., "schema", "version")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// UnsupportedError represents a feature the linked SQLite engine lacks
type UnsupportedError struct {
	Feature string // Feature that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
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

// NewMapping creates a MappingError
func NewMapping(table, field, message string) *MappingError {
	return &MappingError{
		Table:   table,
		Field:   field,
		Message: message,
	}
}

// NewStatement creates a StatementError
func NewStatement(sql string, err error) *StatementError {
	return &StatementError{
		SQL: sql,
		Err: err,
	}
}

// NewIntrospection creates an IntrospectionError
func NewIntrospection(table string, err error) *IntrospectionError {
	return &IntrospectionError{
		Table: table,
		Err:   err,
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
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
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

// New creates a plain error. Wraps errors.New for convenience.
func New(message string) error {
	return errors.New(message)
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
