package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound = errors.New("input file not found")

	ErrSchemaMismatch = errors.New("schema mismatch")

	ErrCoercion = errors.New("coercion failed")

	ErrStorage = errors.New("storage error")

	ErrInvalidConfig = errors.New("invalid configuration")
)

// SchemaError lists the required columns absent from an input header
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

func NewSchemaError(missing []string) error {
	return fmt.Errorf("%w: %w", ErrSchemaMismatch, &SchemaError{Missing: missing})
}

// CoercionError describes a single field that could not be converted to its target type
type CoercionError struct {
	Field string
	Value string
	Line  int
}

func (e *CoercionError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: cannot convert %q for field '%s'", e.Line, e.Value, e.Field)
	}
	return fmt.Sprintf("cannot convert %q for field '%s'", e.Value, e.Field)
}

func (e *CoercionError) Unwrap() error {
	return ErrCoercion
}

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func WrapStorageError(cause error, message string) error {
	return &AppError{
		Code:    "STORAGE_ERROR",
		Message: message,
		Cause:   fmt.Errorf("%w: %w", ErrStorage, cause),
	}
}

func NewNotFoundError(path string, cause error) error {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("cannot read %s", path),
		Cause:   fmt.Errorf("%w: %w", ErrNotFound, cause),
	}
}

func NewConfigError(field, message string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, message)
}
