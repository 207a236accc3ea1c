package apperrors

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSchemaError(t *testing.T) {
	err := NewSchemaError([]string{"Loan Amount", "EMI"})

	assert.True(t, errors.Is(err, ErrSchemaMismatch))

	var schemaErr *SchemaError
	assert.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"Loan Amount", "EMI"}, schemaErr.Missing)
	assert.Contains(t, err.Error(), "missing required columns: Loan Amount, EMI")
}

func TestCoercionError(t *testing.T) {
	err := &CoercionError{Field: "Loan Amount", Value: "abc", Line: 7}

	assert.True(t, errors.Is(err, ErrCoercion))
	assert.Equal(t, `line 7: cannot convert "abc" for field 'Loan Amount'`, err.Error())

	noLine := &CoercionError{Field: "EMI", Value: "x"}
	assert.Equal(t, `cannot convert "x" for field 'EMI'`, noLine.Error())
}

func TestWrapStorageError(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapStorageError(cause, "insert failed")

	assert.True(t, errors.Is(err, ErrStorage))
	assert.True(t, errors.Is(err, cause))

	var appErr *AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "STORAGE_ERROR", appErr.Code)
	assert.Contains(t, err.Error(), "[STORAGE_ERROR] insert failed")
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("missing.csv", os.ErrNotExist)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.False(t, errors.Is(err, ErrStorage))
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("storage.driver", "unknown driver \"mysql\"")

	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Equal(t, "invalid configuration: storage.driver: unknown driver \"mysql\"", err.Error())
}
