// Package errors provides custom error types for catalog operations.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateID        = errors.New("duplicate product id")
	ErrDeleteNotRequested = errors.New("deletion was not requested")
	// ErrStorageRead is logged and recovered from, it never reaches API callers.
	ErrStorageRead = errors.New("storage read failed")
	// ErrStorageWrite means the change is live in memory but was not persisted.
	ErrStorageWrite = errors.New("storage write failed")
	// ErrSlotEmpty is returned by slots that hold no value for the requested key.
	ErrSlotEmpty = errors.New("slot is empty")
)

// ValidationError carries a message per offending field.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a ValidationError from field messages.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
