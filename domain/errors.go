package domain

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrStoreUnavailable marks failures reaching the record store.
	ErrStoreUnavailable = errors.New("record store unavailable")
	// ErrFeatureUnavailable marks a missing optional function or table.
	ErrFeatureUnavailable = errors.New("optional feature unavailable")
	ErrNotFound           = errors.New("record not found")
	ErrValidation         = errors.New("validation failed")
	ErrUnknownClass       = errors.New("unknown class")
	ErrClassInUse         = errors.New("class still has students")
	// ErrReminderClosed marks a transition on a reminder that is no longer pending.
	ErrReminderClosed     = errors.New("reminder is no longer pending")
	ErrChannelUnavailable = errors.New("delivery channel unavailable")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// StoreError wraps a driver error from the record store. It matches
// ErrStoreUnavailable with errors.Is.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(fields ...FieldError) error {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Error)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
