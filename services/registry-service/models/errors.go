package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidTransition guards the workflow: the requested status is not
	// reachable from the record's current one.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrSessionExpired means an owner-scoped operation ran without an identity.
	ErrSessionExpired = errors.New("session expired, please sign in again")
	ErrForbidden      = errors.New("administrator privileges required")
	ErrNotFound       = errors.New("record not found")
)

// Field names a validated input field.
type Field string

const (
	FieldNIK          Field = "nik"
	FieldFullName     Field = "full_name"
	FieldBirthDate    Field = "birth_date"
	FieldDocumentType Field = "document_type"
	FieldPurpose      Field = "purpose"
	FieldRejectReason Field = "reject_reason"
	FieldTargetStatus Field = "status"
	FieldIDs          Field = "ids"
)

// FieldErrors maps a field to the reason it failed.
type FieldErrors map[Field]string

// ValidationError blocks a submission or transition; it is shown per field.
type ValidationError struct {
	Fields FieldErrors
}

func NewValidationError(field Field, reason string) *ValidationError {
	return &ValidationError{Fields: FieldErrors{field: reason}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		keys = append(keys, string(f))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[Field(k)])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// StoreError wraps a failure from an identity, submission or blob store.
type StoreError struct {
	Op  string
	Err error
}

const genericStoreMessage = "something went wrong, please try again"

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message())
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Message is the collaborator's message verbatim, or a generic fallback.
func (e *StoreError) Message() string {
	if e.Err == nil || strings.TrimSpace(e.Err.Error()) == "" {
		return genericStoreMessage
	}
	return e.Err.Error()
}

func IsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
