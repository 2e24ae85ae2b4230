// Package common defines shared constants and sentinel errors used across
// repositories, services and the HTTP layer. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal        = errors.New("internal error")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrRoleNotConfigured = errors.New("role not configured")

	// Validation errors.
	ErrValidationFailed        = errors.New("validation failed")
	ErrDuplicateEmail          = errors.New("email already in use")
	ErrDuplicatePhone          = errors.New("phone already in use")
	ErrCurrentPasswordMismatch = errors.New("current password is incorrect")
	ErrPasswordUnchanged       = fmt.Errorf("%w: new password must differ from the current one", ErrValidationFailed)

	// Credential errors.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token errors.
	ErrInvalidToken         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token expired")
	ErrTokenRevoked         = errors.New("token revoked")
	ErrTokenOperationFailed = errors.New("token operation failed")
)

// ValidationError carries per-field messages. It matches ErrValidationFailed
// under errors.Is.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError with a single field message.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Add records msg for field, keeping the first message per field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Empty reports whether no field messages were recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }
