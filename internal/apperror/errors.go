package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error so the gateway can marshal it into a
// client-visible envelope without inspecting messages.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindInvalidFilter     Kind = "invalid_filter"
	KindNotAllowed        Kind = "not_allowed"
	KindInvalidInviteCode Kind = "invalid_invite_code"
	KindValidation        Kind = "validation"
	KindInternal          Kind = "internal"
)

// Error is the single error type crossing service boundaries. Args carry
// structured detail (entity name, id) for the client envelope.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Args    []any  `json:"args,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NotFound(entity string, id any) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", entity),
		Args:    []any{entity, id},
	}
}

func InvalidInput(format string, args ...any) *Error {
	return &Error{
		Kind:    KindInvalidInput,
		Message: fmt.Sprintf(format, args...),
	}
}

func InvalidFilter(attr string) *Error {
	return &Error{
		Kind:    KindInvalidFilter,
		Message: fmt.Sprintf("received invalid filter %q", attr),
		Args:    []any{attr},
	}
}

func NotAllowed(format string, args ...any) *Error {
	return &Error{
		Kind:    KindNotAllowed,
		Message: fmt.Sprintf(format, args...),
	}
}

func InvalidInviteCode() *Error {
	return &Error{
		Kind:    KindInvalidInviteCode,
		Message: "invite code is invalid or expired",
	}
}

func Validation(format string, args ...any) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// Internal masks unexpected failures; the cause stays in the server
// log, never in the client envelope.
func Internal(message string) *Error {
	return &Error{
		Kind:    KindInternal,
		Message: message,
	}
}

// From extracts an *Error from err's chain, nil if none.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	appErr := From(err)
	return appErr != nil && appErr.Kind == kind
}
