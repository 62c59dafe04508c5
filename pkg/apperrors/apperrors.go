package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers and the HTTP layer can branch on it
// without parsing messages.
type Kind string

const (
	KindUnauthenticated    Kind = "unauthenticated"
	KindUnauthorized       Kind = "unauthorized"
	KindNotFound           Kind = "not_found"
	KindInvalidState       Kind = "invalid_state"
	KindExpired            Kind = "expired"
	KindAlreadyJoined      Kind = "already_joined"
	KindFull               Kind = "full"
	KindDuplicateAnswer    Kind = "duplicate_answer"
	KindInvalidSelection   Kind = "invalid_selection"
	KindQuotaExceeded      Kind = "quota_exceeded"
	KindContentUnavailable Kind = "content_unavailable"
	KindDataIntegrity      Kind = "data_integrity"
	KindInvalidRequest     Kind = "invalid_request"
	KindInternal           Kind = "internal_error"
)

// Error carries a kind, a human-readable message and optional structured
// details (e.g. the effective quota limit) for the presentation layer.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return e.Message + ": " + e.wrapped.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.wrapped }

// E builds an error of the given kind.
func E(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), wrapped: err}
}

// WithDetails builds an error carrying structured context.
func WithDetails(kind Kind, details map[string]any, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Details: details}
}

// KindOf extracts the kind from err, or KindInternal for plain errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// DetailsOf returns the structured details attached to err, if any.
func DetailsOf(err error) map[string]any {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Details
	}
	return nil
}
