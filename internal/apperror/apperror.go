// Package apperror defines the closed error taxonomy shared by the provider
// client, the batch pipeline and the HTTP surface. Every failure that crosses a
// package boundary is classified into exactly one Kind; ad hoc error strings
// stop here.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed enumeration of failure classes.
type Kind string

const (
	KindPaymentRequired Kind = "payment_required"
	KindAuthError       Kind = "auth_error"
	KindRateLimit       Kind = "rate_limit"
	KindNetworkError    Kind = "network_error"
	KindFileNotFound    Kind = "file_not_found"
	KindAccessDenied    Kind = "access_denied"
	KindFileTooLarge    Kind = "file_too_large"
	KindInvalidFormat   Kind = "invalid_format"
	KindCorruptedFile   Kind = "corrupted_file"
	KindMemoryError     Kind = "memory_error"
	KindAnimationError  Kind = "animation_error"
	KindTimeoutError    Kind = "timeout_error"
	KindModelError      Kind = "model_error"
	KindBadRequest      Kind = "bad_request"
	KindNotFound        Kind = "not_found"
	KindUnknown         Kind = "unknown_error"
)

var allKinds = map[Kind]struct{}{
	KindPaymentRequired: {}, KindAuthError: {}, KindRateLimit: {},
	KindNetworkError: {}, KindFileNotFound: {}, KindAccessDenied: {},
	KindFileTooLarge: {}, KindInvalidFormat: {}, KindCorruptedFile: {},
	KindMemoryError: {}, KindAnimationError: {}, KindTimeoutError: {},
	KindModelError: {}, KindBadRequest: {}, KindNotFound: {}, KindUnknown: {},
}

// Valid reports whether k is one of the enumerated kinds.
func (k Kind) Valid() bool {
	_, ok := allKinds[k]
	return ok
}

// HTTPStatus is the status this kind is served with on our own API.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindAuthError:
		return http.StatusUnauthorized
	case KindPaymentRequired:
		return http.StatusPaymentRequired
	case KindAccessDenied:
		return http.StatusForbidden
	case KindFileNotFound, KindNotFound:
		return http.StatusNotFound
	case KindTimeoutError:
		return http.StatusRequestTimeout
	case KindFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindAnimationError, KindCorruptedFile, KindInvalidFormat:
		return http.StatusUnprocessableEntity
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindNetworkError:
		return http.StatusServiceUnavailable
	case KindMemoryError:
		return http.StatusInsufficientStorage
	case KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is the classified error used throughout the module.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error with a detail message.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func Newf(kind Kind, format string, v ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, v...)}
}

// Wrap attaches a kind to an underlying error, keeping it unwrappable.
func Wrap(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// KindOf extracts the kind from any error, classifying unrecognized errors
// through the local-exception rules.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Classify(err).Kind
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
