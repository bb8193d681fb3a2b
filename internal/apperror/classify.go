package apperror

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// responseBody is the shared error body shape `{error, details, errorType}`
// produced by our API and by well-behaved provider proxies.
type responseBody struct {
	Error     string `json:"error"`
	Details   string `json:"details"`
	ErrorType string `json:"errorType"`
}

// FromStatus maps an HTTP status to a kind via the fixed table.
func FromStatus(status int) Kind {
	switch status {
	case 401:
		return KindAuthError
	case 402:
		return KindPaymentRequired
	case 403:
		return KindAccessDenied
	case 404:
		return KindFileNotFound
	case 408:
		return KindTimeoutError
	case 413:
		return KindFileTooLarge
	case 422:
		return KindAnimationError
	case 429:
		return KindRateLimit
	case 503:
		return KindNetworkError
	case 507:
		return KindMemoryError
	default:
		return KindUnknown
	}
}

// ClassifyResponse classifies a non-2xx HTTP response. An errorType supplied in
// the body wins over the status table, but only if it names a known kind.
// The status table applies regardless of how malformed the body is.
func ClassifyResponse(status int, body []byte) *Error {
	var rb responseBody
	_ = json.Unmarshal(body, &rb)

	kind := FromStatus(status)
	if rb.ErrorType != "" && Kind(rb.ErrorType).Valid() {
		kind = Kind(rb.ErrorType)
	}

	detail := rb.Details
	if detail == "" {
		detail = rb.Error
	}
	if detail == "" {
		detail = "request failed with status " + strconv.Itoa(status)
	}
	return New(kind, detail)
}

// Classify maps a local error (no HTTP status available) to a classified error
// by matching known substrings before defaulting to unknown_error.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	// Both context terminations count as timeouts: an abandoned operation and
	// an expired one look the same to the caller.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Wrap(KindTimeoutError, "operation timed out", err)
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return Wrap(KindTimeoutError, "operation timed out", err)
	case strings.Contains(msg, "network") || strings.Contains(msg, "fetch") ||
		strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host"):
		return Wrap(KindNetworkError, "network request failed", err)
	default:
		return Wrap(KindUnknown, "unexpected error", err)
	}
}
