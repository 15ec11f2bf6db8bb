// Package errs contains the error taxonomy used across layers for stable
// error mapping and user-facing messages.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can branch without string matching.
type Kind int

const (
	// KindUnknown is the zero value for errors produced outside this package.
	KindUnknown Kind = iota

	// KindUnauthenticated indicates no credential is stored; the request was
	// never sent.
	KindUnauthenticated

	// KindSessionExpired indicates the stored credential failed the local
	// expiry check before any network call was made.
	KindSessionExpired

	// KindUnauthorized indicates the server rejected the credential with 401
	// after a call was made.
	KindUnauthorized

	// KindRequestFailed indicates a non-2xx response other than 401; the
	// message carries the server-supplied reason when one was parseable.
	KindRequestFailed

	// KindNetworkUnavailable indicates the transport could not reach the
	// backend at all.
	KindNetworkUnavailable

	// KindValidationFailed indicates a local form-level check failed; these
	// never reach the network layer.
	KindValidationFailed
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindSessionExpired:
		return "session_expired"
	case KindUnauthorized:
		return "unauthorized"
	case KindRequestFailed:
		return "request_failed"
	case KindNetworkUnavailable:
		return "network_unavailable"
	case KindValidationFailed:
		return "validation_failed"
	default:
		return "unknown"
	}
}

// Error pairs a Kind with a human-readable message suitable for direct
// display. It replaces ad-hoc probing of error bodies with a typed result.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error that keeps the underlying cause for errors.Is/As.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the Kind from err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }
