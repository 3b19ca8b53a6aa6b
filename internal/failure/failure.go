// Package failure defines the error taxonomy shared by the fetch path,
// the registry and the persistence layer. User guidance is keyed off Kind.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies an error into something an operator can act on.
type Kind int

const (
	// KindOther is any failure without a more specific classification.
	KindOther Kind = iota
	// KindUnauthorized is a 401/403 from an upstream API.
	KindUnauthorized
	// KindRateLimited is a 429 from an upstream API.
	KindRateLimited
	// KindTimeout is a request that exceeded the client timeout.
	KindTimeout
	// KindNetworkUnreachable covers DNS and connect failures.
	KindNetworkUnreachable
	// KindSecretStore is a failed secret store read or write.
	KindSecretStore
	// KindConfigIO is a failed config or session file read or write.
	KindConfigIO
	// KindValidation is rejected input, e.g. a duplicate account name.
	KindValidation
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	case KindNetworkUnreachable:
		return "network_unreachable"
	case KindSecretStore:
		return "secret_store"
	case KindConfigIO:
		return "config_io"
	case KindValidation:
		return "validation"
	default:
		return "other"
	}
}

// Error is a classified error.
type Error struct {
	Kind   Kind
	Op     string
	Detail string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Detail
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an Error of the given kind with a formatted detail.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error of the given kind wrapping err.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindOther.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindOther
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Guidance returns the short operator-facing text for err.
func Guidance(err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case KindUnauthorized:
		return "Expired — re-import (i)"
	case KindRateLimited:
		return "Rate limited — try later"
	case KindTimeout:
		return "Timeout"
	case KindNetworkUnreachable:
		return "No network"
	case KindSecretStore:
		return "No token cached — re-import (i)"
	default:
		var fe *Error
		if errors.As(err, &fe) && fe.Detail != "" {
			return fe.Detail
		}
		return err.Error()
	}
}
