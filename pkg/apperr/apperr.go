// Package apperr defines the error kinds that cross component boundaries and
// how each kind is presented over HTTP.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the HTTP layer.
type Kind int

const (
	KindUnknown Kind = iota
	KindMissingField
	KindInvalid
	KindInvalidTimestamp
	KindNotFound
	KindConflict
	KindStoreFailure
)

func (k Kind) String() string {
	switch k {
	case KindMissingField:
		return "missing_field"
	case KindInvalid:
		return "invalid"
	case KindInvalidTimestamp:
		return "invalid_timestamp"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindStoreFailure:
		return "store_failure"
	default:
		return "unknown"
	}
}

// Error carries a Kind, a client-safe Message and an optional wrapped cause
// that is only ever logged.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// MissingField reports an absent required request field.
func MissingField(field string) *Error {
	return &Error{Kind: KindMissingField, Field: field, Message: "Missing required field"}
}

// Invalid reports a present but unacceptable request value.
func Invalid(field, msg string) *Error {
	return &Error{Kind: KindInvalid, Field: field, Message: msg}
}

// InvalidTimestamp reports a timestamp outside the supported calendar range.
func InvalidTimestamp(ts int64) *Error {
	return &Error{Kind: KindInvalidTimestamp, Message: fmt.Sprintf("timestamp %d is out of range", ts)}
}

// NotFound reports that the referenced resource does not exist.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

// Conflict reports a request that contradicts current state.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Store wraps an underlying storage failure. The cause never reaches clients.
func Store(op string, err error) *Error {
	return &Error{Kind: KindStoreFailure, Message: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps a Kind to its response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindMissingField, KindInvalid, KindInvalidTimestamp:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text a client may see for err. Storage and unknown
// failures collapse to a generic message.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "internal error"
	}
	switch e.Kind {
	case KindStoreFailure, KindUnknown:
		return "internal error"
	}
	return e.Message
}
