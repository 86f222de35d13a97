package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies every error the application surfaces to callers.
type Kind int

const (
	// KindStoreFailure is the zero value so unclassified errors degrade to a store failure.
	KindStoreFailure Kind = iota
	KindValidation
	KindNoValidNames
	KindDuplicateCode
	KindNotFound
	KindUnauthorized
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindNoValidNames:
		return "NoValidNames"
	case KindDuplicateCode:
		return "DuplicateCode"
	case KindNotFound:
		return "NotFound"
	case KindUnauthorized:
		return "Unauthorized"
	case KindStoreFailure:
		return "StoreFailure"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Code returns the machine readable error code for the kind.
func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindNoValidNames:
		return "NO_VALID_NAMES"
	case KindDuplicateCode:
		return "DUPLICATE_CODE"
	case KindNotFound:
		return "NOT_FOUND"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	default:
		return "STORE_FAILURE"
	}
}

// Status maps the kind onto an HTTP status.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindNoValidNames:
		return http.StatusBadRequest
	case KindDuplicateCode:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// MarshalText renders the kind as its wire name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Kind    Kind                   `json:"kind"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors of the same kind so callers can use errors.Is against the predefined values.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// WithDetail returns a copy carrying an extra structured detail.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Details = make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		clone.Details[k] = v
	}
	clone.Details[key] = value
	return &clone
}

// New creates a new Error instance for the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Code: kind.Code(), Status: kind.Status(), Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Code: kind.Code(), Status: kind.Status(), Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrValidation    = New(KindValidation, "validation failed")
	ErrNoValidNames  = New(KindNoValidNames, "no valid student names found")
	ErrDuplicateCode = New(KindDuplicateCode, "student code already used")
	ErrNotFound      = New(KindNotFound, "resource not found")
	ErrUnauthorized  = New(KindUnauthorized, "unauthorized")
	ErrStoreFailure  = New(KindStoreFailure, "internal server error")
	ErrCacheMiss     = errors.New("cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, KindStoreFailure, ErrStoreFailure.Message)
}

// KindOf reports the kind of err, treating foreign errors as store failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStoreFailure
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
