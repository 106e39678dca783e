package service

import (
	"errors"
	"fmt"
)

const (
	// ErrInternalServerError means that an internal server error has occurred.
	ErrInternalServerError = "internal_server_error"
	// ErrEntityNotFound means that record or row is absent in repository or storage.
	ErrEntityNotFound = "entity_not_found"
	// ErrBadParameter means that provided parameter does not match declared.
	ErrBadParameter = "bad_parameter"
	// ErrUnauthorized means that the request carried no or wrong credentials.
	ErrUnauthorized = "unauthorized"
	// ErrReplicationDelivery means that a peer did not accept a replication request.
	// Transient: callers retry with backoff and eventually drop the payload.
	ErrReplicationDelivery = "replication_delivery_failed"
	// ErrInvariantViolation means that the lease store found itself in a state it must never reach.
	// The offending operation is aborted.
	ErrInvariantViolation = "invariant_violation"
)

// MyError represents an error within the context of the discovery server.
type MyError struct {
	// Code is a machine-readable code.
	Code string `json:"code,omitempty"`
	// Message is a human-readable message.
	Message string `json:"message"`
	// Inner is a wrapped error that is never shown to API consumers.
	Inner error `json:"-"`
}

// NewMyError creates a new MyError.
func NewMyError(code string, message string, inner error) *MyError {
	return &MyError{
		Code:    code,
		Message: message,
		Inner:   inner,
	}
}

// adoptOrNew returns the MyError already wrapped by inner, keeping the most specific code, or a new one.
func adoptOrNew(code, message string, inner error) *MyError {
	if myInner := ToMyError(inner); myInner != nil {
		return myInner
	}
	return NewMyError(code, message, inner)
}

func NewInternalServerError(message string, inner error) *MyError {
	return adoptOrNew(ErrInternalServerError, message, inner)
}

func NewEntityNotFoundError(message string, inner error) *MyError {
	return adoptOrNew(ErrEntityNotFound, message, inner)
}

func NewBadParameterError(message string, inner error) *MyError {
	return adoptOrNew(ErrBadParameter, message, inner)
}

func NewReplicationDeliveryError(message string, inner error) *MyError {
	return adoptOrNew(ErrReplicationDelivery, message, inner)
}

// NewInvariantViolationError never adopts the code of inner.
func NewInvariantViolationError(message string, inner error) *MyError {
	return NewMyError(ErrInvariantViolation, message, inner)
}

func (e MyError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("%s %s: %v", e.Code, e.Message, e.Inner)
	}

	return fmt.Sprintf("%s %s", e.Code, e.Message)
}

// Unwrap the error returning the error's reason.
func (e MyError) Unwrap() error {
	return e.Inner
}

// ToMyError returns a pointer to a MyError, or nil if err does not wrap one.
func ToMyError(err error) *MyError {
	var e *MyError
	if errors.As(err, &e) {
		return e
	}

	return nil
}

// ToMyErrorCode returns the code of the error, if available.
func ToMyErrorCode(err error) string {
	if myErr := ToMyError(err); myErr != nil {
		return myErr.Code
	}
	return ""
}

// IsMyError reports whether err wraps a MyError with the given code.
func IsMyError(err error, code string) bool {
	return code != "" && ToMyErrorCode(err) == code
}

func IsInternalServerError(err error) bool {
	return IsMyError(err, ErrInternalServerError)
}

func IsEntityNotFoundError(err error) bool {
	return IsMyError(err, ErrEntityNotFound)
}

func IsBadParameterError(err error) bool {
	return IsMyError(err, ErrBadParameter)
}

func IsReplicationDeliveryError(err error) bool {
	return IsMyError(err, ErrReplicationDelivery)
}

func IsInvariantViolationError(err error) bool {
	return IsMyError(err, ErrInvariantViolation)
}
