// Package domain holds the error taxonomy and shared value types used by the
// service layers. HTTP handlers translate these errors into status codes.
package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DomainError.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindValidation   ErrorKind = "validation"
	KindConflict     ErrorKind = "conflict"
	KindForbidden    ErrorKind = "forbidden"
	KindUnauthorized ErrorKind = "unauthorized"
	KindUpstream     ErrorKind = "upstream"
)

// DomainError is an error carrying a kind that maps onto an HTTP status.
type DomainError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{Kind: KindNotFound, Message: fmt.Sprintf("%s not found: %s", entity, id)}
}

// NewValidationError reports invalid input.
func NewValidationError(msg string) *DomainError {
	return &DomainError{Kind: KindValidation, Message: msg}
}

// NewConflictError reports a uniqueness or concurrency conflict.
func NewConflictError(msg string) *DomainError {
	return &DomainError{Kind: KindConflict, Message: msg}
}

// NewForbiddenError reports an ownership or role violation.
func NewForbiddenError(msg string) *DomainError {
	return &DomainError{Kind: KindForbidden, Message: msg}
}

// NewUnauthorizedError reports missing or bad credentials.
func NewUnauthorizedError(msg string) *DomainError {
	return &DomainError{Kind: KindUnauthorized, Message: msg}
}

// NewUpstreamError reports a failure in an external dependency.
func NewUpstreamError(msg string, err error) *DomainError {
	return &DomainError{Kind: KindUpstream, Message: msg, Err: err}
}

// KindOf returns the kind of the first DomainError in err's chain, or "".
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsNotFound reports whether err is a not-found DomainError.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsConflict reports whether err is a conflict DomainError.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }
