// Package apperr defines the error taxonomy shared by the order workflows,
// their activities and the HTTP gateway.
//
// Each error kind has a sentinel (for errors.Is) and, where the kind carries
// details, a struct type that unwraps to that sentinel. Code maps an error to
// the result code reported to callers; HTTPStatus maps it to a gateway status.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

var (
	ErrValueIsRequired     = errors.New("value is required")
	ErrValueIsInvalid      = errors.New("value is invalid")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrTransport           = errors.New("transport failure")
	ErrTimeout             = errors.New("request timed out")
	ErrNotificationFailed  = errors.New("notification failed")
	ErrPersistenceFailed   = errors.New("persistence failed")
	ErrDuplicateSubmission = errors.New("duplicate submission")
)

// Application error types attached to activity failures so a workflow can
// tell them apart after they cross the activity boundary.
const (
	TypeNotificationFailed = "NotificationFailed"
	TypePersistenceFailed  = "PersistenceFailed"
)

// ValidationError reports a missing or malformed order field.
type ValidationError struct {
	Field string
	Cause error
	err   error
}

func NewValueIsRequiredError(field string) *ValidationError {
	return &ValidationError{Field: field, err: ErrValueIsRequired}
}

func NewValueIsInvalidError(field string, cause error) *ValidationError {
	return &ValidationError{Field: field, Cause: cause, err: ErrValueIsInvalid}
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %s)", e.err, e.Field, sanitize(e.Cause.Error()))
	}
	return fmt.Sprintf("%s: %s", e.err, e.Field)
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

// AuthorizationError reports an identity key that does not belong to the
// authenticated caller.
type AuthorizationError struct {
	Caller string
	IDKey  string
}

func NewAuthorizationError(caller, idKey string) *AuthorizationError {
	return &AuthorizationError{Caller: caller, IDKey: idKey}
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s: caller %q may not act for %q", ErrNotAuthorized, e.Caller, e.IDKey)
}

func (e *AuthorizationError) Unwrap() error {
	return ErrNotAuthorized
}

// TransportError wraps a failed outbound HTTP call.
type TransportError struct {
	Op    string
	Cause error
}

func NewTransportError(op string, cause error) *TransportError {
	return &TransportError{Op: op, Cause: cause}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.kind(), e.Op, sanitize(e.Cause.Error()))
}

func (e *TransportError) Unwrap() []error {
	return []error{e.kind(), e.Cause}
}

// Timeout reports whether the call was abandoned because a deadline passed.
func (e *TransportError) Timeout() bool {
	return IsTimeout(e.Cause)
}

func (e *TransportError) kind() error {
	if e.Timeout() {
		return ErrTimeout
	}
	return ErrTransport
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Code maps err to the numeric code reported in workflow results.
func Code(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrValueIsRequired), errors.Is(err, ErrValueIsInvalid):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrTimeout):
		return http.StatusRequestTimeout
	case errors.Is(err, ErrTransport):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// HTTPStatus maps err to the status the gateway answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrValueIsRequired), errors.Is(err, ErrValueIsInvalid):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicateSubmission):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func sanitize(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}
