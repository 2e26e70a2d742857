package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an application error.
type Kind string

const (
	KindValidation Kind = "validation"
	KindGateway    Kind = "gateway"
	KindSideEffect Kind = "side_effect"
	KindInternal   Kind = "internal"
)

// Error represents an application error
type Error struct {
	Kind    Kind   `json:"-"`
	Code    int    `json:"-"`
	Message string `json:"error"`
	Details any    `json:"details,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// Validation reports malformed caller input. Never retried.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Code: http.StatusBadRequest, Message: message}
}

// Gateway reports an unusable payment gateway call.
func Gateway(code int, message string, details any, err error) *Error {
	if code == 0 {
		code = http.StatusInternalServerError
	}
	return &Error{Kind: KindGateway, Code: code, Message: message, Details: details, Err: err}
}

// SideEffect wraps a failed best-effort dispatch. These are logged, never returned to callers.
func SideEffect(task string, err error) *Error {
	return &Error{Kind: KindSideEffect, Code: http.StatusInternalServerError, Message: task + " dispatch failed", Err: err}
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: http.StatusInternalServerError, Message: message, Err: err}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// Respond writes err as a JSON body. Errors that are not *Error become a 500.
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = Internal("Internal server error", err)
	}
	c.JSON(appErr.Code, appErr)
}

// UpstreamError is returned when an outbound HTTP call to the gateway or to a
// tracking collaborator answers with a non-2xx status.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s responded %d: %s", e.Service, e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *UpstreamError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
