package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure independent of its message.
type Code string

const (
	CodeNotFound       Code = "NOT_FOUND"
	CodeAlreadyDeleted Code = "ALREADY_DELETED"
	CodeForbidden      Code = "FORBIDDEN"
	CodeMuted          Code = "MUTED"
	CodeBlocked        Code = "BLOCKED"
	CodeNotFriends     Code = "NOT_FRIENDS"
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeRateLimited    Code = "RATE_LIMITED"
	CodeNotConfigured  Code = "NOT_CONFIGURED"
	CodeInternal       Code = "INTERNAL"
)

var (
	ErrNotFound       = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyDeleted = &AppError{Code: CodeAlreadyDeleted, Message: "already deleted"}
	ErrForbidden      = &AppError{Code: CodeForbidden, Message: "forbidden"}
	ErrMuted          = &AppError{Code: CodeMuted, Message: "muted"}
	ErrBlocked        = &AppError{Code: CodeBlocked, Message: "blocked"}
	ErrNotFriends     = &AppError{Code: CodeNotFriends, Message: "not friends"}
	ErrValidation     = &AppError{Code: CodeValidation, Message: "validation error"}
	ErrUnauthorized   = &AppError{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrRateLimited    = &AppError{Code: CodeRateLimited, Message: "rate limit exceeded"}
	ErrNotConfigured  = &AppError{Code: CodeNotConfigured, Message: "not configured"}
	ErrInternal       = &AppError{Code: CodeInternal, Message: "internal server error"}
)

// AppError is the error type returned by the service layer. Two AppErrors
// match under errors.Is when their codes are equal, so callers compare
// against the sentinels above regardless of the message.
type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"error"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Status returns the HTTP status attached to the error's code.
func (e *AppError) Status() int {
	return statusByCode(e.Code)
}

func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func NotFound(msg string) error       { return New(CodeNotFound, msg) }
func AlreadyDeleted(msg string) error { return New(CodeAlreadyDeleted, msg) }
func Forbidden(msg string) error      { return New(CodeForbidden, msg) }
func Muted(msg string) error          { return New(CodeMuted, msg) }
func Blocked(msg string) error        { return New(CodeBlocked, msg) }
func NotFriends(msg string) error     { return New(CodeNotFriends, msg) }
func Validation(msg string) error     { return New(CodeValidation, msg) }
func Unauthorized(msg string) error   { return New(CodeUnauthorized, msg) }
func RateLimited(msg string) error    { return New(CodeRateLimited, msg) }

// AsAppError extracts the AppError from err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func HTTPStatusFromError(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Status()
	}
	return http.StatusInternalServerError
}

func statusByCode(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyDeleted, CodeValidation:
		return http.StatusBadRequest
	case CodeForbidden, CodeMuted, CodeBlocked, CodeNotFriends:
		return http.StatusForbidden
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeNotConfigured:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
