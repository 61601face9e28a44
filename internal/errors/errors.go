// Package errors provides the domain errors of the book identity service.
//
// Every error the service layer returns is an *Error carrying a machine-readable
// Code. Handlers never inspect messages; they map the Code to an HTTP status.
//
//	if errors.Is(err, errors.ErrDuplicateISBN) {
//	    // 409
//	}
//
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    status := domainErr.HTTPStatus()
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeValidation     Code = "VALIDATION"
	CodeInvalidISBN    Code = "INVALID_ISBN"
	CodeInvalidEdition Code = "INVALID_EDITION"

	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"

	CodeNotFound        Code = "NOT_FOUND"
	CodeBookNotFound    Code = "BOOK_NOT_FOUND"
	CodeEditionNotFound Code = "EDITION_NOT_FOUND"
	CodeReportNotFound  Code = "REPORT_NOT_FOUND"
	CodeGroupNotFound   Code = "GROUP_NOT_FOUND"

	CodeConflict      Code = "CONFLICT"
	CodeDuplicateISBN Code = "DUPLICATE_ISBN"
	CodeAlreadyMerged Code = "ALREADY_MERGED"
	CodeSameBook      Code = "SAME_BOOK"
	CodeReportClosed  Code = "REPORT_CLOSED"

	CodeRateLimited Code = "RATE_LIMITED"

	CodeInternal       Code = "INTERNAL"
	CodeStorageFailure Code = "STORAGE_FAILURE"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation, CodeInvalidISBN, CodeInvalidEdition:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound, CodeBookNotFound, CodeEditionNotFound, CodeReportNotFound, CodeGroupNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeDuplicateISBN, CodeAlreadyMerged, CodeSameBook, CodeReportClosed:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, never serialized
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// Internal reports whether the error should be hidden from callers.
func (e *Error) Internal() bool {
	return e.HTTPStatus() >= http.StatusInternalServerError
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrValidation      = &Error{Code: CodeValidation, Message: "validation error"}
	ErrInvalidISBN     = &Error{Code: CodeInvalidISBN, Message: "invalid ISBN"}
	ErrInvalidEdition  = &Error{Code: CodeInvalidEdition, Message: "ISBN is not an edition of this book"}
	ErrUnauthorized    = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden       = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrNotFound        = &Error{Code: CodeNotFound, Message: "not found"}
	ErrBookNotFound    = &Error{Code: CodeBookNotFound, Message: "book not found"}
	ErrEditionNotFound = &Error{Code: CodeEditionNotFound, Message: "edition not found"}
	ErrReportNotFound  = &Error{Code: CodeReportNotFound, Message: "duplicate report not found"}
	ErrGroupNotFound   = &Error{Code: CodeGroupNotFound, Message: "group not found"}
	ErrConflict        = &Error{Code: CodeConflict, Message: "conflict"}
	ErrDuplicateISBN   = &Error{Code: CodeDuplicateISBN, Message: "ISBN is already attached to a book"}
	ErrAlreadyMerged   = &Error{Code: CodeAlreadyMerged, Message: "book has already been merged"}
	ErrSameBook        = &Error{Code: CodeSameBook, Message: "cannot merge a book into itself"}
	ErrReportClosed    = &Error{Code: CodeReportClosed, Message: "duplicate report is already closed"}
	ErrRateLimited     = &Error{Code: CodeRateLimited, Message: "too many requests"}
	ErrInternal        = &Error{Code: CodeInternal, Message: "internal error"}
	ErrStorageFailure  = &Error{Code: CodeStorageFailure, Message: "storage failure"}
)

// New creates an error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf creates an error with the given code and formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// BookNotFoundf creates a book not found error with formatted message.
func BookNotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeBookNotFound, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// Forbidden creates a forbidden error.
func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Conflictf creates a conflict error with formatted message.
func Conflictf(format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Storage wraps a persistence failure. Domain errors pass through unchanged
// so a typed failure raised inside a transaction keeps its code.
func Storage(err error, msg string) error {
	if err == nil {
		return nil
	}
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return err
	}
	return &Error{Code: CodeStorageFailure, Message: msg, cause: err}
}

// CodeOf returns the code of a domain error, or CodeInternal for anything else.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}
