// Package domainerrors defines coded errors shared by services and transports.
//
// Services return *Error values so transports can map a failure to a status
// without string matching. Stores never return these; they return sentinel
// errors (pkg/platform/sentinel) which services translate.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for callers and transports.
type Code string

// Generic codes.
const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeInvariantViolation Code = "invariant_violation"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
)

// Registration and workflow codes. Each is a business-rule violation that a
// user-facing message can be built from; none is ever silently corrected.
const (
	CodeBookEntryNumberAlreadyExists      Code = "book_entry_number_already_exists"
	CodeInvalidBookEntryPresentationTime  Code = "invalid_book_entry_presentation_time"
	CodeInvalidBookEntryAuthorizationDate Code = "invalid_book_entry_authorization_date"
	CodeInvalidAntecedentType             Code = "invalid_antecedent_type"
	CodeAntecedentNotFound                Code = "antecedent_not_found"
	CodeLandRecordClosed                  Code = "land_record_closed"
	CodeRecordingActHasDependents         Code = "recording_act_has_dependents"
	CodeUndefinedNextStatus               Code = "undefined_next_status"
	CodeIllegalTransition                 Code = "illegal_transition"
	CodeNotAssignedToUser                 Code = "not_assigned_to_user"
)

// Error is a coded domain error. Details carry the context a caller needs to
// explain the failure (a book's valid window, a conflicting number, a status).
type Error struct {
	Code    Code
	Message string
	Err     error
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// WithDetail returns the error with an additional context value.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// HasCode reports whether any error in the chain carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	for err != nil {
		if errors.As(err, &de) {
			if de.Code == code {
				return true
			}
			err = de.Err
			continue
		}
		return false
	}
	return false
}

// Is is shorthand for HasCode, kept for call sites that read better as dErrors.Is.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in the chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Details returns the context values of the outermost coded error.
func Details(err error) map[string]any {
	var de *Error
	if errors.As(err, &de) {
		return de.Details
	}
	return nil
}

// ToHTTPStatus maps a code to an HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeInvalidInput, CodeUndefinedNextStatus:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeNotAssignedToUser:
		return http.StatusForbidden
	case CodeConflict, CodeLandRecordClosed, CodeRecordingActHasDependents, CodeBookEntryNumberAlreadyExists:
		return http.StatusConflict
	case CodeInvalidBookEntryPresentationTime, CodeInvalidBookEntryAuthorizationDate,
		CodeInvalidAntecedentType, CodeAntecedentNotFound, CodeIllegalTransition:
		return http.StatusUnprocessableEntity
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
