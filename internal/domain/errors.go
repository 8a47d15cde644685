package domain

import "errors"

// ErrorCode classifies every failure the engine can report.
type ErrorCode string

const (
	CodeForbidden            ErrorCode = "FORBIDDEN"
	CodeLocked               ErrorCode = "LOCKED"
	CodeValidation           ErrorCode = "VALIDATION_ERROR"
	CodeStageNotReady        ErrorCode = "STAGE_NOT_READY"
	CodeSessionAlreadyClosed ErrorCode = "SESSION_ALREADY_CLOSED"
	CodeNotConfirmed         ErrorCode = "NOT_CONFIRMED"
	CodeUnknownStage         ErrorCode = "UNKNOWN_STAGE"
	CodeUnknownCase          ErrorCode = "UNKNOWN_CASE"
	CodeUnknownReport        ErrorCode = "UNKNOWN_REPORT"
)

// Error is the single error type returned by engine operations.
// Message is safe to show to the caller; for VALIDATION_ERROR it names the
// first unmet condition.
type Error struct {
	Code    ErrorCode
	Message string
	Reason  AccessReason
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Message
}

// Is matches any *Error carrying the same code, so sentinels below work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrForbidden            = &Error{Code: CodeForbidden}
	ErrLocked               = &Error{Code: CodeLocked}
	ErrValidation           = &Error{Code: CodeValidation}
	ErrStageNotReady        = &Error{Code: CodeStageNotReady}
	ErrSessionAlreadyClosed = &Error{Code: CodeSessionAlreadyClosed}
	ErrNotConfirmed         = &Error{Code: CodeNotConfirmed}
	ErrUnknownStage         = &Error{Code: CodeUnknownStage}
	ErrUnknownCase          = &Error{Code: CodeUnknownCase}
	ErrUnknownReport        = &Error{Code: CodeUnknownReport}
)

// CodeOf extracts the engine error code from err, or "" when err is not an
// engine error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Validationf builds a VALIDATION_ERROR naming the failing condition.
func Validationf(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

// denied converts a negative access decision into the matching error.
func denied(code ErrorCode, a Access) *Error {
	return &Error{Code: code, Message: a.Reason.Describe(), Reason: a.Reason}
}
