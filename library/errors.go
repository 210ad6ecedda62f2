package library

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes catalog and circulation failures.
type ErrorCode string

const (
	ErrCodeDuplicateID       ErrorCode = "DUPLICATE_ID"
	ErrCodeDuplicateMember   ErrorCode = "DUPLICATE_MEMBER"
	ErrCodeInvalidState      ErrorCode = "INVALID_STATE"
	ErrCodeNotIssuedByMember ErrorCode = "NOT_ISSUED_BY_MEMBER"
	ErrCodeLimitReached      ErrorCode = "LIMIT_REACHED"
	ErrCodeBookNotFound      ErrorCode = "BOOK_NOT_FOUND"
	ErrCodeMemberNotFound    ErrorCode = "MEMBER_NOT_FOUND"
)

// Error is returned by every Library operation that rejects a request.
// Two errors are equal under errors.Is when their codes match, so callers can
// compare against the sentinels below regardless of the message.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrDuplicateID       = &Error{Code: ErrCodeDuplicateID}
	ErrDuplicateMember   = &Error{Code: ErrCodeDuplicateMember}
	ErrInvalidState      = &Error{Code: ErrCodeInvalidState}
	ErrNotIssuedByMember = &Error{Code: ErrCodeNotIssuedByMember}
	ErrLimitReached      = &Error{Code: ErrCodeLimitReached}
	ErrBookNotFound      = &Error{Code: ErrCodeBookNotFound}
	ErrMemberNotFound    = &Error{Code: ErrCodeMemberNotFound}
)

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrorCodeOf extracts the code from err, or "" when err is not a library error.
func ErrorCodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
