package query

// errors.go defines the failure kinds a query can end with and maps them to
// user-facing messages with codes for support reference.
//
// # Error Codes Reference
//
//	QRY001 - File not found: the file identifier does not resolve to a readable
//	         text file, or the file is not valid UTF-8
//	         Action: Check the file_name parameter
//
//	QRY002 - Invalid pattern: the regex argument does not compile
//	         Action: Fix the regular expression (RE2 syntax)
//
//	QRY003 - Invalid argument: map or limit received a non-integer
//	         Action: Pass a whole number, e.g. value1=2
//
//	QRY004 - Missing file: no file_name parameter was given
//	         Action: Add file_name to the request
//
//	QRY005 - Column out of range: a line has fewer fields than the map index
//	         Action: Use a smaller column index or filter lines first
//
//	QRY006 - System busy: too many queries in flight
//	         Action: Please wait a moment and try again
//
//	QRY007 - Cancelled: the client went away or the request timed out
//	         Action: Please try again
//
//	ERR000 - Unknown error: an unexpected error occurred
//	         Action: Please try again or contact support

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a file identifier does not resolve to a
// readable text file. Malformed (non UTF-8) files report the same kind.
var ErrNotFound = errors.New("no such file in directory")

// ErrMissingFile is returned when a query names no file at all.
var ErrMissingFile = errors.New("file name is required")

// PatternError reports a regular expression that failed to compile.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// ArgumentError reports an operator argument that is not a valid integer.
type ArgumentError struct {
	Op    string
	Value string
	Err   error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: invalid integer argument %q", e.Op, e.Value)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// IndexError reports a column index that does not exist on some line.
type IndexError struct {
	Index  int
	Fields int
	Line   string
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("column index %d out of range for line with %d fields", e.Index, e.Fields)
}

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgNotFound = UserMessage{
		Message: "No such file in directory",
		Action:  "Check the file_name parameter",
		Code:    "QRY001",
	}
	msgPattern = UserMessage{
		Message: "Invalid regular expression",
		Action:  "Fix the regular expression (RE2 syntax)",
		Code:    "QRY002",
	}
	msgArgument = UserMessage{
		Message: "Argument must be an integer",
		Action:  "Pass a whole number, e.g. value1=2",
		Code:    "QRY003",
	}
	msgMissingFile = UserMessage{
		Message: "No file name given",
		Action:  "Add file_name to the request",
		Code:    "QRY004",
	}
	msgIndex = UserMessage{
		Message: "Column index out of range",
		Action:  "Use a smaller column index or filter lines first",
		Code:    "QRY005",
	}
	msgBusy = UserMessage{
		Message: "Too many queries in progress",
		Action:  "Please wait a moment and try again",
		Code:    "QRY006",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "QRY007",
	}
	defaultMessage = UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Please try again or contact support",
		Code:    "ERR000",
	}
)

// MapError converts a query error into a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		patternErr  *PatternError
		argumentErr *ArgumentError
		indexErr    *IndexError
	)

	switch {
	case errors.Is(err, ErrNotFound):
		return msgNotFound
	case errors.Is(err, ErrMissingFile):
		return msgMissingFile
	case errors.As(err, &patternErr):
		return msgPattern
	case errors.As(err, &argumentErr):
		return msgArgument
	case errors.As(err, &indexErr):
		return msgIndex
	case errors.Is(err, ErrTooManyQueries):
		return msgBusy
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return msgCancelled
	default:
		return defaultMessage
	}
}

// Kind returns a short stable label for the error, used for metrics and the
// query history. Returns "ok" for nil.
func Kind(err error) string {
	switch MapError(err).Code {
	case "":
		return "ok"
	case msgNotFound.Code:
		return "not_found"
	case msgPattern.Code:
		return "pattern"
	case msgArgument.Code:
		return "argument"
	case msgMissingFile.Code:
		return "missing_file"
	case msgIndex.Code:
		return "index"
	case msgBusy.Code:
		return "busy"
	case msgCancelled.Code:
		return "cancelled"
	default:
		return "internal"
	}
}

// IsClientError reports whether err was caused by the request rather than the
// server: a bad file name or a bad operator argument.
func IsClientError(err error) bool {
	switch Kind(err) {
	case "not_found", "pattern", "argument", "missing_file", "index":
		return true
	default:
		return false
	}
}
