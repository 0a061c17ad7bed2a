package diag

import (
	"errors"
	"fmt"
)

// Code classifies a compilation fault.
type Code string

const (
	// Resource / environment faults.
	FileError   Code = "file-error"   // source file unopenable
	OutputError Code = "output-error" // output image uncreatable
	LimitError  Code = "limit-exceeded"

	// Syntax faults.
	SyntaxError           Code = "syntax-error"
	UnknownDirectiveError Code = "unknown-directive"

	// Semantic faults.
	BorrowError             Code = "borrow-conflict"
	ScopeError              Code = "scope-mismatch"
	ImmediateRangeError     Code = "immediate-range"
	MalformedImmediateError Code = "malformed-immediate"
	EncodingRangeError      Code = "encoding-range"
	DuplicateLabelError     Code = "duplicate-label"
	UndefinedLabelError     Code = "undefined-label"
)

// Error is a compilation fault, attributed to a source line whenever the
// fault can be traced to one. Every stage of the pipeline returns this type;
// compilation stops at the first one produced.
type Error struct {
	Code    Code
	Message string
	Line    int    // 1-based original source line; 0 when not attributable
	Source  string // literal text of the offending line
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("Error at source line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Diagnostic renders the full reportable form: the error line followed by
// the literal offending source text indented on the next line.
func (e *Error) Diagnostic() string {
	if e.Source == "" {
		return e.Error()
	}
	return fmt.Sprintf("%s\n    %s", e.Error(), e.Source)
}

// New builds an error with no source attribution (environment failures).
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AtLine builds an error attributed to one source line.
func AtLine(code Code, line int, source string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Source:  source,
	}
}

// CodeOf extracts the Code carried by err, or "" if err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
