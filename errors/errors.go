// Package errors provides the structured error types used across linemap.
//
// Every failure that reaches the user carries a Code so the batch runner can
// decide whether it aborts the run or only the current line:
//
//   - CONFIG, DATA_DISCOVERY, LINE_DATA abort the run before any diagram is generated
//   - EXPORT_LOCATION and EXPORT are reported and the batch continues
//   - MEASUREMENT is recovered inside the layout engine and only logged
//
// # Usage
//
//	err := errors.New(errors.ErrCodeLineData, "missing line.id").WithSource(path)
//	if errors.Is(err, errors.ErrCodeLineData) {
//	    // abort
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

const (
	ErrCodeConfig         Code = "CONFIG"
	ErrCodeDataDiscovery  Code = "DATA_DISCOVERY"
	ErrCodeLineData       Code = "LINE_DATA"
	ErrCodeExportLocation Code = "EXPORT_LOCATION"
	ErrCodeExport         Code = "EXPORT"
	ErrCodeMeasurement    Code = "MEASUREMENT"
)

// Error is a structured error with a code, the offending source and an optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Source  string // File or line the error refers to (optional)
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Source != "" {
		msg = fmt.Sprintf("%s in %s", msg, e.Source)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithSource records the file or identifier the error refers to.
func (e *Error) WithSource(source string) *Error {
	e.Source = source
	return e
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode extracts the error code from an error, if available.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Source != "" {
			return fmt.Sprintf("%s (%s)", e.Message, e.Source)
		}
		return e.Message
	}
	return err.Error()
}
