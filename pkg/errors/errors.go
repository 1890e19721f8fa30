package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies failures by the tier that has to deal with them
type ErrorType string

const (
	ErrorTypeBrowser    ErrorType = "browser"
	ErrorTypeNavigation ErrorType = "navigation"
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeExtraction ErrorType = "extraction"
	ErrorTypeStorage    ErrorType = "storage"
	ErrorTypeSource     ErrorType = "source"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Error is a typed error carrying an optional cause
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error without a cause
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap creates a typed error around err
func Wrap(t ErrorType, err error, message string) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// TypeOf returns the type of the first typed error in err's chain
func TypeOf(err error) ErrorType {
	var typed *Error
	if stderrors.As(err, &typed) {
		return typed.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err carries the given type anywhere in its chain
func IsType(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// IsFatal reports whether the error should abort the whole run.
// Navigation and extraction failures are recorded and the run continues.
func IsFatal(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeBrowser, ErrorTypeAuth, ErrorTypeSource, ErrorTypeConfig:
		return true
	default:
		return false
	}
}
