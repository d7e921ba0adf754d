package errors

import (
	"fmt"
)

// ErrorType classifies failures of the dataset and boundary sources.
type ErrorType string

const (
	// ErrTypeDataUnavailable means the dataset file cannot be opened.
	ErrTypeDataUnavailable ErrorType = "DATA_UNAVAILABLE"
	// ErrTypeParsing means a source was read but its content was rejected.
	ErrTypeParsing ErrorType = "PARSING"
	ErrTypeNetwork ErrorType = "NETWORK"
	ErrTypeConfig  ErrorType = "CONFIG"
)

// AppError carries a user-facing message, the underlying cause and
// whatever context (path, url, column) helps an operator find the source.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext records key for logging and returns e for chaining.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func newAppError(t ErrorType, message string, cause error) *AppError {
	return &AppError{Type: t, Message: message, Cause: cause}
}

// NewDataUnavailableError reports that the dataset cannot be served at all.
// The message is shown to the user verbatim.
func NewDataUnavailableError(message string, cause error) *AppError {
	return newAppError(ErrTypeDataUnavailable, message, cause)
}

func NewParsingError(message string, cause error) *AppError {
	return newAppError(ErrTypeParsing, message, cause)
}

func NewNetworkError(message string, cause error) *AppError {
	return newAppError(ErrTypeNetwork, message, cause)
}

func NewConfigError(message string, cause error) *AppError {
	return newAppError(ErrTypeConfig, message, cause)
}
