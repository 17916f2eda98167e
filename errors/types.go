package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Backend errors
	ErrCodeRequestFailed ErrorCode = "REQUEST_FAILED"
	ErrCodeNoActiveSuite ErrorCode = "NO_ACTIVE_SUITE"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// DQMError represents a structured error with context
type DQMError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *DQMError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *DQMError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *DQMError) WithDetail(key string, value interface{}) *DQMError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Detail returns a detail value and whether it was set.
func (e *DQMError) Detail(key string) (interface{}, bool) {
	if e.Details == nil {
		return nil, false
	}
	v, ok := e.Details[key]
	return v, ok
}

// ToJSON converts the error to JSON
func (e *DQMError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new DQMError
func New(code ErrorCode, message string) *DQMError {
	return &DQMError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a DQMError
func Wrap(err error, code ErrorCode, message string) *DQMError {
	return &DQMError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// As returns the first DQMError in the chain of err.
func As(err error) (*DQMError, bool) {
	for err != nil {
		if dqmErr, ok := err.(*DQMError); ok {
			return dqmErr, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}

// Is checks if an error is a specific DQMError code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	dqmErr, ok := err.(*DQMError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	return dqmErr.Code == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if dqmErr, ok := As(err); ok {
		return dqmErr.Code
	}
	return ""
}
