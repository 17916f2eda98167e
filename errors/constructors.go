package errors

import (
	"fmt"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *DQMError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *DQMError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// RequestFailed creates a backend request failure error. The url detail is the
// request target shown to users; status is 0 when no response was received.
func RequestFailed(method, url string, status int, body string, cause error) *DQMError {
	msg := fmt.Sprintf("%s %s failed", method, url)
	if status != 0 {
		msg = fmt.Sprintf("%s %s returned status %d", method, url, status)
	}

	err := Wrap(cause, ErrCodeRequestFailed, msg).
		WithDetail("method", method).
		WithDetail("url", url)
	if status != 0 {
		err = err.WithDetail("status", status)
	}
	if body != "" {
		err = err.WithDetail("body", body)
	}
	return err
}

// NoActiveSuite creates an error for operations that need a persisted suite.
func NoActiveSuite(operation string) *DQMError {
	return New(ErrCodeNoActiveSuite, "no active suite").
		WithDetail("operation", operation)
}

// NotFound creates an error for a missing entity.
func NotFound(kind string, id interface{}) *DQMError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s '%v' not found", kind, id)).
		WithDetail("kind", kind).
		WithDetail("id", id)
}

// InvalidParam creates an error for a check parameter that fails validation.
func InvalidParam(check, param, reason string) *DQMError {
	return New(ErrCodeInvalidInput,
		fmt.Sprintf("invalid value for parameter '%s' of check '%s': %s", param, check, reason)).
		WithDetail("check", check).
		WithDetail("parameter", param)
}
