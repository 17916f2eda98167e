package errors

import (
	"fmt"
	"testing"
)

func TestDQMError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeNotFound, "suite not found")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeRequestFailed, "request failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	// Test Is function
	if !Is(wrapped, ErrCodeRequestFailed) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeNotFound) {
		t.Error("Is should return false for non-matching code")
	}

	// Test Is through fmt wrapping
	outer := fmt.Errorf("fetch suite: %w", wrapped)
	if !Is(outer, ErrCodeRequestFailed) {
		t.Error("Is should unwrap fmt.Errorf chains")
	}
	if GetCode(outer) != ErrCodeRequestFailed {
		t.Errorf("GetCode = %s, want %s", GetCode(outer), ErrCodeRequestFailed)
	}

	// Test WithDetail
	detailed := err.WithDetail("id", 42)
	if detailed.Details["id"] != 42 {
		t.Error("WithDetail should add details")
	}
}

func TestErrorConstructors(t *testing.T) {
	err := RequestFailed("GET", "/api/suites/3", 404, "not found", nil)
	if err.Code != ErrCodeRequestFailed {
		t.Errorf("expected code %s, got %s", ErrCodeRequestFailed, err.Code)
	}
	if err.Details["url"] != "/api/suites/3" {
		t.Error("RequestFailed should include url detail")
	}
	if err.Details["status"] != 404 {
		t.Error("RequestFailed should include status detail")
	}

	noResp := RequestFailed("POST", "/api/suites/", 0, "", fmt.Errorf("connection refused"))
	if _, ok := noResp.Detail("status"); ok {
		t.Error("RequestFailed without response should not carry a status")
	}
	if noResp.Cause == nil {
		t.Error("RequestFailed should keep the cause")
	}

	err = InvalidParam("CheckDummy", "maxCount", "not an int")
	if err.Code != ErrCodeInvalidInput {
		t.Errorf("expected code %s, got %s", ErrCodeInvalidInput, err.Code)
	}
	if err.Details["parameter"] != "maxCount" {
		t.Error("InvalidParam should include parameter detail")
	}

	if GetCode(nil) != "" {
		t.Error("GetCode(nil) should be empty")
	}
}
