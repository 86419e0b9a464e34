package directory

import (
	"errors"
	"fmt"
	"testing"
)

func TestFailureUpstreamError(t *testing.T) {
	err := &UpstreamError{Message: "Invalid credentials", StatusCode: 401}
	result := Failure(err)
	if result.Success {
		t.Fatal("expected failure envelope")
	}
	if result.Message != "Invalid credentials" {
		t.Errorf("expected upstream message, got %q", result.Message)
	}
	if result.Error != 401 {
		t.Errorf("expected error code 401, got %d", result.Error)
	}
}

func TestFailureWrappedUpstreamError(t *testing.T) {
	err := fmt.Errorf("invite user: %w", &UpstreamError{Message: "Forbidden", StatusCode: 403})
	result := Failure(err)
	if result.Error != 403 {
		t.Errorf("expected error code 403 through wrapping, got %d", result.Error)
	}
}

func TestFailureLocalError(t *testing.T) {
	result := Failure(&ValidationError{Field: "role", Reason: "is required"})
	if result.Success {
		t.Fatal("expected failure envelope")
	}
	if result.Error != 0 {
		t.Errorf("expected no upstream code for local failure, got %d", result.Error)
	}
	if result.Message == "" {
		t.Error("expected a message for local failure")
	}
}

func TestFailureNil(t *testing.T) {
	result := Failure(nil)
	if result.Success {
		t.Fatal("expected failure envelope for nil error")
	}
}

func TestOK(t *testing.T) {
	result := OK("done", map[string]any{"id": "u1"})
	if !result.Success {
		t.Fatal("expected success envelope")
	}
	if result.Message != "done" {
		t.Errorf("expected message %q, got %q", "done", result.Message)
	}
}

func TestUpstreamErrorMessages(t *testing.T) {
	network := &UpstreamError{Message: "connection refused", StatusCode: 0}
	if network.HTTPStatus() != 500 {
		t.Errorf("expected network failure to map to 500, got %d", network.HTTPStatus())
	}
	rejected := &UpstreamError{Message: "Not found", StatusCode: 404}
	if rejected.HTTPStatus() != 404 {
		t.Errorf("expected upstream status passthrough, got %d", rejected.HTTPStatus())
	}
	var asErr error = rejected
	var target *UpstreamError
	if !errors.As(asErr, &target) {
		t.Fatal("expected errors.As to match *UpstreamError")
	}
}
