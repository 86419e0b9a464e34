package directory

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// UpstreamError is the single failure shape raised by the adapter for any
// EOS API call that does not succeed. StatusCode carries the upstream HTTP
// status, or 0 when the request never produced a response (network failure,
// timeout). Body preserves the raw upstream payload for diagnostics.
type UpstreamError struct {
	Message    string
	StatusCode int
	Body       json.RawMessage
}

// Error returns the upstream failure message.
func (e *UpstreamError) Error() string {
	if e == nil {
		return "eos api error"
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("eos api unreachable: %s", e.Message)
	}
	return fmt.Sprintf("eos api error (status %d): %s", e.StatusCode, e.Message)
}

// HTTPStatus resolves the response status a REST caller should receive for
// this failure. Network failures and sub-4xx codes map to 500.
func (e *UpstreamError) HTTPStatus() int {
	if e == nil || e.StatusCode < http.StatusBadRequest {
		return http.StatusInternalServerError
	}
	return e.StatusCode
}

// ValidationError reports one locally rejected request field. It is raised
// before any upstream call is made.
type ValidationError struct {
	Field  string
	Reason string
}

// Error returns the field rejection message.
func (e *ValidationError) Error() string {
	if e == nil {
		return "invalid request"
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}
