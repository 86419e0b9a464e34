package directory

import "errors"

// Result is the canonical envelope every bridge operation resolves to,
// independent of transport. Error carries the upstream status code when the
// failure came from the EOS API.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   int    `json:"error,omitempty"`
}

// OK builds a success envelope.
func OK(message string, data any) Result {
	return Result{Success: true, Message: message, Data: data}
}

// Failure converts an operation error into a failure envelope. Upstream
// failures keep their status code; validation and other local failures carry
// only the message. The conversion happens here once so neither front end
// reimplements error mapping.
func Failure(err error) Result {
	if err == nil {
		return Result{Success: false}
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return Result{Success: false, Message: upstream.Message, Error: upstream.StatusCode}
	}
	return Result{Success: false, Message: err.Error()}
}
