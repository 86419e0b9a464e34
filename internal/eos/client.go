// Package eos implements the HTTP adapter for the EOS user-directory API.
// It is the single choke point for upstream calls: it owns the base URL, the
// per-request timeout, and the session token, and it normalizes every
// failure into *directory.UpstreamError before it reaches a caller.
package eos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/eigital/eos-bridge/internal/directory"
	"golang.org/x/sync/singleflight"
)

const (
	// defaultTimeout bounds every upstream request when none is configured.
	defaultTimeout = 10 * time.Second

	// maxResponseBody caps how much of an upstream payload is retained.
	maxResponseBody = 1 << 20
)

// ErrBaseURLRequired indicates the adapter was built without an upstream URL.
var ErrBaseURLRequired = errors.New("eos api base url is required")

// Config configures the EOS API adapter.
type Config struct {
	// BaseURL is the root of the EOS API, e.g. "https://api.eigital.com/eos".
	BaseURL string
	// Timeout is the fixed per-request network timeout. Defaults to 10s.
	Timeout time.Duration
	// HTTPClient overrides the transport, primarily for tests. When set, its
	// own timeout applies.
	HTTPClient *http.Client
}

// Client calls the EOS API and holds the session token obtained from login.
// One Client represents one logical client session; the token is guarded so
// interleaved calls observe it atomically, and concurrent logins for the
// same username are collapsed into a single upstream request.
type Client struct {
	baseURL string
	client  *http.Client

	mu    sync.RWMutex
	token string

	loginGroup singleflight.Group
}

// New builds an adapter for the EOS API at cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: baseURL, client: httpClient}, nil
}

// apiEnvelope mirrors the EOS API response wrapper.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// loginData mirrors the data payload of a login response.
type loginData struct {
	Token string         `json:"token"`
	User  directory.User `json:"user"`
}

// Login authenticates and stores the returned token as the session
// credential. Concurrent logins for one username share a single flight so
// racing calls cannot interleave token writes.
func (c *Client) Login(ctx context.Context, username, password string) (directory.LoginSession, error) {
	value, err, _ := c.loginGroup.Do(username, func() (any, error) {
		// The flight can serve callers beyond the one that started it, so
		// it must not inherit the first caller's cancellation. The HTTP
		// client timeout still bounds the request.
		return c.login(context.WithoutCancel(ctx), username, password)
	})
	if err != nil {
		return directory.LoginSession{}, err
	}
	session, ok := value.(directory.LoginSession)
	if !ok {
		return directory.LoginSession{}, fmt.Errorf("unexpected login result type %T", value)
	}
	return session, nil
}

func (c *Client) login(ctx context.Context, username, password string) (directory.LoginSession, error) {
	body := map[string]string{"username": username, "password": password}
	envelope, err := c.call(ctx, http.MethodPost, "/user/login", body)
	if err != nil {
		return directory.LoginSession{}, err
	}
	var data loginData
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return directory.LoginSession{}, fmt.Errorf("decode login data: %w", err)
		}
	}
	if data.Token != "" {
		c.setToken(data.Token)
	}
	return directory.LoginSession{User: data.User, Token: data.Token, Message: envelope.Message}, nil
}

// CurrentUser returns the authenticated user's profile.
func (c *Client) CurrentUser(ctx context.Context) (directory.User, error) {
	envelope, err := c.call(ctx, http.MethodGet, "/user/profile", nil)
	if err != nil {
		return directory.User{}, err
	}
	var user directory.User
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &user); err != nil {
			return directory.User{}, fmt.Errorf("decode profile data: %w", err)
		}
	}
	return user, nil
}

// ListUsers returns all directory users. An upstream response without a data
// field yields an empty slice.
func (c *Client) ListUsers(ctx context.Context) ([]directory.User, error) {
	envelope, err := c.call(ctx, http.MethodGet, "/users", nil)
	if err != nil {
		return nil, err
	}
	users := []directory.User{}
	if len(envelope.Data) > 0 && !bytes.Equal(envelope.Data, []byte("null")) {
		if err := json.Unmarshal(envelope.Data, &users); err != nil {
			return nil, fmt.Errorf("decode users data: %w", err)
		}
	}
	return users, nil
}

// InviteUser invites a new directory user. The role must belong to the
// closed role set; the adapter rejects anything else before calling out.
func (c *Client) InviteUser(ctx context.Context, input directory.InviteInput) (directory.Outcome, error) {
	if err := directory.ValidateInvite(input); err != nil {
		return directory.Outcome{}, err
	}
	envelope, err := c.call(ctx, http.MethodPost, "/users/invite", input)
	if err != nil {
		return directory.Outcome{}, err
	}
	return directory.Outcome{Message: envelope.Message, Data: envelope.Data}, nil
}

// UpdateUserStatus transitions one user between active and inactive.
func (c *Client) UpdateUserStatus(ctx context.Context, userID, status string) (directory.Outcome, error) {
	if err := directory.ValidateStatusChange(userID, status); err != nil {
		return directory.Outcome{}, err
	}
	body := map[string]string{"status": status}
	envelope, err := c.call(ctx, http.MethodPatch, "/users/"+userID+"/status", body)
	if err != nil {
		return directory.Outcome{}, err
	}
	return directory.Outcome{Message: envelope.Message, Data: envelope.Data}, nil
}

// DeleteUser removes one user from the directory.
func (c *Client) DeleteUser(ctx context.Context, userID string) (directory.Outcome, error) {
	if err := directory.ValidateUserID(userID); err != nil {
		return directory.Outcome{}, err
	}
	envelope, err := c.call(ctx, http.MethodDelete, "/users/"+userID, nil)
	if err != nil {
		return directory.Outcome{}, err
	}
	return directory.Outcome{Message: envelope.Message, Data: envelope.Data}, nil
}

// HealthCheck reports upstream liveness. Every failure mode collapses to
// false; this method never returns an error.
func (c *Client) HealthCheck(ctx context.Context) bool {
	_, err := c.call(ctx, http.MethodGet, "/health", nil)
	return err == nil
}

// call issues one upstream request and decodes the response envelope.
// Transport failures surface as *directory.UpstreamError with the network
// sentinel status 0; non-2xx responses carry the upstream status and body.
func (c *Client) call(ctx context.Context, method, path string, body any) (apiEnvelope, error) {
	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apiEnvelope{}, fmt.Errorf("encode %s %s request: %w", method, path, err)
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return apiEnvelope{}, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apiEnvelope{}, &directory.UpstreamError{Message: err.Error(), StatusCode: 0}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return apiEnvelope{}, &directory.UpstreamError{Message: "read response: " + err.Error(), StatusCode: resp.StatusCode}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return apiEnvelope{}, &directory.UpstreamError{
			Message:    upstreamMessage(raw, resp.StatusCode),
			StatusCode: resp.StatusCode,
			Body:       json.RawMessage(raw),
		}
	}

	var envelope apiEnvelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return apiEnvelope{}, &directory.UpstreamError{
				Message:    "malformed response body",
				StatusCode: resp.StatusCode,
				Body:       json.RawMessage(raw),
			}
		}
		if !envelope.Success {
			return apiEnvelope{}, &directory.UpstreamError{
				Message:    upstreamMessage(raw, resp.StatusCode),
				StatusCode: resp.StatusCode,
				Body:       json.RawMessage(raw),
			}
		}
	}
	return envelope, nil
}

// upstreamMessage extracts the message field from an upstream payload,
// falling back to the HTTP status text.
func upstreamMessage(raw []byte, statusCode int) string {
	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && strings.TrimSpace(envelope.Message) != "" {
		return envelope.Message
	}
	if text := http.StatusText(statusCode); text != "" {
		return text
	}
	return fmt.Sprintf("unexpected status %d", statusCode)
}

// Token returns the stored session token, empty when unauthenticated.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// ClearSession discards the stored session token.
func (c *Client) ClearSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

// setToken stores the session token obtained from a successful login.
func (c *Client) setToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}
