package eos

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eigital/eos-bridge/internal/directory"
	"github.com/golang-jwt/jwt/v5"
)

// newTestClient builds a client against a stub EOS API.
func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := New(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, server
}

func writeEnvelope(w http.ResponseWriter, status int, envelope map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope)
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrBaseURLRequired) {
		t.Fatalf("expected ErrBaseURLRequired, got %v", err)
	}
	if _, err := New(Config{BaseURL: "   "}); !errors.Is(err, ErrBaseURLRequired) {
		t.Fatalf("expected ErrBaseURLRequired for blank url, got %v", err)
	}
}

func TestLoginStoresTokenAndAttachesBearer(t *testing.T) {
	var profileAuth atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("POST /user/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode login body: %v", err)
		}
		if body["username"] != "mp5@eigital.com" {
			t.Errorf("unexpected username %q", body["username"])
		}
		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Login successful",
			"data": map[string]any{
				"token": "abc",
				"user":  map[string]any{"id": "1", "username": "mp5@eigital.com", "role": "admin"},
			},
		})
	})
	mux.HandleFunc("GET /user/profile", func(w http.ResponseWriter, r *http.Request) {
		profileAuth.Store(r.Header.Get("Authorization"))
		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"id": "1", "username": "mp5@eigital.com"},
		})
	})
	client, _ := newTestClient(t, mux)

	session, err := client.Login(context.Background(), "mp5@eigital.com", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Token != "abc" {
		t.Errorf("expected raw token in adapter session, got %q", session.Token)
	}
	if session.Message != "Login successful" {
		t.Errorf("expected upstream message, got %q", session.Message)
	}
	if session.User.ID != "1" {
		t.Errorf("expected user id 1, got %q", session.User.ID)
	}
	if client.Token() != "abc" {
		t.Fatalf("expected stored token, got %q", client.Token())
	}

	if _, err := client.CurrentUser(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := profileAuth.Load(); got != "Bearer abc" {
		t.Errorf("expected bearer header on profile call, got %v", got)
	}
}

func TestLoginRejectionKeepsTokenClear(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /user/login", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"message": "Invalid credentials",
		})
	})
	client, _ := newTestClient(t, mux)

	_, err := client.Login(context.Background(), "mp5@eigital.com", "wrong")
	var upstream *directory.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected *UpstreamError, got %v", err)
	}
	if upstream.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", upstream.StatusCode)
	}
	if upstream.Message != "Invalid credentials" {
		t.Errorf("expected upstream message, got %q", upstream.Message)
	}
	if client.Token() != "" {
		t.Errorf("expected token untouched after rejection, got %q", client.Token())
	}
}

func TestLoginFlightDetachedFromCallerCancellation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /user/login", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Login successful",
			"data": map[string]any{
				"token": "abc",
				"user":  map[string]any{"id": "1", "username": "mp5@eigital.com"},
			},
		})
	})
	client, _ := newTestClient(t, mux)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session, err := client.Login(ctx, "mp5@eigital.com", "secret")
	if err != nil {
		t.Fatalf("login with cancelled caller context: %v", err)
	}
	if session.Token != "abc" {
		t.Errorf("expected token from shared flight, got %q", session.Token)
	}
	if client.Token() != "abc" {
		t.Errorf("expected stored token, got %q", client.Token())
	}
}

func TestNetworkFailureUsesSentinelStatus(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	client, err := New(Config{BaseURL: server.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.CurrentUser(context.Background())
	var upstream *directory.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected *UpstreamError, got %v", err)
	}
	if upstream.StatusCode != 0 {
		t.Errorf("expected network sentinel status 0, got %d", upstream.StatusCode)
	}
}

func TestEnvelopeFailureOnSuccessStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /user/profile", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{"success": false, "message": "Session expired"})
	})
	client, _ := newTestClient(t, mux)

	_, err := client.CurrentUser(context.Background())
	var upstream *directory.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected *UpstreamError, got %v", err)
	}
	if upstream.Message != "Session expired" {
		t.Errorf("expected envelope message, got %q", upstream.Message)
	}
}

func TestListUsersEmptyData(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "no data field", body: map[string]any{"success": true}},
		{name: "null data", body: map[string]any{"success": true, "data": nil}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, http.StatusOK, tc.body)
			})
			client, _ := newTestClient(t, mux)

			users, err := client.ListUsers(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if users == nil {
				t.Fatal("expected empty slice, got nil")
			}
			if len(users) != 0 {
				t.Fatalf("expected no users, got %d", len(users))
			}
		})
	}
}

func TestListUsersDecodesRecords(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"data": []map[string]any{
				{"id": "1", "username": "mp5@eigital.com", "status": "active"},
				{"id": "2", "username": "ops@eigital.com", "status": "inactive"},
			},
		})
	})
	client, _ := newTestClient(t, mux)

	users, err := client.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[1].Status != "inactive" {
		t.Errorf("expected status passthrough, got %q", users[1].Status)
	}
}

func TestInviteUserRejectsRoleBeforeCalling(t *testing.T) {
	var calls atomic.Int64
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	_, err := client.InviteUser(context.Background(), directory.InviteInput{Email: "x@eigital.com", Role: "root"})
	var vErr *directory.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no upstream call, got %d", calls.Load())
	}
}

func TestUpdateUserStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /users/{userID}/status", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("userID") != "u7" {
			t.Errorf("unexpected user id %q", r.PathValue("userID"))
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["status"] != "inactive" {
			t.Errorf("unexpected status %q", body["status"])
		}
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "message": "Status updated"})
	})
	client, _ := newTestClient(t, mux)

	outcome, err := client.UpdateUserStatus(context.Background(), "u7", "inactive")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Message != "Status updated" {
		t.Errorf("expected upstream message, got %q", outcome.Message)
	}
}

func TestDeleteUserIdempotentEnvelopes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /users/{userID}", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "message": "User deleted"})
	})
	client, _ := newTestClient(t, mux)

	first, err := client.DeleteUser(context.Background(), "u7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := client.DeleteUser(context.Background(), "u7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Message != second.Message {
		t.Errorf("expected identical envelopes, got %q and %q", first.Message, second.Message)
	}
}

func TestHealthCheckNeverRaises(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusOK, map[string]any{"success": true})
		})
		client, _ := newTestClient(t, mux)
		if !client.HealthCheck(context.Background()) {
			t.Fatal("expected healthy")
		}
	})

	t.Run("upstream error", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		if client.HealthCheck(context.Background()) {
			t.Fatal("expected unhealthy on 500")
		}
	})

	t.Run("network failure", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		server.Close()
		client, err := New(Config{BaseURL: server.URL, Timeout: time.Second})
		if err != nil {
			t.Fatalf("new client: %v", err)
		}
		if client.HealthCheck(context.Background()) {
			t.Fatal("expected unhealthy on connection failure")
		}
	})
}

func TestSessionInfo(t *testing.T) {
	client, _ := newTestClient(t, http.NewServeMux())

	t.Run("unauthenticated", func(t *testing.T) {
		info := client.Session()
		if info.Authenticated {
			t.Fatal("expected unauthenticated session")
		}
	})

	t.Run("opaque token", func(t *testing.T) {
		client.setToken("opaque-token")
		info := client.Session()
		if !info.Authenticated {
			t.Fatal("expected authenticated session")
		}
		if info.Subject != "" || info.ExpiresAt != "" {
			t.Errorf("expected no claims for opaque token, got %+v", info)
		}
	})

	t.Run("jwt token", func(t *testing.T) {
		expires := time.Now().Add(time.Hour).Truncate(time.Second)
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(expires),
		})
		signed, err := token.SignedString([]byte("test-key"))
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}
		client.setToken(signed)

		info := client.Session()
		if info.Subject != "user-1" {
			t.Errorf("expected subject user-1, got %q", info.Subject)
		}
		if info.ExpiresAt != expires.UTC().Format(time.RFC3339) {
			t.Errorf("expected expiry %s, got %s", expires.UTC().Format(time.RFC3339), info.ExpiresAt)
		}
	})

	t.Run("cleared", func(t *testing.T) {
		client.setToken("abc")
		client.ClearSession()
		if client.Session().Authenticated {
			t.Fatal("expected cleared session to be unauthenticated")
		}
	})
}
