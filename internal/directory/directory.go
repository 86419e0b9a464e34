package directory

import (
	"context"
	"encoding/json"
)

// TokenRedacted replaces the raw session token in catalog responses.
const TokenRedacted = "***"

// User mirrors one EOS directory user record. The bridge passes it through
// without interpreting fields beyond status and role.
type User struct {
	ID        string `json:"id,omitempty"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// LoginSession is the payload of one successful login call. Token carries
// the raw bearer credential; only the adapter and the REST auth flow may
// see it, the tool catalog redacts it before responding.
type LoginSession struct {
	User    User
	Token   string
	Message string
}

// Outcome carries the upstream acknowledgement for mutations whose response
// payload the bridge does not interpret.
type Outcome struct {
	Message string
	Data    json.RawMessage
}

// InviteInput identifies one user invitation request.
type InviteInput struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// SessionInfo reports the adapter's current authentication state. ExpiresAt
// and Subject are populated only when the stored token is a decodable JWT.
type SessionInfo struct {
	Authenticated bool   `json:"authenticated"`
	Subject       string `json:"subject,omitempty"`
	ExpiresAt     string `json:"expiresAt,omitempty"`
}

// Service is the single capability surface over the EOS user-directory API.
// Implementations normalize every upstream failure into *UpstreamError;
// HealthCheck never fails.
type Service interface {
	// Login authenticates against the directory and, on success, stores the
	// returned token as the session credential for subsequent calls.
	Login(ctx context.Context, username, password string) (LoginSession, error)
	// CurrentUser returns the profile of the authenticated user.
	CurrentUser(ctx context.Context) (User, error)
	// ListUsers returns all directory users. A response without user data
	// yields an empty slice, not an error.
	ListUsers(ctx context.Context) ([]User, error)
	// InviteUser invites a new user with one of the closed set of roles.
	InviteUser(ctx context.Context, input InviteInput) (Outcome, error)
	// UpdateUserStatus activates or deactivates one user.
	UpdateUserStatus(ctx context.Context, userID, status string) (Outcome, error)
	// DeleteUser removes one user.
	DeleteUser(ctx context.Context, userID string) (Outcome, error)
	// HealthCheck reports upstream liveness. Any failure collapses to false.
	HealthCheck(ctx context.Context) bool
	// Session reports the current authentication state.
	Session() SessionInfo
	// ClearSession discards the stored session credential.
	ClearSession()
}
