package eos

import (
	"time"

	"github.com/eigital/eos-bridge/internal/directory"
	"github.com/golang-jwt/jwt/v5"
)

// Session reports the adapter's authentication state. When the stored token
// is a JWT its registered claims are decoded without signature verification
// to surface subject and expiry; the bridge never trusts these claims for
// authorization, the upstream API remains the authority.
func (c *Client) Session() directory.SessionInfo {
	token := c.Token()
	if token == "" {
		return directory.SessionInfo{}
	}
	info := directory.SessionInfo{Authenticated: true}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		// Opaque tokens still authenticate; they just carry no metadata.
		return info
	}
	info.Subject = claims.Subject
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return info
}
