package directory

import "strings"

// Roles is the closed set of roles an invited user may receive.
var Roles = []string{"admin", "manager", "user"}

// Statuses is the closed set of user lifecycle statuses.
var Statuses = []string{"active", "inactive"}

// ValidRole reports whether role belongs to the closed role set.
func ValidRole(role string) bool {
	return contains(Roles, role)
}

// ValidStatus reports whether status belongs to the closed status set.
func ValidStatus(status string) bool {
	return contains(Statuses, status)
}

// ValidateLogin checks login credentials for required fields.
func ValidateLogin(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return &ValidationError{Field: "username", Reason: "is required"}
	}
	if password == "" {
		return &ValidationError{Field: "password", Reason: "is required"}
	}
	return nil
}

// ValidateInvite checks an invitation for required fields and role membership.
func ValidateInvite(input InviteInput) error {
	if strings.TrimSpace(input.Email) == "" {
		return &ValidationError{Field: "email", Reason: "is required"}
	}
	if strings.TrimSpace(input.Role) == "" {
		return &ValidationError{Field: "role", Reason: "is required"}
	}
	if !ValidRole(input.Role) {
		return &ValidationError{Field: "role", Reason: "must be one of: " + strings.Join(Roles, ", ")}
	}
	return nil
}

// ValidateUserID checks a user identifier for presence.
func ValidateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return &ValidationError{Field: "userId", Reason: "is required"}
	}
	return nil
}

// ValidateStatusChange checks a status transition request.
func ValidateStatusChange(userID, status string) error {
	if err := ValidateUserID(userID); err != nil {
		return err
	}
	if strings.TrimSpace(status) == "" {
		return &ValidationError{Field: "status", Reason: "is required"}
	}
	if !ValidStatus(status) {
		return &ValidationError{Field: "status", Reason: "must be one of: " + strings.Join(Statuses, ", ")}
	}
	return nil
}

// contains reports closed-set membership.
func contains(set []string, value string) bool {
	for _, entry := range set {
		if entry == value {
			return true
		}
	}
	return false
}
