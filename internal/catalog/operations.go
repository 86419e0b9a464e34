package catalog

import (
	"context"
	"encoding/json"

	"github.com/eigital/eos-bridge/internal/directory"
	"github.com/google/jsonschema-go/jsonschema"
)

// loginArgs identifies one login request.
type loginArgs struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// emptyArgs is the input for operations that take no arguments.
type emptyArgs struct{}

// statusArgs identifies one user status transition.
type statusArgs struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

// userIDArgs identifies one user by id.
type userIDArgs struct {
	UserID string `json:"userId"`
}

// loginResultData is the login payload returned through the catalog. Token
// is always the redaction placeholder; the raw credential stays inside the
// adapter.
type loginResultData struct {
	User  directory.User `json:"user"`
	Token string         `json:"token"`
}

func loginOperation(svc directory.Service) Operation {
	schema := objectSchema(
		[]string{"username", "password"},
		map[string]*jsonschema.Schema{
			"username": stringSchema("EOS account username"),
			"password": stringSchema("EOS account password"),
		},
	)
	return newOperation("eos_login", "Authenticates against the EOS API and establishes the bridge session",
		schema,
		func(ctx context.Context, in loginArgs) directory.Result {
			if err := directory.ValidateLogin(in.Username, in.Password); err != nil {
				return directory.Failure(err)
			}
			session, err := svc.Login(ctx, in.Username, in.Password)
			if err != nil {
				return directory.Failure(err)
			}
			return directory.OK(session.Message, loginResultData{User: session.User, Token: directory.TokenRedacted})
		},
	)
}

func currentUserOperation(svc directory.Service) Operation {
	return newOperation("eos_get_current_user", "Returns the profile of the authenticated EOS user",
		objectSchema(nil, nil),
		func(ctx context.Context, _ emptyArgs) directory.Result {
			user, err := svc.CurrentUser(ctx)
			if err != nil {
				return directory.Failure(err)
			}
			return directory.OK("", user)
		},
	)
}

func listUsersOperation(svc directory.Service) Operation {
	return newOperation("eos_list_users", "Lists all users in the EOS directory",
		objectSchema(nil, nil),
		func(ctx context.Context, _ emptyArgs) directory.Result {
			users, err := svc.ListUsers(ctx)
			if err != nil {
				return directory.Failure(err)
			}
			return directory.OK("", users)
		},
	)
}

func inviteUserOperation(svc directory.Service) Operation {
	schema := objectSchema(
		[]string{"email", "role"},
		map[string]*jsonschema.Schema{
			"email":     stringSchema("Email address to invite"),
			"role":      enumSchema("Role for the invited user", directory.Roles),
			"firstName": stringSchema("Optional first name"),
			"lastName":  stringSchema("Optional last name"),
		},
	)
	return newOperation("eos_invite_user", "Invites a new user to the EOS directory",
		schema,
		func(ctx context.Context, in directory.InviteInput) directory.Result {
			if err := directory.ValidateInvite(in); err != nil {
				return directory.Failure(err)
			}
			outcome, err := svc.InviteUser(ctx, in)
			if err != nil {
				return directory.Failure(err)
			}
			return directory.OK(outcome.Message, outcomeData(outcome.Data))
		},
	)
}

func updateUserStatusOperation(svc directory.Service) Operation {
	schema := objectSchema(
		[]string{"userId", "status"},
		map[string]*jsonschema.Schema{
			"userId": stringSchema("Identifier of the user to update"),
			"status": enumSchema("New lifecycle status", directory.Statuses),
		},
	)
	return newOperation("eos_update_user_status", "Activates or deactivates an EOS user",
		schema,
		func(ctx context.Context, in statusArgs) directory.Result {
			if err := directory.ValidateStatusChange(in.UserID, in.Status); err != nil {
				return directory.Failure(err)
			}
			outcome, err := svc.UpdateUserStatus(ctx, in.UserID, in.Status)
			if err != nil {
				return directory.Failure(err)
			}
			return directory.OK(outcome.Message, outcomeData(outcome.Data))
		},
	)
}

func deleteUserOperation(svc directory.Service) Operation {
	schema := objectSchema(
		[]string{"userId"},
		map[string]*jsonschema.Schema{
			"userId": stringSchema("Identifier of the user to delete"),
		},
	)
	return newOperation("eos_delete_user", "Deletes an EOS user",
		schema,
		func(ctx context.Context, in userIDArgs) directory.Result {
			if err := directory.ValidateUserID(in.UserID); err != nil {
				return directory.Failure(err)
			}
			outcome, err := svc.DeleteUser(ctx, in.UserID)
			if err != nil {
				return directory.Failure(err)
			}
			return directory.OK(outcome.Message, outcomeData(outcome.Data))
		},
	)
}

func healthCheckOperation(svc directory.Service) Operation {
	return newOperation("eos_health_check", "Checks EOS API liveness",
		objectSchema(nil, nil),
		func(ctx context.Context, _ emptyArgs) directory.Result {
			healthy := svc.HealthCheck(ctx)
			return directory.OK("", map[string]bool{"healthy": healthy})
		},
	)
}

// outcomeData converts an opaque upstream payload for envelope embedding.
// Empty payloads are dropped so the envelope omits the data field.
func outcomeData(raw json.RawMessage) any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}
