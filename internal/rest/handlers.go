package rest

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/eigital/eos-bridge/internal/directory"
)

// handler carries the route handlers and their shared dependencies.
type handler struct {
	svc directory.Service
	env Environment
}

// routes builds the route table. Every data route delegates to the shared
// directory service, so REST and MCP stay behaviourally identical.
func (h *handler) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("POST /auth/login", h.login)
	mux.HandleFunc("GET /auth/session", h.session)
	mux.HandleFunc("POST /auth/logout", h.logout)
	mux.HandleFunc("GET /users/current", h.currentUser)
	mux.HandleFunc("GET /users", h.listUsers)
	mux.HandleFunc("POST /users/invite", h.inviteUser)
	mux.HandleFunc("PATCH /users/{userID}/status", h.updateUserStatus)
	mux.HandleFunc("DELETE /users/{userID}", h.deleteUser)
	mux.HandleFunc("/", h.notFound)

	return mux
}

// healthResponse reports listener and upstream liveness.
type healthResponse struct {
	Status    string                `json:"status"`
	Timestamp string                `json:"timestamp"`
	EOSAPI    string                `json:"eosApi"`
	Session   directory.SessionInfo `json:"session"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	healthy := h.svc.HealthCheck(r.Context())

	resp := healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		EOSAPI:    "connected",
		Session:   h.svc.Session(),
	}
	status := http.StatusOK
	if !healthy {
		resp.Status = "degraded"
		resp.EOSAPI = "disconnected"
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, resp)
}

// loginRequest identifies one login attempt.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse returns the real bearer token: REST callers hold their own
// credentials, unlike catalog clients which never see the token.
type loginResponse struct {
	User  directory.User `json:"user"`
	Token string         `json:"token"`
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := directory.ValidateLogin(req.Username, req.Password); err != nil {
		h.writeError(w, err)
		return
	}

	session, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, directory.Result{
		Success: true,
		Message: session.Message,
		Data:    loginResponse{User: session.User, Token: session.Token},
	})
}

func (h *handler) session(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, directory.OK("", h.svc.Session()))
}

func (h *handler) logout(w http.ResponseWriter, _ *http.Request) {
	h.svc.ClearSession()
	writeJSON(w, http.StatusOK, directory.OK("Session cleared", nil))
}

func (h *handler) currentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.CurrentUser(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, directory.OK("", user))
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, directory.OK("", users))
}

func (h *handler) inviteUser(w http.ResponseWriter, r *http.Request) {
	var input directory.InviteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := directory.ValidateInvite(input); err != nil {
		h.writeError(w, err)
		return
	}

	outcome, err := h.svc.InviteUser(r.Context(), input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcomeResult(outcome))
}

// statusRequest carries the target lifecycle status.
type statusRequest struct {
	Status string `json:"status"`
}

func (h *handler) updateUserStatus(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := directory.ValidateStatusChange(userID, req.Status); err != nil {
		h.writeError(w, err)
		return
	}

	outcome, err := h.svc.UpdateUserStatus(r.Context(), userID, req.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcomeResult(outcome))
}

func (h *handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	if err := directory.ValidateUserID(userID); err != nil {
		h.writeError(w, err)
		return
	}

	outcome, err := h.svc.DeleteUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcomeResult(outcome))
}

func (h *handler) notFound(w http.ResponseWriter, _ *http.Request) {
	writeFailure(w, http.StatusNotFound, "Route not found")
}

// writeError maps a directory failure to its HTTP status and envelope.
func (h *handler) writeError(w http.ResponseWriter, err error) {
	var validation *directory.ValidationError
	if errors.As(err, &validation) {
		writeFailure(w, http.StatusBadRequest, validation.Error())
		return
	}

	var upstream *directory.UpstreamError
	if errors.As(err, &upstream) {
		writeJSON(w, upstream.HTTPStatus(), directory.Failure(err))
		return
	}

	log.Printf("rest: unclassified error: %v", err)
	message := "Internal server error"
	if h.env == EnvDevelopment {
		message = err.Error()
	}
	writeFailure(w, http.StatusInternalServerError, message)
}

// outcomeResult wraps an adapter outcome in the shared envelope, dropping
// empty payloads.
func outcomeResult(outcome directory.Outcome) directory.Result {
	result := directory.Result{Success: true, Message: outcome.Message}
	if len(outcome.Data) > 0 && string(outcome.Data) != "null" {
		result.Data = outcome.Data
	}
	return result
}

// writeFailure writes a failure envelope with the given message.
func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, directory.Result{Success: false, Message: message, Error: status})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("rest: encode response: %v", err)
	}
}
