// Package server exposes the ledger services over a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/owwnwrrght/ledgex/internal/auth"
	"github.com/owwnwrrght/ledgex/internal/middleware"
	"github.com/owwnwrrght/ledgex/internal/service"
	"github.com/owwnwrrght/ledgex/internal/storage"
)

// Server binds the services to HTTP routes.
type Server struct {
	auth   *service.AuthService
	groups *service.GroupService
	ledger *service.LedgerService
	jwt    *auth.JWTManager
}

// New creates a Server over the given services.
func New(authSvc *service.AuthService, groups *service.GroupService, ledger *service.LedgerService, jwt *auth.JWTManager) *Server {
	return &Server{
		auth:   authSvc,
		groups: groups,
		ledger: ledger,
		jwt:    jwt,
	}
}

// Handler builds the route table. Everything under /api except the auth
// endpoints requires a valid bearer token.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	authed := middleware.RequireAuth(s.jwt)
	protected := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authed(h))
	}

	protected("GET /api/auth/me", s.handleCurrentUser)

	protected("POST /api/groups", s.handleCreateGroup)
	protected("GET /api/groups/{id}", s.handleGetGroup)
	protected("POST /api/groups/{id}/members", s.handleAddMembers)
	protected("DELETE /api/groups/{id}/members/{personID}", s.handleRemoveMember)
	protected("PUT /api/groups/{id}/currency", s.handleChangeCurrency)

	protected("POST /api/groups/{id}/expenses", s.handleCreateExpense)
	protected("GET /api/groups/{id}/expenses", s.handleListExpenses)
	protected("PUT /api/groups/{id}/expenses/{expenseID}", s.handleUpdateExpense)
	protected("DELETE /api/groups/{id}/expenses/{expenseID}", s.handleDeleteExpense)

	protected("GET /api/groups/{id}/balances", s.handleBalances)
	protected("GET /api/groups/{id}/settlements", s.handleSettlements)
	protected("POST /api/groups/{id}/settlements/received", s.handleMarkReceived)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return middleware.Logging(middleware.CORS(mux))
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps service errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingToken):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, auth.ErrWeakPassword):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrEmailExists):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		// Do not leak internals to the client.
		writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
