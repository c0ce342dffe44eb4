package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/djdiptayan1/trackmoji/internal/api/middleware"
	"github.com/djdiptayan1/trackmoji/internal/ledger"
)

// UserService is the orchestrator surface the user endpoints depend on.
type UserService interface {
	CreateUser(ctx context.Context, userPhone, name string) (*ledger.User, error)
	FindUser(ctx context.Context, userPhone string) (*ledger.User, error)
}

// UsersHandler handles user-related endpoints.
type UsersHandler struct {
	svc        UserService
	log        zerolog.Logger
	production bool
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(svc UserService, log zerolog.Logger, production bool) *UsersHandler {
	return &UsersHandler{svc: svc, log: log, production: production}
}

// Create handles POST /api/users
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserPhone string `json:"userPhone"`
		Name      string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.svc.CreateUser(r.Context(), req.UserPhone, req.Name)
	if err != nil {
		respondError(w, h.log, h.production, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusCreated, user)
}

// Search handles GET /api/users/search?userPhone=...
func (h *UsersHandler) Search(w http.ResponseWriter, r *http.Request) {
	userPhone := r.URL.Query().Get("userPhone")

	user, err := h.svc.FindUser(r.Context(), userPhone)
	if err != nil {
		respondError(w, h.log, h.production, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusOK, user)
}
