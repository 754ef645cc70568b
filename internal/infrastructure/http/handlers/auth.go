package handlers

import (
	"context"
	"net/http"

	"github.com/recipeatlas/server/internal/infrastructure/http/respond"
	"github.com/recipeatlas/server/internal/ports/inbound"
	"github.com/recipeatlas/server/pkg/errors"
	"go.uber.org/zap"
)

// SessionManager issues and revokes login sessions
type SessionManager interface {
	Login(ctx context.Context, w http.ResponseWriter, userID uint) error
	Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// AuthHandlers handles registration and login
type AuthHandlers struct {
	base
	users    inbound.UserService
	sessions SessionManager
}

// NewAuthHandlers creates the authentication handlers
func NewAuthHandlers(users inbound.UserService, sessions SessionManager, v *Validator, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		base:     base{logger: logger, validator: v},
		users:    users,
		sessions: sessions,
	}
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Bio      string `json:"bio"`
	Country  string `json:"country"`
}

// loginRequest accepts either a username or an email in Username
type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register handles POST /api/register
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.users.Register(r.Context(), inbound.RegisterCommand{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Bio:      req.Bio,
		Country:  req.Country,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info("User registered", zap.Uint("user_id", u.ID))
	respond.JSON(w, http.StatusCreated, u)
}

// Login handles POST /api/login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.sessions.Login(r.Context(), w, u.ID); err != nil {
		h.fail(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, u)
}

// Logout handles POST /api/logout
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), w, r); err != nil {
		h.fail(w, r, err)
		return
	}
	respond.Message(w, http.StatusOK, "Logged out successfully")
}

// Status handles GET /api/auth/status
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, errors.NewUnauthorizedError("Not authenticated"))
		return
	}

	u, err := h.users.GetPrivateProfile(r.Context(), userID)
	if err != nil {
		// session outlived its account
		if errors.Is(err, errors.CodeNotFound) {
			err = errors.NewUnauthorizedError("Not authenticated")
		}
		h.fail(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, u)
}
