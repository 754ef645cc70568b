package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/recipeatlas/server/internal/infrastructure/http/middleware"
	"github.com/recipeatlas/server/internal/infrastructure/http/respond"
	"github.com/recipeatlas/server/internal/ports/inbound"
	"go.uber.org/zap"
)

// UserHandlers handles public profiles and the signed-in user's account
type UserHandlers struct {
	base
	users    inbound.UserService
	sessions SessionManager
}

// NewUserHandlers creates the user handlers
func NewUserHandlers(users inbound.UserService, sessions SessionManager, v *Validator, logger *zap.Logger) *UserHandlers {
	return &UserHandlers{
		base:     base{logger: logger, validator: v},
		users:    users,
		sessions: sessions,
	}
}

// updateProfileRequest is a patch; an empty password is ignored
type updateProfileRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Bio      *string `json:"bio"`
	Country  *string `json:"country"`
}

func (req updateProfileRequest) command() inbound.UpdateProfileCommand {
	cmd := inbound.UpdateProfileCommand{
		Email:   req.Email,
		Bio:     req.Bio,
		Country: req.Country,
	}
	if req.Password != nil && *req.Password != "" {
		cmd.Password = req.Password
	}
	return cmd
}

// Profile handles GET /api/users/{username}
func (h *UserHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetProfile(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

// Recipes handles GET /api/users/{username}/recipes
func (h *UserHandlers) Recipes(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.ListUserRecipes(r.Context(), chi.URLParam(r, "username"), pageQuery(r), middleware.ViewerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// UpdateProfile handles PUT /api/users/{username}
func (h *UserHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, chi.URLParam(r, "username"))
}

// Me handles GET /api/user/profile
func (h *UserHandlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.users.GetPrivateProfile(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

// UpdateMe handles PUT /api/user/profile
func (h *UserHandlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	me, err := h.users.GetPrivateProfile(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.update(w, r, me.Username)
}

func (h *UserHandlers) update(w http.ResponseWriter, r *http.Request, username string) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req updateProfileRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.users.UpdateProfile(r.Context(), username, userID, req.command())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

// DeleteMe handles DELETE /api/user/profile. The account's recipes,
// comments, votes and favorites go with it and the session is revoked.
func (h *UserHandlers) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.users.DeleteAccount(r.Context(), userID); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.sessions.Logout(r.Context(), w, r); err != nil {
		h.logger.Warn("Failed to revoke session of deleted account",
			zap.Uint("user_id", userID), zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
