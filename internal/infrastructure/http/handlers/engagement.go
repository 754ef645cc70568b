package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/recipeatlas/server/internal/domain/engagement"
	"github.com/recipeatlas/server/internal/infrastructure/http/middleware"
	"github.com/recipeatlas/server/internal/infrastructure/http/respond"
	"github.com/recipeatlas/server/internal/ports/inbound"
	"go.uber.org/zap"
)

// EngagementHandlers handles comments, votes and favorites
type EngagementHandlers struct {
	base
	comments  inbound.CommentService
	votes     inbound.VoteService
	favorites inbound.FavoriteService
}

// NewEngagementHandlers creates the engagement handlers
func NewEngagementHandlers(
	comments inbound.CommentService,
	votes inbound.VoteService,
	favorites inbound.FavoriteService,
	v *Validator,
	logger *zap.Logger,
) *EngagementHandlers {
	return &EngagementHandlers{
		base:      base{logger: logger, validator: v},
		comments:  comments,
		votes:     votes,
		favorites: favorites,
	}
}

type commentRequest struct {
	Content  string `json:"content" validate:"required"`
	ParentID *uint  `json:"parent_id" validate:"omitempty,gt=0"`
}

type editCommentRequest struct {
	Content string `json:"content" validate:"required"`
}

type favoriteRequest struct {
	FavoriteType string `json:"favorite_type" validate:"required,favorite_type"`
	FavoriteID   uint   `json:"favorite_id" validate:"required"`
}

// ListComments handles GET /api/recipes/{id}/comments
func (h *EngagementHandlers) ListComments(w http.ResponseWriter, r *http.Request) {
	recipeID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	list, err := h.comments.ListComments(r.Context(), recipeID, middleware.ViewerID(r), pageQuery(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// AddComment handles POST /api/recipes/{id}/comments
func (h *EngagementHandlers) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	recipeID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req commentRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	c, err := h.comments.AddComment(r.Context(), recipeID, userID, req.Content, req.ParentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, c)
}

// UpdateComment handles PUT /api/comments/{id}
func (h *EngagementHandlers) UpdateComment(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	commentID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req editCommentRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	c, err := h.comments.UpdateComment(r.Context(), commentID, userID, req.Content)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, c)
}

// DeleteComment handles DELETE /api/comments/{id}
func (h *EngagementHandlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	commentID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.comments.DeleteComment(r.Context(), commentID, userID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListReplies handles GET /api/comments/{id}/replies
func (h *EngagementHandlers) ListReplies(w http.ResponseWriter, r *http.Request) {
	commentID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	replies, err := h.comments.ListReplies(r.Context(), commentID, middleware.ViewerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, replies)
}

// Vote returns the handler for POST /api/{recipes|comments}/{id}/{upvote|downvote}
func (h *EngagementHandlers) Vote(kind engagement.TargetKind, voteType engagement.VoteType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target, userID, err := h.voteTarget(r, kind)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		tally, err := h.votes.SetVote(r.Context(), userID, target, voteType)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, tally)
	}
}

// RemoveVote returns the handler for POST /api/{recipes|comments}/{id}/remove-vote
func (h *EngagementHandlers) RemoveVote(kind engagement.TargetKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target, userID, err := h.voteTarget(r, kind)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		tally, err := h.votes.ClearVote(r.Context(), userID, target)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, tally)
	}
}

func (h *EngagementHandlers) voteTarget(r *http.Request, kind engagement.TargetKind) (engagement.Target, uint, error) {
	userID, err := actor(r)
	if err != nil {
		return engagement.Target{}, 0, err
	}
	id, err := pathID(r, "id")
	if err != nil {
		return engagement.Target{}, 0, err
	}
	return engagement.Target{Kind: kind, ID: id}, userID, nil
}

// AddFavorite handles POST /api/favorites
func (h *EngagementHandlers) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req favoriteRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	fav, err := h.favorites.AddFavorite(r.Context(), userID, req.FavoriteType, req.FavoriteID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, fav)
}

// RemoveFavorite handles DELETE /api/favorites/{id}
func (h *EngagementHandlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID, err := actor(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	favID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.favorites.RemoveFavorite(r.Context(), favID, userID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListFavorites handles GET /api/users/{username}/favorites
func (h *EngagementHandlers) ListFavorites(w http.ResponseWriter, r *http.Request) {
	list, err := h.favorites.ListFavorites(r.Context(),
		chi.URLParam(r, "username"),
		r.URL.Query().Get("type"),
		pageQuery(r),
	)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}
