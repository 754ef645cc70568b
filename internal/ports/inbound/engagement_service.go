package inbound

import (
	"context"

	"github.com/recipeatlas/server/internal/domain/engagement"
)

// VoteService is the vote ledger
type VoteService interface {
	SetVote(ctx context.Context, userID uint, target engagement.Target, voteType engagement.VoteType) (*TallyDTO, error)
	ClearVote(ctx context.Context, userID uint, target engagement.Target) (*TallyDTO, error)
	Tallies(ctx context.Context, kind engagement.TargetKind, ids []uint, viewerID uint) (map[uint]TallyDTO, error)
}

// FavoriteService is the favorite registry
type FavoriteService interface {
	AddFavorite(ctx context.Context, userID uint, favoriteType string, targetID uint) (*FavoriteDTO, error)
	RemoveFavorite(ctx context.Context, favoriteID, requesterID uint) error
	// ListFavorites filters by favoriteType unless it is empty
	ListFavorites(ctx context.Context, username, favoriteType string, page PageQuery) (*List[FavoriteDTO], error)
}

// CommentService is the comment thread
type CommentService interface {
	AddComment(ctx context.Context, recipeID, userID uint, content string, parentID *uint) (*CommentDTO, error)
	UpdateComment(ctx context.Context, commentID, requesterID uint, content string) (*CommentDTO, error)
	DeleteComment(ctx context.Context, commentID, requesterID uint) error
	ListComments(ctx context.Context, recipeID, viewerID uint, page PageQuery) (*List[CommentDTO], error)
	ListReplies(ctx context.Context, commentID, viewerID uint) ([]CommentDTO, error)
}
