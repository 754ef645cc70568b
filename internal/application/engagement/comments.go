package engagement

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/recipeatlas/server/internal/application/assembler"
	"github.com/recipeatlas/server/internal/domain/engagement"
	"github.com/recipeatlas/server/internal/domain/recipe"
	"github.com/recipeatlas/server/internal/ports/inbound"
	"github.com/recipeatlas/server/internal/ports/outbound"
	"go.uber.org/zap"
)

// CommentService is the threaded comment use case. Listings are shallow:
// a comment comes with its direct replies only.
type CommentService struct {
	tx       outbound.TxManager
	comments outbound.CommentRepository
	recipes  outbound.RecipeRepository
	loader   *assembler.Loader
	events   outbound.EventBus
	paging   assembler.Paging
	logger   *zap.Logger
}

// NewCommentService creates a comment service
func NewCommentService(
	tx outbound.TxManager,
	comments outbound.CommentRepository,
	recipes outbound.RecipeRepository,
	loader *assembler.Loader,
	events outbound.EventBus,
	paging assembler.Paging,
	logger *zap.Logger,
) *CommentService {
	return &CommentService{
		tx:       tx,
		comments: comments,
		recipes:  recipes,
		loader:   loader,
		events:   events,
		paging:   paging,
		logger:   logger.Named("comment-service"),
	}
}

var _ inbound.CommentService = (*CommentService)(nil)

// AddComment posts a comment on a recipe, or a reply when parentID is set
func (s *CommentService) AddComment(ctx context.Context, recipeID, userID uint, content string, parentID *uint) (*inbound.CommentDTO, error) {
	comment, err := engagement.NewComment(recipeID, userID, content, nil)
	if err != nil {
		return nil, toAppError(err, "add comment")
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.requireRecipe(ctx, recipeID); err != nil {
			return err
		}

		if parentID != nil {
			parent, err := s.comments.FindByID(ctx, *parentID)
			if stderrors.Is(err, engagement.ErrCommentNotFound) {
				return engagement.ErrParentNotFound
			}
			if err != nil {
				return err
			}
			if err := comment.ReplyTo(parent); err != nil {
				return err
			}
		}

		return s.comments.Create(ctx, comment)
	})
	if err != nil {
		return nil, toAppError(err, "add comment")
	}

	s.events.Publish(ctx, engagement.CommentAddedEvent{
		CommentID: comment.ID,
		RecipeID:  recipeID,
		IsReply:   comment.IsReply(),
		At:        comment.CreatedAt,
	})

	s.logger.Info("Comment added",
		zap.Uint("comment_id", comment.ID),
		zap.Uint("recipe_id", recipeID),
		zap.Bool("reply", comment.IsReply()),
	)

	return s.single(ctx, comment, userID)
}

// UpdateComment replaces the content of the requester's own comment
func (s *CommentService) UpdateComment(ctx context.Context, commentID, requesterID uint, content string) (*inbound.CommentDTO, error) {
	var comment *engagement.Comment

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		comment, err = s.comments.FindByID(ctx, commentID)
		if err != nil {
			return err
		}
		if !comment.IsOwnedBy(requesterID) {
			return engagement.ErrNotCommentOwner
		}
		if err := comment.Edit(content); err != nil {
			return err
		}
		return s.comments.Update(ctx, comment)
	})
	if err != nil {
		return nil, toAppError(err, "update comment")
	}

	return s.single(ctx, comment, requesterID)
}

// DeleteComment removes the requester's own comment with its replies
func (s *CommentService) DeleteComment(ctx context.Context, commentID, requesterID uint) error {
	var recipeID uint
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		comment, err := s.comments.FindByID(ctx, commentID)
		if err != nil {
			return err
		}
		if !comment.IsOwnedBy(requesterID) {
			return engagement.ErrNotCommentOwner
		}
		recipeID = comment.RecipeID
		return s.comments.Delete(ctx, commentID)
	})
	if err != nil {
		return toAppError(err, "delete comment")
	}

	s.events.Publish(ctx, engagement.CommentDeletedEvent{
		CommentID: commentID,
		RecipeID:  recipeID,
		At:        time.Now().UTC(),
	})
	s.logger.Info("Comment deleted", zap.Uint("comment_id", commentID))
	return nil
}

// ListComments returns one page of top-level comments, oldest first, each
// with its direct replies
func (s *CommentService) ListComments(ctx context.Context, recipeID, viewerID uint, q inbound.PageQuery) (*inbound.List[inbound.CommentDTO], error) {
	if err := s.requireRecipe(ctx, recipeID); err != nil {
		return nil, toAppError(err, "find recipe")
	}

	page := s.paging.Page(q)
	top, total, err := s.comments.ListTopLevel(ctx, recipeID, page)
	if err != nil {
		return nil, toAppError(err, "list comments")
	}

	ids := make([]uint, 0, len(top))
	for _, c := range top {
		ids = append(ids, c.ID)
	}
	replies, err := s.comments.ListReplies(ctx, ids)
	if err != nil {
		return nil, toAppError(err, "list replies")
	}

	items, err := s.loader.Comments(ctx, top, replies, viewerID)
	if err != nil {
		return nil, toAppError(err, "load comments")
	}
	return assembler.NewList(items, total, page), nil
}

// ListReplies returns the direct replies of a comment, oldest first
func (s *CommentService) ListReplies(ctx context.Context, commentID, viewerID uint) ([]inbound.CommentDTO, error) {
	if _, err := s.comments.FindByID(ctx, commentID); err != nil {
		return nil, toAppError(err, "find comment")
	}

	replies, err := s.comments.ListReplies(ctx, []uint{commentID})
	if err != nil {
		return nil, toAppError(err, "list replies")
	}

	items, err := s.loader.Comments(ctx, replies[commentID], nil, viewerID)
	if err != nil {
		return nil, toAppError(err, "load comments")
	}
	return items, nil
}

func (s *CommentService) requireRecipe(ctx context.Context, recipeID uint) error {
	found, err := s.recipes.FindByIDs(ctx, []uint{recipeID})
	if err != nil {
		return err
	}
	if _, ok := found[recipeID]; !ok {
		return recipe.ErrRecipeNotFound
	}
	return nil
}

func (s *CommentService) single(ctx context.Context, comment *engagement.Comment, viewerID uint) (*inbound.CommentDTO, error) {
	items, err := s.loader.Comments(ctx, []*engagement.Comment{comment}, nil, viewerID)
	if err != nil {
		return nil, toAppError(err, "load comment")
	}
	return &items[0], nil
}
