// Package engagement provides the vote ledger, the favorite registry and
// the comment thread use cases
package engagement

import (
	stderrors "errors"

	"github.com/recipeatlas/server/internal/domain/engagement"
	"github.com/recipeatlas/server/internal/domain/recipe"
	"github.com/recipeatlas/server/internal/domain/user"
	"github.com/recipeatlas/server/pkg/errors"
)

func toAppError(err error, operation string) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	switch {
	case stderrors.Is(err, engagement.ErrContentRequired),
		stderrors.Is(err, engagement.ErrContentTooLong),
		stderrors.Is(err, engagement.ErrInvalidVoteType),
		stderrors.Is(err, engagement.ErrInvalidTargetKind),
		stderrors.Is(err, engagement.ErrInvalidFavoriteType),
		stderrors.Is(err, engagement.ErrInvalidTargetID),
		stderrors.Is(err, engagement.ErrParentOnOtherRecipe):
		return errors.NewValidationError(err.Error())
	case stderrors.Is(err, engagement.ErrCommentNotFound):
		return errors.NewNotFoundError("comment")
	case stderrors.Is(err, engagement.ErrParentNotFound):
		return errors.NewNotFoundError("parent comment")
	case stderrors.Is(err, engagement.ErrFavoriteNotFound):
		return errors.NewNotFoundError("favorite")
	case stderrors.Is(err, engagement.ErrTargetNotFound):
		return errors.NewNotFoundError("target")
	case stderrors.Is(err, recipe.ErrRecipeNotFound):
		return errors.NewNotFoundError("recipe")
	case stderrors.Is(err, user.ErrUserNotFound):
		return errors.NewNotFoundError("user")
	case stderrors.Is(err, engagement.ErrNotCommentOwner),
		stderrors.Is(err, engagement.ErrNotFavoriteOwner):
		return errors.NewForbiddenError(err.Error())
	case stderrors.Is(err, engagement.ErrDuplicateFavorite):
		return errors.NewConflictError(err.Error())
	}

	return errors.NewDatabaseError(operation, err)
}
