package recipe

import (
	stderrors "errors"

	"github.com/recipeatlas/server/internal/domain/recipe"
	"github.com/recipeatlas/server/internal/domain/taxonomy"
	"github.com/recipeatlas/server/pkg/errors"
)

var validationErrors = []error{
	recipe.ErrTitleRequired,
	recipe.ErrTitleTooLong,
	recipe.ErrDescriptionTooLong,
	recipe.ErrInstructionsTooLong,
	recipe.ErrImageURLTooLong,
	recipe.ErrStateRequired,
	recipe.ErrStepInstructionTooLong,
	recipe.ErrNegativeDuration,
	recipe.ErrIngredientNameTooLong,
	recipe.ErrIngredientUnitTooLong,
	recipe.ErrNegativeQuantity,
}

// errSlugTaken signals a slug lost to a concurrent writer; the caller retries
var errSlugTaken = stderrors.New("slug taken concurrently")

// toAppError maps domain and store errors onto the API error kinds
func toAppError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	for _, v := range validationErrors {
		if stderrors.Is(err, v) {
			return errors.NewValidationError(err.Error())
		}
	}

	switch {
	case stderrors.Is(err, recipe.ErrRecipeNotFound):
		return errors.NewNotFoundError("recipe")
	case stderrors.Is(err, recipe.ErrNotRecipeOwner):
		return errors.NewForbiddenError(recipe.ErrNotRecipeOwner.Error())
	case stderrors.Is(err, recipe.ErrSlugUnavailable):
		return errors.NewConflictError("Could not find a free slug for this title")
	case stderrors.Is(err, taxonomy.ErrStateNotFound):
		return errors.NewValidationError("state_id: state does not exist")
	}

	return errors.NewDatabaseError(operation, err)
}
