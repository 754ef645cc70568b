package recipe

import "errors"

// Domain errors for recipe operations

var (
	// Entity validation errors
	ErrTitleRequired          = errors.New("title is required")
	ErrTitleTooLong           = errors.New("title must be 255 characters or less")
	ErrDescriptionTooLong     = errors.New("description must be 10000 characters or less")
	ErrInstructionsTooLong    = errors.New("instructions must be 50000 characters or less")
	ErrImageURLTooLong        = errors.New("image_url must be 500 characters or less")
	ErrStateRequired          = errors.New("state_id is required")
	ErrAuthorRequired         = errors.New("author is required")
	ErrStepInstructionTooLong = errors.New("step instruction must be 10000 characters or less")
	ErrNegativeDuration       = errors.New("step duration_minutes must not be negative")
	ErrIngredientNameTooLong  = errors.New("ingredient name must be 255 characters or less")
	ErrIngredientUnitTooLong  = errors.New("ingredient unit must be 50 characters or less")
	ErrNegativeQuantity       = errors.New("ingredient quantity must not be negative")

	// Lookup and permission errors
	ErrRecipeNotFound  = errors.New("recipe not found")
	ErrNotRecipeOwner  = errors.New("only the recipe author can perform this action")
	ErrSlugUnavailable = errors.New("no free slug for this title")
)
