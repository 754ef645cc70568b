package engagement

import "errors"

var (
	// Validation errors
	ErrContentRequired     = errors.New("content is required")
	ErrContentTooLong      = errors.New("content must be 10000 characters or less")
	ErrInvalidVoteType     = errors.New("vote_type must be upvote or downvote")
	ErrInvalidTargetKind   = errors.New("vote target must be recipe or comment")
	ErrInvalidFavoriteType = errors.New("favorite_type must be one of user, recipe, state, country")
	ErrInvalidTargetID     = errors.New("target id is required")
	ErrParentOnOtherRecipe = errors.New("parent comment belongs to a different recipe")

	// Lookup errors
	ErrCommentNotFound  = errors.New("comment not found")
	ErrParentNotFound   = errors.New("parent comment not found")
	ErrFavoriteNotFound = errors.New("favorite not found")
	ErrTargetNotFound   = errors.New("target not found")

	// Ownership and uniqueness errors
	ErrNotCommentOwner   = errors.New("only the comment author can perform this action")
	ErrNotFavoriteOwner  = errors.New("favorite belongs to another user")
	ErrDuplicateFavorite = errors.New("already in favorites")
)
