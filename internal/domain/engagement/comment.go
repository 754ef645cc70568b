package engagement

import (
	"time"

	"github.com/recipeatlas/server/internal/domain/shared"
)

// MaxCommentLength bounds comment content in runes
const MaxCommentLength = 10000

// Comment is a message on a recipe, optionally replying to another comment
// of the same recipe.
type Comment struct {
	ID        uint
	RecipeID  uint
	UserID    uint
	ParentID  *uint
	Content   string
	IsEdited  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewComment builds an unsaved comment. parent may be nil for a top-level
// comment; a parent from another recipe is rejected.
func NewComment(recipeID, userID uint, content string, parent *Comment) (*Comment, error) {
	content, err := cleanContent(content)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c := &Comment{
		RecipeID:  recipeID,
		UserID:    userID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if parent != nil {
		if err := c.ReplyTo(parent); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ReplyTo makes the comment a reply to parent, which must be on the same
// recipe
func (c *Comment) ReplyTo(parent *Comment) error {
	if parent.RecipeID != c.RecipeID {
		return ErrParentOnOtherRecipe
	}
	pid := parent.ID
	c.ParentID = &pid
	return nil
}

// Edit replaces the content. The comment is marked edited even when the
// content is unchanged.
func (c *Comment) Edit(content string) error {
	content, err := cleanContent(content)
	if err != nil {
		return err
	}
	c.Content = content
	c.IsEdited = true
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// IsOwnedBy reports whether userID wrote the comment
func (c *Comment) IsOwnedBy(userID uint) bool {
	return userID != 0 && c.UserID == userID
}

// IsReply reports whether the comment answers another comment
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

func cleanContent(content string) (string, error) {
	content = shared.CleanText(content)
	if content == "" {
		return "", ErrContentRequired
	}
	if shared.TooLong(content, MaxCommentLength) {
		return "", ErrContentTooLong
	}
	return content, nil
}
