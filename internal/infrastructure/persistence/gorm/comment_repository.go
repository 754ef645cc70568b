package gorm

import (
	"context"
	"errors"

	"github.com/recipeatlas/server/internal/domain/engagement"
	"github.com/recipeatlas/server/internal/domain/shared"
	"github.com/recipeatlas/server/internal/ports/outbound"
	"gorm.io/gorm"
)

// CommentRepository stores threaded comments
type CommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

var _ outbound.CommentRepository = (*CommentRepository)(nil)

// Create inserts a comment and sets its ID
func (r *CommentRepository) Create(ctx context.Context, c *engagement.Comment) error {
	model := CommentToModel(c)
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return err
	}
	c.ID = model.ID
	return nil
}

// Update writes the content and edit flag
func (r *CommentRepository) Update(ctx context.Context, c *engagement.Comment) error {
	result := conn(ctx, r.db).Model(&CommentModel{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"content":    c.Content,
			"is_edited":  c.IsEdited,
			"updated_at": c.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return engagement.ErrCommentNotFound
	}
	return nil
}

// Delete removes a comment; replies and votes cascade
func (r *CommentRepository) Delete(ctx context.Context, id uint) error {
	result := conn(ctx, r.db).Delete(&CommentModel{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return engagement.ErrCommentNotFound
	}
	return nil
}

// FindByID finds a comment by ID
func (r *CommentRepository) FindByID(ctx context.Context, id uint) (*engagement.Comment, error) {
	var model CommentModel
	if err := conn(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, engagement.ErrCommentNotFound
		}
		return nil, err
	}
	return ModelToComment(&model), nil
}

// ListTopLevel returns a page of parentless comments, oldest first
func (r *CommentRepository) ListTopLevel(ctx context.Context, recipeID uint, page shared.Page) ([]*engagement.Comment, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Where("recipe_id = ? AND parent_id IS NULL", recipeID)
	}

	var total int64
	if err := conn(ctx, r.db).Model(&CommentModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []CommentModel
	err := conn(ctx, r.db).Scopes(scope).
		Order("created_at ASC").Order("id ASC").
		Offset(page.Offset()).Limit(page.PerPage).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	comments := make([]*engagement.Comment, len(models))
	for i := range models {
		comments[i] = ModelToComment(&models[i])
	}
	return comments, total, nil
}

// ListReplies groups the direct replies of each parent, oldest first
func (r *CommentRepository) ListReplies(ctx context.Context, parentIDs []uint) (map[uint][]*engagement.Comment, error) {
	replies := make(map[uint][]*engagement.Comment, len(parentIDs))
	if len(parentIDs) == 0 {
		return replies, nil
	}

	var models []CommentModel
	err := conn(ctx, r.db).Where("parent_id IN ?", parentIDs).
		Order("created_at ASC").Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	for i := range models {
		c := ModelToComment(&models[i])
		replies[*c.ParentID] = append(replies[*c.ParentID], c)
	}
	return replies, nil
}

// CountByRecipe counts every comment on a recipe, replies included
func (r *CommentRepository) CountByRecipe(ctx context.Context, recipeID uint) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&CommentModel{}).Where("recipe_id = ?", recipeID).Count(&count).Error
	return count, err
}
