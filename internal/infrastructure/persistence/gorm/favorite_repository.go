package gorm

import (
	"context"
	"errors"

	"github.com/recipeatlas/server/internal/domain/engagement"
	"github.com/recipeatlas/server/internal/domain/shared"
	"github.com/recipeatlas/server/internal/ports/outbound"
	"gorm.io/gorm"
)

// FavoriteRepository stores polymorphic favorites
type FavoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository creates a new favorite repository
func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

var _ outbound.FavoriteRepository = (*FavoriteRepository)(nil)

// Create inserts a favorite and sets its ID
func (r *FavoriteRepository) Create(ctx context.Context, f *engagement.Favorite) error {
	model := &FavoriteModel{
		UserID:       f.UserID,
		FavoriteType: string(f.Subject.Type()),
		FavoriteID:   f.Subject.TargetID(),
		CreatedAt:    f.CreatedAt,
	}
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return outbound.ErrDuplicate
		}
		return err
	}
	f.ID = model.ID
	return nil
}

// Delete removes a favorite by ID
func (r *FavoriteRepository) Delete(ctx context.Context, id uint) error {
	result := conn(ctx, r.db).Delete(&FavoriteModel{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return engagement.ErrFavoriteNotFound
	}
	return nil
}

// FindByID finds a favorite by ID
func (r *FavoriteRepository) FindByID(ctx context.Context, id uint) (*engagement.Favorite, error) {
	var model FavoriteModel
	if err := conn(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, engagement.ErrFavoriteNotFound
		}
		return nil, err
	}
	return ModelToFavorite(&model)
}

// Exists reports whether the user already favorited the subject
func (r *FavoriteRepository) Exists(ctx context.Context, userID uint, subject engagement.Subject) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&FavoriteModel{}).
		Where("user_id = ? AND favorite_type = ? AND favorite_id = ?", userID, string(subject.Type()), subject.TargetID()).
		Count(&count).Error
	return count > 0, err
}

// ListByUser returns a page of the user's favorites, newest first
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID uint, t engagement.FavoriteType, page shared.Page) ([]*engagement.Favorite, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", userID)
		if t != "" {
			db = db.Where("favorite_type = ?", string(t))
		}
		return db
	}

	var total int64
	if err := conn(ctx, r.db).Model(&FavoriteModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []FavoriteModel
	err := conn(ctx, r.db).Scopes(scope).
		Order("created_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.PerPage).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	favorites := make([]*engagement.Favorite, 0, len(models))
	for i := range models {
		f, err := ModelToFavorite(&models[i])
		if err != nil {
			return nil, 0, err
		}
		favorites = append(favorites, f)
	}
	return favorites, total, nil
}
