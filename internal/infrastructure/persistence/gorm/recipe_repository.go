package gorm

import (
	"context"
	"errors"
	"strings"

	"github.com/recipeatlas/server/internal/domain/recipe"
	"github.com/recipeatlas/server/internal/domain/shared"
	"github.com/recipeatlas/server/internal/ports/outbound"
	"gorm.io/gorm"
)

// netScoreSQL computes a recipe's upvotes minus downvotes from live rows
const netScoreSQL = `(SELECT COALESCE(SUM(CASE WHEN rv.vote_type = 'upvote' THEN 1 ELSE -1 END), 0) ` +
	`FROM recipe_votes rv WHERE rv.recipe_id = recipes.id)`

// RecipeRepository implements the recipe repository interface using GORM
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

var _ outbound.RecipeRepository = (*RecipeRepository)(nil)

// Create inserts the recipe, its steps and their ingredients in one go
func (r *RecipeRepository) Create(ctx context.Context, rec *recipe.Recipe) (*recipe.Recipe, error) {
	model := RecipeToModel(rec)

	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, outbound.ErrDuplicate
		}
		return nil, err
	}

	return r.FindByID(ctx, model.ID)
}

// Update writes the recipe row and optionally replaces the step tree
func (r *RecipeRepository) Update(ctx context.Context, rec *recipe.Recipe, replaceSteps bool) (*recipe.Recipe, error) {
	db := conn(ctx, r.db)
	model := RecipeToModel(rec)

	result := db.Model(&RecipeModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"title":        model.Title,
			"slug":         model.Slug,
			"description":  model.Description,
			"instructions": model.Instructions,
			"image_url":    model.ImageURL,
			"state_id":     model.StateID,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return nil, outbound.ErrDuplicate
		}
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, recipe.ErrRecipeNotFound
	}

	if replaceSteps {
		stepIDs := db.Model(&StepModel{}).Select("id").Where("recipe_id = ?", model.ID)
		if err := db.Where("step_id IN (?)", stepIDs).Delete(&IngredientModel{}).Error; err != nil {
			return nil, err
		}
		if err := db.Where("recipe_id = ?", model.ID).Delete(&StepModel{}).Error; err != nil {
			return nil, err
		}
		if len(model.Steps) > 0 {
			steps := StepsToModels(model.ID, rec.Steps())
			if err := db.Create(&steps).Error; err != nil {
				return nil, err
			}
		}
	}

	return r.FindByID(ctx, model.ID)
}

// Delete removes a recipe; steps, ingredients, comments and votes go with
// it through foreign key cascades
func (r *RecipeRepository) Delete(ctx context.Context, id uint) error {
	result := conn(ctx, r.db).Delete(&RecipeModel{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return recipe.ErrRecipeNotFound
	}
	return nil
}

// FindByID loads a recipe with its ordered step tree
func (r *RecipeRepository) FindByID(ctx context.Context, id uint) (*recipe.Recipe, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindBySlug loads a recipe by slug with its ordered step tree
func (r *RecipeRepository) FindBySlug(ctx context.Context, slug string) (*recipe.Recipe, error) {
	return r.findOne(ctx, "slug = ?", slug)
}

func (r *RecipeRepository) findOne(ctx context.Context, query string, arg interface{}) (*recipe.Recipe, error) {
	var model RecipeModel

	err := conn(ctx, r.db).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_number ASC")
		}).
		Preload("Steps.Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC").Order("id ASC")
		}).
		Where(query, arg).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, recipe.ErrRecipeNotFound
		}
		return nil, err
	}

	return ModelToRecipe(&model), nil
}

// FindByIDs loads recipes without steps, keyed by ID
func (r *RecipeRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]*recipe.Recipe, error) {
	found := make(map[uint]*recipe.Recipe, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	var models []RecipeModel
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	for i := range models {
		found[models[i].ID] = ModelToRecipe(&models[i])
	}
	return found, nil
}

// SlugExists reports whether another recipe already holds slug
func (r *RecipeRepository) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	q := conn(ctx, r.db).Model(&RecipeModel{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns a page of recipes matching filter
func (r *RecipeRepository) List(ctx context.Context, filter outbound.RecipeFilter, page shared.Page) ([]*recipe.Recipe, int64, error) {
	var total int64
	if err := conn(ctx, r.db).Model(&RecipeModel{}).Scopes(r.filterScope(ctx, filter)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []RecipeModel
	q := conn(ctx, r.db).Model(&RecipeModel{}).Scopes(r.filterScope(ctx, filter))
	switch filter.Sort {
	case outbound.SortPopular:
		q = q.Order(netScoreSQL + " DESC").Order("recipes.created_at DESC")
	case outbound.SortAlphabetical:
		q = q.Order("LOWER(recipes.title) ASC")
	default:
		q = q.Order("recipes.created_at DESC")
	}
	err := q.Order("recipes.id DESC").
		Offset(page.Offset()).
		Limit(page.PerPage).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	recipes := make([]*recipe.Recipe, len(models))
	for i := range models {
		recipes[i] = ModelToRecipe(&models[i])
	}
	return recipes, total, nil
}

func (r *RecipeRepository) filterScope(ctx context.Context, f outbound.RecipeFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case f.StateID != 0:
			db = db.Where("recipes.state_id = ?", f.StateID)
		case f.CountryID != 0:
			states := conn(ctx, r.db).Model(&StateModel{}).Select("id").Where("country_id = ?", f.CountryID)
			db = db.Where("recipes.state_id IN (?)", states)
		case strings.TrimSpace(f.CountryName) != "":
			countries := conn(ctx, r.db).Model(&CountryModel{}).Select("id").
				Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(f.CountryName)))
			states := conn(ctx, r.db).Model(&StateModel{}).Select("id").Where("country_id IN (?)", countries)
			db = db.Where("recipes.state_id IN (?)", states)
		}
		if f.AuthorID != 0 {
			db = db.Where("recipes.author_id = ?", f.AuthorID)
		}
		if q := strings.TrimSpace(f.Query); q != "" {
			pattern := containsPattern(q)
			db = db.Where(
				`(LOWER(recipes.title) LIKE ? ESCAPE '\' OR LOWER(recipes.description) LIKE ? ESCAPE '\' `+
					`OR LOWER(COALESCE(recipes.instructions, '')) LIKE ? ESCAPE '\')`,
				pattern, pattern, pattern,
			)
		}
		return db
	}
}

// CountByAuthor counts the recipes a user wrote
func (r *RecipeRepository) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&RecipeModel{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}
