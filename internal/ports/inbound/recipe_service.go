// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import "context"

// RecipeService defines the use cases for recipe management.
// viewerID is zero for anonymous callers.
type RecipeService interface {
	// Commands
	CreateRecipe(ctx context.Context, authorID uint, cmd CreateRecipeCommand) (*RecipeDTO, error)
	UpdateRecipe(ctx context.Context, recipeID, requesterID uint, cmd UpdateRecipeCommand) (*RecipeDTO, error)
	DeleteRecipe(ctx context.Context, recipeID, requesterID uint) error

	// Queries
	GetRecipe(ctx context.Context, recipeID, viewerID uint) (*RecipeDTO, error)
	GetRecipeBySlug(ctx context.Context, slug string, viewerID uint) (*RecipeDTO, error)
	GetRecipeForEdit(ctx context.Context, recipeID, requesterID uint) (*RecipeDTO, error)
	ListRecipes(ctx context.Context, query ListRecipesQuery) (*List[RecipeDTO], error)
	Search(ctx context.Context, query SearchQuery) (*SearchResult, error)
	Popular(ctx context.Context, limit int, countryName string, viewerID uint) ([]RecipeDTO, error)
	Recent(ctx context.Context, limit int, viewerID uint) ([]RecipeDTO, error)
	Home(ctx context.Context, viewerID uint) (*HomeDTO, error)
	Nav(ctx context.Context, viewerID uint) (*NavDTO, error)
}

// IngredientInput is caller input for an ingredient
type IngredientInput struct {
	Name     string
	Quantity *float64
	Unit     string
	Notes    string
}

// StepInput is caller input for a step
type StepInput struct {
	Instruction     string
	ImageURL        string
	DurationMinutes *int
	Ingredients     []IngredientInput
}

// CreateRecipeCommand contains data for creating a new recipe
type CreateRecipeCommand struct {
	Title        string
	Description  string
	Instructions string
	ImageURL     string
	StateID      uint
	Steps        []StepInput
}

// UpdateRecipeCommand is a patch; nil fields are left untouched.
// A non-nil Steps replaces the whole step tree.
type UpdateRecipeCommand struct {
	Title        *string
	Description  *string
	Instructions *string
	ImageURL     *string
	StateID      *uint
	Steps        *[]StepInput
}

// PageQuery carries raw pagination input
type PageQuery struct {
	Page    int
	PerPage int
}

// ListRecipesQuery filters a recipe listing
type ListRecipesQuery struct {
	StateID   uint
	CountryID uint
	AuthorID  uint
	Sort      string
	Page      PageQuery
	ViewerID  uint
}

// SearchQuery is a substring search request
type SearchQuery struct {
	Text      string
	StateID   uint
	CountryID uint
	Page      PageQuery
	ViewerID  uint
}
