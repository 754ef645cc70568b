package recipe

import "time"

// Domain Events - Events that occur within the recipe domain

// CreatedEvent is raised when a new recipe is stored
type CreatedEvent struct {
	RecipeID  uint
	AuthorID  uint
	Slug      string
	Mode      Mode
	CreatedAt time.Time
}

func (e CreatedEvent) EventName() string {
	return "recipe.created"
}

func (e CreatedEvent) OccurredAt() time.Time {
	return e.CreatedAt
}

// UpdatedEvent is raised when a recipe is edited
type UpdatedEvent struct {
	RecipeID      uint
	StepsReplaced bool
	UpdatedAt     time.Time
}

func (e UpdatedEvent) EventName() string {
	return "recipe.updated"
}

func (e UpdatedEvent) OccurredAt() time.Time {
	return e.UpdatedAt
}

// DeletedEvent is raised when a recipe and its aggregate are removed
type DeletedEvent struct {
	RecipeID  uint
	DeletedAt time.Time
}

func (e DeletedEvent) EventName() string {
	return "recipe.deleted"
}

func (e DeletedEvent) OccurredAt() time.Time {
	return e.DeletedAt
}
