// Package gorm provides GORM model definitions and repository
// implementations for the relational store.
package gorm

import "time"

// UserModel represents the GORM model for users. Deleting a user cascades to
// everything the user owns.
type UserModel struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"type:varchar(30);uniqueIndex;not null"`
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string `gorm:"type:varchar(255);not null"`
	Bio          string `gorm:"type:text"`
	Country      string `gorm:"type:varchar(100)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Relationships
	Recipes      []RecipeModel      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Comments     []CommentModel     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	RecipeVotes  []RecipeVoteModel  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CommentVotes []CommentVoteModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Favorites    []FavoriteModel    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// CountryModel represents the GORM model for countries
type CountryModel struct {
	ID        uint     `gorm:"primaryKey"`
	Name      string   `gorm:"type:varchar(100);uniqueIndex;not null"`
	Code      *string  `gorm:"type:varchar(2);uniqueIndex"`
	Continent string   `gorm:"type:varchar(50)"`
	Lat       *float64 `gorm:"column:lat"`
	Lng       *float64 `gorm:"column:lng"`
	CreatedAt time.Time

	States []StateModel `gorm:"foreignKey:CountryID;constraint:OnDelete:CASCADE"`
}

// StateModel represents the GORM model for states. A state holding recipes
// cannot be deleted.
type StateModel struct {
	ID        uint   `gorm:"primaryKey"`
	CountryID uint   `gorm:"not null;uniqueIndex:idx_states_country_name"`
	Name      string `gorm:"type:varchar(100);not null;uniqueIndex:idx_states_country_name"`
	CreatedAt time.Time

	Recipes []RecipeModel `gorm:"foreignKey:StateID;constraint:OnDelete:RESTRICT"`
}

// RecipeModel represents the GORM model for recipes. Instructions is NULL
// for structured recipes.
type RecipeModel struct {
	ID           uint      `gorm:"primaryKey"`
	Title        string    `gorm:"type:varchar(255);not null;index"`
	Slug         string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Description  string    `gorm:"type:text"`
	Instructions *string   `gorm:"type:text"`
	ImageURL     string    `gorm:"column:image_url;type:varchar(500)"`
	AuthorID     uint      `gorm:"not null;index"`
	StateID      uint      `gorm:"not null;index"`
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time

	// Relationships
	Steps    []StepModel       `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Comments []CommentModel    `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Votes    []RecipeVoteModel `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// StepModel represents one ordered step of a recipe
type StepModel struct {
	ID              uint   `gorm:"primaryKey"`
	RecipeID        uint   `gorm:"not null;uniqueIndex:idx_steps_recipe_number"`
	StepNumber      int    `gorm:"not null;uniqueIndex:idx_steps_recipe_number"`
	Instruction     string `gorm:"type:text;not null"`
	ImageURL        string `gorm:"column:image_url;type:varchar(500)"`
	DurationMinutes *int
	CreatedAt       time.Time

	Ingredients []IngredientModel `gorm:"foreignKey:StepID;constraint:OnDelete:CASCADE"`
}

// IngredientModel represents one ingredient of a step
type IngredientModel struct {
	ID        uint   `gorm:"primaryKey"`
	StepID    uint   `gorm:"not null;index"`
	Name      string `gorm:"type:varchar(255);not null"`
	Quantity  *float64
	Unit      string `gorm:"type:varchar(50)"`
	Notes     string `gorm:"type:text"`
	SortOrder int    `gorm:"not null;default:0"`
	CreatedAt time.Time
}

// CommentModel represents a recipe comment. Replies cascade with their parent.
type CommentModel struct {
	ID        uint      `gorm:"primaryKey"`
	RecipeID  uint      `gorm:"not null;index"`
	UserID    uint      `gorm:"not null;index"`
	ParentID  *uint     `gorm:"index"`
	Content   string    `gorm:"type:text;not null"`
	IsEdited  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	Replies []CommentModel     `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
	Votes   []CommentVoteModel `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE"`
}

// RecipeVoteModel is a user's single vote on a recipe
type RecipeVoteModel struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_recipe_votes_user_recipe"`
	RecipeID  uint   `gorm:"not null;uniqueIndex:idx_recipe_votes_user_recipe;index"`
	VoteType  string `gorm:"type:varchar(10);not null;check:chk_recipe_votes_type,vote_type IN ('upvote','downvote')"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommentVoteModel is a user's single vote on a comment
type CommentVoteModel struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_comment_votes_user_comment"`
	CommentID uint   `gorm:"not null;uniqueIndex:idx_comment_votes_user_comment;index"`
	VoteType  string `gorm:"type:varchar(10);not null;check:chk_comment_votes_type,vote_type IN ('upvote','downvote')"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FavoriteModel is a polymorphic favorite. FavoriteID is deliberately not a
// foreign key; it points into the table named by FavoriteType.
type FavoriteModel struct {
	ID           uint      `gorm:"primaryKey"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_favorites_user_target"`
	FavoriteType string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_favorites_user_target;check:chk_favorites_type,favorite_type IN ('user','recipe','state','country')"`
	FavoriteID   uint      `gorm:"not null;uniqueIndex:idx_favorites_user_target"`
	CreatedAt    time.Time `gorm:"index"`
}

// AllModels lists every model in dependency order for AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&UserModel{},
		&CountryModel{},
		&StateModel{},
		&RecipeModel{},
		&StepModel{},
		&IngredientModel{},
		&CommentModel{},
		&RecipeVoteModel{},
		&CommentVoteModel{},
		&FavoriteModel{},
	}
}

// TableName methods for custom table names
func (UserModel) TableName() string {
	return "users"
}

func (CountryModel) TableName() string {
	return "countries"
}

func (StateModel) TableName() string {
	return "states"
}

func (RecipeModel) TableName() string {
	return "recipes"
}

func (StepModel) TableName() string {
	return "steps"
}

func (IngredientModel) TableName() string {
	return "ingredients"
}

func (CommentModel) TableName() string {
	return "comments"
}

func (RecipeVoteModel) TableName() string {
	return "recipe_votes"
}

func (CommentVoteModel) TableName() string {
	return "comment_votes"
}

func (FavoriteModel) TableName() string {
	return "favorites"
}
