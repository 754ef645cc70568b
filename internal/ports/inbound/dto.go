package inbound

import "time"

// List is the envelope of every paginated response
type List[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Pages   int   `json:"pages"`
}

// AuthorDTO is the compact user reference embedded in recipes and comments
type AuthorDTO struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// UserDTO is a user profile. Email is only set on the owner's own profile.
type UserDTO struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	Bio         string    `json:"bio"`
	Country     string    `json:"country"`
	RecipeCount *int64    `json:"recipe_count,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CountryDTO is a country with an optional recipe count
type CountryDTO struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Code        string   `json:"code,omitempty"`
	Continent   string   `json:"continent,omitempty"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	RecipeCount *int64   `json:"recipe_count,omitempty"`
}

// StateDTO is a state with its country name
type StateDTO struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	CountryID   uint   `json:"country_id"`
	CountryName string `json:"country_name,omitempty"`
	RecipeCount *int64 `json:"recipe_count,omitempty"`
}

// TallyDTO is the vote summary of a recipe or comment
type TallyDTO struct {
	Upvotes   int64   `json:"upvotes"`
	Downvotes int64   `json:"downvotes"`
	Score     int64   `json:"score"`
	UserVote  *string `json:"user_vote"`
}

// IngredientDTO is one ingredient of a step
type IngredientDTO struct {
	ID       uint     `json:"id"`
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity"`
	Unit     string   `json:"unit"`
	Notes    string   `json:"notes"`
	Order    int      `json:"order"`
}

// StepDTO is one step of a structured recipe
type StepDTO struct {
	ID              uint            `json:"id"`
	StepNumber      int             `json:"step_number"`
	Instruction     string          `json:"instruction"`
	ImageURL        string          `json:"image_url"`
	DurationMinutes *int            `json:"duration_minutes"`
	Ingredients     []IngredientDTO `json:"ingredients"`
}

// RecipeDTO is a recipe. Steps and Comments are only filled on detail
// reads; Instructions is null for structured recipes.
type RecipeDTO struct {
	ID           uint         `json:"id"`
	Title        string       `json:"title"`
	Slug         string       `json:"slug"`
	Description  string       `json:"description"`
	Instructions *string      `json:"instructions"`
	ImageURL     string       `json:"image_url"`
	Mode         string       `json:"mode"`
	Author       AuthorDTO    `json:"author"`
	State        *StateDTO    `json:"state"`
	Steps        []StepDTO    `json:"steps,omitempty"`
	Comments     []CommentDTO `json:"comments,omitempty"`
	CommentCount *int64       `json:"comment_count,omitempty"`
	TallyDTO
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentDTO is a comment. Replies holds one level only; replies of a
// reply are fetched separately.
type CommentDTO struct {
	ID       uint         `json:"id"`
	RecipeID uint         `json:"recipe_id"`
	ParentID *uint        `json:"parent_id"`
	Content  string       `json:"content"`
	IsEdited bool         `json:"is_edited"`
	Author   AuthorDTO    `json:"author"`
	Replies  []CommentDTO `json:"replies,omitempty"`
	TallyDTO
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FavoriteDTO is a favorite with its resolved target. FavoriteData is nil
// when the target has been deleted.
type FavoriteDTO struct {
	ID           uint      `json:"id"`
	FavoriteType string    `json:"favorite_type"`
	FavoriteID   uint      `json:"favorite_id"`
	FavoriteData any       `json:"favorite_data"`
	CreatedAt    time.Time `json:"created_at"`
}

// SearchFilters echoes the filters applied to a search
type SearchFilters struct {
	State   uint `json:"state,omitempty"`
	Country uint `json:"country,omitempty"`
}

// SearchResult is a page of matches plus the query that produced it
type SearchResult struct {
	List[RecipeDTO]
	Query   string        `json:"query"`
	Filters SearchFilters `json:"filters"`
}

// HomeDTO backs the landing page
type HomeDTO struct {
	Featured  []RecipeDTO  `json:"featured"`
	Popular   []RecipeDTO  `json:"popular"`
	Recent    []RecipeDTO  `json:"recent"`
	Countries []CountryDTO `json:"countries"`
	User      *UserDTO     `json:"user"`
}

// NavDTO backs the navigation bar
type NavDTO struct {
	Countries []CountryDTO `json:"countries"`
	User      *UserDTO     `json:"user"`
}
