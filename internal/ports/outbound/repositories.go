// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/recipeatlas/server/internal/domain/engagement"
	"github.com/recipeatlas/server/internal/domain/recipe"
	"github.com/recipeatlas/server/internal/domain/shared"
	"github.com/recipeatlas/server/internal/domain/taxonomy"
	"github.com/recipeatlas/server/internal/domain/user"
)

// ErrDuplicate is returned by repositories when a uniqueness constraint
// rejects a write. Callers treat it as expected control flow.
var ErrDuplicate = errors.New("duplicate key")

// TxManager runs a unit of work. Repository calls made with the context
// passed to fn join the transaction; returning an error rolls it back.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// RecipeSort selects the ordering of recipe listings
type RecipeSort string

const (
	SortNewest       RecipeSort = "newest"
	SortPopular      RecipeSort = "popular"
	SortAlphabetical RecipeSort = "alphabetical"
)

// ParseRecipeSort maps a raw sort value; unknown values fall back to newest
func ParseRecipeSort(s string) RecipeSort {
	switch RecipeSort(s) {
	case SortPopular, SortAlphabetical:
		return RecipeSort(s)
	}
	return SortNewest
}

// RecipeFilter narrows recipe listings. Zero values mean "no filter";
// StateID takes precedence over CountryID and CountryName.
type RecipeFilter struct {
	StateID     uint
	CountryID   uint
	CountryName string
	AuthorID    uint
	Query       string
	Sort        RecipeSort
}

// RecipeRepository persists the recipe aggregate
type RecipeRepository interface {
	// Create inserts the recipe with its steps and ingredients and returns
	// the stored aggregate. A slug collision yields ErrDuplicate.
	Create(ctx context.Context, r *recipe.Recipe) (*recipe.Recipe, error)
	// Update writes the recipe row; with replaceSteps the stored step tree
	// is deleted and re-created from r.
	Update(ctx context.Context, r *recipe.Recipe, replaceSteps bool) (*recipe.Recipe, error)
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*recipe.Recipe, error)
	FindBySlug(ctx context.Context, slug string) (*recipe.Recipe, error)
	// FindByIDs loads recipes without their steps
	FindByIDs(ctx context.Context, ids []uint) (map[uint]*recipe.Recipe, error)
	SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
	// List returns one page of recipes (without steps) and the total count
	List(ctx context.Context, filter RecipeFilter, page shared.Page) ([]*recipe.Recipe, int64, error)
	CountByAuthor(ctx context.Context, authorID uint) (int64, error)
}

// UserRepository persists users
type UserRepository interface {
	Create(ctx context.Context, u *user.User) (*user.User, error)
	Update(ctx context.Context, u *user.User) error
	// Delete removes the user and, through cascades, everything they own
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*user.User, error)
	FindByUsername(ctx context.Context, username string) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	FindByIDs(ctx context.Context, ids []uint) (map[uint]*user.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID uint) (bool, error)
}

// TaxonomyRepository persists countries and states
type TaxonomyRepository interface {
	CreateCountry(ctx context.Context, c *taxonomy.Country) error
	CreateState(ctx context.Context, s *taxonomy.State) error
	FindCountry(ctx context.Context, id uint) (*taxonomy.Country, error)
	FindCountryByName(ctx context.Context, name string) (*taxonomy.Country, error)
	FindState(ctx context.Context, id uint) (*taxonomy.State, error)
	FindStateByName(ctx context.Context, countryID uint, name string) (*taxonomy.State, error)
	FindCountriesByIDs(ctx context.Context, ids []uint) (map[uint]*taxonomy.Country, error)
	FindStatesByIDs(ctx context.Context, ids []uint) (map[uint]*taxonomy.State, error)
	// ListCountries orders by name
	ListCountries(ctx context.Context, page shared.Page) ([]*taxonomy.Country, int64, error)
	// ListStates orders by name; countryID zero lists every state
	ListStates(ctx context.Context, countryID uint, page shared.Page) ([]*taxonomy.State, int64, error)
	RecipeCountsByCountry(ctx context.Context, ids []uint) (map[uint]int64, error)
	RecipeCountsByState(ctx context.Context, ids []uint) (map[uint]int64, error)
}

// CommentRepository persists comments
type CommentRepository interface {
	Create(ctx context.Context, c *engagement.Comment) error
	Update(ctx context.Context, c *engagement.Comment) error
	// Delete removes the comment, its replies and their votes
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*engagement.Comment, error)
	// ListTopLevel returns one page of parentless comments, oldest first
	ListTopLevel(ctx context.Context, recipeID uint, page shared.Page) ([]*engagement.Comment, int64, error)
	// ListReplies returns the direct replies of each parent, oldest first
	ListReplies(ctx context.Context, parentIDs []uint) (map[uint][]*engagement.Comment, error)
	CountByRecipe(ctx context.Context, recipeID uint) (int64, error)
}

// VoteRepository persists recipe and comment votes
type VoteRepository interface {
	// Upsert inserts the vote or overwrites the type of the existing
	// (user, target) row in a single statement
	Upsert(ctx context.Context, v *engagement.Vote) error
	// Delete reports whether a row was removed
	Delete(ctx context.Context, userID uint, target engagement.Target) (bool, error)
	Find(ctx context.Context, userID uint, target engagement.Target) (*engagement.Vote, error)
	// Tallies counts live votes per target; viewerID zero skips UserVote
	Tallies(ctx context.Context, kind engagement.TargetKind, ids []uint, viewerID uint) (map[uint]engagement.Tally, error)
	TargetExists(ctx context.Context, target engagement.Target) (bool, error)
}

// FavoriteRepository persists favorites
type FavoriteRepository interface {
	// Create yields ErrDuplicate when the (user, type, id) triple exists
	Create(ctx context.Context, f *engagement.Favorite) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*engagement.Favorite, error)
	Exists(ctx context.Context, userID uint, subject engagement.Subject) (bool, error)
	// ListByUser returns newest first; an empty type lists every kind
	ListByUser(ctx context.Context, userID uint, t engagement.FavoriteType, page shared.Page) ([]*engagement.Favorite, int64, error)
}

// SessionStore maps opaque session ids to user ids
type SessionStore interface {
	Create(ctx context.Context, userID uint, ttl time.Duration) (string, error)
	// Get returns ErrSessionNotFound for unknown or expired sessions
	Get(ctx context.Context, sessionID string) (uint, error)
	Delete(ctx context.Context, sessionID string) error
}

// ErrSessionNotFound is returned for unknown or expired sessions
var ErrSessionNotFound = errors.New("session not found")

// EventBus delivers domain events to in-process subscribers
type EventBus interface {
	Publish(ctx context.Context, events ...shared.DomainEvent)
	Subscribe(eventName string, handler shared.EventHandler)
}
