// Package recipe provides the application layer for recipe management
// This implements the use cases defined in the inbound ports
package recipe

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/recipeatlas/server/internal/application/assembler"
	"github.com/recipeatlas/server/internal/domain/recipe"
	"github.com/recipeatlas/server/internal/domain/shared"
	"github.com/recipeatlas/server/internal/domain/user"
	"github.com/recipeatlas/server/internal/ports/inbound"
	"github.com/recipeatlas/server/internal/ports/outbound"
	"github.com/recipeatlas/server/pkg/errors"
	"go.uber.org/zap"
)

// Options tunes recipe authoring
type Options struct {
	// MaxSlugAttempts bounds the base, base-1, base-2, ... sequence
	MaxSlugAttempts int
	// SlugWithAuthor derives slugs from "username-title"
	SlugWithAuthor bool
}

// DefaultOptions matches the configuration defaults
var DefaultOptions = Options{MaxSlugAttempts: 50}

// Home page and top-N sizes
const (
	defaultTopLimit  = 10
	featuredCount    = 6
	homeCountryCount = 20
	navCountryCount  = 50
)

// RecipeService implements the recipe use cases
type RecipeService struct {
	tx       outbound.TxManager
	recipes  outbound.RecipeRepository
	users    outbound.UserRepository
	taxonomy outbound.TaxonomyRepository
	comments outbound.CommentRepository
	loader   *assembler.Loader
	events   outbound.EventBus
	paging   assembler.Paging
	opts     Options
	logger   *zap.Logger
}

// NewRecipeService creates a new recipe service
func NewRecipeService(
	tx outbound.TxManager,
	recipes outbound.RecipeRepository,
	users outbound.UserRepository,
	taxonomy outbound.TaxonomyRepository,
	comments outbound.CommentRepository,
	votes outbound.VoteRepository,
	events outbound.EventBus,
	paging assembler.Paging,
	opts Options,
	logger *zap.Logger,
) *RecipeService {
	if opts.MaxSlugAttempts < 1 {
		opts.MaxSlugAttempts = DefaultOptions.MaxSlugAttempts
	}
	return &RecipeService{
		tx:       tx,
		recipes:  recipes,
		users:    users,
		taxonomy: taxonomy,
		comments: comments,
		loader:   assembler.NewLoader(users, taxonomy, votes),
		events:   events,
		paging:   paging,
		opts:     opts,
		logger:   logger.Named("recipe-service"),
	}
}

var _ inbound.RecipeService = (*RecipeService)(nil)

// CreateRecipe creates a new recipe under a unique slug. Each slug
// candidate is tried in its own transaction so a uniqueness violation
// leaves nothing behind and the next suffix can be attempted.
func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uint, cmd inbound.CreateRecipeCommand) (*inbound.RecipeDTO, error) {
	s.logger.Info("Creating new recipe",
		zap.String("title", cmd.Title),
		zap.Uint("author_id", authorID),
	)

	author, err := s.users.FindByID(ctx, authorID)
	if err != nil {
		if stderrors.Is(err, user.ErrUserNotFound) {
			return nil, errors.NewUnauthorizedError("")
		}
		return nil, errors.NewDatabaseError("find author", err)
	}

	entity, err := recipe.NewRecipe(recipe.Draft{
		AuthorID:     authorID,
		StateID:      cmd.StateID,
		Title:        cmd.Title,
		Description:  cmd.Description,
		Instructions: cmd.Instructions,
		ImageURL:     cmd.ImageURL,
		Steps:        stepDrafts(cmd.Steps),
	})
	if err != nil {
		return nil, toAppError(err, "create recipe")
	}

	if _, err := s.taxonomy.FindState(ctx, entity.StateID()); err != nil {
		return nil, toAppError(err, "find state")
	}

	base := recipe.Slugify(recipe.SlugSource(author.Username(), entity.Title(), s.opts.SlugWithAuthor))

	var saved *recipe.Recipe
	for n := 0; n < s.opts.MaxSlugAttempts && saved == nil; n++ {
		candidate := recipe.SlugCandidate(base, n)

		taken, err := s.recipes.SlugExists(ctx, candidate, 0)
		if err != nil {
			return nil, errors.NewDatabaseError("check slug", err)
		}
		if taken {
			continue
		}

		entity.AssignSlug(candidate)
		err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			var err error
			saved, err = s.recipes.Create(ctx, entity)
			return err
		})
		if stderrors.Is(err, outbound.ErrDuplicate) {
			s.logger.Debug("Slug taken concurrently, retrying", zap.String("slug", candidate))
			saved = nil
			continue
		}
		if err != nil {
			return nil, toAppError(err, "create recipe")
		}
	}
	if saved == nil {
		return nil, toAppError(recipe.ErrSlugUnavailable, "create recipe")
	}

	s.events.Publish(ctx, recipe.CreatedEvent{
		RecipeID:  saved.ID(),
		AuthorID:  authorID,
		Slug:      saved.Slug(),
		Mode:      saved.Mode(),
		CreatedAt: saved.CreatedAt(),
	})

	s.logger.Info("Recipe created successfully",
		zap.Uint("recipe_id", saved.ID()),
		zap.String("slug", saved.Slug()),
	)

	return s.detail(ctx, saved, authorID, true)
}

// UpdateRecipe applies a patch in one transaction. When a concurrent
// writer takes the regenerated slug the whole transaction is retried.
func (s *RecipeService) UpdateRecipe(ctx context.Context, recipeID, requesterID uint, cmd inbound.UpdateRecipeCommand) (*inbound.RecipeDTO, error) {
	s.logger.Info("Updating recipe",
		zap.Uint("recipe_id", recipeID),
		zap.Uint("user_id", requesterID),
	)

	var (
		updated       *recipe.Recipe
		stepsReplaced bool
		err           error
	)
	for attempt := 0; attempt < s.opts.MaxSlugAttempts; attempt++ {
		err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			var err error
			updated, stepsReplaced, err = s.applyUpdate(ctx, recipeID, requesterID, cmd)
			return err
		})
		if !stderrors.Is(err, errSlugTaken) {
			break
		}
	}
	if stderrors.Is(err, errSlugTaken) {
		return nil, toAppError(recipe.ErrSlugUnavailable, "update recipe")
	}
	if err != nil {
		return nil, toAppError(err, "update recipe")
	}

	s.events.Publish(ctx, recipe.UpdatedEvent{
		RecipeID:      updated.ID(),
		StepsReplaced: stepsReplaced,
		UpdatedAt:     updated.UpdatedAt(),
	})

	s.logger.Info("Recipe updated successfully",
		zap.Uint("recipe_id", updated.ID()),
		zap.Bool("steps_replaced", stepsReplaced),
	)

	return s.detail(ctx, updated, requesterID, true)
}

func (s *RecipeService) applyUpdate(ctx context.Context, recipeID, requesterID uint, cmd inbound.UpdateRecipeCommand) (*recipe.Recipe, bool, error) {
	entity, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		return nil, false, err
	}
	if !entity.IsOwnedBy(requesterID) {
		return nil, false, recipe.ErrNotRecipeOwner
	}

	previousTitle := entity.Title()
	if cmd.Title != nil {
		if err := entity.Rename(*cmd.Title); err != nil {
			return nil, false, err
		}
	}
	if cmd.Description != nil {
		if err := entity.SetDescription(*cmd.Description); err != nil {
			return nil, false, err
		}
	}
	if cmd.ImageURL != nil {
		if err := entity.SetImageURL(*cmd.ImageURL); err != nil {
			return nil, false, err
		}
	}
	if cmd.StateID != nil {
		if err := entity.MoveTo(*cmd.StateID); err != nil {
			return nil, false, err
		}
		if _, err := s.taxonomy.FindState(ctx, entity.StateID()); err != nil {
			return nil, false, err
		}
	}

	replaceSteps := false
	if cmd.Steps != nil {
		if err := entity.ReplaceSteps(stepDrafts(*cmd.Steps)); err != nil {
			return nil, false, err
		}
		replaceSteps = true
	}
	// Instructions only apply when the patch leaves no steps behind
	if cmd.Instructions != nil && (cmd.Steps == nil || len(entity.Steps()) == 0) {
		if err := entity.UseInstructions(*cmd.Instructions); err != nil {
			return nil, false, err
		}
		replaceSteps = true
	}

	if entity.Title() != previousTitle {
		author, err := s.users.FindByID(ctx, entity.AuthorID())
		if err != nil {
			return nil, false, err
		}
		slug, err := s.freeSlug(ctx, entity, author.Username())
		if err != nil {
			return nil, false, err
		}
		entity.AssignSlug(slug)
	}

	updated, err := s.recipes.Update(ctx, entity, replaceSteps)
	if stderrors.Is(err, outbound.ErrDuplicate) {
		return nil, false, errSlugTaken
	}
	if err != nil {
		return nil, false, err
	}
	return updated, replaceSteps, nil
}

// freeSlug returns the first unused candidate for the recipe's title. The
// recipe's own slug does not count as taken.
func (s *RecipeService) freeSlug(ctx context.Context, entity *recipe.Recipe, username string) (string, error) {
	base := recipe.Slugify(recipe.SlugSource(username, entity.Title(), s.opts.SlugWithAuthor))
	for n := 0; n < s.opts.MaxSlugAttempts; n++ {
		candidate := recipe.SlugCandidate(base, n)
		taken, err := s.recipes.SlugExists(ctx, candidate, entity.ID())
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", recipe.ErrSlugUnavailable
}

// DeleteRecipe removes a recipe with its steps, comments and votes
func (s *RecipeService) DeleteRecipe(ctx context.Context, recipeID, requesterID uint) error {
	s.logger.Info("Deleting recipe",
		zap.Uint("recipe_id", recipeID),
		zap.Uint("user_id", requesterID),
	)

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		entity, err := s.recipes.FindByID(ctx, recipeID)
		if err != nil {
			return err
		}
		if !entity.IsOwnedBy(requesterID) {
			return recipe.ErrNotRecipeOwner
		}
		return s.recipes.Delete(ctx, recipeID)
	})
	if err != nil {
		return toAppError(err, "delete recipe")
	}

	s.events.Publish(ctx, recipe.DeletedEvent{RecipeID: recipeID, DeletedAt: time.Now().UTC()})
	return nil
}

// GetRecipe returns the full recipe tree with comments and tallies
func (s *RecipeService) GetRecipe(ctx context.Context, recipeID, viewerID uint) (*inbound.RecipeDTO, error) {
	entity, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		return nil, toAppError(err, "find recipe")
	}
	return s.detail(ctx, entity, viewerID, true)
}

// GetRecipeBySlug is GetRecipe keyed by slug
func (s *RecipeService) GetRecipeBySlug(ctx context.Context, slug string, viewerID uint) (*inbound.RecipeDTO, error) {
	entity, err := s.recipes.FindBySlug(ctx, slug)
	if err != nil {
		return nil, toAppError(err, "find recipe")
	}
	return s.detail(ctx, entity, viewerID, true)
}

// GetRecipeForEdit returns the recipe with its steps to its author only
func (s *RecipeService) GetRecipeForEdit(ctx context.Context, recipeID, requesterID uint) (*inbound.RecipeDTO, error) {
	entity, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		return nil, toAppError(err, "find recipe")
	}
	if !entity.IsOwnedBy(requesterID) {
		return nil, toAppError(recipe.ErrNotRecipeOwner, "edit recipe")
	}
	return s.detail(ctx, entity, requesterID, false)
}

// detail serialises one recipe with steps and, optionally, its comments
func (s *RecipeService) detail(ctx context.Context, entity *recipe.Recipe, viewerID uint, withComments bool) (*inbound.RecipeDTO, error) {
	dtos, err := s.loader.Recipes(ctx, []*recipe.Recipe{entity}, viewerID, true)
	if err != nil {
		return nil, errors.NewDatabaseError("load recipe", err)
	}
	dto := dtos[0]

	if !withComments {
		return &dto, nil
	}

	top, _, err := s.comments.ListTopLevel(ctx, entity.ID(), shared.Page{Number: 1, PerPage: s.paging.MaxPerPage})
	if err != nil {
		return nil, errors.NewDatabaseError("list comments", err)
	}
	ids := make([]uint, 0, len(top))
	for _, c := range top {
		ids = append(ids, c.ID)
	}
	replies, err := s.comments.ListReplies(ctx, ids)
	if err != nil {
		return nil, errors.NewDatabaseError("list replies", err)
	}
	dto.Comments, err = s.loader.Comments(ctx, top, replies, viewerID)
	if err != nil {
		return nil, errors.NewDatabaseError("load comments", err)
	}

	count, err := s.comments.CountByRecipe(ctx, entity.ID())
	if err != nil {
		return nil, errors.NewDatabaseError("count comments", err)
	}
	dto.CommentCount = &count

	return &dto, nil
}

// ListRecipes returns one page of recipes matching the filter
func (s *RecipeService) ListRecipes(ctx context.Context, query inbound.ListRecipesQuery) (*inbound.List[inbound.RecipeDTO], error) {
	filter := outbound.RecipeFilter{
		StateID:   query.StateID,
		CountryID: query.CountryID,
		AuthorID:  query.AuthorID,
		Sort:      outbound.ParseRecipeSort(query.Sort),
	}
	return s.list(ctx, filter, s.paging.Page(query.Page), query.ViewerID)
}

// Search matches q case-insensitively against title, description and
// instructions, newest first. An empty q matches every recipe.
func (s *RecipeService) Search(ctx context.Context, query inbound.SearchQuery) (*inbound.SearchResult, error) {
	text := strings.TrimSpace(query.Text)
	filter := outbound.RecipeFilter{
		StateID:   query.StateID,
		CountryID: query.CountryID,
		Query:     text,
		Sort:      outbound.SortNewest,
	}

	list, err := s.list(ctx, filter, s.paging.Page(query.Page), query.ViewerID)
	if err != nil {
		return nil, err
	}

	return &inbound.SearchResult{
		List:    *list,
		Query:   text,
		Filters: inbound.SearchFilters{State: query.StateID, Country: query.CountryID},
	}, nil
}

// Popular returns the highest scoring recipes, optionally in one country
func (s *RecipeService) Popular(ctx context.Context, limit int, countryName string, viewerID uint) ([]inbound.RecipeDTO, error) {
	filter := outbound.RecipeFilter{
		CountryName: strings.TrimSpace(countryName),
		Sort:        outbound.SortPopular,
	}
	return s.top(ctx, filter, s.paging.Limit(limit, defaultTopLimit), viewerID)
}

// Recent returns the newest recipes
func (s *RecipeService) Recent(ctx context.Context, limit int, viewerID uint) ([]inbound.RecipeDTO, error) {
	filter := outbound.RecipeFilter{Sort: outbound.SortNewest}
	return s.top(ctx, filter, s.paging.Limit(limit, defaultTopLimit), viewerID)
}

// Home assembles the landing page
func (s *RecipeService) Home(ctx context.Context, viewerID uint) (*inbound.HomeDTO, error) {
	featured, err := s.top(ctx, outbound.RecipeFilter{Sort: outbound.SortNewest}, featuredCount, viewerID)
	if err != nil {
		return nil, err
	}
	popular, err := s.Popular(ctx, defaultTopLimit, "", viewerID)
	if err != nil {
		return nil, err
	}
	recent, err := s.Recent(ctx, defaultTopLimit, viewerID)
	if err != nil {
		return nil, err
	}
	countries, err := s.countries(ctx, homeCountryCount)
	if err != nil {
		return nil, err
	}
	viewer, err := s.viewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	return &inbound.HomeDTO{
		Featured:  featured,
		Popular:   popular,
		Recent:    recent,
		Countries: countries,
		User:      viewer,
	}, nil
}

// Nav assembles the navigation bar
func (s *RecipeService) Nav(ctx context.Context, viewerID uint) (*inbound.NavDTO, error) {
	countries, err := s.countries(ctx, navCountryCount)
	if err != nil {
		return nil, err
	}
	viewer, err := s.viewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return &inbound.NavDTO{Countries: countries, User: viewer}, nil
}

func (s *RecipeService) list(ctx context.Context, filter outbound.RecipeFilter, page shared.Page, viewerID uint) (*inbound.List[inbound.RecipeDTO], error) {
	recipes, total, err := s.recipes.List(ctx, filter, page)
	if err != nil {
		return nil, errors.NewDatabaseError("list recipes", err)
	}
	items, err := s.loader.Recipes(ctx, recipes, viewerID, false)
	if err != nil {
		return nil, errors.NewDatabaseError("load recipes", err)
	}
	return assembler.NewList(items, total, page), nil
}

func (s *RecipeService) top(ctx context.Context, filter outbound.RecipeFilter, limit int, viewerID uint) ([]inbound.RecipeDTO, error) {
	list, err := s.list(ctx, filter, shared.Page{Number: 1, PerPage: limit}, viewerID)
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

func (s *RecipeService) countries(ctx context.Context, n int) ([]inbound.CountryDTO, error) {
	countries, _, err := s.taxonomy.ListCountries(ctx, shared.Page{Number: 1, PerPage: n})
	if err != nil {
		return nil, errors.NewDatabaseError("list countries", err)
	}
	dtos, err := s.loader.Countries(ctx, countries)
	if err != nil {
		return nil, errors.NewDatabaseError("count recipes", err)
	}
	return dtos, nil
}

// viewer returns the public profile of the signed-in user, or nil
func (s *RecipeService) viewer(ctx context.Context, viewerID uint) (*inbound.UserDTO, error) {
	if viewerID == 0 {
		return nil, nil
	}
	u, err := s.users.FindByID(ctx, viewerID)
	if stderrors.Is(err, user.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewDatabaseError("find viewer", err)
	}
	return assembler.PublicUser(u), nil
}

func stepDrafts(steps []inbound.StepInput) []recipe.StepDraft {
	drafts := make([]recipe.StepDraft, 0, len(steps))
	for _, st := range steps {
		ingredients := make([]recipe.IngredientDraft, 0, len(st.Ingredients))
		for _, in := range st.Ingredients {
			ingredients = append(ingredients, recipe.IngredientDraft{
				Name:     in.Name,
				Quantity: in.Quantity,
				Unit:     in.Unit,
				Notes:    in.Notes,
			})
		}
		drafts = append(drafts, recipe.StepDraft{
			Instruction:     st.Instruction,
			ImageURL:        st.ImageURL,
			DurationMinutes: st.DurationMinutes,
			Ingredients:     ingredients,
		})
	}
	return drafts
}
