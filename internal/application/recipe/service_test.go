package recipe_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/recipeatlas/server/internal/application/assembler"
	recipeApp "github.com/recipeatlas/server/internal/application/recipe"
	"github.com/recipeatlas/server/internal/domain/engagement"
	"github.com/recipeatlas/server/internal/domain/shared"
	"github.com/recipeatlas/server/internal/domain/taxonomy"
	"github.com/recipeatlas/server/internal/domain/user"
	"github.com/recipeatlas/server/internal/infrastructure/events"
	gormRepo "github.com/recipeatlas/server/internal/infrastructure/persistence/gorm"
	"github.com/recipeatlas/server/internal/ports/inbound"
	"github.com/recipeatlas/server/internal/ports/outbound"
	"github.com/recipeatlas/server/pkg/errors"
	"github.com/recipeatlas/server/test/testutils"
	"gorm.io/gorm"
)

type RecipeServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	db       *gorm.DB
	fixtures *testutils.Fixtures
	service  *recipeApp.RecipeService
	comments *gormRepo.CommentRepository
	votes    *gormRepo.VoteRepository
	events   []string

	author *user.User
	other  *user.User
	state  *taxonomy.State
}

func TestRecipeServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RecipeServiceTestSuite))
}

func (s *RecipeServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutils.NewTestDB(s.T())
	s.fixtures = testutils.NewFixtures(s.T(), s.db)
	s.events = nil
	s.build(recipeApp.Options{MaxSlugAttempts: 3})

	s.author = s.fixtures.User()
	s.other = s.fixtures.User()
	s.state = s.fixtures.Place()
}

func (s *RecipeServiceTestSuite) build(opts recipeApp.Options) {
	s.buildWith(opts, gormRepo.NewRecipeRepository(s.db))
}

func (s *RecipeServiceTestSuite) buildWith(opts recipeApp.Options, recipes outbound.RecipeRepository) {
	bus := events.NewBus(zap.NewNop())
	bus.Subscribe(events.Wildcard, func(e shared.DomainEvent) error {
		s.events = append(s.events, e.EventName())
		return nil
	})

	s.comments = gormRepo.NewCommentRepository(s.db)
	s.votes = gormRepo.NewVoteRepository(s.db)
	s.service = recipeApp.NewRecipeService(
		gormRepo.NewTxManager(s.db),
		recipes,
		gormRepo.NewUserRepository(s.db),
		gormRepo.NewTaxonomyRepository(s.db),
		s.comments,
		s.votes,
		bus,
		assembler.Paging{DefaultPerPage: 20, MaxPerPage: 100},
		opts,
		zap.NewNop(),
	)
}

func (s *RecipeServiceTestSuite) create(title string) *inbound.RecipeDTO {
	dto, err := s.service.CreateRecipe(s.ctx, s.author.ID(), inbound.CreateRecipeCommand{
		Title:        title,
		Instructions: "Stir well.",
		StateID:      s.state.ID,
	})
	s.Require().NoError(err)
	return dto
}

func (s *RecipeServiceTestSuite) TestSlugSuffixesUntilAttemptsRunOut() {
	s.Equal("pad-thai", s.create("Pad Thai").Slug)
	s.Equal("pad-thai-1", s.create("Pad Thai!").Slug)
	s.Equal("pad-thai-2", s.create("  pad   thai ").Slug)

	_, err := s.service.CreateRecipe(s.ctx, s.author.ID(), inbound.CreateRecipeCommand{Title: "Pad Thai", StateID: s.state.ID})
	s.True(errors.Is(err, errors.CodeConflict), "got %v", err)
}

// unseenSlugs hides existing slugs from the pre-check, as when another
// writer commits the same slug between the check and the insert
type unseenSlugs struct {
	*gormRepo.RecipeRepository
}

func (unseenSlugs) SlugExists(context.Context, string, uint) (bool, error) {
	return false, nil
}

func (s *RecipeServiceTestSuite) TestSlugRetriesOnUniqueViolation() {
	s.buildWith(recipeApp.Options{MaxSlugAttempts: 3}, unseenSlugs{gormRepo.NewRecipeRepository(s.db)})

	var slugs []string
	for i := 0; i < 3; i++ {
		dto, err := s.service.CreateRecipe(s.ctx, s.author.ID(), inbound.CreateRecipeCommand{
			Title:   "Tomato  Soup!",
			StateID: s.state.ID,
			Steps: []inbound.StepInput{{
				Instruction: "Roast the tomatoes",
				Ingredients: []inbound.IngredientInput{{Name: "tomatoes"}},
			}},
		})
		s.Require().NoError(err)
		slugs = append(slugs, dto.Slug)
	}

	s.Equal([]string{"tomato-soup", "tomato-soup-1", "tomato-soup-2"}, slugs)
	s.Equal(int64(3), testutils.CountRows(s.T(), s.db, "recipes", ""))
	s.Equal(int64(3), testutils.CountRows(s.T(), s.db, "steps", ""), "failed attempts leave no steps behind")
	s.Equal(int64(3), testutils.CountRows(s.T(), s.db, "ingredients", ""))

	_, err := s.service.CreateRecipe(s.ctx, s.author.ID(), inbound.CreateRecipeCommand{Title: "Tomato Soup", StateID: s.state.ID})
	s.True(errors.Is(err, errors.CodeConflict), "got %v", err)
}

func (s *RecipeServiceTestSuite) TestSlugWithAuthor() {
	s.build(recipeApp.Options{MaxSlugAttempts: 3, SlugWithAuthor: true})

	dto := s.create("Laksa")
	s.Equal(s.author.Username()+"-laksa", dto.Slug)
}

func (s *RecipeServiceTestSuite) TestCreateRejectsUnknownState() {
	_, err := s.service.CreateRecipe(s.ctx, s.author.ID(), inbound.CreateRecipeCommand{Title: "Nowhere", StateID: 9999})
	s.True(errors.Is(err, errors.CodeValidation), "got %v", err)
}

func (s *RecipeServiceTestSuite) TestCreateRejectsUnknownAuthor() {
	_, err := s.service.CreateRecipe(s.ctx, 9999, inbound.CreateRecipeCommand{Title: "Ghost", StateID: s.state.ID})
	s.True(errors.Is(err, errors.CodeUnauthorized), "got %v", err)
}

func (s *RecipeServiceTestSuite) TestCreatePublishesEvent() {
	s.create("Rendang")
	s.Contains(s.events, "recipe.created")
}

func (s *RecipeServiceTestSuite) TestRenameRegeneratesSlug() {
	first := s.create("Satay")
	second := s.create("Nasi Lemak")

	title := "Satay"
	renamed, err := s.service.UpdateRecipe(s.ctx, second.ID, s.author.ID(), inbound.UpdateRecipeCommand{Title: &title})
	s.Require().NoError(err)
	s.Equal("satay-1", renamed.Slug)

	// a patch that keeps the title keeps the slug
	desc := "Grilled skewers"
	same, err := s.service.UpdateRecipe(s.ctx, first.ID, s.author.ID(), inbound.UpdateRecipeCommand{Description: &desc})
	s.Require().NoError(err)
	s.Equal("satay", same.Slug)
	s.Equal("Grilled skewers", same.Description)
	s.Contains(s.events, "recipe.updated")
}

func (s *RecipeServiceTestSuite) TestSwitchingBetweenModes() {
	dto := s.create("Pho")
	s.Equal("text", dto.Mode)
	s.Require().NotNil(dto.Instructions)

	steps := []inbound.StepInput{
		{Instruction: "Char the onions"},
		{Instruction: "Simmer the broth", Ingredients: []inbound.IngredientInput{{Name: "star anise"}}},
	}
	structured, err := s.service.UpdateRecipe(s.ctx, dto.ID, s.author.ID(), inbound.UpdateRecipeCommand{Steps: &steps})
	s.Require().NoError(err)
	s.Equal("structured", structured.Mode)
	s.Nil(structured.Instructions)
	s.Require().Len(structured.Steps, 2)
	s.Equal(2, structured.Steps[1].StepNumber)
	s.Equal("star anise", structured.Steps[1].Ingredients[0].Name)

	none := []inbound.StepInput{}
	text := "Just buy it."
	back, err := s.service.UpdateRecipe(s.ctx, dto.ID, s.author.ID(), inbound.UpdateRecipeCommand{Steps: &none, Instructions: &text})
	s.Require().NoError(err)
	s.Equal("text", back.Mode)
	s.Require().NotNil(back.Instructions)
	s.Equal("Just buy it.", *back.Instructions)
	s.Empty(back.Steps)
	s.Zero(testutils.CountRows(s.T(), s.db, "steps", "recipe_id = ?", dto.ID))
}

func (s *RecipeServiceTestSuite) TestStructuredCreateDropsBlanksAndReplacesTree() {
	dto, err := s.service.CreateRecipe(s.ctx, s.author.ID(), inbound.CreateRecipeCommand{
		Title:        "Khachapuri",
		Instructions: "ignored once steps exist",
		StateID:      s.state.ID,
		Steps: []inbound.StepInput{
			{Instruction: "Make the dough", Ingredients: []inbound.IngredientInput{
				{Name: "flour"}, {Name: "  "}, {Name: "yeast"},
			}},
			{Instruction: "   "},
			{Instruction: "Shape the boats", Ingredients: []inbound.IngredientInput{{Name: "sulguni"}}},
			{Instruction: "Bake, then add the egg", Ingredients: []inbound.IngredientInput{{Name: "egg"}, {Name: "butter"}}},
		},
	})
	s.Require().NoError(err)

	s.Equal("structured", dto.Mode)
	s.Nil(dto.Instructions)
	s.Equal(int64(1), testutils.CountRows(s.T(), s.db, "recipes", "id = ? AND instructions IS NULL", dto.ID))
	s.Require().Len(dto.Steps, 3)
	for i, step := range dto.Steps {
		s.Equal(i+1, step.StepNumber)
	}
	s.Equal("Shape the boats", dto.Steps[1].Instruction)

	first := dto.Steps[0].Ingredients
	s.Require().Len(first, 2)
	s.Equal("flour", first[0].Name)
	s.Equal(0, first[0].Order)
	s.Equal("yeast", first[1].Name)
	s.Equal(1, first[1].Order)
	s.Equal(int64(5), testutils.CountRows(s.T(), s.db, "ingredients", ""))

	one := []inbound.StepInput{{Instruction: "Buy one from the bakery", Ingredients: []inbound.IngredientInput{
		{Name: "cash"}, {Name: "patience"},
	}}}
	updated, err := s.service.UpdateRecipe(s.ctx, dto.ID, s.author.ID(), inbound.UpdateRecipeCommand{Steps: &one})
	s.Require().NoError(err)
	s.Require().Len(updated.Steps, 1)
	s.Equal(1, updated.Steps[0].StepNumber)
	s.Equal(int64(1), testutils.CountRows(s.T(), s.db, "steps", "recipe_id = ?", dto.ID))
	s.Equal(int64(2), testutils.CountRows(s.T(), s.db, "ingredients", ""), "removed steps take their ingredients")
	for _, old := range dto.Steps {
		s.Zero(testutils.CountRows(s.T(), s.db, "ingredients", "step_id = ?", old.ID))
	}
}

func (s *RecipeServiceTestSuite) TestOnlyAuthorMayChange() {
	dto := s.create("Bibimbap")
	title := "Mine now"

	_, err := s.service.UpdateRecipe(s.ctx, dto.ID, s.other.ID(), inbound.UpdateRecipeCommand{Title: &title})
	s.True(errors.Is(err, errors.CodeForbidden))

	_, err = s.service.GetRecipeForEdit(s.ctx, dto.ID, s.other.ID())
	s.True(errors.Is(err, errors.CodeForbidden))

	err = s.service.DeleteRecipe(s.ctx, dto.ID, s.other.ID())
	s.True(errors.Is(err, errors.CodeForbidden))
}

func (s *RecipeServiceTestSuite) TestDeleteRemovesAggregate() {
	dto := s.create("Jollof")

	comment, err := engagement.NewComment(dto.ID, s.other.ID(), "Smoky!", nil)
	s.Require().NoError(err)
	s.Require().NoError(s.comments.Create(s.ctx, comment))
	s.Require().NoError(s.votes.Upsert(s.ctx, &engagement.Vote{
		UserID: s.other.ID(),
		Target: engagement.RecipeTarget(dto.ID),
		Type:   engagement.Upvote,
	}))

	s.Require().NoError(s.service.DeleteRecipe(s.ctx, dto.ID, s.author.ID()))

	_, err = s.service.GetRecipe(s.ctx, dto.ID, 0)
	s.True(errors.Is(err, errors.CodeNotFound))
	s.Zero(testutils.CountRows(s.T(), s.db, "comments", "recipe_id = ?", dto.ID))
	s.Zero(testutils.CountRows(s.T(), s.db, "recipe_votes", "recipe_id = ?", dto.ID))
	s.Contains(s.events, "recipe.deleted")
}

func (s *RecipeServiceTestSuite) TestDetailCarriesCommentsAndTally() {
	dto := s.create("Arepas")

	comment, err := engagement.NewComment(dto.ID, s.other.ID(), "Needs cheese", nil)
	s.Require().NoError(err)
	s.Require().NoError(s.comments.Create(s.ctx, comment))
	s.Require().NoError(s.votes.Upsert(s.ctx, &engagement.Vote{
		UserID: s.other.ID(),
		Target: engagement.RecipeTarget(dto.ID),
		Type:   engagement.Downvote,
	}))

	detail, err := s.service.GetRecipeBySlug(s.ctx, dto.Slug, s.other.ID())
	s.Require().NoError(err)
	s.Len(detail.Comments, 1)
	s.Require().NotNil(detail.CommentCount)
	s.Equal(int64(1), *detail.CommentCount)
	s.Equal(int64(-1), detail.Score)
	s.Require().NotNil(detail.UserVote)
	s.Equal("downvote", *detail.UserVote)

	anonymous, err := s.service.GetRecipe(s.ctx, dto.ID, 0)
	s.Require().NoError(err)
	s.Nil(anonymous.UserVote)
}

func (s *RecipeServiceTestSuite) TestSearchMatchesTextFields() {
	s.create("Green Curry")
	other, err := s.service.CreateRecipe(s.ctx, s.author.ID(), inbound.CreateRecipeCommand{
		Title:        "Weeknight dinner",
		Instructions: "Fry the CURRY paste first.",
		StateID:      s.state.ID,
	})
	s.Require().NoError(err)
	s.create("Mango Sticky Rice")

	res, err := s.service.Search(s.ctx, inbound.SearchQuery{Text: "  curry "})
	s.Require().NoError(err)
	s.Equal("curry", res.Query)
	s.Equal(int64(2), res.Total)
	s.Equal(other.ID, res.Items[0].ID, "newest first")

	all, err := s.service.Search(s.ctx, inbound.SearchQuery{})
	s.Require().NoError(err)
	s.Equal(int64(3), all.Total)

	literal, err := s.service.Search(s.ctx, inbound.SearchQuery{Text: "%"})
	s.Require().NoError(err)
	s.Zero(literal.Total)
}

func (s *RecipeServiceTestSuite) TestListingFiltersAndPages() {
	elsewhere := s.fixtures.Place()
	for _, title := range []string{"A", "B", "C"} {
		s.create(title)
	}
	_, err := s.service.CreateRecipe(s.ctx, s.other.ID(), inbound.CreateRecipeCommand{Title: "D", StateID: elsewhere.ID})
	s.Require().NoError(err)

	page, err := s.service.ListRecipes(s.ctx, inbound.ListRecipesQuery{
		StateID: s.state.ID,
		Sort:    "alphabetical",
		Page:    inbound.PageQuery{Page: 2, PerPage: 2},
	})
	s.Require().NoError(err)
	s.Equal(int64(3), page.Total)
	s.Equal(2, page.Pages)
	s.Require().Len(page.Items, 1)
	s.Equal("C", page.Items[0].Title)

	byCountry, err := s.service.ListRecipes(s.ctx, inbound.ListRecipesQuery{CountryID: elsewhere.CountryID})
	s.Require().NoError(err)
	s.Equal(int64(1), byCountry.Total)
}

func (s *RecipeServiceTestSuite) TestPopularRanksByScore() {
	low := s.create("Low")
	high := s.create("High")
	s.Require().NoError(s.votes.Upsert(s.ctx, &engagement.Vote{UserID: s.other.ID(), Target: engagement.RecipeTarget(high.ID), Type: engagement.Upvote}))
	s.Require().NoError(s.votes.Upsert(s.ctx, &engagement.Vote{UserID: s.other.ID(), Target: engagement.RecipeTarget(low.ID), Type: engagement.Downvote}))

	popular, err := s.service.Popular(s.ctx, 0, "", 0)
	s.Require().NoError(err)
	s.Require().Len(popular, 2)
	s.Equal(high.ID, popular[0].ID)
	s.Equal(low.ID, popular[1].ID)
}

func (s *RecipeServiceTestSuite) TestHomeAndNav() {
	s.create("Bobotie")

	home, err := s.service.Home(s.ctx, s.author.ID())
	s.Require().NoError(err)
	s.Len(home.Recent, 1)
	s.Len(home.Featured, 1)
	s.NotEmpty(home.Countries)
	s.Require().NotNil(home.User)
	s.Equal(s.author.Username(), home.User.Username)
	s.Empty(home.User.Email)

	nav, err := s.service.Nav(s.ctx, 0)
	s.Require().NoError(err)
	s.Nil(nav.User)
}
