package engagement_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/recipeatlas/server/internal/application/assembler"
	engagementApp "github.com/recipeatlas/server/internal/application/engagement"
	"github.com/recipeatlas/server/internal/domain/engagement"
	"github.com/recipeatlas/server/internal/domain/recipe"
	"github.com/recipeatlas/server/internal/domain/shared"
	"github.com/recipeatlas/server/internal/domain/user"
	"github.com/recipeatlas/server/internal/infrastructure/events"
	gormRepo "github.com/recipeatlas/server/internal/infrastructure/persistence/gorm"
	"github.com/recipeatlas/server/internal/ports/inbound"
	"github.com/recipeatlas/server/pkg/errors"
	"github.com/recipeatlas/server/test/testutils"
)

type EngagementTestSuite struct {
	suite.Suite
	ctx      context.Context
	db       *gorm.DB
	fixtures *testutils.Fixtures

	votes     *engagementApp.VoteService
	comments  *engagementApp.CommentService
	favorites *engagementApp.FavoriteService
	eventsMu  sync.Mutex
	events    []string

	alice  *user.User
	bob    *user.User
	recipe *recipe.Recipe
}

func TestEngagementTestSuite(t *testing.T) {
	suite.Run(t, new(EngagementTestSuite))
}

func (s *EngagementTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutils.NewTestDB(s.T())
	s.fixtures = testutils.NewFixtures(s.T(), s.db)

	log := zap.NewNop()
	bus := events.NewBus(log)
	s.events = nil
	bus.Subscribe(events.Wildcard, func(e shared.DomainEvent) error {
		s.eventsMu.Lock()
		defer s.eventsMu.Unlock()
		s.events = append(s.events, e.EventName())
		return nil
	})
	tx := gormRepo.NewTxManager(s.db)
	users := gormRepo.NewUserRepository(s.db)
	taxonomy := gormRepo.NewTaxonomyRepository(s.db)
	recipes := gormRepo.NewRecipeRepository(s.db)
	votes := gormRepo.NewVoteRepository(s.db)
	loader := assembler.NewLoader(users, taxonomy, votes)
	paging := assembler.Paging{DefaultPerPage: 20, MaxPerPage: 100}

	s.votes = engagementApp.NewVoteService(tx, votes, bus, log)
	s.comments = engagementApp.NewCommentService(tx, gormRepo.NewCommentRepository(s.db), recipes, loader, bus, paging, log)
	s.favorites = engagementApp.NewFavoriteService(gormRepo.NewFavoriteRepository(s.db), users, recipes, taxonomy, loader, bus, paging, log)

	s.alice = s.fixtures.User()
	s.bob = s.fixtures.User()
	s.recipe = s.fixtures.Recipe(s.alice.ID(), s.fixtures.Place().ID)
}

func (s *EngagementTestSuite) TestVoteReplacesEarlierVote() {
	target := engagement.RecipeTarget(s.recipe.ID())

	tally, err := s.votes.SetVote(s.ctx, s.bob.ID(), target, engagement.Upvote)
	s.Require().NoError(err)
	s.Equal(int64(1), tally.Upvotes)

	tally, err = s.votes.SetVote(s.ctx, s.bob.ID(), target, engagement.Upvote)
	s.Require().NoError(err)
	s.Equal(int64(1), tally.Upvotes, "repeating a vote is idempotent")

	tally, err = s.votes.SetVote(s.ctx, s.bob.ID(), target, engagement.Downvote)
	s.Require().NoError(err)
	s.Equal(int64(0), tally.Upvotes)
	s.Equal(int64(1), tally.Downvotes)
	s.Equal(int64(-1), tally.Score)
	s.Require().NotNil(tally.UserVote)
	s.Equal("downvote", *tally.UserVote)

	s.Equal(int64(1), testutils.CountRows(s.T(), s.db, "recipe_votes", "recipe_id = ?", s.recipe.ID()))
}

func (s *EngagementTestSuite) TestCommentVoteReplacesEarlierVote() {
	comment, err := s.comments.AddComment(s.ctx, s.recipe.ID(), s.alice.ID(), "Add more lime", nil)
	s.Require().NoError(err)
	target := engagement.CommentTarget(comment.ID)

	_, err = s.votes.SetVote(s.ctx, s.bob.ID(), target, engagement.Upvote)
	s.Require().NoError(err)
	tally, err := s.votes.SetVote(s.ctx, s.bob.ID(), target, engagement.Downvote)
	s.Require().NoError(err)

	s.Equal(int64(-1), tally.Score)
	s.Equal(int64(1), testutils.CountRows(s.T(), s.db, "comment_votes", "comment_id = ?", comment.ID))
	s.Equal(int64(1), testutils.CountRows(s.T(), s.db, "comment_votes",
		"comment_id = ? AND user_id = ? AND vote_type = ?", comment.ID, s.bob.ID(), "downvote"))
	s.Zero(testutils.CountRows(s.T(), s.db, "recipe_votes", ""), "comment votes never land on the recipe")
}

func (s *EngagementTestSuite) TestConcurrentVotesKeepOneRow() {
	target := engagement.RecipeTarget(s.recipe.ID())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			vt := engagement.Upvote
			if i%2 == 1 {
				vt = engagement.Downvote
			}
			_, _ = s.votes.SetVote(s.ctx, s.bob.ID(), target, vt)
		}(i)
	}
	wg.Wait()

	s.Equal(int64(1), testutils.CountRows(s.T(), s.db, "recipe_votes", "recipe_id = ? AND user_id = ?", s.recipe.ID(), s.bob.ID()))
}

func (s *EngagementTestSuite) TestClearVote() {
	target := engagement.RecipeTarget(s.recipe.ID())

	tally, err := s.votes.ClearVote(s.ctx, s.bob.ID(), target)
	s.Require().NoError(err, "clearing an absent vote is fine")
	s.Nil(tally.UserVote)

	_, err = s.votes.SetVote(s.ctx, s.bob.ID(), target, engagement.Upvote)
	s.Require().NoError(err)
	tally, err = s.votes.ClearVote(s.ctx, s.bob.ID(), target)
	s.Require().NoError(err)
	s.Zero(tally.Upvotes)
}

func (s *EngagementTestSuite) TestVoteTargetMustExist() {
	_, err := s.votes.SetVote(s.ctx, s.bob.ID(), engagement.CommentTarget(9999), engagement.Upvote)
	s.True(errors.Is(err, errors.CodeNotFound))

	_, err = s.votes.SetVote(s.ctx, s.bob.ID(), engagement.Target{Kind: "state", ID: 1}, engagement.Upvote)
	s.True(errors.Is(err, errors.CodeValidation))
}

func (s *EngagementTestSuite) TestTalliesForViewer() {
	_, err := s.votes.SetVote(s.ctx, s.bob.ID(), engagement.RecipeTarget(s.recipe.ID()), engagement.Upvote)
	s.Require().NoError(err)

	anonymous, err := s.votes.Tallies(s.ctx, engagement.TargetRecipe, []uint{s.recipe.ID()}, 0)
	s.Require().NoError(err)
	s.Equal(int64(1), anonymous[s.recipe.ID()].Upvotes)
	s.Nil(anonymous[s.recipe.ID()].UserVote)

	mine, err := s.votes.Tallies(s.ctx, engagement.TargetRecipe, []uint{s.recipe.ID()}, s.bob.ID())
	s.Require().NoError(err)
	s.Require().NotNil(mine[s.recipe.ID()].UserVote)
}

func (s *EngagementTestSuite) TestCommentThread() {
	top, err := s.comments.AddComment(s.ctx, s.recipe.ID(), s.bob.ID(), "  Lovely  ", nil)
	s.Require().NoError(err)
	s.Equal("Lovely", top.Content)
	s.Nil(top.ParentID)

	reply, err := s.comments.AddComment(s.ctx, s.recipe.ID(), s.alice.ID(), "Thanks", &top.ID)
	s.Require().NoError(err)
	s.Require().NotNil(reply.ParentID)

	nested, err := s.comments.AddComment(s.ctx, s.recipe.ID(), s.bob.ID(), "Welcome", &reply.ID)
	s.Require().NoError(err)

	list, err := s.comments.ListComments(s.ctx, s.recipe.ID(), 0, inbound.PageQuery{})
	s.Require().NoError(err)
	s.Equal(int64(1), list.Total)
	s.Require().Len(list.Items[0].Replies, 1)
	s.Empty(list.Items[0].Replies[0].Replies, "listings are one level deep")

	replies, err := s.comments.ListReplies(s.ctx, reply.ID, 0)
	s.Require().NoError(err)
	s.Require().Len(replies, 1)
	s.Equal(nested.ID, replies[0].ID)

	s.Require().NoError(s.comments.DeleteComment(s.ctx, top.ID, s.bob.ID()))
	s.Zero(testutils.CountRows(s.T(), s.db, "comments", "recipe_id = ?", s.recipe.ID()))
	s.Equal([]string{"comment.added", "comment.added", "comment.added", "comment.deleted"}, s.events)
}

func (s *EngagementTestSuite) TestCommentValidation() {
	_, err := s.comments.AddComment(s.ctx, s.recipe.ID(), s.bob.ID(), "   ", nil)
	s.True(errors.Is(err, errors.CodeValidation))

	_, err = s.comments.AddComment(s.ctx, 9999, s.bob.ID(), "Hello", nil)
	s.True(errors.Is(err, errors.CodeNotFound))

	missing := uint(9999)
	_, err = s.comments.AddComment(s.ctx, s.recipe.ID(), s.bob.ID(), "Hello", &missing)
	s.True(errors.Is(err, errors.CodeNotFound))

	other := s.fixtures.Recipe(s.alice.ID(), s.recipe.StateID())
	parent, err := s.comments.AddComment(s.ctx, other.ID(), s.bob.ID(), "Elsewhere", nil)
	s.Require().NoError(err)
	_, err = s.comments.AddComment(s.ctx, s.recipe.ID(), s.bob.ID(), "Crossed", &parent.ID)
	s.True(errors.Is(err, errors.CodeValidation))
}

func (s *EngagementTestSuite) TestOnlyAuthorEditsComment() {
	c, err := s.comments.AddComment(s.ctx, s.recipe.ID(), s.bob.ID(), "First", nil)
	s.Require().NoError(err)

	_, err = s.comments.UpdateComment(s.ctx, c.ID, s.alice.ID(), "Second")
	s.True(errors.Is(err, errors.CodeForbidden))
	s.True(errors.Is(s.comments.DeleteComment(s.ctx, c.ID, s.alice.ID()), errors.CodeForbidden))

	edited, err := s.comments.UpdateComment(s.ctx, c.ID, s.bob.ID(), "First")
	s.Require().NoError(err)
	s.True(edited.IsEdited, "marked edited even when unchanged")
}

func (s *EngagementTestSuite) TestFavoritesResolveEveryKind() {
	place := s.fixtures.Place()

	for _, add := range []struct {
		kind string
		id   uint
	}{
		{"recipe", s.recipe.ID()},
		{"user", s.alice.ID()},
		{"state", place.ID},
		{"country", place.CountryID},
	} {
		fav, err := s.favorites.AddFavorite(s.ctx, s.bob.ID(), add.kind, add.id)
		s.Require().NoError(err, add.kind)
		s.NotNil(fav.FavoriteData, add.kind)
	}

	all, err := s.favorites.ListFavorites(s.ctx, s.bob.Username(), "", inbound.PageQuery{})
	s.Require().NoError(err)
	s.Equal(int64(4), all.Total)
	s.Equal("country", all.Items[0].FavoriteType, "newest first")

	states, err := s.favorites.ListFavorites(s.ctx, s.bob.Username(), "state", inbound.PageQuery{})
	s.Require().NoError(err)
	s.Equal(int64(1), states.Total)

	_, err = s.favorites.ListFavorites(s.ctx, s.bob.Username(), "planet", inbound.PageQuery{})
	s.True(errors.Is(err, errors.CodeValidation))
}

func (s *EngagementTestSuite) TestFavoriteOfDeletedRecipeHasNoData() {
	_, err := s.favorites.AddFavorite(s.ctx, s.bob.ID(), "recipe", s.recipe.ID())
	s.Require().NoError(err)

	s.Require().NoError(s.fixtures.Recipes.Delete(s.ctx, s.recipe.ID()))

	list, err := s.favorites.ListFavorites(s.ctx, s.bob.Username(), "recipe", inbound.PageQuery{})
	s.Require().NoError(err)
	s.Require().Len(list.Items, 1)
	s.Nil(list.Items[0].FavoriteData)
}

func (s *EngagementTestSuite) TestFavoriteRules() {
	_, err := s.favorites.AddFavorite(s.ctx, s.bob.ID(), "recipe", 9999)
	s.True(errors.Is(err, errors.CodeNotFound))

	fav, err := s.favorites.AddFavorite(s.ctx, s.bob.ID(), "recipe", s.recipe.ID())
	s.Require().NoError(err)
	_, err = s.favorites.AddFavorite(s.ctx, s.bob.ID(), "recipe", s.recipe.ID())
	s.True(errors.Is(err, errors.CodeConflict))

	s.True(errors.Is(s.favorites.RemoveFavorite(s.ctx, fav.ID, s.alice.ID()), errors.CodeForbidden))
	s.Require().NoError(s.favorites.RemoveFavorite(s.ctx, fav.ID, s.bob.ID()))
	s.True(errors.Is(s.favorites.RemoveFavorite(s.ctx, fav.ID, s.bob.ID()), errors.CodeNotFound))
}
