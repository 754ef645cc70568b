//go:build integration

package integration_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/recipeatlas/server/internal/application/assembler"
	recipeApp "github.com/recipeatlas/server/internal/application/recipe"
	"github.com/recipeatlas/server/internal/domain/engagement"
	"github.com/recipeatlas/server/internal/domain/taxonomy"
	"github.com/recipeatlas/server/internal/infrastructure/config"
	"github.com/recipeatlas/server/internal/infrastructure/events"
	gormRepo "github.com/recipeatlas/server/internal/infrastructure/persistence/gorm"
	"github.com/recipeatlas/server/internal/infrastructure/persistence/migrations"
	"github.com/recipeatlas/server/internal/infrastructure/persistence/postgres"
	"github.com/recipeatlas/server/internal/ports/inbound"
	"github.com/recipeatlas/server/internal/ports/outbound"
	"github.com/recipeatlas/server/test/testutils"
)

type PostgresTestSuite struct {
	suite.Suite
	pg       *testutils.PostgresDB
	ctx      context.Context
	fixtures *testutils.Fixtures
	recipes  *recipeApp.RecipeService
	votes    *gormRepo.VoteRepository
}

func TestPostgresTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed tests in short mode")
	}
	suite.Run(t, new(PostgresTestSuite))
}

func (s *PostgresTestSuite) SetupSuite() {
	s.pg = testutils.SetupPostgres(s.T())
	s.ctx = context.Background()
}

func (s *PostgresTestSuite) SetupTest() {
	s.pg.Truncate(s.T())

	db := s.pg.Gorm
	s.fixtures = testutils.NewFixtures(s.T(), db)
	s.votes = gormRepo.NewVoteRepository(db)
	s.recipes = recipeApp.NewRecipeService(
		gormRepo.NewTxManager(db),
		gormRepo.NewRecipeRepository(db),
		gormRepo.NewUserRepository(db),
		gormRepo.NewTaxonomyRepository(db),
		gormRepo.NewCommentRepository(db),
		s.votes,
		events.NewBus(zap.NewNop()),
		assembler.Paging{DefaultPerPage: 20, MaxPerPage: 100},
		recipeApp.Options{MaxSlugAttempts: 5},
		zap.NewNop(),
	)
}

func (s *PostgresTestSuite) TestMigrationsAreCurrent() {
	migrator, err := migrations.New(s.pg.SQL, "recipeatlas_test", zap.NewNop())
	s.Require().NoError(err)

	st, err := migrator.Status()
	s.Require().NoError(err)
	s.NotZero(st.Current)
	s.Equal(st.Latest, st.Current)
	s.Zero(st.Pending)
	s.False(st.Dirty)
	s.NoError(migrator.Up())
}

func (s *PostgresTestSuite) TestUniqueViolationsMapToDuplicate() {
	country := s.fixtures.Country()

	again, err := taxonomy.NewCountry(country.Name, "", "", nil, nil)
	s.Require().NoError(err)
	err = gormRepo.NewTaxonomyRepository(s.pg.Gorm).CreateCountry(s.ctx, again)
	s.True(errors.Is(err, outbound.ErrDuplicate))

	// the raw driver error carries the SQLSTATE the repository maps
	_, err = s.pg.Pool.Exec(s.ctx, `INSERT INTO countries (name) VALUES ($1)`, country.Name)
	var pgErr *pgconn.PgError
	s.Require().True(errors.As(err, &pgErr))
	s.Equal("23505", pgErr.Code)
}

func (s *PostgresTestSuite) TestFavoriteTypeIsChecked() {
	fan := s.fixtures.User()

	_, err := s.pg.Pool.Exec(s.ctx,
		`INSERT INTO favorites (user_id, favorite_type, favorite_id) VALUES ($1, 'planet', 1)`, fan.ID())
	var pgErr *pgconn.PgError
	s.Require().True(errors.As(err, &pgErr))
	s.Equal("23514", pgErr.Code)
	s.Equal("chk_favorites_type", pgErr.ConstraintName)
}

func (s *PostgresTestSuite) TestSlugRetryAndPopularSort() {
	author := s.fixtures.User()
	voter := s.fixtures.User()
	state := s.fixtures.Place()

	first, err := s.recipes.CreateRecipe(s.ctx, author.ID(), inbound.CreateRecipeCommand{Title: "Ceviche", Instructions: "Cure the fish.", StateID: state.ID})
	s.Require().NoError(err)
	second, err := s.recipes.CreateRecipe(s.ctx, author.ID(), inbound.CreateRecipeCommand{Title: "Ceviche", Instructions: "Cure it longer.", StateID: state.ID})
	s.Require().NoError(err)
	s.Equal("ceviche", first.Slug)
	s.Equal("ceviche-1", second.Slug)

	now := time.Now().UTC()
	s.Require().NoError(s.votes.Upsert(s.ctx, &engagement.Vote{
		UserID: voter.ID(), Target: engagement.RecipeTarget(second.ID), Type: engagement.Upvote, CreatedAt: now, UpdatedAt: now,
	}))

	popular, err := s.recipes.Popular(s.ctx, 5, "", 0)
	s.Require().NoError(err)
	s.Require().Len(popular, 2)
	s.Equal(second.ID, popular[0].ID)

	result, err := s.recipes.Search(s.ctx, inbound.SearchQuery{Text: "LONGER"})
	s.Require().NoError(err)
	s.Equal(int64(1), result.Total)
}

func (s *PostgresTestSuite) TestConcurrentVotesKeepOneRow() {
	voter := s.fixtures.User()
	r := s.fixtures.Recipe(s.fixtures.User().ID(), s.fixtures.Place().ID)
	target := engagement.RecipeTarget(r.ID())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			vt := engagement.Upvote
			if i%2 == 1 {
				vt = engagement.Downvote
			}
			now := time.Now().UTC()
			s.NoError(s.votes.Upsert(s.ctx, &engagement.Vote{UserID: voter.ID(), Target: target, Type: vt, CreatedAt: now, UpdatedAt: now}))
		}(i)
	}
	wg.Wait()

	var n int64
	s.Require().NoError(s.pg.Pool.QueryRow(s.ctx, `SELECT COUNT(*) FROM recipe_votes WHERE user_id = $1`, voter.ID()).Scan(&n))
	s.Equal(int64(1), n)
}

func (s *PostgresTestSuite) TestConnectionManagerWithReplica() {
	parsed, err := pgconn.ParseConfig(s.pg.DSN)
	s.Require().NoError(err)

	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver:          "postgres",
		Host:            parsed.Host,
		Port:            int(parsed.Port),
		Database:        parsed.Database,
		Username:        parsed.User,
		Password:        parsed.Password,
		SSLMode:         "disable",
		ReadReplicas:    []string{parsed.Host},
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		LogLevel:        "silent",
	}}

	cm, err := postgres.NewConnectionManager(s.ctx, cfg, zap.NewNop())
	s.Require().NoError(err)
	defer cm.Close()

	s.NoError(cm.HealthCheck(s.ctx))

	country := s.fixtures.Country()
	found, err := gormRepo.NewTaxonomyRepository(cm.GetDB()).FindCountry(s.ctx, country.ID)
	s.Require().NoError(err)
	s.Equal(country.Name, found.Name)
}
