package testutils

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/recipeatlas/server/internal/domain/recipe"
	"github.com/recipeatlas/server/internal/domain/taxonomy"
	"github.com/recipeatlas/server/internal/domain/user"
	gormrepo "github.com/recipeatlas/server/internal/infrastructure/persistence/gorm"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TestPassword is the plaintext password of every fixture user
const TestPassword = "password123"

var seq atomic.Int64

func next() int64 { return seq.Add(1) }

// Fixtures inserts realistic rows through the real repositories
type Fixtures struct {
	t     testing.TB
	faker *gofakeit.Faker

	Users    *gormrepo.UserRepository
	Taxonomy *gormrepo.TaxonomyRepository
	Recipes  *gormrepo.RecipeRepository
}

// NewFixtures creates a fixture factory with a deterministic faker
func NewFixtures(t testing.TB, db *gorm.DB) *Fixtures {
	return &Fixtures{
		t:        t,
		faker:    gofakeit.New(42),
		Users:    gormrepo.NewUserRepository(db),
		Taxonomy: gormrepo.NewTaxonomyRepository(db),
		Recipes:  gormrepo.NewRecipeRepository(db),
	}
}

// Faker exposes the underlying generator
func (f *Fixtures) Faker() *gofakeit.Faker {
	return f.faker
}

// User stores a user with a unique username and email. bcrypt runs at its
// minimum cost to keep tests fast.
func (f *Fixtures) User() *user.User {
	f.t.Helper()
	n := next()

	u, err := user.NewUser(user.Registration{
		Username: fmt.Sprintf("user_%d", n),
		Email:    fmt.Sprintf("user%d@%s", n, f.faker.DomainName()),
		Password: TestPassword,
		Bio:      f.faker.Sentence(8),
		Country:  f.faker.Country(),
	}, 4)
	require.NoError(f.t, err)

	stored, err := f.Users.Create(context.Background(), u)
	require.NoError(f.t, err)
	return stored
}

// Country stores a country with a unique name
func (f *Fixtures) Country() *taxonomy.Country {
	f.t.Helper()

	c, err := taxonomy.NewCountry(fmt.Sprintf("%s %d", f.faker.Country(), next()), "", f.faker.RandomString([]string{"Europe", "Asia", "Africa", "South America"}), nil, nil)
	require.NoError(f.t, err)
	require.NoError(f.t, f.Taxonomy.CreateCountry(context.Background(), c))
	return c
}

// State stores a state under countryID
func (f *Fixtures) State(countryID uint) *taxonomy.State {
	f.t.Helper()

	s, err := taxonomy.NewState(countryID, fmt.Sprintf("%s %d", f.faker.State(), next()))
	require.NoError(f.t, err)
	require.NoError(f.t, f.Taxonomy.CreateState(context.Background(), s))
	return s
}

// Place stores a country with one state and returns the state
func (f *Fixtures) Place() *taxonomy.State {
	return f.State(f.Country().ID)
}

// Recipe stores a text-mode recipe with a unique slug
func (f *Fixtures) Recipe(authorID, stateID uint) *recipe.Recipe {
	f.t.Helper()
	return f.store(recipe.Draft{
		AuthorID:     authorID,
		StateID:      stateID,
		Title:        f.faker.Dessert(),
		Description:  f.faker.Sentence(12),
		Instructions: f.faker.Paragraph(1, 3, 10, " "),
	})
}

// StructuredRecipe stores a recipe with n steps of two ingredients each
func (f *Fixtures) StructuredRecipe(authorID, stateID uint, n int) *recipe.Recipe {
	f.t.Helper()

	steps := make([]recipe.StepDraft, n)
	for i := range steps {
		qty := f.faker.Float64Range(0.5, 5)
		steps[i] = recipe.StepDraft{
			Instruction: f.faker.Sentence(10),
			Ingredients: []recipe.IngredientDraft{
				{Name: f.faker.Vegetable(), Quantity: &qty, Unit: "cup"},
				{Name: f.faker.Fruit(), Notes: "to taste"},
			},
		}
	}
	return f.store(recipe.Draft{
		AuthorID: authorID,
		StateID:  stateID,
		Title:    f.faker.Lunch(),
		Steps:    steps,
	})
}

func (f *Fixtures) store(d recipe.Draft) *recipe.Recipe {
	r, err := recipe.NewRecipe(d)
	require.NoError(f.t, err)
	r.AssignSlug(recipe.SlugCandidate(recipe.Slugify(r.Title()), int(next())))

	stored, err := f.Recipes.Create(context.Background(), r)
	require.NoError(f.t, err)
	return stored
}
