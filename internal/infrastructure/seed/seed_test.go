package seed

import (
	"context"
	"strings"
	"testing"

	gormrepo "github.com/recipeatlas/server/internal/infrastructure/persistence/gorm"
	"github.com/recipeatlas/server/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sample = `
countries:
  - name: Italy
    code: it
    continent: Europe
    lat: 41.87
    lng: 12.57
    states: [Tuscany, Sicily]
  - name: Peru
    states: [Cusco]
`

type SeedTestSuite struct {
	suite.Suite
	db     *gorm.DB
	seeder *Seeder
}

func (s *SeedTestSuite) SetupTest() {
	s.db = testutils.NewTestDB(s.T())
	s.seeder = NewSeeder(gormrepo.NewTxManager(s.db), gormrepo.NewTaxonomyRepository(s.db), zap.NewNop())
}

func (s *SeedTestSuite) TestApplyInsertsCountriesAndStates() {
	f, err := Parse(strings.NewReader(sample))
	s.Require().NoError(err)

	res, err := s.seeder.Apply(context.Background(), f)
	s.Require().NoError(err)
	s.Equal(Result{CountriesCreated: 2, StatesCreated: 3}, res)

	var code string
	s.Require().NoError(s.db.Table("countries").Select("code").Where("name = ?", "Italy").Scan(&code).Error)
	s.Equal("IT", code)
}

func (s *SeedTestSuite) TestApplyIsIdempotent() {
	f, err := Parse(strings.NewReader(sample))
	s.Require().NoError(err)

	_, err = s.seeder.Apply(context.Background(), f)
	s.Require().NoError(err)

	f.Countries[1].States = append(f.Countries[1].States, "Lima")
	res, err := s.seeder.Apply(context.Background(), f)
	s.Require().NoError(err)

	s.Equal(Result{CountriesCreated: 0, StatesCreated: 1}, res)
	s.Equal(int64(4), testutils.CountRows(s.T(), s.db, "states", ""))
}

func (s *SeedTestSuite) TestInvalidEntryRollsBackEverything() {
	f, err := Parse(strings.NewReader(`
countries:
  - name: Spain
    states: [Andalusia]
  - name: Nowhere
    code: TOOLONG
`))
	s.Require().NoError(err)

	_, err = s.seeder.Apply(context.Background(), f)
	s.Error(err)
	s.Equal(int64(0), testutils.CountRows(s.T(), s.db, "countries", ""))
	s.Equal(int64(0), testutils.CountRows(s.T(), s.db, "states", ""))
}

func TestSeedTestSuite(t *testing.T) {
	suite.Run(t, new(SeedTestSuite))
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader("countries:\n  - name: X\n    population: 3\n"))
	assert.Error(t, err)
}

func TestDefaultFileParses(t *testing.T) {
	f, err := Default()
	require.NoError(t, err)
	assert.NotEmpty(t, f.Countries)
	for _, c := range f.Countries {
		assert.NotEmpty(t, c.Name)
		assert.NotEmpty(t, c.States, c.Name)
	}
}
