package gorm

import (
	"context"
	"errors"
	"strings"

	"github.com/recipeatlas/server/internal/domain/shared"
	"github.com/recipeatlas/server/internal/domain/taxonomy"
	"github.com/recipeatlas/server/internal/ports/outbound"
	"gorm.io/gorm"
)

// TaxonomyRepository stores countries and states
type TaxonomyRepository struct {
	db *gorm.DB
}

// NewTaxonomyRepository creates a new taxonomy repository
func NewTaxonomyRepository(db *gorm.DB) *TaxonomyRepository {
	return &TaxonomyRepository{db: db}
}

var _ outbound.TaxonomyRepository = (*TaxonomyRepository)(nil)

type countRow struct {
	ID uint
	N  int64
}

// CreateCountry inserts a country and sets its ID
func (r *TaxonomyRepository) CreateCountry(ctx context.Context, c *taxonomy.Country) error {
	model := CountryToModel(c)
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return outbound.ErrDuplicate
		}
		return err
	}
	c.ID = model.ID
	c.CreatedAt = model.CreatedAt
	return nil
}

// CreateState inserts a state and sets its ID
func (r *TaxonomyRepository) CreateState(ctx context.Context, s *taxonomy.State) error {
	model := &StateModel{Name: s.Name, CountryID: s.CountryID, CreatedAt: s.CreatedAt}
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return outbound.ErrDuplicate
		}
		return err
	}
	s.ID = model.ID
	s.CreatedAt = model.CreatedAt
	return nil
}

// FindCountry finds a country by ID
func (r *TaxonomyRepository) FindCountry(ctx context.Context, id uint) (*taxonomy.Country, error) {
	return r.findCountry(ctx, "id = ?", id)
}

// FindCountryByName finds a country by name, ignoring case
func (r *TaxonomyRepository) FindCountryByName(ctx context.Context, name string) (*taxonomy.Country, error) {
	return r.findCountry(ctx, "LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
}

func (r *TaxonomyRepository) findCountry(ctx context.Context, query string, arg interface{}) (*taxonomy.Country, error) {
	var model CountryModel
	if err := conn(ctx, r.db).Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, taxonomy.ErrCountryNotFound
		}
		return nil, err
	}
	return ModelToCountry(&model), nil
}

// FindState finds a state by ID
func (r *TaxonomyRepository) FindState(ctx context.Context, id uint) (*taxonomy.State, error) {
	return findState(conn(ctx, r.db).Where("id = ?", id))
}

// FindStateByName finds a state inside a country, ignoring case
func (r *TaxonomyRepository) FindStateByName(ctx context.Context, countryID uint, name string) (*taxonomy.State, error) {
	q := conn(ctx, r.db).Where("country_id = ? AND LOWER(name) = ?", countryID, strings.ToLower(strings.TrimSpace(name)))
	return findState(q)
}

func findState(q *gorm.DB) (*taxonomy.State, error) {
	var model StateModel
	if err := q.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, taxonomy.ErrStateNotFound
		}
		return nil, err
	}
	return ModelToState(&model), nil
}

// FindCountriesByIDs loads countries keyed by ID
func (r *TaxonomyRepository) FindCountriesByIDs(ctx context.Context, ids []uint) (map[uint]*taxonomy.Country, error) {
	found := make(map[uint]*taxonomy.Country, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var models []CountryModel
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	for i := range models {
		found[models[i].ID] = ModelToCountry(&models[i])
	}
	return found, nil
}

// FindStatesByIDs loads states keyed by ID
func (r *TaxonomyRepository) FindStatesByIDs(ctx context.Context, ids []uint) (map[uint]*taxonomy.State, error) {
	found := make(map[uint]*taxonomy.State, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var models []StateModel
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	for i := range models {
		found[models[i].ID] = ModelToState(&models[i])
	}
	return found, nil
}

// ListCountries returns a page of countries ordered by name
func (r *TaxonomyRepository) ListCountries(ctx context.Context, page shared.Page) ([]*taxonomy.Country, int64, error) {
	var total int64
	if err := conn(ctx, r.db).Model(&CountryModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []CountryModel
	err := conn(ctx, r.db).Order("name ASC").Offset(page.Offset()).Limit(page.PerPage).Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	countries := make([]*taxonomy.Country, len(models))
	for i := range models {
		countries[i] = ModelToCountry(&models[i])
	}
	return countries, total, nil
}

// ListStates returns a page of states ordered by name
func (r *TaxonomyRepository) ListStates(ctx context.Context, countryID uint, page shared.Page) ([]*taxonomy.State, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if countryID != 0 {
			return db.Where("country_id = ?", countryID)
		}
		return db
	}

	var total int64
	if err := conn(ctx, r.db).Model(&StateModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []StateModel
	err := conn(ctx, r.db).Scopes(scope).Order("name ASC").Order("id ASC").
		Offset(page.Offset()).Limit(page.PerPage).Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	states := make([]*taxonomy.State, len(models))
	for i := range models {
		states[i] = ModelToState(&models[i])
	}
	return states, total, nil
}

// RecipeCountsByCountry counts recipes filed under each country's states
func (r *TaxonomyRepository) RecipeCountsByCountry(ctx context.Context, ids []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	var rows []countRow
	err := conn(ctx, r.db).Table("recipes").
		Select("states.country_id AS id, COUNT(recipes.id) AS n").
		Joins("JOIN states ON states.id = recipes.state_id").
		Where("states.country_id IN ?", ids).
		Group("states.country_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ID] = row.N
	}
	return counts, nil
}

// RecipeCountsByState counts recipes filed under each state
func (r *TaxonomyRepository) RecipeCountsByState(ctx context.Context, ids []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	var rows []countRow
	err := conn(ctx, r.db).Table("recipes").
		Select("state_id AS id, COUNT(id) AS n").
		Where("state_id IN ?", ids).
		Group("state_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ID] = row.N
	}
	return counts, nil
}
