// Package taxonomy provides the country and state use cases
package taxonomy

import (
	"context"
	stderrors "errors"

	"github.com/recipeatlas/server/internal/application/assembler"
	"github.com/recipeatlas/server/internal/domain/taxonomy"
	"github.com/recipeatlas/server/internal/ports/inbound"
	"github.com/recipeatlas/server/internal/ports/outbound"
	"github.com/recipeatlas/server/pkg/errors"
	"go.uber.org/zap"
)

// Service implements inbound.TaxonomyService
type Service struct {
	repo   outbound.TaxonomyRepository
	loader *assembler.Loader
	paging assembler.Paging
	logger *zap.Logger
}

// NewService creates a taxonomy service
func NewService(repo outbound.TaxonomyRepository, loader *assembler.Loader, paging assembler.Paging, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		loader: loader,
		paging: paging,
		logger: logger.Named("taxonomy-service"),
	}
}

var _ inbound.TaxonomyService = (*Service)(nil)

// ListCountries lists countries by name with their recipe counts
func (s *Service) ListCountries(ctx context.Context, q inbound.PageQuery) (*inbound.List[inbound.CountryDTO], error) {
	page := s.paging.Page(q)

	countries, total, err := s.repo.ListCountries(ctx, page)
	if err != nil {
		return nil, errors.NewDatabaseError("list countries", err)
	}
	items, err := s.loader.Countries(ctx, countries)
	if err != nil {
		return nil, errors.NewDatabaseError("count recipes", err)
	}
	return assembler.NewList(items, total, page), nil
}

// GetCountry returns one country with its recipe count
func (s *Service) GetCountry(ctx context.Context, id uint) (*inbound.CountryDTO, error) {
	country, err := s.repo.FindCountry(ctx, id)
	if err != nil {
		return nil, toAppError(err, "find country")
	}
	items, err := s.loader.Countries(ctx, []*taxonomy.Country{country})
	if err != nil {
		return nil, errors.NewDatabaseError("count recipes", err)
	}
	return &items[0], nil
}

// ListStates lists states by name, restricted to one country unless
// countryID is zero
func (s *Service) ListStates(ctx context.Context, countryID uint, q inbound.PageQuery) (*inbound.List[inbound.StateDTO], error) {
	page := s.paging.Page(q)

	if countryID != 0 {
		if _, err := s.repo.FindCountry(ctx, countryID); err != nil {
			return nil, toAppError(err, "find country")
		}
	}

	states, total, err := s.repo.ListStates(ctx, countryID, page)
	if err != nil {
		return nil, errors.NewDatabaseError("list states", err)
	}

	items, err := s.statesWithCounts(ctx, states)
	if err != nil {
		return nil, err
	}
	return assembler.NewList(items, total, page), nil
}

// GetState returns one state with its country name and recipe count
func (s *Service) GetState(ctx context.Context, id uint) (*inbound.StateDTO, error) {
	state, err := s.repo.FindState(ctx, id)
	if err != nil {
		return nil, toAppError(err, "find state")
	}
	items, err := s.statesWithCounts(ctx, []*taxonomy.State{state})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// CreateCountry adds a country; a taken name or code is a conflict
func (s *Service) CreateCountry(ctx context.Context, cmd inbound.CreateCountryCommand) (*inbound.CountryDTO, error) {
	country, err := taxonomy.NewCountry(cmd.Name, cmd.Code, cmd.Continent, cmd.Lat, cmd.Lng)
	if err != nil {
		return nil, toAppError(err, "create country")
	}

	if err := s.repo.CreateCountry(ctx, country); err != nil {
		if stderrors.Is(err, outbound.ErrDuplicate) {
			return nil, toAppError(taxonomy.ErrDuplicateCountry, "create country")
		}
		return nil, toAppError(err, "create country")
	}

	s.logger.Info("Country created",
		zap.Uint("country_id", country.ID),
		zap.String("name", country.Name),
	)

	var zero int64
	dto := assembler.Country(country, &zero)
	return &dto, nil
}

// CreateState adds a state to a country; a taken name is a conflict
func (s *Service) CreateState(ctx context.Context, countryID uint, name string) (*inbound.StateDTO, error) {
	state, err := taxonomy.NewState(countryID, name)
	if err != nil {
		return nil, toAppError(err, "create state")
	}

	country, err := s.repo.FindCountry(ctx, countryID)
	if err != nil {
		return nil, toAppError(err, "find country")
	}

	if err := s.repo.CreateState(ctx, state); err != nil {
		if stderrors.Is(err, outbound.ErrDuplicate) {
			return nil, toAppError(taxonomy.ErrDuplicateState, "create state")
		}
		return nil, toAppError(err, "create state")
	}

	s.logger.Info("State created",
		zap.Uint("state_id", state.ID),
		zap.Uint("country_id", countryID),
		zap.String("name", state.Name),
	)

	var zero int64
	dto := assembler.State(state, country, &zero)
	return &dto, nil
}

func (s *Service) statesWithCounts(ctx context.Context, states []*taxonomy.State) ([]inbound.StateDTO, error) {
	ids := make([]uint, 0, len(states))
	countryIDs := make([]uint, 0, len(states))
	for _, st := range states {
		ids = append(ids, st.ID)
		countryIDs = append(countryIDs, st.CountryID)
	}

	counts, err := s.repo.RecipeCountsByState(ctx, ids)
	if err != nil {
		return nil, errors.NewDatabaseError("count recipes", err)
	}
	countries, err := s.repo.FindCountriesByIDs(ctx, countryIDs)
	if err != nil {
		return nil, errors.NewDatabaseError("find countries", err)
	}

	items := make([]inbound.StateDTO, 0, len(states))
	for _, st := range states {
		n := counts[st.ID]
		items = append(items, assembler.State(st, countries[st.CountryID], &n))
	}
	return items, nil
}

func toAppError(err error, operation string) error {
	switch {
	case stderrors.Is(err, taxonomy.ErrNameRequired),
		stderrors.Is(err, taxonomy.ErrNameTooLong),
		stderrors.Is(err, taxonomy.ErrInvalidCode),
		stderrors.Is(err, taxonomy.ErrContinentTooLong),
		stderrors.Is(err, taxonomy.ErrInvalidLatitude),
		stderrors.Is(err, taxonomy.ErrInvalidLongitude),
		stderrors.Is(err, taxonomy.ErrCountryRequired):
		return errors.NewValidationError(err.Error())
	case stderrors.Is(err, taxonomy.ErrCountryNotFound):
		return errors.NewNotFoundError("country")
	case stderrors.Is(err, taxonomy.ErrStateNotFound):
		return errors.NewNotFoundError("state")
	case stderrors.Is(err, taxonomy.ErrDuplicateCountry),
		stderrors.Is(err, taxonomy.ErrDuplicateState):
		return errors.NewConflictError(err.Error())
	}
	return errors.NewDatabaseError(operation, err)
}
