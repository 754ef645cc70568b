package inbound

import "context"

// TaxonomyService defines country and state use cases
type TaxonomyService interface {
	ListCountries(ctx context.Context, page PageQuery) (*List[CountryDTO], error)
	GetCountry(ctx context.Context, id uint) (*CountryDTO, error)
	ListStates(ctx context.Context, countryID uint, page PageQuery) (*List[StateDTO], error)
	GetState(ctx context.Context, id uint) (*StateDTO, error)
	CreateCountry(ctx context.Context, cmd CreateCountryCommand) (*CountryDTO, error)
	CreateState(ctx context.Context, countryID uint, name string) (*StateDTO, error)
}

// CreateCountryCommand contains data for a new country
type CreateCountryCommand struct {
	Name      string
	Code      string
	Continent string
	Lat       *float64
	Lng       *float64
}
