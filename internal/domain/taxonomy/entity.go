// Package taxonomy holds the geographic taxonomy recipes are filed under:
// countries and the states inside them.
package taxonomy

import (
	"errors"
	"strings"
	"time"

	"github.com/recipeatlas/server/internal/domain/shared"
)

var (
	ErrNameRequired     = errors.New("name is required")
	ErrNameTooLong      = errors.New("name must be 100 characters or less")
	ErrInvalidCode      = errors.New("code must be 2 letters")
	ErrContinentTooLong = errors.New("continent must be 50 characters or less")
	ErrInvalidLatitude  = errors.New("lat must be between -90 and 90")
	ErrInvalidLongitude = errors.New("lng must be between -180 and 180")
	ErrCountryRequired  = errors.New("country_id is required")
	ErrCountryNotFound  = errors.New("country not found")
	ErrStateNotFound    = errors.New("state not found")
	ErrDuplicateCountry = errors.New("country already exists")
	ErrDuplicateState   = errors.New("state already exists in this country")
)

// Country is a top-level taxonomy node
type Country struct {
	ID        uint
	Name      string
	Code      string
	Continent string
	Lat       *float64
	Lng       *float64
	CreatedAt time.Time
}

// State belongs to exactly one country; names are unique per country
type State struct {
	ID        uint
	Name      string
	CountryID uint
	CreatedAt time.Time
}

// NewCountry validates and builds an unsaved country
func NewCountry(name, code, continent string, lat, lng *float64) (*Country, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	if code != "" && !isCountryCode(code) {
		return nil, ErrInvalidCode
	}

	continent = shared.CleanText(continent)
	if shared.TooLong(continent, 50) {
		return nil, ErrContinentTooLong
	}
	if lat != nil && (*lat < -90 || *lat > 90) {
		return nil, ErrInvalidLatitude
	}
	if lng != nil && (*lng < -180 || *lng > 180) {
		return nil, ErrInvalidLongitude
	}

	return &Country{
		Name:      name,
		Code:      code,
		Continent: continent,
		Lat:       lat,
		Lng:       lng,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// NewState validates and builds an unsaved state
func NewState(countryID uint, name string) (*State, error) {
	if countryID == 0 {
		return nil, ErrCountryRequired
	}
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	return &State{Name: name, CountryID: countryID, CreatedAt: time.Now().UTC()}, nil
}

func cleanName(name string) (string, error) {
	name = shared.CleanText(name)
	if name == "" {
		return "", ErrNameRequired
	}
	if shared.TooLong(name, 100) {
		return "", ErrNameTooLong
	}
	return name, nil
}

func isCountryCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}
