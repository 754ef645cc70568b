// Package seed loads countries and states from a YAML file
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"github.com/recipeatlas/server/internal/domain/taxonomy"
	"github.com/recipeatlas/server/internal/ports/outbound"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

//go:embed countries.yaml
var defaultFile []byte

// Country is one entry of the seed file
type Country struct {
	Name      string   `yaml:"name"`
	Code      string   `yaml:"code"`
	Continent string   `yaml:"continent"`
	Lat       *float64 `yaml:"lat"`
	Lng       *float64 `yaml:"lng"`
	States    []string `yaml:"states"`
}

// File is the seed document
type File struct {
	Countries []Country `yaml:"countries"`
}

// Result counts what a run inserted
type Result struct {
	CountriesCreated int
	StatesCreated    int
}

// Parse decodes a seed document
func Parse(r io.Reader) (*File, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var f File
	if err := yaml.UnmarshalStrict(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &f, nil
}

// Default returns the bundled seed document
func Default() (*File, error) {
	var f File
	if err := yaml.Unmarshal(defaultFile, &f); err != nil {
		return nil, fmt.Errorf("failed to parse bundled seed file: %w", err)
	}
	return &f, nil
}

// Seeder inserts missing countries and states. Existing rows are matched
// by name, so running it twice is harmless.
type Seeder struct {
	tx     outbound.TxManager
	repo   outbound.TaxonomyRepository
	logger *zap.Logger
}

// NewSeeder creates a seeder
func NewSeeder(tx outbound.TxManager, repo outbound.TaxonomyRepository, logger *zap.Logger) *Seeder {
	return &Seeder{tx: tx, repo: repo, logger: logger.Named("seed")}
}

// Apply runs the whole file in one transaction
func (s *Seeder) Apply(ctx context.Context, f *File) (Result, error) {
	var res Result
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		res = Result{}
		for _, entry := range f.Countries {
			country, created, err := s.ensureCountry(ctx, entry)
			if err != nil {
				return fmt.Errorf("country %q: %w", entry.Name, err)
			}
			if created {
				res.CountriesCreated++
			}

			for _, name := range entry.States {
				created, err := s.ensureState(ctx, country.ID, name)
				if err != nil {
					return fmt.Errorf("state %q of %q: %w", name, entry.Name, err)
				}
				if created {
					res.StatesCreated++
				}
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.logger.Info("Seed applied",
		zap.Int("countries_created", res.CountriesCreated),
		zap.Int("states_created", res.StatesCreated),
	)
	return res, nil
}

func (s *Seeder) ensureCountry(ctx context.Context, entry Country) (*taxonomy.Country, bool, error) {
	existing, err := s.repo.FindCountryByName(ctx, entry.Name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, taxonomy.ErrCountryNotFound) {
		return nil, false, err
	}

	country, err := taxonomy.NewCountry(entry.Name, entry.Code, entry.Continent, entry.Lat, entry.Lng)
	if err != nil {
		return nil, false, err
	}
	if err := s.repo.CreateCountry(ctx, country); err != nil {
		return nil, false, err
	}
	return country, true, nil
}

func (s *Seeder) ensureState(ctx context.Context, countryID uint, name string) (bool, error) {
	_, err := s.repo.FindStateByName(ctx, countryID, name)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, taxonomy.ErrStateNotFound) {
		return false, err
	}

	state, err := taxonomy.NewState(countryID, name)
	if err != nil {
		return false, err
	}
	return true, s.repo.CreateState(ctx, state)
}
