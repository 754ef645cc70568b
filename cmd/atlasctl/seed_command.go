package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	gormRepo "github.com/recipeatlas/server/internal/infrastructure/persistence/gorm"
	"github.com/recipeatlas/server/internal/infrastructure/seed"
)

func newSeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file]",
		Short: "Insert countries and states",
		Long:  "Insert the countries and states of a YAML seed file, or the bundled list when no file is given. Existing rows are left alone.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := loadSeedFile(args)
			if err != nil {
				return err
			}

			return ctx.withDatabase(cmd.Context(), func(db *gorm.DB) error {
				seeder := seed.NewSeeder(gormRepo.NewTxManager(db), gormRepo.NewTaxonomyRepository(db), ctx.logger)
				res, err := seeder.Apply(cmd.Context(), file)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %d countries and %d states\n", res.CountriesCreated, res.StatesCreated)
				return nil
			})
		},
	}
}

func loadSeedFile(args []string) (*seed.File, error) {
	if len(args) == 0 {
		return seed.Default()
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return seed.Parse(f)
}
