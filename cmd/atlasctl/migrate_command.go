package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/recipeatlas/server/internal/infrastructure/container"
	"github.com/recipeatlas/server/internal/infrastructure/persistence/migrations"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Database.Driver != "postgres" {
				// SQLite has no versioned migrations; its schema comes from the models.
				sqliteCfg := *cfg
				sqliteCfg.Database.AutoMigrate = true
				_, closeDB, err := container.Connect(cmd.Context(), &sqliteCfg, ctx.logger)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "SQLite schema is up to date")
				return closeDB()
			}
			return ctx.withMigrator(cmd, func(m *migrations.Migrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				return printVersion(cmd, m)
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMigrator(cmd, func(m *migrations.Migrator) error {
				if err := m.Down(); err != nil {
					return err
				}
				return printVersion(cmd, m)
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the applied migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMigrator(cmd, func(m *migrations.Migrator) error {
				return printVersion(cmd, m)
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "force <version>",
		Short: "Set the migration version without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return ctx.withMigrator(cmd, func(m *migrations.Migrator) error {
				if err := m.Force(version); err != nil {
					return err
				}
				return printVersion(cmd, m)
			})
		},
	})

	return migrateCmd
}

func (c *commandContext) withMigrator(cmd *cobra.Command, fn func(*migrations.Migrator) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("versioned migrations require the postgres driver, configured driver is %q", cfg.Database.Driver)
	}

	return c.withDatabase(cmd.Context(), func(db *gorm.DB) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		m, err := migrations.New(sqlDB, cfg.Database.Database, c.logger)
		if err != nil {
			return err
		}
		defer m.Close()
		return fn(m)
	})
}

func printVersion(cmd *cobra.Command, m *migrations.Migrator) error {
	st, err := m.Status()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "version %d of %d", st.Current, st.Latest)
	if st.Dirty {
		fmt.Fprint(out, " (dirty)")
	}
	if st.Pending > 0 {
		fmt.Fprintf(out, ", %d pending", st.Pending)
	}
	fmt.Fprintln(out)
	return nil
}
