// Package sqlite provides SQLite database setup and configuration
package sqlite

import (
	"fmt"
	"strings"

	gormModels "github.com/recipeatlas/server/internal/infrastructure/persistence/gorm"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Options tunes SetupDatabase
type Options struct {
	LogLevel    string
	AutoMigrate bool
}

// SetupDatabase opens the SQLite database at path (in-memory when empty),
// turns on foreign key enforcement and migrates the schema.
func SetupDatabase(path string, opts Options, log *zap.Logger) (*gorm.DB, error) {
	dsn, inMemory := buildDSN(path)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormModels.NewLogger(log, opts.LogLevel, 0),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// Every connection to :memory: is a separate database, and SQLite
	// serialises writers anyway.
	sqlDB.SetMaxOpenConns(1)
	if inMemory {
		sqlDB.SetConnMaxLifetime(0)
	}

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if opts.AutoMigrate {
		if err := db.AutoMigrate(gormModels.AllModels()...); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	log.Info("SQLite database ready",
		zap.String("path", dsn),
		zap.Bool("auto_migrate", opts.AutoMigrate),
	)

	return db, nil
}

func buildDSN(path string) (string, bool) {
	if path == "" || path == ":memory:" {
		return "file::memory:?_foreign_keys=on", true
	}
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=on", false
	}
	return path + "?_foreign_keys=on", false
}
