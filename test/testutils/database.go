// Package testutils provides shared database setup and fixtures for tests
package testutils

import (
	"testing"

	"github.com/recipeatlas/server/internal/infrastructure/persistence/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewTestDB opens a fresh in-memory SQLite database with the full schema.
// Each call gets its own database; it is closed when the test ends.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := sqlite.SetupDatabase(":memory:", sqlite.Options{
		LogLevel:    "silent",
		AutoMigrate: true,
	}, zap.NewNop())
	require.NoError(t, err, "failed to open test database")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CountRows returns the number of rows in table matching where
func CountRows(t testing.TB, db *gorm.DB, table, where string, args ...interface{}) int64 {
	t.Helper()

	var n int64
	q := db.Table(table)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
