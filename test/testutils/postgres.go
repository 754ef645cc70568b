//go:build integration

package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/recipeatlas/server/internal/infrastructure/persistence/migrations"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	pgImage    = "postgres:15-alpine"
	pgDatabase = "recipeatlas_test"
	pgUser     = "test_user"
	pgPassword = "test_password"
	pgPort     = "5432/tcp"
)

// PostgresDB is a throwaway postgres container with the migrated schema
type PostgresDB struct {
	Container testcontainers.Container
	SQL       *sql.DB
	Gorm      *gorm.DB
	Pool      *pgxpool.Pool
	DSN       string
}

func dsnFor(host string, port nat.Port) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		pgUser, pgPassword, host, port.Port(), pgDatabase)
}

// SetupPostgres starts a container, applies the SQL migrations and
// registers cleanup on t
func SetupPostgres(t *testing.T) *PostgresDB {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        pgImage,
			ExposedPorts: []string{pgPort},
			Env: map[string]string{
				"POSTGRES_DB":       pgDatabase,
				"POSTGRES_USER":     pgUser,
				"POSTGRES_PASSWORD": pgPassword,
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
				wait.ForSQL(nat.Port(pgPort), "pgx", dsnFor),
			),
			Tmpfs: map[string]string{
				"/var/lib/postgresql/data": "rw",
			},
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start postgres container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, nat.Port(pgPort))
	require.NoError(t, err)
	dsn := dsnFor(host, port)

	sqlDB, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	require.NoError(t, sqlDB.PingContext(ctx))

	migrator, err := migrations.New(sqlDB, pgDatabase, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, migrator.Up())

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)

	db := &PostgresDB{Container: container, SQL: sqlDB, Gorm: gormDB, Pool: pool, DSN: dsn}
	t.Cleanup(func() {
		pool.Close()
		_ = sqlDB.Close()
		_ = container.Terminate(context.Background())
	})
	return db
}

// Truncate empties every application table and resets identities
func (p *PostgresDB) Truncate(t *testing.T) {
	t.Helper()
	_, err := p.Pool.Exec(context.Background(), `TRUNCATE
		favorites, comment_votes, recipe_votes, comments,
		ingredients, steps, recipes, users, states, countries
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}
