// Package container wires the application together with Uber FX
package container

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/recipeatlas/server/internal/application/assembler"
	engagementApp "github.com/recipeatlas/server/internal/application/engagement"
	"github.com/recipeatlas/server/internal/application/recipe"
	taxonomyApp "github.com/recipeatlas/server/internal/application/taxonomy"
	"github.com/recipeatlas/server/internal/application/user"
	"github.com/recipeatlas/server/internal/domain/shared"
	"github.com/recipeatlas/server/internal/infrastructure/config"
	"github.com/recipeatlas/server/internal/infrastructure/events"
	"github.com/recipeatlas/server/internal/infrastructure/http/apiserver"
	"github.com/recipeatlas/server/internal/infrastructure/http/handlers"
	"github.com/recipeatlas/server/internal/infrastructure/http/middleware"
	"github.com/recipeatlas/server/internal/infrastructure/monitoring"
	gormRepo "github.com/recipeatlas/server/internal/infrastructure/persistence/gorm"
	"github.com/recipeatlas/server/internal/infrastructure/persistence/migrations"
	"github.com/recipeatlas/server/internal/infrastructure/persistence/postgres"
	"github.com/recipeatlas/server/internal/infrastructure/persistence/sqlite"
	"github.com/recipeatlas/server/internal/infrastructure/session"
	"github.com/recipeatlas/server/internal/ports/inbound"
	"github.com/recipeatlas/server/internal/ports/outbound"
	"github.com/recipeatlas/server/pkg/healthcheck"
	"github.com/recipeatlas/server/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module returns every provider of the API server. configPath may be empty
// to search the default locations.
func Module(configPath string) fx.Option {
	return fx.Options(
		ConfigModule(configPath),
		LoggerModule,
		DatabaseModule,
		EventModule,
		RepositoryModule,
		ServiceModule,
		ObservabilityModule,
		SessionModule,
		HTTPModule,
		LifecycleModule,
	)
}

// ConfigModule provides configuration
func ConfigModule(configPath string) fx.Option {
	return fx.Provide(func() (*config.Config, error) {
		return config.Load(configPath)
	})
}

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
			Service:     cfg.App.Name,
			Version:     cfg.App.Version,
		})
	},
)

// DatabaseModule provides the GORM handle and its pool
var DatabaseModule = fx.Provide(
	OpenDatabase,
	func(db *gorm.DB) (*sql.DB, error) {
		return db.DB()
	},
)

// OpenDatabase connects to the configured driver. Postgres schemas come
// from the versioned migrations; SQLite is migrated from the models.
func OpenDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, closeDB, err := Connect(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return closeDB() }})

	if cfg.Database.Driver == "postgres" && cfg.Database.AutoMigrate {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		m, err := migrations.New(sqlDB, cfg.Database.Database, log)
		if err != nil {
			return nil, err
		}
		if err := m.Up(); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Connect opens the configured database and returns its close function
func Connect(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gorm.DB, func() error, error) {
	switch cfg.Database.Driver {
	case "postgres":
		cm, err := postgres.NewConnectionManager(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return cm.GetDB(), cm.Close, nil

	case "sqlite", "":
		db, err := sqlite.SetupDatabase(cfg.Database.Path, sqlite.Options{
			LogLevel:    cfg.Database.LogLevel,
			AutoMigrate: cfg.Database.AutoMigrate,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return db, sqlDB.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// EventModule provides the domain event bus and its subscribers
var EventModule = fx.Options(
	fx.Provide(
		events.NewBus,
		func(b *events.Bus) outbound.EventBus { return b },
	),
	fx.Invoke(RegisterEventHandlers),
)

// RegisterEventHandlers logs every domain event and counts it in metrics
func RegisterEventHandlers(bus outbound.EventBus, metrics *monitoring.Metrics, log *zap.Logger) {
	audit := log.Named("audit")
	bus.Subscribe(events.Wildcard, func(e shared.DomainEvent) error {
		audit.Info("Domain event",
			zap.String("event", e.EventName()),
			zap.Time("occurred_at", e.OccurredAt()),
			zap.Any("payload", e),
		)
		return nil
	})
	metrics.Subscribe(bus, events.Wildcard)
}

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	fx.Annotate(gormRepo.NewTxManager, fx.As(new(outbound.TxManager))),
	fx.Annotate(gormRepo.NewUserRepository, fx.As(new(outbound.UserRepository))),
	fx.Annotate(gormRepo.NewTaxonomyRepository, fx.As(new(outbound.TaxonomyRepository))),
	fx.Annotate(gormRepo.NewRecipeRepository, fx.As(new(outbound.RecipeRepository))),
	fx.Annotate(gormRepo.NewCommentRepository, fx.As(new(outbound.CommentRepository))),
	fx.Annotate(gormRepo.NewVoteRepository, fx.As(new(outbound.VoteRepository))),
	fx.Annotate(gormRepo.NewFavoriteRepository, fx.As(new(outbound.FavoriteRepository))),
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(cfg *config.Config) assembler.Paging {
		return assembler.Paging{
			DefaultPerPage: cfg.Pagination.DefaultPerPage,
			MaxPerPage:     cfg.Pagination.MaxPerPage,
		}
	},
	assembler.NewLoader,

	fx.Annotate(
		func(
			tx outbound.TxManager,
			recipes outbound.RecipeRepository,
			users outbound.UserRepository,
			taxonomy outbound.TaxonomyRepository,
			comments outbound.CommentRepository,
			votes outbound.VoteRepository,
			bus outbound.EventBus,
			paging assembler.Paging,
			cfg *config.Config,
			log *zap.Logger,
		) *recipe.RecipeService {
			return recipe.NewRecipeService(tx, recipes, users, taxonomy, comments, votes, bus, paging, recipe.Options{
				MaxSlugAttempts: cfg.Recipes.MaxSlugAttempts,
				SlugWithAuthor:  cfg.Recipes.SlugWithAuthor,
			}, log)
		},
		fx.As(new(inbound.RecipeService)),
	),
	fx.Annotate(
		func(
			tx outbound.TxManager,
			users outbound.UserRepository,
			recipes outbound.RecipeRepository,
			recipeSvc inbound.RecipeService,
			bus outbound.EventBus,
			cfg *config.Config,
			log *zap.Logger,
		) *user.UserService {
			return user.NewUserService(tx, users, recipes, recipeSvc, bus, cfg.Session.BCryptCost, log)
		},
		fx.As(new(inbound.UserService)),
	),
	fx.Annotate(taxonomyApp.NewService, fx.As(new(inbound.TaxonomyService))),
	fx.Annotate(engagementApp.NewVoteService, fx.As(new(inbound.VoteService))),
	fx.Annotate(engagementApp.NewCommentService, fx.As(new(inbound.CommentService))),
	fx.Annotate(engagementApp.NewFavoriteService, fx.As(new(inbound.FavoriteService))),
)

// ObservabilityModule provides metrics, tracing and health checks
var ObservabilityModule = fx.Provide(
	func(log *zap.Logger, sqlDB *sql.DB) *monitoring.Metrics {
		m := monitoring.NewMetrics(log)
		if err := m.RegisterDB(sqlDB, "primary"); err != nil {
			log.Warn("Failed to register database metrics", zap.Error(err))
		}
		return m
	},
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.Tracing, error) {
		t, err := monitoring.NewTracing(context.Background(), cfg, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: t.Shutdown})
		return t, nil
	},
	func(cfg *config.Config, log *zap.Logger, sqlDB *sql.DB) *healthcheck.HealthCheck {
		h := healthcheck.New(cfg.App.Version, log)
		driver := cfg.Database.Driver
		if driver == "" {
			driver = "sqlite"
		}
		h.Register("database", healthcheck.NewDatabaseChecker(sqlDB, driver))
		return h
	},
)

// SessionModule provides the session store and manager
var SessionModule = fx.Provide(
	NewSessionStore,
	session.NewManager,
	func(m *session.Manager) handlers.SessionManager { return m },
	func(m *session.Manager) middleware.SessionResolver { return m },
)

// NewSessionStore picks the in-memory store or Redis. The Redis client is
// also registered as a health dependency.
func NewSessionStore(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, health *healthcheck.HealthCheck) (outbound.SessionStore, error) {
	switch cfg.Session.Store {
	case "redis":
		client, err := session.NewRedisClient(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return client.Close() }})
		health.Register("redis", healthcheck.NewRedisChecker(client))
		return session.NewRedisStore(client, log), nil

	case "memory", "":
		store := session.NewMemoryStore(cfg.Session.SweepInterval, log)
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				store.Start()
				return nil
			},
			OnStop: func(context.Context) error {
				store.Stop()
				return nil
			},
		})
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported session store %q", cfg.Session.Store)
	}
}

// HTTPModule provides the handlers, middleware and server
var HTTPModule = fx.Provide(
	handlers.NewValidator,
	handlers.NewAuthHandlers,
	handlers.NewRecipeHandlers,
	handlers.NewEngagementHandlers,
	handlers.NewUserHandlers,
	handlers.NewTaxonomyHandlers,
	func(
		auth *handlers.AuthHandlers,
		recipes *handlers.RecipeHandlers,
		engagement *handlers.EngagementHandlers,
		users *handlers.UserHandlers,
		taxonomy *handlers.TaxonomyHandlers,
	) apiserver.Handlers {
		return apiserver.Handlers{
			Auth:       auth,
			Recipes:    recipes,
			Engagement: engagement,
			Users:      users,
			Taxonomy:   taxonomy,
		}
	},
	middleware.New,
	apiserver.NewServer,
)

// LifecycleModule starts and stops the HTTP server
var LifecycleModule = fx.Invoke(RegisterLifecycleHooks)

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	server *apiserver.Server,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting RecipeAtlas",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("database", cfg.Database.Driver),
				zap.String("session_store", cfg.Session.Store),
			)

			go func() {
				if err := server.Start(); err != nil {
					log.Error("HTTP server failed", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down RecipeAtlas")

			if err := server.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}
			_ = log.Sync()
			return nil
		},
	})
}
