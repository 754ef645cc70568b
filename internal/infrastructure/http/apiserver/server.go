// Package apiserver provides the JSON API HTTP server
package apiserver

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/recipeatlas/server/internal/domain/engagement"
	"github.com/recipeatlas/server/internal/infrastructure/config"
	"github.com/recipeatlas/server/internal/infrastructure/http/handlers"
	"github.com/recipeatlas/server/internal/infrastructure/http/middleware"
	"github.com/recipeatlas/server/internal/infrastructure/http/respond"
	"github.com/recipeatlas/server/internal/infrastructure/monitoring"
	"github.com/recipeatlas/server/pkg/errors"
	"github.com/recipeatlas/server/pkg/healthcheck"
	"go.uber.org/zap"
)

// Handlers bundles the route handlers mounted under /api
type Handlers struct {
	Auth       *handlers.AuthHandlers
	Recipes    *handlers.RecipeHandlers
	Engagement *handlers.EngagementHandlers
	Users      *handlers.UserHandlers
	Taxonomy   *handlers.TaxonomyHandlers
}

// Server is the JSON API HTTP server
type Server struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	router   *chi.Mux
	handlers Handlers
	mw       *middleware.Middleware
	metrics  *monitoring.Metrics
	tracing  *monitoring.Tracing
	health   *healthcheck.HealthCheck
	openAPI  *OpenAPIHandler
}

// NewServer creates the server and its router
func NewServer(
	cfg *config.Config,
	log *zap.Logger,
	h Handlers,
	mw *middleware.Middleware,
	metrics *monitoring.Metrics,
	tracing *monitoring.Tracing,
	health *healthcheck.HealthCheck,
) *Server {
	s := &Server{
		config:   cfg,
		logger:   log,
		handlers: h,
		mw:       mw,
		metrics:  metrics,
		tracing:  tracing,
		health:   health,
		openAPI:  NewOpenAPIHandler(log),
	}

	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:           net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.Server.Port)),
		Handler:        s.router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return s
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.mw.Logger)
	r.Use(s.mw.Recovery)
	if s.metrics != nil {
		r.Use(s.mw.Metrics)
	}
	r.Use(s.mw.Security)
	if s.config.Server.EnableCORS {
		r.Use(s.mw.CORS)
	}
	if s.config.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(s.config.Server.RequestTimeout))
	}
	if s.config.Server.EnableCompression {
		r.Use(chimiddleware.Compress(5, "application/json"))
	}
	if s.tracing != nil && s.tracing.Enabled() {
		r.Use(s.tracing.Middleware("http.server"))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, r, s.logger, errors.NewNotFoundError(""))
	})

	r.Get(s.healthPath(), s.health.Handler())
	r.Get(s.healthPath()+"/live", s.health.LivenessHandler())
	if s.metrics != nil && s.config.Monitoring.EnableMetrics {
		r.Handle(s.metricsPath(), s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.mw.JSONBody)
		r.Use(s.mw.LoadSession)

		r.Get("/openapi.yaml", s.openAPI.ServeYAML)
		r.Get("/openapi.json", s.openAPI.ServeJSON)

		s.authRoutes(r)
		s.recipeRoutes(r)
		s.engagementRoutes(r)
		s.userRoutes(r)
		s.taxonomyRoutes(r)
	})

	return r
}

func (s *Server) authRoutes(r chi.Router) {
	h := s.handlers.Auth

	r.Group(func(r chi.Router) {
		if s.config.RateLimit.Enable {
			r.Use(s.mw.RateLimit)
		}
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})
	r.With(s.mw.RequireAuth).Post("/logout", h.Logout)
	r.Get("/auth/status", h.Status)
}

func (s *Server) recipeRoutes(r chi.Router) {
	h := s.handlers.Recipes

	r.Get("/home", h.Home)
	r.Get("/nav", h.Nav)
	r.Get("/search", h.Search)

	r.Get("/recipes", h.List)
	r.Get("/recipes/popular", h.Popular)
	r.Get("/recipes/recent", h.Recent)
	r.Get("/recipes/slug/{slug}", h.GetBySlug)
	r.Get("/recipes/{id:[0-9]+}", h.Get)

	auth := r.With(s.mw.RequireAuth)
	auth.Post("/recipes", h.Create)
	auth.Put("/recipes/{id:[0-9]+}", h.Update)
	auth.Delete("/recipes/{id:[0-9]+}", h.Delete)
	auth.Get("/recipes/{id:[0-9]+}/edit", h.Edit)
}

func (s *Server) engagementRoutes(r chi.Router) {
	h := s.handlers.Engagement
	auth := r.With(s.mw.RequireAuth)

	r.Get("/recipes/{id:[0-9]+}/comments", h.ListComments)
	auth.Post("/recipes/{id:[0-9]+}/comments", h.AddComment)
	auth.Put("/comments/{id:[0-9]+}", h.UpdateComment)
	auth.Delete("/comments/{id:[0-9]+}", h.DeleteComment)
	r.Get("/comments/{id:[0-9]+}/replies", h.ListReplies)

	for _, kind := range []engagement.TargetKind{engagement.TargetRecipe, engagement.TargetComment} {
		prefix := "/" + string(kind) + "s/{id:[0-9]+}"
		auth.Post(prefix+"/upvote", h.Vote(kind, engagement.Upvote))
		auth.Post(prefix+"/downvote", h.Vote(kind, engagement.Downvote))
		auth.Post(prefix+"/remove-vote", h.RemoveVote(kind))
	}

	auth.Post("/favorites", h.AddFavorite)
	auth.Delete("/favorites/{id:[0-9]+}", h.RemoveFavorite)
	r.Get("/users/{username}/favorites", h.ListFavorites)
}

func (s *Server) userRoutes(r chi.Router) {
	h := s.handlers.Users
	auth := r.With(s.mw.RequireAuth)

	r.Get("/users/{username}", h.Profile)
	r.Get("/users/{username}/recipes", h.Recipes)
	auth.Put("/users/{username}", h.UpdateProfile)

	auth.Get("/user/profile", h.Me)
	auth.Put("/user/profile", h.UpdateMe)
	auth.Delete("/user/profile", h.DeleteMe)
}

func (s *Server) taxonomyRoutes(r chi.Router) {
	h := s.handlers.Taxonomy

	r.Get("/countries", h.ListCountries)
	r.Get("/countries/{id:[0-9]+}", h.GetCountry)
	r.Get("/countries/{id:[0-9]+}/states", h.CountryStates)
	r.Get("/countries/{id:[0-9]+}/recipes", h.CountryRecipes)

	r.Get("/states", h.ListStates)
	r.Get("/states/{id:[0-9]+}", h.GetState)
	r.Get("/states/{id:[0-9]+}/recipes", h.StateRecipes)
}

func (s *Server) healthPath() string {
	if p := s.config.Monitoring.HealthCheckPath; p != "" {
		return p
	}
	return "/health"
}

func (s *Server) metricsPath() string {
	if p := s.config.Monitoring.MetricsPath; p != "" {
		return p
	}
	return "/metrics"
}

// Start listens until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Handler returns the router, for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Server returns the underlying HTTP server instance
func (s *Server) Server() *http.Server {
	return s.server
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.server.Shutdown(ctx)
}
