// Package middleware provides chi-compatible HTTP middleware
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/recipeatlas/server/internal/infrastructure/config"
	"github.com/recipeatlas/server/internal/infrastructure/http/respond"
	"github.com/recipeatlas/server/internal/infrastructure/monitoring"
	"github.com/recipeatlas/server/pkg/errors"
	"go.uber.org/zap"
)

// SessionResolver maps a request cookie to a user id
type SessionResolver interface {
	UserID(ctx context.Context, r *http.Request) (uint, bool, error)
}

// Middleware provides all middleware functions
type Middleware struct {
	config   *config.Config
	logger   *zap.Logger
	sessions SessionResolver
	metrics  *monitoring.Metrics
	limiter  *IPLimiter
}

// New creates a middleware set. metrics may be nil.
func New(cfg *config.Config, logger *zap.Logger, sessions SessionResolver, metrics *monitoring.Metrics) *Middleware {
	return &Middleware{
		config:   cfg,
		logger:   logger.Named("http"),
		sessions: sessions,
		metrics:  metrics,
		limiter:  NewIPLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize, cfg.RateLimit.CleanupInterval),
	}
}

// LoadSession resolves the session cookie into a RequestContext. A broken
// session store degrades to anonymous access.
func (m *Middleware) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var rc RequestContext

		userID, ok, err := m.sessions.UserID(r.Context(), r)
		if err != nil {
			m.logger.Warn("Session lookup failed",
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
				zap.Error(err),
			)
		} else if ok {
			rc.UserID = &userID
		}

		next.ServeHTTP(w, r.WithContext(WithRequestContext(r.Context(), rc)))
	})
}

// RequireAuth rejects anonymous requests with 401
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := Actor(r); !ok {
			respond.Error(w, r, m.logger, errors.NewUnauthorizedError("Authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Logger writes one access log line per request
func (m *Middleware) Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
		}
		if id, ok := Actor(r); ok {
			fields = append(fields, zap.Uint("user_id", id))
		}
		if traceID := monitoring.TraceID(r.Context()); traceID != "" {
			fields = append(fields, zap.String("trace_id", traceID))
		}

		switch {
		case ww.Status() >= 500:
			m.logger.Error("HTTP request", fields...)
		case ww.Status() >= 400:
			m.logger.Warn("HTTP request", fields...)
		default:
			m.logger.Info("HTTP request", fields...)
		}
	})
}

// Recovery turns a panic into a 500 error envelope
func (m *Middleware) Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				m.logger.Error("Panic recovered",
					zap.Any("panic", rec),
					zap.String("request_id", chimiddleware.GetReqID(r.Context())),
					zap.ByteString("stack", debug.Stack()),
				)
				respond.Error(w, r, m.logger, fmt.Errorf("panic: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Metrics records request counts and latency by route pattern
func (m *Middleware) Metrics(next http.Handler) http.Handler {
	if m.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		m.metrics.RequestStarted()
		next.ServeHTTP(ww, r)

		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		m.metrics.RequestFinished(r.Method, route, ww.Status(), time.Since(start))
	})
}

// RateLimit throttles requests per client IP. Mount it on the credential
// endpoints behind chi's RealIP.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	if !m.config.RateLimit.Enable {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.limiter.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			respond.Error(w, r, m.logger, errors.NewTooManyRequestsError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CORS answers preflight requests and echoes allowed origins. Credentials
// are allowed so the session cookie travels cross-origin.
func (m *Middleware) CORS(next http.Handler) http.Handler {
	if !m.config.Server.EnableCORS {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && m.isOriginAllowed(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Max-Age", "86400")
			h.Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) isOriginAllowed(origin string) bool {
	if m.config.IsDevelopment() && len(m.config.Server.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range m.config.Server.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// Security adds security headers for API responses
func (m *Middleware) Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cache-Control", "no-store")
		if r.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// JSONBody caps request bodies and rejects writes that are not JSON
func (m *Middleware) JSONBody(next http.Handler) http.Handler {
	limit := m.config.Server.MaxBodyBytes
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if r.ContentLength != 0 {
				ct := r.Header.Get("Content-Type")
				if ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
					respond.Error(w, r, m.logger, errors.NewValidationError("Content-Type must be application/json"))
					return
				}
			}
		}
		if limit > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next.ServeHTTP(w, r)
	})
}
