package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/recipeatlas/server/internal/infrastructure/config"
	"github.com/recipeatlas/server/internal/ports/outbound"
	"go.uber.org/zap"
)

// Manager ties the session store to the HTTP cookie
type Manager struct {
	store      outbound.SessionStore
	codec      *Codec
	cookieName string
	ttl        time.Duration
	secure     bool
	logger     *zap.Logger
}

// NewManager builds a manager from the session config section
func NewManager(store outbound.SessionStore, cfg *config.Config, logger *zap.Logger) *Manager {
	ttl := cfg.Session.TTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	name := cfg.Session.CookieName
	if name == "" {
		name = "recipeatlas_session"
	}
	return &Manager{
		store:      store,
		codec:      NewCodec(cfg.SessionSecret()),
		cookieName: name,
		ttl:        ttl,
		secure:     cfg.Session.Secure,
		logger:     logger.Named("session"),
	}
}

// Login opens a session for userID and writes the cookie
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, userID uint) error {
	id, err := m.store.Create(ctx, userID, m.ttl)
	if err != nil {
		return err
	}
	token, err := m.codec.Encode(id, m.ttl)
	if err != nil {
		_ = m.store.Delete(ctx, id)
		return err
	}

	http.SetCookie(w, m.cookie(token, m.ttl))
	return nil
}

// Logout deletes the session behind the request cookie, if any, and
// expires the cookie
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	defer http.SetCookie(w, m.cookie("", -1))

	id, ok := m.sessionID(r)
	if !ok {
		return nil
	}
	return m.store.Delete(ctx, id)
}

// UserID resolves the request cookie to a user id. It returns false for
// anonymous requests and for stale or forged cookies.
func (m *Manager) UserID(ctx context.Context, r *http.Request) (uint, bool, error) {
	id, ok := m.sessionID(r)
	if !ok {
		return 0, false, nil
	}

	userID, err := m.store.Get(ctx, id)
	if errors.Is(err, outbound.ErrSessionNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return userID, true, nil
}

func (m *Manager) sessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	id, err := m.codec.Decode(c.Value)
	if err != nil {
		m.logger.Debug("Rejected session cookie", zap.Error(err))
		return "", false
	}
	return id, true
}

func (m *Manager) cookie(value string, ttl time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	} else {
		c.MaxAge = int(ttl.Seconds())
		c.Expires = time.Now().Add(ttl)
	}
	return c
}
