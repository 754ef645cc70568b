package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/recipeatlas/server/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager() (*Manager, *MemoryStore) {
	cfg := &config.Config{}
	cfg.Session.CookieName = "sid"
	cfg.Session.Secret = "test-secret"
	cfg.Session.TTL = time.Hour

	store := NewMemoryStore(time.Minute, zap.NewNop())
	return NewManager(store, cfg, zap.NewNop()), store
}

func requestWith(cookies []*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

func TestManagerLoginThenResolve(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	w := httptest.NewRecorder()
	require.NoError(t, m.Login(ctx, w, 9))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	userID, ok, err := m.UserID(ctx, requestWith(cookies))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint(9), userID)
}

func TestManagerLogoutDeletesSession(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	w := httptest.NewRecorder()
	require.NoError(t, m.Login(ctx, w, 9))
	cookies := w.Result().Cookies()

	out := httptest.NewRecorder()
	require.NoError(t, m.Logout(ctx, out, requestWith(cookies)))
	assert.Equal(t, 0, store.Len())

	cleared := out.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)

	_, ok, err := m.UserID(ctx, requestWith(cookies))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManagerAnonymousAndForged(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	_, ok, err := m.UserID(ctx, requestWith(nil))
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = m.UserID(ctx, requestWith([]*http.Cookie{{Name: "sid", Value: "forged"}}))
	require.NoError(t, err)
	assert.False(t, ok)
}
