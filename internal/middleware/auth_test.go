package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcogenualdo/cas-switch/internal/auth"
	"github.com/marcogenualdo/cas-switch/internal/config"
	"github.com/marcogenualdo/cas-switch/internal/store"
	"github.com/marcogenualdo/cas-switch/pkg/security"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func authFixture(t *testing.T) (*AuthMiddleware, *config.Config, store.Store) {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			CookieName:     "cas-switch-session",
			CookieSameSite: "lax",
			CookieSecret:   "test-secret",
			SessionTTL:     time.Hour,
		},
		CAS: config.CASConfig{
			UsernameSessionKey: "CAS_USERNAME",
		},
	}

	sessions := store.NewMemoryStore()
	t.Cleanup(func() { sessions.Close() })

	codec := security.NewCookieCodec(cfg.Server.CookieSecret)
	return NewAuthMiddleware(cfg, sessions, codec, "/login", testLogger()), cfg, sessions
}

func nextHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		session, ok := GetSession(r.Context())
		if ok {
			w.Header().Set("X-Session-ID", session.ID)
		}
	})
}

func TestRequireAuthWithoutCookieRedirects(t *testing.T) {
	middleware, _, _ := authFixture(t)

	var called bool
	rec := httptest.NewRecorder()
	middleware.RequireAuth(nextHandler(&called)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.False(t, called)
}

func TestRequireAuthWithIdentityPassesThrough(t *testing.T) {
	middleware, cfg, sessions := authFixture(t)

	session := auth.New("session-1", time.Hour)
	session.Set(cfg.CAS.UsernameSessionKey, "bob")
	require.NoError(t, sessions.Save(context.Background(), session, time.Hour))

	codec := security.NewCookieCodec(cfg.Server.CookieSecret)
	cookie, err := security.CreateSessionCookie(cfg.Server, codec, session.ID, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	var called bool
	rec := httptest.NewRecorder()
	middleware.RequireAuth(nextHandler(&called)).ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, "session-1", rec.Header().Get("X-Session-ID"))
}

func TestRequireAuthWithoutIdentityRedirects(t *testing.T) {
	middleware, cfg, sessions := authFixture(t)

	// session exists but the CAS dance never completed
	session := auth.New("session-1", time.Hour)
	require.NoError(t, sessions.Save(context.Background(), session, time.Hour))

	codec := security.NewCookieCodec(cfg.Server.CookieSecret)
	cookie, err := security.CreateSessionCookie(cfg.Server, codec, session.ID, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	var called bool
	rec := httptest.NewRecorder()
	middleware.RequireAuth(nextHandler(&called)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.False(t, called)
}

func TestRequireAuthWithUnknownSessionRedirects(t *testing.T) {
	middleware, cfg, _ := authFixture(t)

	codec := security.NewCookieCodec(cfg.Server.CookieSecret)
	cookie, err := security.CreateSessionCookie(cfg.Server, codec, "expired", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	var called bool
	rec := httptest.NewRecorder()
	middleware.RequireAuth(nextHandler(&called)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.False(t, called)
}
