package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcogenualdo/cas-switch/internal/config"
)

func serverConfig() config.ServerConfig {
	return config.ServerConfig{
		CookieName:     "cas-switch-session",
		CookieSameSite: "lax",
	}
}

func TestSessionCookieRoundTrip(t *testing.T) {
	cfg := serverConfig()
	codec := NewCookieCodec("secret")

	cookie, err := CreateSessionCookie(cfg, codec, "session-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, cfg.CookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)
	assert.NotEqual(t, "session-1", cookie.Value, "session ID is not stored in the clear")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	id, err := SessionID(req, cfg, codec)
	require.NoError(t, err)
	assert.Equal(t, "session-1", id)
}

func TestSessionIDRejectsTamperedCookie(t *testing.T) {
	cfg := serverConfig()
	codec := NewCookieCodec("secret")

	cookie, err := CreateSessionCookie(cfg, codec, "session-1", time.Hour)
	require.NoError(t, err)
	cookie.Value = cookie.Value[:len(cookie.Value)-2] + "xx"

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	_, err = SessionID(req, cfg, codec)
	assert.Error(t, err)
}

func TestSessionIDRejectsForeignSecret(t *testing.T) {
	cfg := serverConfig()

	cookie, err := CreateSessionCookie(cfg, NewCookieCodec("one"), "session-1", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	_, err = SessionID(req, cfg, NewCookieCodec("two"))
	assert.Error(t, err)
}

func TestSessionIDWithoutCookie(t *testing.T) {
	_, err := SessionID(httptest.NewRequest(http.MethodGet, "/", nil), serverConfig(), NewCookieCodec("secret"))
	assert.Error(t, err)
}

func TestClearSessionCookie(t *testing.T) {
	cookie := ClearSessionCookie(serverConfig())
	assert.Equal(t, -1, cookie.MaxAge)
	assert.Empty(t, cookie.Value)
}
