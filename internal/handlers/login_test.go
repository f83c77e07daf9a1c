package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcogenualdo/cas-switch/internal/auth"
	"github.com/marcogenualdo/cas-switch/internal/cas"
	"github.com/marcogenualdo/cas-switch/internal/config"
	"github.com/marcogenualdo/cas-switch/internal/store"
	"github.com/marcogenualdo/cas-switch/pkg/security"
)

const (
	v2SuccessXML = `
		<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas">
		  <cas:authenticationSuccess>
		    <cas:user>bob</cas:user>
		  </cas:authenticationSuccess>
		</cas:serviceResponse>`

	v2FailureXML = `
		<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas">
		  <cas:authenticationFailure code="INVALID_TICKET">
		    Ticket ST-1856339-aA5Yuvrxzpv8Tau1cYQ7 not recognized
		  </cas:authenticationFailure>
		</cas:serviceResponse>`

	v3SuccessXML = `
		<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas">
		  <cas:authenticationSuccess>
		    <cas:user>bob</cas:user>
		    <cas:attributes>
		      <cas:email>bob@example.org</cas:email>
		      <cas:affiliation>staff</cas:affiliation>
		      <cas:affiliation>faculty</cas:affiliation>
		    </cas:attributes>
		  </cas:authenticationSuccess>
		</cas:serviceResponse>`
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(casServerURL, casVersion string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			BaseURL:        "http://localhost:5000",
			CookieName:     "cas-switch-session",
			CookieSameSite: "lax",
			CookieSecret:   "test-secret",
			SessionTTL:     time.Hour,
		},
		CAS: config.CASConfig{
			ServerURL:            casServerURL,
			RoutePrefix:          "cas",
			Version:              casVersion,
			AfterLogin:           "/",
			LogoutReturnURL:      "http://example.com",
			TokenSessionKey:      "_CAS_TOKEN",
			UsernameSessionKey:   "CAS_USERNAME",
			AttributesSessionKey: "CAS_ATTRIBUTES",
			Timeout:              5 * time.Second,
		},
	}
}

func newLoginHandler(t *testing.T, casBody string, casVersion string) (*LoginHandler, *config.Config, store.Store) {
	t.Helper()

	casServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(casBody))
	}))
	t.Cleanup(casServer.Close)

	cfg := testConfig(casServer.URL, casVersion)
	sessions := store.NewMemoryStore()
	t.Cleanup(func() { sessions.Close() })

	client, err := cas.NewClient(cas.ClientConfig{
		ServerURL:   cfg.CAS.ServerURL,
		RoutePrefix: cfg.CAS.RoutePrefix,
		Version:     cfg.CAS.Version,
		Timeout:     cfg.CAS.Timeout,
	}, testLogger())
	require.NoError(t, err)

	codec := security.NewCookieCodec(cfg.Server.CookieSecret)
	handler := NewLoginHandler(cfg, sessions, client, codec, testLogger())
	return handler, cfg, sessions
}

// sessionFromResponse follows the session cookie set on the response back
// into the store.
func sessionFromResponse(t *testing.T, cfg *config.Config, sessions store.Store, rec *httptest.ResponseRecorder) *auth.Session {
	t.Helper()

	codec := security.NewCookieCodec(cfg.Server.CookieSecret)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range rec.Result().Cookies() {
		req.AddCookie(cookie)
	}

	id, err := security.SessionID(req, cfg.Server, codec)
	require.NoError(t, err)

	session, err := sessions.Load(context.Background(), id)
	require.NoError(t, err)
	return session
}

func TestLoginWithoutTicketRedirectsToCAS(t *testing.T) {
	handler, cfg, _ := newLoginHandler(t, v2SuccessXML, "2")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	require.Equal(t, http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/cas/login", location.Path)
	assert.Equal(t, CallbackURL(cfg.Server), location.Query().Get("service"))
}

func TestLoginWithValidTicket(t *testing.T) {
	handler, cfg, sessions := newLoginHandler(t, v2SuccessXML, "2")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login?ticket=ST-12345", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, cfg.CAS.AfterLogin, rec.Header().Get("Location"))

	session := sessionFromResponse(t, cfg, sessions, rec)
	username, ok := session.GetString(cfg.CAS.UsernameSessionKey)
	require.True(t, ok)
	assert.Equal(t, "bob", username)

	token, ok := session.GetString(cfg.CAS.TokenSessionKey)
	require.True(t, ok)
	assert.Equal(t, "ST-12345", token)
}

func TestLoginWithValidTicketStoresAttributes(t *testing.T) {
	handler, cfg, sessions := newLoginHandler(t, v3SuccessXML, "3")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login?ticket=ST-12345", nil))

	require.Equal(t, http.StatusFound, rec.Code)

	session := sessionFromResponse(t, cfg, sessions, rec)
	attributes, ok := session.Get(cfg.CAS.AttributesSessionKey)
	require.True(t, ok)

	// the session store round-trips through JSON, so folded slices come
	// back as []any
	attrMap, ok := attributes.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "bob@example.org", attrMap["email"])
	assert.Equal(t, []any{"staff", "faculty"}, attrMap["affiliation"])
}

func TestLoginWithInvalidTicketWritesNoIdentity(t *testing.T) {
	handler, cfg, sessions := newLoginHandler(t, v2FailureXML, "2")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login?ticket=ST-bogus", nil))

	require.Equal(t, http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/cas/login", location.Path, "failed validation redirects back to the CAS login page")

	session := sessionFromResponse(t, cfg, sessions, rec)
	_, hasUsername := session.Get(cfg.CAS.UsernameSessionKey)
	assert.False(t, hasUsername)
	_, hasToken := session.Get(cfg.CAS.TokenSessionKey)
	assert.False(t, hasToken, "rejected ticket is removed from the session")
	_, hasAttributes := session.Get(cfg.CAS.AttributesSessionKey)
	assert.False(t, hasAttributes)
}

func TestLoginReusesStoredTicket(t *testing.T) {
	handler, cfg, sessions := newLoginHandler(t, v2SuccessXML, "2")

	// first request stores the ticket and logs in
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login?ticket=ST-12345", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	// second request without a ticket rides the stored session
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	for _, cookie := range rec.Result().Cookies() {
		req.AddCookie(cookie)
	}
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)

	require.Equal(t, http.StatusFound, rec2.Code)
	assert.Equal(t, cfg.CAS.AfterLogin, rec2.Header().Get("Location"))

	session := sessionFromResponse(t, cfg, sessions, rec2)
	username, ok := session.GetString(cfg.CAS.UsernameSessionKey)
	require.True(t, ok)
	assert.Equal(t, "bob", username)
}

func TestCallbackURL(t *testing.T) {
	assert.Equal(t, "http://localhost:5000/login",
		CallbackURL(config.ServerConfig{BaseURL: "http://localhost:5000"}))
	assert.Equal(t, "http://localhost:5000/login",
		CallbackURL(config.ServerConfig{BaseURL: "http://localhost:5000/"}))
}
