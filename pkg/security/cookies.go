// Package security handles the signed session cookie.
package security

import (
	"crypto/sha256"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/marcogenualdo/cas-switch/internal/config"
)

// NewCookieCodec builds the signer for session cookies. The configured
// secret is stretched to a 32-byte hash key; cookies are signed but not
// encrypted, since they carry only a random session ID.
func NewCookieCodec(secret string) *securecookie.SecureCookie {
	hashKey := sha256.Sum256([]byte(secret))
	return securecookie.New(hashKey[:], nil)
}

func CreateSessionCookie(cfg config.ServerConfig, codec *securecookie.SecureCookie, sessionID string, maxAge time.Duration) (*http.Cookie, error) {
	value, err := codec.Encode(cfg.CookieName, sessionID)
	if err != nil {
		return nil, err
	}

	sameSite := http.SameSiteLaxMode
	switch strings.ToLower(cfg.CookieSameSite) {
	case "strict":
		sameSite = http.SameSiteStrictMode
	case "none":
		sameSite = http.SameSiteNoneMode
	}

	return &http.Cookie{
		Name:     cfg.CookieName,
		Value:    value,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   int(maxAge.Seconds()),
		Secure:   cfg.CookieSecure,
		HttpOnly: true,
		SameSite: sameSite,
	}, nil
}

func ClearSessionCookie(cfg config.ServerConfig) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   -1,
		Secure:   cfg.CookieSecure,
		HttpOnly: true,
	}
}

// SessionID extracts and verifies the session ID from the request cookie.
func SessionID(r *http.Request, cfg config.ServerConfig, codec *securecookie.SecureCookie) (string, error) {
	cookie, err := r.Cookie(cfg.CookieName)
	if err != nil {
		return "", err
	}

	var sessionID string
	if err := codec.Decode(cfg.CookieName, cookie.Value, &sessionID); err != nil {
		return "", err
	}
	return sessionID, nil
}
