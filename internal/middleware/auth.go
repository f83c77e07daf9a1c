package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/securecookie"

	"github.com/marcogenualdo/cas-switch/internal/auth"
	"github.com/marcogenualdo/cas-switch/internal/config"
	"github.com/marcogenualdo/cas-switch/internal/store"
	"github.com/marcogenualdo/cas-switch/pkg/security"
)

type contextKey string

const SessionContextKey contextKey = "session"

// AuthMiddleware guards proxied routes: a request reaches the backend only
// with a stored session that carries a validated username. Everything else
// is bounced to the login route, which restarts the CAS dance.
type AuthMiddleware struct {
	cfg       *config.Config
	store     store.Store
	codec     *securecookie.SecureCookie
	loginPath string
	logger    *slog.Logger
}

func NewAuthMiddleware(cfg *config.Config, sessions store.Store, codec *securecookie.SecureCookie, loginPath string, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		cfg:       cfg,
		store:     sessions,
		codec:     codec,
		loginPath: loginPath,
		logger:    logger,
	}
}

func (am *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := security.SessionID(r, am.cfg.Server, am.codec)
		if err != nil {
			am.logger.Debug("no valid session cookie", "path", r.URL.Path)
			http.Redirect(w, r, am.loginPath, http.StatusFound)
			return
		}

		session, err := am.store.Load(r.Context(), sessionID)
		if err != nil {
			am.logger.Debug("session not found in store", "session_id", sessionID)
			http.Redirect(w, r, am.loginPath, http.StatusFound)
			return
		}

		if _, ok := session.GetString(am.cfg.CAS.UsernameSessionKey); !ok {
			am.logger.Debug("session has no identity", "session_id", sessionID)
			http.Redirect(w, r, am.loginPath, http.StatusFound)
			return
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetSession(ctx context.Context) (*auth.Session, bool) {
	session, ok := ctx.Value(SessionContextKey).(*auth.Session)
	return session, ok
}
