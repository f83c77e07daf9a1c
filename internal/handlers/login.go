// Package handlers implements the gateway's own routes: the CAS login
// callback dance, logout and health.
package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"

	"github.com/marcogenualdo/cas-switch/internal/auth"
	"github.com/marcogenualdo/cas-switch/internal/cas"
	"github.com/marcogenualdo/cas-switch/internal/config"
	"github.com/marcogenualdo/cas-switch/internal/store"
	"github.com/marcogenualdo/cas-switch/pkg/security"
)

// LoginPath is the route serving both user-initiated logins and the CAS
// server's ticket callback.
const LoginPath = "/login"

// LoginHandler drives the CAS redirect dance. A request without a ticket
// sends the user to the CAS login page with this route as the service URL;
// the CAS server then redirects back here with a ticket, which is
// validated and, if good, turned into session identity.
type LoginHandler struct {
	cfg    *config.Config
	store  store.Store
	cas    *cas.Client
	codec  *securecookie.SecureCookie
	logger *slog.Logger
}

func NewLoginHandler(cfg *config.Config, sessions store.Store, client *cas.Client, codec *securecookie.SecureCookie, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{
		cfg:    cfg,
		store:  sessions,
		cas:    client,
		codec:  codec,
		logger: logger,
	}
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := h.loadOrCreateSession(r)
	serviceURL := CallbackURL(h.cfg.Server)

	redirectURL, err := h.cas.LoginURL(serviceURL)
	if err != nil {
		h.logger.Error("failed to build CAS login URL", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if ticket := r.URL.Query().Get("ticket"); ticket != "" {
		session.Set(h.cfg.CAS.TokenSessionKey, ticket)
	}

	if ticket, ok := session.GetString(h.cfg.CAS.TokenSessionKey); ok {
		result, err := h.cas.ValidateTicket(ctx, ticket, serviceURL)
		if err != nil {
			h.logger.Error("ticket validation misconfigured", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if result.Valid {
			session.Set(h.cfg.CAS.UsernameSessionKey, result.Username)
			if result.Attributes != nil {
				session.Set(h.cfg.CAS.AttributesSessionKey, result.Attributes)
			}
			redirectURL = h.cfg.CAS.AfterLogin
			h.logger.Info("login successful", "username", result.Username, "session_id", session.ID)
		} else {
			session.Delete(h.cfg.CAS.TokenSessionKey)
		}
	}

	if err := h.store.Save(ctx, session, h.cfg.Server.SessionTTL); err != nil {
		h.logger.Error("failed to save session", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	cookie, err := security.CreateSessionCookie(h.cfg.Server, h.codec, session.ID, h.cfg.Server.SessionTTL)
	if err != nil {
		h.logger.Error("failed to encode session cookie", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, cookie)

	h.logger.Debug("redirecting", "url", redirectURL)
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// loadOrCreateSession returns the caller's stored session, or a fresh one
// when the cookie is absent, unverifiable or expired out of the store.
func (h *LoginHandler) loadOrCreateSession(r *http.Request) *auth.Session {
	if id, err := security.SessionID(r, h.cfg.Server, h.codec); err == nil {
		if session, err := h.store.Load(r.Context(), id); err == nil {
			return session
		}
	}
	return auth.New(uuid.New().String(), h.cfg.Server.SessionTTL)
}

// CallbackURL is the absolute URL of the login route, handed to the CAS
// server as the service parameter so ticket issuance and validation agree
// on the same URL.
func CallbackURL(cfg config.ServerConfig) string {
	return strings.TrimRight(cfg.BaseURL, "/") + LoginPath
}
