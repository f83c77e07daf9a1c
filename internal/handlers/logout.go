package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/securecookie"

	"github.com/marcogenualdo/cas-switch/internal/cas"
	"github.com/marcogenualdo/cas-switch/internal/config"
	"github.com/marcogenualdo/cas-switch/internal/store"
	"github.com/marcogenualdo/cas-switch/pkg/security"
)

// LogoutHandler drops the stored session and sends the user to the CAS
// logout page, optionally with a configured return URL.
type LogoutHandler struct {
	cfg    *config.Config
	store  store.Store
	cas    *cas.Client
	codec  *securecookie.SecureCookie
	logger *slog.Logger
}

func NewLogoutHandler(cfg *config.Config, sessions store.Store, client *cas.Client, codec *securecookie.SecureCookie, logger *slog.Logger) *LogoutHandler {
	return &LogoutHandler{
		cfg:    cfg,
		store:  sessions,
		cas:    client,
		codec:  codec,
		logger: logger,
	}
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if id, err := security.SessionID(r, h.cfg.Server, h.codec); err == nil {
		if err := h.store.Delete(r.Context(), id); err != nil {
			h.logger.Warn("failed to delete session", "error", err)
		}
	}

	http.SetCookie(w, security.ClearSessionCookie(h.cfg.Server))

	redirectURL, err := h.cas.LogoutURL(h.cfg.CAS.LogoutReturnURL)
	if err != nil {
		h.logger.Error("failed to build CAS logout URL", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("user logged out")
	h.logger.Debug("redirecting", "url", redirectURL)
	http.Redirect(w, r, redirectURL, http.StatusFound)
}
