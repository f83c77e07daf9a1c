package server

import (
	"net/http"

	"github.com/marcogenualdo/cas-switch/internal/handlers"
	"github.com/marcogenualdo/cas-switch/internal/middleware"
	"github.com/marcogenualdo/cas-switch/internal/proxy"
	"github.com/marcogenualdo/cas-switch/pkg/security"
)

func (s *Server) setupRoutes() (http.Handler, error) {
	mux := http.NewServeMux()

	codec := security.NewCookieCodec(s.cfg.Server.CookieSecret)

	authMiddleware := middleware.NewAuthMiddleware(s.cfg, s.store, codec, handlers.LoginPath, s.logger)

	loginHandler := handlers.NewLoginHandler(s.cfg, s.store, s.cas, codec, s.logger)
	logoutHandler := handlers.NewLogoutHandler(s.cfg, s.store, s.cas, codec, s.logger)
	healthHandler := handlers.NewHealthHandler(s.cfg, s.store, s.logger)

	reverseProxy, err := proxy.NewReverseProxy(s.cfg, s.logger)
	if err != nil {
		return nil, err
	}

	mux.Handle(handlers.LoginPath, loginHandler)
	mux.Handle("/logout", logoutHandler)
	mux.Handle("/health", healthHandler)

	mux.Handle("/", authMiddleware.RequireAuth(reverseProxy))

	handler := middleware.Recovery(s.logger)(
		middleware.Logging(s.logger)(
			addSecurityHeaders(mux),
		),
	)

	return handler, nil
}

func addSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
