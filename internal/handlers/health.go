package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/marcogenualdo/cas-switch/internal/config"
	"github.com/marcogenualdo/cas-switch/internal/store"
)

type HealthHandler struct {
	cfg       *config.Config
	store     store.Store
	logger    *slog.Logger
	startTime time.Time
}

func NewHealthHandler(cfg *config.Config, sessions store.Store, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		cfg:       cfg,
		store:     sessions,
		logger:    logger,
		startTime: time.Now(),
	}
}

type HealthResponse struct {
	Status  string      `json:"status"`
	Uptime  string      `json:"uptime"`
	Store   StoreHealth `json:"store"`
	Backend ProbeHealth `json:"backend"`
	CAS     ProbeHealth `json:"cas"`
}

type StoreHealth struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

type ProbeHealth struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status: "healthy",
		Uptime: time.Since(h.startTime).String(),
	}

	response.Store.Type = h.cfg.Cache.Type
	if err := h.store.Ping(ctx); err != nil {
		response.Store.Status = "error: " + err.Error()
		response.Status = "degraded"
	} else {
		response.Store.Status = "connected"
	}

	response.Backend = probe(ctx, h.cfg.Backend.URL)
	if response.Backend.Status == "unreachable" {
		response.Status = "degraded"
	}

	response.CAS = probe(ctx, h.cfg.CAS.ServerURL)
	if response.CAS.Status == "unreachable" {
		response.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	if response.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(response)
}

func probe(ctx context.Context, rawURL string) ProbeHealth {
	health := ProbeHealth{URL: rawURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		health.Status = "unreachable"
		return health
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		health.Status = "unreachable"
		return health
	}
	resp.Body.Close()

	health.Status = "reachable"
	return health
}
