package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gorilla/securecookie"

	"github.com/marcogenualdo/cas-switch/internal/cas"
	"github.com/marcogenualdo/cas-switch/internal/config"
	"github.com/marcogenualdo/cas-switch/internal/server"
	"github.com/marcogenualdo/cas-switch/internal/store"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "/etc/cas-switch/config.yaml", "path to configuration file")
	configPathShort := flag.String("c", "/etc/cas-switch/config.yaml", "path to configuration file (short)")
	showVersion := flag.Bool("version", false, "show version and exit")
	showHelp := flag.Bool("help", false, "show help and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("cas-switch v%s\n", version)
		os.Exit(0)
	}

	if *showHelp {
		fmt.Println("cas-switch - CAS authenticating reverse proxy")
		fmt.Println("\nUsage:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfgPath := *configPath
	if *configPathShort != "/etc/cas-switch/config.yaml" {
		cfgPath = *configPathShort
	}

	if err := run(cfgPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	logger.Info("starting cas-switch", "version", version)

	if cfg.Server.CookieSecret == "" {
		// sessions will not survive a restart without a configured secret
		cfg.Server.CookieSecret = base64.RawStdEncoding.EncodeToString(securecookie.GenerateRandomKey(32))
		logger.Warn("cookie_secret not configured, generated a transient one")
	}

	sessions, err := store.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to create session store: %w", err)
	}
	logger.Info("session store initialized", "type", cfg.Cache.Type)

	client, err := cas.NewClient(cas.ClientConfig{
		ServerURL:   cfg.CAS.ServerURL,
		RoutePrefix: cfg.CAS.RoutePrefix,
		Version:     cfg.CAS.Version,
		Timeout:     cfg.CAS.Timeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create CAS client: %w", err)
	}
	logger.Info("CAS client initialized",
		"server", cfg.CAS.ServerURL,
		"route_prefix", cfg.CAS.RoutePrefix,
		"version", cfg.CAS.Version,
	)

	srv, err := server.New(cfg, sessions, client, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
