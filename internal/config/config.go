package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	CAS     CASConfig     `yaml:"cas"`
	Backend BackendConfig `yaml:"backend"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	BaseURL        string        `yaml:"base_url"`
	CookieName     string        `yaml:"cookie_name"`
	CookieDomain   string        `yaml:"cookie_domain"`
	CookieSecure   bool          `yaml:"cookie_secure"`
	CookieSameSite string        `yaml:"cookie_same_site"`
	CookieSecret   string        `yaml:"cookie_secret"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
}

type CASConfig struct {
	ServerURL            string            `yaml:"server_url"`
	RoutePrefix          string            `yaml:"route_prefix"`
	Version              string            `yaml:"version"`
	AfterLogin           string            `yaml:"after_login"`
	LogoutReturnURL      string            `yaml:"logout_return_url"`
	TokenSessionKey      string            `yaml:"token_session_key"`
	UsernameSessionKey   string            `yaml:"username_session_key"`
	AttributesSessionKey string            `yaml:"attributes_session_key"`
	Timeout              time.Duration     `yaml:"timeout"`
	HeaderMappings       map[string]string `yaml:"header_mappings"`
}

type BackendConfig struct {
	URL          string        `yaml:"url"`
	Timeout      time.Duration `yaml:"timeout"`
	PreserveHost bool          `yaml:"preserve_host"`
}

type CacheConfig struct {
	Type  string       `yaml:"type"`
	Redis *RedisConfig `yaml:"redis,omitempty"`
}

type RedisConfig struct {
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	PoolSize   int    `yaml:"pool_size"`
	MaxRetries int    `yaml:"max_retries"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.setDefaults()
	cfg.loadSecretsFromEnv()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.CookieName == "" {
		c.Server.CookieName = "cas-switch-session"
	}
	if c.Server.CookieSameSite == "" {
		c.Server.CookieSameSite = "lax"
	}
	if c.Server.SessionTTL == 0 {
		c.Server.SessionTTL = 24 * time.Hour
	}

	if c.CAS.RoutePrefix == "" {
		c.CAS.RoutePrefix = "cas"
	}
	if c.CAS.Version == "" {
		c.CAS.Version = "2"
	}
	if c.CAS.AfterLogin == "" {
		c.CAS.AfterLogin = "/"
	}
	if c.CAS.TokenSessionKey == "" {
		c.CAS.TokenSessionKey = "CAS_TOKEN"
	}
	if c.CAS.UsernameSessionKey == "" {
		c.CAS.UsernameSessionKey = "CAS_USERNAME"
	}
	if c.CAS.AttributesSessionKey == "" {
		c.CAS.AttributesSessionKey = "CAS_ATTRIBUTES"
	}
	if c.CAS.Timeout == 0 {
		c.CAS.Timeout = 10 * time.Second
	}

	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 30 * time.Second
	}

	if c.Cache.Type == "" {
		c.Cache.Type = "memory"
	}
	if c.Cache.Type == "redis" && c.Cache.Redis != nil {
		if c.Cache.Redis.PoolSize == 0 {
			c.Cache.Redis.PoolSize = 10
		}
		if c.Cache.Redis.MaxRetries == 0 {
			c.Cache.Redis.MaxRetries = 3
		}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

func (c *Config) loadSecretsFromEnv() {
	if secret := os.Getenv("COOKIE_SECRET"); secret != "" {
		c.Server.CookieSecret = secret
	}
	if c.Cache.Type == "redis" && c.Cache.Redis != nil {
		if password := os.Getenv("REDIS_PASSWORD"); password != "" {
			c.Cache.Redis.Password = password
		}
	}
}
