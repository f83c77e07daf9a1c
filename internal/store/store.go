// Package store persists sessions between requests, either in process
// memory or in Redis.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/marcogenualdo/cas-switch/internal/auth"
	"github.com/marcogenualdo/cas-switch/internal/config"
)

var ErrNotFound = errors.New("session not found")

type Store interface {
	Load(ctx context.Context, id string) (*auth.Session, error)
	Save(ctx context.Context, session *auth.Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

func New(cfg config.CacheConfig) (Store, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		if cfg.Redis == nil {
			return nil, errors.New("redis config is required for redis store type")
		}
		return NewRedisStore(*cfg.Redis)
	default:
		return nil, errors.New("unsupported store type: " + cfg.Type)
	}
}
