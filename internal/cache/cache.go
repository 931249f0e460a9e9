package cache

import (
	"fmt"

	"github.com/mercadoguard/caracara/internal/domain"
)

// New creates a new cache based on configuration.
// "memory" returns a local LRU cache, "redis" a shared Redis cache for
// deployments running several viewer instances against one report.
func New(cfg domain.CacheConfig) (domain.Cache, error) {
	switch cfg.Type {
	case "memory":
		return NewLRUCache(cfg.LocalMaxSize), nil

	case "redis":
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}
