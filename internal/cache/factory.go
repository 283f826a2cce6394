// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"log/slog"
	"time"
)

// Config holds cache backend selection and tuning.
type Config struct {
	RedisURL  string // When set, Redis is used; otherwise in-memory
	KeyPrefix string
	TTL       time.Duration
	MaxSize   int // In-memory only
}

// New creates a cache backend from configuration. A configured Redis URL
// selects the Redis backend; connection failure is returned rather than
// silently degraded so a misconfigured deployment is visible at startup.
func New(ctx context.Context, cfg Config, log *slog.Logger) (Cacher, error) {
	if cfg.RedisURL != "" {
		c, err := NewRedisCache(ctx, RedisCacheOptions{
			URL:        cfg.RedisURL,
			KeyPrefix:  cfg.KeyPrefix,
			DefaultTTL: cfg.TTL,
		})
		if err != nil {
			return nil, err
		}
		log.Info("cache backend initialized", "backend", "redis", "prefix", cfg.KeyPrefix)
		return c, nil
	}

	c := NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.TTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: time.Minute,
	})
	log.Info("cache backend initialized", "backend", "memory", "max_size", cfg.MaxSize)
	return c, nil
}
