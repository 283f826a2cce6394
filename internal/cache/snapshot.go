// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"time"
)

// SnapshotCache caches rendered content tree snapshots per language.
// Mutations invalidate all languages at once since a single edit can
// change every localized rendering.
type SnapshotCache struct {
	backend   Cacher
	languages []string
	ttl       time.Duration
}

// NewSnapshotCache wraps a cache backend for tree snapshot storage.
// The language list bounds which keys Invalidate clears.
func NewSnapshotCache(backend Cacher, languages []string, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{backend: backend, languages: languages, ttl: ttl}
}

func snapshotKey(lang string) string {
	return "tree:" + lang
}

// Get returns the cached snapshot for a language, or ErrCacheMiss.
func (s *SnapshotCache) Get(ctx context.Context, lang string) ([]byte, error) {
	return s.backend.Get(ctx, snapshotKey(lang))
}

// Put stores a snapshot for a language.
func (s *SnapshotCache) Put(ctx context.Context, lang string, data []byte) error {
	return s.backend.Set(ctx, snapshotKey(lang), data, s.ttl)
}

// Invalidate drops the snapshots for every configured language.
func (s *SnapshotCache) Invalidate(ctx context.Context) error {
	for _, lang := range s.languages {
		if err := s.backend.Delete(ctx, snapshotKey(lang)); err != nil {
			return err
		}
	}
	return nil
}
