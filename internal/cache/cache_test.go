// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func newTestMemoryCache(t *testing.T) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMemoryCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(t)

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("got %q, want %q", got, "v")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(t)

	if err := c.Set(ctx, "k", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss after expiry, got %v", err)
	}
}

func TestMemoryCacheDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(t)

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)

	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "a"); !errors.Is(err, ErrCacheMiss) {
		t.Error("deleted key still present")
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := c.Get(ctx, "b"); !errors.Is(err, ErrCacheMiss) {
		t.Error("cleared key still present")
	}
}

func TestMemoryCacheMaxSize(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute, MaxSize: 1})
	t.Cleanup(func() { _ = c.Close() })

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)

	if _, err := c.Get(ctx, "a"); err != nil {
		t.Errorf("existing key evicted: %v", err)
	}
	if _, err := c.Get(ctx, "b"); !errors.Is(err, ErrCacheMiss) {
		t.Error("new key stored despite full cache")
	}

	// Overwriting an existing key is still allowed at capacity.
	if err := c.Set(ctx, "a", []byte("updated"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, _ := c.Get(ctx, "a")
	if string(got) != "updated" {
		t.Errorf("got %q, want %q", got, "updated")
	}
}

func TestMemoryCacheClosed(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("expected ErrCacheClosed, got %v", err)
	}
	if err := c.Set(ctx, "k", nil, 0); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("expected ErrCacheClosed, got %v", err)
	}
}

func TestFactoryMemoryBackend(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := New(context.Background(), Config{TTL: time.Minute, MaxSize: 10}, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	if _, ok := c.(*MemoryCache); !ok {
		t.Errorf("expected *MemoryCache, got %T", c)
	}
}

func TestSnapshotCache(t *testing.T) {
	ctx := context.Background()
	backend := newTestMemoryCache(t)
	sc := NewSnapshotCache(backend, []string{"az", "ru"}, time.Minute)

	if _, err := sc.Get(ctx, "az"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}

	if err := sc.Put(ctx, "az", []byte(`{"categories":[]}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := sc.Put(ctx, "ru", []byte(`{"categories":[]}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := sc.Get(ctx, "az")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"categories":[]}` {
		t.Errorf("unexpected snapshot payload %q", got)
	}

	if err := sc.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	for _, lang := range []string{"az", "ru"} {
		if _, err := sc.Get(ctx, lang); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("snapshot for %s survived invalidation", lang)
		}
	}
}
