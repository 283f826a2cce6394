// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/olegiv/flowadmin/internal/model"
	"github.com/olegiv/flowadmin/internal/store"
	"github.com/olegiv/flowadmin/internal/testutil"
)

func TestHandlerForwardsWarningsToEventLog(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	inner := slog.NewTextHandler(io.Discard, nil)
	logger := slog.New(NewEventLogHandler(inner, db))

	logger.Info("quiet info message")
	logger.Warn("category rename failed", "category", model.EventCategoryCategory, "id", "cat-1")
	logger.Error("persistence failed", "op", "delete question")

	events, err := store.New(db).ListRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want warn and error only", len(events))
	}
}

func TestHandlerExtractsCategoryAndMetadata(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	inner := slog.NewTextHandler(io.Discard, nil)
	logger := slog.New(NewEventLogHandler(inner, db))

	logger.Warn("upload rejected", "name", "a.pdf")

	events, err := store.New(db).ListRecentEvents(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	e := events[0]
	if e.Category != model.EventCategoryMedia {
		t.Errorf("category = %q, want inferred media", e.Category)
	}
	if e.Level != model.EventLevelWarning {
		t.Errorf("level = %q", e.Level)
	}

	var meta map[string]string
	if err := json.Unmarshal([]byte(e.Metadata), &meta); err != nil {
		t.Fatalf("metadata is not valid JSON: %v (%s)", err, e.Metadata)
	}
	if meta["name"] != "a.pdf" {
		t.Errorf("metadata = %v", meta)
	}
}

func TestHandlerWithLevel(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	inner := slog.NewTextHandler(io.Discard, nil)
	logger := slog.New(NewEventLogHandlerWithLevel(inner, db, slog.LevelInfo))

	logger.Info("seeded languages", "count", 2)

	events, err := store.New(db).ListRecentEvents(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Level != model.EventLevelInfo {
		t.Errorf("level = %q", events[0].Level)
	}
}
