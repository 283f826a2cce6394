// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/olegiv/flowadmin/internal/model"
	"github.com/olegiv/flowadmin/internal/store"
	"github.com/olegiv/flowadmin/internal/testutil"
)

func createTestUser(t *testing.T, db *sql.DB) int64 {
	t.Helper()
	now := time.Now()
	user, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Email:        "events@example.com",
		PasswordHash: "x",
		Role:         model.RoleAdmin,
		Name:         "Events Tester",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user.ID
}

func TestLogEvent(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewEventService(db)
	ctx := context.Background()

	userID := createTestUser(t, db)
	err := svc.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryQuestion, "Question created", &userID, "192.168.1.100", map[string]any{
		"key": "value",
	})
	if err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	var level, category, message, metadata, ipAddress string
	var savedUserID sql.NullInt64
	err = db.QueryRow("SELECT level, category, message, user_id, metadata, ip_address FROM events").
		Scan(&level, &category, &message, &savedUserID, &metadata, &ipAddress)
	if err != nil {
		t.Fatalf("failed to read event: %v", err)
	}

	if level != "info" {
		t.Errorf("level = %q, want %q", level, "info")
	}
	if category != "question" {
		t.Errorf("category = %q, want %q", category, "question")
	}
	if message != "Question created" {
		t.Errorf("message = %q, want %q", message, "Question created")
	}
	if !savedUserID.Valid || savedUserID.Int64 != userID {
		t.Errorf("user_id = %v, want %d", savedUserID, userID)
	}
	if metadata != `{"key":"value"}` {
		t.Errorf("metadata = %q, want %q", metadata, `{"key":"value"}`)
	}
	if ipAddress != "192.168.1.100" {
		t.Errorf("ip_address = %q, want %q", ipAddress, "192.168.1.100")
	}
}

func TestLogEvent_NilUserID(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewEventService(db)

	err := svc.LogEvent(context.Background(), model.EventLevelWarning, model.EventCategorySystem, "No user", nil, "", nil)
	if err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	var savedUserID sql.NullInt64
	if err := db.QueryRow("SELECT user_id FROM events").Scan(&savedUserID); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if savedUserID.Valid {
		t.Error("user_id should be NULL")
	}
}

func TestLogEvent_NilMetadata(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewEventService(db)

	err := svc.LogEvent(context.Background(), model.EventLevelInfo, model.EventCategoryAuth, "Test", nil, "", nil)
	if err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	var metadata string
	if err := db.QueryRow("SELECT metadata FROM events").Scan(&metadata); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if metadata != "{}" {
		t.Errorf("metadata = %q, want %q", metadata, "{}")
	}
}

// testEventField tests that a logging function produces the expected field value in the database.
func testEventField(t *testing.T, logFn func(*EventService, context.Context) error, fieldName, expected string) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewEventService(db)

	if err := logFn(svc, context.Background()); err != nil {
		t.Fatalf("Log function failed: %v", err)
	}

	var got string
	if err := db.QueryRow("SELECT " + fieldName + " FROM events").Scan(&got); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if got != expected {
		t.Errorf("%s = %q, want %q", fieldName, got, expected)
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name     string
		logFn    func(*EventService, context.Context) error
		expected string
	}{
		{"info", func(svc *EventService, ctx context.Context) error {
			return svc.LogInfo(ctx, model.EventCategoryCategory, "Category created", nil, "", nil)
		}, "info"},
		{"warning", func(svc *EventService, ctx context.Context) error {
			return svc.LogWarning(ctx, model.EventCategorySystem, "Low disk space", nil, "", nil)
		}, "warning"},
		{"error", func(svc *EventService, ctx context.Context) error {
			return svc.LogError(ctx, model.EventCategoryAuth, "Login failed", nil, "", nil)
		}, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testEventField(t, tt.logFn, "level", tt.expected)
		})
	}
}

func TestLogCategoryEvents(t *testing.T) {
	tests := []struct {
		name     string
		logFn    func(*EventService, context.Context) error
		expected string
	}{
		{"auth", func(svc *EventService, ctx context.Context) error {
			return svc.LogAuthEvent(ctx, model.EventLevelInfo, "User logged in", nil, "", nil)
		}, "auth"},
		{"category", func(svc *EventService, ctx context.Context) error {
			return svc.LogCategoryEvent(ctx, model.EventLevelInfo, "Category created", nil, "", nil)
		}, "category"},
		{"question", func(svc *EventService, ctx context.Context) error {
			return svc.LogQuestionEvent(ctx, model.EventLevelInfo, "Answer updated", nil, "", nil)
		}, "question"},
		{"media", func(svc *EventService, ctx context.Context) error {
			return svc.LogMediaEvent(ctx, model.EventLevelInfo, "Attachment uploaded", nil, "", nil)
		}, "media"},
		{"system", func(svc *EventService, ctx context.Context) error {
			return svc.LogSystemEvent(ctx, model.EventLevelInfo, "System started", nil, "", nil)
		}, "system"},
		{"cache", func(svc *EventService, ctx context.Context) error {
			return svc.LogCacheEvent(ctx, model.EventLevelInfo, "Cache cleared", nil, "", nil)
		}, "cache"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testEventField(t, tt.logFn, "category", tt.expected)
		})
	}
}

func TestRecentEvents(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewEventService(db)
	ctx := context.Background()

	for _, msg := range []string{"first", "second", "third"} {
		if err := svc.LogInfo(ctx, model.EventCategorySystem, msg, nil, "", nil); err != nil {
			t.Fatalf("LogInfo failed: %v", err)
		}
	}

	events, err := svc.RecentEvents(ctx, 2)
	if err != nil {
		t.Fatalf("RecentEvents failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Message != "third" {
		t.Errorf("newest event = %q, want %q", events[0].Message, "third")
	}
}

func TestDeleteOldEvents(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	svc := NewEventService(db)
	ctx := context.Background()

	_, err := db.Exec(`
		INSERT INTO events (level, category, message, metadata, created_at)
		VALUES ('info', 'system', 'Old event', '{}', ?)
	`, time.Now().Add(-31*24*time.Hour))
	if err != nil {
		t.Fatalf("failed to insert old event: %v", err)
	}

	if err := svc.LogInfo(ctx, model.EventCategorySystem, "Recent event", nil, "", nil); err != nil {
		t.Fatalf("LogInfo failed: %v", err)
	}

	if err := svc.DeleteOldEvents(ctx, 30*24*time.Hour); err != nil {
		t.Fatalf("DeleteOldEvents failed: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count); err != nil {
		t.Fatalf("failed to count events: %v", err)
	}
	if count != 1 {
		t.Errorf("event count after delete = %d, want 1", count)
	}
}
