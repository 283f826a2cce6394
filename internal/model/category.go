// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the persisted records behind the flow tree:
// categories, questions, their per-language translations, users and
// events.
package model

import "time"

// Category represents a top-level flow category row.
type Category struct {
	ID        string    `json:"id"`
	Position  int       `json:"position"` // sort order in the sidebar
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy string    `json:"created_by"`
	UpdatedBy string    `json:"updated_by"`
}

// CategoryTranslation is one language's name for a category.
type CategoryTranslation struct {
	ID         int64  `json:"id"`
	CategoryID string `json:"category_id"`
	Language   string `json:"language"` // ISO 639-1: az, ru
	Name       string `json:"name"`
}
