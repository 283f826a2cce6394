// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Language represents a content language of the flow.
type Language struct {
	ID         int64     `json:"id"`
	Code       string    `json:"code"`        // ISO 639-1: az, ru
	Name       string    `json:"name"`        // Azerbaijani, Russian
	NativeName string    `json:"native_name"` // Azərbaycanca, Русский
	IsDefault  bool      `json:"is_default"`  // only one can be default
	IsActive   bool      `json:"is_active"`
	Position   int       `json:"position"` // sort order in the language switcher
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DefaultLanguages is the language set seeded into a fresh database.
var DefaultLanguages = []struct {
	Code       string
	Name       string
	NativeName string
	IsDefault  bool
}{
	{"az", "Azerbaijani", "Azərbaycanca", true},
	{"ru", "Russian", "Русский", false},
}
