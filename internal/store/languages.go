// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/olegiv/flowadmin/internal/model"
)

// CreateLanguageParams holds the fields for creating a language.
type CreateLanguageParams struct {
	Code       string
	Name       string
	NativeName string
	IsDefault  bool
	IsActive   bool
	Position   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateLanguage inserts a language.
func (q *Queries) CreateLanguage(ctx context.Context, arg CreateLanguageParams) (model.Language, error) {
	const query = `
		INSERT INTO languages (code, name, native_name, is_default, is_active, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, code, name, native_name, is_default, is_active, position, created_at, updated_at`

	var l model.Language
	err := q.db.QueryRowContext(ctx, query,
		arg.Code, arg.Name, arg.NativeName, arg.IsDefault, arg.IsActive, arg.Position, arg.CreatedAt, arg.UpdatedAt,
	).Scan(&l.ID, &l.Code, &l.Name, &l.NativeName, &l.IsDefault, &l.IsActive, &l.Position, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

// ListActiveLanguages returns active languages in switcher order.
func (q *Queries) ListActiveLanguages(ctx context.Context) ([]model.Language, error) {
	const query = `
		SELECT id, code, name, native_name, is_default, is_active, position, created_at, updated_at
		FROM languages WHERE is_active = 1 ORDER BY position, id`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var langs []model.Language
	for rows.Next() {
		var l model.Language
		if err := rows.Scan(&l.ID, &l.Code, &l.Name, &l.NativeName, &l.IsDefault, &l.IsActive, &l.Position, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		langs = append(langs, l)
	}
	return langs, rows.Err()
}

// GetDefaultLanguage returns the default language.
func (q *Queries) GetDefaultLanguage(ctx context.Context) (model.Language, error) {
	const query = `
		SELECT id, code, name, native_name, is_default, is_active, position, created_at, updated_at
		FROM languages WHERE is_default = 1 LIMIT 1`

	var l model.Language
	err := q.db.QueryRowContext(ctx, query).
		Scan(&l.ID, &l.Code, &l.Name, &l.NativeName, &l.IsDefault, &l.IsActive, &l.Position, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}
