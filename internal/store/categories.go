// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/olegiv/flowadmin/internal/model"
)

// CreateCategoryParams holds the fields for creating a category.
type CreateCategoryParams struct {
	ID        string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
	UpdatedBy string
}

// CreateCategory inserts a category and returns the stored record.
func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (model.Category, error) {
	const query = `
		INSERT INTO categories (id, position, created_at, updated_at, created_by, updated_by)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, position, created_at, updated_at, created_by, updated_by`

	var c model.Category
	err := q.db.QueryRowContext(ctx, query,
		arg.ID, arg.Position, arg.CreatedAt, arg.UpdatedAt, arg.CreatedBy, arg.UpdatedBy,
	).Scan(&c.ID, &c.Position, &c.CreatedAt, &c.UpdatedAt, &c.CreatedBy, &c.UpdatedBy)
	return c, err
}

// GetCategory returns the category with the given id.
func (q *Queries) GetCategory(ctx context.Context, id string) (model.Category, error) {
	const query = `
		SELECT id, position, created_at, updated_at, created_by, updated_by
		FROM categories WHERE id = ?`

	var c model.Category
	err := q.db.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.Position, &c.CreatedAt, &c.UpdatedAt, &c.CreatedBy, &c.UpdatedBy)
	return c, err
}

// ListCategories returns all categories in position order.
func (q *Queries) ListCategories(ctx context.Context) ([]model.Category, error) {
	const query = `
		SELECT id, position, created_at, updated_at, created_by, updated_by
		FROM categories ORDER BY position, id`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Position, &c.CreatedAt, &c.UpdatedAt, &c.CreatedBy, &c.UpdatedBy); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// TouchCategory updates a category's audit fields.
func (q *Queries) TouchCategory(ctx context.Context, id, updatedBy string, at time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE categories SET updated_at = ?, updated_by = ? WHERE id = ?`, at, updatedBy, id)
	return err
}

// UpdateCategoryPosition sets a category's sort position.
func (q *Queries) UpdateCategoryPosition(ctx context.Context, id string, position int) error {
	_, err := q.db.ExecContext(ctx, `UPDATE categories SET position = ? WHERE id = ?`, position, id)
	return err
}

// DeleteCategory removes a category. Translations and the category's
// question forest cascade at the schema level.
func (q *Queries) DeleteCategory(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return err
}

// UpsertCategoryTranslation writes one language's name for a category.
func (q *Queries) UpsertCategoryTranslation(ctx context.Context, categoryID, language, name string) error {
	const query = `
		INSERT INTO category_translations (category_id, language, name)
		VALUES (?, ?, ?)
		ON CONFLICT (category_id, language) DO UPDATE SET name = excluded.name`

	_, err := q.db.ExecContext(ctx, query, categoryID, language, name)
	return err
}

// ListCategoryTranslations returns every category translation row.
func (q *Queries) ListCategoryTranslations(ctx context.Context) ([]model.CategoryTranslation, error) {
	const query = `
		SELECT id, category_id, language, name
		FROM category_translations ORDER BY category_id, language`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trs []model.CategoryTranslation
	for rows.Next() {
		var t model.CategoryTranslation
		if err := rows.Scan(&t.ID, &t.CategoryID, &t.Language, &t.Name); err != nil {
			return nil, err
		}
		trs = append(trs, t)
	}
	return trs, rows.Err()
}
