// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/flowadmin/internal/model"
)

// CreateQuestionParams holds the fields for creating a question.
type CreateQuestionParams struct {
	ID         string
	CategoryID sql.NullString
	ParentID   sql.NullString
	Position   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
	CreatedBy  string
	UpdatedBy  string
}

// CreateQuestion inserts a question and returns the stored record.
func (q *Queries) CreateQuestion(ctx context.Context, arg CreateQuestionParams) (model.Question, error) {
	const query = `
		INSERT INTO questions (id, category_id, parent_id, position, created_at, updated_at, created_by, updated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, category_id, parent_id, position, created_at, updated_at, created_by, updated_by`

	var m model.Question
	err := q.db.QueryRowContext(ctx, query,
		arg.ID, arg.CategoryID, arg.ParentID, arg.Position, arg.CreatedAt, arg.UpdatedAt, arg.CreatedBy, arg.UpdatedBy,
	).Scan(&m.ID, &m.CategoryID, &m.ParentID, &m.Position, &m.CreatedAt, &m.UpdatedAt, &m.CreatedBy, &m.UpdatedBy)
	return m, err
}

// GetQuestion returns the question with the given id.
func (q *Queries) GetQuestion(ctx context.Context, id string) (model.Question, error) {
	const query = `
		SELECT id, category_id, parent_id, position, created_at, updated_at, created_by, updated_by
		FROM questions WHERE id = ?`

	var m model.Question
	err := q.db.QueryRowContext(ctx, query, id).
		Scan(&m.ID, &m.CategoryID, &m.ParentID, &m.Position, &m.CreatedAt, &m.UpdatedAt, &m.CreatedBy, &m.UpdatedBy)
	return m, err
}

// ListQuestions returns every question, parents before positions so the
// tree can be assembled in one pass per level.
func (q *Queries) ListQuestions(ctx context.Context) ([]model.Question, error) {
	const query = `
		SELECT id, category_id, parent_id, position, created_at, updated_at, created_by, updated_by
		FROM questions ORDER BY category_id, parent_id, position, id`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Question
	for rows.Next() {
		var m model.Question
		if err := rows.Scan(&m.ID, &m.CategoryID, &m.ParentID, &m.Position, &m.CreatedAt, &m.UpdatedAt, &m.CreatedBy, &m.UpdatedBy); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// TouchQuestion updates a question's audit fields.
func (q *Queries) TouchQuestion(ctx context.Context, id, updatedBy string, at time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE questions SET updated_at = ?, updated_by = ? WHERE id = ?`, at, updatedBy, id)
	return err
}

// UpdateQuestionPosition sets a question's rank within its sibling group.
func (q *Queries) UpdateQuestionPosition(ctx context.Context, id string, position int) error {
	_, err := q.db.ExecContext(ctx, `UPDATE questions SET position = ? WHERE id = ?`, position, id)
	return err
}

// DeleteQuestion removes a question. Sub-questions and translations
// cascade at the schema level.
func (q *Queries) DeleteQuestion(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	return err
}

// UpsertQuestionTranslationParams holds one language's content for a
// question. A nil attachment URL clears any stored attachment.
type UpsertQuestionTranslationParams struct {
	QuestionID     string
	Language       string
	Question       string
	Answer         string
	AttachmentURL  sql.NullString
	AttachmentName sql.NullString
}

// UpsertQuestionTranslation writes one language's content for a question.
func (q *Queries) UpsertQuestionTranslation(ctx context.Context, arg UpsertQuestionTranslationParams) error {
	const query = `
		INSERT INTO question_translations (question_id, language, question, answer, attachment_url, attachment_name)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (question_id, language) DO UPDATE SET
			question = excluded.question,
			answer = excluded.answer,
			attachment_url = excluded.attachment_url,
			attachment_name = excluded.attachment_name`

	_, err := q.db.ExecContext(ctx, query,
		arg.QuestionID, arg.Language, arg.Question, arg.Answer, arg.AttachmentURL, arg.AttachmentName)
	return err
}

// GetQuestionTranslation returns one language's content for a question.
func (q *Queries) GetQuestionTranslation(ctx context.Context, questionID, language string) (model.QuestionTranslation, error) {
	const query = `
		SELECT id, question_id, language, question, answer, attachment_url, attachment_name
		FROM question_translations WHERE question_id = ? AND language = ?`

	var t model.QuestionTranslation
	err := q.db.QueryRowContext(ctx, query, questionID, language).
		Scan(&t.ID, &t.QuestionID, &t.Language, &t.Question, &t.Answer, &t.AttachmentURL, &t.AttachmentName)
	return t, err
}

// ListQuestionTranslations returns every question translation row.
func (q *Queries) ListQuestionTranslations(ctx context.Context) ([]model.QuestionTranslation, error) {
	const query = `
		SELECT id, question_id, language, question, answer, attachment_url, attachment_name
		FROM question_translations ORDER BY question_id, language`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trs []model.QuestionTranslation
	for rows.Next() {
		var t model.QuestionTranslation
		if err := rows.Scan(&t.ID, &t.QuestionID, &t.Language, &t.Question, &t.Answer, &t.AttachmentURL, &t.AttachmentName); err != nil {
			return nil, err
		}
		trs = append(trs, t)
	}
	return trs, rows.Err()
}
