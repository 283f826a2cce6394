// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Question represents a question row. Exactly one of CategoryID and
// ParentID is set: root questions hang off a category, sub-questions
// off another question.
type Question struct {
	ID         string         `json:"id"`
	CategoryID sql.NullString `json:"category_id"`
	ParentID   sql.NullString `json:"parent_id"`
	Position   int            `json:"position"` // rank within the sibling group
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	CreatedBy  string         `json:"created_by"`
	UpdatedBy  string         `json:"updated_by"`
}

// IsRoot returns true when the question sits directly under a category.
func (q *Question) IsRoot() bool {
	return q.CategoryID.Valid
}

// QuestionTranslation is one language's content for a question: the
// question text, the rich-text answer and an optional file attachment.
type QuestionTranslation struct {
	ID             int64          `json:"id"`
	QuestionID     string         `json:"question_id"`
	Language       string         `json:"language"`
	Question       string         `json:"question"`
	Answer         string         `json:"answer"` // sanitized HTML
	AttachmentURL  sql.NullString `json:"attachment_url"`
	AttachmentName sql.NullString `json:"attachment_name"`
}

// HasAttachment returns true when the translation carries a file.
func (t *QuestionTranslation) HasAttachment() bool {
	return t.AttachmentURL.Valid && t.AttachmentURL.String != ""
}
