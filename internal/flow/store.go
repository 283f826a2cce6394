// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package flow

import (
	"context"
	"io"
)

// Store is the persistence boundary the Editor writes through. The
// relational store behind it is an external collaborator: the engine
// only issues create/update/delete/reorder calls and reconciles the
// returned canonical records. Calls are fire-and-await but not
// serialized against each other by the engine.
type Store interface {
	CreateCategory(ctx context.Context, c *Category) (*Category, error)
	UpdateCategory(ctx context.Context, id string, names TranslationMap, actor string) (*Category, error)
	DeleteCategory(ctx context.Context, id string) error
	ReorderCategories(ctx context.Context, items []OrderUpdate) error

	CreateQuestion(ctx context.Context, q *Question, parentID string) (*Question, error)
	UpdateQuestion(ctx context.Context, id string, patches []QuestionPatch, actor string) (*Question, error)
	DeleteQuestion(ctx context.Context, id string) error
	ReorderQuestions(ctx context.Context, items []OrderUpdate) error
}

// AttachmentStore is the file storage boundary. Attachment identity is
// an opaque {url, name} pair; sequencing a delete against an edit that
// references the same attachment is the caller's responsibility.
type AttachmentStore interface {
	Upload(ctx context.Context, filename string, r io.Reader) (Attachment, error)
	Delete(ctx context.Context, url string) error
}
