// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/olegiv/flowadmin/internal/flow"
	"github.com/olegiv/flowadmin/internal/model"
)

// SQLStore implements flow.Store on top of the SQLite schema. Each call
// runs in its own transaction so a failed command leaves no partial
// rows behind for the engine to revert against.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps a database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(New(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// CreateCategory persists a category with its initial translations.
func (s *SQLStore) CreateCategory(ctx context.Context, c *flow.Category) (*flow.Category, error) {
	var row model.Category
	err := s.withTx(ctx, func(q *Queries) error {
		var err error
		row, err = q.CreateCategory(ctx, CreateCategoryParams{
			ID:        c.ID,
			Position:  c.Order,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
			CreatedBy: c.CreatedBy,
			UpdatedBy: c.UpdatedBy,
		})
		if err != nil {
			return fmt.Errorf("inserting category: %w", err)
		}
		for lang, name := range c.Name {
			if err := q.UpsertCategoryTranslation(ctx, c.ID, lang, name); err != nil {
				return fmt.Errorf("inserting category translation %s: %w", lang, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := *c
	out.CreatedAt = row.CreatedAt
	out.UpdatedAt = row.UpdatedAt
	out.CreatedBy = row.CreatedBy
	out.UpdatedBy = row.UpdatedBy
	return &out, nil
}

// UpdateCategory merges translated names and stamps the audit fields.
func (s *SQLStore) UpdateCategory(ctx context.Context, id string, names flow.TranslationMap, actor string) (*flow.Category, error) {
	err := s.withTx(ctx, func(q *Queries) error {
		if _, err := q.GetCategory(ctx, id); err != nil {
			return fmt.Errorf("loading category: %w", err)
		}
		for lang, name := range names {
			if err := q.UpsertCategoryTranslation(ctx, id, lang, name); err != nil {
				return fmt.Errorf("updating category translation %s: %w", lang, err)
			}
		}
		return q.TouchCategory(ctx, id, actor, time.Now())
	})
	if err != nil {
		return nil, err
	}
	return nil, nil
}

// DeleteCategory removes a category with its forest and closes the
// position gap in the remaining list.
func (s *SQLStore) DeleteCategory(ctx context.Context, id string) error {
	return s.withTx(ctx, func(q *Queries) error {
		if err := q.DeleteCategory(ctx, id); err != nil {
			return fmt.Errorf("deleting category: %w", err)
		}
		cats, err := q.ListCategories(ctx)
		if err != nil {
			return err
		}
		for i, c := range cats {
			if c.Position == i {
				continue
			}
			if err := q.UpdateCategoryPosition(ctx, c.ID, i); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReorderCategories writes a bulk position payload.
func (s *SQLStore) ReorderCategories(ctx context.Context, items []flow.OrderUpdate) error {
	return s.withTx(ctx, func(q *Queries) error {
		for _, it := range items {
			if err := q.UpdateCategoryPosition(ctx, it.ID, it.Order); err != nil {
				return fmt.Errorf("positioning category %s: %w", it.ID, err)
			}
		}
		return nil
	})
}

// CreateQuestion persists a question at the head of its sibling group,
// shifting existing siblings down one position.
func (s *SQLStore) CreateQuestion(ctx context.Context, fq *flow.Question, parentID string) (*flow.Question, error) {
	var row model.Question
	err := s.withTx(ctx, func(q *Queries) error {
		var shift string
		var arg any
		if parentID != "" {
			shift, arg = `UPDATE questions SET position = position + 1 WHERE parent_id = ?`, parentID
		} else {
			shift, arg = `UPDATE questions SET position = position + 1 WHERE category_id = ?`, fq.CategoryID
		}
		if _, err := q.db.ExecContext(ctx, shift, arg); err != nil {
			return fmt.Errorf("shifting siblings: %w", err)
		}

		var err error
		row, err = q.CreateQuestion(ctx, CreateQuestionParams{
			ID:         fq.ID,
			CategoryID: nullString(fq.CategoryID),
			ParentID:   nullString(parentID),
			Position:   0,
			CreatedAt:  fq.CreatedAt,
			UpdatedAt:  fq.UpdatedAt,
			CreatedBy:  fq.CreatedBy,
			UpdatedBy:  fq.UpdatedBy,
		})
		if err != nil {
			return fmt.Errorf("inserting question: %w", err)
		}
		for lang, text := range fq.Question {
			err := q.UpsertQuestionTranslation(ctx, UpsertQuestionTranslationParams{
				QuestionID: fq.ID,
				Language:   lang,
				Question:   text,
				Answer:     fq.Answer[lang],
			})
			if err != nil {
				return fmt.Errorf("inserting question translation %s: %w", lang, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := *fq
	out.CreatedAt = row.CreatedAt
	out.UpdatedAt = row.UpdatedAt
	out.CreatedBy = row.CreatedBy
	out.UpdatedBy = row.UpdatedBy
	return &out, nil
}

// UpdateQuestion merges per-language patches into the translation rows.
// An order override rewrites the whole sibling group's positions so they
// stay dense.
func (s *SQLStore) UpdateQuestion(ctx context.Context, id string, patches []flow.QuestionPatch, actor string) (*flow.Question, error) {
	err := s.withTx(ctx, func(q *Queries) error {
		row, err := q.GetQuestion(ctx, id)
		if err != nil {
			return fmt.Errorf("loading question: %w", err)
		}
		for _, p := range patches {
			if err := s.applyTranslationPatch(ctx, q, id, p); err != nil {
				return err
			}
			if p.Order != nil {
				if err := s.repositionSiblings(ctx, q, row, *p.Order); err != nil {
					return err
				}
			}
		}
		return q.TouchQuestion(ctx, id, actor, time.Now())
	})
	if err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *SQLStore) applyTranslationPatch(ctx context.Context, q *Queries, id string, p flow.QuestionPatch) error {
	tr, err := q.GetQuestionTranslation(ctx, id, p.Language)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("loading translation %s: %w", p.Language, err)
	}
	arg := UpsertQuestionTranslationParams{
		QuestionID:     id,
		Language:       p.Language,
		Question:       tr.Question,
		Answer:         tr.Answer,
		AttachmentURL:  tr.AttachmentURL,
		AttachmentName: tr.AttachmentName,
	}
	if p.Question != nil {
		arg.Question = *p.Question
	}
	if p.Answer != nil {
		arg.Answer = *p.Answer
	}
	if p.ClearAttachment {
		arg.AttachmentURL = sql.NullString{}
		arg.AttachmentName = sql.NullString{}
	} else if p.Attachment != nil {
		arg.AttachmentURL = nullString(p.Attachment.URL)
		arg.AttachmentName = nullString(p.Attachment.Name)
	}
	if err := q.UpsertQuestionTranslation(ctx, arg); err != nil {
		return fmt.Errorf("writing translation %s: %w", p.Language, err)
	}
	return nil
}

// repositionSiblings re-ranks the moved question's sibling group after
// an order override, mirroring the in-memory stable re-sort.
func (s *SQLStore) repositionSiblings(ctx context.Context, q *Queries, moved model.Question, order int) error {
	siblings, err := s.listSiblings(ctx, q, moved)
	if err != nil {
		return err
	}
	for i := range siblings {
		if siblings[i].ID == moved.ID {
			siblings[i].Position = order
		}
	}
	sort.SliceStable(siblings, func(i, j int) bool {
		return siblings[i].Position < siblings[j].Position
	})
	for i, sib := range siblings {
		if err := q.UpdateQuestionPosition(ctx, sib.ID, i); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) listSiblings(ctx context.Context, q *Queries, of model.Question) ([]model.Question, error) {
	const byParent = `
		SELECT id, category_id, parent_id, position, created_at, updated_at, created_by, updated_by
		FROM questions WHERE parent_id = ? ORDER BY position, id`
	const byCategory = `
		SELECT id, category_id, parent_id, position, created_at, updated_at, created_by, updated_by
		FROM questions WHERE category_id = ? ORDER BY position, id`

	query, arg := byCategory, of.CategoryID.String
	if of.ParentID.Valid {
		query, arg = byParent, of.ParentID.String
	}
	rows, err := q.db.QueryContext(ctx, query, arg)
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

// DeleteQuestion removes a question with its subtree and closes the
// position gap among its former siblings.
func (s *SQLStore) DeleteQuestion(ctx context.Context, id string) error {
	return s.withTx(ctx, func(q *Queries) error {
		row, err := q.GetQuestion(ctx, id)
		if err != nil {
			return fmt.Errorf("loading question: %w", err)
		}
		if err := q.DeleteQuestion(ctx, id); err != nil {
			return fmt.Errorf("deleting question: %w", err)
		}
		siblings, err := s.listSiblings(ctx, q, row)
		if err != nil {
			return err
		}
		for i, sib := range siblings {
			if sib.Position == i {
				continue
			}
			if err := q.UpdateQuestionPosition(ctx, sib.ID, i); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReorderQuestions writes a bulk position payload.
func (s *SQLStore) ReorderQuestions(ctx context.Context, items []flow.OrderUpdate) error {
	return s.withTx(ctx, func(q *Queries) error {
		for _, it := range items {
			if err := q.UpdateQuestionPosition(ctx, it.ID, it.Order); err != nil {
				return fmt.Errorf("positioning question %s: %w", it.ID, err)
			}
		}
		return nil
	})
}

// LoadTree assembles the full in-memory tree from the database: the
// ordered category list, the question forest and every translation.
func LoadTree(ctx context.Context, db *sql.DB) (*flow.Tree, error) {
	q := New(db)

	cats, err := q.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	catTrs, err := q.ListCategoryTranslations(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing category translations: %w", err)
	}
	questions, err := q.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing questions: %w", err)
	}
	qTrs, err := q.ListQuestionTranslations(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing question translations: %w", err)
	}

	names := make(map[string]flow.TranslationMap)
	for _, tr := range catTrs {
		if names[tr.CategoryID] == nil {
			names[tr.CategoryID] = flow.TranslationMap{}
		}
		names[tr.CategoryID][tr.Language] = tr.Name
	}

	tree := flow.NewTree()
	for _, c := range cats {
		tree.RestoreCategory(&flow.Category{
			ID:        c.ID,
			Order:     c.Position,
			Name:      names[c.ID],
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
			CreatedBy: c.CreatedBy,
			UpdatedBy: c.UpdatedBy,
		})
	}

	texts := make(map[string]flow.TranslationMap)
	answers := make(map[string]flow.TranslationMap)
	attachments := make(map[string]flow.AttachmentMap)
	for _, tr := range qTrs {
		if texts[tr.QuestionID] == nil {
			texts[tr.QuestionID] = flow.TranslationMap{}
		}
		texts[tr.QuestionID][tr.Language] = tr.Question
		if tr.Answer != "" {
			if answers[tr.QuestionID] == nil {
				answers[tr.QuestionID] = flow.TranslationMap{}
			}
			answers[tr.QuestionID][tr.Language] = tr.Answer
		}
		if tr.HasAttachment() {
			if attachments[tr.QuestionID] == nil {
				attachments[tr.QuestionID] = flow.AttachmentMap{}
			}
			attachments[tr.QuestionID][tr.Language] = flow.Attachment{
				URL:  tr.AttachmentURL.String,
				Name: tr.AttachmentName.String,
			}
		}
	}

	// Children grouped by parent, restored breadth-first so every parent
	// exists before its children.
	byParent := make(map[string][]model.Question)
	var pending []model.Question
	for _, row := range questions {
		if row.ParentID.Valid {
			byParent[row.ParentID.String] = append(byParent[row.ParentID.String], row)
			continue
		}
		pending = append(pending, row)
	}
	for len(pending) > 0 {
		row := pending[0]
		pending = append(pending[1:], byParent[row.ID]...)
		fq := &flow.Question{
			ID:          row.ID,
			CategoryID:  row.CategoryID.String,
			Question:    texts[row.ID],
			Answer:      answers[row.ID],
			Attachments: attachments[row.ID],
			Order:       row.Position,
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
			CreatedBy:   row.CreatedBy,
			UpdatedBy:   row.UpdatedBy,
		}
		if err := tree.RestoreQuestion(fq, row.ParentID.String); err != nil {
			return nil, fmt.Errorf("restoring question %s: %w", row.ID, err)
		}
	}
	return tree, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
