// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"testing"

	"github.com/olegiv/flowadmin/internal/flow"
)

// buildFlow creates one category with two root questions and a nested
// sub-question through the SQLStore, mirroring how the editor persists.
func buildFlow(t *testing.T, s *SQLStore) (cat *flow.Category, q1, q2, sub *flow.Question) {
	t.Helper()
	ctx := context.Background()
	tree := flow.NewTree()

	cat, err := tree.AddCategory("Test", "az", "admin")
	if err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	if _, err := s.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	q1, err = tree.AddQuestion("Q1", "az", cat.ID, "", "admin")
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	if _, err := s.CreateQuestion(ctx, q1, ""); err != nil {
		t.Fatalf("CreateQuestion q1: %v", err)
	}

	q2, err = tree.AddQuestion("Q2", "az", cat.ID, "", "admin")
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	if _, err := s.CreateQuestion(ctx, q2, ""); err != nil {
		t.Fatalf("CreateQuestion q2: %v", err)
	}

	sub, err = tree.AddQuestion("Q1 sub", "az", "", q1.ID, "admin")
	if err != nil {
		t.Fatalf("AddQuestion sub: %v", err)
	}
	if _, err := s.CreateQuestion(ctx, sub, q1.ID); err != nil {
		t.Fatalf("CreateQuestion sub: %v", err)
	}
	return cat, q1, q2, sub
}

func TestSQLStorePrependShiftsSiblings(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	s := NewSQLStore(db)
	cat, q1, q2, _ := buildFlow(t, s)

	ctx := context.Background()
	tree, err := LoadTree(ctx, db)
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}

	roots := tree.RootQuestions(cat.ID)
	if len(roots) != 2 {
		t.Fatalf("roots = %d, want 2", len(roots))
	}
	if roots[0].ID != q2.ID || roots[1].ID != q1.ID {
		t.Errorf("root order = [%s %s], want newest first [%s %s]",
			roots[0].ID, roots[1].ID, q2.ID, q1.ID)
	}
	for i, q := range roots {
		if q.Order != i {
			t.Errorf("root %d has order %d", i, q.Order)
		}
	}
}

func TestSQLStoreTranslationPatchMerges(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	s := NewSQLStore(db)
	cat, q1, _, _ := buildFlow(t, s)

	ctx := context.Background()
	answer := "<p>cavab</p>"
	att := &flow.Attachment{URL: "/uploads/a.pdf", Name: "a.pdf"}
	if _, err := s.UpdateQuestion(ctx, q1.ID, []flow.QuestionPatch{
		{Language: "az", Answer: &answer, Attachment: att},
	}, "editor"); err != nil {
		t.Fatalf("UpdateQuestion: %v", err)
	}

	ru := "Вопрос 1"
	if _, err := s.UpdateQuestion(ctx, q1.ID, []flow.QuestionPatch{
		{Language: "ru", Question: &ru},
	}, "editor"); err != nil {
		t.Fatalf("UpdateQuestion ru: %v", err)
	}

	tree, err := LoadTree(ctx, db)
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	got, err := tree.QuestionByID(q1.ID)
	if err != nil {
		t.Fatalf("QuestionByID: %v", err)
	}
	if got.Question["az"] != "Q1" {
		t.Errorf("az question = %q, want untouched Q1", got.Question["az"])
	}
	if got.Question["ru"] != "Вопрос 1" {
		t.Errorf("ru question = %q", got.Question["ru"])
	}
	if got.Answer["az"] != answer {
		t.Errorf("az answer = %q", got.Answer["az"])
	}
	if got.Attachments["az"].Name != "a.pdf" {
		t.Errorf("attachment = %+v", got.Attachments["az"])
	}

	// Clearing the attachment removes it without touching the answer.
	if _, err := s.UpdateQuestion(ctx, q1.ID, []flow.QuestionPatch{
		{Language: "az", ClearAttachment: true},
	}, "editor"); err != nil {
		t.Fatalf("clear attachment: %v", err)
	}
	tree, _ = LoadTree(ctx, db)
	got, _ = tree.QuestionByID(q1.ID)
	if _, ok := got.Attachments["az"]; ok {
		t.Error("attachment should be cleared")
	}
	if got.Answer["az"] != answer {
		t.Error("answer should survive attachment clear")
	}
	_ = cat
}

func TestSQLStoreOrderOverrideRenumbers(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	s := NewSQLStore(db)
	cat, q1, q2, _ := buildFlow(t, s)

	// [Q2, Q1]: push Q1 to the front via an order override.
	ctx := context.Background()
	text := "Q1"
	neg := -1
	if _, err := s.UpdateQuestion(ctx, q1.ID, []flow.QuestionPatch{
		{Language: "az", Question: &text, Order: &neg},
	}, "editor"); err != nil {
		t.Fatalf("UpdateQuestion: %v", err)
	}

	tree, err := LoadTree(ctx, db)
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	roots := tree.RootQuestions(cat.ID)
	if roots[0].ID != q1.ID || roots[1].ID != q2.ID {
		t.Errorf("order after override = [%s %s], want [%s %s]",
			roots[0].ID, roots[1].ID, q1.ID, q2.ID)
	}
	for i, q := range roots {
		if q.Order != i {
			t.Errorf("root %d has order %d, want dense", i, q.Order)
		}
	}
}

func TestSQLStoreReorderPayload(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	s := NewSQLStore(db)
	cat, q1, q2, _ := buildFlow(t, s)

	ctx := context.Background()
	if err := s.ReorderQuestions(ctx, []flow.OrderUpdate{
		{ID: q1.ID, Order: 0},
		{ID: q2.ID, Order: 1},
	}); err != nil {
		t.Fatalf("ReorderQuestions: %v", err)
	}

	tree, err := LoadTree(ctx, db)
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	roots := tree.RootQuestions(cat.ID)
	if roots[0].ID != q1.ID {
		t.Errorf("first root = %s, want %s", roots[0].ID, q1.ID)
	}
}

func TestSQLStoreDeleteQuestionClosesGap(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	s := NewSQLStore(db)
	cat, q1, q2, sub := buildFlow(t, s)

	ctx := context.Background()
	if err := s.DeleteQuestion(ctx, q2.ID); err != nil {
		t.Fatalf("DeleteQuestion: %v", err)
	}

	tree, err := LoadTree(ctx, db)
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	roots := tree.RootQuestions(cat.ID)
	if len(roots) != 1 || roots[0].ID != q1.ID || roots[0].Order != 0 {
		t.Errorf("roots after delete = %+v", roots)
	}
	if subs := tree.SubQuestions(q1.ID); len(subs) != 1 || subs[0].ID != sub.ID {
		t.Errorf("sub-questions should survive sibling delete")
	}
}

func TestSQLStoreCategoryLifecycle(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	s := NewSQLStore(db)
	cat, _, _, _ := buildFlow(t, s)

	ctx := context.Background()
	if _, err := s.UpdateCategory(ctx, cat.ID, flow.TranslationMap{"az": "Yeni", "ru": "Новый"}, "editor"); err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}

	tree, err := LoadTree(ctx, db)
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	c, err := tree.CategoryByID(cat.ID)
	if err != nil {
		t.Fatalf("CategoryByID: %v", err)
	}
	if c.Name["ru"] != "Новый" {
		t.Errorf("ru name = %q", c.Name["ru"])
	}

	if err := s.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	tree, _ = LoadTree(ctx, db)
	if len(tree.Categories()) != 0 {
		t.Error("category should be gone")
	}
	if tree.QuestionCount() != 0 {
		t.Errorf("questions after cascade = %d, want 0", tree.QuestionCount())
	}
}

func TestLoadTreeRestoresDeepNesting(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	s := NewSQLStore(db)
	_, q1, _, sub := buildFlow(t, s)

	ctx := context.Background()
	deep := &flow.Question{ID: "deep-1", Question: flow.TranslationMap{"az": "deep"}}
	if _, err := s.CreateQuestion(ctx, deep, sub.ID); err != nil {
		t.Fatalf("CreateQuestion deep: %v", err)
	}

	loaded, err := LoadTree(ctx, db)
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	path, err := loaded.Path("deep-1", "az")
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if len(path) != 4 {
		t.Fatalf("path length = %d, want 4", len(path))
	}
	if path[1].ID != q1.ID || path[2].ID != sub.ID {
		t.Errorf("path = %+v", path)
	}
}
