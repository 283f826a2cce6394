// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package flow

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
)

// Editor ties the tree, navigation, panels and drag machine together and
// drives the persistence boundary. Every mutation is a pending command:
// the tree is updated optimistically, the store call is awaited, and on
// failure the tree reverts to the last confirmed snapshot so local and
// remote state never stay divergent.
//
// The Editor is a single logical actor and performs no locking; callers
// that share one across goroutines must serialize access themselves.
type Editor struct {
	tree      *Tree
	confirmed *Tree

	nav    *Navigator
	panels *Panels
	drag   *Drag

	store  Store
	files  AttachmentStore
	logger *slog.Logger

	lang  string // active editing language
	actor string // acting admin identity for audit fields
}

// NewEditor wraps an initial tree (usually loaded from the store) with
// the given boundaries. The initial tree is taken as confirmed.
func NewEditor(tree *Tree, store Store, files AttachmentStore, logger *slog.Logger) *Editor {
	if tree == nil {
		tree = NewTree()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{
		tree:      tree,
		confirmed: tree.Clone(),
		nav:       NewNavigator(),
		panels:    NewPanels(),
		drag:      NewDrag(),
		store:     store,
		files:     files,
		logger:    logger,
		lang:      DefaultLanguage,
	}
}

// Tree returns the live tree for reading.
func (e *Editor) Tree() *Tree { return e.tree }

// Nav returns the navigation state machine.
func (e *Editor) Nav() *Navigator { return e.nav }

// Panels returns the panel controller.
func (e *Editor) Panels() *Panels { return e.panels }

// Drag returns the drag state machine.
func (e *Editor) Drag() *Drag { return e.drag }

// Language returns the active editing language.
func (e *Editor) Language() string { return e.lang }

// SetLanguage switches the active editing language and re-resolves
// breadcrumb labels.
func (e *Editor) SetLanguage(lang string) {
	e.lang = lang
	e.nav.Refresh(e.tree, lang)
}

// SetActor sets the acting admin identity recorded in audit fields.
func (e *Editor) SetActor(actor string) { e.actor = actor }

// confirm takes the live tree as the new confirmed snapshot.
func (e *Editor) confirm() { e.confirmed = e.tree.Clone() }

// revert restores the last confirmed snapshot, discarding the
// optimistic mutation, and re-validates UI state against it.
func (e *Editor) revert() {
	e.tree = e.confirmed.Clone()
	e.nav.Prune(e.tree)
	e.closeStalePanel()
}

func (e *Editor) closeStalePanel() {
	id, panel := e.panels.Active()
	if panel == PanelNone {
		return
	}
	if _, err := e.tree.QuestionByID(id); err != nil {
		e.panels.Close()
	}
}

// persist finalizes a pending command: confirm on success, revert and
// wrap on failure. Failures are logged, never swallowed, never retried.
func (e *Editor) persist(op string, err error) error {
	if err != nil {
		e.revert()
		e.logger.Error("persistence failed, reverting optimistic state",
			"op", op, "error", err)
		return &PersistenceError{Op: op, Err: err}
	}
	e.confirm()
	return nil
}

// AddCategory creates a category named in the active language and
// selects it, as the sidebar does.
func (e *Editor) AddCategory(ctx context.Context, name string) (*Category, error) {
	c, err := e.tree.AddCategory(name, e.lang, e.actor)
	if err != nil {
		return nil, err
	}
	canonical, err := e.store.CreateCategory(ctx, c)
	if err := e.persist("create category", err); err != nil {
		return nil, err
	}
	if canonical != nil {
		c.CreatedAt = canonical.CreatedAt
		c.UpdatedAt = canonical.UpdatedAt
		c.CreatedBy = canonical.CreatedBy
		c.UpdatedBy = canonical.UpdatedBy
		e.confirm()
	}
	_ = e.nav.SelectCategory(e.tree, c.ID, e.lang)
	return c, nil
}

// UpdateCategoryName merges a single-language rename and refreshes any
// breadcrumb showing the old label.
func (e *Editor) UpdateCategoryName(ctx context.Context, id, name string) (*Category, error) {
	c, err := e.tree.UpdateCategoryName(id, e.lang, name, e.actor)
	if err != nil {
		return nil, err
	}
	_, err = e.store.UpdateCategory(ctx, id, TranslationMap{e.lang: strings.TrimSpace(name)}, e.actor)
	if err := e.persist("update category", err); err != nil {
		return nil, err
	}
	e.nav.Refresh(e.tree, e.lang)
	return c, nil
}

// DeleteCategory cascades over the category's whole question forest and
// resets navigation if it anchored the current path.
func (e *Editor) DeleteCategory(ctx context.Context, id string) error {
	if err := e.tree.DeleteCategory(id); err != nil {
		return err
	}
	err := e.store.DeleteCategory(ctx, id)
	if err := e.persist("delete category", err); err != nil {
		return err
	}
	e.nav.Prune(e.tree)
	e.closeStalePanel()
	return nil
}

// AddQuestion creates a root-level question in the selected category,
// prepended newest-first.
func (e *Editor) AddQuestion(ctx context.Context, text, categoryID string) (*Question, error) {
	return e.addQuestion(ctx, text, categoryID, "")
}

// AddQuestionUnder creates a child under an explicit parent question,
// bypassing the sub-question panel. Used by the HTTP surface.
func (e *Editor) AddQuestionUnder(ctx context.Context, text, parentID string) (*Question, error) {
	return e.addQuestion(ctx, text, "", parentID)
}

// AddSubQuestion creates a child under the node whose sub-question panel
// is open, consuming the panel buffer.
func (e *Editor) AddSubQuestion(ctx context.Context) (*Question, error) {
	parentID, panel := e.panels.Active()
	if panel != PanelSubQuestion {
		return nil, &ValidationError{Field: "panel", Reason: "sub-question panel is not open"}
	}
	q, err := e.addQuestion(ctx, e.panels.SubQuestion(), "", parentID)
	if err != nil {
		return nil, err
	}
	e.panels.SetSubQuestion("")
	return q, nil
}

func (e *Editor) addQuestion(ctx context.Context, text, categoryID, parentID string) (*Question, error) {
	q, err := e.tree.AddQuestion(text, e.lang, categoryID, parentID, e.actor)
	if err != nil {
		return nil, err
	}
	canonical, err := e.store.CreateQuestion(ctx, q, parentID)
	if err := e.persist("create question", err); err != nil {
		return nil, err
	}
	if canonical != nil {
		q.CreatedAt = canonical.CreatedAt
		q.UpdatedAt = canonical.UpdatedAt
		q.CreatedBy = canonical.CreatedBy
		q.UpdatedBy = canonical.UpdatedBy
		e.confirm()
	}
	return q, nil
}

// DeleteQuestion cascades over the subtree and prunes navigation and
// panels that pointed into it.
func (e *Editor) DeleteQuestion(ctx context.Context, id string) error {
	if err := e.tree.DeleteQuestion(id); err != nil {
		return err
	}
	err := e.store.DeleteQuestion(ctx, id)
	if err := e.persist("delete question", err); err != nil {
		return err
	}
	e.nav.Prune(e.tree)
	e.closeStalePanel()
	return nil
}

// OpenPanel opens an inline panel for a question, closing any other.
func (e *Editor) OpenPanel(questionID string, panel Panel) error {
	return e.panels.Open(e.tree, questionID, panel, e.lang)
}

// ClosePanel discards the open panel and its buffers.
func (e *Editor) ClosePanel() { e.panels.Close() }

// SaveAnswer persists the answer panel buffer for the active language.
// The question text is carried along unchanged (resolved with the usual
// fallback) so the language row always has its text populated.
func (e *Editor) SaveAnswer(ctx context.Context) (*Question, error) {
	id, panel := e.panels.Active()
	if panel != PanelAnswer {
		return nil, &ValidationError{Field: "panel", Reason: "answer panel is not open"}
	}
	q, err := e.tree.QuestionByID(id)
	if err != nil {
		return nil, err
	}
	buf := e.panels.Answer()
	questionText := Resolve(q.Question, e.lang)
	patch := QuestionPatch{
		Language: e.lang,
		Question: &questionText,
		Answer:   &buf.Text,
	}
	if buf.Attachment != nil {
		patch.Attachment = buf.Attachment
	} else {
		patch.ClearAttachment = true
	}
	return e.applyPatches(ctx, id, []QuestionPatch{patch})
}

// SaveEdit persists the edit panel buffer: question text, answer,
// attachment and order for the active language only.
func (e *Editor) SaveEdit(ctx context.Context) (*Question, error) {
	id, panel := e.panels.Active()
	if panel != PanelEdit {
		return nil, &ValidationError{Field: "panel", Reason: "edit panel is not open"}
	}
	buf := e.panels.Edit()
	if strings.TrimSpace(buf.Question) == "" {
		return nil, &ValidationError{Field: "question", Reason: "required"}
	}
	order := buf.Order
	patch := QuestionPatch{
		Language: e.lang,
		Question: &buf.Question,
		Answer:   &buf.Answer,
		Order:    &order,
	}
	if buf.Attachment != nil {
		patch.Attachment = buf.Attachment
	} else {
		patch.ClearAttachment = true
	}
	return e.applyPatches(ctx, id, []QuestionPatch{patch})
}

func (e *Editor) applyPatches(ctx context.Context, id string, patches []QuestionPatch) (*Question, error) {
	q, err := e.tree.UpdateQuestion(id, patches, e.actor)
	if err != nil {
		return nil, err
	}
	_, err = e.store.UpdateQuestion(ctx, id, patches, e.actor)
	if err := e.persist("update question", err); err != nil {
		return nil, err
	}
	e.panels.Close()
	e.nav.Refresh(e.tree, e.lang)
	return q, nil
}

// SaveTranslations replaces a whole field's translation map, as the
// translation modal edits every language at once.
func (e *Editor) SaveTranslations(ctx context.Context, id, field string, values TranslationMap) error {
	if err := e.tree.SetTranslations(id, field, values, e.actor); err != nil {
		return err
	}
	var err error
	if field == FieldName {
		_, err = e.store.UpdateCategory(ctx, id, values, e.actor)
	} else {
		patches := make([]QuestionPatch, 0, len(values))
		for _, lang := range SupportedLanguages {
			v, ok := values[lang]
			if !ok {
				continue
			}
			text := v
			p := QuestionPatch{Language: lang}
			if field == FieldQuestion {
				p.Question = &text
			} else {
				p.Answer = &text
			}
			patches = append(patches, p)
		}
		_, err = e.store.UpdateQuestion(ctx, id, patches, e.actor)
	}
	if err := e.persist("save translations", err); err != nil {
		return err
	}
	e.nav.Refresh(e.tree, e.lang)
	return nil
}

// ReorderQuestionStep moves a question one step and persists the
// renumbered sibling group.
func (e *Editor) ReorderQuestionStep(ctx context.Context, id string, dir Direction) error {
	if err := e.tree.MoveQuestion(id, dir); err != nil {
		return err
	}
	err := e.store.ReorderQuestions(ctx, e.tree.QuestionOrderUpdates(id))
	return e.persist("reorder questions", err)
}

// ReorderQuestionTo moves a question to a 1-based position and persists
// the renumbered sibling group.
func (e *Editor) ReorderQuestionTo(ctx context.Context, id string, pos int) error {
	if err := e.tree.MoveQuestionToPosition(id, pos); err != nil {
		return err
	}
	err := e.store.ReorderQuestions(ctx, e.tree.QuestionOrderUpdates(id))
	return e.persist("reorder questions", err)
}

// ApplyQuestionPatches applies per-language patches to a question and
// persists them. Used by the HTTP surface where edits arrive as a patch
// payload rather than through a panel buffer.
func (e *Editor) ApplyQuestionPatches(ctx context.Context, id string, patches []QuestionPatch) (*Question, error) {
	return e.applyPatches(ctx, id, patches)
}

// ApplyQuestionOrder applies a bulk order payload to one sibling group.
// Items are applied lowest target order first, then the renumbered group
// is persisted once.
func (e *Editor) ApplyQuestionOrder(ctx context.Context, items []OrderUpdate) error {
	if len(items) == 0 {
		return nil
	}
	sorted := make([]OrderUpdate, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	for _, item := range sorted {
		if err := e.tree.MoveQuestionToPosition(item.ID, item.Order+1); err != nil {
			e.revert()
			return err
		}
	}
	err := e.store.ReorderQuestions(ctx, e.tree.QuestionOrderUpdates(sorted[0].ID))
	return e.persist("reorder questions", err)
}

// ApplyCategoryOrder applies a bulk order payload to the category list.
func (e *Editor) ApplyCategoryOrder(ctx context.Context, items []OrderUpdate) error {
	if len(items) == 0 {
		return nil
	}
	sorted := make([]OrderUpdate, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	for _, item := range sorted {
		if err := e.tree.MoveCategoryToPosition(item.ID, item.Order+1); err != nil {
			e.revert()
			return err
		}
	}
	err := e.store.ReorderCategories(ctx, e.tree.CategoryOrderUpdates())
	return e.persist("reorder categories", err)
}

// ReorderCategoryStep moves a category one step and persists the list.
func (e *Editor) ReorderCategoryStep(ctx context.Context, id string, dir Direction) error {
	if err := e.tree.MoveCategory(id, dir); err != nil {
		return err
	}
	err := e.store.ReorderCategories(ctx, e.tree.CategoryOrderUpdates())
	return e.persist("reorder categories", err)
}

// ReorderCategoryTo moves a category to a 1-based position and persists
// the list.
func (e *Editor) ReorderCategoryTo(ctx context.Context, id string, pos int) error {
	if err := e.tree.MoveCategoryToPosition(id, pos); err != nil {
		return err
	}
	err := e.store.ReorderCategories(ctx, e.tree.CategoryOrderUpdates())
	return e.persist("reorder categories", err)
}

// DropQuestion completes the drag gesture over questions: the dragged
// node swaps with the hovered sibling and the group is persisted.
func (e *Editor) DropQuestion(ctx context.Context) error {
	source, target, ok := e.drag.Drop()
	if !ok {
		return nil
	}
	if err := e.tree.SwapQuestions(source, target); err != nil {
		return err
	}
	err := e.store.ReorderQuestions(ctx, e.tree.QuestionOrderUpdates(source))
	return e.persist("reorder questions", err)
}

// DropCategory completes the drag gesture over categories.
func (e *Editor) DropCategory(ctx context.Context) error {
	source, target, ok := e.drag.Drop()
	if !ok {
		return nil
	}
	if err := e.tree.SwapCategories(source, target); err != nil {
		return err
	}
	err := e.store.ReorderCategories(ctx, e.tree.CategoryOrderUpdates())
	return e.persist("reorder categories", err)
}

// SelectCategory navigates to a category root; any open panel closes.
func (e *Editor) SelectCategory(id string) error {
	if err := e.nav.SelectCategory(e.tree, id, e.lang); err != nil {
		return err
	}
	e.panels.Close()
	return nil
}

// EnterQuestion navigates into a question's sub-questions.
func (e *Editor) EnterQuestion(id string) error {
	if err := e.nav.EnterQuestion(e.tree, id, e.lang); err != nil {
		return err
	}
	e.panels.Close()
	return nil
}

// ClickCrumb truncates the breadcrumb path.
func (e *Editor) ClickCrumb(i int) error {
	if err := e.nav.ClickCrumb(i); err != nil {
		return err
	}
	e.panels.Close()
	return nil
}

// Search runs the forest search in the active editing language.
func (e *Editor) Search(query string) []SearchResult {
	return e.tree.Search(query, e.lang)
}

// SelectSearchResult navigates to a match's container and marks the
// matched node for highlighting.
func (e *Editor) SelectSearchResult(res SearchResult) {
	e.nav.ApplySearchResult(res)
	e.panels.Close()
}

// UploadAttachment stores a file and returns its opaque reference for a
// panel buffer. Upload failures do not touch the rest of the buffer.
func (e *Editor) UploadAttachment(ctx context.Context, filename string, r io.Reader) (Attachment, error) {
	att, err := e.files.Upload(ctx, filename, r)
	if err != nil {
		e.logger.Error("attachment upload failed", "name", filename, "error", err)
		return Attachment{}, &UploadError{Name: filename, Err: err}
	}
	return att, nil
}

// DeleteAttachment removes a file from storage, then clears the
// attachment reference on the question for the active language. The two
// calls are sequenced here, not by the stores.
func (e *Editor) DeleteAttachment(ctx context.Context, questionID, url string) error {
	q, err := e.tree.QuestionByID(questionID)
	if err != nil {
		return err
	}
	if err := e.files.Delete(ctx, url); err != nil {
		e.logger.Error("attachment delete failed", "url", url, "error", err)
		return &DeleteAttachmentError{URL: url, Err: err}
	}
	questionText := Resolve(q.Question, e.lang)
	answerText := ""
	if HasContent(q.Answer) {
		answerText = resolveOrEmpty(q.Answer, e.lang)
	}
	patch := QuestionPatch{
		Language:        e.lang,
		Question:        &questionText,
		Answer:          &answerText,
		ClearAttachment: true,
	}
	if _, err := e.tree.UpdateQuestion(questionID, []QuestionPatch{patch}, e.actor); err != nil {
		return err
	}
	_, err = e.store.UpdateQuestion(ctx, questionID, []QuestionPatch{patch}, e.actor)
	return e.persist("clear attachment", err)
}

// MissingTranslations returns the global gap counter for the supported
// language set.
func (e *Editor) MissingTranslations() int {
	return e.tree.MissingTranslations(SupportedLanguages)
}
