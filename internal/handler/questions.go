// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strings"

	"github.com/olegiv/flowadmin/internal/flow"
	"github.com/olegiv/flowadmin/internal/middleware"
	"github.com/olegiv/flowadmin/internal/model"
)

// questionNode is a question with its sub-question forest attached, as
// the admin tree view consumes it.
type questionNode struct {
	*flow.Question
	SubQuestions []questionNode `json:"subQuestions,omitempty"`
}

// categoryForest is one category with its ordered question forest.
type categoryForest struct {
	Category  *flow.Category `json:"category"`
	Questions []questionNode `json:"questions"`
}

func (h *Handler) buildForest(tree *flow.Tree, roots []*flow.Question) []questionNode {
	nodes := make([]questionNode, 0, len(roots))
	for _, q := range roots {
		nodes = append(nodes, questionNode{
			Question:     q,
			SubQuestions: h.buildForest(tree, tree.SubQuestions(q.ID)),
		})
	}
	return nodes
}

// ListQuestions returns the full forest grouped by category.
func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	done := h.begin(r)
	defer done()

	tree := h.editor.Tree()
	forests := make([]categoryForest, 0, len(tree.Categories()))
	for _, c := range tree.Categories() {
		forests = append(forests, categoryForest{
			Category:  c,
			Questions: h.buildForest(tree, tree.RootQuestions(c.ID)),
		})
	}
	writeData(w, http.StatusOK, forests)
}

// questionPatches converts request translations into engine patches,
// sanitizing answer HTML on the way in.
func (h *Handler) questionPatches(translations []translationPayload, order *int) []flow.QuestionPatch {
	patches := make([]flow.QuestionPatch, 0, len(translations))
	for _, tr := range translations {
		lang := strings.ToLower(strings.TrimSpace(tr.Language))
		if lang == "" {
			continue
		}
		answer := h.sanitizer.Sanitize(tr.Answer)
		p := flow.QuestionPatch{
			Language: lang,
			Answer:   &answer,
		}
		if question := strings.TrimSpace(tr.Question); question != "" {
			p.Question = &question
		}
		if tr.AttachmentURL != nil {
			if *tr.AttachmentURL == "" {
				p.ClearAttachment = true
			} else {
				att := flow.Attachment{URL: *tr.AttachmentURL}
				if tr.AttachmentName != nil {
					att.Name = *tr.AttachmentName
				}
				p.Attachment = &att
			}
		}
		patches = append(patches, p)
	}
	if order != nil && len(patches) > 0 {
		patches[0].Order = order
	}
	return patches
}

// CreateQuestion creates a root or nested question from per-language
// texts. New questions are prepended within their sibling group.
func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CategoryID   string               `json:"categoryId"`
		ParentID     string               `json:"parentId"`
		Translations []translationPayload `json:"translations"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", nil)
		return
	}

	texts := flow.TranslationMap{}
	for _, tr := range req.Translations {
		lang := strings.ToLower(strings.TrimSpace(tr.Language))
		if lang != "" {
			texts[lang] = strings.TrimSpace(tr.Question)
		}
	}
	if !flow.HasContent(texts) {
		writeJSONError(w, http.StatusBadRequest, "validation_failed", "At least one question text is required", nil)
		return
	}

	done := h.begin(r)
	defer done()

	lang := primaryLanguage(texts)
	h.editor.SetLanguage(lang)

	var q *flow.Question
	var err error
	if req.ParentID != "" {
		q, err = h.editor.AddQuestionUnder(r.Context(), texts[lang], req.ParentID)
	} else {
		q, err = h.editor.AddQuestion(r.Context(), texts[lang], req.CategoryID)
	}
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	if patches := h.questionPatches(req.Translations, nil); len(patches) > 0 {
		if q, err = h.editor.ApplyQuestionPatches(r.Context(), q.ID, patches); err != nil {
			h.writeEngineError(w, err)
			return
		}
	}

	h.invalidateSnapshots(r)
	_ = h.events.LogQuestionEvent(r.Context(), model.EventLevelInfo, "Question created",
		middleware.GetUserIDPtr(r), r.RemoteAddr, map[string]any{"question_id": q.ID})
	writeData(w, http.StatusCreated, q)
}

// UpdateQuestion merges per-language texts, answers, attachments and an
// optional order override into a question.
func (h *Handler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID           string               `json:"id"`
		Order        *int                 `json:"order,omitempty"`
		Translations []translationPayload `json:"translations"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", nil)
		return
	}
	if req.ID == "" {
		writeJSONError(w, http.StatusBadRequest, "validation_failed", "id is required", nil)
		return
	}

	patches := h.questionPatches(req.Translations, req.Order)
	if len(patches) == 0 {
		writeJSONError(w, http.StatusBadRequest, "validation_failed", "translations are required", nil)
		return
	}

	done := h.begin(r)
	defer done()

	q, err := h.editor.ApplyQuestionPatches(r.Context(), req.ID, patches)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.invalidateSnapshots(r)
	writeData(w, http.StatusOK, q)
}

// DeleteQuestion cascades over the question's subtree.
func (h *Handler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSONError(w, http.StatusBadRequest, "validation_failed", "id is required", nil)
		return
	}

	done := h.begin(r)
	defer done()

	if err := h.editor.DeleteQuestion(r.Context(), id); err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.invalidateSnapshots(r)
	_ = h.events.LogQuestionEvent(r.Context(), model.EventLevelInfo, "Question deleted",
		middleware.GetUserIDPtr(r), r.RemoteAddr, map[string]any{"question_id": id})
	writeData(w, http.StatusOK, map[string]string{"id": id})
}

// ReorderQuestions applies a bulk order payload to one sibling group.
func (h *Handler) ReorderQuestions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []flow.OrderUpdate `json:"items"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", nil)
		return
	}

	done := h.begin(r)
	defer done()

	if err := h.editor.ApplyQuestionOrder(r.Context(), req.Items); err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.invalidateSnapshots(r)
	writeData(w, http.StatusOK, map[string]int{"reordered": len(req.Items)})
}
