// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/olegiv/flowadmin/internal/cache"
	"github.com/olegiv/flowadmin/internal/flow"
	"github.com/olegiv/flowadmin/internal/middleware"
)

// flowQuestionView is a question resolved to one language, as the bot
// consumes it.
type flowQuestionView struct {
	ID           string             `json:"id"`
	Question     string             `json:"question"`
	Answer       string             `json:"answer,omitempty"`
	Attachment   *flow.Attachment   `json:"attachment,omitempty"`
	SubQuestions []flowQuestionView `json:"subQuestions,omitempty"`
}

// flowCategoryView is a category with its resolved question forest.
type flowCategoryView struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Questions []flowQuestionView `json:"questions"`
}

// FlowSnapshot serves the full resolved content tree for the negotiated
// language, through the snapshot cache. Every admin mutation invalidates
// the cache, so a miss here rebuilds from the live tree.
func (h *Handler) FlowSnapshot(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLanguage(r)

	if h.snapshots != nil {
		if body, err := h.snapshots.Get(r.Context(), lang); err == nil {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(body)
			return
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.Warn("flow snapshot cache read failed", "error", err)
		}
	}

	h.mu.Lock()
	view := h.buildFlowView(lang)
	h.mu.Unlock()

	body, err := json.Marshal(dataEnvelope{Data: view})
	if err != nil {
		h.logger.Error("flow snapshot marshal failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Internal Server Error", nil)
		return
	}

	if h.snapshots != nil {
		if err := h.snapshots.Put(r.Context(), lang, body); err != nil {
			h.logger.Warn("flow snapshot cache write failed", "error", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (h *Handler) buildFlowView(lang string) []flowCategoryView {
	tree := h.editor.Tree()
	cats := tree.Categories()
	view := make([]flowCategoryView, 0, len(cats))
	for _, c := range cats {
		view = append(view, flowCategoryView{
			ID:        c.ID,
			Name:      flow.Resolve(c.Name, lang),
			Questions: h.buildFlowQuestions(tree, tree.RootQuestions(c.ID), lang),
		})
	}
	return view
}

func (h *Handler) buildFlowQuestions(tree *flow.Tree, qs []*flow.Question, lang string) []flowQuestionView {
	views := make([]flowQuestionView, 0, len(qs))
	for _, q := range qs {
		v := flowQuestionView{
			ID:           q.ID,
			Question:     flow.Resolve(q.Question, lang),
			SubQuestions: h.buildFlowQuestions(tree, tree.SubQuestions(q.ID), lang),
		}
		if flow.HasContent(q.Answer) {
			v.Answer = flow.Resolve(q.Answer, lang)
		}
		if att, ok := q.Attachments[lang]; ok {
			a := att
			v.Attachment = &a
		} else if att, ok := q.Attachments[flow.DefaultLanguage]; ok {
			a := att
			v.Attachment = &a
		}
		views = append(views, v)
	}
	return views
}
