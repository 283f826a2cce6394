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

// translationPayload is one per-language entry in create/update requests.
type translationPayload struct {
	Language       string  `json:"language"`
	Name           string  `json:"name,omitempty"`
	Question       string  `json:"question,omitempty"`
	Answer         string  `json:"answer,omitempty"`
	AttachmentURL  *string `json:"attachmentUrl,omitempty"`
	AttachmentName *string `json:"attachmentName,omitempty"`
}

// namesFromPayload builds a translation map from category name entries.
func namesFromPayload(translations []translationPayload) flow.TranslationMap {
	names := flow.TranslationMap{}
	for _, tr := range translations {
		lang := strings.ToLower(strings.TrimSpace(tr.Language))
		if lang == "" {
			continue
		}
		names[lang] = strings.TrimSpace(tr.Name)
	}
	return names
}

// primaryLanguage picks the language a node is created in: the default
// content language when present in the payload, otherwise the first entry.
func primaryLanguage(m flow.TranslationMap) string {
	if m[flow.DefaultLanguage] != "" {
		return flow.DefaultLanguage
	}
	for _, lang := range flow.SupportedLanguages {
		if m[lang] != "" {
			return lang
		}
	}
	return flow.DefaultLanguage
}

// ListCategories returns the ordered category list with full name maps.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	done := h.begin(r)
	defer done()

	writeData(w, http.StatusOK, h.editor.Tree().Categories())
}

// CreateCategory creates a category from per-language names.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Translations []translationPayload `json:"translations"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", nil)
		return
	}

	names := namesFromPayload(req.Translations)
	if !flow.HasContent(names) {
		writeJSONError(w, http.StatusBadRequest, "validation_failed", "At least one category name is required", nil)
		return
	}

	done := h.begin(r)
	defer done()

	lang := primaryLanguage(names)
	h.editor.SetLanguage(lang)
	c, err := h.editor.AddCategory(r.Context(), names[lang])
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	if len(names) > 1 {
		if err := h.editor.SaveTranslations(r.Context(), c.ID, flow.FieldName, names); err != nil {
			h.writeEngineError(w, err)
			return
		}
	}

	h.invalidateSnapshots(r)
	_ = h.events.LogCategoryEvent(r.Context(), model.EventLevelInfo, "Category created",
		middleware.GetUserIDPtr(r), r.RemoteAddr, map[string]any{"category_id": c.ID})
	writeData(w, http.StatusCreated, c)
}

// UpdateCategory upserts per-language names for a category.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID           string               `json:"id"`
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

	names := namesFromPayload(req.Translations)
	if len(names) == 0 {
		writeJSONError(w, http.StatusBadRequest, "validation_failed", "translations are required", nil)
		return
	}

	done := h.begin(r)
	defer done()

	if err := h.editor.SaveTranslations(r.Context(), req.ID, flow.FieldName, names); err != nil {
		h.writeEngineError(w, err)
		return
	}
	c, err := h.editor.Tree().CategoryByID(req.ID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.invalidateSnapshots(r)
	writeData(w, http.StatusOK, c)
}

// DeleteCategory cascades over the category's question forest.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSONError(w, http.StatusBadRequest, "validation_failed", "id is required", nil)
		return
	}

	done := h.begin(r)
	defer done()

	if err := h.editor.DeleteCategory(r.Context(), id); err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.invalidateSnapshots(r)
	_ = h.events.LogCategoryEvent(r.Context(), model.EventLevelInfo, "Category deleted",
		middleware.GetUserIDPtr(r), r.RemoteAddr, map[string]any{"category_id": id})
	writeData(w, http.StatusOK, map[string]string{"id": id})
}

// ReorderCategories applies a bulk order payload to the category list.
func (h *Handler) ReorderCategories(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []flow.OrderUpdate `json:"items"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", nil)
		return
	}

	done := h.begin(r)
	defer done()

	if err := h.editor.ApplyCategoryOrder(r.Context(), req.Items); err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.invalidateSnapshots(r)
	writeData(w, http.StatusOK, h.editor.Tree().Categories())
}
