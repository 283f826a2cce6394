// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strings"

	"github.com/olegiv/flowadmin/internal/flow"
	"github.com/olegiv/flowadmin/internal/i18n"
	"github.com/olegiv/flowadmin/internal/middleware"
)

// Search runs the engine search and returns results with their
// breadcrumb paths. Language defaults to the negotiated request language.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	lang := strings.ToLower(r.URL.Query().Get("lang"))
	if !i18n.IsSupported(lang) {
		lang = middleware.GetLanguage(r)
	}

	done := h.begin(r)
	defer done()

	results := h.editor.Tree().Search(query, lang)
	if results == nil {
		results = []flow.SearchResult{}
	}
	writeData(w, http.StatusOK, results)
}

// TranslationAudit reports the global missing-translations counter and
// the individual gaps behind it.
func (h *Handler) TranslationAudit(w http.ResponseWriter, r *http.Request) {
	done := h.begin(r)
	defer done()

	gaps := h.editor.Tree().TranslationGaps(flow.SupportedLanguages)
	if gaps == nil {
		gaps = []flow.TranslationGap{}
	}
	writeData(w, http.StatusOK, map[string]any{
		"missing": len(gaps),
		"gaps":    gaps,
	})
}
