// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/olegiv/flowadmin/internal/middleware"
	"github.com/olegiv/flowadmin/internal/model"
)

// maxUploadBody bounds attachment uploads at 25 MB.
const maxUploadBody = 25 << 20

// Upload stores the request body as an attachment file and returns its
// opaque {url, name} reference. The file is not linked to any question
// until a later question update references it.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		writeJSONError(w, http.StatusBadRequest, "validation_failed", "filename is required", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)

	done := h.begin(r)
	att, err := h.editor.UploadAttachment(r.Context(), filename, r.Body)
	done()
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	_ = h.events.LogMediaEvent(r.Context(), model.EventLevelInfo, "Attachment uploaded",
		middleware.GetUserIDPtr(r), r.RemoteAddr, map[string]any{"url": att.URL, "name": att.Name})
	writeData(w, http.StatusCreated, att)
}

// DeleteUpload removes a stored attachment file. Question rows that
// still reference the URL are updated separately by the client.
func (h *Handler) DeleteUpload(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeJSONError(w, http.StatusBadRequest, "validation_failed", "url is required", nil)
		return
	}

	if err := h.files.Delete(r.Context(), url); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Attachment could not be removed", nil)
		return
	}

	_ = h.events.LogMediaEvent(r.Context(), model.EventLevelInfo, "Attachment deleted",
		middleware.GetUserIDPtr(r), r.RemoteAddr, map[string]any{"url": url})
	writeData(w, http.StatusOK, map[string]string{"url": url})
}
