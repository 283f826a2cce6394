// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/olegiv/flowadmin/internal/flow"
)

// dataEnvelope wraps every successful response.
type dataEnvelope struct {
	Data any `json:"data"`
}

// errorEnvelope wraps every error response.
type errorEnvelope struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// writeData writes a JSON success response.
func writeData(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(dataEnvelope{Data: v})
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	var env errorEnvelope
	env.Error.Code = code
	env.Error.Message = message
	env.Error.Details = details
	_ = json.NewEncoder(w).Encode(env)
}

// maxBodySize bounds JSON request bodies at 1 MB. Uploads use their own limit.
const maxBodySize = 1 << 20

// decodeJSON decodes a JSON request body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

// writeEngineError maps engine error types onto HTTP statuses and the
// JSON error envelope.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	var (
		validation *flow.ValidationError
		notFound   *flow.NotFoundError
		persist    *flow.PersistenceError
		upload     *flow.UploadError
		delAtt     *flow.DeleteAttachmentError
	)

	switch {
	case errors.As(err, &validation):
		writeJSONError(w, http.StatusBadRequest, "validation_failed", validation.Error(),
			map[string]string{"field": validation.Field})
	case errors.As(err, &notFound):
		writeJSONError(w, http.StatusNotFound, "not_found", notFound.Error(), nil)
	case errors.As(err, &persist):
		h.logger.Error("persistence error", "op", persist.Op, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "persistence_failed",
			"The change could not be saved and was rolled back", nil)
	case errors.As(err, &upload):
		h.logger.Error("upload error", "name", upload.Name, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "upload_failed", "Attachment upload failed", nil)
	case errors.As(err, &delAtt):
		h.logger.Error("attachment delete error", "url", delAtt.URL, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "attachment_delete_failed", "Attachment removal failed", nil)
	default:
		h.logger.Error("unhandled error", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Internal Server Error", nil)
	}
}
