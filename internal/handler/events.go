// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// eventView is the JSON shape of one audit log entry.
type eventView struct {
	ID        int64           `json:"id"`
	Level     string          `json:"level"`
	Category  string          `json:"category"`
	Message   string          `json:"message"`
	UserID    *int64          `json:"userId,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	IPAddress string          `json:"ipAddress,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ListEvents returns the newest audit log entries.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.events.RecentEvents(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list events", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Internal Server Error", nil)
		return
	}

	views := make([]eventView, 0, len(events))
	for _, e := range events {
		v := eventView{
			ID:        e.ID,
			Level:     e.Level,
			Category:  e.Category,
			Message:   e.Message,
			IPAddress: e.IPAddress,
			CreatedAt: e.CreatedAt,
		}
		if e.UserID.Valid {
			id := e.UserID.Int64
			v.UserID = &id
		}
		if json.Valid([]byte(e.Metadata)) {
			v.Metadata = json.RawMessage(e.Metadata)
		}
		views = append(views, v)
	}
	writeData(w, http.StatusOK, views)
}
