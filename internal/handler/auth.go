// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/flowadmin/internal/auth"
	"github.com/olegiv/flowadmin/internal/middleware"
	"github.com/olegiv/flowadmin/internal/model"
)

// userView is the session identity returned after login.
type userView struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Login authenticates an admin by email and password and establishes a
// session. Failed attempts feed the account lockout tracker.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", nil)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "validation_failed", "email and password are required", nil)
		return
	}

	if locked, remaining := h.login.IsAccountLocked(email); locked {
		writeJSONError(w, http.StatusTooManyRequests, "account_locked",
			"Account temporarily locked. Try again in "+remaining.Round(time.Second).String(), nil)
		return
	}

	user, err := h.queries.GetUserByEmail(r.Context(), email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			h.logger.Error("login lookup failed", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "internal_error", "Internal Server Error", nil)
			return
		}
		h.failLogin(w, r, email)
		return
	}

	ok, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		h.failLogin(w, r, email)
		return
	}

	// Upgrade hashes created under older cost parameters
	if auth.NeedsRehash(user.PasswordHash) {
		if rehashed, err := auth.HashPassword(req.Password); err == nil {
			if err := h.queries.UpdateUserPassword(r.Context(), user.ID, rehashed, time.Now()); err != nil {
				h.logger.Warn("failed to upgrade password hash", "error", err, "user_id", user.ID)
			}
		}
	}

	// Session fixation protection
	if err := h.sessions.RenewToken(r.Context()); err != nil {
		h.logger.Error("session renew failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Internal Server Error", nil)
		return
	}
	h.sessions.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	h.login.RecordSuccessfulLogin(email)
	if err := h.queries.UpdateUserLastLogin(r.Context(), user.ID, time.Now()); err != nil {
		h.logger.Warn("failed to record last login", "error", err, "user_id", user.ID)
	}
	_ = h.events.LogAuthEvent(r.Context(), model.EventLevelInfo, "User logged in",
		&user.ID, r.RemoteAddr, nil)

	writeData(w, http.StatusOK, userView{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role})
}

// failLogin records a failed attempt and answers with a uniform 401 so
// the response does not reveal whether the account exists.
func (h *Handler) failLogin(w http.ResponseWriter, r *http.Request, email string) {
	locked, duration := h.login.RecordFailedAttempt(email)
	_ = h.events.LogAuthEvent(r.Context(), model.EventLevelWarning, "Login failed",
		nil, r.RemoteAddr, map[string]any{"email": email})

	if locked {
		writeJSONError(w, http.StatusTooManyRequests, "account_locked",
			"Account temporarily locked for "+duration.String(), nil)
		return
	}
	writeJSONError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password",
		map[string]string{"remainingAttempts": strconv.Itoa(h.login.GetRemainingAttempts(email))})
}

// Logout destroys the session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := h.sessions.GetInt64(r.Context(), middleware.SessionKeyUserID)
	if err := h.sessions.Destroy(r.Context()); err != nil {
		h.logger.Error("session destroy failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Internal Server Error", nil)
		return
	}
	if userID != 0 {
		_ = h.events.LogAuthEvent(r.Context(), model.EventLevelInfo, "User logged out",
			&userID, r.RemoteAddr, nil)
	}
	writeData(w, http.StatusOK, map[string]bool{"loggedOut": true})
}
