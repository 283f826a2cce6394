// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/flowadmin/internal/model"
)

func TestGetUser_NoUser(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if GetUser(r) != nil {
		t.Error("GetUser should return nil for empty context")
	}
	if GetUserID(r) != 0 {
		t.Error("GetUserID should return 0 for empty context")
	}
	if GetUserIDPtr(r) != nil {
		t.Error("GetUserIDPtr should return nil for empty context")
	}
	if GetUserEmail(r) != "" {
		t.Error("GetUserEmail should return empty string for empty context")
	}
}

func TestGetUser_WithUser(t *testing.T) {
	user := model.User{ID: 7, Email: "admin@example.com", Role: model.RoleAdmin}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(context.WithValue(r.Context(), ContextKeyUser, user))

	got := GetUser(r)
	if got == nil {
		t.Fatal("GetUser returned nil")
	}
	if got.ID != 7 {
		t.Errorf("ID = %d, want 7", got.ID)
	}
	if GetUserID(r) != 7 {
		t.Errorf("GetUserID = %d, want 7", GetUserID(r))
	}
	if ptr := GetUserIDPtr(r); ptr == nil || *ptr != 7 {
		t.Errorf("GetUserIDPtr = %v, want 7", ptr)
	}
	if GetUserEmail(r) != "admin@example.com" {
		t.Errorf("GetUserEmail = %q", GetUserEmail(r))
	}
}

func TestLanguageMiddleware(t *testing.T) {
	var seen string
	handler := Language()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetLanguage(r)
	}))

	tests := []struct {
		name   string
		url    string
		cookie string
		accept string
		want   string
	}{
		{"default", "/", "", "", "az"},
		{"query param", "/?lang=ru", "", "", "ru"},
		{"query overrides cookie", "/?lang=az", "ru", "", "az"},
		{"cookie", "/", "ru", "", "ru"},
		{"invalid cookie falls through", "/", "en", "ru,en;q=0.5", "ru"},
		{"accept language", "/", "", "ru-RU,ru;q=0.9", "ru"},
		{"unsupported accept falls back", "/", "", "de-DE", "az"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: LanguageCookieName, Value: tt.cookie})
			}
			if tt.accept != "" {
				r.Header.Set("Accept-Language", tt.accept)
			}
			handler.ServeHTTP(httptest.NewRecorder(), r)
			if seen != tt.want {
				t.Errorf("language = %q, want %q", seen, tt.want)
			}
		})
	}
}

func TestLanguageMiddleware_QuerySetsCookie(t *testing.T) {
	handler := Language()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?lang=ru", nil))

	cookies := w.Result().Cookies()
	var found bool
	for _, c := range cookies {
		if c.Name == LanguageCookieName && c.Value == "ru" {
			found = true
			if !c.HttpOnly {
				t.Error("language cookie should be HttpOnly")
			}
		}
	}
	if !found {
		t.Error("expected language cookie to be set")
	}
}

func TestGetLanguage_Default(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetLanguage(r); got != "az" {
		t.Errorf("GetLanguage = %q, want %q", got, "az")
	}
}

func TestLoginProtection_AccountLockout(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		MaxFailedAttempts: 3,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})

	email := "admin@example.com"

	if locked, _ := lp.IsAccountLocked(email); locked {
		t.Fatal("account should not start locked")
	}

	lp.RecordFailedAttempt(email)
	lp.RecordFailedAttempt(email)
	if remaining := lp.GetRemainingAttempts(email); remaining != 1 {
		t.Errorf("remaining = %d, want 1", remaining)
	}

	locked, duration := lp.RecordFailedAttempt(email)
	if !locked {
		t.Fatal("account should be locked after third failure")
	}
	if duration != time.Minute {
		t.Errorf("lock duration = %v, want %v", duration, time.Minute)
	}

	if locked, remaining := lp.IsAccountLocked(email); !locked || remaining <= 0 {
		t.Error("IsAccountLocked should report the active lock")
	}
}

func TestLoginProtection_SuccessClearsAttempts(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{MaxFailedAttempts: 3})

	lp.RecordFailedAttempt("user@example.com")
	lp.RecordFailedAttempt("user@example.com")
	lp.RecordSuccessfulLogin("user@example.com")

	if remaining := lp.GetRemainingAttempts("user@example.com"); remaining != 3 {
		t.Errorf("remaining = %d, want 3", remaining)
	}
}

func TestLoginProtection_MiddlewareRateLimits(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{IPRateLimit: 1, IPBurst: 2})
	handler := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last int
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		r.Header.Set("X-Real-IP", "10.0.0.9")
		handler.ServeHTTP(w, r)
		last = w.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", last, http.StatusTooManyRequests)
	}

	// GET requests bypass the limiter
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/login", nil)
	r.Header.Set("X-Real-IP", "10.0.0.9")
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("GET status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestGlobalRateLimiter(t *testing.T) {
	rl := NewGlobalRateLimiter(1, 1)
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/flow", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.5")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("first request status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if !strings.Contains(w.Body.String(), "rate_limit_exceeded") {
		t.Errorf("body = %q, want rate_limit_exceeded code", w.Body.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(DefaultSecurityHeadersConfig(false))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if got := w.Header().Get("Strict-Transport-Security"); !strings.Contains(got, "max-age=31536000") {
		t.Errorf("Strict-Transport-Security = %q", got)
	}
}

func TestSecurityHeaders_DevSkipsHSTS(t *testing.T) {
	handler := SecurityHeaders(DefaultSecurityHeadersConfig(true))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("HSTS should be absent in development, got %q", got)
	}
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	if ip := getClientIP(r); ip != "192.0.2.1:1234" {
		t.Errorf("ip = %q", ip)
	}

	r.Header.Set("X-Forwarded-For", "198.51.100.7")
	if ip := getClientIP(r); ip != "198.51.100.7" {
		t.Errorf("ip = %q", ip)
	}

	r.Header.Set("X-Real-IP", "203.0.113.2")
	if ip := getClientIP(r); ip != "203.0.113.2" {
		t.Errorf("ip = %q", ip)
	}
}
