// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/olegiv/flowadmin/internal/i18n"
)

// ContextKeyLanguage is the context key for the resolved content language.
const ContextKeyLanguage ContextKey = "language"

// LanguageCookieName is the cookie name for language preference.
const LanguageCookieName = "flowadmin_lang"

// Language creates middleware that resolves the content language for the
// request. Priority order:
// 1. Query parameter ?lang=XX (explicit language switch, updates cookie)
// 2. Cookie preference
// 3. Accept-Language header
// 4. Default content language
func Language() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if queryLang := strings.ToLower(r.URL.Query().Get("lang")); queryLang != "" {
				if i18n.IsSupported(queryLang) {
					SetLanguageCookie(w, queryLang)
					next.ServeHTTP(w, r.WithContext(setLanguage(ctx, queryLang)))
					return
				}
			}

			if cookie, err := r.Cookie(LanguageCookieName); err == nil {
				code := strings.ToLower(cookie.Value)
				if i18n.IsSupported(code) {
					next.ServeHTTP(w, r.WithContext(setLanguage(ctx, code)))
					return
				}
			}

			lang := i18n.Match(r.Header.Get("Accept-Language"))
			next.ServeHTTP(w, r.WithContext(setLanguage(ctx, lang)))
		})
	}
}

func setLanguage(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, ContextKeyLanguage, code)
}

// GetLanguage retrieves the resolved language from the request context.
// Returns the default content language if the middleware did not run.
func GetLanguage(r *http.Request) string {
	code, ok := r.Context().Value(ContextKeyLanguage).(string)
	if !ok || code == "" {
		return i18n.DefaultLanguage
	}
	return code
}

// SetLanguageCookie sets the language preference cookie.
func SetLanguageCookie(w http.ResponseWriter, langCode string) {
	cookie := &http.Cookie{
		Name:     LanguageCookieName,
		Value:    langCode,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60, // 1 year
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, cookie)
}
