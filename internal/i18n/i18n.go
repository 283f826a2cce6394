// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package i18n provides content-language negotiation for the flow.
package i18n

import (
	"golang.org/x/text/language"
)

// DefaultLanguage is the language used when negotiation fails.
const DefaultLanguage = "az"

// SupportedLanguages lists the content languages, default first.
var SupportedLanguages = []string{"az", "ru"}

var (
	supportedTags []language.Tag
	matcher       language.Matcher
)

func init() {
	supportedTags = make([]language.Tag, 0, len(SupportedLanguages))
	for _, code := range SupportedLanguages {
		supportedTags = append(supportedTags, language.MustParse(code))
	}
	matcher = language.NewMatcher(supportedTags)
}

// IsSupported reports whether code is a supported content language.
func IsSupported(code string) bool {
	for _, lang := range SupportedLanguages {
		if lang == code {
			return true
		}
	}
	return false
}

// Normalize returns code when supported, else the default language.
func Normalize(code string) string {
	if IsSupported(code) {
		return code
	}
	return DefaultLanguage
}

// Match negotiates a content language from an Accept-Language header.
// An unparsable or empty header yields the default language.
func Match(acceptLanguage string) string {
	if acceptLanguage == "" {
		return DefaultLanguage
	}
	desired, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(desired) == 0 {
		return DefaultLanguage
	}
	_, i, conf := matcher.Match(desired...)
	if conf == language.No {
		return DefaultLanguage
	}
	return SupportedLanguages[i]
}
