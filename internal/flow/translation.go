// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package flow implements the hierarchical content tree engine behind the
// flow builder: categories, questions and nested sub-questions with
// per-node translations, dense sibling ordering, breadcrumb navigation,
// full-forest search and translation auditing. The engine is in-memory
// and synchronous; persistence happens through the Store boundary owned
// by the Editor.
package flow

import "sort"

// DefaultLanguage is the language every text resolution falls back to
// before scanning for any non-empty value.
const DefaultLanguage = "az"

// Unknown is returned when a translation map has no usable value at all.
const Unknown = "Unknown"

// SupportedLanguages lists the content languages in display order.
var SupportedLanguages = []string{"az", "ru"}

// TranslationMap maps a language code to text. A missing key means
// "untranslated", which is distinct from an empty string only in intent:
// both count as missing for completeness purposes.
type TranslationMap map[string]string

// Attachment is an opaque reference to an uploaded file. The engine never
// interprets the URL; it only threads the pair through translations.
type Attachment struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// AttachmentMap maps a language code to its answer attachment.
type AttachmentMap map[string]Attachment

// Resolve returns the text for lang, falling back to the default
// language, then to the first non-empty value (supported-language order
// first, then remaining keys sorted), then to the Unknown sentinel.
// Every place the engine displays or matches text uses this exact order.
func Resolve(m TranslationMap, lang string) string {
	if v := m[lang]; v != "" {
		return v
	}
	if v := m[DefaultLanguage]; v != "" {
		return v
	}
	for _, code := range SupportedLanguages {
		if v := m[code]; v != "" {
			return v
		}
	}
	extra := make([]string, 0, len(m))
	for code := range m {
		extra = append(extra, code)
	}
	sort.Strings(extra)
	for _, code := range extra {
		if v := m[code]; v != "" {
			return v
		}
	}
	return Unknown
}

// Missing returns the subset of required languages that have no non-empty
// value in m, preserving the order of required.
func Missing(m TranslationMap, required []string) []string {
	var missing []string
	for _, code := range required {
		if m[code] == "" {
			missing = append(missing, code)
		}
	}
	return missing
}

// HasContent reports whether any language has a non-empty value.
func HasContent(m TranslationMap) bool {
	for _, v := range m {
		if v != "" {
			return true
		}
	}
	return false
}

// clone returns an independent copy of the map. Mutations never share
// translation maps between the live tree and snapshots.
func (m TranslationMap) clone() TranslationMap {
	if m == nil {
		return nil
	}
	out := make(TranslationMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m AttachmentMap) clone() AttachmentMap {
	if m == nil {
		return nil
	}
	out := make(AttachmentMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
