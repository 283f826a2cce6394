// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package flow

// TranslationGap points at one untranslated field on one node.
type TranslationGap struct {
	NodeID   string `json:"nodeId"`
	NodeType string `json:"nodeType"` // category or question
	Field    string `json:"field"`    // name, question or answer
	Language string `json:"language"`
}

// MissingTranslations sums translation completeness across the whole
// tree for the required language set: every category name, every
// question text, and every answer. An answer only contributes gaps when
// the node has answer content in at least one language; an untouched
// question counts only its question-text gap.
func (t *Tree) MissingTranslations(required []string) int {
	return len(t.TranslationGaps(required))
}

// TranslationGaps returns every individual gap behind the global
// missing-translations counter, in forest traversal order.
func (t *Tree) TranslationGaps(required []string) []TranslationGap {
	var gaps []TranslationGap
	add := func(id, nodeType, field string, m TranslationMap) {
		for _, lang := range Missing(m, required) {
			gaps = append(gaps, TranslationGap{NodeID: id, NodeType: nodeType, Field: field, Language: lang})
		}
	}

	for _, c := range t.categories {
		add(c.ID, KindCategory, FieldName, c.Name)
	}

	var walk func(qs []*Question)
	walk = func(qs []*Question) {
		for _, q := range qs {
			add(q.ID, KindQuestion, FieldQuestion, q.Question)
			if HasContent(q.Answer) {
				add(q.ID, KindQuestion, FieldAnswer, q.Answer)
			}
			walk(t.SubQuestions(q.ID))
		}
	}
	for _, c := range t.categories {
		walk(t.RootQuestions(c.ID))
	}
	return gaps
}
