// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package flow

import (
	"regexp"
	"strings"
)

// MinQueryLength bounds search cost: shorter queries return no results.
const MinQueryLength = 2

// Match fields.
const (
	MatchQuestion = "question"
	MatchAnswer   = "answer"
)

// SearchResult is one match, annotated with the full breadcrumb path
// from its category down to the matched node.
type SearchResult struct {
	Question   *Question `json:"question"`
	CategoryID string    `json:"categoryId"`
	Path       []Crumb   `json:"path"`
	Field      string    `json:"field"`
	Snippet    string    `json:"snippet,omitempty"`
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// stripTags removes HTML markup from rich-text answers for snippets.
func stripTags(s string) string {
	return strings.Join(strings.Fields(tagPattern.ReplaceAllString(s, " ")), " ")
}

// Search runs a case-insensitive substring match over resolved question
// and answer text, depth-first through every category's forest in rank
// order. A node whose question and answer both match produces two
// results: the UI acts on them differently (an answer match shows a
// snippet). No relevance ranking is applied.
func (t *Tree) Search(query, lang string) []SearchResult {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return nil
	}
	needle := strings.ToLower(query)

	var results []SearchResult
	var walk func(qs []*Question, path []Crumb, categoryID string)
	walk = func(qs []*Question, path []Crumb, categoryID string) {
		for _, q := range qs {
			questionText := Resolve(q.Question, lang)
			answerText := ""
			if HasContent(q.Answer) {
				answerText = Resolve(q.Answer, lang)
			}

			nodePath := append(append([]Crumb{}, path...), Crumb{
				ID:    q.ID,
				Label: questionText,
				Type:  KindQuestion,
			})

			if strings.Contains(strings.ToLower(questionText), needle) {
				results = append(results, SearchResult{
					Question:   q,
					CategoryID: categoryID,
					Path:       nodePath,
					Field:      MatchQuestion,
				})
			}
			if answerText != "" && strings.Contains(strings.ToLower(answerText), needle) {
				results = append(results, SearchResult{
					Question:   q,
					CategoryID: categoryID,
					Path:       nodePath,
					Field:      MatchAnswer,
					Snippet:    stripTags(answerText),
				})
			}

			if children := t.SubQuestions(q.ID); len(children) > 0 {
				walk(children, nodePath, categoryID)
			}
		}
	}

	for _, c := range t.categories {
		catPath := []Crumb{{ID: c.ID, Label: Resolve(c.Name, lang), Type: KindCategory}}
		walk(t.RootQuestions(c.ID), catPath, c.ID)
	}
	return results
}
