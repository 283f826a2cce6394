// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package flow

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Node kinds used in paths, breadcrumbs and errors.
const (
	KindCategory = "category"
	KindQuestion = "question"
)

// Category is a top-level grouping of questions.
type Category struct {
	ID        string         `json:"id"`
	Order     int            `json:"order"`
	Name      TranslationMap `json:"name"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	CreatedBy string         `json:"createdBy,omitempty"`
	UpdatedBy string         `json:"updatedBy,omitempty"`
}

// Question is a tree node. CategoryID is set only for root-level
// questions; nested questions are reachable through their parent's child
// list in the arena and carry no back-reference themselves.
type Question struct {
	ID          string         `json:"id"`
	CategoryID  string         `json:"categoryId,omitempty"`
	Question    TranslationMap `json:"question"`
	Answer      TranslationMap `json:"answer,omitempty"`
	Attachments AttachmentMap  `json:"attachments,omitempty"`
	Order       int            `json:"order"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	CreatedBy   string         `json:"createdBy,omitempty"`
	UpdatedBy   string         `json:"updatedBy,omitempty"`
}

func (q *Question) clone() *Question {
	cp := *q
	cp.Question = q.Question.clone()
	cp.Answer = q.Answer.clone()
	cp.Attachments = q.Attachments.clone()
	return &cp
}

// node is an arena entry: the question plus its edges. The tree is a
// strict forest, so every node has exactly one parent list.
type node struct {
	q        *Question
	parent   string   // parent question id, "" for category roots
	children []string // ordered child ids, most recent first on insert
}

// Tree holds the category list and the question forest in a flat arena
// keyed by id. Lookups are O(1); mutations renumber only the touched
// sibling group and bump versions only along the touched ancestor chain.
// The tree performs no locking: a single logical actor drives it.
type Tree struct {
	categories []*Category
	nodes      map[string]*node
	roots      map[string][]string // category id -> ordered root question ids
	versions   map[string]uint64
	clock      uint64
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{
		nodes:    make(map[string]*node),
		roots:    make(map[string][]string),
		versions: make(map[string]uint64),
	}
}

// Version returns the mutation stamp of a node or category. It changes
// whenever the node itself or anything in its subtree is mutated, so a
// caller can cheaply detect "did this subtree change".
func (t *Tree) Version(id string) uint64 { return t.versions[id] }

// bumpPath stamps id and every ancestor up to and including its category.
func (t *Tree) bumpPath(id string) {
	t.clock++
	for id != "" {
		t.versions[id] = t.clock
		n, ok := t.nodes[id]
		if !ok {
			return // category reached
		}
		if n.parent != "" {
			id = n.parent
			continue
		}
		id = n.q.CategoryID
	}
}

// Categories returns the ordered category list. The slice is a copy;
// the elements are live and must be treated as read-only.
func (t *Tree) Categories() []*Category {
	out := make([]*Category, len(t.categories))
	copy(out, t.categories)
	return out
}

// CategoryByID returns a category or a NotFoundError.
func (t *Tree) CategoryByID(id string) (*Category, error) {
	for _, c := range t.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, &NotFoundError{Kind: KindCategory, ID: id}
}

// QuestionByID is the full-forest lookup, backed by the arena index.
func (t *Tree) QuestionByID(id string) (*Question, error) {
	if n, ok := t.nodes[id]; ok {
		return n.q, nil
	}
	return nil, &NotFoundError{Kind: KindQuestion, ID: id}
}

// ParentOf returns the parent question id of a nested question, or ""
// for root-level questions.
func (t *Tree) ParentOf(id string) string {
	if n, ok := t.nodes[id]; ok {
		return n.parent
	}
	return ""
}

// RootQuestions returns the ordered root questions of a category.
func (t *Tree) RootQuestions(categoryID string) []*Question {
	return t.questionsFromIDs(t.roots[categoryID])
}

// SubQuestions returns the ordered children of a question.
func (t *Tree) SubQuestions(id string) []*Question {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	return t.questionsFromIDs(n.children)
}

// QuestionCount returns the number of questions in the whole forest.
func (t *Tree) QuestionCount() int { return len(t.nodes) }

func (t *Tree) questionsFromIDs(ids []string) []*Question {
	out := make([]*Question, 0, len(ids))
	for _, id := range ids {
		if n, ok := t.nodes[id]; ok {
			out = append(out, n.q)
		}
	}
	return out
}

// AddCategory creates a category named in lang, appended with the next
// dense order value.
func (t *Tree) AddCategory(name, lang, actor string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	now := time.Now()
	c := &Category{
		ID:        uuid.NewString(),
		Order:     len(t.categories),
		Name:      TranslationMap{lang: name},
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: actor,
		UpdatedBy: actor,
	}
	t.categories = append(t.categories, c)
	t.bumpPath(c.ID)
	return c, nil
}

// AddQuestion creates a leaf question in lang. Exactly one of categoryID
// and parentID must be set. New questions are prepended to their sibling
// group (newest first) and the group is renumbered densely.
func (t *Tree) AddQuestion(text, lang, categoryID, parentID, actor string) (*Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ValidationError{Field: "question", Reason: "required"}
	}
	if (categoryID == "") == (parentID == "") {
		return nil, &ValidationError{Field: "parent", Reason: "exactly one of categoryId and parentId is required"}
	}
	if parentID != "" {
		if _, ok := t.nodes[parentID]; !ok {
			return nil, &NotFoundError{Kind: KindQuestion, ID: parentID}
		}
	} else {
		if _, err := t.CategoryByID(categoryID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	q := &Question{
		ID:         uuid.NewString(),
		CategoryID: categoryID,
		Question:   TranslationMap{lang: text},
		CreatedAt:  now,
		UpdatedAt:  now,
		CreatedBy:  actor,
		UpdatedBy:  actor,
	}
	t.nodes[q.ID] = &node{q: q, parent: parentID}

	if parentID != "" {
		p := t.nodes[parentID]
		p.children = append([]string{q.ID}, p.children...)
		t.renumber(p.children)
	} else {
		t.roots[categoryID] = append([]string{q.ID}, t.roots[categoryID]...)
		t.renumber(t.roots[categoryID])
	}
	t.bumpPath(q.ID)
	return q, nil
}

// QuestionPatch merges translation fields for one language. Nil fields
// are left untouched; other languages are never overwritten. Order, when
// set, overrides the node's rank and the sibling group is re-sorted and
// renumbered to stay dense.
type QuestionPatch struct {
	Language        string
	Question        *string
	Answer          *string
	Attachment      *Attachment
	ClearAttachment bool
	Order           *int
}

// UpdateQuestion applies one or more per-language patches to a question.
func (t *Tree) UpdateQuestion(id string, patches []QuestionPatch, actor string) (*Question, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, &NotFoundError{Kind: KindQuestion, ID: id}
	}
	q := n.q
	reorder := false
	for _, p := range patches {
		if p.Language == "" {
			return nil, &ValidationError{Field: "language", Reason: "required"}
		}
		if p.Question != nil {
			if strings.TrimSpace(*p.Question) == "" {
				return nil, &ValidationError{Field: "question", Reason: "required"}
			}
		}
	}
	for _, p := range patches {
		if p.Question != nil {
			if q.Question == nil {
				q.Question = TranslationMap{}
			}
			q.Question[p.Language] = strings.TrimSpace(*p.Question)
		}
		if p.Answer != nil {
			if q.Answer == nil {
				q.Answer = TranslationMap{}
			}
			q.Answer[p.Language] = *p.Answer
		}
		if p.ClearAttachment {
			delete(q.Attachments, p.Language)
		} else if p.Attachment != nil {
			if q.Attachments == nil {
				q.Attachments = AttachmentMap{}
			}
			q.Attachments[p.Language] = *p.Attachment
		}
		if p.Order != nil {
			q.Order = *p.Order
			reorder = true
		}
	}
	q.UpdatedAt = time.Now()
	q.UpdatedBy = actor
	if reorder {
		ids, _ := t.siblingIDs(id)
		t.sortByOrder(ids)
		t.renumber(ids)
	}
	t.bumpPath(id)
	return q, nil
}

// Translatable fields addressed by the translation modal.
const (
	FieldName     = "name"
	FieldQuestion = "question"
	FieldAnswer   = "answer"
)

// SetTranslations replaces the whole translation map of one field, for a
// category name or a question's text or answer. Used by the translation
// modal, which edits all languages at once.
func (t *Tree) SetTranslations(id, field string, values TranslationMap, actor string) error {
	if field == FieldName {
		c, err := t.CategoryByID(id)
		if err != nil {
			return err
		}
		c.Name = values.clone()
		c.UpdatedAt = time.Now()
		c.UpdatedBy = actor
		t.bumpPath(id)
		return nil
	}
	n, ok := t.nodes[id]
	if !ok {
		return &NotFoundError{Kind: KindQuestion, ID: id}
	}
	switch field {
	case FieldQuestion:
		n.q.Question = values.clone()
	case FieldAnswer:
		n.q.Answer = values.clone()
	default:
		return &ValidationError{Field: "field", Reason: "unknown field " + field}
	}
	n.q.UpdatedAt = time.Now()
	n.q.UpdatedBy = actor
	t.bumpPath(id)
	return nil
}

// UpdateCategoryName merges a single-language name change.
func (t *Tree) UpdateCategoryName(id, lang, name, actor string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	c, err := t.CategoryByID(id)
	if err != nil {
		return nil, err
	}
	if c.Name == nil {
		c.Name = TranslationMap{}
	}
	c.Name[lang] = name
	c.UpdatedAt = time.Now()
	c.UpdatedBy = actor
	t.bumpPath(id)
	return c, nil
}

// DeleteCategory removes a category and cascades over every root
// question carrying its id, including their whole subtrees. Remaining
// categories are renumbered densely.
func (t *Tree) DeleteCategory(id string) error {
	idx := -1
	for i, c := range t.categories {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &NotFoundError{Kind: KindCategory, ID: id}
	}
	for _, rootID := range t.roots[id] {
		t.removeSubtree(rootID)
	}
	delete(t.roots, id)
	delete(t.versions, id)
	t.categories = append(t.categories[:idx], t.categories[idx+1:]...)
	for i, c := range t.categories {
		c.Order = i
	}
	t.clock++
	return nil
}

// DeleteQuestion removes a question and its entire subtree, wherever it
// sits in the forest, then renumbers its former siblings.
func (t *Tree) DeleteQuestion(id string) error {
	n, ok := t.nodes[id]
	if !ok {
		return &NotFoundError{Kind: KindQuestion, ID: id}
	}
	parent := n.parent
	category := n.q.CategoryID

	t.removeSubtree(id)

	if parent != "" {
		if p, ok := t.nodes[parent]; ok {
			p.children = removeID(p.children, id)
			t.renumber(p.children)
		}
		t.bumpPath(parent)
		return nil
	}
	t.roots[category] = removeID(t.roots[category], id)
	t.renumber(t.roots[category])
	t.bumpPath(category)
	return nil
}

func (t *Tree) removeSubtree(id string) {
	n, ok := t.nodes[id]
	if !ok {
		return
	}
	for _, child := range n.children {
		t.removeSubtree(child)
	}
	delete(t.nodes, id)
	delete(t.versions, id)
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// Crumb is one breadcrumb segment with its display label resolved in the
// requested language.
type Crumb struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"` // category or question
}

// Path returns the root-to-node breadcrumb path for a question: its
// category first, then every ancestor question down to the node itself.
func (t *Tree) Path(id, lang string) ([]Crumb, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, &NotFoundError{Kind: KindQuestion, ID: id}
	}
	var chain []*Question
	for {
		chain = append([]*Question{n.q}, chain...)
		if n.parent == "" {
			break
		}
		n = t.nodes[n.parent]
	}
	c, err := t.CategoryByID(chain[0].CategoryID)
	if err != nil {
		return nil, err
	}
	path := make([]Crumb, 0, len(chain)+1)
	path = append(path, Crumb{ID: c.ID, Label: Resolve(c.Name, lang), Type: KindCategory})
	for _, q := range chain {
		path = append(path, Crumb{ID: q.ID, Label: Resolve(q.Question, lang), Type: KindQuestion})
	}
	return path, nil
}

// RestoreCategory reinserts a persisted category with its identity and
// audit fields intact. Callers feed categories in rank order; the list
// is renumbered densely as it grows.
func (t *Tree) RestoreCategory(c *Category) {
	c.Order = len(t.categories)
	t.categories = append(t.categories, c)
}

// RestoreQuestion reinserts a persisted question under its parent,
// appended in feed order. Parents must be restored before children.
func (t *Tree) RestoreQuestion(q *Question, parentID string) error {
	if (q.CategoryID == "") == (parentID == "") {
		return &ValidationError{Field: "parent", Reason: "exactly one of categoryId and parentId is required"}
	}
	t.nodes[q.ID] = &node{q: q, parent: parentID}
	if parentID != "" {
		p, ok := t.nodes[parentID]
		if !ok {
			return &NotFoundError{Kind: KindQuestion, ID: parentID}
		}
		p.children = append(p.children, q.ID)
		t.renumber(p.children)
		return nil
	}
	if _, err := t.CategoryByID(q.CategoryID); err != nil {
		return err
	}
	t.roots[q.CategoryID] = append(t.roots[q.CategoryID], q.ID)
	t.renumber(t.roots[q.CategoryID])
	return nil
}

// Clone deep-copies the tree. Snapshots back the optimistic command
// layer: the Editor clones before mutating and restores on persistence
// failure.
func (t *Tree) Clone() *Tree {
	cp := NewTree()
	cp.clock = t.clock
	cp.categories = make([]*Category, len(t.categories))
	for i, c := range t.categories {
		cc := *c
		cc.Name = c.Name.clone()
		cp.categories[i] = &cc
	}
	for id, n := range t.nodes {
		children := make([]string, len(n.children))
		copy(children, n.children)
		cp.nodes[id] = &node{q: n.q.clone(), parent: n.parent, children: children}
	}
	for id, ids := range t.roots {
		rs := make([]string, len(ids))
		copy(rs, ids)
		cp.roots[id] = rs
	}
	for id, v := range t.versions {
		cp.versions[id] = v
	}
	return cp
}
