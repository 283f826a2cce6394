// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package flow

import "sort"

// Direction of a step reorder.
type Direction int

const (
	Up Direction = iota
	Down
)

// OrderUpdate is one entry of a bulk reorder persistence payload.
type OrderUpdate struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

// Invariant held by every mutation: each sibling id slice is stored in
// rank order and the Order fields equal the slice indexes, so the set of
// orders in any group is exactly {0..n-1}.

func (t *Tree) renumber(ids []string) {
	for i, id := range ids {
		t.nodes[id].q.Order = i
	}
}

func (t *Tree) sortByOrder(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		return t.nodes[ids[i]].q.Order < t.nodes[ids[j]].q.Order
	})
}

// siblingIDs resolves the live sibling group of a question: its parent's
// child list when nested, else the root list of its category. The parent
// is located through the arena, never through a cached back-pointer.
func (t *Tree) siblingIDs(id string) ([]string, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, false
	}
	if n.parent != "" {
		return t.nodes[n.parent].children, true
	}
	return t.roots[n.q.CategoryID], true
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// MoveQuestion exchanges a question with its immediate neighbor in its
// sibling group. Moving the first up or the last down is a no-op.
func (t *Tree) MoveQuestion(id string, dir Direction) error {
	ids, ok := t.siblingIDs(id)
	if !ok {
		return &NotFoundError{Kind: KindQuestion, ID: id}
	}
	i := indexOf(ids, id)
	j := i + 1
	if dir == Up {
		j = i - 1
	}
	if j < 0 || j >= len(ids) {
		return nil
	}
	ids[i], ids[j] = ids[j], ids[i]
	t.renumber(ids)
	t.bumpPath(id)
	return nil
}

// SwapQuestions exchanges the positions of two questions in the same
// sibling group. A drop across groups is rejected without mutating
// state: a question never leaves its parent list.
func (t *Tree) SwapQuestions(aID, bID string) error {
	if aID == bID {
		return nil
	}
	ids, ok := t.siblingIDs(aID)
	if !ok {
		return &NotFoundError{Kind: KindQuestion, ID: aID}
	}
	if _, ok := t.nodes[bID]; !ok {
		return &NotFoundError{Kind: KindQuestion, ID: bID}
	}
	i, j := indexOf(ids, aID), indexOf(ids, bID)
	if j < 0 {
		return &ValidationError{Field: "target", Reason: "drop target is not a sibling"}
	}
	ids[i], ids[j] = ids[j], ids[i]
	t.renumber(ids)
	t.bumpPath(aID)
	return nil
}

// MoveQuestionToPosition reinserts a question at a 1-based position
// within its sibling group. Positions outside [1, len(siblings)] are
// rejected before any mutation.
func (t *Tree) MoveQuestionToPosition(id string, pos int) error {
	ids, ok := t.siblingIDs(id)
	if !ok {
		return &NotFoundError{Kind: KindQuestion, ID: id}
	}
	if pos < 1 || pos > len(ids) {
		return &ValidationError{Field: "position", Reason: "out of range"}
	}
	moveTo(ids, indexOf(ids, id), pos-1)
	t.renumber(ids)
	t.bumpPath(id)
	return nil
}

// MoveCategory exchanges a category with its immediate neighbor.
func (t *Tree) MoveCategory(id string, dir Direction) error {
	i := t.categoryIndex(id)
	if i < 0 {
		return &NotFoundError{Kind: KindCategory, ID: id}
	}
	j := i + 1
	if dir == Up {
		j = i - 1
	}
	if j < 0 || j >= len(t.categories) {
		return nil
	}
	t.categories[i], t.categories[j] = t.categories[j], t.categories[i]
	t.renumberCategories()
	t.bumpPath(id)
	return nil
}

// SwapCategories exchanges the positions of two categories.
func (t *Tree) SwapCategories(aID, bID string) error {
	if aID == bID {
		return nil
	}
	i, j := t.categoryIndex(aID), t.categoryIndex(bID)
	if i < 0 {
		return &NotFoundError{Kind: KindCategory, ID: aID}
	}
	if j < 0 {
		return &NotFoundError{Kind: KindCategory, ID: bID}
	}
	t.categories[i], t.categories[j] = t.categories[j], t.categories[i]
	t.renumberCategories()
	t.bumpPath(aID)
	return nil
}

// MoveCategoryToPosition reinserts a category at a 1-based position.
func (t *Tree) MoveCategoryToPosition(id string, pos int) error {
	i := t.categoryIndex(id)
	if i < 0 {
		return &NotFoundError{Kind: KindCategory, ID: id}
	}
	if pos < 1 || pos > len(t.categories) {
		return &ValidationError{Field: "position", Reason: "out of range"}
	}
	moved := t.categories[i]
	t.categories = append(t.categories[:i], t.categories[i+1:]...)
	k := pos - 1
	t.categories = append(t.categories[:k], append([]*Category{moved}, t.categories[k:]...)...)
	t.renumberCategories()
	t.bumpPath(id)
	return nil
}

// moveTo is the single 0-based splice behind every 1-based reposition,
// for categories and questions alike.
func moveTo(ids []string, from, to int) {
	if from == to || from < 0 {
		return
	}
	id := ids[from]
	copy(ids[from:], ids[from+1:])
	copy(ids[to+1:], ids[to:len(ids)-1])
	ids[to] = id
}

func (t *Tree) categoryIndex(id string) int {
	for i, c := range t.categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (t *Tree) renumberCategories() {
	for i, c := range t.categories {
		c.Order = i
	}
}

// QuestionOrderUpdates returns the bulk persistence payload for the
// sibling group containing id, in current rank order.
func (t *Tree) QuestionOrderUpdates(id string) []OrderUpdate {
	ids, ok := t.siblingIDs(id)
	if !ok {
		return nil
	}
	out := make([]OrderUpdate, len(ids))
	for i, sid := range ids {
		out[i] = OrderUpdate{ID: sid, Order: i}
	}
	return out
}

// CategoryOrderUpdates returns the bulk persistence payload for the
// whole category list.
func (t *Tree) CategoryOrderUpdates() []OrderUpdate {
	out := make([]OrderUpdate, len(t.categories))
	for i, c := range t.categories {
		out[i] = OrderUpdate{ID: c.ID, Order: i}
	}
	return out
}
