// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package flow

// Navigator tracks the admin's position in the tree as an ordered
// breadcrumb path. The path is UI state held independently of the tree
// shape, so it must be re-validated whenever nodes are deleted.
//
// States: Root (no category) -> AtCategory -> AtQuestion(path).
type Navigator struct {
	crumbs []Crumb
	target string // question to scroll to and highlight after a search jump
}

// NewNavigator returns a navigator at Root.
func NewNavigator() *Navigator { return &Navigator{} }

// AtRoot reports whether no category is selected.
func (n *Navigator) AtRoot() bool { return len(n.crumbs) == 0 }

// CategoryID returns the anchoring category id, or "" at Root.
func (n *Navigator) CategoryID() string {
	if len(n.crumbs) == 0 {
		return ""
	}
	return n.crumbs[0].ID
}

// Breadcrumbs returns a copy of the current path.
func (n *Navigator) Breadcrumbs() []Crumb {
	out := make([]Crumb, len(n.crumbs))
	copy(out, n.crumbs)
	return out
}

// Target returns the question to highlight after a search selection and
// clears it. The periodic highlight pulse itself is presentation, not an
// engine concern.
func (n *Navigator) Target() string {
	t := n.target
	n.target = ""
	return t
}

// SelectCategory moves to AtCategory. Re-selecting the already selected
// category is an explicit shortcut that collapses any deeper path back
// to the category root.
func (n *Navigator) SelectCategory(t *Tree, id, lang string) error {
	c, err := t.CategoryByID(id)
	if err != nil {
		return err
	}
	n.crumbs = []Crumb{{ID: c.ID, Label: Resolve(c.Name, lang), Type: KindCategory}}
	n.target = ""
	return nil
}

// EnterQuestion pushes a question onto the path. The question must live
// under the currently selected category.
func (n *Navigator) EnterQuestion(t *Tree, id, lang string) error {
	q, err := t.QuestionByID(id)
	if err != nil {
		return err
	}
	if n.AtRoot() {
		return &ValidationError{Field: "navigation", Reason: "no category selected"}
	}
	n.crumbs = append(n.crumbs, Crumb{ID: q.ID, Label: Resolve(q.Question, lang), Type: KindQuestion})
	return nil
}

// ClickCrumb truncates the path to [0..i].
func (n *Navigator) ClickCrumb(i int) error {
	if i < 0 || i >= len(n.crumbs) {
		return &ValidationError{Field: "breadcrumb", Reason: "index out of range"}
	}
	n.crumbs = n.crumbs[:i+1]
	return nil
}

// ApplySearchResult navigates to a search match: the category is
// selected and the breadcrumbs become the result's path minus its last
// segment, so the matched node's container is shown with the node
// itself marked for highlighting. This overrides the usual
// seed-from-category behavior.
func (n *Navigator) ApplySearchResult(res SearchResult) {
	if len(res.Path) == 0 {
		return
	}
	parent := res.Path[:len(res.Path)-1]
	n.crumbs = make([]Crumb, len(parent))
	copy(n.crumbs, parent)
	n.target = res.Question.ID
}

// Reset returns to Root.
func (n *Navigator) Reset() {
	n.crumbs = nil
	n.target = ""
}

// Prune truncates the path at the first segment that no longer exists in
// the tree, so breadcrumbs never point at deleted ids. Deleting the
// anchoring category resets to Root; deleting a mid-path question keeps
// the nearest surviving ancestor.
func (n *Navigator) Prune(t *Tree) {
	for i, c := range n.crumbs {
		var err error
		if c.Type == KindCategory {
			_, err = t.CategoryByID(c.ID)
		} else {
			_, err = t.QuestionByID(c.ID)
		}
		if err != nil {
			n.crumbs = n.crumbs[:i]
			break
		}
	}
	if len(n.crumbs) == 0 {
		n.Reset()
	}
}

// Refresh re-resolves crumb labels after a rename or a language switch.
func (n *Navigator) Refresh(t *Tree, lang string) {
	for i, c := range n.crumbs {
		if c.Type == KindCategory {
			if cat, err := t.CategoryByID(c.ID); err == nil {
				n.crumbs[i].Label = Resolve(cat.Name, lang)
			}
			continue
		}
		if q, err := t.QuestionByID(c.ID); err == nil {
			n.crumbs[i].Label = Resolve(q.Question, lang)
		}
	}
}

// Level returns the parent question id for the current view: the last
// breadcrumb when navigated into a question, else "" (category root).
func (n *Navigator) Level() string {
	if len(n.crumbs) <= 1 {
		return ""
	}
	return n.crumbs[len(n.crumbs)-1].ID
}

// VisibleQuestions returns the ordered questions at the current level.
func (n *Navigator) VisibleQuestions(t *Tree) []*Question {
	if n.AtRoot() {
		return nil
	}
	if parent := n.Level(); parent != "" {
		return t.SubQuestions(parent)
	}
	return t.RootQuestions(n.CategoryID())
}
