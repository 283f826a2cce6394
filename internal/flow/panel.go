// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package flow

// Panel kinds. At most one node has an open panel at a time.
type Panel string

const (
	PanelNone        Panel = ""
	PanelAnswer      Panel = "answer"
	PanelSubQuestion Panel = "subquestion"
	PanelEdit        Panel = "edit"
)

// EditBuffer holds the pending edit-panel fields seeded from a node.
type EditBuffer struct {
	Question   string
	Answer     string
	Order      int
	Attachment *Attachment
}

// AnswerBuffer holds the pending answer-panel fields.
type AnswerBuffer struct {
	Text       string
	Attachment *Attachment
}

// Panels manages which inline edit surface is open for which node and
// the unsaved buffers behind it. Opening a panel on another node
// implicitly discards the previous buffer; there is no save-first
// prompt.
type Panels struct {
	questionID string
	panel      Panel

	answer      AnswerBuffer
	subQuestion string
	edit        EditBuffer
}

// NewPanels returns a controller with no panel open.
func NewPanels() *Panels { return &Panels{} }

// Active returns the open panel's node id and kind, or ("", PanelNone).
func (p *Panels) Active() (string, Panel) { return p.questionID, p.panel }

// IsOpen reports whether the given panel is open for the given node.
func (p *Panels) IsOpen(questionID string, panel Panel) bool {
	return p.questionID == questionID && p.panel == panel
}

// Open opens a panel for a question, seeding its buffer from the node's
// current state resolved in the active editing language. Any previously
// open panel and its buffer are dropped.
func (p *Panels) Open(t *Tree, questionID string, panel Panel, lang string) error {
	q, err := t.QuestionByID(questionID)
	if err != nil {
		return err
	}
	p.reset()
	switch panel {
	case PanelAnswer:
		p.answer.Text = resolveOrEmpty(q.Answer, lang)
		if a, ok := q.Attachments[lang]; ok {
			att := a
			p.answer.Attachment = &att
		}
	case PanelEdit:
		p.edit = EditBuffer{
			Question: resolveOrEmpty(q.Question, lang),
			Answer:   resolveOrEmpty(q.Answer, lang),
			Order:    q.Order,
		}
		if a, ok := q.Attachments[lang]; ok {
			att := a
			p.edit.Attachment = &att
		}
	case PanelSubQuestion:
		p.subQuestion = ""
	default:
		return &ValidationError{Field: "panel", Reason: "unknown panel " + string(panel)}
	}
	p.questionID = questionID
	p.panel = panel
	return nil
}

// resolveOrEmpty is Resolve without the Unknown sentinel: form buffers
// seed empty rather than with placeholder text.
func resolveOrEmpty(m TranslationMap, lang string) string {
	if !HasContent(m) {
		return ""
	}
	return Resolve(m, lang)
}

// Close discards the open panel and all buffers.
func (p *Panels) Close() { p.reset() }

func (p *Panels) reset() {
	p.questionID = ""
	p.panel = PanelNone
	p.answer = AnswerBuffer{}
	p.subQuestion = ""
	p.edit = EditBuffer{}
}

// Answer returns the pending answer buffer.
func (p *Panels) Answer() AnswerBuffer { return p.answer }

// SetAnswer updates the pending answer text.
func (p *Panels) SetAnswer(text string) { p.answer.Text = text }

// SetAnswerAttachment updates the pending answer attachment; nil clears.
func (p *Panels) SetAnswerAttachment(a *Attachment) { p.answer.Attachment = a }

// SubQuestion returns the pending sub-question text.
func (p *Panels) SubQuestion() string { return p.subQuestion }

// SetSubQuestion updates the pending sub-question text.
func (p *Panels) SetSubQuestion(text string) { p.subQuestion = text }

// Edit returns the pending edit buffer.
func (p *Panels) Edit() EditBuffer { return p.edit }

// SetEdit replaces the pending edit buffer.
func (p *Panels) SetEdit(b EditBuffer) { p.edit = b }
