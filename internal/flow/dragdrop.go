// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package flow

// DragState is the phase of a drag-and-drop gesture. The machine is
// independent of any UI toolkit so reordering semantics can be tested
// without simulating pointer events.
type DragState int

const (
	DragIdle DragState = iota
	DragActive
	DragHovering
)

// Drag tracks one in-flight drag gesture over a sibling list.
//
//	Idle -> Dragging(source) -> HoveringOver(target) -> Dropped | Cancelled
type Drag struct {
	state  DragState
	source string
	hover  string
}

// NewDrag returns an idle drag machine.
func NewDrag() *Drag { return &Drag{} }

// State returns the current phase.
func (d *Drag) State() DragState { return d.state }

// Source returns the dragged id, or "" when idle.
func (d *Drag) Source() string { return d.source }

// Hover returns the current drop target, or "".
func (d *Drag) Hover() string { return d.hover }

// Start begins dragging source. Starting over an active drag restarts.
func (d *Drag) Start(source string) {
	d.state = DragActive
	d.source = source
	d.hover = ""
}

// Over marks target as the current drop candidate. Hovering the source
// itself keeps the machine in Dragging.
func (d *Drag) Over(target string) {
	if d.state == DragIdle {
		return
	}
	if target == d.source {
		d.state = DragActive
		d.hover = ""
		return
	}
	d.state = DragHovering
	d.hover = target
}

// Leave clears the drop candidate.
func (d *Drag) Leave() {
	if d.state == DragHovering {
		d.state = DragActive
		d.hover = ""
	}
}

// Drop completes the gesture. It returns the source and target ids and
// ok=true only when a valid candidate was hovered; the machine returns
// to Idle either way. The caller applies the swap via the ordering
// engine, which enforces that both ids share a sibling group.
func (d *Drag) Drop() (source, target string, ok bool) {
	source, target = d.source, d.hover
	ok = d.state == DragHovering && target != ""
	d.Cancel()
	return source, target, ok
}

// Cancel abandons the gesture.
func (d *Drag) Cancel() {
	d.state = DragIdle
	d.source = ""
	d.hover = ""
}
