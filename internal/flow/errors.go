// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package flow

import (
	"errors"
	"fmt"
)

// ValidationError reports input rejected before any state was mutated:
// empty required text, an out-of-range reorder position, or a malformed
// parent reference.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an operation on an id absent from the current tree.
type NotFoundError struct {
	Kind string // "category" or "question"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// PersistenceError wraps a failure from the external store. The optimistic
// in-memory change has already been reverted by the time the caller sees it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// UploadError reports a failed attachment upload. It does not affect the
// rest of the edit buffer.
type UploadError struct {
	Name string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("uploading %s: %v", e.Name, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// DeleteAttachmentError reports a failed attachment removal from storage.
type DeleteAttachmentError struct {
	URL string
	Err error
}

func (e *DeleteAttachmentError) Error() string {
	return fmt.Sprintf("deleting attachment %s: %v", e.URL, e.Err)
}

func (e *DeleteAttachmentError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
