// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package media stores answer attachments on the local filesystem and
// serves them under a public URL prefix.
package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/olegiv/flowadmin/internal/flow"
	"github.com/olegiv/flowadmin/internal/util"
)

// URLPrefix is the public path attachments are served under.
const URLPrefix = "/uploads/"

// maxUploadSize limits a single attachment to 25 MB.
const maxUploadSize = 25 << 20

// LocalStore stores attachments as files under a base directory.
// Stored names are prefixed with a random ID so uploads never collide
// and the original name cannot traverse outside the directory.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates the base directory if needed and returns a store.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// Upload writes the file to disk and returns its public URL and display name.
func (s *LocalStore) Upload(ctx context.Context, filename string, r io.Reader) (flow.Attachment, error) {
	if err := ctx.Err(); err != nil {
		return flow.Attachment{}, err
	}

	safe := util.SafeFilename(filename)
	stored := uuid.NewString() + "-" + safe

	f, err := os.OpenFile(filepath.Join(s.baseDir, stored), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return flow.Attachment{}, fmt.Errorf("create attachment file: %w", err)
	}

	written, err := io.Copy(f, io.LimitReader(r, maxUploadSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && written > maxUploadSize {
		err = fmt.Errorf("attachment exceeds %d bytes", maxUploadSize)
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.baseDir, stored))
		return flow.Attachment{}, fmt.Errorf("write attachment: %w", err)
	}

	return flow.Attachment{
		URL:  URLPrefix + stored,
		Name: filename,
	}, nil
}

// Delete removes the file behind a previously returned URL. Deleting an
// already-removed attachment is not an error.
func (s *LocalStore) Delete(_ context.Context, url string) error {
	stored := strings.TrimPrefix(url, URLPrefix)
	if stored == "" || stored == url || stored != path.Base(stored) {
		return fmt.Errorf("invalid attachment url %q", url)
	}

	err := os.Remove(filepath.Join(s.baseDir, stored))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove attachment: %w", err)
	}
	return nil
}

var _ flow.AttachmentStore = (*LocalStore)(nil)
