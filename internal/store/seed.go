// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/flowadmin/internal/auth"
	"github.com/olegiv/flowadmin/internal/model"
)

// Default admin credentials
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme"
	DefaultAdminName     = "Administrator"
)

// Seed creates initial data in the database: the default admin account
// and the supported language set. Seeding is idempotent.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	if err := seedLanguages(ctx, queries); err != nil {
		return err
	}

	// Check if admin user already exists
	_, err := queries.GetUserByEmail(ctx, DefaultAdminEmail)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        DefaultAdminEmail,
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
		Name:         DefaultAdminName,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user",
		"id", user.ID,
		"email", user.Email,
		"password", DefaultAdminPassword,
	)

	return nil
}

func seedLanguages(ctx context.Context, queries *Queries) error {
	existing, err := queries.ListActiveLanguages(ctx)
	if err != nil {
		return fmt.Errorf("listing languages: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	now := time.Now()
	for i, l := range model.DefaultLanguages {
		_, err := queries.CreateLanguage(ctx, CreateLanguageParams{
			Code:       l.Code,
			Name:       l.Name,
			NativeName: l.NativeName,
			IsDefault:  l.IsDefault,
			IsActive:   true,
			Position:   i,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return fmt.Errorf("seeding language %s: %w", l.Code, err)
		}
	}
	slog.Info("seeded languages", "count", len(model.DefaultLanguages))
	return nil
}
