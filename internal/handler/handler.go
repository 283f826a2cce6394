// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler exposes the content tree engine over a JSON HTTP API:
// admin CRUD for categories and questions, search, attachment uploads,
// session auth and the public flow snapshot the bot consumes.
package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"sync"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/flowadmin/internal/cache"
	"github.com/olegiv/flowadmin/internal/flow"
	"github.com/olegiv/flowadmin/internal/middleware"
	"github.com/olegiv/flowadmin/internal/service"
	"github.com/olegiv/flowadmin/internal/store"
)

// Handler serves the flow admin API. The engine editor is a single
// logical actor, so every request that reads or mutates it holds mu.
type Handler struct {
	mu     sync.Mutex
	editor *flow.Editor

	db        *sql.DB
	queries   *store.Queries
	sessions  *scs.SessionManager
	events    *service.EventService
	login     *middleware.LoginProtection
	snapshots *cache.SnapshotCache
	files     flow.AttachmentStore
	sanitizer *bluemonday.Policy
	logger    *slog.Logger

	uploadsDir string
}

// Config collects the collaborators the handler needs.
type Config struct {
	Editor     *flow.Editor
	DB         *sql.DB
	Sessions   *scs.SessionManager
	Events     *service.EventService
	Snapshots  *cache.SnapshotCache
	Files      flow.AttachmentStore
	Logger     *slog.Logger
	UploadsDir string
}

// New creates the API handler.
func New(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		editor:     cfg.Editor,
		db:         cfg.DB,
		queries:    store.New(cfg.DB),
		sessions:   cfg.Sessions,
		events:     cfg.Events,
		login:      middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig()),
		snapshots:  cfg.Snapshots,
		files:      cfg.Files,
		sanitizer:  bluemonday.UGCPolicy(),
		logger:     logger,
		uploadsDir: cfg.UploadsDir,
	}
}

// Routes builds the full router: chi base middleware, session handling,
// language negotiation, public endpoints and the authenticated admin API.
func (h *Handler) Routes(isDev bool) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(isDev)))
	r.Use(h.sessions.LoadAndSave)
	r.Use(middleware.Language())

	// Public surface, rate limited per IP
	publicLimiter := middleware.NewGlobalRateLimiter(10, 20)
	r.Group(func(r chi.Router) {
		r.Use(publicLimiter.Middleware())
		r.Get("/api/flow", h.FlowSnapshot)
		r.With(h.login.Middleware()).Post("/api/login", h.Login)
		r.Post("/api/logout", h.Logout)
	})
	if h.uploadsDir != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.uploadsDir)))
		r.Get("/uploads/*", fs.ServeHTTP)
	}

	// Admin surface
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.sessions))
		r.Use(middleware.LoadUser(h.sessions, h.db))

		r.Get("/api/categories", h.ListCategories)
		r.Post("/api/categories", h.CreateCategory)
		r.Put("/api/categories", h.UpdateCategory)
		r.Delete("/api/categories", h.DeleteCategory)
		r.Post("/api/categories/reorder", h.ReorderCategories)

		r.Get("/api/questions", h.ListQuestions)
		r.Post("/api/questions", h.CreateQuestion)
		r.Put("/api/questions", h.UpdateQuestion)
		r.Delete("/api/questions", h.DeleteQuestion)
		r.Post("/api/questions/reorder", h.ReorderQuestions)

		r.Get("/api/search", h.Search)
		r.Post("/api/upload", h.Upload)
		r.Delete("/api/upload", h.DeleteUpload)
		r.Get("/api/events", h.ListEvents)
		r.Get("/api/translations/audit", h.TranslationAudit)
	})

	return r
}

// begin prepares the editor for a request: locks it and stamps the
// acting admin and editing language. The returned func releases the lock.
func (h *Handler) begin(r *http.Request) func() {
	h.mu.Lock()
	h.editor.SetActor(middleware.GetUserEmail(r))
	h.editor.SetLanguage(middleware.GetLanguage(r))
	return h.mu.Unlock
}

// invalidateSnapshots drops the cached public flow responses after a
// mutation. Failure to invalidate is logged, not surfaced.
func (h *Handler) invalidateSnapshots(r *http.Request) {
	if h.snapshots == nil {
		return
	}
	if err := h.snapshots.Invalidate(r.Context()); err != nil {
		h.logger.Warn("flow snapshot invalidation failed", "error", err)
	}
}
