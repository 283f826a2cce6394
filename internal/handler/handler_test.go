// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/flowadmin/internal/cache"
	"github.com/olegiv/flowadmin/internal/flow"
	"github.com/olegiv/flowadmin/internal/media"
	"github.com/olegiv/flowadmin/internal/service"
	"github.com/olegiv/flowadmin/internal/session"
	"github.com/olegiv/flowadmin/internal/store"
	"github.com/olegiv/flowadmin/internal/testutil"
)

// testServer bundles a running API server with a cookie-aware client.
type testServer struct {
	srv    *httptest.Server
	client *http.Client
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	ctx := context.Background()
	if err := store.Seed(ctx, db); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	tree, err := store.LoadTree(ctx, db)
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}

	uploadsDir := t.TempDir()
	files, err := media.NewLocalStore(uploadsDir)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	logger := testutil.TestLoggerSilent()
	editor := flow.NewEditor(tree, store.NewSQLStore(db), files, logger)

	backend := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = backend.Close() })

	h := New(Config{
		Editor:     editor,
		DB:         db,
		Sessions:   session.New(db, true),
		Events:     service.NewEventService(db),
		Snapshots:  cache.NewSnapshotCache(backend, flow.SupportedLanguages, time.Minute),
		Files:      files,
		Logger:     logger,
		UploadsDir: uploadsDir,
	})

	srv := httptest.NewServer(h.Routes(true))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}

	return &testServer{srv: srv, client: &http.Client{Jar: jar}}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeData(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if dst != nil {
		if err := json.Unmarshal(env.Data, dst); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
}

func (ts *testServer) login(t *testing.T) {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/login", map[string]string{
		"email":    store.DefaultAdminEmail,
		"password": store.DefaultAdminPassword,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
}

type categoryResp struct {
	ID   string            `json:"id"`
	Name map[string]string `json:"name"`
}

func (ts *testServer) createCategory(t *testing.T, names map[string]string) categoryResp {
	t.Helper()
	translations := make([]map[string]string, 0, len(names))
	for lang, name := range names {
		translations = append(translations, map[string]string{"language": lang, "name": name})
	}
	resp := ts.do(t, http.MethodPost, "/api/categories", map[string]any{"translations": translations})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create category status = %d", resp.StatusCode)
	}
	var c categoryResp
	decodeData(t, resp, &c)
	return c
}

type questionResp struct {
	ID       string            `json:"id"`
	Question map[string]string `json:"question"`
	Answer   map[string]string `json:"answer"`
	Order    int               `json:"order"`
}

func TestLoginRequired(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/categories", nil)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/login", map[string]string{
		"email":    store.DefaultAdminEmail,
		"password": "wrong",
	})
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestLoginLogout(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	resp := ts.do(t, http.MethodGet, "/api/categories", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authenticated list status = %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = ts.do(t, http.MethodPost, "/api/logout", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/api/categories", nil)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("post-logout status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestCategoryLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	c := ts.createCategory(t, map[string]string{"az": "Ödənişlər", "ru": "Платежи"})
	if c.Name["az"] != "Ödənişlər" || c.Name["ru"] != "Платежи" {
		t.Errorf("names = %v", c.Name)
	}

	// Rename in one language
	resp := ts.do(t, http.MethodPut, "/api/categories", map[string]any{
		"id": c.ID,
		"translations": []map[string]string{
			{"language": "az", "name": "Ödənişlər"},
			{"language": "ru", "name": "Оплата"},
		},
	})
	var updated categoryResp
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	decodeData(t, resp, &updated)
	if updated.Name["ru"] != "Оплата" {
		t.Errorf("ru name = %q", updated.Name["ru"])
	}

	var list []categoryResp
	resp = ts.do(t, http.MethodGet, "/api/categories", nil)
	decodeData(t, resp, &list)
	if len(list) != 1 {
		t.Fatalf("categories = %d, want 1", len(list))
	}

	resp = ts.do(t, http.MethodDelete, "/api/categories?id="+c.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/api/categories", nil)
	decodeData(t, resp, &list)
	if len(list) != 0 {
		t.Errorf("categories after delete = %d, want 0", len(list))
	}
}

func TestQuestionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	c := ts.createCategory(t, map[string]string{"az": "Kart"})

	resp := ts.do(t, http.MethodPost, "/api/questions", map[string]any{
		"categoryId": c.ID,
		"translations": []map[string]string{
			{"language": "az", "question": "Kart necə sifariş olunur?", "answer": "<p>Mobil tətbiqdən.</p>"},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create question status = %d", resp.StatusCode)
	}
	var q questionResp
	decodeData(t, resp, &q)
	if q.Question["az"] != "Kart necə sifariş olunur?" {
		t.Errorf("question = %v", q.Question)
	}
	if q.Answer["az"] != "<p>Mobil tətbiqdən.</p>" {
		t.Errorf("answer = %v", q.Answer)
	}

	// Script tags are stripped from answers.
	resp = ts.do(t, http.MethodPut, "/api/questions", map[string]any{
		"id": q.ID,
		"translations": []map[string]string{
			{"language": "az", "question": "Kart necə sifariş olunur?", "answer": `<p>Yaxşı</p><script>alert(1)</script>`},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	decodeData(t, resp, &q)
	if strings.Contains(q.Answer["az"], "script") {
		t.Errorf("answer not sanitized: %q", q.Answer["az"])
	}

	// Nested sub-question
	resp = ts.do(t, http.MethodPost, "/api/questions", map[string]any{
		"parentId": q.ID,
		"translations": []map[string]string{
			{"language": "az", "question": "Çatdırılma nə qədər çəkir?"},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create sub-question status = %d", resp.StatusCode)
	}
	var sub questionResp
	decodeData(t, resp, &sub)

	var forests []struct {
		Category  categoryResp `json:"category"`
		Questions []struct {
			ID           string `json:"id"`
			SubQuestions []struct {
				ID string `json:"id"`
			} `json:"subQuestions"`
		} `json:"questions"`
	}
	resp = ts.do(t, http.MethodGet, "/api/questions", nil)
	decodeData(t, resp, &forests)
	if len(forests) != 1 || len(forests[0].Questions) != 1 {
		t.Fatalf("unexpected forest shape: %+v", forests)
	}
	if len(forests[0].Questions[0].SubQuestions) != 1 || forests[0].Questions[0].SubQuestions[0].ID != sub.ID {
		t.Errorf("sub-question missing from forest")
	}

	resp = ts.do(t, http.MethodDelete, "/api/questions?id="+q.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/api/questions", nil)
	decodeData(t, resp, &forests)
	if len(forests[0].Questions) != 0 {
		t.Errorf("questions after cascade delete = %d, want 0", len(forests[0].Questions))
	}
}

func TestQuestionPrependAndReorder(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	c := ts.createCategory(t, map[string]string{"az": "Test"})
	var ids []string
	for _, text := range []string{"First", "Second", "Third"} {
		resp := ts.do(t, http.MethodPost, "/api/questions", map[string]any{
			"categoryId": c.ID,
			"translations": []map[string]string{
				{"language": "az", "question": text},
			},
		})
		var q questionResp
		decodeData(t, resp, &q)
		ids = append(ids, q.ID)
	}

	listOrder := func() []string {
		var forests []struct {
			Questions []struct {
				ID string `json:"id"`
			} `json:"questions"`
		}
		resp := ts.do(t, http.MethodGet, "/api/questions", nil)
		decodeData(t, resp, &forests)
		var out []string
		for _, q := range forests[0].Questions {
			out = append(out, q.ID)
		}
		return out
	}

	// Newest first
	got := listOrder()
	want := []string{ids[2], ids[1], ids[0]}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("initial order = %v, want %v", got, want)
	}

	resp := ts.do(t, http.MethodPost, "/api/questions/reorder", map[string]any{
		"items": []map[string]any{
			{"id": ids[0], "order": 0},
			{"id": ids[1], "order": 1},
			{"id": ids[2], "order": 2},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reorder status = %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	got = listOrder()
	want = []string{ids[0], ids[1], ids[2]}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("reordered = %v, want %v", got, want)
	}
}

func TestSearchEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	c := ts.createCategory(t, map[string]string{"az": "Kredit"})
	resp := ts.do(t, http.MethodPost, "/api/questions", map[string]any{
		"categoryId": c.ID,
		"translations": []map[string]string{
			{"language": "az", "question": "Krediti necə bağlamaq olar?", "answer": "<p>Filiala müraciət edin.</p>"},
		},
	})
	_ = resp.Body.Close()

	var results []struct {
		Field   string `json:"field"`
		Snippet string `json:"snippet"`
	}
	resp = ts.do(t, http.MethodGet, "/api/search?q=kredit&lang=az", nil)
	decodeData(t, resp, &results)
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].Field != "question" {
		t.Errorf("field = %q", results[0].Field)
	}

	// Too-short query yields no results
	resp = ts.do(t, http.MethodGet, "/api/search?q=k", nil)
	decodeData(t, resp, &results)
	if len(results) != 0 {
		t.Errorf("short query results = %d, want 0", len(results))
	}
}

func TestUploadLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	req, err := http.NewRequest(http.MethodPost, ts.srv.URL+"/api/upload?filename=Qaydalar.pdf",
		strings.NewReader("pdf-bytes"))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := ts.client.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}
	var att struct {
		URL  string `json:"url"`
		Name string `json:"name"`
	}
	decodeData(t, resp, &att)
	if att.Name != "Qaydalar.pdf" || !strings.HasPrefix(att.URL, "/uploads/") {
		t.Fatalf("attachment = %+v", att)
	}

	// Served back through the static route
	resp = ts.do(t, http.MethodGet, att.URL, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("download status = %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = ts.do(t, http.MethodDelete, "/api/upload?url="+att.URL, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("delete upload status = %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
}

func TestFlowSnapshotCachingAndInvalidation(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	c := ts.createCategory(t, map[string]string{"az": "Hesablar", "ru": "Счета"})

	var view []struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Questions []any  `json:"questions"`
	}
	resp := ts.do(t, http.MethodGet, "/api/flow", nil)
	decodeData(t, resp, &view)
	if len(view) != 1 || view[0].Name != "Hesablar" {
		t.Fatalf("flow view = %+v", view)
	}

	// Russian rendering via lang switch
	resp = ts.do(t, http.MethodGet, "/api/flow?lang=ru", nil)
	decodeData(t, resp, &view)
	if view[0].Name != "Счета" {
		t.Errorf("ru name = %q", view[0].Name)
	}

	// Mutation invalidates the cached snapshot
	resp = ts.do(t, http.MethodPost, "/api/questions", map[string]any{
		"categoryId": c.ID,
		"translations": []map[string]string{
			{"language": "az", "question": "Hesab necə açılır?"},
		},
	})
	_ = resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/api/flow?lang=az", nil)
	decodeData(t, resp, &view)
	if len(view[0].Questions) != 1 {
		t.Errorf("questions in snapshot = %d, want 1", len(view[0].Questions))
	}
}

func TestTranslationAudit(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	ts.createCategory(t, map[string]string{"az": "Yalnız az"})

	var audit struct {
		Missing int `json:"missing"`
		Gaps    []struct {
			NodeType string `json:"nodeType"`
			Field    string `json:"field"`
			Language string `json:"language"`
		} `json:"gaps"`
	}
	resp := ts.do(t, http.MethodGet, "/api/translations/audit", nil)
	decodeData(t, resp, &audit)
	if audit.Missing != 1 {
		t.Fatalf("missing = %d, want 1", audit.Missing)
	}
	if audit.Gaps[0].Language != "ru" || audit.Gaps[0].Field != "name" {
		t.Errorf("gap = %+v", audit.Gaps[0])
	}
}

func TestEventsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	ts.createCategory(t, map[string]string{"az": "Audit"})

	var events []struct {
		Category string `json:"category"`
		Message  string `json:"message"`
	}
	resp := ts.do(t, http.MethodGet, "/api/events?limit=10", nil)
	decodeData(t, resp, &events)

	var found bool
	for _, e := range events {
		if e.Category == "category" && e.Message == "Category created" {
			found = true
		}
	}
	if !found {
		t.Errorf("category creation event missing: %+v", events)
	}
}
