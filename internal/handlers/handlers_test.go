package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"querydash/internal/database"
	"querydash/internal/middleware"
	"querydash/internal/models"
	"querydash/internal/services"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "test-password"
)

func ptr(s string) *string { return &s }

type testEnv struct {
	app          *fiber.App
	db           *database.DB
	queryService *services.QueryService
}

func setupTestApp(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	authService, err := services.NewAuthService(testEmail, testPassword, services.NewMemorySessionStore(time.Hour), nil)
	if err != nil {
		t.Fatalf("Failed to create auth service: %v", err)
	}

	statsService := services.NewStatsService(db, 0)
	queryService := services.NewQueryService(db)

	authHandler := NewAuthHandler(authService)
	statsHandler := NewStatsHandler(statsService, false)
	queryHandler := NewQueryHandler(queryService)
	healthHandler := NewHealthHandler(db)

	app := fiber.New()
	app.Get("/health", healthHandler.Handle)
	app.Post("/api/auth/login", authHandler.Login)
	app.Post("/api/auth/logout", authHandler.Logout)

	api := app.Group("/api", middleware.RequireAuth(authService))
	api.Get("/auth/me", authHandler.Me)
	api.Get("/stats", statsHandler.Get)
	api.Get("/queries", queryHandler.List)
	api.Post("/queries", queryHandler.Create)
	api.Get("/queries/:id", queryHandler.Get)
	api.Put("/queries/:id", queryHandler.Update)
	api.Delete("/queries/:id", queryHandler.Delete)

	return &testEnv{app: app, db: db, queryService: queryService}
}

func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"email": testEmail, "password": testPassword})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.app.Test(req)
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}

	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.SessionCookieName {
			return cookie
		}
	}
	t.Fatal("login response carried no session cookie")
	return nil
}

func (e *testEnv) authedRequest(t *testing.T, method, target string, body io.Reader, cookie *http.Cookie) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.AddCookie(cookie)

	resp, err := e.app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := setupTestApp(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]string
	decodeJSON(t, resp, &body)
	if body["status"] != "healthy" || body["database"] != "up" {
		t.Errorf("unexpected health body: %+v", body)
	}
}

func TestLoginFlow(t *testing.T) {
	env := setupTestApp(t)
	cookie := env.login(t)

	resp := env.authedRequest(t, http.MethodGet, "/api/auth/me", nil, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d, want 200", resp.StatusCode)
	}
	var principal models.Principal
	decodeJSON(t, resp, &principal)
	if principal.Email != testEmail {
		t.Errorf("me email = %q, want %q", principal.Email, testEmail)
	}
}

func TestLoginUniformRejection(t *testing.T) {
	env := setupTestApp(t)

	cases := []struct {
		name  string
		creds map[string]string
	}{
		{"wrong password", map[string]string{"email": testEmail, "password": "wrong"}},
		{"wrong email", map[string]string{"email": "intruder@example.com", "password": testPassword}},
	}

	var bodies []string
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload, _ := json.Marshal(tc.creds)
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")

			resp, err := env.app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", resp.StatusCode)
			}
			raw, _ := io.ReadAll(resp.Body)
			bodies = append(bodies, string(raw))
		})
	}

	// The two failure modes must produce identical responses.
	if len(bodies) == 2 && bodies[0] != bodies[1] {
		t.Errorf("rejection bodies differ: %q vs %q", bodies[0], bodies[1])
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	env := setupTestApp(t)
	cookie := env.login(t)

	resp := env.authedRequest(t, http.MethodPost, "/api/auth/logout", nil, cookie)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d, want 200", resp.StatusCode)
	}

	resp = env.authedRequest(t, http.MethodGet, "/api/stats", nil, cookie)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("post-logout stats status = %d, want 401", resp.StatusCode)
	}
}

func TestStatsRequiresAuth(t *testing.T) {
	env := setupTestApp(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestStatsEndpoint(t *testing.T) {
	env := setupTestApp(t)
	cookie := env.login(t)

	day := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	seed := []models.SearchQueryInput{
		{Keyword: ptr("a"), SearchType: ptr("job"), PlatformName: ptr("web"), CreatedAt: &day},
		{Keyword: ptr("b"), SearchType: nil, PlatformName: nil, CreatedAt: &day},
	}
	for _, input := range seed {
		if _, err := env.queryService.Create(context.Background(), input); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	resp := env.authedRequest(t, http.MethodGet, "/api/stats", nil, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var snapshot models.Snapshot
	decodeJSON(t, resp, &snapshot)

	if snapshot.Total != 2 {
		t.Errorf("total = %d, want 2", snapshot.Total)
	}
	if snapshot.SearchTypeBreakdown["Unknown"] != 1 || snapshot.SearchTypeBreakdown["job"] != 1 {
		t.Errorf("unexpected search type breakdown: %+v", snapshot.SearchTypeBreakdown)
	}
	if len(snapshot.PlatformBreakdown) != 1 || snapshot.PlatformBreakdown["web"] != 1 {
		t.Errorf("unexpected platform breakdown: %+v", snapshot.PlatformBreakdown)
	}
}

func TestQueryCRUDEndpoints(t *testing.T) {
	env := setupTestApp(t)
	cookie := env.login(t)

	// Create
	payload, _ := json.Marshal(map[string]any{
		"keyword":       "golang jobs",
		"platform_name": "web",
		"search_type":   "job",
	})
	resp := env.authedRequest(t, http.MethodPost, "/api/queries", bytes.NewReader(payload), cookie)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	var created models.SearchQuery
	decodeJSON(t, resp, &created)
	if created.ID == 0 {
		t.Fatal("expected a generated id")
	}

	// Get
	resp = env.authedRequest(t, http.MethodGet, fmt.Sprintf("/api/queries/%d", created.ID), nil, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", resp.StatusCode)
	}
	var fetched models.SearchQuery
	decodeJSON(t, resp, &fetched)
	if fetched.Keyword == nil || *fetched.Keyword != "golang jobs" {
		t.Errorf("keyword = %v, want golang jobs", fetched.Keyword)
	}

	// Update
	payload, _ = json.Marshal(map[string]any{"keyword": "updated"})
	resp = env.authedRequest(t, http.MethodPut, fmt.Sprintf("/api/queries/%d", created.ID), bytes.NewReader(payload), cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d, want 200", resp.StatusCode)
	}
	var updated models.SearchQuery
	decodeJSON(t, resp, &updated)
	if updated.Keyword == nil || *updated.Keyword != "updated" {
		t.Errorf("keyword = %v, want updated", updated.Keyword)
	}

	// List
	resp = env.authedRequest(t, http.MethodGet, "/api/queries", nil, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.StatusCode)
	}
	var page models.SearchQueryPage
	decodeJSON(t, resp, &page)
	if page.Total != 1 || len(page.Items) != 1 {
		t.Errorf("unexpected page: total=%d items=%d", page.Total, len(page.Items))
	}

	// Delete
	resp = env.authedRequest(t, http.MethodDelete, fmt.Sprintf("/api/queries/%d", created.ID), nil, cookie)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", resp.StatusCode)
	}

	resp = env.authedRequest(t, http.MethodGet, fmt.Sprintf("/api/queries/%d", created.ID), nil, cookie)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("post-delete get status = %d, want 404", resp.StatusCode)
	}
}

func TestQueryEndpointBadID(t *testing.T) {
	env := setupTestApp(t)
	cookie := env.login(t)

	resp := env.authedRequest(t, http.MethodGet, "/api/queries/not-a-number", nil, cookie)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestQueryEndpointNotFound(t *testing.T) {
	env := setupTestApp(t)
	cookie := env.login(t)

	resp := env.authedRequest(t, http.MethodGet, "/api/queries/9999", nil, cookie)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
