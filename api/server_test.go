package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/skillchart/internal/config"
	"github.com/seenimoa/skillchart/internal/infra"
	"github.com/seenimoa/skillchart/internal/store"
	"github.com/seenimoa/skillchart/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func testConfig() *config.Config {
	return &config.Config{
		Chart:   config.ChartConfig{Mode: "numeric_preferred"},
		Storage: config.StorageConfig{Path: "/var/lib/skillchart/progress.db"},
		API:     config.APIConfig{Port: 8080, CacheTTL: 300},
		Report:  config.ReportConfig{Author: "Riverside Clinic"},
	}
}

func testServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv, err := NewServer(testConfig(), Options{Store: st, Logger: infra.Discard(), Version: "test"})
	require.NoError(t, err)
	return srv, st
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

const threeUpdates = `{"updates": [
	{"date": "2024-01-01", "score": 40, "target": 80},
	{"date": "2024-02-01", "score": null},
	{"date": "2024-03-01", "score": "60%", "target": "85%"}
]}`

// ════════════════════════════════════════════════════════════════════
// Health / config / metrics
// ════════════════════════════════════════════════════════════════════

func TestHealthEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := do(t, srv, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)

		resp := decodeResponse(t, rec)
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "ok", data["status"])
		assert.Equal(t, "test", data["version"])
		assert.Equal(t, "numeric_preferred", data["mode"])
	}
}

func TestNewServerRejectsBadMode(t *testing.T) {
	cfg := testConfig()
	cfg.Chart.Mode = "fuzzy"
	_, err := NewServer(cfg, Options{})
	assert.Error(t, err)

	_, err = NewServer(nil, Options{})
	assert.Error(t, err)
}

func TestConfigEndpointHidesStoragePath(t *testing.T) {
	srv, _ := testServer(t)

	rec := do(t, srv, http.MethodGet, "/api/v1/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "/var/lib/skillchart")
	assert.Contains(t, rec.Body.String(), "Riverside Clinic")

	// The running config is untouched.
	assert.Equal(t, "/var/lib/skillchart/progress.db", srv.cfg.Storage.Path)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	do(t, srv, http.MethodPost, "/api/v1/charts/progress", threeUpdates)

	rec := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `skillchart_http_requests_total{code="200",route="/api/v1/charts/progress"} 1`)
	assert.Contains(t, body, `skillchart_charts_rendered_total{result="svg"} 1`)
}

func TestMetricsUnmatchedRoutesShareOneLabel(t *testing.T) {
	srv, _ := testServer(t)
	do(t, srv, http.MethodGet, "/no/such/page", "")
	do(t, srv, http.MethodGet, "/another-missing-page", "")

	body := do(t, srv, http.MethodGet, "/metrics", "").Body.String()
	assert.Contains(t, body, `skillchart_http_requests_total{code="404",route="unmatched"} 2`)
	assert.NotContains(t, body, "/no/such/page")
	assert.NotContains(t, body, "/another-missing-page")
}

// ════════════════════════════════════════════════════════════════════
// POST /api/v1/charts/progress
// ════════════════════════════════════════════════════════════════════

func TestRenderProgress(t *testing.T) {
	srv, _ := testServer(t)

	rec := do(t, srv, http.MethodPost, "/api/v1/charts/progress", threeUpdates)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	svg := rec.Body.String()
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.Contains(t, svg, `points="40.0,132.0 588.0,92.0"`)
	assert.Contains(t, svg, "Target 85%")
	assert.Contains(t, svg, ">2024-01-01<")
	assert.Contains(t, svg, ">2024-03-01<")

	again := do(t, srv, http.MethodPost, "/api/v1/charts/progress", threeUpdates)
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, "HIT", again.Header().Get("X-Cache"))
	assert.Equal(t, svg, again.Body.String())
}

func TestRenderProgressSortsByDate(t *testing.T) {
	srv, _ := testServer(t)
	shuffled := `{"updates": [
		{"date": "2024-03-01", "score": "60%", "target": "85%"},
		{"date": "2024-01-01", "score": 40, "target": 80},
		{"date": "2024-02-01", "score": null}
	]}`

	a := do(t, srv, http.MethodPost, "/api/v1/charts/progress", threeUpdates)
	b := do(t, srv, http.MethodPost, "/api/v1/charts/progress", shuffled)
	require.Equal(t, http.StatusOK, b.Code)
	assert.Equal(t, a.Body.String(), b.Body.String())
}

func TestRenderProgressModeOverride(t *testing.T) {
	srv, _ := testServer(t)
	body := `{"mode": "numeric_only", "updates": [{"score": "60%"}, {"score": "0.9"}]}`

	rec := do(t, srv, http.MethodPost, "/api/v1/charts/progress", body)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	body = `{"mode": "numeric_preferred", "updates": [{"score": "0.9"}]}`
	rec = do(t, srv, http.MethodPost, "/api/v1/charts/progress", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `cx="588.0" cy="32.0"`)
}

func TestRenderProgressEmptyAndErrors(t *testing.T) {
	srv, _ := testServer(t)

	rec := do(t, srv, http.MethodPost, "/api/v1/charts/progress", `{"updates": []}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/v1/charts/progress", `{"mode": "loose", "updates": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decodeResponse(t, rec).Success)

	rec = do(t, srv, http.MethodPost, "/api/v1/charts/progress", `{"updates": [`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRenderProgressCacheDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.API.CacheTTL = 0
	srv, err := NewServer(cfg, Options{Logger: infra.Discard()})
	require.NoError(t, err)

	do(t, srv, http.MethodPost, "/api/v1/charts/progress", threeUpdates)
	rec := do(t, srv, http.MethodPost, "/api/v1/charts/progress", threeUpdates)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
}

// ════════════════════════════════════════════════════════════════════
// Skills
// ════════════════════════════════════════════════════════════════════

func TestSkillLifecycle(t *testing.T) {
	srv, _ := testServer(t)

	rec := do(t, srv, http.MethodPost, "/api/v1/skills", `{"id": "artic-r", "name": "Articulation /r/"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	for _, u := range []string{
		`{"date": "2024-01-01", "score": 40, "target": 80}`,
		`{"date": "2024-02-01", "score": null, "notes": "absent"}`,
		`{"date": "2024-03-01", "score": "60%", "target": "85%"}`,
	} {
		rec = do(t, srv, http.MethodPost, "/api/v1/skills/artic-r/updates", u)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = do(t, srv, http.MethodGet, "/api/v1/skills", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Data []models.Skill `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&listed))
	require.Len(t, listed.Data, 1)
	assert.Equal(t, "Articulation /r/", listed.Data[0].Name)

	rec = do(t, srv, http.MethodGet, "/api/v1/skills/artic-r/updates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var updates struct {
		Data []UpdateView `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updates))
	require.Len(t, updates.Data, 3)
	assert.Equal(t, "2024-01-01T00:00:00Z", updates.Data[0].RecordedAt)
	assert.Equal(t, "absent", updates.Data[1].Notes)
	assert.Nil(t, updates.Data[1].RawScore)
	assert.Equal(t, "60%", updates.Data[2].RawScore)

	// Stored chart matches the stateless render of the same records.
	stored := do(t, srv, http.MethodGet, "/api/v1/skills/artic-r/chart", "")
	require.Equal(t, http.StatusOK, stored.Code)
	direct := do(t, srv, http.MethodPost, "/api/v1/charts/progress", threeUpdates)
	assert.Equal(t, direct.Body.String(), stored.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/v1/skills/artic-r/chart?mode=numeric_only", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Target 85%")
	assert.Contains(t, rec.Body.String(), "Target 80%")
}

func TestSkillReport(t *testing.T) {
	srv, st := testServer(t)
	ctx := context.Background()
	require.NoError(t, st.SaveSkill(ctx, models.Skill{ID: "fluency", Name: "Fluency <easy onset>"}))
	_, err := st.AddUpdate(ctx, "fluency", models.ProgressUpdate{RawScore: 55, Notes: "warm-up"})
	require.NoError(t, err)

	rec := do(t, srv, http.MethodGet, "/api/v1/skills/fluency/report?client=Sam", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "Progress Report: Sam", doc.Find("title").Text())
	assert.Equal(t, "Fluency <easy onset>", doc.Find("section h2").Text())
	assert.Equal(t, 1, doc.Find("section .chart svg").Length())
	assert.Contains(t, doc.Find(".footer").Text(), "Riverside Clinic")

	rec = do(t, srv, http.MethodGet, "/api/v1/skills/fluency/report?format=text", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Latest: 55%")

	rec = do(t, srv, http.MethodGet, "/api/v1/skills/fluency/report?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSkillErrors(t *testing.T) {
	srv, _ := testServer(t)

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/api/v1/skills/missing", "", http.StatusNotFound},
		{http.MethodGet, "/api/v1/skills/missing/updates", "", http.StatusNotFound},
		{http.MethodGet, "/api/v1/skills/missing/chart", "", http.StatusNotFound},
		{http.MethodGet, "/api/v1/skills/missing/report", "", http.StatusNotFound},
		{http.MethodPost, "/api/v1/skills/missing/updates", `{"score": 1}`, http.StatusNotFound},
		{http.MethodPost, "/api/v1/skills", `{"name": "no id"}`, http.StatusBadRequest},
		{http.MethodPost, "/api/v1/skills", `not json`, http.StatusBadRequest},
		{http.MethodGet, "/api/v1/skills/missing/chart?mode=bogus", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := do(t, srv, tt.method, tt.path, tt.body)
		assert.Equal(t, tt.want, rec.Code, "%s %s", tt.method, tt.path)
	}

	do(t, srv, http.MethodPost, "/api/v1/skills", `{"id": "x"}`)
	rec := do(t, srv, http.MethodPost, "/api/v1/skills/x/updates", `{"score": true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSkillsWithoutStore(t *testing.T) {
	srv, err := NewServer(testConfig(), Options{Logger: infra.Discard()})
	require.NoError(t, err)

	rec := do(t, srv, http.MethodGet, "/api/v1/skills", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// Stateless rendering still works.
	rec = do(t, srv, http.MethodPost, "/api/v1/charts/progress", threeUpdates)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListSkillsEmptyIsArray(t *testing.T) {
	srv, _ := testServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/skills", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

// ════════════════════════════════════════════════════════════════════
// Playground UI
// ════════════════════════════════════════════════════════════════════

func TestPlaygroundUI(t *testing.T) {
	srv, err := NewServer(testConfig(), Options{Logger: infra.Discard(), ServeUI: true})
	require.NoError(t, err)

	rec := do(t, srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "skillchart playground")
	assert.Contains(t, rec.Body.String(), "/api/v1/charts/progress")

	rec = do(t, srv, http.MethodGet, "/nope.js", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// API routes still win over the catch-all.
	rec = do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPlaygroundUIDisabled(t *testing.T) {
	srv, _ := testServer(t)
	rec := do(t, srv, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
