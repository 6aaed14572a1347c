package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debsscc/Game-Data-Automation/cache"
	"github.com/debsscc/Game-Data-Automation/config"
	"github.com/debsscc/Game-Data-Automation/dom/domtest"
	"github.com/debsscc/Game-Data-Automation/finder"
	"github.com/debsscc/Game-Data-Automation/models"
)

// stubFinder returns a canned record or error and counts searches.
type stubFinder struct {
	*finder.Finder
	rec      *models.ProductRecord
	err      error
	searches int
}

func (s *stubFinder) AttemptExtraction(_ context.Context, query string) (*models.ProductRecord, error) {
	s.searches++
	if s.err != nil {
		return nil, s.err
	}
	rec := *s.rec
	rec.Query = query
	return &rec, nil
}

type stubStats struct{ stats models.SessionStats }

func (s stubStats) Stats() models.SessionStats { return s.stats }

func newStub(rec *models.ProductRecord, err error) *stubFinder {
	cfg := config.Load().Extraction
	cfg.ShortWait = 10 * time.Millisecond
	cfg.MidWait = 20 * time.Millisecond
	return &stubFinder{
		Finder: finder.New(nil, cfg, finder.DefaultPolicies(cfg)),
		rec:    rec,
		err:    err,
	}
}

func newTestRouter(t *testing.T, f *stubFinder, stats models.SessionStats) (http.Handler, *cache.Cache) {
	t.Helper()
	cfg := config.Load()
	cfg.Server.Mode = "test"
	cc := cache.New(10, time.Hour)
	t.Cleanup(cc.Close)
	return NewRouter(f, stubStats{stats}, cfg, cc, time.Now()), cc
}

func do(t *testing.T, h http.Handler, method, path, body, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) models.SearchResponse {
	t.Helper()
	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func sampleRecord() *models.ProductRecord {
	rec := models.NewProductRecord("")
	rec.Price = "R$ 59,99"
	rec.Status = models.StatusNormal
	rec.Competitors = []string{"Portal"}
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t, newStub(sampleRecord(), nil), models.SessionStats{MaxSessions: 2, ActiveSessions: 2})

	w := do(t, h, http.MethodGet, "/api/v1/health", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, 2, resp.SessionStats.MaxSessions)
}

func TestSearch_Success(t *testing.T) {
	h, _ := newTestRouter(t, newStub(sampleRecord(), nil), models.SessionStats{})

	w := do(t, h, http.MethodPost, "/api/v1/search", `{"query":" Portal 2 "}`, "application/json")

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Record)
	assert.Equal(t, "Portal 2", resp.Record.Query)
	assert.Equal(t, "R$ 59,99", resp.Record.Price)
	assert.Empty(t, resp.CacheStatus)
}

func TestSearch_CacheMissThenHit(t *testing.T) {
	f := newStub(sampleRecord(), nil)
	h, cc := newTestRouter(t, f, models.SessionStats{})

	w := do(t, h, http.MethodPost, "/api/v1/search", `{"query":"Portal 2","max_age":60000}`, "application/json")
	assert.Equal(t, "miss", decode(t, w).CacheStatus)
	assert.Equal(t, 1, cc.Len())

	w = do(t, h, http.MethodPost, "/api/v1/search", `{"query":"portal  2","max_age":60000}`, "application/json")
	resp := decode(t, w)
	assert.Equal(t, "hit", resp.CacheStatus)
	assert.Equal(t, "Portal 2", resp.Record.Query)
	assert.Equal(t, 1, f.searches)
}

func TestSearch_ErrorStatuses(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{models.ErrCodeNoResults, http.StatusNotFound},
		{models.ErrCodeNoSearchBox, http.StatusNotFound},
		{models.ErrCodeSessionUnavailable, http.StatusServiceUnavailable},
		{models.ErrCodeNavigation, http.StatusBadGateway},
		{models.ErrCodeTimeout, http.StatusGatewayTimeout},
		{models.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			f := newStub(nil, models.NewScrapeError(tt.code, "failed", nil))
			h, _ := newTestRouter(t, f, models.SessionStats{})

			w := do(t, h, http.MethodPost, "/api/v1/search", `{"query":"Portal 2"}`, "application/json")

			assert.Equal(t, tt.want, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			assert.Nil(t, resp.Record)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestSearch_InvalidInput(t *testing.T) {
	f := newStub(sampleRecord(), nil)
	h, _ := newTestRouter(t, f, models.SessionStats{})

	for _, body := range []string{`{}`, `{"query":"   "}`, `not json`, `{"query":"` + strings.Repeat("x", 201) + `"}`} {
		w := do(t, h, http.MethodPost, "/api/v1/search", body, "application/json")
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, models.ErrCodeInvalidInput, decode(t, w).Error.Code)
	}
	assert.Equal(t, 0, f.searches)
}

func TestExtract_SavedPage(t *testing.T) {
	h, _ := newTestRouter(t, newStub(sampleRecord(), nil), models.SessionStats{})
	body, err := json.Marshal(models.ExtractRequest{
		HTML:  domtest.Product(domtest.DefaultProduct),
		URL:   "https://store.example.com/app/620/",
		Query: "Portal 2",
	})
	require.NoError(t, err)

	w := do(t, h, http.MethodPost, "/api/v1/extract", string(body), "application/json")

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Record)
	assert.Equal(t, "Portal 2", resp.Record.Query)
	assert.Equal(t, "https://store.example.com/app/620/", resp.Record.SourceURL)
	assert.Equal(t, "12,345 reviews", resp.Record.ReviewCount)
	assert.Equal(t, "Valve Publishing", resp.Record.Publisher)
	assert.Equal(t, 2, resp.Record.DLCCount)
}

func TestExtract_WithoutURL(t *testing.T) {
	h, _ := newTestRouter(t, newStub(sampleRecord(), nil), models.SessionStats{})

	w := do(t, h, http.MethodPost, "/api/v1/extract", `{"html":"<p>nothing</p>"}`, "application/json")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.NA, decode(t, w).Record.SourceURL)
}

func TestForm(t *testing.T) {
	f := newStub(sampleRecord(), nil)
	h, _ := newTestRouter(t, f, models.SessionStats{})

	w := do(t, h, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="query"`)

	form := url.Values{"query": {"Portal 2"}}.Encode()
	w = do(t, h, http.MethodPost, "/search", form, "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "R$ 59,99")
	assert.Contains(t, w.Body.String(), "<li>Portal</li>")

	w = do(t, h, http.MethodPost, "/search", "query=+", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please enter a game name.")
}

func TestForm_NoResults(t *testing.T) {
	f := newStub(nil, models.NewScrapeError(models.ErrCodeNoResults, "no results", nil))
	h, _ := newTestRouter(t, f, models.SessionStats{})

	w := do(t, h, http.MethodPost, "/search", "query=zzzz", "application/x-www-form-urlencoded")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Could not find information for")
}

func TestNoRoute(t *testing.T) {
	h, _ := newTestRouter(t, newStub(sampleRecord(), nil), models.SessionStats{})

	w := do(t, h, http.MethodGet, "/api/v1/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/some/page", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Game Finder")
}
