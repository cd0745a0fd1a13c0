package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/suicide-explorer/internal/config"
	"github.com/JonMunkholm/suicide-explorer/internal/core"
	"github.com/JonMunkholm/suicide-explorer/internal/store"
)

const sampleCSV = "country,year,sex,age,suicides_no,population,suicides/100k pop,country-year,HDI for year, gdp_for_year ($) ,gdp_per_capita ($),generation\n" +
	"Albania,1987,male,15-24 years,21,312900,6.71,Albania1987,,\"2,156,624,900\",796,Generation X\n" +
	"Albania,1987,male,35-54 years,abc,308000,5.19,Albania1987,,\"2,156,624,900\",796,Silent\n"

type fakePublisher struct {
	published []*core.Table
	origins   []string
	err       error
	pingErr   error
}

func (f *fakePublisher) Publish(ctx context.Context, t *core.Table) (*store.Batch, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.published = append(f.published, t)
	f.origins = append(f.origins, core.OriginFromContext(ctx))
	return &store.Batch{
		ID:          uuid.New(),
		Digest:      t.Digest(),
		Rows:        t.NumRows(),
		PublishedAt: time.Now(),
		Existing:    len(f.published) > 1,
	}, nil
}

func (f *fakePublisher) Batches(context.Context, int) ([]store.Batch, error) {
	return []store.Batch{{ID: uuid.New(), Rows: 2}}, nil
}

func (f *fakePublisher) Ping(context.Context) error {
	return f.pingErr
}

func testConfig(dataPath string) *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 8080, RequestTimeout: 10 * time.Second, ShutdownTimeout: time.Second},
		Data:     config.DataConfig{Path: dataPath, PreviewRows: 10},
		Database: config.DatabaseConfig{PublishTimeout: 10 * time.Second, PublishWait: 5 * time.Second},
		Rate:     config.RateLimitConfig{Enabled: false},
		Security: config.SecurityConfig{SessionSecret: config.DevSessionSecret, EnableCSP: true},
		Logging:  config.LoggingConfig{Level: "info", Format: "text"},
	}
}

func writeData(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sucide_case.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestServer(t *testing.T, content string, pub Publisher) *Server {
	t.Helper()
	path := writeData(t, content)
	s := NewServer(core.NewService(path), pub, testConfig(path))
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t, sampleCSV, nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Raw Data Preview")
	assert.Contains(t, body, "Cleaned Data Preview")
	assert.Contains(t, body, "2156624900")
	assert.NotContains(t, body, `id="dataset"`)
	assert.NotContains(t, body, "Publish to Database")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestDashboard_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.csv")
	s := NewServer(core.NewService(path), nil, testConfig(path))

	rec := do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "DATA001")
}

func TestDashboard_SchemaMismatch(t *testing.T) {
	s := newTestServer(t, "country\nPeru\n", nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "SCHEMA001")
}

func TestViewToggles(t *testing.T) {
	s := newTestServer(t, sampleCSV, nil)

	post := func(path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(url.Values{}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		for _, c := range cookies {
			req.AddCookie(c)
		}
		return do(s, req)
	}
	get := func(cookies []*http.Cookie) string {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := do(s, req)
		require.Equal(t, http.StatusOK, rec.Code)
		return rec.Body.String()
	}

	rec := post("/view/dataset", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	body := get(cookies)
	assert.Contains(t, body, `id="dataset"`)
	assert.NotContains(t, body, `id="columns"`)

	rec = post("/view/columns", cookies)
	cookies = rec.Result().Cookies()
	body = get(cookies)
	assert.Contains(t, body, `id="dataset"`)
	assert.Contains(t, body, `id="columns"`)

	rec = post("/view/reset", cookies)
	cookies = rec.Result().Cookies()
	body = get(cookies)
	assert.NotContains(t, body, `id="dataset"`)
	assert.NotContains(t, body, `id="columns"`)
}

func TestViewState_Flags(t *testing.T) {
	var v ViewState
	assert.False(t, v.Has(ShowDataset))

	v = v.With(ShowDataset)
	assert.True(t, v.Has(ShowDataset))
	assert.False(t, v.Has(ShowColumns))

	v = v.With(ShowColumns)
	assert.True(t, v.Has(ShowDataset|ShowColumns))
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t, sampleCSV, nil)

	for _, path := range []string{"/api/columns", "/api/issues", "/api/steps"} {
		t.Run(path, func(t *testing.T) {
			rec := do(s, httptest.NewRequest(http.MethodGet, path, nil))
			require.Equal(t, http.StatusOK, rec.Code)

			var items []map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
			assert.NotEmpty(t, items)
		})
	}
}

func TestPreview(t *testing.T) {
	s := newTestServer(t, sampleCSV, nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/preview/clean?rows=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PreviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "clean", resp.Table)
	assert.Equal(t, 2, resp.TotalRows)
	require.Len(t, resp.Rows, 2)

	idx := -1
	for i, c := range resp.Columns {
		if c.Name == core.ColSuicidesNo {
			idx = i
		}
	}
	require.GreaterOrEqual(t, idx, 0)
	require.NotNil(t, resp.Rows[0][idx])
	assert.Equal(t, "21", *resp.Rows[0][idx])
	assert.Nil(t, resp.Rows[1][idx], "unparsable count is null")

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/preview/raw?rows=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Rows, 1)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/preview/other", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileAndReport(t *testing.T) {
	s := newTestServer(t, sampleCSV, nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/profile?table=raw", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var p core.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, 2, p.Rows)
	assert.Equal(t, 12, p.Columns)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/profile?table=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/report", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var report core.CleanReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, []string{core.ColHDIForYear}, report.Dropped)
}

func TestExport(t *testing.T) {
	s := newTestServer(t, sampleCSV, nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="cleaned_suicide_data.csv"`, rec.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "country,year,sex,age,suicides_no,population,suicides/100k_pop,country-year,gdp_for_year_$,gdp_per_capita,generation", lines[0])
	assert.Equal(t, "Albania,1987,male,15-24 years,21,312900,6.71,Albania1987,2156624900,796,Generation X", lines[1])
	assert.Equal(t, "Albania,1987,male,35-54 years,,308000,5.19,Albania1987,2156624900,796,Silent", lines[2])
}

func TestExport_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.csv")
	s := NewServer(core.NewService(path), nil, testConfig(path))

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/export", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "DATA001", resp.Code)
}

func TestReload(t *testing.T) {
	path := writeData(t, sampleCSV)
	s := NewServer(core.NewService(path), nil, testConfig(path))

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/report", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, os.WriteFile(path, []byte("suicides_no,gdp_for_year ($),gdp_per_capita ($)\n1,2,3\n"), 0o644))

	rec = do(s, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp["rows"])
}

func TestPublish(t *testing.T) {
	t.Run("disabled without database", func(t *testing.T) {
		s := newTestServer(t, sampleCSV, nil)

		rec := do(s, httptest.NewRequest(http.MethodPost, "/api/publish", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "PUB001", resp.Code)
	})

	t.Run("publishes clean table", func(t *testing.T) {
		pub := &fakePublisher{}
		s := newTestServer(t, sampleCSV, pub)

		rec := do(s, httptest.NewRequest(http.MethodPost, "/api/publish", nil))
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Len(t, pub.published, 1)
		assert.False(t, pub.published[0].HasColumn(core.ColHDIForYear))

		var batch store.Batch
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
		assert.Equal(t, 2, batch.Rows)

		rec = do(s, httptest.NewRequest(http.MethodPost, "/api/publish", nil))
		assert.Equal(t, http.StatusOK, rec.Code, "second publish reports the existing batch")
	})

	t.Run("records client origin", func(t *testing.T) {
		pub := &fakePublisher{}
		s := newTestServer(t, sampleCSV, pub)

		req := httptest.NewRequest(http.MethodPost, "/api/publish", nil)
		req.RemoteAddr = "203.0.113.7:5123"
		rec := do(s, req)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, []string{"203.0.113.7"}, pub.origins)
	})

	t.Run("busy while another publish runs", func(t *testing.T) {
		path := writeData(t, sampleCSV)
		cfg := testConfig(path)
		cfg.Database.PublishWait = 20 * time.Millisecond
		pub := &fakePublisher{}
		s := NewServer(core.NewService(path), pub, cfg)
		t.Cleanup(func() { s.publishGate.Release() })

		require.True(t, s.publishGate.TryAcquire())
		rec := do(s, httptest.NewRequest(http.MethodPost, "/api/publish", nil))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Empty(t, pub.published)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "PUB002", resp.Code)
	})

	t.Run("busy slot answers before the request deadline", func(t *testing.T) {
		path := writeData(t, sampleCSV)
		cfg := testConfig(path)
		cfg.Server.RequestTimeout = 300 * time.Millisecond
		cfg.Database.PublishTimeout = 2 * time.Minute
		cfg.Database.PublishWait = 30 * time.Millisecond
		pub := &fakePublisher{}
		s := NewServer(core.NewService(path), pub, cfg)
		t.Cleanup(func() { s.publishGate.Release() })

		require.True(t, s.publishGate.TryAcquire())
		start := time.Now()
		rec := do(s, httptest.NewRequest(http.MethodPost, "/api/publish", nil))
		assert.Less(t, time.Since(start), cfg.Server.RequestTimeout)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "PUB002", resp.Code)
	})

	t.Run("dashboard form gets a page", func(t *testing.T) {
		s := newTestServer(t, sampleCSV, &fakePublisher{})

		req := httptest.NewRequest(http.MethodPost, "/api/publish", strings.NewReader(""))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := do(s, req)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "Published 2 rows")
		assert.Contains(t, rec.Body.String(), "Back to dashboard")
	})

	t.Run("database error is mapped", func(t *testing.T) {
		s := newTestServer(t, sampleCSV, &fakePublisher{err: errors.New("dial tcp: connection refused")})

		rec := do(s, httptest.NewRequest(http.MethodPost, "/api/publish", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "DB004", resp.Code)
	})

	t.Run("api key enforced", func(t *testing.T) {
		path := writeData(t, sampleCSV)
		cfg := testConfig(path)
		cfg.Security.RequireAPIKey = true
		cfg.Security.APIKeys = []string{"secret-key"}
		s := NewServer(core.NewService(path), &fakePublisher{}, cfg)

		rec := do(s, httptest.NewRequest(http.MethodPost, "/api/publish", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		req := httptest.NewRequest(http.MethodPost, "/api/publish", nil)
		req.Header.Set("X-API-Key", "secret-key")
		rec = do(s, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing data", core.ErrDataUnavailable, http.StatusServiceUnavailable},
		{"publishing disabled", store.ErrNotConfigured, http.StatusServiceUnavailable},
		{"schema mismatch", core.ErrSchemaMismatch, http.StatusUnprocessableEntity},
		{"publish busy", core.ErrPublishBusy, http.StatusTooManyRequests},
		{"deadline", fmt.Errorf("publish: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestBatches(t *testing.T) {
	s := newTestServer(t, sampleCSV, nil)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/batches", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s = newTestServer(t, sampleCSV, &fakePublisher{})
	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/batches", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var batches []store.Batch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batches))
	assert.Len(t, batches, 1)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, sampleCSV, nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"maxConcurrent":1`)
	assert.NotContains(t, rec.Body.String(), `"database"`)
}

func TestHealth_Database(t *testing.T) {
	s := newTestServer(t, sampleCSV, &fakePublisher{})
	rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"ok"`)

	s = newTestServer(t, sampleCSV, &fakePublisher{pingErr: errors.New("dial tcp: connection refused")})
	rec = do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"unreachable"`)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()

	assert.True(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("1.1.1.1"))
	assert.False(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("2.2.2.2"))
}

func TestRateLimitMiddleware(t *testing.T) {
	path := writeData(t, sampleCSV)
	cfg := testConfig(path)
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, ExportLimit: 1}
	s := NewServer(core.NewService(path), nil, cfg)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/export", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "RATE001", resp.Code)
}
