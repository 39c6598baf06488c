package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsdash/internal/calendar"
	"opsdash/internal/config"
	appLog "opsdash/internal/log"
	"opsdash/internal/metrics"
	"opsdash/internal/model"
)

type countingFetcher struct {
	calls atomic.Int32
	jobs  []model.Job
}

func (f *countingFetcher) FetchJobs(_ context.Context, p calendar.Period) []model.Job {
	f.calls.Add(1)
	out := make([]model.Job, 0)
	for _, j := range f.jobs {
		if p.Contains(j.Date) {
			out = append(out, j)
		}
	}
	return out
}

func sampleJobs() []model.Job {
	return []model.Job{
		{ID: "j2", ClientID: "c2", Title: "Office Clean", Date: calendar.MustParse("2025-10-21"), Start: "18:00", End: "20:00", Amount: 120},
		{ID: "j1", ClientID: "c1", Title: "End of Tenancy", Date: calendar.MustParse("2025-10-23"), Start: "09:00", End: "11:00", Amount: 180, Completed: true},
	}
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *countingFetcher) {
	t.Helper()
	f := &countingFetcher{jobs: sampleJobs()}
	s := NewServer(cfg, f, metrics.NewCollector())
	s.builder.Today = func() calendar.Date { return calendar.MustParse("2025-10-23") }
	return s, f
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := get(t, s.Handler(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestDashboard_WeekMonthView(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := get(t, s.Handler(), "/api/dashboard?range=week&view=month&cursor=2025-10-23")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dashboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "2025-10-20", resp.Period.From.String())
	assert.Equal(t, "2025-10-27", resp.Period.To.String())
	assert.Equal(t, "week", resp.Label)
	assert.Equal(t, model.Metrics{Earnings: 300, ClientCount: 2, JobsCompleted: 1}, resp.Metrics)
	assert.Equal(t, "£300.00", resp.EarningsText)
	assert.Equal(t, "UTC", resp.Timezone)

	require.Len(t, resp.Days, 2)
	assert.Equal(t, "2025-10-21", resp.Days[0].Date.String())
	assert.Equal(t, 1, resp.Agenda.Count)
	assert.Equal(t, "j1", resp.Agenda.Jobs[0].ID)

	require.Len(t, resp.Grid, calendar.GridSize)
	assert.Equal(t, "2025-09-29", resp.Grid[0].Date.String())
	assert.Equal(t, "/dashboard?cursor=2025-10-16&range=week&view=month", resp.Links.Prev)
	assert.Equal(t, "/dashboard?cursor=2025-10-30&range=week&view=month", resp.Links.Next)
}

func TestDashboard_DefaultsAndDayView(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := get(t, s.Handler(), "/api/dashboard?range=decade&cursor=2025-13-45&view=day")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dashboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, calendar.RangeWeek, resp.State.Range)
	assert.Equal(t, "2025-10-23", resp.State.Cursor.String())
	assert.Empty(t, resp.Grid)
}

func TestDashboard_ResolvesTimezoneOnce(t *testing.T) {
	var buf bytes.Buffer
	appLog.SetOutput(&buf)
	t.Cleanup(func() { appLog.SetOutput(os.Stderr) })

	cfg := testConfig()
	cfg.Timezone = "Mars/Olympus"
	s, _ := newTestServer(t, cfg)

	for i := 0; i < 3; i++ {
		rec := get(t, s.Handler(), "/api/dashboard?range=week&cursor=2025-10-23")
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, time.Local.String(), body["timezone"])
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "failed to load timezone"))
}

func TestDashboard_RejectsPost(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/dashboard", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDashboard_CachesUntilRefresh(t *testing.T) {
	s, f := newTestServer(t, testConfig())
	h := s.Handler()

	get(t, h, "/api/dashboard?cursor=2025-10-23")
	get(t, h, "/api/dashboard?cursor=2025-10-24")
	assert.Equal(t, int32(1), f.calls.Load(), "same week is served from cache")

	get(t, h, "/api/dashboard?cursor=2025-10-30")
	assert.Equal(t, int32(2), f.calls.Load())

	s.Refresh()
	get(t, h, "/api/dashboard?cursor=2025-10-23")
	assert.Equal(t, int32(3), f.calls.Load())
}

func TestDashboard_ZeroTTLDisablesCache(t *testing.T) {
	cfg := testConfig()
	cfg.CacheTTLSeconds = 0
	s, f := newTestServer(t, cfg)

	get(t, s.Handler(), "/api/dashboard?cursor=2025-10-23")
	get(t, s.Handler(), "/api/dashboard?cursor=2025-10-23")
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestJobCache_Expires(t *testing.T) {
	f := &countingFetcher{jobs: sampleJobs()}
	c := newJobCache(f, time.Minute)
	now := time.Date(2025, 10, 23, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	p := calendar.Resolve(calendar.RangeWeek, calendar.MustParse("2025-10-23"))
	first := c.FetchJobs(context.Background(), p)
	require.Len(t, first, 2)
	first[0].Title = "mutated"

	again := c.FetchJobs(context.Background(), p)
	assert.Equal(t, "Office Clean", again[0].Title, "callers get a copy")
	assert.Equal(t, int32(1), f.calls.Load())

	now = now.Add(2 * time.Minute)
	c.FetchJobs(context.Background(), p)
	assert.Equal(t, int32(2), f.calls.Load())
	assert.Equal(t, 1, c.size())
}

func TestJobCache_EvictsExpiredPeriods(t *testing.T) {
	c := newJobCache(&countingFetcher{}, time.Minute)
	now := time.Date(2025, 10, 23, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	start := calendar.MustParse("2025-01-01")
	for i := 0; i < 500; i++ {
		c.FetchJobs(context.Background(), calendar.Resolve(calendar.RangeDay, start.AddDays(i)))
	}
	assert.Equal(t, 500, c.size())

	now = now.Add(2 * time.Minute)
	c.FetchJobs(context.Background(), calendar.Resolve(calendar.RangeDay, start.AddDays(-1)))
	assert.Equal(t, 1, c.size(), "expired periods are dropped on the next write")
}

func TestPeriod(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := get(t, s.Handler(), "/api/period?range=month&cursor=2025-10-23")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp periodResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2025-10-01", resp.Period.From.String())
	assert.Equal(t, "2025-11-01", resp.Period.To.String())
	assert.Equal(t, 31, resp.Days)
	assert.Equal(t, "2025-09-23", resp.Prev.String())
	assert.Equal(t, "2025-11-23", resp.Next.String())
}

func TestPeriod_DefaultsToTodaysWeek(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := get(t, s.Handler(), "/api/period")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp periodResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, calendar.RangeWeek, resp.Range)
	assert.Equal(t, "2025-10-20", resp.Period.From.String())
}

func TestPeriod_RejectsBadInput(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	assert.Equal(t, http.StatusBadRequest, get(t, s.Handler(), "/api/period?range=decade").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s.Handler(), "/api/period?cursor=2025-1-5").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	get(t, s.Handler(), "/api/dashboard?range=day&view=day&cursor=2025-10-23")

	rec := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `opsdash_dashboard_requests_total{range="day",view="day"} 1`))
}

func TestMetricsEndpoint_AbsentWithoutCollector(t *testing.T) {
	s := NewServer(testConfig(), &countingFetcher{}, nil)
	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/metrics").Code)
}

func TestBasicAuth(t *testing.T) {
	cfg := testConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "ops", Password: "s3cret"}
	s, _ := newTestServer(t, cfg)
	h := s.Handler()

	assert.Equal(t, http.StatusOK, get(t, h, "/health").Code)

	rec := get(t, h, "/api/dashboard")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.SetBasicAuth("ops", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.SetBasicAuth("ops", "s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBasicAuth_DisabledWhenIncomplete(t *testing.T) {
	cfg := testConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "ops"}
	s, _ := newTestServer(t, cfg)
	assert.Equal(t, http.StatusOK, get(t, s.Handler(), "/api/dashboard").Code)
}

func TestRefresher(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	_, err := NewRefresher(s, "not a schedule", time.UTC)
	assert.Error(t, err)

	idle, err := NewRefresher(s, "", time.UTC)
	require.NoError(t, err)
	assert.True(t, idle.Next().IsZero())

	r, err := NewRefresher(s, "*/15 * * * *", time.UTC)
	require.NoError(t, err)
	r.Start()
	defer r.Stop()
	assert.False(t, r.Next().IsZero())
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Listen = "127.0.0.1:0"
	s, _ := newTestServer(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
