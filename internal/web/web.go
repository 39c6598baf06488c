package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"opsdash/internal/calendar"
	"opsdash/internal/config"
	"opsdash/internal/dashboard"
	appLog "opsdash/internal/log"
	"opsdash/internal/metrics"
	"opsdash/internal/nav"
)

// Server provides the dashboard JSON API.
type Server struct {
	cfg     *config.Config
	loc     *time.Location
	mux     *http.ServeMux
	cache   *jobCache
	builder *dashboard.Builder
	metrics *metrics.Collector
}

// NewServer constructs a Server reading jobs through jobs. collector may
// be nil, in which case /metrics is not served.
func NewServer(cfg *config.Config, jobs dashboard.JobFetcher, collector *metrics.Collector) *Server {
	loc := cfg.Location()
	cache := newJobCache(jobs, cfg.CacheTTL())
	b := dashboard.NewBuilder(cache, cfg.BasePath)
	b.Today = func() calendar.Date { return calendar.TodayIn(loc) }

	s := &Server{
		cfg:     cfg,
		loc:     loc,
		mux:     http.NewServeMux(),
		cache:   cache,
		builder: b,
		metrics: collector,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Refresh drops cached jobs.
func (s *Server) Refresh() {
	s.cache.Invalidate()
	if s.metrics != nil {
		s.metrics.ObserveRefresh()
	}
	appLog.Info("job cache refreshed")
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="opsdash", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Serve listens on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/dashboard", s.handleDashboard)
	s.mux.HandleFunc("/api/period", s.handlePeriod)
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics.Handler())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// dashboardResponse adds display-only fields to the built view.
type dashboardResponse struct {
	dashboard.View
	EarningsText string `json:"earnings_text"`
	Timezone     string `json:"timezone"`
}

// handleDashboard builds the view for the navigation state on the query.
//
// GET /api/dashboard?range=week&view=month&cursor=2025-10-23
//
// Every parameter is optional and malformed values fall back to defaults,
// so this endpoint only fails on the method.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	v := s.builder.BuildFromQuery(r.Context(), r.URL.Query())
	appLog.Debug("api dashboard request",
		"range", string(v.State.Range),
		"view", string(v.State.View),
		"cursor", v.State.Cursor.String(),
		"jobs", countJobs(v.Days),
	)
	if s.metrics != nil {
		s.metrics.ObserveDashboard(string(v.State.Range), string(v.State.View), v.Metrics.Earnings)
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		View:         v,
		EarningsText: dashboard.FormatMoney(s.cfg.CurrencySymbol, v.Metrics.Earnings),
		Timezone:     s.loc.String(),
	})
}

type periodResponse struct {
	Range  calendar.Range  `json:"range"`
	Title  string          `json:"title"`
	Cursor calendar.Date   `json:"cursor"`
	Period calendar.Period `json:"period"`
	Days   int             `json:"days"`
	Prev   calendar.Date   `json:"prev"`
	Next   calendar.Date   `json:"next"`
}

// handlePeriod resolves a range around a reference date without touching
// any job source.
//
// GET /api/period?range=month&cursor=2025-10-23
//
// Unlike the dashboard, explicit but invalid values are rejected with 400.
func (s *Server) handlePeriod(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	rng := nav.DefaultRange
	if raw := q.Get(nav.ParamRange); raw != "" {
		parsed, ok := calendar.ParseRange(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown range "+raw)
			return
		}
		rng = parsed
	}

	cursor := s.builder.Today()
	if raw := q.Get(nav.ParamCursor); raw != "" {
		d, err := calendar.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		cursor = d
	}

	p := calendar.Resolve(rng, cursor)
	writeJSON(w, http.StatusOK, periodResponse{
		Range:  rng,
		Title:  rng.Title(),
		Cursor: cursor,
		Period: p,
		Days:   p.Days(),
		Prev:   calendar.Shift(rng, cursor, -1),
		Next:   calendar.Shift(rng, cursor, 1),
	})
}

func countJobs(days []dashboard.DayGroup) int {
	n := 0
	for _, d := range days {
		n += d.Count
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

var _ dashboard.JobFetcher = (*jobCache)(nil)
