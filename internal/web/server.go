package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"famcal/internal/calendar"
	"famcal/internal/config"
	appLog "famcal/internal/log"
	"famcal/internal/model"
)

const (
	dateLayout      = "2006-01-02"
	shutdownTimeout = 10 * time.Second
)

// WeekBuilder builds the week containing a date.
type WeekBuilder interface {
	Week(ctx context.Context, date time.Time) model.WeekView
}

// ConflictDetector reports the conflicts of a week.
type ConflictDetector interface {
	DetectWeek(ctx context.Context, week model.WeekView) []model.Conflict
}

// Renderer turns the HTML planning into print formats.
type Renderer interface {
	PDF(ctx context.Context, doc []byte) ([]byte, error)
	PNG(ctx context.Context, doc []byte) ([]byte, error)
}

// Deps are the collaborators served by the API. SpecialDays and Renderer
// are optional; their routes answer 501 when missing.
type Deps struct {
	Weeks       WeekBuilder
	Detector    ConflictDetector
	SpecialDays calendar.SpecialDaySource
	Renderer    Renderer
	Location    *time.Location
	// AccessLog receives Apache-style access lines; nil means stdout.
	AccessLog io.Writer
}

// Server exposes weeks, conflicts, recurrences and exports over HTTP.
type Server struct {
	cfg     *config.Config
	deps    Deps
	loc     *time.Location
	now     func() time.Time
	router  *mux.Router
	cache   *weekCache
	metrics *Metrics
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	s := &Server{
		cfg:     cfg,
		deps:    deps,
		loc:     loc,
		now:     time.Now,
		router:  mux.NewRouter(),
		cache:   newWeekCache(ttl),
		metrics: NewMetrics(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Use(s.metrics.Middleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/week", s.handleWeek).Methods(http.MethodGet)
	api.HandleFunc("/conflicts", s.handleConflicts).Methods(http.MethodGet)
	api.HandleFunc("/recurrence", s.handleRecurrence).Methods(http.MethodGet)
	api.HandleFunc("/special-days", s.handleSpecialDays).Methods(http.MethodGet)

	s.router.HandleFunc("/week.{format:txt|html|ics|pdf|png}", s.handleExport).Methods(http.MethodGet)
}

// Handler returns the full handler chain: access log, then auth, then
// the router.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.router)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		h = s.basicAuthMiddleware(h)
	}
	out := s.deps.AccessLog
	if out == nil {
		out = os.Stdout
	}
	return handlers.LoggingHandler(out, h)
}

func (s *Server) basicAuthEnabled() bool {
	return s.cfg.BasicAuth != nil && s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware protects every route except /health.
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
			w.Header().Set("WWW-Authenticate", `Basic realm="famcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// WeekWithConflicts returns the week containing date and its conflicts,
// from the cache when fresh.
func (s *Server) WeekWithConflicts(ctx context.Context, date time.Time) (model.WeekView, []model.Conflict) {
	monday := calendar.WeekStart(date.In(s.loc))
	if e, ok := s.cache.get(monday); ok {
		s.metrics.CacheHit()
		return e.week, e.conflicts
	}
	s.metrics.CacheMiss()

	week := s.deps.Weeks.Week(ctx, monday)
	var conflicts []model.Conflict
	if s.deps.Detector != nil {
		conflicts = s.deps.Detector.DetectWeek(ctx, week)
	}
	s.metrics.ObserveSummary(calendar.Summarize(conflicts))
	s.cache.put(weekEntry{week: week, conflicts: conflicts})
	return week, conflicts
}

// Invalidate drops every cached week, typically after a feed refresh.
func (s *Server) Invalidate() {
	s.cache.clear()
}

// Warm computes the current week ahead of the first request.
func (s *Server) Warm(ctx context.Context) {
	week, conflicts := s.WeekWithConflicts(ctx, s.now())
	appLog.Debug("web: week warmed", "start", week.Start.Format(dateLayout), "conflicts", len(conflicts))
}

// Run serves on cfg.Listen until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
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
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
