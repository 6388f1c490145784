// Package web is the daemon's HTTP surface: health, a read-only view
// of the current week, and a manual sync trigger. Schedule mutation
// stays with the CLI; the API exists so a dashboard or status widget
// can watch the week without touching the database file.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"weekplan/internal/config"
	applog "weekplan/internal/log"
	"weekplan/internal/model"
)

// Store is the read side of persistence the server needs.
type Store interface {
	Load() (model.Schedule, int, error)
}

// SyncTrigger runs one explicit feed synchronization cycle.
type SyncTrigger interface {
	SyncNow(ctx context.Context) error
}

// Server serves the HTTP API.
type Server struct {
	cfg   *config.Config
	store Store
	sync  SyncTrigger
	mux   *http.ServeMux

	// Week responses are cached briefly so a polling dashboard does
	// not re-read the database on every request. A manual sync clears
	// the cache.
	weekMu    sync.Mutex
	weekCache map[string]*weekCacheEntry
}

const weekCacheTTL = 10 * time.Second

type weekCacheEntry struct {
	resp      weekResponse
	updatedAt time.Time
}

// NewServer constructs a Server over the given collaborators.
func NewServer(cfg *config.Config, st Store, trigger SyncTrigger) *Server {
	s := &Server{
		cfg:       cfg,
		store:     st,
		sync:      trigger,
		mux:       http.NewServeMux(),
		weekCache: make(map[string]*weekCacheEntry),
	}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler, wrapped with basic auth when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		applog.Info("HTTP basic auth enabled", "listen", s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// A blank username or password counts as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
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
			w.Header().Set("WWW-Authenticate", `Basic realm="weekplan", charset="UTF-8"`)
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

// Run serves the API on cfg.Listen until ctx is cancelled, then shuts
// down gracefully.
func Run(ctx context.Context, cfg *config.Config, st Store, trigger SyncTrigger) error {
	s := NewServer(cfg, st, trigger)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			applog.Error("HTTP server shutdown", err)
		}
	}()

	applog.Info("starting HTTP server", "listen", cfg.Listen)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/week", s.handleWeek)
	s.mux.HandleFunc("/api/sync", s.handleSync)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// weekResponse is the JSON response shape for /api/week.
type weekResponse struct {
	WeekStart         string   `json:"week_start"`
	Days              []dayDTO `json:"days"`
	CompletionPercent int      `json:"completion_percent"`
}

// dayDTO is one weekday column of the week view.
type dayDTO struct {
	Day   string               `json:"day"`
	Date  string               `json:"date"`
	Items []model.ScheduleItem `json:"items"`
}

// handleWeek returns the schedule scoped to one week.
//
// GET /api/week?date=2024-10-14
//
// The date selects the week (any day inside it works); omitted means
// the current week. Items without a due date appear in every week.
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	ref := time.Now()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := time.ParseInLocation(model.DateLayout, d, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			return
		}
		ref = parsed
	}

	weekDates := model.WeekDates(ref)
	cacheKey := model.DateString(weekDates[0])

	s.weekMu.Lock()
	entry := s.weekCache[cacheKey]
	s.weekMu.Unlock()
	if entry != nil && time.Since(entry.updatedAt) < weekCacheTTL {
		writeJSON(w, http.StatusOK, entry.resp)
		return
	}

	sched, _, err := s.store.Load()
	if err != nil {
		applog.Error("api week: load failed", err)
		writeError(w, http.StatusInternalServerError, "failed to load schedule")
		return
	}

	inWeek := make(map[string]bool, 7)
	for _, d := range weekDates {
		inWeek[model.DateString(d)] = true
	}

	resp := weekResponse{
		WeekStart:         cacheKey,
		CompletionPercent: sched.CompletionPercent(),
	}
	for i, day := range model.Days {
		items := []model.ScheduleItem{}
		for _, item := range sched[day] {
			if item.DueDate != "" && !inWeek[item.DueDate] {
				continue
			}
			items = append(items, item)
		}
		resp.Days = append(resp.Days, dayDTO{
			Day:   day,
			Date:  model.DateString(weekDates[i]),
			Items: items,
		})
	}

	s.weekMu.Lock()
	s.weekCache[cacheKey] = &weekCacheEntry{resp: resp, updatedAt: time.Now()}
	s.weekMu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// handleSync triggers one synchronization cycle.
//
// POST /api/sync
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	if s.sync == nil {
		writeError(w, http.StatusServiceUnavailable, "sync not available")
		return
	}

	if err := s.sync.SyncNow(r.Context()); err != nil {
		applog.Error("api sync failed", err)
		writeError(w, http.StatusBadGateway, "sync failed: "+err.Error())
		return
	}

	s.weekMu.Lock()
	s.weekCache = make(map[string]*weekCacheEntry)
	s.weekMu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
