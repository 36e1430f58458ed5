// Package server exposes the schedule, standings and watcher over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/pfrederiksen/kickoff-watch/internal/calendar"
	"github.com/pfrederiksen/kickoff-watch/internal/filter"
	"github.com/pfrederiksen/kickoff-watch/internal/localize"
	"github.com/pfrederiksen/kickoff-watch/internal/logger"
	"github.com/pfrederiksen/kickoff-watch/internal/match"
	"github.com/pfrederiksen/kickoff-watch/internal/watcher"
)

// Fetcher loads live data from the source site
type Fetcher interface {
	FetchSchedule(ctx context.Context, currentYear int, source *time.Location) ([]match.Match, error)
	FetchStandings(ctx context.Context) ([]match.Standing, error)
}

// Runner triggers a watcher cycle
type Runner interface {
	Run(ctx context.Context, now time.Time) (*watcher.Report, error)
}

// Options configures the server
type Options struct {
	BufferMinutes int
	SourceZone    *time.Location
	DisplayZone   *time.Location
	Names         localize.Table
}

// Server serves the HTTP API
type Server struct {
	fetcher Fetcher
	runner  Runner
	opts    Options
	metrics *logger.Metrics
	now     func() time.Time
	router  *mux.Router
}

// New creates a server. runner may be nil, in which case POST /run is unavailable.
func New(fetcher Fetcher, runner Runner, opts Options) *Server {
	if opts.SourceZone == nil {
		opts.SourceZone = time.UTC
	}
	if opts.DisplayZone == nil {
		opts.DisplayZone = opts.SourceZone
	}
	if opts.Names == nil {
		opts.Names = localize.Identity()
	}

	s := &Server{
		fetcher: fetcher,
		runner:  runner,
		opts:    opts,
		metrics: logger.DefaultMetrics(),
		now:     time.Now,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/schedule", s.handleSchedule).Methods(http.MethodGet)
	r.HandleFunc("/schedule.ics", s.handleScheduleICS).Methods(http.MethodGet)
	r.HandleFunc("/standings", s.handleStandings).Methods(http.MethodGet)
	r.HandleFunc("/next-match", s.handleNextMatch).Methods(http.MethodGet)
	r.HandleFunc("/run", s.handleRun).Methods(http.MethodPost)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	return r
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", logger.Fields{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		logger.Info("HTTP server stopped", nil)
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		elapsed := time.Since(start)

		s.metrics.IncrCounter("http.requests")
		s.metrics.RecordTiming("http."+r.URL.Path, elapsed)
		logger.Debug("HTTP request", logger.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": elapsed.String(),
		})
	})
}

// matchView is a match as shown to API clients, with display names
type matchView struct {
	ID           string  `json:"id"`
	HomeTeam     string  `json:"homeTeam"`
	AwayTeam     string  `json:"awayTeam"`
	HomeName     string  `json:"homeName"`
	AwayName     string  `json:"awayName"`
	Kickoff      *string `json:"kickoff"`
	Status       *string `json:"status"`
	MinutesUntil *int    `json:"minutesUntil,omitempty"`
}

type scheduleResponse struct {
	Timezone string      `json:"timezone"`
	Total    int         `json:"total"`
	Matches  []matchView `json:"matches"`
}

type nextMatchResponse struct {
	Match         matchView `json:"match"`
	Imminent      bool      `json:"imminent"`
	BufferMinutes int       `json:"bufferMinutes"`
}

func (s *Server) view(m match.Match, loc *time.Location) matchView {
	v := matchView{
		ID:       m.ID,
		HomeTeam: m.HomeTeam,
		AwayTeam: m.AwayTeam,
		HomeName: s.opts.Names.Name(m.HomeTeam),
		AwayName: s.opts.Names.Name(m.AwayTeam),
	}
	if m.HasKickoff() {
		kickoff := m.Kickoff.In(loc).Format(time.RFC3339)
		v.Kickoff = &kickoff
	}
	if m.Status != "" {
		status := m.Status
		v.Status = &status
	}
	return v
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	loc, ok := s.zone(w, r)
	if !ok {
		return
	}

	matches, ok := s.schedule(w, r)
	if !ok {
		return
	}

	if teams := r.URL.Query()["team"]; len(teams) > 0 {
		f := &filter.Filter{Teams: teams}
		matches = f.Apply(matches, s.opts.Names, loc)
	}

	resp := scheduleResponse{
		Timezone: loc.String(),
		Total:    len(matches),
		Matches:  make([]matchView, 0, len(matches)),
	}
	for _, m := range matches {
		resp.Matches = append(resp.Matches, s.view(m, loc))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScheduleICS(w http.ResponseWriter, r *http.Request) {
	matches, ok := s.schedule(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="schedule.ics"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(calendar.GenerateICS(matches, s.opts.Names, s.now())))
}

func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	standings, err := s.fetcher.FetchStandings(r.Context())
	if err != nil {
		logger.Error("Failed to fetch standings", nil, err)
		writeError(w, http.StatusBadGateway, "fetching standings failed")
		return
	}
	if standings == nil {
		standings = []match.Standing{}
	}
	writeJSON(w, http.StatusOK, standings)
}

// handleNextMatch returns the earliest match still to kick off, whether or
// not it falls inside the alert window
func (s *Server) handleNextMatch(w http.ResponseWriter, r *http.Request) {
	loc, ok := s.zone(w, r)
	if !ok {
		return
	}

	matches, ok := s.schedule(w, r)
	if !ok {
		return
	}

	now := s.now()
	for _, m := range matches {
		if !m.HasKickoff() {
			continue
		}
		minutes := match.MinutesUntil(m.Kickoff, now, loc)
		if minutes <= 0 {
			continue
		}
		v := s.view(m, loc)
		v.MinutesUntil = &minutes
		writeJSON(w, http.StatusOK, nextMatchResponse{
			Match:         v,
			Imminent:      minutes <= s.opts.BufferMinutes,
			BufferMinutes: s.opts.BufferMinutes,
		})
		return
	}

	writeError(w, http.StatusNotFound, "no upcoming match")
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		writeError(w, http.StatusServiceUnavailable, "watcher is not configured")
		return
	}

	report, err := s.runner.Run(r.Context(), s.now())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, report)
	case errors.Is(err, watcher.ErrNoMatches):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		logger.Error("Manual run failed", nil, err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.GetSnapshot())
}

// zone reads the optional ?tz= parameter, defaulting to the display zone
func (s *Server) zone(w http.ResponseWriter, r *http.Request) (*time.Location, bool) {
	tzName := strings.TrimSpace(r.URL.Query().Get("tz"))
	if tzName == "" {
		return s.opts.DisplayZone, true
	}
	if tzName == "Local" {
		writeError(w, http.StatusBadRequest, "invalid timezone: "+tzName)
		return nil, false
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid timezone: "+tzName)
		return nil, false
	}
	return loc, true
}

// schedule fetches and orders the live schedule
func (s *Server) schedule(w http.ResponseWriter, r *http.Request) ([]match.Match, bool) {
	year := s.now().In(s.opts.SourceZone).Year()
	matches, err := s.fetcher.FetchSchedule(r.Context(), year, s.opts.SourceZone)
	if err != nil {
		logger.Error("Failed to fetch schedule", nil, err)
		writeError(w, http.StatusBadGateway, "fetching schedule failed")
		return nil, false
	}
	return match.Sort(matches), true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", logger.Fields{"error": err.Error()})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
