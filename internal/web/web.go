// Package web exposes the resolution engine over HTTP: the today/tomorrow
// read path, the override write path, a forced refresh, the ICS feed and
// the upstream page preview.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"raspbot/internal/config"
	"raspbot/internal/ics"
	appLog "raspbot/internal/log"
	"raspbot/internal/model"
	"raspbot/internal/schedule"
	"raspbot/internal/store"
)

// Engine is the resolution surface the server sits on.
type Engine interface {
	ResolveToday(ctx context.Context) (*model.Resolution, error)
	ResolveTomorrow(ctx context.Context) (*model.Resolution, error)
	RecordOverride(ctx context.Context, pair int, subject, room string) error
	Refresh(ctx context.Context) error
}

// Server provides the HTTP API.
type Server struct {
	cfg      *config.Config
	engine   Engine
	baseline *store.BaselineStore
	mux      *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, engine Engine, baseline *store.BaselineStore) *Server {
	s := &Server{
		cfg:      cfg,
		engine:   engine,
		baseline: baseline,
		mux:      http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		h = s.basicAuthMiddleware(h)
	}
	return requestLogMiddleware(h)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/schedule", s.handleSchedule)
	s.mux.HandleFunc("/api/override", s.handleOverride)
	s.mux.HandleFunc("/api/refresh", s.handleRefresh)
	s.mux.HandleFunc("/api/calendar.ics", s.handleCalendar)
	s.mux.HandleFunc("/preview.png", s.handlePreview)
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password counts as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays unauthenticated for liveness probes.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="raspbot", charset="UTF-8"`)
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

// requestLogMiddleware tags each request with a generated id and logs the
// outcome.
func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(rec, r)
		appLog.Info("http request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// pairDTO is a JSON-friendly view of one resolved pair.
type pairDTO struct {
	Pair      int    `json:"pair"`
	Subject   string `json:"subject"`
	Teacher   string `json:"teacher,omitempty"`
	Room      string `json:"room"`
	Source    string `json:"source"`
	Highlight bool   `json:"highlight,omitempty"`
}

// scheduleResponse is the JSON response shape for /api/schedule.
type scheduleResponse struct {
	Date          string     `json:"date"`
	Weekday       string     `json:"weekday"`
	Variant       string     `json:"variant"`
	VariantLabel  string     `json:"variant_label"`
	Pairs         []pairDTO  `json:"pairs"`
	Lines         []string   `json:"lines"`
	DateOrigin    string     `json:"date_origin"`
	VariantOrigin string     `json:"variant_origin"`
	SubstOrigin   string     `json:"subst_origin"`
	RefreshedAt   *time.Time `json:"refreshed_at,omitempty"`
}

// handleSchedule resolves and renders today's or tomorrow's schedule.
//
// GET /api/schedule?day=today|tomorrow (default today)
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	ctx := r.Context()

	var res *model.Resolution
	var err error
	switch day := r.URL.Query().Get("day"); day {
	case "", "today":
		res, err = s.engine.ResolveToday(ctx)
	case "tomorrow":
		res, err = s.engine.ResolveTomorrow(ctx)
	default:
		writeError(w, http.StatusBadRequest, "day must be today or tomorrow")
		return
	}
	if err != nil {
		if errors.Is(err, store.ErrBaselineMissing) {
			writeError(w, http.StatusNotFound, "расписание не найдено")
			return
		}
		appLog.Error("schedule resolution failed", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve schedule")
		return
	}

	resp := scheduleResponse{
		Date:          res.Date.Format(model.DateLayout),
		Weekday:       res.Weekday.Label(),
		Variant:       res.Variant.String(),
		VariantLabel:  res.Variant.Label(),
		Pairs:         make([]pairDTO, 0, len(res.Day.Pairs)),
		Lines:         schedule.FormatDay(res),
		DateOrigin:    string(res.DateOrigin),
		VariantOrigin: string(res.VariantOrigin),
		SubstOrigin:   string(res.SubstOrigin),
	}
	for _, p := range res.Day.Pairs {
		resp.Pairs = append(resp.Pairs, pairDTO{
			Pair:      p.Pair,
			Subject:   p.Subject,
			Teacher:   p.Teacher,
			Room:      p.Room,
			Source:    p.Source.String(),
			Highlight: p.Highlight,
		})
	}
	if !res.RefreshedAt.IsZero() {
		t := res.RefreshedAt
		resp.RefreshedAt = &t
	}

	writeJSON(w, http.StatusOK, resp)
}

// overrideRequest is the JSON body for POST /api/override.
type overrideRequest struct {
	Pair    int    `json:"pair"`
	Subject string `json:"name"`
	Room    string `json:"cab"`
}

// handleOverride records a manual override for today. The write path is
// only available when Basic Auth gates the API; otherwise anyone on the
// network could rewrite the schedule.
func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	if !s.basicAuthEnabled() {
		writeError(w, http.StatusForbidden, "override writes require basic_auth to be configured")
		return
	}

	var req overrideRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Pair <= 0 || req.Subject == "" {
		writeError(w, http.StatusBadRequest, "pair and name are required")
		return
	}

	if err := s.engine.RecordOverride(r.Context(), req.Pair, req.Subject, req.Room); err != nil {
		appLog.Error("override save failed", err, "pair", req.Pair)
		writeError(w, http.StatusInternalServerError, "override was not saved")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"saved": true, "pair": req.Pair})
}

// handleRefresh forces an immediate source refresh.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	if err := s.engine.Refresh(r.Context()); err != nil {
		// Scheduled refreshes will keep retrying; report the outcome.
		writeError(w, http.StatusBadGateway, "refresh failed: source unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"refreshed": true})
}

// handleCalendar serves the baseline timetable as an iCalendar feed.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	loc, err := time.LoadLocation(s.cfg.Timezone)
	if err != nil {
		loc = time.Local
	}

	feed, err := ics.Export(s.baseline.Table(), ics.ExportConfig{
		Group:     s.cfg.Group,
		Location:  loc,
		PairTimes: s.cfg.PairTimes,
		From:      time.Now().In(loc),
	})
	if err != nil {
		appLog.Error("ics export failed", err)
		writeError(w, http.StatusInternalServerError, "failed to build calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(feed))
}

// handlePreview serves the last captured screenshot of the upstream page.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	// http.ServeFile returns proper status codes for a missing or
	// unreadable file.
	http.ServeFile(w, r, s.cfg.Preview.Path)
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
