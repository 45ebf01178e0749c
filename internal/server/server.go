// Package server exposes live featurization over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pable/go-cs-forecast/internal/features"
	"github.com/pable/go-cs-forecast/internal/metrics"
	"github.com/pable/go-cs-forecast/internal/model"
)

// Source loads the current history. It is called on every reload.
type Source interface {
	ListMatches() ([]model.Match, error)
	ListRankings() ([]model.RankingSnapshot, error)
}

// Config wires a Handler to its pipeline, history source and metrics.
type Config struct {
	Pipeline *features.Pipeline
	Source   Source
	Metrics  *metrics.Pipeline
	Logger   *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Handler serves live features from a featurizer rebuilt on Reload.
type Handler struct {
	pipeline *features.Pipeline
	source   Source
	metrics  *metrics.Pipeline
	logger   *zap.SugaredLogger
	now      func() time.Time

	mu     sync.RWMutex
	live   *features.Live
	loaded time.Time
}

// New builds a handler and loads history once.
func New(cfg Config) (*Handler, error) {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New(false)
	}
	h := &Handler{
		pipeline: cfg.Pipeline,
		source:   cfg.Source,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger.Sugar(),
		now:      cfg.Now,
	}
	if err := h.Reload(); err != nil {
		return nil, err
	}
	return h, nil
}

// Reload rebuilds the live featurizer from the source.
func (h *Handler) Reload() error {
	matches, err := h.source.ListMatches()
	if err != nil {
		return err
	}
	rankings, err := h.source.ListRankings()
	if err != nil {
		return err
	}
	live, err := h.pipeline.Live(matches, rankings)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.live, h.loaded = live, h.now()
	h.mu.Unlock()
	h.logger.Infow("history loaded", "matches", len(matches), "rankings", len(rankings))
	return nil
}

func (h *Handler) current() *features.Live {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.live
}

// Routes returns the HTTP router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", h.metrics.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Get("/features/live", h.GetLiveFeatures)
		r.Get("/teams/{team}/window", h.GetTeamWindow)
		r.Get("/teams/{team}/h2h/{opponent}", h.GetHeadToHead)
		r.Post("/reload", h.PostReload)
	})
	return r
}

// Health check endpoint
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	loaded := h.loaded
	h.mu.RUnlock()
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"loaded_at": loaded.UTC(),
		"timestamp": h.now().UTC(),
	})
}

type liveResponse struct {
	Row     *model.FeatureVector `json:"row,omitempty"`
	Skipped *model.Skip          `json:"skipped,omitempty"`
	Cutoff  time.Time            `json:"cutoff"`
}

// GetLiveFeatures featurizes one pending match given as query parameters:
// team_a, team_b, date (YYYY-MM-DD or RFC3339), tournament_type, best_of and
// optionally match_id.
func (h *Handler) GetLiveFeatures(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := parseDate(q.Get("date"))
	if err != nil {
		h.metrics.LiveRequest("error")
		h.errorResponse(w, http.StatusBadRequest, "invalid date")
		return
	}
	pm := model.PendingMatch{
		Date:  date,
		TeamA: q.Get("team_a"),
		TeamB: q.Get("team_b"),
	}
	for name, dst := range map[string]*int{"tournament_type": &pm.TournamentType, "best_of": &pm.BestOf} {
		if *dst, err = strconv.Atoi(q.Get(name)); err != nil {
			h.metrics.LiveRequest("error")
			h.errorResponse(w, http.StatusBadRequest, "invalid "+name)
			return
		}
	}
	if v := q.Get("match_id"); v != "" {
		if pm.MatchID, err = strconv.ParseInt(v, 10, 64); err != nil {
			h.metrics.LiveRequest("error")
			h.errorResponse(w, http.StatusBadRequest, "invalid match_id")
			return
		}
	}

	now := h.now()
	row, skip, err := h.current().Featurize(pm, now)
	if err != nil {
		h.metrics.LiveRequest("error")
		if errors.Is(err, model.ErrMalformed) {
			h.errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Errorw("live featurize failed", "team_a", pm.TeamA, "team_b", pm.TeamB, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := liveResponse{Cutoff: pm.Date}
	if now.Before(pm.Date) {
		resp.Cutoff = now
	}
	if skip != nil {
		h.metrics.LiveRequest("skip")
		resp.Skipped = skip
		h.jsonResponse(w, http.StatusUnprocessableEntity, resp)
		return
	}
	h.metrics.LiveRequest("row")
	resp.Row = &row
	h.jsonResponse(w, http.StatusOK, resp)
}

type windowEntry struct {
	Date     time.Time       `json:"date"`
	MatchID  int64           `json:"match_id"`
	Opponent string          `json:"opponent"`
	Stats    model.TeamStats `json:"stats"`
}

type windowResponse struct {
	Team    string                 `json:"team"`
	At      time.Time              `json:"at"`
	Recent  []windowEntry          `json:"recent"`
	Average *model.AggregateStats  `json:"average,omitempty"`
	Ranking *model.RankingSnapshot `json:"ranking,omitempty"`
}

// GetTeamWindow returns a team's rolling window before ?at= (default now).
func (h *Handler) GetTeamWindow(w http.ResponseWriter, r *http.Request) {
	team := chi.URLParam(r, "team")
	at, ok := h.atParam(w, r)
	if !ok {
		return
	}
	win := h.current().Window(team, at)
	resp := windowResponse{Team: win.Team, At: win.At, Recent: []windowEntry{}, Average: win.Stats, Ranking: win.Ranking}
	for _, e := range win.Recent {
		resp.Recent = append(resp.Recent, windowEntry{Date: e.Key.Date, MatchID: e.Key.MatchID, Opponent: e.Opponent, Stats: e.Stats})
	}
	h.jsonResponse(w, http.StatusOK, resp)
}

// GetHeadToHead returns both teams' wins over each other before ?at=.
func (h *Handler) GetHeadToHead(w http.ResponseWriter, r *http.Request) {
	team, opponent := chi.URLParam(r, "team"), chi.URLParam(r, "opponent")
	at, ok := h.atParam(w, r)
	if !ok {
		return
	}
	wins, losses := h.current().HeadToHead(team, opponent, at)
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"team":     team,
		"opponent": opponent,
		"at":       at,
		"wins":     wins,
		"losses":   losses,
		"diff":     wins - losses,
	})
}

// PostReload re-reads history from the source.
func (h *Handler) PostReload(w http.ResponseWriter, r *http.Request) {
	if err := h.Reload(); err != nil {
		h.logger.Errorw("reload failed", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "reload failed")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

func (h *Handler) atParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	v := r.URL.Query().Get("at")
	if v == "" {
		return h.now(), true
	}
	at, err := parseDate(v)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid at")
		return time.Time{}, false
	}
	return at, true
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}
