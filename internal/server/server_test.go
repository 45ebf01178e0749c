package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pable/go-cs-forecast/internal/features"
	"github.com/pable/go-cs-forecast/internal/metrics"
	"github.com/pable/go-cs-forecast/internal/model"
)

type memSource struct {
	matches  []model.Match
	rankings []model.RankingSnapshot
}

func (s *memSource) ListMatches() ([]model.Match, error) { return s.matches, nil }
func (s *memSource) ListRankings() ([]model.RankingSnapshot, error) { return s.rankings, nil }

func day(d int) time.Time {
	return time.Date(2025, 5, d, 0, 0, 0, 0, time.UTC)
}

func fixture() *memSource {
	stats := model.TeamStats{Rating: 1.1, KDA: 1.2, KAST: 71, ADR: 78}
	mk := func(id int64, d int, a, b string, outcome int) model.Match {
		return model.Match{MatchID: id, Date: day(d), TournamentType: 1, BestOf: 3,
			TeamA: a, TeamB: b, StatsA: stats, StatsB: stats, Outcome: outcome}
	}
	return &memSource{
		matches: []model.Match{
			mk(1, 1, "Vitality", "MOUZ", 1),
			mk(2, 2, "MOUZ", "Vitality", 0),
			mk(3, 3, "Spirit", "MOUZ", 1),
			mk(4, 10, "Vitality", "MOUZ", 0),
		},
		rankings: []model.RankingSnapshot{
			{Team: "Vitality", Date: day(1), Rank: 1},
			{Team: "MOUZ", Date: day(1), Rank: 4},
			{Team: "Spirit", Date: day(1), Rank: 2},
		},
	}
}

func newTestHandler(t *testing.T, now time.Time) *Handler {
	t.Helper()
	h, err := New(Config{
		Pipeline: features.New(features.DefaultOptions(), zap.NewNop(), nil),
		Source:   fixture(),
		Metrics:  metrics.New(false),
		Logger:   zap.NewNop(),
		Now:      func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h
}

func TestGetLiveFeatures(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedStatus int
		wantHTH        int
	}{
		{"Row", "team_a=Vitality&team_b=MOUZ&date=2025-05-05&tournament_type=1&best_of=3", http.StatusOK, 2},
		{"NowCutsHistory", "team_a=Vitality&team_b=MOUZ&date=2025-05-30&tournament_type=1&best_of=3", http.StatusOK, 2},
		{"ColdTeamDropped", "team_a=Vitality&team_b=Astralis&date=2025-05-05&tournament_type=1&best_of=3", http.StatusUnprocessableEntity, 0},
		{"BadDate", "team_a=Vitality&team_b=MOUZ&date=soon&tournament_type=1&best_of=3", http.StatusBadRequest, 0},
		{"SameTeam", "team_a=MOUZ&team_b=MOUZ&date=2025-05-05&tournament_type=1&best_of=3", http.StatusBadRequest, 0},
		{"MissingBestOf", "team_a=Vitality&team_b=MOUZ&date=2025-05-05&tournament_type=1", http.StatusBadRequest, 0},
	}

	// "now" is day 8: match 4 (day 10) is invisible even for a later pending date.
	h := newTestHandler(t, day(8))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/v1/features/live?"+tt.query, nil)
			w := httptest.NewRecorder()
			h.Routes().ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("status = %v, want %v (%s)", w.Code, tt.expectedStatus, w.Body.String())
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var resp liveResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Row == nil || resp.Row.HTHDiff != tt.wantHTH {
				t.Errorf("row: %+v, want hth_diff %d", resp.Row, tt.wantHTH)
			}
			if resp.Row.Label != model.LabelPending {
				t.Errorf("label: %d", resp.Row.Label)
			}
		})
	}
}

func TestGetTeamWindow(t *testing.T) {
	h := newTestHandler(t, day(20))
	req := httptest.NewRequest("GET", "/v1/teams/MOUZ/window?at=2025-05-03", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %v, want 200", w.Code)
	}
	var resp windowResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Recent) != 2 || resp.Average == nil || resp.Average.Matches != 2 {
		t.Errorf("window: %+v", resp)
	}
	if resp.Ranking == nil || resp.Ranking.Rank != 4 {
		t.Errorf("ranking: %+v", resp.Ranking)
	}
}

func TestGetHeadToHead(t *testing.T) {
	h := newTestHandler(t, day(20))
	req := httptest.NewRequest("GET", "/v1/teams/Vitality/h2h/MOUZ", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["wins"] != 2.0 || resp["losses"] != 1.0 {
		t.Errorf("h2h: %v", resp)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestHandler(t, day(20))
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %v", resp.StatusCode)
	}

	http.Get(srv.URL + "/v1/features/live?team_a=Vitality&team_b=MOUZ&date=2025-05-05&tournament_type=1&best_of=3")
	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `csforecast_live_requests_total{result="row"} 1`) {
		t.Errorf("metrics missing live counter:\n%s", buf.String())
	}
}
