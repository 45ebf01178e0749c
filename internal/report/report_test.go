package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pable/go-cs-forecast/internal/features"
	"github.com/pable/go-cs-forecast/internal/model"
	"github.com/pable/go-cs-forecast/internal/statstore"
)

func sampleRows() []model.FeatureVector {
	return []model.FeatureVector{
		{TournamentType: 1, BestOf: 3, RankingDiff: -1.0986122886681098, HTHDiff: 2, RatingDiff: 0.125, KDADiff: 0.3, KASTDiff: 4.5, ADRDiff: -2, Label: 1, MatchID: 11},
		{TournamentType: 2, BestOf: 1, Label: model.LabelPending, MatchID: 0, Imputed: true},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRows()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != strings.Join(model.Columns, ",") {
		t.Errorf("header: %s", lines[0])
	}
	if lines[1] != "1,3,-1.0986122886681098,2,0.125,0.3,4.5,-2,1,11" {
		t.Errorf("row: %s", lines[1])
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil, nil); err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Rows    []model.FeatureVector `json:"rows"`
		Skipped []model.Skip          `json:"skipped"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Rows == nil || doc.Skipped == nil {
		t.Error("empty output should contain empty arrays, not null")
	}
}

func TestPrintFeatureTableMarksImputedAndPending(t *testing.T) {
	var buf bytes.Buffer
	PrintFeatureTable(&buf, sampleRows())
	out := buf.String()
	for _, want := range []string{"RANK", "-1.099", "+2", "*", "?"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestPrintTeamWindow(t *testing.T) {
	day := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	PrintTeamWindow(&buf, features.TeamWindow{
		Team: "Spirit",
		At:   day,
		Recent: []statstore.Entry{
			{Key: model.Key{Date: day.AddDate(0, 0, -1), MatchID: 4}, Opponent: "FaZe", Stats: model.TeamStats{Rating: 1.2, KDA: 1.1, KAST: 74, ADR: 85}},
		},
		Stats:   &model.AggregateStats{Rating: 1.2, KDA: 1.1, KAST: 74, ADR: 85, Matches: 1},
		Ranking: &model.RankingSnapshot{Team: "Spirit", Date: day.AddDate(0, 0, -2), Rank: 3},
	})
	out := buf.String()
	for _, want := range []string{"Spirit", "#3", "FaZe", "AVG"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintSkipSummaryOrdersByCount(t *testing.T) {
	var buf bytes.Buffer
	PrintSkipSummary(&buf, []model.Skip{
		{MatchID: 1, Reason: model.ReasonNoRankingB},
		{MatchID: 2, Reason: model.ReasonNoStatsA},
		{MatchID: 3, Reason: model.ReasonNoStatsA},
	})
	out := buf.String()
	if strings.Index(out, "no_stats_a") > strings.Index(out, "no_ranking_b") {
		t.Errorf("largest reason should come first:\n%s", out)
	}
}

func TestPrintLiveTablePairsMatchWithRow(t *testing.T) {
	var buf bytes.Buffer
	PrintLiveTable(&buf, []features.LiveRow{{
		Match: model.PendingMatch{Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), TeamA: "Vitality", TeamB: "NAVI", BestOf: 3},
		Row:   model.FeatureVector{BestOf: 3, HTHDiff: -2, Label: model.LabelPending},
	}})
	out := buf.String()
	for _, want := range []string{"2025-06-01", "Vitality", "NAVI", "-2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
