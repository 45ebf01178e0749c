package features

import (
	"math"
	"testing"

	"github.com/pable/go-cs-forecast/internal/model"
)

func TestCompressRankGap(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{1, math.Log(2)},
		{-1, -math.Log(2)},
		{247, math.Log(248)},
		{-247, -math.Log(248)},
	}
	for _, tt := range tests {
		if got := CompressRankGap(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("CompressRankGap(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDropReportsFirstMissingInput(t *testing.T) {
	agg := &model.AggregateStats{Rating: 1}
	rank := &model.RankingSnapshot{Rank: 4}
	tests := []struct {
		name string
		in   Inputs
		want model.Reason
	}{
		{"nothing", Inputs{}, model.ReasonNoStatsA},
		{"stats b", Inputs{StatsA: agg, RankA: rank, RankB: rank}, model.ReasonNoStatsB},
		{"rank a", Inputs{StatsA: agg, StatsB: agg}, model.ReasonNoRankingA},
		{"rank b", Inputs{StatsA: agg, StatsB: agg, RankA: rank}, model.ReasonNoRankingB},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			imputed, skip := DropPolicy().Apply(&in)
			if imputed {
				t.Error("drop policy reported an imputation")
			}
			if skip == nil || skip.Reason != tt.want {
				t.Fatalf("skip: got %+v, want %s", skip, tt.want)
			}
		})
	}
}

func TestCompleteInputsPassEitherPolicy(t *testing.T) {
	for _, p := range []Policy{DropPolicy(), ImputePolicy()} {
		in := Inputs{
			StatsA: &model.AggregateStats{}, StatsB: &model.AggregateStats{},
			RankA: &model.RankingSnapshot{Rank: 1}, RankB: &model.RankingSnapshot{Rank: 2},
		}
		imputed, skip := p.Apply(&in)
		if imputed || skip != nil {
			t.Errorf("%s: imputed=%v skip=%+v", p.Mode, imputed, skip)
		}
	}
}

func TestImputeFillsDefaults(t *testing.T) {
	in := Inputs{TeamA: "A", TeamB: "B", StatsB: &model.AggregateStats{Rating: 1.4, KDA: 1.2, KAST: 75, ADR: 90}}
	row, skip := Assembler{Policy: ImputePolicy()}.Assemble(in)
	if skip != nil {
		t.Fatalf("unexpected skip %+v", skip)
	}
	d := DefaultImputation()
	if math.Abs(row.RatingDiff-(d.Rating-1.4)) > 1e-9 || math.Abs(row.ADRDiff-(d.ADR-90)) > 1e-9 {
		t.Errorf("defaults not applied to team A: %+v", row)
	}
	if row.RankingDiff != 0 {
		t.Errorf("both ranks defaulted, ranking_diff %v", row.RankingDiff)
	}
	if !row.Imputed {
		t.Error("row not marked imputed")
	}
}

func TestParsePolicyMode(t *testing.T) {
	for in, want := range map[string]PolicyMode{"drop": PolicyDrop, "impute": PolicyImpute, "": PolicyDrop} {
		got, err := ParsePolicyMode(in)
		if err != nil || got != want {
			t.Errorf("ParsePolicyMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePolicyMode("zero"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
