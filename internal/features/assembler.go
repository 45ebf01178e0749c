// Package features turns a chronological match history into model-ready
// feature rows. The training replay and the live path share one Assembler
// and one Policy, so a row means the same thing in both.
package features

import (
	"fmt"

	"github.com/pable/go-cs-forecast/internal/model"
)

// Inputs is everything known about one match at its cutoff. Nil pointers
// are unavailable inputs.
type Inputs struct {
	MatchID        int64
	TeamA, TeamB   string
	TournamentType int
	BestOf         int
	Label          int

	StatsA, StatsB *model.AggregateStats
	RankA, RankB   *model.RankingSnapshot

	// HTHDiff is wins(A over B) - wins(B over A) before this match.
	HTHDiff int
}

func (in *Inputs) missing() []model.Reason {
	var out []model.Reason
	if in.StatsA == nil {
		out = append(out, model.ReasonNoStatsA)
	}
	if in.StatsB == nil {
		out = append(out, model.ReasonNoStatsB)
	}
	if in.RankA == nil {
		out = append(out, model.ReasonNoRankingA)
	}
	if in.RankB == nil {
		out = append(out, model.ReasonNoRankingB)
	}
	return out
}

func (in *Inputs) missingDetail(r model.Reason) string {
	switch r {
	case model.ReasonNoStatsA:
		return fmt.Sprintf("%s has no prior matches", in.TeamA)
	case model.ReasonNoStatsB:
		return fmt.Sprintf("%s has no prior matches", in.TeamB)
	case model.ReasonNoRankingA:
		return fmt.Sprintf("no ranking known for %s", in.TeamA)
	case model.ReasonNoRankingB:
		return fmt.Sprintf("no ranking known for %s", in.TeamB)
	}
	return ""
}

// Assembler merges ranking, head-to-head and rolling-stat differentials into
// one FeatureVector.
type Assembler struct {
	Policy Policy
}

// Assemble returns the row for in, or a skip when the policy rejects it.
func (a Assembler) Assemble(in Inputs) (model.FeatureVector, *model.Skip) {
	imputed, skip := a.Policy.Apply(&in)
	if skip != nil {
		return model.FeatureVector{}, skip
	}
	rankGap := float64(in.RankA.Rank - in.RankB.Rank)
	return model.FeatureVector{
		TournamentType: in.TournamentType,
		BestOf:         in.BestOf,
		RankingDiff:    CompressRankGap(rankGap),
		HTHDiff:        in.HTHDiff,
		RatingDiff:     in.StatsA.Rating - in.StatsB.Rating,
		KDADiff:        in.StatsA.KDA - in.StatsB.KDA,
		KASTDiff:       in.StatsA.KAST - in.StatsB.KAST,
		ADRDiff:        in.StatsA.ADR - in.StatsB.ADR,
		Label:          in.Label,
		MatchID:        in.MatchID,
		Imputed:        imputed,
	}, nil
}
