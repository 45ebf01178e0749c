package model

import "strconv"

// LabelPending is the label carried by rows built for matches with no result.
const LabelPending = -1

// Columns names the fields of FeatureVector.Values, in order.
var Columns = []string{
	"tournament_type", "best_of", "ranking_diff", "hth_diff",
	"rating_diff", "kda_diff", "kast_diff", "adr_diff",
	"label", "match_id",
}

// FeatureVector is one model-ready row. Every *Diff field is
// team A minus team B, so positive values favour team A. MatchID is a
// provenance key, not a model input.
type FeatureVector struct {
	TournamentType int     `json:"tournament_type"`
	BestOf         int     `json:"best_of"`
	RankingDiff    float64 `json:"ranking_diff"`
	HTHDiff        int     `json:"hth_diff"`
	RatingDiff     float64 `json:"rating_diff"`
	KDADiff        float64 `json:"kda_diff"`
	KASTDiff       float64 `json:"kast_diff"`
	ADRDiff        float64 `json:"adr_diff"`
	Label          int     `json:"label"`
	MatchID        int64   `json:"match_id"`

	// Imputed is set when any input came from the impute policy defaults.
	Imputed bool `json:"imputed,omitempty"`
}

// Values returns the row as the fixed-order numeric tuple named by Columns.
func (v FeatureVector) Values() []float64 {
	return []float64{
		float64(v.TournamentType),
		float64(v.BestOf),
		v.RankingDiff,
		float64(v.HTHDiff),
		v.RatingDiff,
		v.KDADiff,
		v.KASTDiff,
		v.ADRDiff,
		float64(v.Label),
		float64(v.MatchID),
	}
}

// Record renders the row as CSV fields in Columns order. Floats use the
// shortest exact representation so repeated runs are byte-identical.
func (v FeatureVector) Record() []string {
	return []string{
		strconv.Itoa(v.TournamentType),
		strconv.Itoa(v.BestOf),
		formatFloat(v.RankingDiff),
		strconv.Itoa(v.HTHDiff),
		formatFloat(v.RatingDiff),
		formatFloat(v.KDADiff),
		formatFloat(v.KASTDiff),
		formatFloat(v.ADRDiff),
		strconv.Itoa(v.Label),
		strconv.FormatInt(v.MatchID, 10),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Reason explains why a source match produced no row.
type Reason string

const (
	ReasonMalformed  Reason = "malformed"
	ReasonDuplicate  Reason = "duplicate"
	ReasonNoStatsA   Reason = "no_stats_a"
	ReasonNoStatsB   Reason = "no_stats_b"
	ReasonNoRankingA Reason = "no_ranking_a"
	ReasonNoRankingB Reason = "no_ranking_b"
)

// Skip records one source match that was not emitted.
type Skip struct {
	MatchID int64  `json:"match_id"`
	Reason  Reason `json:"reason"`
	Detail  string `json:"detail,omitempty"`
}
