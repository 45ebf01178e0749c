package features

import (
	"fmt"

	"github.com/pable/go-cs-forecast/internal/model"
)

// PolicyMode is the single missing-data rule applied to a whole run.
type PolicyMode string

const (
	// PolicyDrop rejects any row with an unavailable input.
	PolicyDrop PolicyMode = "drop"
	// PolicyImpute fills unavailable inputs from Defaults so that every
	// team is representable, including on its first appearance.
	PolicyImpute PolicyMode = "impute"
)

// ParsePolicyMode validates a policy name; empty means drop.
func ParsePolicyMode(s string) (PolicyMode, error) {
	switch PolicyMode(s) {
	case "", PolicyDrop:
		return PolicyDrop, nil
	case PolicyImpute:
		return PolicyImpute, nil
	}
	return "", fmt.Errorf("unknown missing-data policy %q (want drop or impute)", s)
}

// Defaults are the cold-start values used by PolicyImpute.
type Defaults struct {
	Rating float64 `yaml:"rating" validate:"gte=0"`
	KDA    float64 `yaml:"kda" validate:"gte=0"`
	KAST   float64 `yaml:"kast" validate:"gte=0,lte=100"`
	ADR    float64 `yaml:"adr" validate:"gte=0"`
	Rank   int     `yaml:"rank" validate:"gt=0"`
}

// DefaultImputation returns the documented cold-start constants.
func DefaultImputation() Defaults {
	return Defaults{Rating: 1.0, KDA: 1.0, KAST: 70.0, ADR: 80.0, Rank: 250}
}

// Policy decides what happens to a row with unavailable inputs.
type Policy struct {
	Mode     PolicyMode
	Defaults Defaults
}

// DropPolicy returns the canonical drop-on-missing policy.
func DropPolicy() Policy {
	return Policy{Mode: PolicyDrop, Defaults: DefaultImputation()}
}

// ImputePolicy returns the impute policy with the documented defaults.
func ImputePolicy() Policy {
	return Policy{Mode: PolicyImpute, Defaults: DefaultImputation()}
}

// Apply resolves unavailable inputs in place. Under PolicyDrop it returns a
// skip naming the first missing input (stats before ranking, team A before
// team B). Under PolicyImpute it fills defaults and reports imputed=true.
func (p Policy) Apply(in *Inputs) (imputed bool, skip *model.Skip) {
	missing := in.missing()
	if len(missing) == 0 {
		return false, nil
	}
	if p.Mode != PolicyImpute {
		return false, &model.Skip{MatchID: in.MatchID, Reason: missing[0], Detail: in.missingDetail(missing[0])}
	}
	d := p.Defaults
	cold := model.AggregateStats{Rating: d.Rating, KDA: d.KDA, KAST: d.KAST, ADR: d.ADR}
	if in.StatsA == nil {
		a := cold
		in.StatsA = &a
	}
	if in.StatsB == nil {
		b := cold
		in.StatsB = &b
	}
	if in.RankA == nil {
		in.RankA = &model.RankingSnapshot{Team: in.TeamA, Rank: d.Rank}
	}
	if in.RankB == nil {
		in.RankB = &model.RankingSnapshot{Team: in.TeamB, Rank: d.Rank}
	}
	return true, nil
}
