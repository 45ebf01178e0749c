package model

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrMalformed marks a record missing required scalar fields or carrying
// out-of-range values.
var ErrMalformed = errors.New("malformed record")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

// Key is the chronological sort key of a match: date first, match ID as
// the same-instant tie-break.
type Key struct {
	Date    time.Time
	MatchID int64
}

// Compare returns -1, 0 or +1 ordering k against o.
func (k Key) Compare(o Key) int {
	if c := k.Date.Compare(o.Date); c != 0 {
		return c
	}
	switch {
	case k.MatchID < o.MatchID:
		return -1
	case k.MatchID > o.MatchID:
		return 1
	}
	return 0
}

// Before reports whether k sorts strictly before o.
func (k Key) Before(o Key) bool { return k.Compare(o) < 0 }

func (k Key) String() string {
	return fmt.Sprintf("%s#%d", k.Date.Format(time.RFC3339), k.MatchID)
}

// TeamStats holds one team's per-match performance inputs.
type TeamStats struct {
	Rating float64 `json:"rating" validate:"finite,gte=0"`
	KDA    float64 `json:"kda" validate:"finite,gte=0"`
	KAST   float64 `json:"kast" validate:"finite,gte=0,lte=100"`
	ADR    float64 `json:"adr" validate:"finite,gte=0"`
}

// Match is an immutable record of one completed series.
// Outcome is 1 when TeamA won, 0 otherwise.
type Match struct {
	MatchID        int64     `json:"match_id" validate:"gt=0"`
	Date           time.Time `json:"date" validate:"required"`
	TournamentType int       `json:"tournament_type" validate:"min=1,max=4"`
	BestOf         int       `json:"best_of" validate:"min=1,max=7"`
	TeamA          string    `json:"team_a" validate:"required"`
	TeamB          string    `json:"team_b" validate:"required,nefield=TeamA"`
	StatsA         TeamStats `json:"stats_a"`
	StatsB         TeamStats `json:"stats_b"`
	Outcome        int       `json:"outcome" validate:"oneof=0 1"`
}

// Validate reports ErrMalformed (wrapping the field errors) when the record
// cannot enter the replay.
func (m Match) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: match %d: %w", ErrMalformed, m.MatchID, err)
	}
	return nil
}

// Key returns the match's chronological sort key.
func (m Match) Key() Key { return Key{Date: m.Date, MatchID: m.MatchID} }

// Winner returns the winning and losing team identifiers.
func (m Match) Winner() (winner, loser string) {
	if m.Outcome == 1 {
		return m.TeamA, m.TeamB
	}
	return m.TeamB, m.TeamA
}

// StatsFor returns the stats of team on whichever side it played.
func (m Match) StatsFor(team string) (TeamStats, bool) {
	switch team {
	case m.TeamA:
		return m.StatsA, true
	case m.TeamB:
		return m.StatsB, true
	}
	return TeamStats{}, false
}

// Involves reports whether team played in m.
func (m Match) Involves(team string) bool {
	return m.TeamA == team || m.TeamB == team
}

// SamePair reports whether m and o were contested by the same two teams,
// in either order.
func (m Match) SamePair(o Match) bool {
	return (m.TeamA == o.TeamA && m.TeamB == o.TeamB) ||
		(m.TeamA == o.TeamB && m.TeamB == o.TeamA)
}

// Swapped returns m seen from TeamB's side, with the label flipped.
func (m Match) Swapped() Match {
	s := m
	s.TeamA, s.TeamB = m.TeamB, m.TeamA
	s.StatsA, s.StatsB = m.StatsB, m.StatsA
	s.Outcome = 1 - m.Outcome
	return s
}

// PendingMatch is a scheduled series with no result yet.
type PendingMatch struct {
	MatchID        int64     `json:"match_id" validate:"gte=0"`
	Date           time.Time `json:"date" validate:"required"`
	TournamentType int       `json:"tournament_type" validate:"min=1,max=4"`
	BestOf         int       `json:"best_of" validate:"min=1,max=7"`
	TeamA          string    `json:"team_a" validate:"required"`
	TeamB          string    `json:"team_b" validate:"required,nefield=TeamA"`
	TournamentName string    `json:"tournament_name,omitempty"`
}

// Validate reports ErrMalformed when the pending match lacks required fields.
func (p PendingMatch) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: pending match %s vs %s: %w", ErrMalformed, p.TeamA, p.TeamB, err)
	}
	return nil
}

// RankingSnapshot is a team's world rank published on Date.
type RankingSnapshot struct {
	Team string    `json:"team" validate:"required"`
	Date time.Time `json:"date" validate:"required"`
	Rank int       `json:"rank" validate:"gt=0"`
}

// Validate reports ErrMalformed for unusable snapshots.
func (r RankingSnapshot) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: ranking %s: %w", ErrMalformed, r.Team, err)
	}
	return nil
}

// AggregateStats is a team's rolling-window average before a cutoff.
type AggregateStats struct {
	Rating  float64 `json:"rating"`
	KDA     float64 `json:"kda"`
	KAST    float64 `json:"kast"`
	ADR     float64 `json:"adr"`
	Matches int     `json:"matches"`
}
