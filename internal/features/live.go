package features

import (
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/pable/go-cs-forecast/internal/hth"
	"github.com/pable/go-cs-forecast/internal/model"
	"github.com/pable/go-cs-forecast/internal/statstore"
)

// Live builds rows for matches that have not been played yet, with the same
// stat store, ledger and assembler semantics as the training replay.
type Live struct {
	p    *Pipeline
	prep *prepared
}

// Live prepares history for live featurization. Malformed and duplicate
// history records are ignored exactly as Run would ignore them.
func (p *Pipeline) Live(history []model.Match, rankings []model.RankingSnapshot) (*Live, error) {
	prep, err := p.prepare(history, rankings)
	if err != nil {
		return nil, err
	}
	return &Live{p: p, prep: prep}, nil
}

// cutoffFor returns the earlier of the scheduled date and now, so nothing
// at or after either is visible.
func cutoffFor(pm model.PendingMatch, now time.Time) model.Key {
	at := now
	if pm.Date.Before(now) {
		at = pm.Date
	}
	return model.Key{Date: at}
}

// ledgerAt replays every history match strictly before cutoff.
func (l *Live) ledgerAt(cutoff model.Key) *hth.Ledger {
	ledger := hth.NewLedger()
	l.advance(ledger, 0, cutoff)
	return ledger
}

// advance records matches from position from up to cutoff and returns the
// next unrecorded position.
func (l *Live) advance(ledger *hth.Ledger, from int, cutoff model.Key) int {
	end := l.prep.seq.CountBefore(cutoff)
	for i := from; i < end; i++ {
		ledger.Record(l.prep.seq.At(i).Winner())
	}
	return max(from, end)
}

func (l *Live) assemble(pm model.PendingMatch, cutoff model.Key, ledger *hth.Ledger) (model.FeatureVector, *model.Skip) {
	m := model.Match{
		MatchID:        pm.MatchID,
		Date:           pm.Date,
		TournamentType: pm.TournamentType,
		BestOf:         pm.BestOf,
		TeamA:          pm.TeamA,
		TeamB:          pm.TeamB,
		Outcome:        model.LabelPending,
	}
	return l.p.assembler.Assemble(l.prep.state.inputs(m, cutoff, ledger.Diff(pm.TeamA, pm.TeamB)))
}

// Featurize returns exactly one row for pm, or the policy's skip. Only
// history strictly before min(pm.Date, now) is visible.
func (l *Live) Featurize(pm model.PendingMatch, now time.Time) (model.FeatureVector, *model.Skip, error) {
	if err := pm.Validate(); err != nil {
		return model.FeatureVector{}, nil, err
	}
	cutoff := cutoffFor(pm, now)
	row, skip := l.assemble(pm, cutoff, l.ledgerAt(cutoff))
	return row, skip, nil
}

// LiveRow is a featurized pending match.
type LiveRow struct {
	Match model.PendingMatch
	Row   model.FeatureVector
}

// FeaturizeAll featurizes a batch of pending matches in chronological order,
// advancing one ledger instead of replaying history per match. Rows are
// returned in (date, match_id) order.
func (l *Live) FeaturizeAll(pending []model.PendingMatch, now time.Time) ([]LiveRow, []model.Skip) {
	sorted := slices.Clone(pending)
	slices.SortStableFunc(sorted, func(a, b model.PendingMatch) int {
		return model.Key{Date: a.Date, MatchID: a.MatchID}.Compare(model.Key{Date: b.Date, MatchID: b.MatchID})
	})

	var (
		rows  []LiveRow
		skips []model.Skip
	)
	ledger := hth.NewLedger()
	pos := 0
	for _, pm := range sorted {
		if err := pm.Validate(); err != nil {
			l.p.log.Warn("skipping malformed pending match", zap.Int64("match_id", pm.MatchID), zap.Error(err))
			skips = append(skips, model.Skip{MatchID: pm.MatchID, Reason: model.ReasonMalformed, Detail: err.Error()})
			continue
		}
		cutoff := cutoffFor(pm, now)
		pos = l.advance(ledger, pos, cutoff)
		row, skip := l.assemble(pm, cutoff, ledger)
		if skip != nil {
			skips = append(skips, *skip)
			continue
		}
		rows = append(rows, LiveRow{Match: pm, Row: row})
	}
	return rows, skips
}

// TeamWindow reports a team's rolling window and ranking as seen at cutoff.
type TeamWindow struct {
	Team    string
	At      time.Time
	Recent  []statstore.Entry
	Stats   *model.AggregateStats
	Ranking *model.RankingSnapshot
}

// Window returns what the live path would know about team at at.
func (l *Live) Window(team string, at time.Time) TeamWindow {
	cutoff := model.Key{Date: at}
	tw := TeamWindow{Team: team, At: at, Recent: l.prep.state.store.Recent(team, cutoff)}
	if agg, ok := l.prep.state.store.Lookup(team, cutoff); ok {
		tw.Stats = &agg
	}
	if r, ok := l.prep.state.ranks.Lookup(team, at); ok {
		tw.Ranking = &r
	}
	return tw
}

// HeadToHead returns a's and b's wins over each other strictly before at.
func (l *Live) HeadToHead(a, b string, at time.Time) (aWins, bWins int) {
	ledger := l.ledgerAt(model.Key{Date: at})
	return ledger.Wins(a, b), ledger.Wins(b, a)
}

// Options returns the run configuration shared with the training replay.
func (l *Live) Options() Options { return l.p.opts }

// Teams lists every team seen in history.
func (l *Live) Teams() []string { return l.prep.state.store.Teams() }

func (l *Live) String() string {
	return fmt.Sprintf("live featurizer over %d matches", l.prep.seq.Len())
}
