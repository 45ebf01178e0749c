package features

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pable/go-cs-forecast/internal/hth"
	"github.com/pable/go-cs-forecast/internal/model"
	"github.com/pable/go-cs-forecast/internal/sequence"
	"github.com/pable/go-cs-forecast/internal/statstore"
)

// Options configures one replay. Every field applies to the whole run.
type Options struct {
	Window        int
	Policy        Policy
	RankingMode   statstore.RankingMode
	MaxRankingAge time.Duration
}

// DefaultOptions returns a 10-match window, drop policy and strict rankings.
func DefaultOptions() Options {
	return Options{
		Window:      statstore.DefaultWindow,
		Policy:      DropPolicy(),
		RankingMode: statstore.RankingStrict,
	}
}

// Recorder observes the outcome of each source match.
type Recorder interface {
	RowEmitted(imputed bool)
	RowSkipped(reason model.Reason)
}

type nopRecorder struct{}

func (nopRecorder) RowEmitted(bool) {}
func (nopRecorder) RowSkipped(model.Reason) {}

// Result is the output of one replay.
type Result struct {
	// Rows are emitted in replay order.
	Rows []model.FeatureVector
	// Skipped lists every source match with no row and why: malformed and
	// duplicate records first, then policy rejections in replay order.
	Skipped []model.Skip
	// Sequenced is the number of matches that entered the fold.
	Sequenced int
	// Ledger is the head-to-head state after the last match.
	Ledger *hth.Ledger
}

// Pipeline replays match history into feature rows.
type Pipeline struct {
	opts      Options
	assembler Assembler
	log       *zap.Logger
	rec       Recorder
}

// New returns a pipeline. A nil logger or recorder is replaced by a no-op.
func New(opts Options, log *zap.Logger, rec Recorder) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	if opts.Window < 1 {
		opts.Window = statstore.DefaultWindow
	}
	return &Pipeline{opts: opts, assembler: Assembler{Policy: opts.Policy}, log: log, rec: rec}
}

// Options returns the run configuration.
func (p *Pipeline) Options() Options { return p.opts }

// state is the read-only lookup side of a replay.
type state struct {
	store *statstore.Store
	ranks *statstore.Rankings
}

func (s *state) inputs(m model.Match, cutoff model.Key, hthDiff int) Inputs {
	in := Inputs{
		MatchID:        m.MatchID,
		TeamA:          m.TeamA,
		TeamB:          m.TeamB,
		TournamentType: m.TournamentType,
		BestOf:         m.BestOf,
		Label:          m.Outcome,
		HTHDiff:        hthDiff,
	}
	if agg, ok := s.store.Lookup(m.TeamA, cutoff); ok {
		in.StatsA = &agg
	}
	if agg, ok := s.store.Lookup(m.TeamB, cutoff); ok {
		in.StatsB = &agg
	}
	if r, ok := s.ranks.Lookup(m.TeamA, cutoff.Date); ok {
		in.RankA = &r
	}
	if r, ok := s.ranks.Lookup(m.TeamB, cutoff.Date); ok {
		in.RankB = &r
	}
	return in
}

// prepared is a validated, sequenced history plus its lookup state.
type prepared struct {
	seq   *sequence.Sequence
	state *state
	skips []model.Skip
}

// prepare validates and orders the input. Malformed records and duplicates
// become skips; an ordering conflict aborts with a *sequence.OrderingError.
func (p *Pipeline) prepare(matches []model.Match, rankings []model.RankingSnapshot) (*prepared, error) {
	var (
		valid []model.Match
		skips []model.Skip
	)
	for _, m := range matches {
		if err := m.Validate(); err != nil {
			p.log.Warn("skipping malformed match", zap.Int64("match_id", m.MatchID), zap.Error(err))
			skips = append(skips, model.Skip{MatchID: m.MatchID, Reason: model.ReasonMalformed, Detail: err.Error()})
			continue
		}
		valid = append(valid, m)
	}

	seq, err := sequence.New(valid)
	if err != nil {
		return nil, fmt.Errorf("sequence matches: %w", err)
	}
	for _, d := range seq.Duplicates() {
		p.log.Info("skipping duplicate match", zap.Int64("match_id", d.MatchID))
		skips = append(skips, model.Skip{MatchID: d.MatchID, Reason: model.ReasonDuplicate, Detail: "re-delivered record"})
	}

	snaps := make([]model.RankingSnapshot, 0, len(rankings))
	for _, r := range rankings {
		if err := r.Validate(); err != nil {
			p.log.Warn("ignoring malformed ranking snapshot", zap.String("team", r.Team), zap.Error(err))
			continue
		}
		snaps = append(snaps, r)
	}

	return &prepared{
		seq: seq,
		state: &state{
			store: statstore.Build(seq.Matches(), p.opts.Window),
			ranks: statstore.NewRankings(snaps, p.opts.RankingMode, p.opts.MaxRankingAge),
		},
		skips: skips,
	}, nil
}

// step featurizes m from pre-match ledger state, then records m's result.
// Reading before writing is what keeps the head-to-head feature causal.
func (p *Pipeline) step(st *state, ledger *hth.Ledger, m model.Match) (model.FeatureVector, *model.Skip) {
	row, skip := p.assembler.Assemble(st.inputs(m, m.Key(), ledger.Diff(m.TeamA, m.TeamB)))
	ledger.Record(m.Winner())
	return row, skip
}

// Run replays matches in chronological order as a single sequential fold.
// Row-level problems become skips; only an ordering conflict returns an error.
func (p *Pipeline) Run(matches []model.Match, rankings []model.RankingSnapshot) (*Result, error) {
	start := time.Now()
	prep, err := p.prepare(matches, rankings)
	if err != nil {
		return nil, err
	}
	res := &Result{Skipped: prep.skips, Sequenced: prep.seq.Len(), Ledger: hth.NewLedger()}
	for _, s := range prep.skips {
		p.rec.RowSkipped(s.Reason)
	}
	for _, m := range prep.seq.All() {
		row, skip := p.step(prep.state, res.Ledger, m)
		p.collect(res, row, skip)
	}
	p.logDone(res, start)
	return res, nil
}

func (p *Pipeline) collect(res *Result, row model.FeatureVector, skip *model.Skip) {
	if skip != nil {
		p.log.Debug("match dropped", zap.Int64("match_id", skip.MatchID),
			zap.String("reason", string(skip.Reason)), zap.String("detail", skip.Detail))
		res.Skipped = append(res.Skipped, *skip)
		p.rec.RowSkipped(skip.Reason)
		return
	}
	res.Rows = append(res.Rows, row)
	p.rec.RowEmitted(row.Imputed)
}

func (p *Pipeline) logDone(res *Result, start time.Time) {
	p.log.Info("feature replay finished",
		zap.Int("sequenced", res.Sequenced),
		zap.Int("rows", len(res.Rows)),
		zap.Int("skipped", len(res.Skipped)),
		zap.String("policy", string(p.opts.Policy.Mode)),
		zap.Int("window", p.opts.Window),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// IsOrderingError reports whether err aborted a replay because of an
// ordering conflict in the input.
func IsOrderingError(err error) bool {
	var oe *sequence.OrderingError
	return errors.As(err, &oe)
}
