package features

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pable/go-cs-forecast/internal/hth"
	"github.com/pable/go-cs-forecast/internal/model"
)

type slot struct {
	row  model.FeatureVector
	skip *model.Skip
}

// RunParallel produces exactly the output of Run in two passes. The first
// pass folds the ledger sequentially and materializes every match's
// pre-match head-to-head differential. The second pass assembles rows
// concurrently over state that is now read-only.
func (p *Pipeline) RunParallel(ctx context.Context, matches []model.Match, rankings []model.RankingSnapshot, workers int) (*Result, error) {
	start := time.Now()
	prep, err := p.prepare(matches, rankings)
	if err != nil {
		return nil, err
	}
	n := prep.seq.Len()

	ledger := hth.NewLedger()
	diffs := make([]int, n)
	for i, m := range prep.seq.All() {
		diffs[i] = ledger.Diff(m.TeamA, m.TeamB)
		ledger.Record(m.Winner())
	}

	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	slots := make([]slot, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m := prep.seq.At(i)
			row, skip := p.assembler.Assemble(prep.state.inputs(m, m.Key(), diffs[i]))
			slots[i] = slot{row: row, skip: skip}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Skipped: prep.skips, Sequenced: n, Ledger: ledger}
	for _, s := range prep.skips {
		p.rec.RowSkipped(s.Reason)
	}
	for _, s := range slots {
		p.collect(res, s.row, s.skip)
	}
	p.logDone(res, start)
	return res, nil
}
