package features

import (
	"reflect"
	"testing"

	"github.com/pable/go-cs-forecast/internal/model"
)

func pending(id int64, d int, a, b string) model.PendingMatch {
	return model.PendingMatch{MatchID: id, Date: day(d), TournamentType: 2, BestOf: 3, TeamA: a, TeamB: b}
}

func newLive(t *testing.T, p Policy) *Live {
	t.Helper()
	opts := DefaultOptions()
	opts.Policy = p
	l, err := New(opts, nil, nil).Live(history(), rankings())
	if err != nil {
		t.Fatalf("Live: %v", err)
	}
	return l
}

func TestLiveMatchesTrainingRow(t *testing.T) {
	train := rowFor(t, imputeRun(t, history()), 7)

	l := newLive(t, ImputePolicy())
	row, skip, err := l.Featurize(pending(7, 8, "A", "B"), day(20))
	if err != nil || skip != nil {
		t.Fatalf("Featurize: skip=%+v err=%v", skip, err)
	}
	if row.Label != model.LabelPending {
		t.Errorf("label: got %d, want %d", row.Label, model.LabelPending)
	}
	row.Label = train.Label
	if !reflect.DeepEqual(row, train) {
		t.Errorf("live row differs from training row:\nlive  %+v\ntrain %+v", row, train)
	}
}

func TestLiveSeesOnlyHistoryBeforeNow(t *testing.T) {
	l := newLive(t, ImputePolicy())
	// Scheduled far ahead but featurized on day 5: matches 4 and 5 (day 5)
	// and everything later must be invisible.
	early, _, err := l.Featurize(pending(0, 30, "A", "B"), day(5))
	if err != nil {
		t.Fatal(err)
	}
	if early.HTHDiff != 1 {
		t.Errorf("hth_diff at day 5: got %d, want 1", early.HTHDiff)
	}
	a, b := l.HeadToHead("A", "B", day(5))
	if a != 1 || b != 0 {
		t.Errorf("HeadToHead at day 5: %d-%d, want 1-0", a, b)
	}
	w := l.Window("A", day(5))
	if w.Stats == nil || w.Stats.Matches != 2 {
		t.Errorf("A's window at day 5: %+v", w.Stats)
	}
	if len(w.Recent) != 2 || w.Recent[1].Opponent != "C" {
		t.Errorf("A's recent at day 5: %+v", w.Recent)
	}

	late, _, err := l.Featurize(pending(0, 30, "A", "B"), day(29))
	if err != nil {
		t.Fatal(err)
	}
	// A/B history: A, B, B, A.
	if late.HTHDiff != 0 {
		t.Errorf("hth_diff at day 29: got %d, want 0", late.HTHDiff)
	}
}

func TestFeaturizeAllMatchesFeaturize(t *testing.T) {
	l := newLive(t, DropPolicy())
	batch := []model.PendingMatch{
		pending(0, 9, "C", "A"),
		pending(0, 3, "B", "C"),
		pending(0, 6, "A", "B"),
		pending(0, 1, "A", "B"),
		{MatchID: 0, Date: day(4), TeamA: "A", TeamB: "B"},
	}
	now := day(7)
	rows, skips := l.FeaturizeAll(batch, now)

	var wantRows []LiveRow
	var wantSkips []model.Skip
	for _, pm := range []model.PendingMatch{batch[3], batch[1], batch[4], batch[2], batch[0]} {
		row, skip, err := l.Featurize(pm, now)
		if err != nil {
			wantSkips = append(wantSkips, model.Skip{Reason: model.ReasonMalformed})
			continue
		}
		if skip != nil {
			wantSkips = append(wantSkips, *skip)
			continue
		}
		wantRows = append(wantRows, LiveRow{Match: pm, Row: row})
	}
	if !reflect.DeepEqual(rows, wantRows) {
		t.Errorf("rows:\ngot  %+v\nwant %+v", rows, wantRows)
	}
	if len(skips) != len(wantSkips) {
		t.Fatalf("skips: got %+v, want %+v", skips, wantSkips)
	}
	for i := range skips {
		if skips[i].Reason != wantSkips[i].Reason {
			t.Errorf("skip %d: got %s, want %s", i, skips[i].Reason, wantSkips[i].Reason)
		}
	}
}

func TestFeaturizeRejectsMalformed(t *testing.T) {
	l := newLive(t, ImputePolicy())
	if _, _, err := l.Featurize(pending(0, 9, "A", ""), day(9)); err == nil {
		t.Error("expected error for missing team")
	}
}
