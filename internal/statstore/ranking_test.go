package statstore

import (
	"testing"
	"time"

	"github.com/pable/go-cs-forecast/internal/model"
)

func snaps() []model.RankingSnapshot {
	return []model.RankingSnapshot{
		{Team: "A", Date: day(1), Rank: 10},
		{Team: "A", Date: day(8), Rank: 7},
		{Team: "A", Date: day(15), Rank: 3},
	}
}

func TestStrictRankingNeverLooksAhead(t *testing.T) {
	r := NewRankings(snaps(), RankingStrict, 0)
	cases := []struct {
		at   time.Time
		want int
		ok   bool
	}{
		{day(1).Add(-time.Hour), 0, false},
		{day(1), 10, true},
		{day(7), 10, true},
		{day(14), 7, true},
		{day(20), 3, true},
	}
	for _, c := range cases {
		got, ok := r.Lookup("A", c.at)
		if ok != c.ok || got.Rank != c.want {
			t.Errorf("Lookup(%s): want (%d,%v), got (%d,%v)", c.at.Format("Jan 2 15h"), c.want, c.ok, got.Rank, ok)
		}
	}
}

func TestNearestRankingMayUseLaterSnapshot(t *testing.T) {
	r := NewRankings(snaps(), RankingNearest, 0)
	got, ok := r.Lookup("A", day(13))
	if !ok || got.Rank != 3 {
		t.Errorf("nearest to day 13 is day 15 (rank 3), got %d %v", got.Rank, ok)
	}
	// Day 3 is equidistant from the day 1 and day 5 snapshots.
	got, _ = NewRankings([]model.RankingSnapshot{
		{Team: "B", Date: day(1), Rank: 5},
		{Team: "B", Date: day(5), Rank: 9},
	}, RankingNearest, 0).Lookup("B", day(3))
	if got.Rank != 5 {
		t.Errorf("ties go to the earlier snapshot, got rank %d", got.Rank)
	}
}

func TestRankingMaxAge(t *testing.T) {
	r := NewRankings(snaps(), RankingStrict, 48*time.Hour)
	if _, ok := r.Lookup("A", day(7)); ok {
		t.Error("snapshot 6 days old should be stale with a 48h max age")
	}
	if got, ok := r.Lookup("A", day(9)); !ok || got.Rank != 7 {
		t.Errorf("want rank 7 within max age, got %d %v", got.Rank, ok)
	}
}

func TestRankingSameDayKeepsBest(t *testing.T) {
	r := NewRankings([]model.RankingSnapshot{
		{Team: "A", Date: day(1), Rank: 12},
		{Team: "A", Date: day(1), Rank: 4},
	}, RankingStrict, 0)
	if got, _ := r.Lookup("A", day(2)); got.Rank != 4 {
		t.Errorf("want rank 4, got %d", got.Rank)
	}
}

func TestParseRankingMode(t *testing.T) {
	if m, err := ParseRankingMode(""); err != nil || m != RankingStrict {
		t.Errorf("empty mode should default to strict, got %q %v", m, err)
	}
	if _, err := ParseRankingMode("closest"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
