package sequence

import (
	"errors"
	"testing"
	"time"

	"github.com/pable/go-cs-forecast/internal/model"
)

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

func mk(id int64, d int, a, b string) model.Match {
	return model.Match{MatchID: id, Date: day(d), TournamentType: 1, BestOf: 3, TeamA: a, TeamB: b}
}

func ids(s *Sequence) []int64 {
	var out []int64
	for _, m := range s.All() {
		out = append(out, m.MatchID)
	}
	return out
}

func TestNewOrdersByDateThenID(t *testing.T) {
	seq, err := New([]model.Match{
		mk(7, 3, "A", "B"),
		mk(2, 1, "A", "C"),
		mk(5, 3, "B", "C"),
		mk(9, 2, "A", "B"),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := ids(seq)
	want := []int64{2, 9, 5, 7}
	if len(got) != len(want) {
		t.Fatalf("len: want %d, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: want %d, got %d", i, want[i], got[i])
		}
	}
}

func TestAllIsRestartable(t *testing.T) {
	seq, err := New([]model.Match{mk(1, 1, "A", "B"), mk(2, 2, "A", "C")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	first, second := ids(seq), ids(seq)
	if len(first) != 2 || len(second) != 2 || first[0] != second[0] || first[1] != second[1] {
		t.Errorf("iteration not restartable: %v then %v", first, second)
	}
}

func TestNewDoesNotMutateInput(t *testing.T) {
	in := []model.Match{mk(2, 2, "A", "B"), mk(1, 1, "A", "C")}
	if _, err := New(in); err != nil {
		t.Fatalf("New: %v", err)
	}
	if in[0].MatchID != 2 {
		t.Error("input slice was reordered")
	}
}

func TestDuplicateSetAside(t *testing.T) {
	seq, err := New([]model.Match{mk(1, 1, "A", "B"), mk(1, 1, "B", "A"), mk(2, 2, "A", "C")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if seq.Len() != 2 {
		t.Errorf("want 2 sequenced matches, got %d", seq.Len())
	}
	dups := seq.Duplicates()
	if len(dups) != 1 || dups[0].TeamA != "B" {
		t.Errorf("expected the later copy to be set aside, got %+v", dups)
	}
}

func TestConflictingTeamsIsOrderingError(t *testing.T) {
	_, err := New([]model.Match{mk(1, 1, "A", "B"), mk(1, 1, "A", "C")})
	var oe *OrderingError
	if !errors.As(err, &oe) {
		t.Fatalf("want *OrderingError, got %v", err)
	}
	if oe.First.TeamB != "B" || oe.Second.TeamB != "C" {
		t.Errorf("unexpected conflict pair: %+v", oe)
	}
}

func TestReusedIDOnOtherDateIsOrderingError(t *testing.T) {
	_, err := New([]model.Match{mk(1, 1, "A", "B"), mk(1, 4, "A", "B")})
	var oe *OrderingError
	if !errors.As(err, &oe) {
		t.Fatalf("want *OrderingError, got %v", err)
	}
}

func TestCountBefore(t *testing.T) {
	seq, err := New([]model.Match{mk(1, 1, "A", "B"), mk(2, 2, "A", "C"), mk(3, 2, "B", "C"), mk(4, 5, "A", "B")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cases := []struct {
		cutoff model.Key
		want   int
	}{
		{model.Key{Date: day(1)}, 0},
		{model.Key{Date: day(2)}, 1},
		{model.Key{Date: day(2), MatchID: 3}, 2},
		{model.Key{Date: day(3)}, 3},
		{model.Key{Date: day(9)}, 4},
	}
	for _, c := range cases {
		if got := seq.CountBefore(c.cutoff); got != c.want {
			t.Errorf("CountBefore(%s): want %d, got %d", c.cutoff, c.want, got)
		}
	}
}
