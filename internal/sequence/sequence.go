// Package sequence orders raw match records into the single chronological
// replay order every downstream component depends on.
package sequence

import (
	"fmt"
	"iter"
	"slices"
	"sort"

	"github.com/pable/go-cs-forecast/internal/model"
)

// OrderingError reports two records whose chronological keys cannot be
// reconciled. It signals an upstream data-integrity problem and is fatal to
// a replay.
type OrderingError struct {
	First  model.Match
	Second model.Match
	Reason string
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("ordering conflict on match %d: %s (%s vs %s at %s, %s vs %s at %s)",
		e.First.MatchID, e.Reason,
		e.First.TeamA, e.First.TeamB, e.First.Date.Format("2006-01-02 15:04"),
		e.Second.TeamA, e.Second.TeamB, e.Second.Date.Format("2006-01-02 15:04"))
}

// Sequence is an immutable view of matches in ascending (date, match_id)
// order. It may be iterated any number of times.
type Sequence struct {
	matches    []model.Match
	duplicates []model.Match
}

// New sorts matches into replay order. Exact re-deliveries of a match (same
// key, same team pair) are set aside as duplicates, first copy wins. A
// match ID reused for a different date or a different team pair returns an
// *OrderingError.
func New(matches []model.Match) (*Sequence, error) {
	sorted := slices.Clone(matches)
	slices.SortStableFunc(sorted, func(a, b model.Match) int {
		return a.Key().Compare(b.Key())
	})

	seq := &Sequence{matches: make([]model.Match, 0, len(sorted))}
	seen := make(map[int64]model.Match, len(sorted))
	for _, m := range sorted {
		prev, ok := seen[m.MatchID]
		if !ok {
			seen[m.MatchID] = m
			seq.matches = append(seq.matches, m)
			continue
		}
		if !prev.Date.Equal(m.Date) {
			return nil, &OrderingError{First: prev, Second: m, Reason: "match id reused on a different date"}
		}
		if !prev.SamePair(m) {
			return nil, &OrderingError{First: prev, Second: m, Reason: "same key maps to different teams"}
		}
		seq.duplicates = append(seq.duplicates, m)
	}
	return seq, nil
}

// Len returns the number of sequenced matches.
func (s *Sequence) Len() int { return len(s.matches) }

// At returns the i-th match in replay order.
func (s *Sequence) At(i int) model.Match { return s.matches[i] }

// All yields (position, match) pairs in replay order.
func (s *Sequence) All() iter.Seq2[int, model.Match] {
	return func(yield func(int, model.Match) bool) {
		for i, m := range s.matches {
			if !yield(i, m) {
				return
			}
		}
	}
}

// Matches returns a copy of the ordered matches.
func (s *Sequence) Matches() []model.Match {
	return slices.Clone(s.matches)
}

// Duplicates returns the re-delivered records that were set aside.
func (s *Sequence) Duplicates() []model.Match {
	return slices.Clone(s.duplicates)
}

// CountBefore returns how many matches sort strictly before cutoff; they
// are exactly the first CountBefore(cutoff) positions.
func (s *Sequence) CountBefore(cutoff model.Key) int {
	return sort.Search(len(s.matches), func(i int) bool {
		return !s.matches[i].Key().Before(cutoff)
	})
}
