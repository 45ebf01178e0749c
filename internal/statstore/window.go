// Package statstore answers "what did we know about this team before this
// point in time": rolling performance averages and the latest known ranking.
// Every lookup takes an explicit cutoff and never reads at or past it.
package statstore

import (
	"slices"
	"sort"

	"github.com/pable/go-cs-forecast/internal/model"
)

// DefaultWindow is the number of most recent matches averaged per team.
const DefaultWindow = 10

// Entry is one team appearance in the history.
type Entry struct {
	Key      model.Key
	Opponent string
	Stats    model.TeamStats
}

// Store is an in-memory, per-team, time-indexed buffer of match stats.
// It replaces "ORDER BY date DESC LIMIT N" queries with a binary search on
// the cutoff, so the leakage boundary is explicit and testable.
type Store struct {
	window int
	byTeam map[string][]Entry
}

// New returns an empty store averaging the last window matches.
func New(window int) *Store {
	if window < 1 {
		window = 1
	}
	return &Store{window: window, byTeam: make(map[string][]Entry)}
}

// Build indexes every match in history, on both sides.
func Build(history []model.Match, window int) *Store {
	s := New(window)
	for _, m := range history {
		s.Add(m)
	}
	return s
}

// Window returns the configured window size.
func (s *Store) Window() int { return s.window }

// Add indexes m under both teams, keeping each team's buffer sorted by key
// regardless of insertion order.
func (s *Store) Add(m model.Match) {
	s.insert(m.TeamA, Entry{Key: m.Key(), Opponent: m.TeamB, Stats: m.StatsA})
	s.insert(m.TeamB, Entry{Key: m.Key(), Opponent: m.TeamA, Stats: m.StatsB})
}

func (s *Store) insert(team string, e Entry) {
	entries := s.byTeam[team]
	if n := len(entries); n == 0 || entries[n-1].Key.Before(e.Key) {
		s.byTeam[team] = append(entries, e)
		return
	}
	i := sort.Search(len(entries), func(i int) bool {
		return e.Key.Before(entries[i].Key)
	})
	s.byTeam[team] = slices.Insert(entries, i, e)
}

// Recent returns the team's last N entries strictly before cutoff, oldest
// first. It is empty when the team has no prior matches.
func (s *Store) Recent(team string, cutoff model.Key) []Entry {
	entries := s.byTeam[team]
	n := sort.Search(len(entries), func(i int) bool {
		return !entries[i].Key.Before(cutoff)
	})
	start := max(0, n-s.window)
	return slices.Clone(entries[start:n])
}

// Lookup averages rating, KDA, KAST and ADR independently over the team's
// most recent matches strictly before cutoff. Fewer than N prior matches
// are averaged over however many exist; none at all reports false.
//
// "Before" compares the full (date, match_id) key, so a same-day match with
// a lower ID counts as history. A cutoff with MatchID 0, as used for live
// featurization, sees only earlier dates.
func (s *Store) Lookup(team string, cutoff model.Key) (model.AggregateStats, bool) {
	recent := s.Recent(team, cutoff)
	if len(recent) == 0 {
		return model.AggregateStats{}, false
	}
	var agg model.AggregateStats
	for _, e := range recent {
		agg.Rating += e.Stats.Rating
		agg.KDA += e.Stats.KDA
		agg.KAST += e.Stats.KAST
		agg.ADR += e.Stats.ADR
	}
	n := float64(len(recent))
	agg.Rating /= n
	agg.KDA /= n
	agg.KAST /= n
	agg.ADR /= n
	agg.Matches = len(recent)
	return agg, true
}

// Teams returns every indexed team, sorted.
func (s *Store) Teams() []string {
	teams := make([]string, 0, len(s.byTeam))
	for t := range s.byTeam {
		teams = append(teams, t)
	}
	slices.Sort(teams)
	return teams
}
