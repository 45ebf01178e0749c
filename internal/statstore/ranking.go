package statstore

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/pable/go-cs-forecast/internal/model"
)

// RankingMode selects how a snapshot is matched to a cutoff date.
type RankingMode string

const (
	// RankingStrict uses the latest snapshot dated at or before the cutoff.
	RankingStrict RankingMode = "strict"
	// RankingNearest uses the snapshot closest in absolute time, which may
	// postdate the cutoff. Opt-in only: it can leak future rank data.
	RankingNearest RankingMode = "nearest"
)

// ParseRankingMode validates a mode name; empty means strict.
func ParseRankingMode(s string) (RankingMode, error) {
	switch RankingMode(s) {
	case "", RankingStrict:
		return RankingStrict, nil
	case RankingNearest:
		return RankingNearest, nil
	}
	return "", fmt.Errorf("unknown ranking mode %q (want strict or nearest)", s)
}

// Rankings indexes ranking snapshots per team by date.
type Rankings struct {
	mode   RankingMode
	maxAge time.Duration
	byTeam map[string][]model.RankingSnapshot
}

// NewRankings indexes snaps. When a team has several snapshots on the same
// date the best (lowest) rank is kept. maxAge > 0 makes snapshots further
// than maxAge from the cutoff unavailable.
func NewRankings(snaps []model.RankingSnapshot, mode RankingMode, maxAge time.Duration) *Rankings {
	if mode == "" {
		mode = RankingStrict
	}
	r := &Rankings{mode: mode, maxAge: maxAge, byTeam: make(map[string][]model.RankingSnapshot)}
	for _, s := range snaps {
		r.byTeam[s.Team] = append(r.byTeam[s.Team], s)
	}
	for team, list := range r.byTeam {
		slices.SortFunc(list, func(a, b model.RankingSnapshot) int {
			if c := a.Date.Compare(b.Date); c != 0 {
				return c
			}
			return a.Rank - b.Rank
		})
		r.byTeam[team] = slices.CompactFunc(list, func(a, b model.RankingSnapshot) bool {
			return a.Date.Equal(b.Date)
		})
	}
	return r
}

// Mode returns the configured lookup mode.
func (r *Rankings) Mode() RankingMode { return r.mode }

// Lookup returns the team's ranking snapshot for a match played at at.
func (r *Rankings) Lookup(team string, at time.Time) (model.RankingSnapshot, bool) {
	list := r.byTeam[team]
	// after is the first snapshot dated strictly after at.
	after := sort.Search(len(list), func(i int) bool {
		return list[i].Date.After(at)
	})

	var (
		snap model.RankingSnapshot
		ok   bool
	)
	switch r.mode {
	case RankingNearest:
		snap, ok = nearest(list, after, at)
	default:
		if after > 0 {
			snap, ok = list[after-1], true
		}
	}
	if !ok {
		return model.RankingSnapshot{}, false
	}
	if r.maxAge > 0 && absDuration(at.Sub(snap.Date)) > r.maxAge {
		return model.RankingSnapshot{}, false
	}
	return snap, true
}

func nearest(list []model.RankingSnapshot, after int, at time.Time) (model.RankingSnapshot, bool) {
	switch {
	case len(list) == 0:
		return model.RankingSnapshot{}, false
	case after == 0:
		return list[0], true
	case after == len(list):
		return list[after-1], true
	}
	prev, next := list[after-1], list[after]
	// Ties go to the earlier snapshot.
	if at.Sub(prev.Date) <= next.Date.Sub(at) {
		return prev, true
	}
	return next, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
