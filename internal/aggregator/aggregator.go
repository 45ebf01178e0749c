package aggregator

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/pable/go-cs-forecast/internal/model"
)

// Group identifies one of the two rosters in a demo. GroupA is the roster
// that started on CT.
type Group int

const (
	GroupNone Group = iota
	GroupA
	GroupB
)

// ErrDraw is returned for a demo that ended with equal round counts.
var ErrDraw = errors.New("demo ended in a draw")

// Result is a demo reduced to per-roster totals.
type Result struct {
	DemoHash string
	MapName  string
	A, B     model.TeamTotals
	RoundsA  int
	RoundsB  int
	PlayersA []uint64
	PlayersB []uint64
}

// Outcome is 1 when roster A won more rounds.
func (r *Result) Outcome() (int, error) {
	switch {
	case r.RoundsA > r.RoundsB:
		return 1, nil
	case r.RoundsB > r.RoundsA:
		return 0, nil
	}
	return 0, fmt.Errorf("%w: %d-%d", ErrDraw, r.RoundsA, r.RoundsB)
}

// MatchMeta is the series information a demo does not carry.
type MatchMeta struct {
	MatchID        int64
	Date           time.Time
	TournamentType int
	BestOf         int
	TeamA, TeamB   string // names for roster A and roster B
}

// Match builds a completed match record from the aggregated demo.
func (r *Result) Match(meta MatchMeta) (model.Match, error) {
	outcome, err := r.Outcome()
	if err != nil {
		return model.Match{}, err
	}
	m := model.Match{
		MatchID:        meta.MatchID,
		Date:           meta.Date,
		TournamentType: meta.TournamentType,
		BestOf:         meta.BestOf,
		TeamA:          meta.TeamA,
		TeamB:          meta.TeamB,
		StatsA:         r.A.Stats(),
		StatsB:         r.B.Stats(),
		Outcome:        outcome,
	}
	return m, m.Validate()
}

// Aggregate reduces a RawMatch to team totals for the two rosters.
func Aggregate(raw *model.RawMatch) (*Result, error) {
	if raw == nil {
		return nil, fmt.Errorf("nil RawMatch")
	}
	if len(raw.Rounds) == 0 {
		return nil, fmt.Errorf("demo %s has no rounds", raw.DemoHash)
	}

	tradeWindowTicks := int(5.0 * raw.TicksPerSecond)

	rounds := make([]model.RawRound, len(raw.Rounds))
	copy(rounds, raw.Rounds)
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].Number < rounds[j].Number })

	// ---- Pass 1: assign every player to a roster. ----

	groups := make(map[uint64]Group)
	sideOfA := make(map[int]model.Team) // round number -> side roster A played
	for _, round := range rounds {
		side := rosterSide(round, groups)
		sideOfA[round.Number] = side
		if side == model.TeamUnknown {
			continue
		}
		for id, st := range round.PlayerEndState {
			if id == 0 || groups[id] != GroupNone {
				continue
			}
			switch {
			case st.Team == side:
				groups[id] = GroupA
			case st.Team == opposite(side):
				groups[id] = GroupB
			}
		}
	}

	// ---- Pass 2: group kills by round and flag traded deaths. ----

	killsByRound := make(map[int][]model.RawKill)
	for _, k := range raw.Kills {
		killsByRound[k.RoundNumber] = append(killsByRound[k.RoundNumber], k)
	}
	traded := make(map[int]map[uint64]bool) // round -> victims whose death was traded
	for rn, kills := range killsByRound {
		sort.Slice(kills, func(i, j int) bool { return kills[i].Tick < kills[j].Tick })
		for i, k := range kills {
			// The victim was traded if a teammate killed k's killer shortly after.
			for j := i + 1; j < len(kills); j++ {
				next := kills[j]
				if next.Tick-k.Tick > tradeWindowTicks {
					break
				}
				if next.VictimSteamID == k.KillerSteamID && next.KillerTeam == k.VictimTeam {
					if traded[rn] == nil {
						traded[rn] = make(map[uint64]bool)
					}
					traded[rn][k.VictimSteamID] = true
					break
				}
			}
		}
	}

	// ---- Pass 3: accumulate per-roster totals round by round. ----

	damageByPlayerRound := make(map[playerRoundKey]int)
	for _, d := range raw.Damages {
		damageByPlayerRound[playerRoundKey{d.AttackerSteamID, d.RoundNumber}] += d.HealthDamage
	}

	res := &Result{DemoHash: raw.DemoHash, MapName: raw.MapName}
	totals := map[Group]*model.TeamTotals{GroupA: &res.A, GroupB: &res.B}

	for _, round := range rounds {
		rn := round.Number
		kills := killsByRound[rn]

		if side := sideOfA[rn]; side != model.TeamUnknown {
			switch round.WinnerTeam {
			case side:
				res.RoundsA++
			case opposite(side):
				res.RoundsB++
			}
		}

		roundPlayers := make(map[uint64]struct{})
		for id := range round.PlayerEndState {
			roundPlayers[id] = struct{}{}
		}
		for _, k := range kills {
			roundPlayers[k.KillerSteamID] = struct{}{}
			roundPlayers[k.VictimSteamID] = struct{}{}
		}

		for playerID := range roundPlayers {
			t, ok := totals[groups[playerID]]
			if playerID == 0 || !ok {
				continue
			}
			var gotKill, gotAssist bool
			for _, k := range kills {
				if k.KillerSteamID == playerID {
					t.Kills++
					gotKill = true
				}
				if k.VictimSteamID == playerID {
					t.Deaths++
				}
				if k.AssisterSteamID == playerID {
					t.Assists++
					gotAssist = true
				}
			}
			survived := round.PlayerEndState[playerID].IsAlive
			if gotKill || gotAssist || survived || traded[rn][playerID] {
				t.KASTRounds++
			}
			t.Damage += damageByPlayerRound[playerRoundKey{playerID, rn}]
			t.PlayerRounds++
		}
	}

	for id, g := range groups {
		switch g {
		case GroupA:
			res.PlayersA = append(res.PlayersA, id)
		case GroupB:
			res.PlayersB = append(res.PlayersB, id)
		}
	}
	sort.Slice(res.PlayersA, func(i, j int) bool { return res.PlayersA[i] < res.PlayersA[j] })
	sort.Slice(res.PlayersB, func(i, j int) bool { return res.PlayersB[i] < res.PlayersB[j] })
	return res, nil
}

type playerRoundKey struct {
	playerID uint64
	roundN   int
}

// rosterSide returns the side roster A played in round. Before anyone is
// assigned, roster A is whoever is on CT.
func rosterSide(round model.RawRound, groups map[uint64]Group) model.Team {
	votes := make(map[model.Team]int)
	for id, st := range round.PlayerEndState {
		switch groups[id] {
		case GroupA:
			votes[st.Team]++
		case GroupB:
			votes[opposite(st.Team)]++
		}
	}
	switch {
	case votes[model.TeamCT] > votes[model.TeamT]:
		return model.TeamCT
	case votes[model.TeamT] > votes[model.TeamCT]:
		return model.TeamT
	case len(groups) == 0:
		return model.TeamCT
	}
	return model.TeamUnknown
}

func opposite(t model.Team) model.Team {
	switch t {
	case model.TeamCT:
		return model.TeamT
	case model.TeamT:
		return model.TeamCT
	}
	return model.TeamUnknown
}
