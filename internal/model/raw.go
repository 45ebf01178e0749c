package model

// Team represents which side a player is on.
type Team int

const (
	TeamUnknown    Team = 0
	TeamSpectators Team = 1
	TeamT          Team = 2
	TeamCT         Team = 3
)

func (t Team) String() string {
	switch t {
	case TeamT:
		return "T"
	case TeamCT:
		return "CT"
	default:
		return "?"
	}
}

// ---- Raw events emitted by the demo parser ----

type RawKill struct {
	Tick, RoundNumber            int
	KillerSteamID, VictimSteamID uint64
	AssisterSteamID              uint64 // 0 if none
	KillerTeam, VictimTeam       Team
}

type RawDamage struct {
	Tick, RoundNumber              int
	AttackerSteamID, VictimSteamID uint64
	AttackerTeam                   Team
	HealthDamage                   int
}

type PlayerRoundEndState struct {
	SteamID64 uint64
	IsAlive   bool
	Team      Team
}

type RawRound struct {
	Number, StartTick, EndTick int
	WinnerTeam                 Team
	PlayerEndState             map[uint64]PlayerRoundEndState
}

type RawMatch struct {
	DemoHash       string
	MapName        string
	TicksPerSecond float64
	Rounds         []RawRound
	Kills          []RawKill
	Damages        []RawDamage
	PlayerNames    map[uint64]string
}
