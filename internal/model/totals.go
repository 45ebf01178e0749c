package model

// TeamTotals are raw per-match counting stats summed over a team's players.
// PlayerRounds is the sum of rounds played by each player (5 players x 24
// rounds = 120).
type TeamTotals struct {
	Kills        int `json:"kills"`
	Deaths       int `json:"deaths"`
	Assists      int `json:"assists"`
	KASTRounds   int `json:"kast_rounds"`
	PlayerRounds int `json:"player_rounds"`
	Damage       int `json:"damage"`
}

// KDA is (kills + assists) / deaths; deaths of zero count as one.
func (t TeamTotals) KDA() float64 {
	if t.Deaths == 0 {
		return float64(t.Kills + t.Assists)
	}
	return float64(t.Kills+t.Assists) / float64(t.Deaths)
}

func (t TeamTotals) KASTPct() float64 {
	if t.PlayerRounds == 0 {
		return 0
	}
	return float64(t.KASTRounds) / float64(t.PlayerRounds) * 100
}

func (t TeamTotals) ADR() float64 {
	if t.PlayerRounds == 0 {
		return 0
	}
	return float64(t.Damage) / float64(t.PlayerRounds)
}

// Rating estimates HLTV Rating 2.0 from per-round rates:
//
//	Rating ≈ 0.0073*KAST% + 0.3591*KPR - 0.5329*DPR + 0.2372*Impact + 0.0032*ADR + 0.1587
//	Impact  = 2.13*KPR + 0.42*APR - 0.41
func (t TeamTotals) Rating() float64 {
	if t.PlayerRounds == 0 {
		return 0
	}
	rounds := float64(t.PlayerRounds)
	kpr := float64(t.Kills) / rounds
	dpr := float64(t.Deaths) / rounds
	apr := float64(t.Assists) / rounds
	impact := 2.13*kpr + 0.42*apr - 0.41
	r := 0.0073*t.KASTPct() + 0.3591*kpr - 0.5329*dpr + 0.2372*impact + 0.0032*t.ADR() + 0.1587
	if r < 0 {
		return 0
	}
	return r
}

// Stats converts raw totals into the per-match inputs used by the rolling window.
func (t TeamTotals) Stats() TeamStats {
	return TeamStats{
		Rating: t.Rating(),
		KDA:    t.KDA(),
		KAST:   t.KASTPct(),
		ADR:    t.ADR(),
	}
}
