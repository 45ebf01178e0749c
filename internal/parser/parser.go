// Package parser reads CS2 demos into the raw events the aggregator reduces
// to team totals.
package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	demoinfocs "github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs"
	common "github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs/common"
	"github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs/events"

	"github.com/pable/go-cs-forecast/internal/model"
)

// HashDemo returns the hex SHA-256 of the demo file, used as its idempotency key.
func HashDemo(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open demo: %w", err)
	}
	defer f.Close()
	return hashReader(f)
}

func hashReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash demo: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ParseDemo parses the demo at path. Warmup is ignored; round numbering
// starts at the first live round.
func ParseDemo(path string) (*model.RawMatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open demo: %w", err)
	}
	defer f.Close()

	hash, err := hashReader(f)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek demo: %w", err)
	}

	p := demoinfocs.NewParser(f)
	defer p.Close()

	c := &collector{
		p:   p,
		raw: &model.RawMatch{DemoHash: hash, PlayerNames: make(map[uint64]string)},
	}
	p.RegisterEventHandler(c.roundStart)
	p.RegisterEventHandler(c.roundEnd)
	p.RegisterEventHandler(c.kill)
	p.RegisterEventHandler(c.hurt)

	if err := p.ParseToEnd(); err != nil {
		return nil, fmt.Errorf("parse demo: %w", err)
	}
	c.raw.MapName = p.Header().MapName
	c.raw.TicksPerSecond = p.TickRate()
	return c.raw, nil
}

// collector accumulates events for the round in progress.
type collector struct {
	p     demoinfocs.Parser
	raw   *model.RawMatch
	round int
	start int
}

func (c *collector) tick() int { return c.p.GameState().IngameTick() }

func (c *collector) roundStart(events.RoundStart) {
	if c.p.GameState().IsWarmupPeriod() {
		return
	}
	c.round++
	c.start = c.tick()
}

// roundEnd snapshots who survived on which side; KAST needs it.
func (c *collector) roundEnd(e events.RoundEnd) {
	if c.round == 0 {
		return
	}
	state := make(map[uint64]model.PlayerRoundEndState)
	for _, pl := range c.p.GameState().Participants().Playing() {
		if pl == nil || pl.SteamID64 == 0 {
			continue
		}
		state[pl.SteamID64] = model.PlayerRoundEndState{
			SteamID64: pl.SteamID64,
			IsAlive:   pl.IsAlive(),
			Team:      teamFromCommon(pl.Team),
		}
		c.raw.PlayerNames[pl.SteamID64] = pl.Name
	}
	c.raw.Rounds = append(c.raw.Rounds, model.RawRound{
		Number:         c.round,
		StartTick:      c.start,
		EndTick:        c.tick(),
		WinnerTeam:     teamFromCommon(e.Winner),
		PlayerEndState: state,
	})
}

func (c *collector) kill(e events.Kill) {
	if c.round == 0 || e.Killer == nil || e.Victim == nil {
		return
	}
	k := model.RawKill{
		Tick:          c.tick(),
		RoundNumber:   c.round,
		KillerSteamID: e.Killer.SteamID64,
		VictimSteamID: e.Victim.SteamID64,
		KillerTeam:    teamFromCommon(e.Killer.Team),
		VictimTeam:    teamFromCommon(e.Victim.Team),
	}
	if e.Assister != nil {
		k.AssisterSteamID = e.Assister.SteamID64
	}
	c.raw.Kills = append(c.raw.Kills, k)
}

// hurt records enemy damage only. Self and team damage do not count toward ADR.
func (c *collector) hurt(e events.PlayerHurt) {
	if c.round == 0 || e.Attacker == nil || e.Player == nil {
		return
	}
	if e.Attacker.SteamID64 == e.Player.SteamID64 || e.Attacker.Team == e.Player.Team {
		return
	}
	c.raw.Damages = append(c.raw.Damages, model.RawDamage{
		Tick:            c.tick(),
		RoundNumber:     c.round,
		AttackerSteamID: e.Attacker.SteamID64,
		VictimSteamID:   e.Player.SteamID64,
		AttackerTeam:    teamFromCommon(e.Attacker.Team),
		HealthDamage:    e.HealthDamage,
	})
}

func teamFromCommon(t common.Team) model.Team {
	switch t {
	case common.TeamTerrorists:
		return model.TeamT
	case common.TeamCounterTerrorists:
		return model.TeamCT
	case common.TeamSpectators:
		return model.TeamSpectators
	}
	return model.TeamUnknown
}
