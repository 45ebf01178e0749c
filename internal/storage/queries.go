package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pable/go-cs-forecast/internal/model"
)

// ErrNotFound is returned when a lookup matches no stored record.
var ErrNotFound = errors.New("not found")

const matchColumns = `match_id, match_date, tournament_type, best_of, team_a, team_b,
	rating_a, kda_a, kast_a, adr_a, rating_b, kda_b, kast_b, adr_b, outcome`

// InsertMatches bulk-inserts completed matches in a transaction. Uses
// INSERT OR REPLACE so re-importing the same file is idempotent.
func (db *DB) InsertMatches(matches []model.Match, source string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO matches(` + matchColumns + `, source)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range matches {
		_, err = stmt.Exec(
			m.MatchID, formatDate(m.Date), m.TournamentType, m.BestOf, m.TeamA, m.TeamB,
			m.StatsA.Rating, m.StatsA.KDA, m.StatsA.KAST, m.StatsA.ADR,
			m.StatsB.Rating, m.StatsB.KDA, m.StatsB.KAST, m.StatsB.ADR,
			m.Outcome, source,
		)
		if err != nil {
			return fmt.Errorf("insert match %d: %w", m.MatchID, err)
		}
	}
	// A played match is no longer pending.
	if _, err := tx.Exec(`
		DELETE FROM pending_matches
		WHERE match_id <> 0 AND match_id IN (SELECT match_id FROM matches)`); err != nil {
		return fmt.Errorf("clear played pending matches: %w", err)
	}
	return tx.Commit()
}

// ListMatches returns every stored match ordered by (match_date, match_id).
func (db *DB) ListMatches() ([]model.Match, error) {
	rows, err := db.conn.Query(`SELECT ` + matchColumns + ` FROM matches ORDER BY match_date, match_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMatch returns the stored match with the given ID.
func (db *DB) GetMatch(id int64) (*model.Match, error) {
	row := db.conn.QueryRow(`SELECT `+matchColumns+` FROM matches WHERE match_id = ?`, id)
	m, err := scanMatch(row)
	if err != nil {
		return nil, notFound(err, "match %d", id)
	}
	return &m, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(s scanner) (model.Match, error) {
	var (
		m    model.Match
		date string
	)
	if err := s.Scan(&m.MatchID, &date, &m.TournamentType, &m.BestOf, &m.TeamA, &m.TeamB,
		&m.StatsA.Rating, &m.StatsA.KDA, &m.StatsA.KAST, &m.StatsA.ADR,
		&m.StatsB.Rating, &m.StatsB.KDA, &m.StatsB.KAST, &m.StatsB.ADR,
		&m.Outcome); err != nil {
		return model.Match{}, err
	}
	t, err := parseDate(date)
	if err != nil {
		return model.Match{}, err
	}
	m.Date = t
	return m, nil
}

// InsertPendingMatches stores scheduled matches, replacing any existing entry
// for the same date and pairing.
func (db *DB) InsertPendingMatches(pending []model.PendingMatch) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO pending_matches(
			match_date, team_a, team_b, match_id, tournament_type, best_of, tournament_name
		) VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range pending {
		if _, err := stmt.Exec(formatDate(p.Date), p.TeamA, p.TeamB, p.MatchID,
			p.TournamentType, p.BestOf, p.TournamentName); err != nil {
			return fmt.Errorf("insert pending match %s vs %s: %w", p.TeamA, p.TeamB, err)
		}
	}
	return tx.Commit()
}

// ListPendingMatches returns scheduled matches with from <= date < to,
// ordered by date. A zero bound is open.
func (db *DB) ListPendingMatches(from, to time.Time) ([]model.PendingMatch, error) {
	query := `
		SELECT match_date, team_a, team_b, match_id, tournament_type, best_of, tournament_name
		FROM pending_matches WHERE 1=1`
	var args []any
	if !from.IsZero() {
		query += ` AND match_date >= ?`
		args = append(args, formatDate(from))
	}
	if !to.IsZero() {
		query += ` AND match_date < ?`
		args = append(args, formatDate(to))
	}
	query += ` ORDER BY match_date, match_id, team_a`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PendingMatch
	for rows.Next() {
		var (
			p    model.PendingMatch
			date string
		)
		if err := rows.Scan(&date, &p.TeamA, &p.TeamB, &p.MatchID,
			&p.TournamentType, &p.BestOf, &p.TournamentName); err != nil {
			return nil, err
		}
		if p.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertRankings stores ranking snapshots; one row per team and date.
func (db *DB) InsertRankings(snaps []model.RankingSnapshot) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO rankings(team, snapshot_date, rank) VALUES (?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range snaps {
		if _, err := stmt.Exec(r.Team, formatDate(r.Date), r.Rank); err != nil {
			return fmt.Errorf("insert ranking %s: %w", r.Team, err)
		}
	}
	return tx.Commit()
}

// ListRankings returns every stored snapshot ordered by team and date.
func (db *DB) ListRankings() ([]model.RankingSnapshot, error) {
	rows, err := db.conn.Query(`SELECT team, snapshot_date, rank FROM rankings ORDER BY team, snapshot_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RankingSnapshot
	for rows.Next() {
		var (
			r    model.RankingSnapshot
			date string
		)
		if err := rows.Scan(&r.Team, &date, &r.Rank); err != nil {
			return nil, err
		}
		if r.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DemoRef records which demo produced a stored match.
type DemoRef struct {
	Hash     string
	MatchID  int64
	MapName  string
	Tickrate float64
	RoundsA  int
	RoundsB  int
}

// DemoExists returns true if a demo with the given hash is already stored.
func (db *DB) DemoExists(hash string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM demos WHERE hash = ?", hash).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertDemo stores a demo together with the match it was aggregated into.
func (db *DB) InsertDemo(ref DemoRef, m model.Match) error {
	if err := db.InsertMatches([]model.Match{m}, "demo"); err != nil {
		return err
	}
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO demos(hash, match_id, map_name, tickrate, rounds_a, rounds_b)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ref.Hash, m.MatchID, ref.MapName, ref.Tickrate, ref.RoundsA, ref.RoundsB,
	)
	return err
}

// Overview is a count of everything stored.
type Overview struct {
	Matches  int
	Teams    int
	Pending  int
	Rankings int
	Demos    int
	Runs     int
	First    time.Time
	Last     time.Time
}

// Overview summarizes the database contents.
func (db *DB) Overview() (Overview, error) {
	var (
		o           Overview
		first, last sql.NullString
	)
	err := db.conn.QueryRow(`
		SELECT
			(SELECT COUNT(1) FROM matches),
			(SELECT COUNT(1) FROM (SELECT team_a AS t FROM matches UNION SELECT team_b FROM matches)),
			(SELECT COUNT(1) FROM pending_matches),
			(SELECT COUNT(1) FROM rankings),
			(SELECT COUNT(1) FROM demos),
			(SELECT COUNT(1) FROM feature_runs),
			(SELECT MIN(match_date) FROM matches),
			(SELECT MAX(match_date) FROM matches)`).Scan(
		&o.Matches, &o.Teams, &o.Pending, &o.Rankings, &o.Demos, &o.Runs, &first, &last)
	if err != nil {
		return Overview{}, err
	}
	if first.Valid {
		if o.First, err = parseDate(first.String); err != nil {
			return Overview{}, err
		}
	}
	if last.Valid {
		if o.Last, err = parseDate(last.String); err != nil {
			return Overview{}, err
		}
	}
	return o, nil
}

func notFound(err error, format string, args ...any) error {
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
