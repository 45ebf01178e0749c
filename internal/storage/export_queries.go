package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pable/go-cs-forecast/internal/model"
)

// Run describes one persisted feature replay.
type Run struct {
	ID          string
	CreatedAt   time.Time
	Kind        string // "build" or "live"
	Policy      string
	Window      int
	RankingMode string
	Sequenced   int
	RowCount    int
	SkipCount   int
}

// SaveRun stores a run with its rows and skips in one transaction. A new
// run ID is generated when run.ID is empty; the stored run is returned.
func (db *DB) SaveRun(run Run, rows []model.FeatureVector, skips []model.Skip) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.RowCount, run.SkipCount = len(rows), len(skips)

	tx, err := db.conn.Begin()
	if err != nil {
		return Run{}, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO feature_runs(run_id, created_at, kind, policy, window_size, ranking_mode, sequenced, row_count, skip_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, formatDate(run.CreatedAt), run.Kind, run.Policy, run.Window, run.RankingMode,
		run.Sequenced, run.RowCount, run.SkipCount,
	); err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}

	rowStmt, err := tx.Prepare(`
		INSERT INTO feature_rows(
			run_id, seq, match_id, tournament_type, best_of, ranking_diff, hth_diff,
			rating_diff, kda_diff, kast_diff, adr_diff, label, imputed
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return Run{}, err
	}
	defer rowStmt.Close()
	for i, r := range rows {
		if _, err := rowStmt.Exec(run.ID, i, r.MatchID, r.TournamentType, r.BestOf, r.RankingDiff, r.HTHDiff,
			r.RatingDiff, r.KDADiff, r.KASTDiff, r.ADRDiff, r.Label, boolInt(r.Imputed)); err != nil {
			return Run{}, fmt.Errorf("insert feature row for match %d: %w", r.MatchID, err)
		}
	}

	skipStmt, err := tx.Prepare(`INSERT INTO feature_skips(run_id, seq, match_id, reason, detail) VALUES (?,?,?,?,?)`)
	if err != nil {
		return Run{}, err
	}
	defer skipStmt.Close()
	for i, s := range skips {
		if _, err := skipStmt.Exec(run.ID, i, s.MatchID, string(s.Reason), s.Detail); err != nil {
			return Run{}, fmt.Errorf("insert skip for match %d: %w", s.MatchID, err)
		}
	}
	return run, tx.Commit()
}

const runColumns = `run_id, created_at, kind, policy, window_size, ranking_mode, sequenced, row_count, skip_count`

func scanRun(s scanner) (Run, error) {
	var (
		r       Run
		created string
	)
	if err := s.Scan(&r.ID, &created, &r.Kind, &r.Policy, &r.Window, &r.RankingMode,
		&r.Sequenced, &r.RowCount, &r.SkipCount); err != nil {
		return Run{}, err
	}
	t, err := parseDate(created)
	if err != nil {
		return Run{}, err
	}
	r.CreatedAt = t
	return r, nil
}

// ListRuns returns stored runs, newest first.
func (db *DB) ListRuns() ([]Run, error) {
	rows, err := db.conn.Query(`SELECT ` + runColumns + ` FROM feature_runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestRun returns the most recent run of the given kind.
func (db *DB) LatestRun(kind string) (*Run, error) {
	row := db.conn.QueryRow(`SELECT `+runColumns+` FROM feature_runs
		WHERE kind = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, kind)
	r, err := scanRun(row)
	if err != nil {
		return nil, notFound(err, "%s run", kind)
	}
	return &r, nil
}

// GetRunByPrefix finds a run by a unique ID prefix.
func (db *DB) GetRunByPrefix(prefix string) (*Run, error) {
	rows, err := db.conn.Query(`SELECT `+runColumns+` FROM feature_runs WHERE run_id LIKE ? LIMIT 2`, prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("run %q: %w", prefix, ErrNotFound)
	case 1:
		return &found[0], nil
	}
	return nil, fmt.Errorf("run prefix %q is ambiguous", prefix)
}

const rowColumns = `match_id, tournament_type, best_of, ranking_diff, hth_diff,
	rating_diff, kda_diff, kast_diff, adr_diff, label, imputed`

func scanRow(s scanner) (model.FeatureVector, error) {
	var (
		v       model.FeatureVector
		imputed int
	)
	if err := s.Scan(&v.MatchID, &v.TournamentType, &v.BestOf, &v.RankingDiff, &v.HTHDiff,
		&v.RatingDiff, &v.KDADiff, &v.KASTDiff, &v.ADRDiff, &v.Label, &imputed); err != nil {
		return model.FeatureVector{}, err
	}
	v.Imputed = imputed != 0
	return v, nil
}

// RunRows returns a run's rows in emission order.
func (db *DB) RunRows(runID string) ([]model.FeatureVector, error) {
	return db.queryRows(`SELECT `+rowColumns+` FROM feature_rows WHERE run_id = ? ORDER BY seq`, runID)
}

// RowsForMatches returns the run's rows for the given match IDs, in emission order.
func (db *DB) RowsForMatches(runID string, ids []int64) ([]model.FeatureVector, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, runID)
	for _, id := range ids {
		args = append(args, id)
	}
	return db.queryRows(`SELECT `+rowColumns+` FROM feature_rows
		WHERE run_id = ? AND match_id IN (`+placeholders(len(ids))+`) ORDER BY seq`, args...)
}

func (db *DB) queryRows(query string, args ...any) ([]model.FeatureVector, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.FeatureVector
	for rows.Next() {
		v, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// RunSkips returns a run's skips in the order they were recorded.
func (db *DB) RunSkips(runID string) ([]model.Skip, error) {
	rows, err := db.conn.Query(`SELECT match_id, reason, detail FROM feature_skips WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Skip
	for rows.Next() {
		var (
			s      model.Skip
			reason string
		)
		if err := rows.Scan(&s.MatchID, &reason, &s.Detail); err != nil {
			return nil, err
		}
		s.Reason = model.Reason(reason)
		out = append(out, s)
	}
	return out, rows.Err()
}

// SkipCounts returns a run's skip totals keyed by reason.
func (db *DB) SkipCounts(runID string) (map[model.Reason]int, error) {
	rows, err := db.conn.Query(`SELECT reason, COUNT(1) FROM feature_skips WHERE run_id = ? GROUP BY reason`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.Reason]int)
	for rows.Next() {
		var (
			reason string
			n      int
		)
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, err
		}
		out[model.Reason(reason)] = n
	}
	return out, rows.Err()
}

// placeholders returns a comma-separated string of n "?" for SQL IN clauses,
// e.g. placeholders(3) → "?,?,?".
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// DeleteRuns removes feature runs of the given kind ("" for every kind)
// together with their rows and skips, and returns how many runs went.
func (db *DB) DeleteRuns(kind string) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	where, args := "", []any{}
	if kind != "" {
		where, args = " WHERE kind = ?", []any{kind}
	}
	sub := `SELECT run_id FROM feature_runs` + where
	for _, table := range []string{"feature_rows", "feature_skips"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE run_id IN (`+sub+`)`, args...); err != nil {
			return 0, fmt.Errorf("delete %s: %w", table, err)
		}
	}
	res, err := tx.Exec(`DELETE FROM feature_runs`+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), tx.Commit()
}
