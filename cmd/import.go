package cmd

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-forecast/internal/model"
)

var importMatchesCmd = &cobra.Command{
	Use:   "import-matches <file.json>",
	Short: "Import completed and scheduled matches from JSON",
	Long: `Import a JSON array of match records. A record with "outcome": null (or no
outcome) is stored as a pending match for the live commands; every other record
must be a complete match. Dates are YYYY-MM-DD or RFC3339.

  [{"match_id": 2371, "date": "2024-05-19", "tournament_type": 1, "best_of": 3,
    "team_a": "Vitality", "team_b": "NAVI",
    "stats_a": {"rating": 1.12, "kda": 1.41, "kast": 73.2, "adr": 82.5},
    "stats_b": {"rating": 0.97, "kda": 1.02, "kast": 68.0, "adr": 74.1},
    "outcome": 1}]

Re-importing a file replaces the stored records (idempotent).`,
	Args: cobra.ExactArgs(1),
	RunE: runImportMatches,
}

var importRankingsCmd = &cobra.Command{
	Use:   "import-rankings <file.json|file.csv>",
	Short: "Import world-ranking snapshots",
	Long: `Import ranking snapshots as a JSON array of {"team", "date", "rank"} objects
or a CSV file with a team,date,rank header.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportRankings,
}

type matchRecord struct {
	MatchID        int64           `json:"match_id"`
	Date           string          `json:"date"`
	TournamentType int             `json:"tournament_type"`
	BestOf         int             `json:"best_of"`
	TeamA          string          `json:"team_a"`
	TeamB          string          `json:"team_b"`
	TournamentName string          `json:"tournament_name"`
	StatsA         model.TeamStats `json:"stats_a"`
	StatsB         model.TeamStats `json:"stats_b"`
	Outcome        *int            `json:"outcome"`
}

type rankingRecord struct {
	Team string `json:"team"`
	Date string `json:"date"`
	Rank int    `json:"rank"`
}

func runImportMatches(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer f.Close()

	var records []matchRecord
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return fmt.Errorf("decode %s: %w", args[0], err)
	}

	var (
		matches []model.Match
		pending []model.PendingMatch
		bad     int
	)
	for i, r := range records {
		date, err := parseDay(r.Date)
		if err != nil {
			cWarn.Fprintf(os.Stderr, "  SKIP record %d: %v\n", i, err)
			bad++
			continue
		}
		if r.Outcome == nil {
			p := model.PendingMatch{
				MatchID: r.MatchID, Date: date, TournamentType: r.TournamentType, BestOf: r.BestOf,
				TeamA: r.TeamA, TeamB: r.TeamB, TournamentName: r.TournamentName,
			}
			if err := p.Validate(); err != nil {
				cWarn.Fprintf(os.Stderr, "  SKIP record %d: %v\n", i, err)
				bad++
				continue
			}
			pending = append(pending, p)
			continue
		}
		m := model.Match{
			MatchID: r.MatchID, Date: date, TournamentType: r.TournamentType, BestOf: r.BestOf,
			TeamA: r.TeamA, TeamB: r.TeamB, StatsA: r.StatsA, StatsB: r.StatsB, Outcome: *r.Outcome,
		}
		if err := m.Validate(); err != nil {
			cWarn.Fprintf(os.Stderr, "  SKIP record %d: %v\n", i, err)
			bad++
			continue
		}
		matches = append(matches, m)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.InsertMatches(matches, "import"); err != nil {
		return fmt.Errorf("store matches: %w", err)
	}
	if err := db.InsertPendingMatches(pending); err != nil {
		return fmt.Errorf("store pending matches: %w", err)
	}
	logger.Sugar().Infow("matches imported", "file", args[0], "matches", len(matches), "pending", len(pending), "rejected", bad)
	fmt.Fprintf(os.Stdout, "Imported %d matches and %d pending matches (%d rejected).\n", len(matches), len(pending), bad)
	return nil
}

func runImportRankings(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer f.Close()

	var records []rankingRecord
	switch strings.ToLower(filepath.Ext(args[0])) {
	case ".csv":
		records, err = readRankingCSV(f)
	default:
		err = json.NewDecoder(f).Decode(&records)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", args[0], err)
	}

	var (
		snaps []model.RankingSnapshot
		bad   int
	)
	for i, r := range records {
		date, err := parseDay(r.Date)
		if err == nil {
			s := model.RankingSnapshot{Team: r.Team, Date: date, Rank: r.Rank}
			if err = s.Validate(); err == nil {
				snaps = append(snaps, s)
				continue
			}
		}
		cWarn.Fprintf(os.Stderr, "  SKIP ranking %d: %v\n", i, err)
		bad++
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.InsertRankings(snaps); err != nil {
		return fmt.Errorf("store rankings: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Imported %d ranking snapshots (%d rejected).\n", len(snaps), bad)
	return nil
}

func readRankingCSV(r io.Reader) ([]rankingRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int)
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{"team", "date", "rank"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing %q column", name)
		}
	}

	var out []rankingRecord
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		rank, err := strconv.Atoi(strings.TrimSpace(rec[col["rank"]]))
		if err != nil {
			return nil, fmt.Errorf("line %d: rank: %w", len(out)+2, err)
		}
		out = append(out, rankingRecord{Team: strings.TrimSpace(rec[col["team"]]), Date: rec[col["date"]], Rank: rank})
	}
}

// parseDay accepts YYYY-MM-DD (midnight UTC) or RFC3339.
func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or RFC3339)", s)
	}
	return t, nil
}
