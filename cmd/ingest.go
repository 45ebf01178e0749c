package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-forecast/internal/aggregator"
	"github.com/pable/go-cs-forecast/internal/model"
	"github.com/pable/go-cs-forecast/internal/parser"
	"github.com/pable/go-cs-forecast/internal/report"
	"github.com/pable/go-cs-forecast/internal/storage"
)

var (
	ingestTeamA          string
	ingestTeamB          string
	ingestMatchID        int64
	ingestDate           string
	ingestTournamentType int
	ingestBestOf         int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest-demo <demo.dem>",
	Short: "Derive a match's team stats from a CS2 demo and store it",
	Long: `Parse a CS2 demo, reduce it to team-level rating, KDA, KAST and ADR, and
store the result as a completed match. --team-a names the roster that started
on CT. A demo already stored (by content hash) is not parsed again.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestTeamA, "team-a", "", "team that started on CT (required)")
	ingestCmd.Flags().StringVar(&ingestTeamB, "team-b", "", "team that started on T (required)")
	ingestCmd.Flags().Int64Var(&ingestMatchID, "match-id", 0, "match ID (required)")
	ingestCmd.Flags().StringVar(&ingestDate, "date", "", "match date, YYYY-MM-DD or RFC3339 (required)")
	ingestCmd.Flags().IntVar(&ingestTournamentType, "tournament-type", 1, "tournament tier 1-4")
	ingestCmd.Flags().IntVar(&ingestBestOf, "best-of", 1, "series length")
	for _, f := range []string{"team-a", "team-b", "match-id", "date"} {
		_ = ingestCmd.MarkFlagRequired(f)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	demoPath := args[0]
	date, err := parseDay(ingestDate)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	hash, err := parser.HashDemo(demoPath)
	if err != nil {
		return fmt.Errorf("hash demo: %w", err)
	}
	exists, err := db.DemoExists(hash)
	if err != nil {
		return fmt.Errorf("check demo: %w", err)
	}
	if exists {
		fmt.Fprintf(os.Stdout, "Demo %s already stored, nothing to do.\n", hash[:12])
		return nil
	}

	fmt.Fprintf(os.Stdout, "Parsing %s...\n", demoPath)
	raw, err := parser.ParseDemo(demoPath)
	if err != nil {
		return fmt.Errorf("parse demo: %w", err)
	}
	res, err := aggregator.Aggregate(raw)
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}
	m, err := res.Match(aggregator.MatchMeta{
		MatchID:        ingestMatchID,
		Date:           date,
		TournamentType: ingestTournamentType,
		BestOf:         ingestBestOf,
		TeamA:          ingestTeamA,
		TeamB:          ingestTeamB,
	})
	if err != nil {
		return fmt.Errorf("build match: %w", err)
	}

	ref := storage.DemoRef{
		Hash:     raw.DemoHash,
		MatchID:  m.MatchID,
		MapName:  res.MapName,
		Tickrate: raw.TicksPerSecond,
		RoundsA:  res.RoundsA,
		RoundsB:  res.RoundsB,
	}
	if err := db.InsertDemo(ref, m); err != nil {
		return fmt.Errorf("insert demo: %w", err)
	}
	logger.Sugar().Infow("demo ingested", "hash", hash[:12], "match_id", m.MatchID, "map", res.MapName,
		"score", fmt.Sprintf("%d-%d", res.RoundsA, res.RoundsB))

	fmt.Fprintf(os.Stdout, "%s  %s %d-%d %s\n\n", res.MapName, m.TeamA, res.RoundsA, res.RoundsB, m.TeamB)
	report.PrintMatchTable(os.Stdout, []model.Match{m})
	return nil
}
