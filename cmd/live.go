package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-cs-forecast/internal/features"
	"github.com/pable/go-cs-forecast/internal/model"
	"github.com/pable/go-cs-forecast/internal/report"
	"github.com/pable/go-cs-forecast/internal/storage"
)

var (
	liveTeamA          string
	liveTeamB          string
	liveDate           string
	liveTournamentType int
	liveBestOf         int
	liveFrom           string
	liveTo             string
	liveSave           bool
	liveOut            string
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Featurize upcoming matches",
	Long: `Compute feature rows for matches that have not been played yet, with the
same rules as 'build'. Only results known before both the match date and the
current time are used; the label column is -1.

Featurize one match:
  csforecast live --team-a Vitality --team-b NAVI --date 2025-06-01 --best-of 3

Or every stored pending match in a date range:
  csforecast live --from 2025-06-01 --to 2025-06-08 --save`,
	Args: cobra.NoArgs,
	RunE: runLive,
}

func init() {
	liveCmd.Flags().StringVar(&liveTeamA, "team-a", "", "first team")
	liveCmd.Flags().StringVar(&liveTeamB, "team-b", "", "second team")
	liveCmd.Flags().StringVar(&liveDate, "date", "", "match date (default: today)")
	liveCmd.Flags().IntVar(&liveTournamentType, "tournament-type", 1, "tournament tier 1-4")
	liveCmd.Flags().IntVar(&liveBestOf, "best-of", 3, "series length")
	liveCmd.Flags().StringVar(&liveFrom, "from", "", "featurize stored pending matches on or after this date")
	liveCmd.Flags().StringVar(&liveTo, "to", "", "... and before this date")
	liveCmd.Flags().BoolVar(&liveSave, "save", false, "persist the rows as a live run")
	liveCmd.Flags().StringVar(&liveOut, "out", "", "write rows to a .csv or .json file")
	liveCmd.MarkFlagsRequiredTogether("team-a", "team-b")
	liveCmd.MarkFlagsMutuallyExclusive("team-a", "from")
	liveCmd.MarkFlagsMutuallyExclusive("team-a", "to")
}

// loadLive builds a live featurizer over everything stored.
func loadLive(db *storage.DB) (*features.Live, error) {
	matches, err := db.ListMatches()
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	rankings, err := db.ListRankings()
	if err != nil {
		return nil, fmt.Errorf("list rankings: %w", err)
	}
	p, err := newPipeline(nil)
	if err != nil {
		return nil, err
	}
	live, err := p.Live(matches, rankings)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	logger.Debug("live featurizer ready", zap.String("state", live.String()))
	return live, nil
}

func runLive(cmd *cobra.Command, args []string) error {
	now := time.Now().UTC()

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	var pending []model.PendingMatch
	if liveTeamA != "" {
		date := now
		if liveDate != "" {
			if date, err = parseDay(liveDate); err != nil {
				return err
			}
		}
		pending = []model.PendingMatch{{
			Date: date, TournamentType: liveTournamentType, BestOf: liveBestOf,
			TeamA: liveTeamA, TeamB: liveTeamB,
		}}
	} else {
		var from, to time.Time
		if liveFrom != "" {
			if from, err = parseDay(liveFrom); err != nil {
				return err
			}
		}
		if liveTo != "" {
			if to, err = parseDay(liveTo); err != nil {
				return err
			}
		}
		if pending, err = db.ListPendingMatches(from, to); err != nil {
			return fmt.Errorf("list pending matches: %w", err)
		}
	}
	if len(pending) == 0 {
		fmt.Fprintln(os.Stdout, "No pending matches to featurize. Use --team-a/--team-b or import scheduled matches.")
		return nil
	}

	live, err := loadLive(db)
	if err != nil {
		return err
	}

	scored, skips := live.FeaturizeAll(pending, now)
	rows := make([]model.FeatureVector, len(scored))
	for i, lr := range scored {
		rows[i] = lr.Row
	}

	if len(scored) > 0 {
		report.PrintLiveTable(os.Stdout, scored)
	}
	if len(skips) > 0 {
		fmt.Fprintln(os.Stdout)
		report.PrintSkipTable(os.Stdout, skips)
	}

	if liveSave {
		opts := live.Options()
		run, err := db.SaveRun(storage.Run{
			Kind:        "live",
			Policy:      string(opts.Policy.Mode),
			Window:      opts.Window,
			RankingMode: string(opts.RankingMode),
			Sequenced:   len(pending),
		}, rows, skips)
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Run %s saved.\n", run.ID[:8])
	}
	if liveOut != "" {
		if err := writeRows(liveOut, rows, skips); err != nil {
			return err
		}
	}
	return nil
}
