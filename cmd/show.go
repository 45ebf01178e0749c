package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-forecast/internal/model"
	"github.com/pable/go-cs-forecast/internal/report"
	"github.com/pable/go-cs-forecast/internal/storage"
)

var showRun string

var showCmd = &cobra.Command{
	Use:   "show <match-id>",
	Short: "Show a stored match and its feature row",
	Long:  "Show a stored match and the feature row (or skip reason) it received in the latest build, or in --run.",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showRun, "run", "", "run ID prefix (default: latest build)")
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid match id %q", args[0])
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := db.GetMatch(id)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "No match with id %d\n", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get match: %w", err)
	}
	report.PrintMatchTable(os.Stdout, []model.Match{*m})

	var run *storage.Run
	if showRun != "" {
		run, err = db.GetRunByPrefix(showRun)
	} else {
		run, err = db.LatestRun("build")
	}
	if errors.Is(err, storage.ErrNotFound) {
		cMuted.Fprintln(os.Stdout, "\nNo feature run found. Run 'csforecast build' first.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("find run: %w", err)
	}

	fmt.Fprintf(os.Stdout, "\n%s %s (%s, policy=%s, window=%d)\n\n",
		cHeader.Sprint("Run"), run.ID[:8], run.Kind, run.Policy, run.Window)
	rows, err := db.RowsForMatches(run.ID, []int64{id})
	if err != nil {
		return fmt.Errorf("get rows: %w", err)
	}
	if len(rows) > 0 {
		report.PrintFeatureTable(os.Stdout, rows)
		return nil
	}

	skips, err := db.RunSkips(run.ID)
	if err != nil {
		return fmt.Errorf("get skips: %w", err)
	}
	for _, s := range skips {
		if s.MatchID == id {
			cWarn.Fprintf(os.Stdout, "Skipped: %s (%s)\n", s.Reason, s.Detail)
			return nil
		}
	}
	cMuted.Fprintln(os.Stdout, "Match was not part of this run.")
	return nil
}
