package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-forecast/internal/model"
	"github.com/pable/go-cs-forecast/internal/report"
)

var (
	listTeam    string
	listLimit   int
	listPending bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored matches",
	Long:  "List stored matches, newest last. With --pending, list scheduled matches that have no result yet.",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listTeam, "team", "", "only matches involving this team")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "show only the most recent N matches")
	listCmd.Flags().BoolVar(&listPending, "pending", false, "list pending matches instead")
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if listPending {
		pending, err := db.ListPendingMatches(time.Time{}, time.Time{})
		if err != nil {
			return fmt.Errorf("list pending matches: %w", err)
		}
		if len(pending) == 0 {
			fmt.Fprintln(os.Stdout, "No pending matches. Import records with \"outcome\": null to add some.")
			return nil
		}
		fmt.Fprintf(os.Stdout, "%-10s  %-10s  %-20s  %-20s  %4s  %2s\n", "ID", "DATE", "TEAM A", "TEAM B", "TIER", "BO")
		fmt.Fprintf(os.Stdout, "%-10s  %-10s  %-20s  %-20s  %4s  %2s\n",
			"──────────", "──────────", "────────────────────", "────────────────────", "────", "──")
		for _, p := range pending {
			fmt.Fprintf(os.Stdout, "%-10d  %-10s  %-20s  %-20s  %4d  %2d\n",
				p.MatchID, p.Date.Format(time.DateOnly), p.TeamA, p.TeamB, p.TournamentType, p.BestOf)
		}
		return nil
	}

	matches, err := db.ListMatches()
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	if listTeam != "" {
		var filtered []model.Match
		for _, m := range matches {
			if m.Involves(listTeam) {
				filtered = append(filtered, m)
			}
		}
		matches = filtered
	}
	if listLimit > 0 && len(matches) > listLimit {
		matches = matches[len(matches)-listLimit:]
	}
	if len(matches) == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'csforecast import-matches <file.json>' to add some.")
		return nil
	}
	report.PrintMatchTable(os.Stdout, matches)
	return nil
}
