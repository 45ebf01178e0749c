package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-forecast/internal/report"
)

var (
	teamAt string
	teamVs string
)

var teamCmd = &cobra.Command{
	Use:   "team <name>",
	Short: "Show a team's rolling window and ranking as of a date",
	Long: `Show the matches in a team's rolling window, their average, and the team's
ranking, using only matches played strictly before --at (default: now).
With --vs, also show the head-to-head record against that opponent.`,
	Args: cobra.ExactArgs(1),
	RunE: runTeam,
}

func init() {
	teamCmd.Flags().StringVar(&teamAt, "at", "", "cutoff date, YYYY-MM-DD or RFC3339 (default: now)")
	teamCmd.Flags().StringVar(&teamVs, "vs", "", "opponent for a head-to-head record")
}

func runTeam(cmd *cobra.Command, args []string) error {
	at := time.Now().UTC()
	if teamAt != "" {
		var err error
		if at, err = parseDay(teamAt); err != nil {
			return err
		}
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	live, err := loadLive(db)
	if err != nil {
		return err
	}

	win := live.Window(args[0], at)
	if len(win.Recent) == 0 {
		cWarn.Fprintf(os.Stdout, "No matches for %q before %s.\n", args[0], at.Format(time.DateOnly))
	}
	report.PrintTeamWindow(os.Stdout, win)

	if teamVs != "" {
		aWins, bWins := live.HeadToHead(args[0], teamVs, at)
		fmt.Fprintf(os.Stdout, "\nHead-to-head vs %s: %d-%d (diff %+d)\n", teamVs, aWins, bWins, aWins-bWins)
	}
	return nil
}
