package cmd

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/go-cs-forecast/internal/model"
	"github.com/pable/go-cs-forecast/internal/report"
	"github.com/pable/go-cs-forecast/internal/storage"
)

// summaryCmd is the cobra command for displaying a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display what is stored: match count and date span, pending matches, ranking
snapshots, ingested demos, every feature run, and the skip breakdown of the
most recent build.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ov, err := db.Overview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.Matches == 0 && ov.Pending == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'csforecast import-matches <file.json>' to add some.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n=== Database Summary ===\n\n")
	report.PrintOverview(os.Stdout, ov)

	runs, err := db.ListRuns()
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "\nNo feature runs yet. Run 'csforecast build' to create one.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "\n--- Feature Runs ---\n\n")
	report.PrintRunTable(os.Stdout, runs)

	latest, err := db.LatestRun("build")
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("latest build: %w", err)
	}
	counts, err := db.SkipCounts(latest.ID)
	if err != nil {
		return fmt.Errorf("skip counts: %w", err)
	}
	if len(counts) == 0 {
		return nil
	}

	reasons := make([]model.Reason, 0, len(counts))
	for r := range counts {
		reasons = append(reasons, r)
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })

	fmt.Fprintf(os.Stdout, "\n--- Skips in build %s ---\n\n", latest.ID[:8])
	st := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	st.Header("REASON", "MATCHES", "SHARE")
	for _, r := range reasons {
		st.Append(
			string(r),
			fmt.Sprintf("%d", counts[r]),
			fmt.Sprintf("%.1f%%", 100*float64(counts[r])/float64(latest.RowCount+latest.SkipCount)),
		)
	}
	st.Render()
	return nil
}
