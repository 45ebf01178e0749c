package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

var sqlCSV bool

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the forecast database",
	Long: `Run an arbitrary SQL query against the forecast database and print results as a table.

Schema overview:
  matches(match_id, match_date, tournament_type, best_of, team_a, team_b,
    rating_a, kda_a, kast_a, adr_a, rating_b, kda_b, kast_b, adr_b, outcome, source)
  pending_matches(match_date, team_a, team_b, match_id, tournament_type, best_of, tournament_name)
  rankings(team, snapshot_date, rank)
  demos(hash, match_id, map_name, tickrate, rounds_a, rounds_b)
  feature_runs(run_id, created_at, kind, policy, window_size, ranking_mode,
    sequenced, row_count, skip_count)
  feature_rows(run_id, seq, match_id, tournament_type, best_of, ranking_diff, hth_diff,
    rating_diff, kda_diff, kast_diff, adr_diff, label, imputed)
  feature_skips(run_id, seq, match_id, reason, detail)

Dates are stored as RFC3339 UTC text: WHERE match_date >= '2025-01-01'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func init() {
	sqlCmd.Flags().BoolVar(&sqlCSV, "csv", false, "print results as CSV instead of a table")
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if sqlCSV {
		w := csv.NewWriter(os.Stdout)
		if err := w.Write(cols); err != nil {
			return err
		}
		return w.WriteAll(rows)
	}
	if len(rows) == 0 {
		cMuted.Println("(no rows)")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	table.Header(toAny(cols)...)
	for _, row := range rows {
		table.Append(toAny(row)...)
	}
	table.Render()
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
