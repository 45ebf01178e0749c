package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-forecast/internal/features"
	"github.com/pable/go-cs-forecast/internal/metrics"
	"github.com/pable/go-cs-forecast/internal/model"
	"github.com/pable/go-cs-forecast/internal/report"
	"github.com/pable/go-cs-forecast/internal/storage"
)

var (
	buildOut        string
	buildMetricsOut string
	buildParallel   bool
	buildShowSkips  bool
	buildShowRows   int
	buildNoSave     bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Replay stored matches into a training feature set",
	Long: `Replay every stored match in chronological order and emit one feature row
per match, computed only from information available before it was played.
The run is saved to the database (see 'summary' and 'show').

Example:
  csforecast build --policy impute --window 10 --out features.csv
  csforecast build --parallel --metrics-out build.prom`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildOut, "out", "", "write rows to a .csv or .json file")
	buildCmd.Flags().StringVar(&buildMetricsOut, "metrics-out", "", "write run metrics in prometheus text format")
	buildCmd.Flags().BoolVar(&buildParallel, "parallel", false, "assemble rows concurrently (same output)")
	buildCmd.Flags().BoolVar(&buildShowSkips, "show-skips", false, "list every skipped match")
	buildCmd.Flags().IntVar(&buildShowRows, "rows", 20, "print the last N rows (0 = none)")
	buildCmd.Flags().BoolVar(&buildNoSave, "no-save", false, "do not persist the run")
}

func runBuild(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	matches, err := db.ListMatches()
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	rankings, err := db.ListRankings()
	if err != nil {
		return fmt.Errorf("list rankings: %w", err)
	}
	if len(matches) == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'csforecast import-matches <file.json>' to add some.")
		return nil
	}

	rec := metrics.New(false)
	p, err := newPipeline(rec)
	if err != nil {
		return err
	}

	start := time.Now()
	var res *features.Result
	if buildParallel {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		res, err = p.RunParallel(ctx, matches, rankings, cfg.Workers)
	} else {
		res, err = p.Run(matches, rankings)
	}
	if features.IsOrderingError(err) {
		cError.Fprintf(os.Stderr, "History is inconsistent: %v\n", err)
		return fmt.Errorf("build aborted")
	}
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	rec.ObserveRun("build", time.Since(start))

	opts := p.Options()
	if !buildNoSave {
		run, err := db.SaveRun(storage.Run{
			Kind:        "build",
			Policy:      string(opts.Policy.Mode),
			Window:      opts.Window,
			RankingMode: string(opts.RankingMode),
			Sequenced:   res.Sequenced,
		}, res.Rows, res.Skipped)
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Run %s saved.\n", run.ID[:8])
	}

	fmt.Fprintf(os.Stdout, "\n%s %d matches  |  %d sequenced  |  %d rows  |  %d skipped  |  policy=%s window=%d ranking=%s\n\n",
		cHeader.Sprint("Build:"), len(matches), res.Sequenced, len(res.Rows), len(res.Skipped),
		opts.Policy.Mode, opts.Window, opts.RankingMode)

	if buildShowRows > 0 && len(res.Rows) > 0 {
		rows := res.Rows
		if len(rows) > buildShowRows {
			rows = rows[len(rows)-buildShowRows:]
			cMuted.Fprintf(os.Stdout, "(last %d of %d rows)\n", buildShowRows, len(res.Rows))
		}
		report.PrintFeatureTable(os.Stdout, rows)
		fmt.Fprintln(os.Stdout)
	}
	if len(res.Skipped) > 0 {
		if buildShowSkips {
			report.PrintSkipTable(os.Stdout, res.Skipped)
		} else {
			report.PrintSkipSummary(os.Stdout, res.Skipped)
		}
	}

	if buildOut != "" {
		if err := writeRows(buildOut, res.Rows, res.Skipped); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Wrote %d rows to %s\n", len(res.Rows), buildOut)
	}
	if buildMetricsOut != "" {
		if err := rec.WriteTextfile(buildMetricsOut); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

// writeRows writes rows as CSV or JSON depending on the file extension.
func writeRows(path string, rows []model.FeatureVector, skips []model.Skip) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = report.WriteJSON(f, rows, skips)
	default:
		err = report.WriteCSV(f, rows)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
