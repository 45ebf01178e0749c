package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dropForce bool
	dropRuns  bool
	dropKind  string
)

// dropCmd deletes the forecast database, or only its feature runs.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the forecast database or its feature runs",
	Long: `Permanently delete the SQLite forecast database: imported matches, pending
matches, ranking snapshots, ingested demo references, and every saved build and
live run with its rows and skips. Re-run import-matches, import-rankings and
ingest-demo afterwards to rebuild.

With --runs, keep the history and delete only saved feature runs (all kinds, or
one kind with --kind build|live).`,
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	dropCmd.Flags().BoolVar(&dropRuns, "runs", false, "delete feature runs only")
	dropCmd.Flags().StringVar(&dropKind, "kind", "", "with --runs: only runs of this kind (build or live)")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if dropKind != "" && !dropRuns {
		return fmt.Errorf("--kind requires --runs")
	}
	target := dbPath
	if dropRuns {
		target = "feature runs in " + dbPath
		if dropKind != "" {
			target = dropKind + " runs in " + dbPath
		}
	}
	if !dropForce {
		cWarn.Fprintf(os.Stderr, "This will permanently delete: %s\n", target)
		fmt.Fprintln(os.Stderr, "Re-run with --force to confirm.")
		return nil
	}
	if dropRuns {
		return dropFeatureRuns()
	}

	if err := os.Remove(dbPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	// SQLite side files left by an unclean shutdown.
	for _, suffix := range []string{"-wal", "-shm", "-journal"} {
		if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
			cWarn.Fprintf(os.Stderr, "could not remove %s: %v\n", dbPath+suffix, err)
		}
	}
	logger.Sugar().Infow("database dropped", "path", dbPath)
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}

func dropFeatureRuns() error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.DeleteRuns(dropKind)
	if err != nil {
		return fmt.Errorf("delete runs: %w", err)
	}
	logger.Sugar().Infow("feature runs dropped", "kind", dropKind, "runs", n)
	fmt.Fprintf(os.Stdout, "Deleted %d feature runs.\n", n)
	return nil
}
