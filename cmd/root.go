package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-cs-forecast/internal/config"
	"github.com/pable/go-cs-forecast/internal/features"
	"github.com/pable/go-cs-forecast/internal/logging"
	"github.com/pable/go-cs-forecast/internal/storage"
)

var (
	dbPath     string
	configPath string

	// Pipeline overrides; empty or zero means "use the config value".
	flagPolicy      string
	flagWindow      int
	flagRankingMode string

	cfg    *config.Config
	logger = zap.NewNop()
)

var (
	cMuted  = color.New(color.Faint)
	cError  = color.New(color.FgRed, color.Bold)
	cWarn   = color.New(color.FgYellow)
	cHeader = color.New(color.FgCyan, color.Bold)
	cCmd    = color.New(color.FgYellow, color.Bold)
)

var rootCmd = &cobra.Command{
	Use:   "csforecast",
	Short: "CS2 match-outcome feature pipeline",
	Long: `Replay professional CS2 match history into leakage-free feature rows for
match-outcome models, and featurize upcoming matches with the same rules.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) { logger.Sync() },
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cError.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultDB := filepath.Join(mustUserHome(), ".csforecast", "forecast.db")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (env CSFORECAST_* overrides it)")
	rootCmd.PersistentFlags().StringVar(&flagPolicy, "policy", "", "missing-data policy: drop or impute")
	rootCmd.PersistentFlags().IntVar(&flagWindow, "window", 0, "rolling window size in matches")
	rootCmd.PersistentFlags().StringVar(&flagRankingMode, "ranking-mode", "", "ranking lookup: strict or nearest")

	rootCmd.AddCommand(importMatchesCmd)
	rootCmd.AddCommand(importRankingsCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(teamCmd)
	rootCmd.AddCommand(liveCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
}

// setup loads configuration, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if flagPolicy != "" {
		c.Policy = flagPolicy
	}
	if flagWindow != 0 {
		c.Window = flagWindow
	}
	if flagRankingMode != "" {
		c.RankingMode = flagRankingMode
	}
	if err := c.Validate(); err != nil {
		return err
	}
	l, err := logging.New(c.LogLevel, c.LogFormat)
	if err != nil {
		return err
	}
	cfg, logger = c, l
	return nil
}

// newPipeline builds a pipeline from the effective configuration.
func newPipeline(rec features.Recorder) (*features.Pipeline, error) {
	opts, err := cfg.PipelineOptions()
	if err != nil {
		return nil, err
	}
	return features.New(opts, logger, rec), nil
}

// openDB opens the database, creating its directory when needed.
func openDB() (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
