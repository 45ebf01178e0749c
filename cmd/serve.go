package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-forecast/internal/metrics"
	"github.com/pable/go-cs-forecast/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve live features over HTTP",
	Long: `Start an HTTP server that featurizes upcoming matches on request.

  GET  /v1/features/live?team_a=..&team_b=..&date=..&tournament_type=..&best_of=..
  GET  /v1/teams/{team}/window?at=..
  GET  /v1/teams/{team}/h2h/{opponent}?at=..
  POST /v1/reload         reload history from the database
  GET  /healthz, /metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: config addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rec := metrics.New(true)
	p, err := newPipeline(rec)
	if err != nil {
		return err
	}
	h, err := server.New(server.Config{
		Pipeline: p,
		Source:   db,
		Metrics:  rec,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Sugar().Infow("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
