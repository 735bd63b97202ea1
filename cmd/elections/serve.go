package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/banshee-data/election.report/internal/api"
	"github.com/banshee-data/election.report/internal/charts"
	"github.com/banshee-data/election.report/internal/config"
	"github.com/banshee-data/election.report/internal/db"
	"github.com/banshee-data/election.report/internal/monitoring"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = &listen
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides config)")
	return cmd
}

// newHandler loads the stored dataset and builds the logged HTTP handler.
func newHandler(ctx context.Context, cfg *config.Config, database *db.DB) (http.Handler, error) {
	snap, err := database.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset (run 'elections import' first): %w", err)
	}
	monitoring.RecordDataset(snap.Len(), len(snap.Allocations()))
	first, last := snap.YearRange()
	log.Printf("loaded %d result rows for %d-%d and %d states", snap.Len(), first, last, len(snap.Allocations()))

	server, err := api.NewServer(snap, database, api.Options{
		RankingSize:   cfg.GetRankingSize(),
		DefaultScheme: cfg.GetDefaultScheme(),
		SessionLimit:  cfg.GetSessionLimit(),
		HistogramBins: cfg.GetHistogramBins(),
		Charts:        charts.Renderer{AssetsHost: cfg.GetAssetsHost()},
	})
	if err != nil {
		return nil, err
	}
	return api.LoggingMiddleware(server.ServeMux()), nil
}

func runServe(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := openDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	handler, err := newHandler(ctx, cfg, database)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	server := &http.Server{
		Addr:    cfg.GetListen(),
		Handler: handler,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	log.Printf("Graceful shutdown complete")
	return nil
}
