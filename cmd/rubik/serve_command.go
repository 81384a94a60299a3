package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/chow-chow/rubik/internal/adapters/http/api"
	service "github.com/chow-chow/rubik/internal/app"
	"github.com/chow-chow/rubik/internal/config"
	"github.com/chow-chow/rubik/pkg/logger"
	"github.com/chow-chow/rubik/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 5 * time.Minute
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var linkOnStart bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve lookups, passes and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withService(cmd, func(svc *service.Service, cfg *config.Config) error {
				return serve(cmd.Context(), svc, cfg, linkOnStart)
			})
		},
	}
	cmd.Flags().String("addr", "", "HTTP listen address")
	cmd.Flags().BoolVar(&linkOnStart, "link-on-start", false, "Run a linkage pass before serving")
	return cmd
}

func serve(ctx context.Context, svc *service.Service, cfg *config.Config, linkOnStart bool) error {
	log := logger.Get()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	if linkOnStart {
		if _, err := svc.Link(ctx); err != nil {
			return err
		}
	}

	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	api.NewServer(svc).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}

	log.Info(ctx, "server stopped")
	return nil
}

// startServiceMetricsUpdater refreshes service gauges until ctx ends.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateServiceMetrics copies the service stats onto the gauges.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()
	metrics.UpdateRosterSize(stats.RosterSize)
	metrics.UpdateWorkerCount(stats.WorkerCount)
	if stats.LastPass != nil && stats.LastPass.MatchRate != nil {
		metrics.UpdateMatchRate(*stats.LastPass.MatchRate)
	}
}
