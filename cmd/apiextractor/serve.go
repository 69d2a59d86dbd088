package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/raysh454/apiextract/internal/app"
	"github.com/raysh454/apiextract/internal/logging"
	"github.com/raysh454/apiextract/internal/server"
)

const shutdownTimeout = 10 * time.Second

func getCmdServe(gs *globalState) *cobra.Command {
	var listenAddr string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API.

  GET /extract-urls captures the configured base URL and returns the API URLs
  it calls. Background crawl jobs, capture history and metrics are served too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gs.loadConfig()
			if err != nil {
				return err
			}
			if listenAddr != "" {
				cfg.ListenAddr = listenAddr
			}
			logger, err := gs.logger(cfg, "apiextractor")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			return serve(cmd.Context(), cfg, logger)
		},
	}
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "listen address, overrides LISTEN_ADDR")
	return serveCmd
}

func serve(ctx context.Context, cfg *app.Config, logger logging.Logger) error {
	orch, err := app.Build(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := orch.Close(); err != nil {
			logger.Warn("closing orchestrator", logging.Field{Key: "error", Value: err.Error()})
		}
	}()

	srv := server.NewServer(server.Config{ListenAddr: cfg.ListenAddr, Logger: logger}, orch)
	httpServer := srv.HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			logging.Field{Key: "addr", Value: cfg.ListenAddr},
			logging.Field{Key: "base_url", Value: cfg.BaseURL})
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
