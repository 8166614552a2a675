package main

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
	"go.uber.org/zap"

	"github.com/kailas-cloud/audiodex/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/audiodex/internal/logger"
	chiTransport "github.com/kailas-cloud/audiodex/internal/transport/chi"
	collectionuc "github.com/kailas-cloud/audiodex/internal/usecase/collection"
	healthuc "github.com/kailas-cloud/audiodex/internal/usecase/health"
	"github.com/kailas-cloud/audiodex/internal/version"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
}

func runServe(ctx context.Context, flags *globalFlags) error {
	cfg, err := flags.loadConfig()
	if err != nil {
		return err
	}

	logger, err := logpkg.NewLogger(flags.env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting audiodex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", flags.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("collections", cfg.CollectionNames()),
	)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	analyzer, analysisHealth, err := a.analyzer()
	if err != nil {
		return err
	}
	batch, err := a.batch()
	if err != nil {
		return err
	}

	server := chiTransport.NewServer(chiTransport.Services{
		Collections: collectionuc.New(a.registry, a.repo),
		Documents:   a.documents(),
		Search:      a.search(analyzer),
		Batch:       batch,
		Health:      healthuc.New(a.store, analysisHealth),
	}, chiTransport.Config{
		Paging:        request.Paging{DefaultLimit: cfg.Search.DefaultLimit, MaxLimit: cfg.Search.MaxLimit},
		MaxAudioBytes: cfg.HTTP.MaxAudioBytes,
		APIKeys:       cfg.Auth.APIKeys,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Handler(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
