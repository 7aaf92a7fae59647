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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/obsoper/internal/config"
	"github.com/kailas-cloud/obsoper/internal/db"
	dbMemory "github.com/kailas-cloud/obsoper/internal/db/memory"
	dbRedis "github.com/kailas-cloud/obsoper/internal/db/redis"
	logpkg "github.com/kailas-cloud/obsoper/internal/logger"
	"github.com/kailas-cloud/obsoper/internal/metrics"
	modelrepo "github.com/kailas-cloud/obsoper/internal/repository/model"
	"github.com/kailas-cloud/obsoper/internal/search"
	chiTransport "github.com/kailas-cloud/obsoper/internal/transport/chi"
	healthuc "github.com/kailas-cloud/obsoper/internal/usecase/health"
	interpuc "github.com/kailas-cloud/obsoper/internal/usecase/interpolation"
	"github.com/kailas-cloud/obsoper/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting obsoper API server",
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := newStore(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterHTTPMetrics()
	metrics.RegisterInterpolationMetrics()

	codec, err := modelrepo.NewCodec()
	if err != nil {
		logger.Fatal("Failed to create grid codec", zap.Error(err))
	}
	defer codec.Close()
	repo := modelrepo.New(store, codec, cfg.Storage.KeyPrefix)

	searchOpts, err := searchOptions(cfg.Search)
	if err != nil {
		logger.Fatal("Invalid search configuration", zap.Error(err))
	}
	interpSvc, err := interpuc.New(repo,
		interpuc.WithSearchOptions(searchOpts...),
		interpuc.WithCacheSize(cfg.Cache.Grids),
		interpuc.WithLogger(logger.Named("search")),
		interpuc.WithMetrics(interpuc.Metrics{
			Searches:       metrics.SearchRequestsTotal,
			SearchDuration: metrics.SearchDuration,
			Observations:   metrics.ObservationsTotal,
			Cache:          metrics.SearchCacheTotal,
		}),
	)
	if err != nil {
		logger.Fatal("Failed to create interpolation service", zap.Error(err))
	}
	healthSvc := healthuc.New(store, interpSvc)

	server := chiTransport.NewServer(interpSvc, healthSvc, logger,
		chiTransport.WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes))

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.RequestLogger(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func newStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("redis store: %w", err)
		}
		return s, nil
	case "memory":
		return dbMemory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func searchOptions(cfg config.SearchConfig) ([]search.Option, error) {
	cell, ok := search.NewCellTest(cfg.Cell)
	if !ok {
		return nil, fmt.Errorf("unknown cell test %q", cfg.Cell)
	}
	return []search.Option{
		search.WithCellTest(cell),
		search.WithNeighbours(cfg.Neighbours),
		search.WithMaxSteps(cfg.WalkMaxSteps),
		search.WithWorkers(cfg.Workers),
		search.WithBatchSize(cfg.BatchSize),
	}, nil
}
