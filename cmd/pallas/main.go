package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/XavierBriggs/Pallas/adapters/leagueapi"
	"github.com/XavierBriggs/Pallas/internal/api"
	"github.com/XavierBriggs/Pallas/internal/cache"
	"github.com/XavierBriggs/Pallas/internal/config"
	"github.com/XavierBriggs/Pallas/internal/league"
	"github.com/XavierBriggs/Pallas/internal/logging"
	"github.com/XavierBriggs/Pallas/internal/registry"
	"github.com/XavierBriggs/Pallas/internal/scheduler"
	"github.com/XavierBriggs/Pallas/internal/writer"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(getEnv("PALLAS_CONFIG", "config.yaml"))
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Printf("failed to configure logging: %v\n", err)
		os.Exit(1)
	}

	opts := scheduler.Options{Schedules: make(map[string]string), Logger: logger}
	var archive *writer.Writer

	// Redis is optional: without it there is no change detection or warm start
	var redisClient *redis.Client
	var fixtureCache *cache.Cache
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Fatal("failed to connect to Redis")
		}
		fixtureCache = cache.NewCache(redisClient, cfg.Redis.CacheTTL)
		opts.Cache = fixtureCache
		logger.Info("✓ Connected to Redis")
	}

	// Postgres is optional: without it fixture changes are not archived
	if cfg.Postgres.DSN != "" {
		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			logger.WithError(err).Fatal("failed to open Postgres")
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			logger.WithError(err).Fatal("failed to ping Postgres")
		}

		archive = writer.NewWriter(db, redisClient, logger)
		if err := archive.Migrate(ctx); err != nil {
			logger.WithError(err).Fatal("failed to migrate fixture archive")
		}
		opts.Archive = archive
		logger.Info("✓ Connected to Postgres")
	}

	competitions := registry.NewCompetitionRegistry()
	for _, comp := range cfg.Competitions {
		client := leagueapi.NewClient(leagueapi.Config{
			BaseURL:     comp.BaseURL,
			StepTimeout: comp.StepTimeout,
			Logger:      logger,
		})

		svc := league.NewService(client, league.Options{
			Key:         comp.Key,
			DisplayName: comp.DisplayName,
			Locale:      comp.LocaleTag(),
			Logger:      logger,
		})

		if fixtureCache != nil {
			warmStart(ctx, fixtureCache, svc, logger)
		}

		if err := competitions.Register(svc); err != nil {
			logger.WithError(err).Fatal("failed to register competition")
		}
		opts.Schedules[comp.Key] = comp.Refresh

		logger.WithFields(logrus.Fields{
			"competition": comp.Key,
			"base_url":    client.BaseURL(),
			"refresh":     comp.Refresh,
			"locale":      comp.Locale,
		}).Info("✓ Registered competition")
	}

	sched := scheduler.NewScheduler(competitions, opts)
	if err := sched.Start(ctx); err != nil {
		logger.WithError(err).Fatal("failed to start scheduler")
	}

	handler := api.NewHandler(competitions, sched, logger)
	if archive != nil {
		handler.WithArchive(archive)
	}

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	logger.WithField("addr", cfg.HTTP.Addr).Infof("✓ Pallas started - serving %d competition(s)", competitions.Count())

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.Info("✓ Shutting down gracefully...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown")
	}

	cancel()
	sched.Stop()

	select {
	case <-shutdownCtx.Done():
		logger.Error("✗ Shutdown timeout exceeded")
		os.Exit(1)
	default:
		logger.Info("✓ Pallas stopped")
	}
}

// warmStart seeds a competition from its last cached snapshot so fixtures
// and standings are served before the first fetch completes
func warmStart(ctx context.Context, c *cache.Cache, svc *league.Service, logger *logrus.Logger) {
	matches, ok, err := c.LoadSnapshot(ctx, svc.Key())
	switch {
	case err != nil:
		logger.WithError(err).WithField("competition", svc.Key()).Warn("failed to load fixture snapshot")
	case ok:
		svc.SetFixtures(matches)
		logger.WithFields(logrus.Fields{
			"competition": svc.Key(),
			"matches":     len(matches),
		}).Info("✓ Restored fixtures from snapshot")
	}
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
