package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giygas/rxu-api/config"
	"github.com/giygas/rxu-api/data"
	"github.com/giygas/rxu-api/drugparser"
	"github.com/giygas/rxu-api/handlers"
	"github.com/giygas/rxu-api/health"
	"github.com/giygas/rxu-api/logging"
	"github.com/giygas/rxu-api/query"
	"github.com/giygas/rxu-api/resolver"
	"github.com/giygas/rxu-api/scheduler"
	"github.com/giygas/rxu-api/sentiment"
	"github.com/giygas/rxu-api/server"
	"github.com/giygas/rxu-api/storage"
	"github.com/giygas/rxu-api/validation"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "rxu:"

// application holds the wired components of the service
type application struct {
	container *data.DataContainer
	store     *storage.Store
	facade    *query.Facade
	scheduler *scheduler.Scheduler
	server    *server.Server
	redis     *redis.Client
}

// newApplication wires every component from the configuration. Nothing is
// started and the catalog is not loaded yet.
func newApplication(cfg *config.Config) (*application, error) {
	app := &application{container: data.NewDataContainer()}
	app.container.SetServerStartTime(time.Now())

	var tiers []storage.Tier
	if cfg.RedisURL != "" {
		client, err := storage.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		app.redis = client
		tiers = append(tiers, storage.NewRedisTier(client, redisKeyPrefix, cfg.RemoteTimeout))
	}
	if cfg.ObjectStoreURL != "" {
		tiers = append(tiers, storage.NewHTTPTier(cfg.ObjectStoreURL, cfg.RemoteTimeout))
	}
	local := storage.NewFileTier(cfg.SentimentDataDir)
	tiers = append(tiers, local)

	app.store = storage.New(storage.NewMemoryCache(cfg.CacheTTL), tiers...)
	logging.Info("Sentiment store configured", "tiers", app.store.TierNames(), "cache_ttl", cfg.CacheTTL.String())

	sentimentService := sentiment.NewService(app.store, local)
	app.facade = query.New(app.container, sentimentService, resolver.Options{
		Threshold:  cfg.FuzzyThreshold,
		FuzzyLimit: cfg.FuzzyLimit,
	}, cfg.SearchLimit)

	httpHandler := handlers.NewHTTPHandler(
		app.facade,
		validation.NewInputValidator(),
		health.NewHealthChecker(app.container, app.store),
	)

	app.scheduler = scheduler.NewScheduler(
		app.container,
		drugparser.NewCatalogParser(cfg.CatalogPath),
		app.store,
		scheduler.Options{ReloadAt: cfg.CatalogReloadAt, SweepEvery: cfg.CacheSweepInterval},
	)
	app.server = server.NewServer(cfg, httpHandler)

	return app, nil
}

// shutdown stops the server and the scheduler and releases the clients
func (a *application) shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	a.scheduler.Stop()
	return errors.Join(err, a.close())
}

func (a *application) close() error {
	if a.redis == nil {
		return nil
	}
	if err := a.redis.Close(); err != nil {
		logging.Warn("Failed to close redis client", "error", err)
		return err
	}
	return nil
}
