package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/audiodex/internal/config"
	"github.com/kailas-cloud/audiodex/internal/db"
	dbBadger "github.com/kailas-cloud/audiodex/internal/db/badger"
	dbMemory "github.com/kailas-cloud/audiodex/internal/db/memory"
	dbMongo "github.com/kailas-cloud/audiodex/internal/db/mongo"
	dbRedis "github.com/kailas-cloud/audiodex/internal/db/redis"
	dbSqlite "github.com/kailas-cloud/audiodex/internal/db/sqlite"
	"github.com/kailas-cloud/audiodex/internal/domain"
	domcol "github.com/kailas-cloud/audiodex/internal/domain/collection"
	"github.com/kailas-cloud/audiodex/internal/metrics"
	"github.com/kailas-cloud/audiodex/internal/repository/analysiscache"
	descrepo "github.com/kailas-cloud/audiodex/internal/repository/descriptor"
	"github.com/kailas-cloud/audiodex/internal/resolver"
	analysisTransport "github.com/kailas-cloud/audiodex/internal/transport/analysis"
	analysisuc "github.com/kailas-cloud/audiodex/internal/usecase/analysis"
	batchuc "github.com/kailas-cloud/audiodex/internal/usecase/batch"
	documentuc "github.com/kailas-cloud/audiodex/internal/usecase/document"
	searchuc "github.com/kailas-cloud/audiodex/internal/usecase/search"
)

// app holds the shared handles built once per process.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	store    db.DescriptorStore
	registry *domcol.Registry
	repo     *descrepo.Repo
	closers  []func()
}

// newApp opens the descriptor store, waits for it and prepares every configured collection.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	metrics.RegisterDomainMetrics()

	registry, err := domcol.NewRegistry(cfg.Collections)
	if err != nil {
		return nil, fmt.Errorf("collections: %w", err)
	}

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Database.Driver, err)
	}
	a := &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		registry: registry,
		closers:  []func(){store.Close},
	}

	timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		a.close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

	a.repo = descrepo.New(store, cfg.Database.Driver, metrics.StoreExecuteDuration)
	if err := a.repo.EnsureCollections(ctx, cfg.CollectionNames()); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (db.DescriptorStore, error) {
	switch cfg.Driver {
	case "mongo":
		return dbMongo.NewStore(ctx, dbMongo.Config{URI: cfg.URI, Database: cfg.Name})
	case "redis", "valkey":
		return dbRedis.NewStore(dbRedis.Config{
			Addrs:     cfg.Addrs,
			Password:  cfg.Password,
			KeyPrefix: cfg.KeyPrefix,
		})
	case "sqlite":
		return dbSqlite.NewStore(cfg.Path)
	case "memory":
		return dbMemory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// close releases handles in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) documents() *documentuc.Service {
	return documentuc.New(a.repo, a.registry)
}

func (a *app) batch() (*batchuc.Service, error) {
	svc, err := batchuc.New(a.documents(), a.cfg.Index.BatchWorkers)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, svc.Release)
	return svc.WithMaxBatchSize(a.cfg.Index.MaxBatchSize), nil
}

// search builds the search service. Query-by-example is enabled when an analysis service is configured.
func (a *app) search(analyzer domain.Analyzer) *searchuc.Service {
	var res searchuc.Resolver
	if analyzer != nil {
		res = resolver.New(analyzer)
	}
	return searchuc.New(a.repo, a.registry, res, metrics.SearchResults)
}

// analyzer assembles the decorator chain: HTTP client -> cache -> rate limit + logging.
// It returns nils when no analysis service is configured.
func (a *app) analyzer() (domain.Analyzer, domain.HealthChecker, error) {
	acfg := a.cfg.Analysis
	if acfg.BaseURL == "" {
		a.logger.Info("No analysis service configured, query-by-example disabled")
		return nil, nil, nil
	}

	client := analysisTransport.NewClient(&analysisTransport.Config{
		BaseURL: acfg.BaseURL,
		Timeout: time.Duration(acfg.TimeoutSec) * time.Second,
		Logger:  a.logger,
	})

	var analyzer domain.Analyzer = client
	kv, err := a.cacheStore()
	if err != nil {
		return nil, nil, err
	}
	if kv != nil {
		ttl := time.Duration(acfg.Cache.TTLSec) * time.Second
		analyzer = analysiscache.New(client, kv, ttl, metrics.AnalysisCacheTotal, a.logger)
	}

	var limiter analysisuc.Limiter
	if acfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(acfg.RateLimit), acfg.Burst)
	}
	analyzer = analysisuc.NewInstrumentedAnalyzer(analyzer, limiter, a.logger)

	a.logger.Info("Analysis service configured",
		zap.String("base_url", acfg.BaseURL),
		zap.String("cache", acfg.Cache.Driver),
		zap.Float64("rate_limit", acfg.RateLimit),
	)
	return analyzer, client, nil
}

// cacheStore opens the analysis cache backend, or returns nil when caching is off.
func (a *app) cacheStore() (db.KVStore, error) {
	switch a.cfg.Analysis.Cache.Driver {
	case "redis":
		rs, ok := a.store.(*dbRedis.Store)
		if !ok {
			return nil, fmt.Errorf("redis analysis cache requires a redis or valkey database, got %q",
				a.cfg.Database.Driver)
		}
		return rs.KV(), nil
	case "badger":
		kv, err := dbBadger.Open(dbBadger.Options{Dir: a.cfg.Analysis.Cache.Path, Logger: a.logger})
		if err != nil {
			return nil, fmt.Errorf("open badger cache: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := kv.Close(); err != nil {
				a.logger.Warn("Failed to close badger cache", zap.Error(err))
			}
		})
		return kv, nil
	default:
		return nil, nil
	}
}
