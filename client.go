// Package audiodex embeds the descriptor search engine in a Go program.
//
// A Client talks to the descriptor store directly, without the HTTP API:
//
//	c, err := audiodex.New(audiodex.WithMongo("mongodb://localhost:27017", "audiodex"))
//	if err != nil { ... }
//	defer c.Close()
//
//	rows, err := c.Search("deezer").Tempo("120-5%").Key("Aminor").Limit(10).Do(ctx)
package audiodex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/audiodex/internal/config"
	"github.com/kailas-cloud/audiodex/internal/db"
	dbMemory "github.com/kailas-cloud/audiodex/internal/db/memory"
	dbMongo "github.com/kailas-cloud/audiodex/internal/db/mongo"
	dbRedis "github.com/kailas-cloud/audiodex/internal/db/redis"
	dbSqlite "github.com/kailas-cloud/audiodex/internal/db/sqlite"
	domcol "github.com/kailas-cloud/audiodex/internal/domain/collection"
	descrepo "github.com/kailas-cloud/audiodex/internal/repository/descriptor"
	batchuc "github.com/kailas-cloud/audiodex/internal/usecase/batch"
	collectionuc "github.com/kailas-cloud/audiodex/internal/usecase/collection"
	documentuc "github.com/kailas-cloud/audiodex/internal/usecase/document"
	searchuc "github.com/kailas-cloud/audiodex/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultBatchWorkers     = 4
)

// Client is the audiodex SDK entry point.
type Client struct {
	store     db.DescriptorStore
	collSvc   *collectionuc.Service
	docSvc    *documentuc.Service
	searchSvc *searchuc.Service
	batchSvc  *batchuc.Service
}

// New creates a Client, connects to the store and prepares every registered collection.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.driver == "" {
		return nil, errors.New("audiodex: store required (use WithMongo, WithRedis, WithValkey, WithSQLite or WithMemory)")
	}
	if cfg.collections == nil {
		cfg.collections = config.DefaultCollections()
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultReadinessTimeout)
	defer cancel()

	store, err := createStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("audiodex: database not ready: %w", err)
	}

	c, err := wireClient(ctx, store, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func createStore(ctx context.Context, cfg *clientConfig) (db.DescriptorStore, error) {
	switch cfg.driver {
	case "mongo":
		s, err := dbMongo.NewStore(ctx, dbMongo.Config{URI: cfg.uri, Database: cfg.database})
		if err != nil {
			return nil, fmt.Errorf("audiodex: create mongo store: %w", err)
		}
		return s, nil
	case "redis", "valkey":
		s, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.addrs, Password: cfg.password})
		if err != nil {
			return nil, fmt.Errorf("audiodex: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	case "sqlite":
		s, err := dbSqlite.NewStore(cfg.path)
		if err != nil {
			return nil, fmt.Errorf("audiodex: create sqlite store: %w", err)
		}
		return s, nil
	case "memory":
		return dbMemory.NewStore(), nil
	default:
		return nil, fmt.Errorf("audiodex: unknown driver %q", cfg.driver)
	}
}

func wireClient(ctx context.Context, store db.DescriptorStore, cfg *clientConfig) (*Client, error) {
	registry, err := domcol.NewRegistry(cfg.collections)
	if err != nil {
		return nil, fmt.Errorf("audiodex: %w", err)
	}

	repo := descrepo.New(store, cfg.driver, nil)
	if err := repo.EnsureCollections(ctx, registryNames(registry)); err != nil {
		return nil, fmt.Errorf("audiodex: %w", err)
	}

	docSvc := documentuc.New(repo, registry)

	workers := cfg.batchWorkers
	if workers <= 0 {
		workers = defaultBatchWorkers
	}
	batchSvc, err := batchuc.New(docSvc, workers)
	if err != nil {
		return nil, fmt.Errorf("audiodex: %w", err)
	}
	if cfg.maxBatchSize > 0 {
		batchSvc = batchSvc.WithMaxBatchSize(cfg.maxBatchSize)
	}

	return &Client{
		store:     store,
		collSvc:   collectionuc.New(registry, repo),
		docSvc:    docSvc,
		searchSvc: searchuc.New(repo, registry, nil, nil),
		batchSvc:  batchSvc,
	}, nil
}

func registryNames(r *domcol.Registry) []string {
	cols := r.List()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name()
	}
	return names
}

// Close releases all resources.
func (c *Client) Close() {
	if c.batchSvc != nil {
		c.batchSvc.Release()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Collections lists the registered collections with their document counts.
func (c *Client) Collections(ctx context.Context) []CollectionInfo {
	return c.collSvc.List(ctx)
}

// Documents returns the document service for a given collection.
func (c *Client) Documents(collection string) *DocumentService {
	return &DocumentService{
		collection: collection,
		docSvc:     c.docSvc,
		batchSvc:   c.batchSvc,
	}
}

// Search starts a search against a given collection.
func (c *Client) Search(collection string) *SearchBuilder {
	return &SearchBuilder{
		svc:        &SearchService{collection: collection, svc: c.searchSvc},
		params:     make(map[string]string),
		collection: collection,
	}
}
