// Package db defines the storage contracts behind descriptor search and the
// backend-neutral helpers shared by the drivers under it.
package db

import (
	"context"
	"time"

	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
	"github.com/kailas-cloud/audiodex/internal/pipeline"
)

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Executor runs a compiled stage pipeline over one collection.
type Executor interface {
	Execute(ctx context.Context, collection string, stages []pipeline.Stage) ([]pipeline.Row, error)
}

// DocumentStore reads and writes descriptor documents.
// Get returns ErrKeyNotFound when the document does not exist.
type DocumentStore interface {
	Upsert(ctx context.Context, collection string, doc descriptor.Document) error
	Get(ctx context.Context, collection, id string) (descriptor.Document, error)
	Count(ctx context.Context, collection string) (int, error)
}

// DescriptorStore is the full descriptor backend: documents, plan execution and lifecycle.
type DescriptorStore interface {
	Pinger
	Executor
	DocumentStore

	// EnsureCollection prepares backend structures for a collection. Idempotent.
	EnsureCollection(ctx context.Context, collection string) error
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()
}

// KVStore is a byte-oriented key-value store with expiry, used for caches.
// Get returns ErrKeyNotFound for missing or expired keys.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// WaitForReady polls p until it answers or timeout expires.
func WaitForReady(ctx context.Context, p Pinger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := p.Ping(ctx); err == nil {
		return nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return &Error{Op: OpWaitReady, Err: ctx.Err()}
		case <-ticker.C:
			if err := p.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}
