package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/audiodex/internal/domain"
	dombatch "github.com/kailas-cloud/audiodex/internal/domain/batch"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
	"github.com/kailas-cloud/audiodex/internal/logger"
)

// MaxBatchSize is the default maximum number of items per batch request.
const MaxBatchSize = 100

// Service upserts documents concurrently with per-item error reporting.
type Service struct {
	docs         DocumentUpserter
	pool         *ants.Pool
	maxBatchSize int
}

// New creates a batch service backed by a worker pool of the given size.
func New(docs DocumentUpserter, workers int) (*Service, error) {
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &Service{docs: docs, pool: pool, maxBatchSize: MaxBatchSize}, nil
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// Release stops the worker pool.
func (s *Service) Release() {
	s.pool.Release()
}

// Upsert stores documents in parallel. Results keep the input order;
// one item's failure never affects another.
func (s *Service) Upsert(ctx context.Context, collection string, items []descriptor.Document) []dombatch.Result {
	results := make([]dombatch.Result, len(items))

	if len(items) > s.maxBatchSize {
		err := domain.NewValidationError("batch size %d exceeds %d", len(items), s.maxBatchSize)
		for i := range items {
			results[i] = dombatch.NewError(items[i].ID, err)
		}
		return results
	}

	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			results[i] = s.upsertOne(ctx, collection, &items[i])
		})
		if err != nil {
			wg.Done()
			results[i] = dombatch.NewError(items[i].ID, fmt.Errorf("submit: %w", err))
		}
	}
	wg.Wait()

	summary := dombatch.Summarize(results)
	logger.FromContext(ctx).Info("Batch upsert finished",
		zap.String("collection", collection),
		zap.Int("succeeded", summary.OK),
		zap.Int("failed", summary.Failed),
	)
	return results
}

func (s *Service) upsertOne(ctx context.Context, collection string, doc *descriptor.Document) dombatch.Result {
	if err := ctx.Err(); err != nil {
		return dombatch.NewError(doc.ID, err)
	}
	if err := s.docs.Upsert(ctx, collection, doc); err != nil {
		return dombatch.NewError(doc.ID, err)
	}
	return dombatch.NewOK(doc.ID)
}
