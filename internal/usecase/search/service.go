package search

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/audiodex/internal/domain"
	"github.com/kailas-cloud/audiodex/internal/domain/criteria"
	"github.com/kailas-cloud/audiodex/internal/domain/search/mode"
	"github.com/kailas-cloud/audiodex/internal/domain/search/request"
	"github.com/kailas-cloud/audiodex/internal/domain/search/result"
	"github.com/kailas-cloud/audiodex/internal/logger"
	"github.com/kailas-cloud/audiodex/internal/pipeline"
	"github.com/kailas-cloud/audiodex/internal/projector"
)

// Service compiles descriptor criteria into store pipelines and shapes the results.
type Service struct {
	repo     Repository
	colls    CollectionReader
	resolver Resolver
	results  ResultObserver
}

// New creates a search service. resolver can be nil when no analysis service is configured;
// results can be nil.
func New(repo Repository, colls CollectionReader, resolver Resolver, results ResultObserver) *Service {
	return &Service{repo: repo, colls: colls, resolver: resolver, results: results}
}

// Search runs one request: resolve (audio mode), parse, compile, execute, project.
// No partial results: any failure aborts the request.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Row, error) {
	plan, err := s.Plan(ctx, req)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.Execute(ctx, req.Collection(), plan.Stages)
	if err != nil {
		return nil, fmt.Errorf("execute plan: %w", err)
	}

	out := projector.Project(rows, plan.Projection)
	if s.results != nil {
		s.results.Observe(float64(len(out)))
	}

	logger.FromContext(ctx).Debug("Search completed",
		zap.String("collection", req.Collection()),
		zap.String("mode", string(req.Mode())),
		zap.Int("stages", len(plan.Stages)),
		zap.Int("results", len(out)),
	)
	return out, nil
}

// Plan compiles a request without executing it. In example mode it calls the analysis service.
func (s *Service) Plan(ctx context.Context, req *request.Request) (pipeline.Plan, error) {
	col, err := s.colls.Get(req.Collection())
	if err != nil {
		return pipeline.Plan{}, fmt.Errorf("get collection: %w", err)
	}

	prefixes, err := col.IDPrefixes(req.Namespaces())
	if err != nil {
		return pipeline.Plan{}, err
	}

	params := req.Params()
	if req.Mode() == mode.Example {
		if s.resolver == nil {
			return pipeline.Plan{}, &domain.UpstreamError{
				Status:  http.StatusServiceUnavailable,
				Message: "query-by-example is not configured",
			}
		}
		params, err = s.resolver.Resolve(ctx, req.Audio(), params)
		if err != nil {
			return pipeline.Plan{}, fmt.Errorf("resolve example: %w", err)
		}
	}

	set, err := criteria.ParseParams(params)
	if err != nil {
		return pipeline.Plan{}, err
	}

	plan, err := pipeline.Compile(pipeline.Input{
		Criteria:   set,
		IDPrefixes: prefixes,
		Offset:     req.Offset(),
		Limit:      req.Limit(),
	})
	if err != nil {
		return pipeline.Plan{}, fmt.Errorf("compile: %w", err)
	}
	return plan, nil
}
