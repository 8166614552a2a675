package audiodex

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/audiodex/internal/domain/search/request"
	searchuc "github.com/kailas-cloud/audiodex/internal/usecase/search"
)

// SearchService executes criteria searches against a single collection.
type SearchService struct {
	collection string
	svc        *searchuc.Service
}

// SearchOptions configures a search query.
type SearchOptions struct {
	Namespaces []string
	Limit      int
	Offset     int
}

// Query runs a search. params maps descriptor names to criterion text,
// e.g. {"tempo": "120-5%", "global-key": "Aminor"}. A zero Limit takes the default page size.
func (s *SearchService) Query(ctx context.Context, params map[string]string, opts *SearchOptions) ([]Row, error) {
	req, err := s.request(params, opts)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	rows, err := s.svc.Search(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return rows, nil
}

// Explain returns the compiled stage list for a query without running it.
func (s *SearchService) Explain(ctx context.Context, params map[string]string, opts *SearchOptions) (string, error) {
	req, err := s.request(params, opts)
	if err != nil {
		return "", fmt.Errorf("explain: %w", err)
	}
	plan, err := s.svc.Plan(ctx, &req)
	if err != nil {
		return "", fmt.Errorf("explain: %w", err)
	}
	return plan.String(), nil
}

func (s *SearchService) request(params map[string]string, opts *SearchOptions) (request.Request, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}
	return request.New(
		s.collection, params, strings.Join(opts.Namespaces, ","),
		opts.Offset, opts.Limit, nil, request.DefaultPaging(),
	)
}
