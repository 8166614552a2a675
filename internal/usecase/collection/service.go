package collection

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	domcol "github.com/kailas-cloud/audiodex/internal/domain/collection"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
	"github.com/kailas-cloud/audiodex/internal/logger"
)

// Info describes a collection for discovery.
type Info struct {
	Name       string
	Namespaces []string
	Documents  int
}

// Service answers discovery queries: collections, namespaces, descriptors.
type Service struct {
	registry Registry
	counter  Counter
}

// New creates a collection service. counter can be nil.
func New(registry Registry, counter Counter) *Service {
	return &Service{registry: registry, counter: counter}
}

// List returns every configured collection sorted by name.
// Document counts are best-effort: a failing count is logged and reported as -1.
func (s *Service) List(ctx context.Context) []Info {
	cols := s.registry.List()
	out := make([]Info, 0, len(cols))
	for _, c := range cols {
		out = append(out, s.info(ctx, c))
	}
	return out
}

// Get returns one collection.
func (s *Service) Get(ctx context.Context, name string) (Info, error) {
	c, err := s.registry.Get(name)
	if err != nil {
		return Info{}, fmt.Errorf("get collection: %w", err)
	}
	return s.info(ctx, c), nil
}

// Namespaces returns the id namespaces a collection accepts.
func (s *Service) Namespaces(name string) ([]string, error) {
	c, err := s.registry.Get(name)
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return append([]string(nil), c.Namespaces()...), nil
}

// Descriptors returns the searchable descriptor names.
func (s *Service) Descriptors() []string {
	out := make([]string, len(descriptor.Names))
	for i, n := range descriptor.Names {
		out[i] = string(n)
	}
	return out
}

func (s *Service) info(ctx context.Context, c domcol.Collection) Info {
	info := Info{Name: c.Name(), Namespaces: c.Namespaces(), Documents: -1}
	if s.counter == nil {
		return info
	}
	n, err := s.counter.Count(ctx, c.Name())
	if err != nil {
		logger.FromContext(ctx).Warn("Collection count failed",
			zap.String("collection", c.Name()), zap.Error(err))
		return info
	}
	info.Documents = n
	return info
}
