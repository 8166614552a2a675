package analysiscache

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/audiodex/internal/db"
	"github.com/kailas-cloud/audiodex/internal/domain"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
)

type mockAnalyzer struct {
	result domain.Analysis
	err    error
	calls  int
	names  [][]descriptor.Name
}

func (m *mockAnalyzer) Analyze(_ context.Context, _ []byte, names []descriptor.Name) (domain.Analysis, error) {
	m.calls++
	m.names = append(m.names, names)
	return m.result, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

// mapKVStore is an in-memory KV honouring the consumer interface.
type mapKVStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapKVStore() *mapKVStore { return &mapKVStore{data: make(map[string][]byte)} }

func (m *mapKVStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mapKVStore) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func newTestCachedAnalyzer(t *testing.T, inner *mockAnalyzer, s store) *CachedAnalyzer {
	t.Helper()
	return New(inner, s, time.Hour, nil, zap.NewNop())
}
