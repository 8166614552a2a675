package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/audiodex/internal/db"
)

// KV is the plain key-value view of a Store, used by the analysis cache.
type KV struct {
	s *Store
}

// KV returns the key-value view sharing this store's connection.
func (s *Store) KV() *KV { return &KV{s: s} }

// Get retrieves a value by key.
func (k *KV) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := k.s.b().Get().Key(key).Build()
	data, err := k.s.do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// SetWithTTL stores a value with an expiration. A non-positive ttl stores without expiry.
func (k *KV) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var cmd rueidis.Completed
	if ttl > 0 {
		cmd = k.s.b().Set().Key(key).Value(string(value)).Ex(ttl).Build()
	} else {
		cmd = k.s.b().Set().Key(key).Value(string(value)).Build()
	}
	if err := k.s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}
