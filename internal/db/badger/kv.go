// Package badger is an embedded KVStore for the analysis cache.
package badger

import (
	"context"
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/kailas-cloud/audiodex/internal/db"
)

var _ db.KVStore = (*KV)(nil)

// Options configures the store.
type Options struct {
	// Dir holds the data files. Empty runs in memory.
	Dir    string
	Logger *zap.Logger
}

// KV is a db.KVStore backed by BadgerDB v4.
type KV struct {
	db *badger.DB
}

// Open opens or creates the store.
func Open(opts Options) (*KV, error) {
	bopts := badger.DefaultOptions(opts.Dir)
	if opts.Dir == "" {
		bopts = bopts.WithInMemory(true)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bopts = bopts.WithLogger(zapLogger{logger.Sugar().Named("badger")})

	bdb, err := badger.Open(bopts)
	if err != nil {
		return nil, &db.Error{Op: db.OpOpen, Err: err}
	}
	return &KV{db: bdb}, nil
}

// Get returns the value or db.ErrKeyNotFound for missing and expired keys.
func (k *KV) Get(_ context.Context, key string) ([]byte, error) {
	var val []byte
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return val, nil
}

// SetWithTTL stores value; a non-positive ttl never expires.
func (k *KV) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	err := k.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Close flushes and closes the database.
func (k *KV) Close() error {
	return k.db.Close()
}

// zapLogger routes badger's logs to zap, dropping info and debug chatter.
type zapLogger struct{ s *zap.SugaredLogger }

func (l zapLogger) Errorf(f string, v ...any)   { l.s.Errorf(f, v...) }
func (l zapLogger) Warningf(f string, v ...any) { l.s.Warnf(f, v...) }
func (zapLogger) Infof(string, ...any)          {}
func (zapLogger) Debugf(string, ...any)         {}
