// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jasondaming/bobail-solver/internal/metrics"
	"github.com/jasondaming/bobail-solver/internal/obslog"
)

var storeTracer = otel.Tracer("bobail-solver.store")

// BadgerConfig configures a BadgerStore, mirroring the shape of the
// teacher's storage/badger.Config.
type BadgerConfig struct {
	// Path is the directory for BadgerDB files. Required unless
	// InMemory is set.
	Path string
	// InMemory runs Badger with no disk persistence.
	InMemory bool
	// SyncWrites enables fsync on every commit. The engine defaults
	// this to false during bulk phases and relies on periodic
	// metadata checkpoints for crash safety instead, trading a bounded
	// amount of replay work for throughput.
	SyncWrites bool
	// Logger receives BadgerDB's internal log output.
	Logger *obslog.Logger
	// GCInterval is how often value-log GC runs. Zero disables it.
	GCInterval time.Duration
	// GCDiscardRatio is the minimum garbage ratio that triggers GC.
	GCDiscardRatio float64
}

// DefaultBadgerConfig returns production defaults: synchronous writes
// off (the engine's own checkpoints provide crash safety), GC every 5
// minutes once 50% of the value log is reclaimable.
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{
		Path:           path,
		SyncWrites:     false,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryBadgerConfig returns a configuration suitable for tests that
// still want to exercise the real Badger code path (as opposed to
// MemStore, which exercises none of it).
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

// badgerLogger adapts an *obslog.Logger to badger.Logger.
type badgerLogger struct{ l *obslog.Logger }

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error(fmt.Sprintf(format, args...))
}
func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn(fmt.Sprintf(format, args...))
}
func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Info(fmt.Sprintf(format, args...))
}
func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debug(fmt.Sprintf(format, args...))
}

// BadgerStore is the persistent Store implementation the solver uses
// outside of tests. Column families are modeled as a one-byte key
// prefix within Badger's single keyspace.
type BadgerStore struct {
	db       *badger.DB
	gcStop   chan struct{}
	gcDone   chan struct{}
	inMemory bool
}

// OpenBadgerStore opens (creating if necessary) a BadgerDB-backed
// Store per cfg.
func OpenBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("store: path is required for a persistent BadgerStore")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("store: create data directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(badgerLogger{l: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open badger database: %w", err)
	}

	s := &BadgerStore{db: db, inMemory: cfg.InMemory}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.gcStop = make(chan struct{})
		s.gcDone = make(chan struct{})
		go s.runGC(cfg.GCInterval, cfg.GCDiscardRatio, cfg.Logger)
	}
	return s, nil
}

func (s *BadgerStore) runGC(interval time.Duration, ratio float64, logger *obslog.Logger) {
	defer close(s.gcDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.gcStop:
			return
		case <-ticker.C:
			err := s.db.RunValueLogGC(ratio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) && logger != nil {
				logger.Warn("value log GC error", "error", err)
			}
		}
	}
}

func prefixedKey(cf ColumnFamily, key []byte) []byte {
	out := make([]byte, 1+len(key))
	out[0] = byte(cf)
	copy(out[1:], key)
	return out
}

// Get implements Store.
func (s *BadgerStore) Get(ctx context.Context, cf ColumnFamily, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(prefixedKey(cf, key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// MultiGet implements Store. Badger has no native multi-key batched
// read, so this issues one point Get per key inside a single
// read-only transaction, which still avoids the transaction-open
// overhead of N separate calls and is the batched-lookup contract the
// registry and Phase 4's 17-way multiget depend on.
func (s *BadgerStore) MultiGet(ctx context.Context, cf ColumnFamily, keys [][]byte) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]byte, len(keys))
	err := s.db.View(func(txn *badger.Txn) error {
		for i, key := range keys {
			item, err := txn.Get(prefixedKey(cf, key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out[i] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// NewIterator implements Store.
func (s *BadgerStore) NewIterator(cf ColumnFamily, opts IterOptions) Iterator {
	txn := s.db.NewTransaction(false)
	bopts := badger.DefaultIteratorOptions
	bopts.PrefetchValues = opts.PrefetchValues
	if opts.PrefetchSize > 0 {
		bopts.PrefetchSize = opts.PrefetchSize
	}
	bopts.Reverse = opts.Reverse
	bopts.Prefix = prefixedKey(cf, opts.Prefix)

	it := txn.NewIterator(bopts)
	return &badgerIterator{txn: txn, it: it, cf: cf, prefix: bopts.Prefix}
}

type badgerIterator struct {
	txn    *badger.Txn
	it     *badger.Iterator
	cf     ColumnFamily
	prefix []byte
}

func (b *badgerIterator) Rewind() { b.it.Rewind() }

func (b *badgerIterator) Seek(key []byte) { b.it.Seek(prefixedKey(b.cf, key)) }

func (b *badgerIterator) Valid() bool { return b.it.ValidForPrefix(b.prefix) }

func (b *badgerIterator) Next() { b.it.Next() }

func (b *badgerIterator) Key() []byte {
	full := b.it.Item().KeyCopy(nil)
	return full[1:]
}

func (b *badgerIterator) Value() ([]byte, error) {
	return b.it.Item().ValueCopy(nil)
}

func (b *badgerIterator) Close() {
	b.it.Close()
	b.txn.Discard()
}

// BadgerBatch implements Batch over a single badger.Txn, mirroring
// the teacher's WithTxn pattern: every Set/Delete stages into one
// read-write transaction, and Commit either lands all of them or
// none. Unlike badger.WriteBatch, a Txn never silently splits across
// internal transaction boundaries, so a batch that outgrows Badger's
// single-transaction entry limit fails loudly with ErrTxnTooBig
// instead of partially committing. Callers that hit that error must
// shrink their batch size. Phase 1 drains up to 100,000 queue items
// per batch and stages several entries for each; Phase 3 and the
// Phase 4 seed and final scans commit every 10,000 state updates.
type BadgerBatch struct {
	db  *badger.DB
	txn *badger.Txn
	cf  ColumnFamily // metrics label convenience; last cf touched
	err error
}

// NewBatch implements Store.
func (s *BadgerStore) NewBatch() Batch {
	return &BadgerBatch{db: s.db, txn: s.db.NewTransaction(true)}
}

func (b *BadgerBatch) Set(cf ColumnFamily, key, value []byte) error {
	b.cf = cf
	if err := b.txn.Set(prefixedKey(cf, key), value); err != nil {
		b.err = err
		return err
	}
	return nil
}

func (b *BadgerBatch) Delete(cf ColumnFamily, key []byte) error {
	b.cf = cf
	if err := b.txn.Delete(prefixedKey(cf, key)); err != nil {
		b.err = err
		return err
	}
	return nil
}

func (b *BadgerBatch) Commit(ctx context.Context) error {
	_, span := storeTracer.Start(ctx, "BadgerBatch.Commit")
	defer span.End()

	if b.err != nil {
		span.RecordError(b.err)
		span.SetStatus(codes.Error, b.err.Error())
		return b.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	err := b.txn.Commit()
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("column_family", b.cf.String()))
	metrics.StoreCommitDurationSeconds.WithLabelValues(b.cf.String(), status).Observe(time.Since(start).Seconds())
	return err
}

func (b *BadgerBatch) Discard() { b.txn.Discard() }

// Sync implements Store.
func (s *BadgerStore) Sync() error {
	if s.inMemory {
		return nil
	}
	return s.db.Sync()
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	if s.gcStop != nil {
		close(s.gcStop)
		<-s.gcDone
	}
	return s.db.Close()
}
