// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package store defines the ordered, byte-keyed key-value abstraction
// the solve engine is built on: column families, atomic write
// batches, range iteration with read-ahead, and point/batched lookups.
// internal/store/badgerstore.go backs it with BadgerDB; memstore.go
// backs it with plain Go maps for fast, dependency-free tests.
package store

import (
	"context"
	"errors"
)

// ColumnFamily names one of the engine's logical keyspaces. BadgerDB
// has no native column-family concept, so each CF is modeled as a
// single-byte prefix within one flat keyspace, the same prefixing
// scheme the teacher's CRS journal uses for its "delta:{session}:"
// and "checkpoint:latest:{session}" key families.
type ColumnFamily byte

const (
	// CFStates maps a u32 LE state ID to its 13-byte StateInfo record.
	CFStates ColumnFamily = iota + 1
	// CFPackedToID maps a u64 LE packed state to its u32 LE state ID.
	CFPackedToID
	// CFPredecessors maps a (id u32 LE, shard u8) compound key to a
	// concatenated list of u32 LE predecessor IDs.
	CFPredecessors
	// CFQueue maps a u64 LE sequential index to a u32 LE state ID; used
	// as a FIFO by both enumeration and propagation.
	CFQueue
	// CFMetadata maps a string key to a scalar or blob value: phase,
	// counters, and per-phase checkpoint records.
	CFMetadata
)

func (cf ColumnFamily) String() string {
	switch cf {
	case CFStates:
		return "states"
	case CFPackedToID:
		return "packed_to_id"
	case CFPredecessors:
		return "predecessors"
	case CFQueue:
		return "queue"
	case CFMetadata:
		return "metadata"
	default:
		return "unknown_cf"
	}
}

// ErrNotFound is returned by Get when a key has no value. MultiGet
// reports a missing key as a nil slot instead.
var ErrNotFound = errors.New("store: key not found")

// IterOptions configures a range scan.
type IterOptions struct {
	// Prefix restricts iteration to keys sharing this prefix (within
	// the column family's own prefix byte).
	Prefix []byte
	// Reverse iterates from the end of the range backward.
	Reverse bool
	// PrefetchValues hints that the iterator should eagerly fetch
	// values alongside keys, trading memory for fewer round trips on a
	// sequential scan (Phase 2's producer scan, Phase 3's terminal
	// scan, Phase 4's seed and final scans).
	PrefetchValues bool
	// PrefetchSize is the number of values to prefetch ahead of the
	// iterator's cursor. Zero selects the store's default.
	PrefetchSize int
}

// Iterator walks a column family's keys in order. A newly created
// Iterator is not positioned; call Rewind or Seek before reading.
type Iterator interface {
	// Rewind positions the iterator at the first key in range.
	Rewind()
	// Seek positions the iterator at the first key >= key (or, in
	// reverse mode, the first key <= key).
	Seek(key []byte)
	// Valid reports whether the iterator is positioned on an item.
	Valid() bool
	// Next advances the iterator.
	Next()
	// Key returns the current item's key, excluding the column
	// family's prefix byte. The returned slice is only valid until the
	// next call to Next, Seek, or Close.
	Key() []byte
	// Value returns the current item's value.
	Value() ([]byte, error)
	// Close releases resources held by the iterator.
	Close()
}

// Batch accumulates a set of mutations applied atomically on Commit.
// A Batch is not safe for concurrent use by multiple goroutines.
type Batch interface {
	// Set stages a write of value under key in cf.
	Set(cf ColumnFamily, key, value []byte) error
	// Delete stages removal of key in cf.
	Delete(cf ColumnFamily, key []byte) error
	// Commit applies every staged mutation atomically: either all of
	// them land, or none do.
	Commit(ctx context.Context) error
	// Discard abandons the batch without applying it. Safe to call
	// after Commit (no-op).
	Discard()
}

// Store is the ordered KV abstraction every solve phase is written
// against. Implementations must guarantee that a committed Batch is
// either fully visible or not visible at all, even across a crash.
type Store interface {
	// Get performs a point lookup. It returns ErrNotFound if the key
	// is absent.
	Get(ctx context.Context, cf ColumnFamily, key []byte) ([]byte, error)

	// MultiGet performs a single batched lookup of several keys in the
	// same column family. The result slice has the same length and
	// order as keys; a missing key's slot is nil.
	MultiGet(ctx context.Context, cf ColumnFamily, keys [][]byte) ([][]byte, error)

	// NewIterator opens a range iterator over cf.
	NewIterator(cf ColumnFamily, opts IterOptions) Iterator

	// NewBatch opens a new atomic write batch.
	NewBatch() Batch

	// Sync forces any buffered writes to stable storage. A no-op for
	// in-memory stores.
	Sync() error

	// Close releases the store's resources. Not safe to call
	// concurrently with other Store methods.
	Close() error
}
