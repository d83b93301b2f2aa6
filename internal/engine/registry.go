// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/jasondaming/bobail-solver/internal/enginedb"
	"github.com/jasondaming/bobail-solver/internal/store"
)

// registry is the sole allocator of dense state IDs. It wraps the
// states and packed_to_id column families and keeps an in-process
// counter so callers needn't round-trip to the store to learn the
// next free ID.
type registry struct {
	st        store.Store
	numStates atomic.Uint32
	// allocMu serializes ID allocation. Per §4.2, allocation is the
	// only registry operation that must be strictly serial; lookups
	// fan out freely.
	allocMu sync.Mutex
}

func newRegistry(st store.Store, numStates uint32) *registry {
	r := &registry{st: st}
	r.numStates.Store(numStates)
	return r
}

// NumStates returns the number of states allocated so far.
func (r *registry) NumStates() uint32 { return r.numStates.Load() }

// Lookup performs a point read on packed_to_id.
func (r *registry) Lookup(ctx context.Context, packed uint64) (uint32, bool, error) {
	v, err := r.st.Get(ctx, store.CFPackedToID, enginedb.EncodePacked(packed))
	if err != nil {
		if err == store.ErrNotFound {
			return 0, false, nil
		}
		return 0, false, err
	}
	id, err := enginedb.DecodeStateID(v)
	return id, true, err
}

// BatchLookup performs a single multi-key read against packed_to_id.
// The result slice is parallel to packed: a missing entry reports
// found=false at that index.
func (r *registry) BatchLookup(ctx context.Context, packed []uint64) ([]uint32, []bool, error) {
	keys := make([][]byte, len(packed))
	for i, p := range packed {
		keys[i] = enginedb.EncodePacked(p)
	}
	values, err := r.st.MultiGet(ctx, store.CFPackedToID, keys)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]uint32, len(packed))
	found := make([]bool, len(packed))
	for i, v := range values {
		if v == nil {
			continue
		}
		id, err := enginedb.DecodeStateID(v)
		if err != nil {
			return nil, nil, err
		}
		ids[i] = id
		found[i] = true
	}
	return ids, found, nil
}

// GetOrCreate returns packed's existing ID, or allocates a fresh one
// and writes its initial StateInfo{packed, UNKNOWN, 0, 0}. Allocation
// is serialized; concurrent callers racing on the same unseen packed
// value will not double-allocate.
func (r *registry) GetOrCreate(ctx context.Context, packed uint64) (uint32, error) {
	if id, ok, err := r.Lookup(ctx, packed); err != nil {
		return 0, err
	} else if ok {
		return id, nil
	}

	r.allocMu.Lock()
	defer r.allocMu.Unlock()

	// Re-check under the lock: another caller may have raced us.
	if id, ok, err := r.Lookup(ctx, packed); err != nil {
		return 0, err
	} else if ok {
		return id, nil
	}

	id := r.numStates.Load()
	info := enginedb.StateInfo{Packed: packed, Result: enginedb.ResultUnknown}

	b := r.st.NewBatch()
	defer b.Discard()
	if err := b.Set(store.CFStates, enginedb.EncodeStateID(id), info.Bytes()); err != nil {
		return 0, err
	}
	if err := b.Set(store.CFPackedToID, enginedb.EncodePacked(packed), enginedb.EncodeStateID(id)); err != nil {
		return 0, err
	}
	if err := b.Set(store.CFMetadata, []byte(metaKeyNumStates), enginedb.EncodeStateID(id+1)); err != nil {
		return 0, err
	}
	if err := b.Commit(ctx); err != nil {
		return 0, err
	}

	r.numStates.Store(id + 1)
	return id, nil
}

// PackedCacheEntry is one row of the in-memory packed->id cache built
// by LoadPackedCache.
type PackedCacheEntry struct {
	Packed uint64
	ID     uint32
}

// PackedCache is a sorted, binary-searchable view of the whole
// packed_to_id column family, used during Phase 2 to resolve
// successor lookups without a store round trip per edge.
type PackedCache struct {
	entries []PackedCacheEntry
}

// LoadPackedCache range-scans packed_to_id into a sorted in-memory
// vector. Memory cost is ~16 bytes per state (an 8-byte packed value
// and a 4-byte ID, padded to 16 in PackedCacheEntry).
func (r *registry) LoadPackedCache(ctx context.Context) (*PackedCache, error) {
	it := r.st.NewIterator(store.CFPackedToID, store.IterOptions{PrefetchValues: true})
	defer it.Close()

	entries := make([]PackedCacheEntry, 0, r.NumStates())
	for it.Rewind(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		packed, err := enginedb.DecodePacked(it.Key())
		if err != nil {
			return nil, err
		}
		v, err := it.Value()
		if err != nil {
			return nil, err
		}
		id, err := enginedb.DecodeStateID(v)
		if err != nil {
			return nil, err
		}
		entries = append(entries, PackedCacheEntry{Packed: packed, ID: id})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Packed < entries[j].Packed })
	return &PackedCache{entries: entries}, nil
}

// Lookup performs an O(log N) binary search for packed's ID.
func (c *PackedCache) Lookup(packed uint64) (uint32, bool) {
	i := sort.Search(len(c.entries), func(i int) bool { return c.entries[i].Packed >= packed })
	if i < len(c.entries) && c.entries[i].Packed == packed {
		return c.entries[i].ID, true
	}
	return 0, false
}

// Len returns the number of cached entries.
func (c *PackedCache) Len() int { return len(c.entries) }

// getStateInfo is a small helper shared by several phases: point-read
// and decode a StateInfo by ID.
func getStateInfo(ctx context.Context, st store.Store, id uint32) (enginedb.StateInfo, error) {
	v, err := st.Get(ctx, store.CFStates, enginedb.EncodeStateID(id))
	if err != nil {
		return enginedb.StateInfo{}, fmt.Errorf("engine: reading state %d: %w", id, err)
	}
	return enginedb.DecodeStateInfo(v)
}

func setStateInfo(b store.Batch, id uint32, info enginedb.StateInfo) error {
	return b.Set(store.CFStates, enginedb.EncodeStateID(id), info.Bytes())
}
