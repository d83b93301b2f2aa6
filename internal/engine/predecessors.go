// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jasondaming/bobail-solver/internal/enginedb"
	"github.com/jasondaming/bobail-solver/internal/metrics"
	"github.com/jasondaming/bobail-solver/internal/store"
)

// predFlushThreshold is the number of accumulated (v_id -> [u_id...])
// entries a worker holds before it flushes its buffer to disk.
const predFlushThreshold = 1_000_000

// predItem is a single (id, packed) pair handed from the producer to
// the worker pool.
type predItem struct {
	id     uint32
	packed uint64
}

// buildPredecessors runs Phase 2: for every non-terminal state u, for
// every canonical successor v of u, append an edge u -> v's
// predecessor list. Not resumable mid-phase: a crash requires
// restarting the whole phase, since partial shard writes cannot be
// distinguished from complete ones.
func (e *Engine) buildPredecessors(ctx context.Context) error {
	cache, err := e.registry.LoadPackedCache(ctx)
	if err != nil {
		return err
	}
	e.logger.Info("predecessor phase: packed cache loaded", "entries", cache.Len())

	numWorkers := e.cfg.PredecessorWorkers
	if numWorkers < 1 {
		numWorkers = 1
	}

	items := make(chan predItem, 100_000)
	g, gctx := errgroup.WithContext(ctx)

	// Single producer: range-scan states in key order.
	g.Go(func() error {
		defer close(items)
		it := e.store.NewIterator(store.CFStates, store.IterOptions{PrefetchValues: true})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := gctx.Err(); err != nil {
				return err
			}
			id, err := enginedb.DecodeStateID(it.Key())
			if err != nil {
				return err
			}
			v, err := it.Value()
			if err != nil {
				return err
			}
			info, err := enginedb.DecodeStateInfo(v)
			if err != nil {
				return err
			}
			select {
			case items <- predItem{id: id, packed: info.Packed}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var flushMu sync.Mutex
	for w := 0; w < numWorkers; w++ {
		shard := uint8(w % e.cfg.PredecessorShardCount)
		g.Go(func() error {
			buf := make(map[uint32][]uint32)
			count := 0
			flush := func() error {
				if len(buf) == 0 {
					return nil
				}
				flushMu.Lock()
				defer flushMu.Unlock()
				if err := e.flushPredecessorBuffer(gctx, shard, buf); err != nil {
					return err
				}
				buf = make(map[uint32][]uint32)
				count = 0
				return nil
			}

			for item := range items {
				if err := gctx.Err(); err != nil {
					return err
				}
				if e.adapter.Terminal(item.packed) != enginedb.ResultUnknown {
					continue
				}
				for _, m := range e.adapter.Moves(item.packed) {
					vID, ok := cache.Lookup(m.ChildPacked)
					if !ok {
						continue
					}
					buf[vID] = append(buf[vID], item.id)
					count++
				}
				if count >= predFlushThreshold {
					if err := flush(); err != nil {
						return err
					}
				}
			}
			return flush()
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	return e.advancePhase(ctx, enginedb.PhaseMarkingTerminals)
}

// flushPredecessorBuffer writes one worker's accumulated buffer as a
// single batch under its own shard byte. Per v_id, the accumulated
// u_id list is sorted and deduplicated before being written: §4.7
// flags duplicate (u,v) edges as a correctness bug (they inflate
// winning_succs during propagation), so this buffer is never written
// as-is despite §4.5's framing of duplicates as harmless.
func (e *Engine) flushPredecessorBuffer(ctx context.Context, shard uint8, buf map[uint32][]uint32) error {
	b := e.store.NewBatch()
	defer b.Discard()

	for vID, uIDs := range buf {
		uIDs = dedupeSortedUint32(uIDs)
		key := enginedb.EncodePredecessorKey(vID, shard)
		existing, err := e.store.Get(ctx, store.CFPredecessors, key)
		if err != nil && err != store.ErrNotFound {
			return err
		}
		merged := uIDs
		if existing != nil {
			merged = dedupeSortedUint32(append(enginedb.DecodeIDList(existing), uIDs...))
		}
		if err := b.Set(store.CFPredecessors, key, enginedb.EncodeIDList(merged)); err != nil {
			return err
		}
		metrics.PredecessorEdgesWrittenTotal.WithLabelValues(shardLabel(shard)).Add(float64(len(uIDs)))
	}
	return b.Commit(ctx)
}

func dedupeSortedUint32(ids []uint32) []uint32 {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := ids[:0]
	var last uint32
	haveLast := false
	for _, id := range ids {
		if haveLast && id == last {
			continue
		}
		out = append(out, id)
		last = id
		haveLast = true
	}
	return out
}

// getPredecessors implements the §4.5 readback contract: a 17-way
// multiget across every worker shard plus the reserved legacy shard,
// concatenated into one slice.
func (e *Engine) getPredecessors(ctx context.Context, vID uint32) ([]uint32, error) {
	shardCount := e.cfg.PredecessorShardCount
	keys := make([][]byte, 0, shardCount+1)
	for s := 0; s < shardCount; s++ {
		keys = append(keys, enginedb.EncodePredecessorKey(vID, uint8(s)))
	}
	keys = append(keys, enginedb.EncodePredecessorKey(vID, enginedb.LegacyShardByte))

	values, err := e.store.MultiGet(ctx, store.CFPredecessors, keys)
	if err != nil {
		return nil, err
	}
	var out []uint32
	for _, v := range values {
		if v == nil {
			continue
		}
		out = append(out, enginedb.DecodeIDList(v)...)
	}
	return out, nil
}

func shardLabel(shard uint8) string {
	if shard == enginedb.LegacyShardByte {
		return "legacy"
	}
	return string(rune('0' + shard%10))
}
