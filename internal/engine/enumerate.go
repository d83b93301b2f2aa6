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

	"golang.org/x/sync/errgroup"

	"github.com/jasondaming/bobail-solver/internal/enginedb"
	"github.com/jasondaming/bobail-solver/internal/metrics"
	"github.com/jasondaming/bobail-solver/internal/store"
)

// enumerateBatchSize is the target number of queue entries drained per
// batch. ~10^5 balances write-batch size against memory held per
// in-flight batch.
const enumerateBatchSize = 100_000

// expandResult is one worker's output for a single popped state.
type expandResult struct {
	id            uint32
	numSuccessors uint16
	definitelyNew []uint64
	maybeExists   []uint64
}

// enumerate runs Phase 1: BFS discovery of every reachable canonical
// state, driven by the on-disk queue CF so it can resume after a
// crash at batch granularity.
func (e *Engine) enumerate(ctx context.Context) error {
	reg := e.registry
	bloom := e.bloom

	queueHead, queueTail, err := e.loadQueueCursor(ctx)
	if err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if queueHead >= queueTail {
			break
		}

		batchEnd := queueHead + enumerateBatchSize
		if batchEnd > queueTail {
			batchEnd = queueTail
		}

		ids, err := e.loadQueueRange(ctx, queueHead, batchEnd)
		if err != nil {
			return err
		}

		results, err := e.expandBatch(ctx, ids, bloom)
		if err != nil {
			return err
		}

		newTail, err := e.mergeEnumerateBatch(ctx, results, queueHead, batchEnd, queueTail)
		if err != nil {
			return err
		}

		queueHead = batchEnd
		queueTail = newTail

		e.logger.Info("enumerate batch committed",
			"queue_head", queueHead, "queue_tail", queueTail, "num_states", reg.NumStates())
		metrics.QueueDepth.WithLabelValues("enumerate").Set(float64(queueTail - queueHead))
	}

	return e.advancePhase(ctx, enginedb.PhaseBuildingPredecessors)
}

func (e *Engine) loadQueueCursor(ctx context.Context) (head, tail uint64, err error) {
	head, err = e.metaUint64(ctx, metaKeyQueueHead, 0)
	if err != nil {
		return 0, 0, err
	}
	tail, err = e.metaUint64(ctx, metaKeyQueueTail, 0)
	if err != nil {
		return 0, 0, err
	}
	return head, tail, nil
}

// loadQueueRange performs the "queue load" stage: a multi-key read of
// queue[head,end). The state-info prefetch of those IDs happens in
// expandBatch.
func (e *Engine) loadQueueRange(ctx context.Context, head, end uint64) ([]uint32, error) {
	keys := make([][]byte, 0, end-head)
	for i := head; i < end; i++ {
		keys = append(keys, enginedb.EncodeQueueIndex(i))
	}
	values, err := e.store.MultiGet(ctx, store.CFQueue, keys)
	if err != nil {
		return nil, err
	}
	ids := make([]uint32, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		id, err := enginedb.DecodeStateID(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// expandBatch runs the parallel expand stage: each worker pulls IDs
// from a shared channel, unpacks, and either marks the state terminal
// or generates its legal moves and stages canonical children.
func (e *Engine) expandBatch(ctx context.Context, ids []uint32, bloom *bloomFilter) ([]expandResult, error) {
	infos, err := e.batchGetStateInfo(ctx, ids)
	if err != nil {
		return nil, err
	}

	numWorkers := e.cfg.EnumerateWorkers
	if numWorkers < 1 {
		numWorkers = 1
	}

	work := make(chan int, len(ids))
	for i := range ids {
		work <- i
	}
	close(work)

	results := make([]expandResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < numWorkers; w++ {
		g.Go(func() error {
			for i := range work {
				if err := gctx.Err(); err != nil {
					return err
				}
				id := ids[i]
				info := infos[i]
				r := expandResult{id: id}

				if e.adapter.Terminal(info.Packed) != enginedb.ResultUnknown {
					results[i] = r
					continue
				}

				moves := e.adapter.Moves(info.Packed)
				r.numSuccessors = uint16(len(moves))
				for _, m := range moves {
					if bloom.MaybeContains(m.ChildPacked) {
						r.maybeExists = append(r.maybeExists, m.ChildPacked)
					} else {
						r.definitelyNew = append(r.definitelyNew, m.ChildPacked)
					}
				}
				results[i] = r
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Engine) batchGetStateInfo(ctx context.Context, ids []uint32) ([]enginedb.StateInfo, error) {
	keys := make([][]byte, len(ids))
	for i, id := range ids {
		keys[i] = enginedb.EncodeStateID(id)
	}
	values, err := e.store.MultiGet(ctx, store.CFStates, keys)
	if err != nil {
		return nil, err
	}
	infos := make([]enginedb.StateInfo, len(ids))
	for i, v := range values {
		info, err := enginedb.DecodeStateInfo(v)
		if err != nil {
			return nil, err
		}
		infos[i] = info
	}
	return infos, nil
}

// mergeEnumerateBatch is the serial merge & commit stage: the only
// point at which new IDs are allocated, so no lock beyond the
// registry's own allocMu is needed.
func (e *Engine) mergeEnumerateBatch(ctx context.Context, results []expandResult, head, end, tail uint64) (uint64, error) {
	definitelyNew := make(map[uint64]struct{})
	maybeExists := make(map[uint64]struct{})
	for _, r := range results {
		for _, p := range r.definitelyNew {
			definitelyNew[p] = struct{}{}
		}
		for _, p := range r.maybeExists {
			maybeExists[p] = struct{}{}
		}
	}
	for p := range definitelyNew {
		delete(maybeExists, p)
	}

	maybeList := make([]uint64, 0, len(maybeExists))
	for p := range maybeExists {
		maybeList = append(maybeList, p)
	}
	ids, found, err := e.registry.BatchLookup(ctx, maybeList)
	if err != nil {
		return 0, err
	}
	_ = ids
	for i, p := range maybeList {
		if !found[i] {
			definitelyNew[p] = struct{}{}
		}
	}

	newPacked := make([]uint64, 0, len(definitelyNew))
	for p := range definitelyNew {
		newPacked = append(newPacked, p)
	}
	sort.Slice(newPacked, func(i, j int) bool { return newPacked[i] < newPacked[j] })

	b := e.store.NewBatch()
	defer b.Discard()

	startID := e.registry.NumStates()
	queueTail := tail
	for i, packed := range newPacked {
		id := startID + uint32(i)
		info := enginedb.StateInfo{Packed: packed, Result: enginedb.ResultUnknown}
		if err := setStateInfo(b, id, info); err != nil {
			return 0, err
		}
		if err := b.Set(store.CFPackedToID, enginedb.EncodePacked(packed), enginedb.EncodeStateID(id)); err != nil {
			return 0, err
		}
		if err := b.Set(store.CFQueue, enginedb.EncodeQueueIndex(queueTail), enginedb.EncodeStateID(id)); err != nil {
			return 0, err
		}
		e.bloom.Add(packed)
		queueTail++
	}

	for _, r := range results {
		info, err := getStateInfo(ctx, e.store, r.id)
		if err != nil {
			return 0, err
		}
		info.NumSuccessors = r.numSuccessors
		if err := setStateInfo(b, r.id, info); err != nil {
			return 0, err
		}
	}

	numNewStates := uint32(len(newPacked))
	enumProcessed, err := e.metaUint64(ctx, metaKeyEnumProcessed, 0)
	if err != nil {
		return 0, err
	}
	if err := b.Set(store.CFMetadata, []byte(metaKeyQueueHead), enginedb.EncodeQueueIndex(end)); err != nil {
		return 0, err
	}
	if err := b.Set(store.CFMetadata, []byte(metaKeyQueueTail), enginedb.EncodeQueueIndex(queueTail)); err != nil {
		return 0, err
	}
	if err := b.Set(store.CFMetadata, []byte(metaKeyNumStates), enginedb.EncodeStateID(startID+numNewStates)); err != nil {
		return 0, err
	}
	if err := b.Set(store.CFMetadata, []byte(metaKeyEnumProcessed), enginedb.EncodeQueueIndex(enumProcessed+uint64(len(results)))); err != nil {
		return 0, err
	}

	if err := b.Commit(ctx); err != nil {
		return 0, err
	}

	e.registry.numStates.Store(startID + numNewStates)
	metrics.StatesDiscoveredTotal.Add(float64(numNewStates))

	return queueTail, nil
}
