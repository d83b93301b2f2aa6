// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jasondaming/bobail-solver/internal/enginedb"
	"github.com/jasondaming/bobail-solver/internal/metrics"
	"github.com/jasondaming/bobail-solver/internal/store"
)

const (
	propagateSeedBatchSize  = 10_000
	propagateCheckpointTick = 60 * time.Second
	stripeLockCount         = 65536
)

// propagate runs Phase 4: backward BFS/AND-OR fixpoint from resolved
// terminals through the predecessor graph, then rewrites every
// remaining UNKNOWN state to DRAW.
func (e *Engine) propagate(ctx context.Context) error {
	head, tail, propagated, err := e.seedPropagationQueue(ctx)
	if err != nil {
		return err
	}

	stripes := new([stripeLockCount]sync.Mutex)
	headCounter := new(atomic.Uint64)
	headCounter.Store(head)
	tailCounter := new(atomic.Uint64)
	tailCounter.Store(tail)
	propagatedCounter := new(atomic.Int64)
	propagatedCounter.Store(propagated)

	numWorkers := e.cfg.PropagationWorkers
	if numWorkers < 1 {
		numWorkers = 1
	}

	checkpointDone := make(chan struct{})
	checkpointerExited := make(chan struct{})
	var checkpointErr error
	go func() {
		defer close(checkpointerExited)
		checkpointErr = e.runPropagationCheckpointer(ctx, headCounter, tailCounter, propagatedCounter, checkpointDone)
	}()

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < numWorkers; w++ {
		g.Go(func() error {
			return e.propagationWorker(gctx, stripes, headCounter, tailCounter, propagatedCounter)
		})
	}

	err = g.Wait()
	close(checkpointDone)
	<-checkpointerExited
	if err == nil {
		err = checkpointErr
	}
	if err != nil {
		return err
	}

	if err := e.persistPropagationCheckpoint(ctx, headCounter.Load(), tailCounter.Load(), propagatedCounter.Load()); err != nil {
		return err
	}

	if err := e.finalizePropagation(ctx); err != nil {
		return err
	}

	return e.advancePhase(ctx, enginedb.PhaseComplete)
}

// seedPropagationQueue enqueues every already-resolved (WIN/LOSS)
// state as the propagation wave's starting frontier. When a persisted
// checkpoint shows Stage A already completed in a prior run, the seed
// scan is skipped and the checkpointed head/tail are reused.
func (e *Engine) seedPropagationQueue(ctx context.Context) (head, tail uint64, propagated int64, err error) {
	head, err = e.metaUint64(ctx, metaKeyPropHead, 0)
	if err != nil {
		return 0, 0, 0, err
	}
	tail, err = e.metaUint64(ctx, metaKeyPropTail, 0)
	if err != nil {
		return 0, 0, 0, err
	}
	propagated, err = e.metaInt64(ctx, metaKeyPropCount, 0)
	if err != nil {
		return 0, 0, 0, err
	}
	if tail > 0 {
		// Stage A already completed in a prior run.
		return head, tail, propagated, nil
	}

	it := e.store.NewIterator(store.CFStates, store.IterOptions{PrefetchValues: true})
	defer it.Close()

	b := e.store.NewBatch()
	defer b.Discard()
	batchCount := 0
	for it.Rewind(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return 0, 0, 0, err
		}
		id, derr := enginedb.DecodeStateID(it.Key())
		if derr != nil {
			return 0, 0, 0, derr
		}
		v, verr := it.Value()
		if verr != nil {
			return 0, 0, 0, verr
		}
		info, derr := enginedb.DecodeStateInfo(v)
		if derr != nil {
			return 0, 0, 0, derr
		}
		if info.Result == enginedb.ResultUnknown {
			continue
		}
		if err := b.Set(store.CFQueue, enginedb.EncodeQueueIndex(tail), enginedb.EncodeStateID(id)); err != nil {
			return 0, 0, 0, err
		}
		tail++
		batchCount++
		if batchCount >= propagateSeedBatchSize {
			if err := b.Commit(ctx); err != nil {
				return 0, 0, 0, err
			}
			b = e.store.NewBatch()
			batchCount = 0
		}
	}
	if batchCount > 0 {
		if err := b.Commit(ctx); err != nil {
			return 0, 0, 0, err
		}
	}

	if tail == 0 {
		// No terminals at all is impossible for a well-formed game
		// graph. A non-zero tail still marks Stage A as done for a
		// resumed run; slot 0 has no queue entry and workers skip it.
		tail = 1
	}
	return 0, tail, 0, nil
}

// propagationWorker claims queue slots by compare-and-swap on head,
// never advancing head past tail, resolving each claimed state's
// predecessors.
func (e *Engine) propagationWorker(ctx context.Context, stripes *[65536]sync.Mutex, head, tail *atomic.Uint64, propagated *atomic.Int64) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		idx := head.Load()
		if idx >= tail.Load() {
			return nil
		}
		if !head.CompareAndSwap(idx, idx+1) {
			continue
		}

		v, err := e.store.Get(ctx, store.CFQueue, enginedb.EncodeQueueIndex(idx))
		if err != nil {
			if err == store.ErrNotFound {
				continue
			}
			return err
		}
		id, err := enginedb.DecodeStateID(v)
		if err != nil {
			return err
		}

		if err := e.resolvePredecessorsOf(ctx, id, stripes, tail, propagated); err != nil {
			return err
		}
	}
}

func (e *Engine) resolvePredecessorsOf(ctx context.Context, id uint32, stripes *[65536]sync.Mutex, tail *atomic.Uint64, propagated *atomic.Int64) error {
	childInfo, err := getStateInfo(ctx, e.store, id)
	if err != nil {
		return err
	}
	childResult := childInfo.Result

	preds, err := e.getPredecessors(ctx, id)
	if err != nil {
		return err
	}

	for _, p := range preds {
		stripe := &stripes[p%stripeLockCount]
		stripe.Lock()
		if err := e.resolveOnePredecessor(ctx, p, childResult, tail, propagated); err != nil {
			stripe.Unlock()
			return err
		}
		stripe.Unlock()
	}
	return nil
}

func (e *Engine) resolveOnePredecessor(ctx context.Context, p uint32, childResult enginedb.Result, tail *atomic.Uint64, propagated *atomic.Int64) error {
	info, err := getStateInfo(ctx, e.store, p)
	if err != nil {
		return err
	}
	if info.IsResolved() {
		return nil
	}

	resolved := false
	switch childResult {
	case enginedb.ResultLoss:
		info.Result = enginedb.ResultWin
		resolved = true
	case enginedb.ResultWin:
		info.WinningSuccs++
		if info.WinningSuccs >= info.NumSuccessors {
			info.Result = enginedb.ResultLoss
			resolved = true
		}
	default:
		return nil
	}

	b := e.store.NewBatch()
	defer b.Discard()
	if err := setStateInfo(b, p, info); err != nil {
		return err
	}
	if resolved {
		slot := tail.Add(1) - 1
		if err := b.Set(store.CFQueue, enginedb.EncodeQueueIndex(slot), enginedb.EncodeStateID(p)); err != nil {
			return err
		}
	}
	if err := b.Commit(ctx); err != nil {
		return err
	}
	if resolved {
		propagated.Add(1)
		metrics.StatesResolvedTotal.WithLabelValues(info.Result.String()).Inc()
	}
	return nil
}

func (e *Engine) runPropagationCheckpointer(ctx context.Context, head, tail *atomic.Uint64, propagated *atomic.Int64, done <-chan struct{}) error {
	ticker := time.NewTicker(propagateCheckpointTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-done:
			return nil
		case <-ticker.C:
			metrics.PropagationWaveSize.Set(float64(tail.Load() - head.Load()))
			if err := e.persistPropagationCheckpoint(ctx, head.Load(), tail.Load(), propagated.Load()); err != nil {
				e.logger.Warn("propagation checkpoint failed", "error", err)
			}
		}
	}
}

func (e *Engine) persistPropagationCheckpoint(ctx context.Context, head, tail uint64, propagated int64) error {
	b := e.store.NewBatch()
	defer b.Discard()
	if err := b.Set(store.CFMetadata, []byte(metaKeyPropHead), enginedb.EncodeQueueIndex(head)); err != nil {
		return err
	}
	if err := b.Set(store.CFMetadata, []byte(metaKeyPropTail), enginedb.EncodeQueueIndex(tail)); err != nil {
		return err
	}
	if err := b.Set(store.CFMetadata, []byte(metaKeyPropCount), encodeInt64(propagated)); err != nil {
		return err
	}
	metrics.CheckpointsWrittenTotal.WithLabelValues(enginedb.PhasePropagating.String()).Inc()
	return b.Commit(ctx)
}

// finalizePropagation rewrites every remaining UNKNOWN state to DRAW:
// a state reachable by no forcing sequence is a draw by infinite play.
func (e *Engine) finalizePropagation(ctx context.Context) error {
	it := e.store.NewIterator(store.CFStates, store.IterOptions{PrefetchValues: true})
	defer it.Close()

	b := e.store.NewBatch()
	defer b.Discard()
	batchCount := 0
	var numDraws int64

	for it.Rewind(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
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
		if info.Result != enginedb.ResultUnknown {
			continue
		}
		info.Result = enginedb.ResultDraw
		if err := setStateInfo(b, id, info); err != nil {
			return err
		}
		numDraws++
		batchCount++
		if batchCount >= terminalBatchSize {
			if err := b.Commit(ctx); err != nil {
				return err
			}
			b = e.store.NewBatch()
			batchCount = 0
		}
	}
	if batchCount > 0 {
		if err := b.Commit(ctx); err != nil {
			return err
		}
	}

	if err := e.addMetaCounters(ctx, 0, 0, numDraws); err != nil {
		return err
	}

	final := e.store.NewBatch()
	defer final.Discard()
	if err := final.Delete(store.CFMetadata, []byte(metaKeyPropHead)); err != nil {
		return err
	}
	if err := final.Delete(store.CFMetadata, []byte(metaKeyPropTail)); err != nil {
		return err
	}
	if err := final.Delete(store.CFMetadata, []byte(metaKeyPropCount)); err != nil {
		return err
	}
	return final.Commit(ctx)
}
