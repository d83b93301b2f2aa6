// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"time"

	"github.com/jasondaming/bobail-solver/internal/enginedb"
	"github.com/jasondaming/bobail-solver/internal/metrics"
	"github.com/jasondaming/bobail-solver/internal/store"
)

const (
	terminalBatchSize        = 10_000
	terminalCheckpointStates = 1_000_000
	terminalCheckpointPeriod = 60 * time.Second
)

// markTerminals runs Phase 3: a single sequential scan over states,
// classifying every still-UNKNOWN state as WIN, LOSS, or leaving it
// UNKNOWN for propagation to resolve. A sequential scan with
// read-ahead beats parallel random reads for this access pattern,
// since every state must be visited exactly once in key order.
func (e *Engine) markTerminals(ctx context.Context) error {
	cursor, err := e.metaUint64(ctx, metaKeyTerminalCursor, 0)
	if err != nil {
		return err
	}

	it := e.store.NewIterator(store.CFStates, store.IterOptions{PrefetchValues: true})
	defer it.Close()
	it.Seek(enginedb.EncodeStateID(uint32(cursor)))

	var (
		batch            = e.store.NewBatch()
		batchCount       int
		processedSince   uint64
		lastCheckpoint   = time.Now()
		winsSinceFlush   int64
		lossesSinceFlush int64
		lastID           uint32
	)
	defer batch.Discard()

	// flushBatch commits the cursor advance and this flush's win/loss
	// counter deltas in the same batch: a crash right after a committed
	// flush must never leave the persisted num_wins/num_losses behind
	// the states the cursor already reports as processed.
	flushBatch := func(newCursor uint32) error {
		if batchCount == 0 {
			return nil
		}
		if winsSinceFlush != 0 || lossesSinceFlush != 0 {
			wins, err := e.metaInt64(ctx, metaKeyNumWins, 0)
			if err != nil {
				return err
			}
			losses, err := e.metaInt64(ctx, metaKeyNumLosses, 0)
			if err != nil {
				return err
			}
			if err := batch.Set(store.CFMetadata, []byte(metaKeyNumWins), encodeInt64(wins+winsSinceFlush)); err != nil {
				return err
			}
			if err := batch.Set(store.CFMetadata, []byte(metaKeyNumLosses), encodeInt64(losses+lossesSinceFlush)); err != nil {
				return err
			}
		}
		if err := batch.Set(store.CFMetadata, []byte(metaKeyTerminalCursor), enginedb.EncodeStateID(newCursor)); err != nil {
			return err
		}
		if err := batch.Commit(ctx); err != nil {
			return err
		}
		batch = e.store.NewBatch()
		batchCount = 0
		winsSinceFlush = 0
		lossesSinceFlush = 0
		return nil
	}

	for ; it.Valid(); it.Next() {
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
		lastID = id

		if !info.IsResolved() {
			if r := e.adapter.Terminal(info.Packed); r != enginedb.ResultUnknown {
				info.Result = r
			} else if info.NumSuccessors == 0 {
				info.Result = enginedb.ResultLoss
			}
			if info.IsResolved() {
				if err := setStateInfo(batch, id, info); err != nil {
					return err
				}
				batchCount++
				switch info.Result {
				case enginedb.ResultWin:
					winsSinceFlush++
				case enginedb.ResultLoss:
					lossesSinceFlush++
				}
				metrics.TerminalsMarkedTotal.WithLabelValues(info.Result.String()).Inc()
			}
		}

		processedSince++
		if batchCount >= terminalBatchSize {
			if err := flushBatch(id + 1); err != nil {
				return err
			}
		}
		if processedSince >= terminalCheckpointStates || time.Since(lastCheckpoint) >= terminalCheckpointPeriod {
			if err := flushBatch(id + 1); err != nil {
				return err
			}
			processedSince = 0
			lastCheckpoint = time.Now()
		}
	}

	if err := flushBatch(lastID + 1); err != nil {
		return err
	}

	final := e.store.NewBatch()
	defer final.Discard()
	if err := final.Delete(store.CFMetadata, []byte(metaKeyTerminalCursor)); err != nil {
		return err
	}
	if err := final.Commit(ctx); err != nil {
		return err
	}

	return e.advancePhase(ctx, enginedb.PhasePropagating)
}
