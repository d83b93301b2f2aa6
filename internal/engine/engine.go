// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package engine implements the out-of-core retrograde-analysis
// solver: four resumable phases driven by a store.Store and a
// pluggable GameAdapter. The package knows nothing about Bobail
// specifically; internal/bobail.Adapter supplies the game-specific
// behavior through the GameAdapter interface in adapter.go.
package engine

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/jasondaming/bobail-solver/internal/config"
	"github.com/jasondaming/bobail-solver/internal/enginedb"
	"github.com/jasondaming/bobail-solver/internal/metrics"
	"github.com/jasondaming/bobail-solver/internal/obslog"
	"github.com/jasondaming/bobail-solver/internal/store"
)

// Metadata keys used in the "metadata" column family. Plain ASCII
// strings, matching the teacher's own preference for readable
// metadata keys over a packed binary scheme.
const (
	metaKeyPhase           = "phase"
	metaKeyNumStates       = "num_states"
	metaKeyQueueHead       = "queue_head"
	metaKeyQueueTail       = "queue_tail"
	metaKeyEnumProcessed   = "enum_processed"
	metaKeyTerminalCursor  = "terminal_checkpoint"
	metaKeyPropHead        = "prop_head"
	metaKeyPropTail        = "prop_tail"
	metaKeyPropCount       = "prop_checkpoint_count"
	metaKeyNumWins         = "num_wins"
	metaKeyNumLosses       = "num_losses"
	metaKeyNumDraws        = "num_draws"
	metaKeyStartID         = "start_id"
)

// ProgressCallback is invoked after each phase completes, reporting
// the phase just finished and the current state count.
type ProgressCallback func(phase enginedb.Phase, numStates uint32)

// Engine orchestrates a full solve run: it owns the store and the
// game adapter, and drives the four phases in order, resuming from
// whatever phase was last persisted.
type Engine struct {
	store    store.Store
	adapter  GameAdapter
	cfg      config.Config
	logger   *obslog.Logger
	registry *registry
	bloom    *bloomFilter

	onProgress ProgressCallback
}

// New constructs an Engine over an already-open store and a game
// adapter, reading whatever phase/num_states metadata the store
// already holds (zero values for a brand-new store).
func New(ctx context.Context, st store.Store, adapter GameAdapter, cfg config.Config, logger *obslog.Logger) (*Engine, error) {
	if logger == nil {
		logger = obslog.Default()
	}
	numStates, err := metaUint32(ctx, st, metaKeyNumStates, 0)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		store:   st,
		adapter: adapter,
		cfg:     cfg,
		logger:  logger,
		bloom:   newBloomFilter(cfg.BloomFilterBits, uint32(cfg.BloomFilterHashes)),
	}
	e.registry = newRegistry(st, numStates)

	if numStates > 0 {
		if err := e.rebuildBloomFromStore(ctx); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// SetProgressCallback installs a hook invoked after each phase
// transition.
func (e *Engine) SetProgressCallback(cb ProgressCallback) { e.onProgress = cb }

// NumStates returns the number of distinct states the registry has
// assigned an ID to so far.
func (e *Engine) NumStates() uint32 { return e.registry.NumStates() }

// Status summarizes a solve run's persisted progress, the fields the
// CLI's status command prints.
type Status struct {
	Phase     enginedb.Phase
	NumStates uint32
	NumWins   int64
	NumLosses int64
	NumDraws  int64
}

// Status reads the solve's current persisted phase and counters.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	phase, err := e.Phase(ctx)
	if err != nil {
		return Status{}, err
	}
	wins, err := e.metaInt64(ctx, metaKeyNumWins, 0)
	if err != nil {
		return Status{}, err
	}
	losses, err := e.metaInt64(ctx, metaKeyNumLosses, 0)
	if err != nil {
		return Status{}, err
	}
	draws, err := e.metaInt64(ctx, metaKeyNumDraws, 0)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Phase:     phase,
		NumStates: e.NumStates(),
		NumWins:   wins,
		NumLosses: losses,
		NumDraws:  draws,
	}, nil
}

// rebuildBloomFromStore repopulates the in-memory bloom filter from
// packed_to_id after a restart; correctness never depends on this
// (the registry is authoritative), only enumeration throughput.
func (e *Engine) rebuildBloomFromStore(ctx context.Context) error {
	it := e.store.NewIterator(store.CFPackedToID, store.IterOptions{})
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		packed, err := enginedb.DecodePacked(it.Key())
		if err != nil {
			return err
		}
		e.bloom.Add(packed)
	}
	return nil
}

// Phase returns the solve's current persisted phase.
func (e *Engine) Phase(ctx context.Context) (enginedb.Phase, error) {
	v, err := e.store.Get(ctx, store.CFMetadata, []byte(metaKeyPhase))
	if err != nil {
		if err == store.ErrNotFound {
			return enginedb.PhaseNotStarted, nil
		}
		return enginedb.PhaseNotStarted, err
	}
	if len(v) < 1 {
		return enginedb.PhaseNotStarted, fmt.Errorf("engine: empty phase record")
	}
	return enginedb.Phase(v[0]), nil
}

// Solve drives the engine through every remaining phase in order,
// resuming from whatever phase was last persisted. It returns when
// the solve reaches PhaseComplete, ctx is canceled, or a phase fails.
func (e *Engine) Solve(ctx context.Context) error {
	phase, err := e.Phase(ctx)
	if err != nil {
		return err
	}

	if phase == enginedb.PhaseNotStarted {
		if err := e.initializeStartingState(ctx); err != nil {
			return err
		}
		phase = enginedb.PhaseEnumerating
	}

	for phase != enginedb.PhaseComplete {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		var runErr error
		switch phase {
		case enginedb.PhaseEnumerating:
			runErr = e.enumerate(ctx)
		case enginedb.PhaseBuildingPredecessors:
			runErr = e.buildPredecessors(ctx)
		case enginedb.PhaseMarkingTerminals:
			runErr = e.markTerminals(ctx)
		case enginedb.PhasePropagating:
			runErr = e.propagate(ctx)
		default:
			return fmt.Errorf("engine: unknown phase %v", phase)
		}

		status := "ok"
		if runErr != nil {
			status = "error"
		}
		metrics.PhaseDurationSeconds.WithLabelValues(phase.String(), status).Observe(time.Since(start).Seconds())
		if runErr != nil {
			return fmt.Errorf("engine: phase %s failed: %w", phase, runErr)
		}

		phase, err = e.Phase(ctx)
		if err != nil {
			return err
		}
		if e.onProgress != nil {
			e.onProgress(phase, e.registry.NumStates())
		}
	}

	return e.store.Sync()
}

// initializeStartingState allocates the canonical starting state as
// ID 0 and seeds the enumeration queue with it, then advances phase
// to ENUMERATING. This is the only point in the engine at which
// metaKeyStartID is written; store.ImportLegacyCheckpoint also writes
// it.
func (e *Engine) initializeStartingState(ctx context.Context) error {
	packed := e.adapter.StartingPacked()
	id, err := e.registry.GetOrCreate(ctx, packed)
	if err != nil {
		return err
	}

	b := e.store.NewBatch()
	defer b.Discard()
	if err := b.Set(store.CFQueue, enginedb.EncodeQueueIndex(0), enginedb.EncodeStateID(id)); err != nil {
		return err
	}
	if err := b.Set(store.CFMetadata, []byte(metaKeyQueueHead), enginedb.EncodeQueueIndex(0)); err != nil {
		return err
	}
	if err := b.Set(store.CFMetadata, []byte(metaKeyQueueTail), enginedb.EncodeQueueIndex(1)); err != nil {
		return err
	}
	if err := b.Set(store.CFMetadata, []byte(metaKeyStartID), enginedb.EncodeStateID(id)); err != nil {
		return err
	}
	if err := b.Set(store.CFMetadata, []byte(metaKeyPhase), []byte{byte(enginedb.PhaseEnumerating)}); err != nil {
		return err
	}
	return b.Commit(ctx)
}

// advancePhase persists next as the current phase. Called only after
// every write of the phase being left has been committed, per the
// ordering guarantee the whole engine relies on for crash safety.
func (e *Engine) advancePhase(ctx context.Context, next enginedb.Phase) error {
	b := e.store.NewBatch()
	defer b.Discard()
	if err := b.Set(store.CFMetadata, []byte(metaKeyPhase), []byte{byte(next)}); err != nil {
		return err
	}
	if err := b.Commit(ctx); err != nil {
		return err
	}
	e.logger.Info("phase advanced", "phase", next.String())
	return nil
}

func (e *Engine) addMetaCounters(ctx context.Context, deltaWins, deltaLosses, deltaDraws int64) error {
	wins, err := e.metaInt64(ctx, metaKeyNumWins, 0)
	if err != nil {
		return err
	}
	losses, err := e.metaInt64(ctx, metaKeyNumLosses, 0)
	if err != nil {
		return err
	}
	draws, err := e.metaInt64(ctx, metaKeyNumDraws, 0)
	if err != nil {
		return err
	}

	b := e.store.NewBatch()
	defer b.Discard()
	if err := b.Set(store.CFMetadata, []byte(metaKeyNumWins), encodeInt64(wins+deltaWins)); err != nil {
		return err
	}
	if err := b.Set(store.CFMetadata, []byte(metaKeyNumLosses), encodeInt64(losses+deltaLosses)); err != nil {
		return err
	}
	if err := b.Set(store.CFMetadata, []byte(metaKeyNumDraws), encodeInt64(draws+deltaDraws)); err != nil {
		return err
	}
	return b.Commit(ctx)
}

func (e *Engine) metaUint64(ctx context.Context, key string, def uint64) (uint64, error) {
	v, err := e.store.Get(ctx, store.CFMetadata, []byte(key))
	if err != nil {
		if err == store.ErrNotFound {
			return def, nil
		}
		return 0, err
	}
	if len(v) < 8 {
		return 0, fmt.Errorf("engine: metadata key %q too short", key)
	}
	return binary.LittleEndian.Uint64(v), nil
}

func (e *Engine) metaInt64(ctx context.Context, key string, def int64) (int64, error) {
	v, err := e.metaUint64(ctx, key, uint64(def))
	return int64(v), err
}

func metaUint32(ctx context.Context, st store.Store, key string, def uint32) (uint32, error) {
	v, err := st.Get(ctx, store.CFMetadata, []byte(key))
	if err != nil {
		if err == store.ErrNotFound {
			return def, nil
		}
		return 0, err
	}
	id, err := enginedb.DecodeStateID(v)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func encodeInt64(v int64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(v))
	return buf
}
