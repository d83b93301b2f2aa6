// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/jasondaming/bobail-solver/internal/enginedb"
)

// legacyMagic identifies a pre-KV-store checkpoint file.
var legacyMagic = [4]byte{'B', 'B', 'C', 'K'}

const legacySupportedVersion = 1

// ImportLegacyCheckpoint parses a binary checkpoint produced by the
// predecessor file-based solver and populates states, packed_to_id,
// queue, and metadata in dst. It does not populate predecessors. The
// imported phase is stored as read: when it is BUILDING_PREDECESSORS
// or earlier, Phase 2 derives the predecessor graph the same way a
// fresh enumeration would; a later phase does not re-run Phase 2.
//
// The binary layout, little-endian throughout, is:
//
//	magic[4] = "BBCK"
//	version:u32 = 1
//	phase:u32
//	num_wins:u64, num_losses:u64, num_draws:u64
//	start_id:u32
//	enum_processed:u64
//	num_states:u64
//	  repeat num_states: packed:u64, result:u8, num_successors:u16, winning_succs:u16
//	queue_size:u64
//	  repeat queue_size: id:u32
func ImportLegacyCheckpoint(ctx context.Context, dst Store, r io.Reader) error {
	br := bufio.NewReaderSize(r, 1<<20)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return fmt.Errorf("store: reading legacy checkpoint magic: %w", err)
	}
	if !bytes.Equal(magic[:], legacyMagic[:]) {
		return fmt.Errorf("store: not a legacy checkpoint file (bad magic %q)", magic)
	}

	var version uint32
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("store: reading legacy checkpoint version: %w", err)
	}
	if version != legacySupportedVersion {
		return fmt.Errorf("store: unsupported legacy checkpoint version %d", version)
	}

	var phase uint32
	var numWins, numLosses, numDraws uint64
	var startID uint32
	var enumProcessed uint64
	var numStates uint64
	for _, field := range []any{&phase, &numWins, &numLosses, &numDraws, &startID, &enumProcessed, &numStates} {
		if err := binary.Read(br, binary.LittleEndian, field); err != nil {
			return fmt.Errorf("store: reading legacy checkpoint header: %w", err)
		}
	}

	batch := dst.NewBatch()
	defer batch.Discard()

	const flushEvery = 50_000
	flush := func() error {
		if err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("store: committing legacy import batch: %w", err)
		}
		batch = dst.NewBatch()
		return nil
	}

	for i := uint64(0); i < numStates; i++ {
		var packed uint64
		var result uint8
		var numSuccessors, winningSuccs uint16
		if err := binary.Read(br, binary.LittleEndian, &packed); err != nil {
			return fmt.Errorf("store: reading legacy state %d packed value: %w", i, err)
		}
		if err := binary.Read(br, binary.LittleEndian, &result); err != nil {
			return fmt.Errorf("store: reading legacy state %d result: %w", i, err)
		}
		if err := binary.Read(br, binary.LittleEndian, &numSuccessors); err != nil {
			return fmt.Errorf("store: reading legacy state %d num_successors: %w", i, err)
		}
		if err := binary.Read(br, binary.LittleEndian, &winningSuccs); err != nil {
			return fmt.Errorf("store: reading legacy state %d winning_succs: %w", i, err)
		}

		id := uint32(i)
		info := enginedb.StateInfo{
			Packed:        packed,
			Result:        enginedb.Result(result),
			NumSuccessors: numSuccessors,
			WinningSuccs:  winningSuccs,
		}
		if err := batch.Set(CFStates, enginedb.EncodeStateID(id), info.Bytes()); err != nil {
			return err
		}
		if err := batch.Set(CFPackedToID, enginedb.EncodePacked(packed), enginedb.EncodeStateID(id)); err != nil {
			return err
		}

		if (i+1)%flushEvery == 0 {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	var queueSize uint64
	if err := binary.Read(br, binary.LittleEndian, &queueSize); err != nil {
		return fmt.Errorf("store: reading legacy checkpoint queue size: %w", err)
	}
	for i := uint64(0); i < queueSize; i++ {
		var id uint32
		if err := binary.Read(br, binary.LittleEndian, &id); err != nil {
			return fmt.Errorf("store: reading legacy queue entry %d: %w", i, err)
		}
		if err := batch.Set(CFQueue, enginedb.EncodeQueueIndex(i), enginedb.EncodeStateID(id)); err != nil {
			return err
		}
		if (i+1)%flushEvery == 0 {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	metaFields := map[string]uint64{
		"num_wins":       numWins,
		"num_losses":     numLosses,
		"num_draws":      numDraws,
		"enum_processed": enumProcessed,
		"num_states":     numStates,
		"queue_head":     0,
		"queue_tail":     queueSize,
	}
	for key, v := range metaFields {
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, v)
		if err := batch.Set(CFMetadata, []byte(key), buf); err != nil {
			return err
		}
	}
	startIDBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(startIDBuf, startID)
	if err := batch.Set(CFMetadata, []byte("start_id"), startIDBuf); err != nil {
		return err
	}
	if err := batch.Set(CFMetadata, []byte("phase"), []byte{byte(enginedb.Phase(phase))}); err != nil {
		return err
	}

	if err := flush(); err != nil {
		return err
	}
	return dst.Sync()
}
