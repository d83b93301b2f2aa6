// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasondaming/bobail-solver/internal/enginedb"
)

func writeU(t *testing.T, buf *bytes.Buffer, v any) {
	t.Helper()
	require.NoError(t, binary.Write(buf, binary.LittleEndian, v))
}

func buildLegacyCheckpoint(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("BBCK")
	writeU(t, &buf, uint32(1)) // version
	writeU(t, &buf, uint32(enginedb.PhaseComplete))
	writeU(t, &buf, uint64(1)) // num_wins
	writeU(t, &buf, uint64(1)) // num_losses
	writeU(t, &buf, uint64(0)) // num_draws
	writeU(t, &buf, uint32(0)) // start_id
	writeU(t, &buf, uint64(2)) // enum_processed
	writeU(t, &buf, uint64(2)) // num_states

	// state 0: start, WIN, 1 successor, 0 winning succs
	writeU(t, &buf, uint64(0xAAAA))
	writeU(t, &buf, uint8(enginedb.ResultWin))
	writeU(t, &buf, uint16(1))
	writeU(t, &buf, uint16(0))

	// state 1: terminal LOSS
	writeU(t, &buf, uint64(0xBBBB))
	writeU(t, &buf, uint8(enginedb.ResultLoss))
	writeU(t, &buf, uint16(0))
	writeU(t, &buf, uint16(0))

	writeU(t, &buf, uint64(1)) // queue_size
	writeU(t, &buf, uint32(0)) // queued id

	return buf.Bytes()
}

func TestImportLegacyCheckpoint_PopulatesStatesAndMetadata(t *testing.T) {
	data := buildLegacyCheckpoint(t)
	dst := NewMemStore()
	defer dst.Close()

	require.NoError(t, ImportLegacyCheckpoint(context.Background(), dst, bytes.NewReader(data)))

	info0, err := dst.Get(context.Background(), CFStates, enginedb.EncodeStateID(0))
	require.NoError(t, err)
	decoded0, err := enginedb.DecodeStateInfo(info0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xAAAA), decoded0.Packed)
	assert.Equal(t, enginedb.ResultWin, decoded0.Result)

	id, err := dst.Get(context.Background(), CFPackedToID, enginedb.EncodePacked(0xBBBB))
	require.NoError(t, err)
	gotID, err := enginedb.DecodeStateID(id)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), gotID)

	phaseBytes, err := dst.Get(context.Background(), CFMetadata, []byte("phase"))
	require.NoError(t, err)
	assert.Equal(t, enginedb.PhaseComplete, enginedb.Phase(phaseBytes[0]))

	numStatesBytes, err := dst.Get(context.Background(), CFMetadata, []byte("num_states"))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), binary.LittleEndian.Uint64(numStatesBytes))
}

func TestImportLegacyCheckpoint_DoesNotPopulatePredecessors(t *testing.T) {
	data := buildLegacyCheckpoint(t)
	dst := NewMemStore()
	defer dst.Close()
	require.NoError(t, ImportLegacyCheckpoint(context.Background(), dst, bytes.NewReader(data)))

	it := dst.NewIterator(CFPredecessors, IterOptions{})
	defer it.Close()
	it.Rewind()
	assert.False(t, it.Valid(), "legacy import must not populate the predecessors CF")
}

func TestImportLegacyCheckpoint_RejectsBadMagic(t *testing.T) {
	bad := []byte("NOPE0000")
	dst := NewMemStore()
	defer dst.Close()
	err := ImportLegacyCheckpoint(context.Background(), dst, bytes.NewReader(bad))
	assert.Error(t, err)
}
