// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package enginedb

import (
	"encoding/binary"
	"fmt"
)

// PredecessorShardKeySize is the width of a predecessors-CF key:
// id(4) ∥ shard(1).
const PredecessorShardKeySize = 5

// LegacyShardByte is a reserved shard byte that no Phase 2 worker
// writes under, and the legacy importer (§4.10) writes no predecessor
// entries at all. Readback always includes it alongside the live
// worker shards, so any entry stored under it is read back too.
const LegacyShardByte = 0xFF

// EncodePredecessorKey builds the compound key `id ∥ shard` used by
// the predecessors column family: id is little-endian per the
// store's encoding rule, shard is a single byte identifying the
// Phase 2 worker (or LegacyShardByte) that wrote this entry.
func EncodePredecessorKey(id uint32, shard uint8) []byte {
	buf := make([]byte, PredecessorShardKeySize)
	binary.LittleEndian.PutUint32(buf[0:4], id)
	buf[4] = shard
	return buf
}

// DecodePredecessorKey splits a predecessors-CF key back into its id
// and shard components.
func DecodePredecessorKey(key []byte) (id uint32, shard uint8, err error) {
	if len(key) < PredecessorShardKeySize {
		return 0, 0, fmt.Errorf("enginedb: predecessor key too short: got %d bytes, want %d", len(key), PredecessorShardKeySize)
	}
	return binary.LittleEndian.Uint32(key[0:4]), key[4], nil
}

// EncodeIDList serializes a slice of state IDs as a concatenation of
// little-endian u32 values, the value format for a predecessors-CF
// shard entry.
func EncodeIDList(ids []uint32) []byte {
	buf := make([]byte, len(ids)*4)
	for i, id := range ids {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], id)
	}
	return buf
}

// DecodeIDList parses a concatenated little-endian u32 list back into
// a slice. A value whose length is not a multiple of 4 is truncated
// to the last whole ID, which can only happen on a corrupted store.
func DecodeIDList(value []byte) []uint32 {
	n := len(value) / 4
	ids := make([]uint32, n)
	for i := 0; i < n; i++ {
		ids[i] = binary.LittleEndian.Uint32(value[i*4 : i*4+4])
	}
	return ids
}

// EncodeQueueIndex encodes a propagation/enumeration queue slot index
// as its 8-byte little-endian key form.
func EncodeQueueIndex(index uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, index)
	return buf
}
