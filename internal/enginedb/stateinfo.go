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

// StateInfoSize is the fixed on-disk width of a StateInfo record, in
// bytes: packed(8) + result(1) + num_successors(2) + winning_succs(2).
const StateInfoSize = 13

// StateInfo is the per-state record stored in the "states" column
// family, keyed by the state's dense arena ID.
//
// Invariants (enforced by the engine, not by this type):
//   - NumSuccessors is frozen at the state's first successful move
//     generation and never changes afterward.
//   - Result starts at ResultUnknown and is assigned exactly once.
//   - WinningSuccs never exceeds NumSuccessors.
type StateInfo struct {
	Packed        uint64
	Result        Result
	NumSuccessors uint16
	WinningSuccs  uint16
}

// Encode writes the StateInfo's 13-byte little-endian wire form into
// dst, which must be at least StateInfoSize bytes long. It returns the
// number of bytes written.
func (s StateInfo) Encode(dst []byte) int {
	_ = dst[StateInfoSize-1] // bounds check hint
	binary.LittleEndian.PutUint64(dst[0:8], s.Packed)
	dst[8] = byte(s.Result)
	binary.LittleEndian.PutUint16(dst[9:11], s.NumSuccessors)
	binary.LittleEndian.PutUint16(dst[11:13], s.WinningSuccs)
	return StateInfoSize
}

// Bytes is a convenience wrapper around Encode that allocates its own
// buffer, for call sites that need a []byte to hand to a Batch.
func (s StateInfo) Bytes() []byte {
	buf := make([]byte, StateInfoSize)
	s.Encode(buf)
	return buf
}

// DecodeStateInfo parses a 13-byte little-endian record produced by
// Encode. It returns an error if src is shorter than StateInfoSize.
func DecodeStateInfo(src []byte) (StateInfo, error) {
	if len(src) < StateInfoSize {
		return StateInfo{}, fmt.Errorf("enginedb: StateInfo record too short: got %d bytes, want %d", len(src), StateInfoSize)
	}
	return StateInfo{
		Packed:        binary.LittleEndian.Uint64(src[0:8]),
		Result:        Result(src[8]),
		NumSuccessors: binary.LittleEndian.Uint16(src[9:11]),
		WinningSuccs:  binary.LittleEndian.Uint16(src[11:13]),
	}, nil
}

// IsTerminal reports whether the state has no legal moves recorded.
// NumSuccessors is frozen at first move-gen, so this is stable once
// enumeration has processed the state.
func (s StateInfo) IsTerminal() bool {
	return s.NumSuccessors == 0
}

// IsResolved reports whether the state has a final, non-UNKNOWN result.
func (s StateInfo) IsResolved() bool {
	return s.Result != ResultUnknown
}

// EncodeStateID encodes a dense arena ID as its 4-byte little-endian
// form: the key layout of the "states" column family and the value
// layout of the "packed_to_id" column family.
func EncodeStateID(id uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, id)
	return buf
}

// DecodeStateID parses a 4-byte little-endian state ID key.
func DecodeStateID(key []byte) (uint32, error) {
	if len(key) < 4 {
		return 0, fmt.Errorf("enginedb: state ID key too short: got %d bytes, want 4", len(key))
	}
	return binary.LittleEndian.Uint32(key), nil
}

// EncodePacked encodes a packed board state as its 8-byte
// little-endian key form, matching the packed_to_id key layout.
// load_packed_cache does not rely on store key ordering to recover
// numeric order: it range-scans into a slice and sorts that slice by
// the decoded uint64, independent of the byte encoding.
func EncodePacked(packed uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, packed)
	return buf
}

// DecodePacked parses an 8-byte little-endian packed-state key.
func DecodePacked(key []byte) (uint64, error) {
	if len(key) < 8 {
		return 0, fmt.Errorf("enginedb: packed key too short: got %d bytes, want 8", len(key))
	}
	return binary.LittleEndian.Uint64(key), nil
}
