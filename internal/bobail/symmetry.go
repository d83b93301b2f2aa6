// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package bobail

import "math/bits"

// The 5x5 board admits the full 8-element dihedral group of symmetries
// (4 rotations x 2 reflections), but only two of them — identity and
// the horizontal mirror (col -> BoardSize-1-col) — map row 0 to row 0
// and row 4 to row 4 individually. Every other symmetry either swaps
// the two goal rows (180° rotation, vertical mirror) or maps rows to
// columns entirely (the 90°/270° rotations and their reflected
// variants), which would corrupt the row-based terminal test in
// Terminal. Canonicalize therefore only searches this 2-element
// subgroup, not the original's full 8. Orbits hold at most 2 states
// instead of up to 8, so there are more canonical states to solve, but
// every member of an orbit still shares one result and best move,
// which is all correctness requires.
func mirrorHorizontal(sq int) int {
	return Square(Row(sq), BoardSize-1-Col(sq))
}

func transformBitboard(bb uint32, transform func(int) int) uint32 {
	var result uint32
	for bb != 0 {
		sq := bits.TrailingZeros32(bb)
		bb &= bb - 1
		result |= 1 << uint(transform(sq))
	}
	return result
}

func applyMirror(s State) State {
	return State{
		WhitePawns:  transformBitboard(s.WhitePawns, mirrorHorizontal),
		BlackPawns:  transformBitboard(s.BlackPawns, mirrorHorizontal),
		BobailSq:    uint8(mirrorHorizontal(int(s.BobailSq))),
		WhiteToMove: s.WhiteToMove,
	}
}

// Canonicalize returns the lexicographically smallest packed form of
// s across the goal-row-preserving symmetry subgroup {identity,
// horizontal mirror}.
func Canonicalize(s State) State {
	best := s
	bestPacked := Pack(s)

	mirrored := applyMirror(s)
	if p := Pack(mirrored); p < bestPacked {
		best = mirrored
	}
	return best
}

// CanonicalizePacked is Canonicalize operating directly on packed
// representations, avoiding an unpack/pack round trip when the caller
// already has the packed form (the engine's hot path).
func CanonicalizePacked(packed uint64) uint64 {
	s := Unpack(packed)
	mirrored := applyMirror(s)
	mirroredPacked := Pack(mirrored)
	if mirroredPacked < packed {
		return mirroredPacked
	}
	return packed
}
