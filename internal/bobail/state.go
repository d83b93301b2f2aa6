// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package bobail implements the game-specific collaborator the
// retrograde solver is parametric over: packing and unpacking a
// 5x5 Bobail position into a 64-bit integer, legal move generation
// under the BGA "official" sliding rule, terminal classification, and
// symmetry canonicalization. Nothing in this package knows about the
// store, worker pools, or phases — it is pure combinatorial game
// logic, the same separation of concerns the original C++ solver
// drew between board.h/movegen.h/symmetry.h and its engine.
package bobail

import "fmt"

// BoardSize is the board's side length; the board has BoardSize^2
// squares, numbered 0..24 row-major.
const BoardSize = 5

// NumSquares is the total number of squares on the board.
const NumSquares = BoardSize * BoardSize

// PawnsPerSide is the number of pawns each player starts with.
const PawnsPerSide = 5

// State is a single Bobail position: which squares each side's pawns
// occupy, where the Bobail piece sits, and whose turn it is.
type State struct {
	WhitePawns  uint32 // bit i set => a white pawn sits on square i
	BlackPawns  uint32 // bit i set => a black pawn sits on square i
	BobailSq    uint8  // 0..24
	WhiteToMove bool
}

// StartingPosition returns the standard Bobail starting position:
// white pawns on row 0, black pawns on row 4, the Bobail at the
// center square, white to move.
func StartingPosition() State {
	return State{
		WhitePawns:  0b00000_00000_00000_00000_11111,
		BlackPawns:  0b11111_00000_00000_00000_00000,
		BobailSq:    12,
		WhiteToMove: true,
	}
}

// Row returns the row (0..4) of a square index.
func Row(sq int) int { return sq / BoardSize }

// Col returns the column (0..4) of a square index.
func Col(sq int) int { return sq % BoardSize }

// Square returns the square index for a (row, col) pair.
func Square(row, col int) int { return row*BoardSize + col }

// IsValidSquare reports whether sq is on the board.
func IsValidSquare(sq int) bool { return sq >= 0 && sq < NumSquares }

// Occupied returns a bitboard of every occupied square: both pawn
// sets plus the Bobail.
func (s State) Occupied() uint32 {
	return s.WhitePawns | s.BlackPawns | (1 << s.BobailSq)
}

// IsValid reports whether s has exactly PawnsPerSide pawns per side,
// no overlapping pieces, and a Bobail on a free, in-range square.
func (s State) IsValid() bool {
	if popcount32(s.WhitePawns) != PawnsPerSide || popcount32(s.BlackPawns) != PawnsPerSide {
		return false
	}
	if s.WhitePawns&s.BlackPawns != 0 {
		return false
	}
	if int(s.BobailSq) >= NumSquares {
		return false
	}
	bobailBit := uint32(1) << s.BobailSq
	return s.WhitePawns&bobailBit == 0 && s.BlackPawns&bobailBit == 0
}

func popcount32(x uint32) int {
	n := 0
	for x != 0 {
		x &= x - 1
		n++
	}
	return n
}

// String renders the position as a 5x5 grid for debugging.
func (s State) String() string {
	mover := "Black"
	if s.WhiteToMove {
		mover = "White"
	}
	out := fmt.Sprintf("%s to move\n  01234\n", mover)
	for r := 0; r < BoardSize; r++ {
		out += fmt.Sprintf("%d ", r)
		for c := 0; c < BoardSize; c++ {
			sq := Square(r, c)
			switch {
			case sq == int(s.BobailSq):
				out += "B"
			case s.WhitePawns&(1<<uint(sq)) != 0:
				out += "W"
			case s.BlackPawns&(1<<uint(sq)) != 0:
				out += "X"
			default:
				out += "."
			}
		}
		out += "\n"
	}
	return out
}

// Pack encodes s into its 64-bit canonical-packed-state form:
// bits 0-24 white pawns, bits 25-49 black pawns, bits 50-54 the
// Bobail square, bit 55 the side to move.
func Pack(s State) uint64 {
	packed := uint64(s.WhitePawns)
	packed |= uint64(s.BlackPawns) << 25
	packed |= uint64(s.BobailSq) << 50
	if s.WhiteToMove {
		packed |= 1 << 55
	}
	return packed
}

// Unpack decodes a packed state produced by Pack.
func Unpack(packed uint64) State {
	return State{
		WhitePawns:  uint32(packed & 0x1FFFFFF),
		BlackPawns:  uint32((packed >> 25) & 0x1FFFFFF),
		BobailSq:    uint8((packed >> 50) & 0x1F),
		WhiteToMove: (packed>>55)&1 == 1,
	}
}
