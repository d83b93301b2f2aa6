// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package bobail

import (
	"fmt"

	"github.com/jasondaming/bobail-solver/internal/enginedb"
	"github.com/jasondaming/bobail-solver/internal/engine"
)

// Adapter implements engine.GameAdapter for 5x5 Bobail under the BGA
// "official" sliding rule. It is the sole place in the repository
// that knows Bobail's rules; the engine package only ever sees opaque
// packed uint64 states and engine.Move values.
type Adapter struct{}

// NewAdapter returns a ready-to-use Bobail game adapter.
func NewAdapter() Adapter { return Adapter{} }

// StartingPacked implements engine.GameAdapter.
func (Adapter) StartingPacked() uint64 {
	return Pack(Canonicalize(StartingPosition()))
}

// Canonicalize implements engine.GameAdapter.
func (Adapter) Canonicalize(packed uint64) uint64 {
	return CanonicalizePacked(packed)
}

// Moves implements engine.GameAdapter, generating every legal move
// from packed and canonicalizing each resulting child.
func (Adapter) Moves(packed uint64) []engine.Move {
	s := Unpack(packed)
	legal := GenerateMoves(s)
	moves := make([]engine.Move, 0, len(legal))
	for _, m := range legal {
		child := ApplyMove(s, m)
		moves = append(moves, engine.Move{
			Description: moveString(m),
			ChildPacked: CanonicalizePacked(Pack(child)),
		})
	}
	return moves
}

// Terminal implements engine.GameAdapter.
func (Adapter) Terminal(packed uint64) enginedb.Result {
	return Terminal(Unpack(packed))
}

func moveString(m Move) string {
	if m.PawnFrom == m.PawnTo {
		return fmt.Sprintf("Bobail->%d", m.BobailTo)
	}
	return fmt.Sprintf("Bobail->%d Pawn:%d->%d", m.BobailTo, m.PawnFrom, m.PawnTo)
}

var _ engine.GameAdapter = Adapter{}
