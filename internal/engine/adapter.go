// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import "github.com/jasondaming/bobail-solver/internal/enginedb"

// Move is a single legal move out of a state, as reported by a
// GameAdapter: a human-readable description (for best_move output)
// paired with the already-canonicalized packed successor.
type Move struct {
	Description string
	ChildPacked uint64
}

// GameAdapter is the pluggable game-specific collaborator the engine
// is parametric over. The engine package never inspects a packed
// state's bits; every board-specific rule lives on the other side of
// this interface.
type GameAdapter interface {
	// StartingPacked returns the canonical packed form of the game's
	// initial position.
	StartingPacked() uint64

	// Canonicalize returns the canonical representative of packed's
	// symmetry orbit.
	Canonicalize(packed uint64) uint64

	// Moves returns every legal move from packed. An empty result
	// means packed has no legal moves.
	Moves(packed uint64) []Move

	// Terminal classifies packed from the perspective of its side to
	// move, or returns enginedb.ResultUnknown if packed is not
	// immediately terminal.
	Terminal(packed uint64) enginedb.Result
}
