// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package enginedb defines the on-disk record types shared by every
// solve phase: the persisted Phase counter and the fixed-width
// StateInfo record. Both are encoded without relying on encoding/gob
// or reflection-based codecs, because the wire format is a contract
// other tooling (the legacy checkpoint importer, §6) depends on byte
// for byte.
package enginedb

// Phase is one of the six persisted values a solve run passes through,
// in order: NOT_STARTED, the four working phases, and COMPLETE. It is persisted in the metadata column family so a solve can
// resume after a crash or an operator-initiated stop.
type Phase uint8

const (
	PhaseNotStarted Phase = iota
	PhaseEnumerating
	PhaseBuildingPredecessors
	PhaseMarkingTerminals
	PhasePropagating
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "NOT_STARTED"
	case PhaseEnumerating:
		return "ENUMERATING"
	case PhaseBuildingPredecessors:
		return "BUILDING_PREDECESSORS"
	case PhaseMarkingTerminals:
		return "MARKING_TERMINALS"
	case PhasePropagating:
		return "PROPAGATING"
	case PhaseComplete:
		return "COMPLETE"
	default:
		return "UNKNOWN_PHASE"
	}
}

// Next returns the phase that follows p. Calling Next on PhaseComplete
// returns PhaseComplete.
func (p Phase) Next() Phase {
	if p >= PhaseComplete {
		return PhaseComplete
	}
	return p + 1
}

// Result is the game-theoretic value of a state for the side to move.
type Result uint8

const (
	ResultUnknown Result = iota
	ResultWin
	ResultLoss
	ResultDraw
)

func (r Result) String() string {
	switch r {
	case ResultUnknown:
		return "UNKNOWN"
	case ResultWin:
		return "WIN"
	case ResultLoss:
		return "LOSS"
	case ResultDraw:
		return "DRAW"
	default:
		return "UNKNOWN_RESULT"
	}
}

// Opponent returns the result as seen by the state that moved into a
// state with result r: a child LOSS is a WIN opportunity for the
// parent, a child WIN is a LOSS-in-waiting for the parent, and a DRAW
// stays a DRAW either way.
func (r Result) Opponent() Result {
	switch r {
	case ResultWin:
		return ResultLoss
	case ResultLoss:
		return ResultWin
	default:
		return r
	}
}
