// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/jasondaming/bobail-solver/internal/config"
	"github.com/jasondaming/bobail-solver/internal/enginedb"
	"github.com/jasondaming/bobail-solver/internal/obslog"
	"github.com/jasondaming/bobail-solver/internal/store"
)

// nimAdapter is a subtraction game (take 1 or 2 stones, last move
// wins) used as a small, hand-verifiable GameAdapter: positions whose
// pile size is a multiple of 3 are losses for the side to move, every
// other pile size is a win. It exercises the full phase pipeline
// without the combinatorial size of an actual Bobail enumeration.
type nimAdapter struct{ start uint64 }

func (n nimAdapter) StartingPacked() uint64       { return n.start }
func (n nimAdapter) Canonicalize(p uint64) uint64 { return p }

func (n nimAdapter) Moves(p uint64) []Move {
	if p == 0 {
		return nil
	}
	var moves []Move
	for _, take := range []uint64{1, 2} {
		if p >= take {
			moves = append(moves, Move{
				Description: fmt.Sprintf("take%d", take),
				ChildPacked: p - take,
			})
		}
	}
	return moves
}

func (n nimAdapter) Terminal(p uint64) enginedb.Result {
	if p == 0 {
		return enginedb.ResultLoss
	}
	return enginedb.ResultUnknown
}

func newTestEngine(t *testing.T, start uint64) *Engine {
	t.Helper()
	st := store.NewMemStore()
	cfg := config.Default()
	cfg.InMemory = true
	cfg.EnumerateWorkers = 2
	cfg.PredecessorWorkers = 2
	cfg.PropagationWorkers = 2
	cfg.PredecessorShardCount = 3

	e, err := New(context.Background(), st, nimAdapter{start: start}, cfg, obslog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func TestEngine_SolveResolvesSubtractionGame(t *testing.T) {
	e := newTestEngine(t, 4)
	ctx := context.Background()

	if err := e.Solve(ctx); err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	phase, err := e.Phase(ctx)
	if err != nil {
		t.Fatalf("Phase() error = %v", err)
	}
	if phase != enginedb.PhaseComplete {
		t.Fatalf("Phase() = %v, want COMPLETE", phase)
	}

	want := map[uint64]enginedb.Result{
		0: enginedb.ResultLoss,
		1: enginedb.ResultWin,
		2: enginedb.ResultWin,
		3: enginedb.ResultLoss,
		4: enginedb.ResultWin,
	}
	for packed, expected := range want {
		got, err := e.Result(ctx, packed)
		if err != nil {
			t.Fatalf("Result(%d) error = %v", packed, err)
		}
		if got != expected {
			t.Errorf("Result(%d) = %v, want %v", packed, got, expected)
		}
	}
}

func TestEngine_StatusReportsCountersAfterSolve(t *testing.T) {
	e := newTestEngine(t, 4)
	ctx := context.Background()

	if err := e.Solve(ctx); err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	status, err := e.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.Phase != enginedb.PhaseComplete {
		t.Errorf("Status().Phase = %v, want COMPLETE", status.Phase)
	}
	if status.NumStates != e.NumStates() {
		t.Errorf("Status().NumStates = %d, want %d", status.NumStates, e.NumStates())
	}
	if status.NumWins+status.NumLosses+status.NumDraws != int64(status.NumStates) {
		t.Errorf("Status() win+loss+draw = %d, want %d (num states)",
			status.NumWins+status.NumLosses+status.NumDraws, status.NumStates)
	}
	// Pile size 0 is terminal/LOSS, 3 is a stalemate-free LOSS, 1/2/4 are WIN.
	if status.NumWins != 3 || status.NumLosses != 2 {
		t.Errorf("Status() = wins=%d losses=%d, want wins=3 losses=2", status.NumWins, status.NumLosses)
	}
}

func TestEngine_StartingResultMatchesResult(t *testing.T) {
	e := newTestEngine(t, 4)
	ctx := context.Background()
	if err := e.Solve(ctx); err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	sr, err := e.StartingResult(ctx)
	if err != nil {
		t.Fatalf("StartingResult() error = %v", err)
	}
	if sr != enginedb.ResultWin {
		t.Errorf("StartingResult() = %v, want WIN", sr)
	}
}

func TestEngine_BestMoveFromWinPrefersLossChild(t *testing.T) {
	e := newTestEngine(t, 4)
	ctx := context.Background()
	if err := e.Solve(ctx); err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	bm, ok, err := e.BestMove(ctx, 4)
	if err != nil {
		t.Fatalf("BestMove() error = %v", err)
	}
	if !ok {
		t.Fatal("BestMove() reported no move for a non-terminal WIN position")
	}
	if bm.ChildResult != enginedb.ResultLoss {
		t.Errorf("BestMove() child result = %v, want LOSS (the take1 -> 3 line)", bm.ChildResult)
	}
	if bm.Description != "take1" {
		t.Errorf("BestMove() description = %q, want %q", bm.Description, "take1")
	}
}

func TestEngine_BestMoveFromLossHasNoDrawOption(t *testing.T) {
	e := newTestEngine(t, 4)
	ctx := context.Background()
	if err := e.Solve(ctx); err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	bm, ok, err := e.BestMove(ctx, 3)
	if err != nil {
		t.Fatalf("BestMove() error = %v", err)
	}
	if !ok {
		t.Fatal("BestMove() reported no move for a non-terminal LOSS position")
	}
	if bm.ChildResult != enginedb.ResultWin {
		t.Errorf("BestMove() from a forced loss with no draws = %v, want WIN (every move loses)", bm.ChildResult)
	}
}

func TestEngine_BestMoveFromTerminalReturnsFalse(t *testing.T) {
	e := newTestEngine(t, 4)
	ctx := context.Background()
	if err := e.Solve(ctx); err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	_, ok, err := e.BestMove(ctx, 0)
	if err != nil {
		t.Fatalf("BestMove() error = %v", err)
	}
	if ok {
		t.Error("BestMove() on a terminal state should report no move")
	}
}

func TestEngine_SolveIsResumableAcrossPhaseBoundaries(t *testing.T) {
	st := store.NewMemStore()
	cfg := config.Default()
	cfg.InMemory = true
	cfg.EnumerateWorkers = 1
	cfg.PredecessorWorkers = 1
	cfg.PropagationWorkers = 1
	cfg.PredecessorShardCount = 2
	ctx := context.Background()

	e1, err := New(ctx, st, nimAdapter{start: 4}, cfg, obslog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := e1.enumerateOnly(ctx); err != nil {
		t.Fatalf("enumerateOnly() error = %v", err)
	}

	phase, err := e1.Phase(ctx)
	if err != nil {
		t.Fatalf("Phase() error = %v", err)
	}
	if phase != enginedb.PhaseBuildingPredecessors {
		t.Fatalf("Phase() after enumeration = %v, want BUILDING_PREDECESSORS", phase)
	}

	// A second Engine instance opened over the same store resumes from
	// the persisted phase rather than re-enumerating from scratch.
	e2, err := New(ctx, st, nimAdapter{start: 4}, cfg, obslog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := e2.registry.NumStates(); got != e1.registry.NumStates() {
		t.Errorf("resumed registry NumStates() = %d, want %d", got, e1.registry.NumStates())
	}
	if err := e2.Solve(ctx); err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	sr, err := e2.StartingResult(ctx)
	if err != nil {
		t.Fatalf("StartingResult() error = %v", err)
	}
	if sr != enginedb.ResultWin {
		t.Errorf("StartingResult() after resume = %v, want WIN", sr)
	}
}

// enumerateOnly runs just Phase 1, for resumption tests that need to
// inspect state between phases.
func (e *Engine) enumerateOnly(ctx context.Context) error {
	phase, err := e.Phase(ctx)
	if err != nil {
		return err
	}
	if phase == enginedb.PhaseNotStarted {
		if err := e.initializeStartingState(ctx); err != nil {
			return err
		}
	}
	return e.enumerate(ctx)
}
