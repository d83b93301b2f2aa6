// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"testing"

	"github.com/jasondaming/bobail-solver/internal/config"
	"github.com/jasondaming/bobail-solver/internal/enginedb"
	"github.com/jasondaming/bobail-solver/internal/obslog"
	"github.com/jasondaming/bobail-solver/internal/store"
)

func TestEngine_MarkTerminalsSetsTerminalAndStalemateResults(t *testing.T) {
	st := store.NewMemStore()
	cfg := config.Default()
	cfg.InMemory = true
	e, err := New(context.Background(), st, nimAdapter{start: 4}, cfg, obslog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	// id 0: terminal per adapter (packed=0 -> LOSS).
	// id 1: not terminal per adapter, but has zero successors recorded
	// (a stalemate-like position) -> the "else if num_successors == 0"
	// rule should still mark it LOSS.
	// id 2: has successors and is not terminal -> stays UNKNOWN.
	b := st.NewBatch()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("batch Set() error = %v", err)
		}
	}
	must(setStateInfo(b, 0, enginedb.StateInfo{Packed: 0, NumSuccessors: 0}))
	must(setStateInfo(b, 1, enginedb.StateInfo{Packed: 50, NumSuccessors: 0}))
	must(setStateInfo(b, 2, enginedb.StateInfo{Packed: 99, NumSuccessors: 3}))
	if err := b.Commit(ctx); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	if err := e.markTerminals(ctx); err != nil {
		t.Fatalf("markTerminals() error = %v", err)
	}

	info0, err := getStateInfo(ctx, st, 0)
	if err != nil {
		t.Fatalf("getStateInfo(0) error = %v", err)
	}
	if info0.Result != enginedb.ResultLoss {
		t.Errorf("state 0 result = %v, want LOSS (adapter terminal)", info0.Result)
	}

	info1, err := getStateInfo(ctx, st, 1)
	if err != nil {
		t.Fatalf("getStateInfo(1) error = %v", err)
	}
	if info1.Result != enginedb.ResultLoss {
		t.Errorf("state 1 result = %v, want LOSS (zero successors)", info1.Result)
	}

	info2, err := getStateInfo(ctx, st, 2)
	if err != nil {
		t.Fatalf("getStateInfo(2) error = %v", err)
	}
	if info2.Result != enginedb.ResultUnknown {
		t.Errorf("state 2 result = %v, want UNKNOWN", info2.Result)
	}

	phase, err := e.Phase(ctx)
	if err != nil {
		t.Fatalf("Phase() error = %v", err)
	}
	if phase != enginedb.PhasePropagating {
		t.Errorf("Phase() after markTerminals = %v, want PROPAGATING", phase)
	}

	if _, err := st.Get(ctx, store.CFMetadata, []byte(metaKeyTerminalCursor)); err != store.ErrNotFound {
		t.Errorf("terminal cursor should be deleted on completion, got err = %v", err)
	}
}
