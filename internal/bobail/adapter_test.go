// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package bobail

import (
	"testing"

	"github.com/jasondaming/bobail-solver/internal/enginedb"
)

func TestAdapter_StartingPackedIsCanonical(t *testing.T) {
	a := NewAdapter()
	packed := a.StartingPacked()
	if packed != a.Canonicalize(packed) {
		t.Error("StartingPacked() should already be canonical")
	}
}

func TestAdapter_MovesProducesCanonicalChildren(t *testing.T) {
	a := NewAdapter()
	packed := a.StartingPacked()
	moves := a.Moves(packed)
	if len(moves) == 0 {
		t.Fatal("expected moves from the starting position")
	}
	for _, m := range moves {
		if m.ChildPacked != a.Canonicalize(m.ChildPacked) {
			t.Errorf("move %q produced a non-canonical child", m.Description)
		}
		if m.Description == "" {
			t.Error("expected a non-empty move description")
		}
	}
}

func TestAdapter_TerminalUnknownAtStart(t *testing.T) {
	a := NewAdapter()
	if got := a.Terminal(a.StartingPacked()); got != enginedb.ResultUnknown {
		t.Errorf("Terminal(start) = %v, want UNKNOWN", got)
	}
}

func TestAdapter_TerminalDetectsWin(t *testing.T) {
	a := NewAdapter()
	s := State{BobailSq: 2, WhiteToMove: false}
	if got := a.Terminal(Pack(s)); got != enginedb.ResultLoss {
		t.Errorf("Terminal() = %v, want LOSS", got)
	}
}
