// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package bobail

import "testing"

func TestStartingPosition_IsValid(t *testing.T) {
	s := StartingPosition()
	if !s.IsValid() {
		t.Fatal("starting position should be valid")
	}
	if !s.WhiteToMove {
		t.Error("white should move first")
	}
	if s.BobailSq != 12 {
		t.Errorf("BobailSq = %d, want 12 (center)", s.BobailSq)
	}
}

func TestPackUnpack_RoundTrip(t *testing.T) {
	tests := []State{
		StartingPosition(),
		{WhitePawns: 0x1FFFFFF, BlackPawns: 0, BobailSq: 0, WhiteToMove: false},
		{WhitePawns: 0, BlackPawns: 0x1FFFFFF, BobailSq: 24, WhiteToMove: true},
	}
	for _, s := range tests {
		got := Unpack(Pack(s))
		if got != s {
			t.Errorf("round trip = %+v, want %+v", got, s)
		}
	}
}

func TestRowColSquare(t *testing.T) {
	for sq := 0; sq < NumSquares; sq++ {
		r, c := Row(sq), Col(sq)
		if Square(r, c) != sq {
			t.Errorf("Square(Row(%d), Col(%d)) = %d, want %d", sq, sq, Square(r, c), sq)
		}
	}
}

func TestIsValid_RejectsOverlap(t *testing.T) {
	s := StartingPosition()
	s.BlackPawns = s.WhitePawns // force overlap
	if s.IsValid() {
		t.Error("expected overlapping pawn sets to be invalid")
	}
}

func TestIsValid_RejectsBobailOnPawn(t *testing.T) {
	s := StartingPosition()
	s.BobailSq = 0 // occupied by a white pawn
	if s.IsValid() {
		t.Error("expected Bobail on an occupied square to be invalid")
	}
}
