// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package bobail

import "github.com/jasondaming/bobail-solver/internal/enginedb"

// winner is which side has won an immediately-terminal position, or
// neither if play continues.
type winner int

const (
	winnerNone winner = iota
	winnerWhite
	winnerBlack
)

// checkWinner reports the winner by the Bobail's row: reaching row 0
// (White's home row) wins for White, reaching row 4 (Black's home
// row) wins for Black. This looks backwards next to "push toward the
// opponent's goal" intuitions, but it is Bobail's actual win
// condition: landing the Bobail on your own home row wins.
func checkWinner(s State) winner {
	row := Row(int(s.BobailSq))
	switch row {
	case 0:
		return winnerWhite
	case BoardSize - 1:
		return winnerBlack
	default:
		return winnerNone
	}
}

// Terminal classifies s from the perspective of the side to move in
// s, returning ResultUnknown if s is not immediately terminal.
//
// A state is terminal either because the Bobail already sits on a
// goal row (the previous ply ended the game) or because the side to
// move has no legal moves (a stalemate-like loss). Terminal performs
// only the goal-row check; GenerateMoves does not consult goal rows,
// so callers that also want the "no legal moves" case should check
// NumSuccessors == 0 themselves, as Phase 3 does.
func Terminal(s State) enginedb.Result {
	if w := checkWinner(s); w != winnerNone {
		sideToMoveWon := (w == winnerWhite) == s.WhiteToMove
		if sideToMoveWon {
			return enginedb.ResultWin
		}
		return enginedb.ResultLoss
	}
	return enginedb.ResultUnknown
}
