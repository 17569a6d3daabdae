package entity

import (
	"fmt"

	"github.com/gridplay/tictactoe-backend/internal/apperror"
)

// WinLines - the eight winning lines: 3 rows, 3 columns, 2 diagonals.
// Scan order is fixed so WinningLine is deterministic.
var WinLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// ApplyMove - places the current mover's mark at pos and returns the
// resulting state. The input state is never mutated: a rejected move
// leaves it untouched, an accepted one produces a new value with the
// status recomputed (win before draw) and the turn flipped while the
// game is still running.
func ApplyMove(state GameState, pos Position) (GameState, error) {
	if state.Status != StatusInProgress {
		return state, apperror.ErrGameFinished
	}

	if !pos.IsValid() {
		return state, fmt.Errorf("%w: row %d col %d", apperror.ErrInvalidCell, pos.Row, pos.Col)
	}

	if state.Board[pos.Index()] != EmptyCell {
		return state, apperror.ErrCellOccupied
	}

	next := state
	next.Board[pos.Index()] = state.Turn
	next.MoveCount++

	switch winner := WinningLine(next.Board); {
	case winner == PlayerX:
		next.Status = StatusXWon
		next.Winner = PlayerX
	case winner == PlayerO:
		next.Status = StatusOWon
		next.Winner = PlayerO
	case next.MoveCount == boardSize:
		next.Status = StatusDraw
	default:
		next.Turn = OppositeMark(state.Turn)
	}

	return next, nil
}

// WinningLine - returns the mark occupying a complete line, or EmptyCell.
// Legal alternating play can complete a line for at most one mark.
func WinningLine(board Board) string {
	for _, line := range WinLines {
		a, b, c := board[line[0]], board[line[1]], board[line[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	return EmptyCell
}

// HeuristicValue - +1.0 if forMark has won, -1.0 if the opponent has won,
// 0.0 for anything still running or drawn.
func HeuristicValue(state GameState, forMark string) float64 {
	switch state.Status {
	case StatusXWon:
		if forMark == PlayerX {
			return 1.0
		}
		return -1.0
	case StatusOWon:
		if forMark == PlayerO {
			return 1.0
		}
		return -1.0
	default:
		return 0.0
	}
}

// LegalMoves - all empty cells, row-major; empty when the game is over.
func LegalMoves(state GameState) []Position {
	if state.Status != StatusInProgress {
		return nil
	}

	moves := make([]Position, 0, boardSize-state.MoveCount)
	for i, cell := range state.Board {
		if cell == EmptyCell {
			pos, _ := PositionFromIndex(i)
			moves = append(moves, pos)
		}
	}

	return moves
}

func OppositeMark(mark string) string {
	if mark == PlayerX {
		return PlayerO
	}
	return PlayerX
}
