package entity

import (
	"fmt"

	"github.com/gridplay/tictactoe-backend/internal/apperror"
)

const (
	PlayerX = "X"
	PlayerO = "O"

	EmptyCell = ""

	boardSize     = 9
	boardRowWidth = 3

	emptyCellSymbol = ' '
)

// Board - a 3x3 grid in row-major order. Treated as a value: every
// transition copies it instead of mutating in place.
type Board [boardSize]string

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (that Position) Index() int {
	return that.Row*boardRowWidth + that.Col
}

func (that Position) IsValid() bool {
	return that.Row >= 0 && that.Row < boardRowWidth && that.Col >= 0 && that.Col < boardRowWidth
}

// PositionFromIndex - converts a linear cell index in [0,8] to a Position.
func PositionFromIndex(index int) (Position, error) {
	if index < 0 || index >= boardSize {
		return Position{}, fmt.Errorf("%w: index %d", apperror.ErrInvalidCell, index)
	}

	return Position{Row: index / boardRowWidth, Col: index % boardRowWidth}, nil
}

// EncodeBoard - renders the board as a 9-character string, row-major,
// one symbol per cell ('X', 'O' or ' ').
func EncodeBoard(board Board) string {
	encoded := make([]byte, boardSize)
	for i, cell := range board {
		if cell == EmptyCell {
			encoded[i] = emptyCellSymbol
			continue
		}
		encoded[i] = cell[0]
	}

	return string(encoded)
}

// DecodeBoard - the inverse of EncodeBoard.
func DecodeBoard(encoded string) (Board, error) {
	var board Board

	if len(encoded) != boardSize {
		return board, fmt.Errorf("%w: length %d", apperror.ErrBadEncoding, len(encoded))
	}

	for i := range board {
		switch encoded[i] {
		case emptyCellSymbol:
			board[i] = EmptyCell
		case 'X':
			board[i] = PlayerX
		case 'O':
			board[i] = PlayerO
		default:
			return Board{}, fmt.Errorf("%w: symbol %q at cell %d", apperror.ErrBadEncoding, encoded[i], i)
		}
	}

	return board, nil
}
