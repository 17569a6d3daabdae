package entity

import (
	"testing"

	"github.com/gridplay/tictactoe-backend/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosition(t *testing.T) {
	t.Run("Index and PositionFromIndex are mutually inverse", func(t *testing.T) {
		// Given: every linear index in range
		for i := 0; i < 9; i++ {
			// When: converting to a position and back
			pos, err := PositionFromIndex(i)

			// Then: the round trip is the identity
			require.NoError(t, err)
			assert.True(t, pos.IsValid())
			assert.Equal(t, i, pos.Index())
		}
	})

	t.Run("Rejects out of range indices", func(t *testing.T) {
		for _, i := range []int{-1, 9, 100} {
			_, err := PositionFromIndex(i)

			require.ErrorIs(t, err, apperror.ErrInvalidCell)
		}
	})
}

func TestBoardEncoding(t *testing.T) {
	t.Run("Empty board encodes to nine blanks", func(t *testing.T) {
		assert.Equal(t, "         ", EncodeBoard(Board{}))
	})

	t.Run("Round trip is the identity for a played board", func(t *testing.T) {
		// Given: a board reached by legal play
		state := playMoves(t, NewGameState(),
			Position{0, 0}, Position{1, 1}, Position{0, 1}, Position{2, 2})

		// When: encoding and decoding
		decoded, err := DecodeBoard(EncodeBoard(state.Board))

		// Then: the original board comes back
		require.NoError(t, err)
		assert.Equal(t, state.Board, decoded)
	})

	t.Run("Encodes marks row-major", func(t *testing.T) {
		board := Board{PlayerX, EmptyCell, PlayerO, EmptyCell, PlayerX, EmptyCell, EmptyCell, EmptyCell, PlayerO}

		assert.Equal(t, "X O X   O", EncodeBoard(board))
	})

	t.Run("Rejects wrong length", func(t *testing.T) {
		for _, encoded := range []string{"", "XO", "XOXOXOXOXO"} {
			_, err := DecodeBoard(encoded)

			require.ErrorIs(t, err, apperror.ErrBadEncoding)
		}
	})

	t.Run("Rejects unknown symbols", func(t *testing.T) {
		_, err := DecodeBoard("XOXOXOXO?")

		require.ErrorIs(t, err, apperror.ErrBadEncoding)
	})
}
