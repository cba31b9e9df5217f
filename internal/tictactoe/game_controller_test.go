package tictactoe

import (
	"testing"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMove(t *testing.T) {
	t.Run("Places X on X's turn", func(t *testing.T) {
		// Given: an empty board
		board := entity.Board{}

		// When: X plays the first cell
		next, err := ApplyMove(board, 0, true)
		require.NoError(t, err)

		// Then: only the new board carries the mark
		assert.Equal(t, entity.Board{entity.X}, next)
		assert.Equal(t, entity.Board{}, board)
	})

	t.Run("Places O on O's turn", func(t *testing.T) {
		// Given: a board after X's first move
		board := entity.Board{entity.X}

		// When: O plays the center
		next, err := ApplyMove(board, 4, false)
		require.NoError(t, err)

		// Then: the center is O
		assert.Equal(t, entity.O, next[4])
	})

	t.Run("Error on cell already occupied", func(t *testing.T) {
		// Given: a board where X has played cell 0
		board, err := ApplyMove(entity.Board{}, 0, true)
		require.NoError(t, err)

		// When: the same cell is played again
		next, err := ApplyMove(board, 0, false)

		// Then: the move is rejected and the board is unchanged
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, board, next)
	})

	t.Run("Move After Game Finished", func(t *testing.T) {
		// Given: a board where X has completed the top row
		board := entity.Board{
			entity.X, entity.X, entity.X,
			entity.Empty, entity.O, entity.O,
			entity.Empty, entity.Empty, entity.Empty,
		}

		// When: O tries to play an empty cell
		next, err := ApplyMove(board, 3, false)

		// Then: ErrGameFinished is returned and the board is unchanged
		require.ErrorIs(t, err, apperror.ErrGameFinished)
		assert.Equal(t, board, next)
	})

	t.Run("Invalid Cell", func(t *testing.T) {
		for _, cell := range []int{-1, 9, 20} {
			// When: an index outside the board is played
			_, err := ApplyMove(entity.Board{}, cell, true)

			// Then: ErrInvalidCell is returned
			assert.ErrorIs(t, err, apperror.ErrInvalidCell, "cell %d", cell)
		}
	})
}
