package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

// ApplyMove returns a copy of board with the current player's mark placed at
// cell. When the move is not allowed the input board is returned unchanged
// together with the reason.
func ApplyMove(board entity.Board, cell int, isXTurn bool) (entity.Board, error) {
	if err := validateMove(board, cell); err != nil {
		return board, fmt.Errorf("move rejected: %w", err)
	}

	next := board
	next[cell] = entity.MarkFor(isXTurn)

	return next, nil
}

// validateMove - checks if the move is valid.
func validateMove(board entity.Board, cell int) error {
	if entity.Evaluate(board) != entity.Empty {
		return apperror.ErrGameFinished
	}

	if cell < 0 || cell >= len(board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if board[cell] != entity.Empty {
		return apperror.ErrCellOccupied
	}

	return nil
}
