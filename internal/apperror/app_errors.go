package apperror

import "errors"

var (
	ErrGameFinished     = errors.New("game is already finished")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrInvalidCell      = errors.New("invalid cell index")
	ErrMoveOutOfRange   = errors.New("move is out of history range")
	ErrInvalidSnapshot  = errors.New("invalid game snapshot")
	ErrNotFound         = errors.New("not found")
	ErrUnknownCellValue = errors.New("unknown cell value")
)
