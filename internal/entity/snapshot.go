package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
)

// Snapshot is the serialisable form of a game history kept between requests.
type Snapshot struct {
	History []Board `json:"history"`
	Pointer int     `json:"pointer"`
}

// Validate checks the history invariants: it starts from the empty board,
// every step fills exactly one empty cell, and the pointer is in range.
func (that *Snapshot) Validate() error {
	if len(that.History) == 0 {
		return fmt.Errorf("%w: empty history", apperror.ErrInvalidSnapshot)
	}

	if that.History[0] != (Board{}) {
		return fmt.Errorf("%w: history does not start from an empty board", apperror.ErrInvalidSnapshot)
	}

	for i := 1; i < len(that.History); i++ {
		prev, next := that.History[i-1], that.History[i]

		changed := prev.Diff(next)
		if len(changed) != 1 || prev[changed[0]] != Empty || next[changed[0]] == Empty {
			return fmt.Errorf("%w: step %d does not fill exactly one cell", apperror.ErrInvalidSnapshot, i)
		}
	}

	if that.Pointer < 0 || that.Pointer >= len(that.History) {
		return fmt.Errorf("%w: pointer %d, history length %d", apperror.ErrInvalidSnapshot, that.Pointer, len(that.History))
	}

	return nil
}
