package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
)

// Cell is the content of one board square.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

const (
	markX = "X"
	markO = "O"
)

// BoardSize is the number of cells on a 3x3 board.
const BoardSize = 9

// WinCombos lists every winning triple in the order they are checked.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Board is a row-major 3x3 snapshot. It is an array, so assigning or passing
// a Board copies it and a stored snapshot never changes behind its owner.
type Board [BoardSize]Cell

func (that Cell) String() string {
	switch that {
	case X:
		return markX
	case O:
		return markO
	default:
		return ""
	}
}

func (that Cell) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Cell) UnmarshalText(text []byte) error {
	switch string(text) {
	case "":
		*that = Empty
	case markX:
		*that = X
	case markO:
		*that = O
	default:
		return fmt.Errorf("%w: %q", apperror.ErrUnknownCellValue, text)
	}

	return nil
}

// MarkFor returns the mark placed by the player whose turn it is.
func MarkFor(isXTurn bool) Cell {
	if isXTurn {
		return X
	}
	return O
}

// Evaluate returns the owner of the first complete line, or Empty when no
// line is complete. A full board without a line also yields Empty.
func Evaluate(board Board) Cell {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != Empty && a == b && b == c {
			return a
		}
	}

	return Empty
}

// IsFull reports whether no empty cell is left.
func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == Empty {
			return false
		}
	}

	return true
}

// Diff returns the indexes whose content differs between two boards.
func (that Board) Diff(other Board) []int {
	var changed []int
	for i := range that {
		if that[i] != other[i] {
			changed = append(changed, i)
		}
	}

	return changed
}
