package tictactoe

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/samber/lo"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

const (
	labelGameStart = "Go to game start"
	labelMove      = "Go to move #%d"

	statusWinner = "Winner: %s"
	statusNext   = "Next player: %s"
)

// MoveEntry is one item of the move list shown next to the board.
type MoveEntry struct {
	Move    int    `json:"move"`
	Label   string `json:"label"`
	Current bool   `json:"current"`
}

// State is a read-only view of a game at its current pointer.
type State struct {
	Board   entity.Board `json:"board"`
	XIsNext bool         `json:"x_is_next"`
	Winner  entity.Cell  `json:"winner"`
	Status  string       `json:"status"`
	Pointer int          `json:"pointer"`
	Moves   []MoveEntry  `json:"moves"`
}

type subscriber struct {
	id int
	fn func(State)
}

// Controller owns the ordered board history of one game and the index of the
// board on display. Turn and winner are always derived from the pointer and
// the displayed board. A Controller is not safe for concurrent use.
type Controller struct {
	logger *slog.Logger

	history []entity.Board
	pointer int

	subscribers []subscriber
	nextSubID   int
}

func NewController(logger *slog.Logger) *Controller {
	return &Controller{
		logger:  logger.With("component", "history"),
		history: []entity.Board{{}},
	}
}

// Restore rebuilds a controller from a stored snapshot.
func Restore(logger *slog.Logger, snapshot *entity.Snapshot) (*Controller, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("failed to restore game: %w", err)
	}

	controller := NewController(logger)
	controller.history = slices.Clone(snapshot.History)
	controller.pointer = snapshot.Pointer

	return controller, nil
}

// Snapshot returns a copy of the history and pointer.
func (that *Controller) Snapshot() *entity.Snapshot {
	return &entity.Snapshot{
		History: slices.Clone(that.history),
		Pointer: that.pointer,
	}
}

// Play drops every board after the pointer, appends next and moves the
// pointer to it. The board is not validated.
func (that *Controller) Play(next entity.Board) {
	that.history = append(that.history[:that.pointer+1], next)
	that.pointer = len(that.history) - 1

	that.notify()
}

// PlayMove places the current player's mark at cell. Illegal moves leave the
// game untouched and return false.
func (that *Controller) PlayMove(cell int) bool {
	next, err := ApplyMove(that.CurrentBoard(), cell, that.IsXNext())
	if err != nil {
		that.logger.Debug("ignoring move", "cell", cell, "pointer", that.pointer, "reason", err)
		return false
	}

	that.Play(next)

	return true
}

// JumpTo moves the pointer to an earlier or later board. History is kept.
func (that *Controller) JumpTo(move int) error {
	if move < 0 || move >= len(that.history) {
		return fmt.Errorf("%w: move %d, history length %d", apperror.ErrMoveOutOfRange, move, len(that.history))
	}

	that.pointer = move
	that.notify()

	return nil
}

func (that *Controller) CurrentBoard() entity.Board {
	return that.history[that.pointer]
}

func (that *Controller) IsXNext() bool {
	return that.pointer%2 == 0
}

func (that *Controller) Pointer() int {
	return that.pointer
}

func (that *Controller) Len() int {
	return len(that.history)
}

// Board returns the snapshot stored at move.
func (that *Controller) Board(move int) (entity.Board, error) {
	if move < 0 || move >= len(that.history) {
		return entity.Board{}, fmt.Errorf("%w: move %d", apperror.ErrMoveOutOfRange, move)
	}

	return that.history[move], nil
}

// Winner evaluates the displayed board.
func (that *Controller) Winner() entity.Cell {
	return entity.Evaluate(that.CurrentBoard())
}

// Status is the line shown above the board. A drawn board keeps showing the
// next player.
func (that *Controller) Status() string {
	if winner := that.Winner(); winner != entity.Empty {
		return fmt.Sprintf(statusWinner, winner)
	}

	return fmt.Sprintf(statusNext, entity.MarkFor(that.IsXNext()))
}

// Moves returns one entry per stored board.
func (that *Controller) Moves() []MoveEntry {
	return lo.Map(that.history, func(_ entity.Board, move int) MoveEntry {
		label := labelGameStart
		if move > 0 {
			label = fmt.Sprintf(labelMove, move)
		}

		return MoveEntry{
			Move:    move,
			Label:   label,
			Current: move == that.pointer,
		}
	})
}

func (that *Controller) State() State {
	return State{
		Board:   that.CurrentBoard(),
		XIsNext: that.IsXNext(),
		Winner:  that.Winner(),
		Status:  that.Status(),
		Pointer: that.pointer,
		Moves:   that.Moves(),
	}
}

// Subscribe registers fn to be called after every accepted play and every
// jump. The returned func removes the subscription.
func (that *Controller) Subscribe(fn func(State)) func() {
	id := that.nextSubID
	that.nextSubID++

	that.subscribers = append(that.subscribers, subscriber{id: id, fn: fn})

	return func() {
		that.subscribers = slices.DeleteFunc(that.subscribers, func(s subscriber) bool {
			return s.id == id
		})
	}
}

func (that *Controller) notify() {
	if len(that.subscribers) == 0 {
		return
	}

	state := that.State()
	for _, s := range that.subscribers {
		s.fn(state)
	}
}
