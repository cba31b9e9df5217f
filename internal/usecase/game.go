package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/tictactoe"
)

type GameUseCase interface {
	GetState(ctx context.Context, sessionID string) (tictactoe.State, error)
	PlayMove(ctx context.Context, sessionID string, cell int) (tictactoe.State, error)
	JumpTo(ctx context.Context, sessionID string, move int) (tictactoe.State, error)
	NewGame(ctx context.Context, sessionID string) (tictactoe.State, error)

	Subscribe(sessionID string) (<-chan tictactoe.State, func())
}

type gameRepo interface {
	Save(ctx context.Context, sessionID string, snapshot *entity.Snapshot) error
	GetByID(ctx context.Context, sessionID string) (*entity.Snapshot, error)
	DeleteByID(ctx context.Context, sessionID string) error
}

type gameUseCase struct {
	logger   *slog.Logger
	gameRepo gameRepo
	hub      *hub

	// every operation loads, changes and stores a whole game
	mu sync.Mutex
}

func NewGameUseCase(logger *slog.Logger, gameRepo gameRepo) GameUseCase {
	return &gameUseCase{
		logger:   logger.With("component", "game"),
		gameRepo: gameRepo,
		hub:      newHub(),
	}
}

func (that *gameUseCase) GetState(ctx context.Context, sessionID string) (tictactoe.State, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	controller, _, err := that.loadGame(ctx, sessionID)
	if err != nil {
		return tictactoe.State{}, err
	}

	return controller.State(), nil
}

// PlayMove - plays cell for the player to move. An illegal move is not an
// error: the unchanged state is returned.
func (that *gameUseCase) PlayMove(ctx context.Context, sessionID string, cell int) (tictactoe.State, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	controller, changes, err := that.loadGame(ctx, sessionID)
	if err != nil {
		return tictactoe.State{}, err
	}

	if !controller.PlayMove(cell) {
		return controller.State(), nil
	}

	if err = that.saveGame(ctx, sessionID, controller); err != nil {
		return tictactoe.State{}, err
	}

	that.publish(sessionID, changes)

	return controller.State(), nil
}

func (that *gameUseCase) JumpTo(ctx context.Context, sessionID string, move int) (tictactoe.State, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	controller, changes, err := that.loadGame(ctx, sessionID)
	if err != nil {
		return tictactoe.State{}, err
	}

	if err = controller.JumpTo(move); err != nil {
		return tictactoe.State{}, fmt.Errorf("failed to jump: %w", err)
	}

	if err = that.saveGame(ctx, sessionID, controller); err != nil {
		return tictactoe.State{}, err
	}

	that.publish(sessionID, changes)

	return controller.State(), nil
}

// NewGame - drops the stored game of the session.
func (that *gameUseCase) NewGame(ctx context.Context, sessionID string) (tictactoe.State, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.gameRepo.DeleteByID(ctx, sessionID); err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return tictactoe.State{}, fmt.Errorf("failed to delete game: %w", err)
	}

	state := tictactoe.NewController(that.logger).State()
	that.hub.publish(sessionID, state)

	that.logger.Info("new game", "sessionID", sessionID)

	return state, nil
}

// Subscribe - streams every state change of the session's game.
func (that *gameUseCase) Subscribe(sessionID string) (<-chan tictactoe.State, func()) {
	return that.hub.subscribe(sessionID)
}

// pendingChanges holds the states a controller announced during one
// operation. They reach listeners only once the game is saved.
type pendingChanges struct {
	states []tictactoe.State
}

// loadGame - restores the session's game, or starts one when there is none.
func (that *gameUseCase) loadGame(ctx context.Context, sessionID string) (*tictactoe.Controller, *pendingChanges, error) {
	log := that.logger.With("method", "loadGame", "sessionID", sessionID)

	controller, err := that.restoreGame(ctx, sessionID)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		log.Debug("starting a new game")
		controller = tictactoe.NewController(that.logger)
	case errors.Is(err, apperror.ErrInvalidSnapshot):
		log.Warn("discarding corrupt game", "error", err)
		controller = tictactoe.NewController(that.logger)
	case err != nil:
		return nil, nil, err
	}

	changes := &pendingChanges{}
	controller.Subscribe(func(state tictactoe.State) {
		changes.states = append(changes.states, state)
	})

	return controller, changes, nil
}

func (that *gameUseCase) publish(sessionID string, changes *pendingChanges) {
	for _, state := range changes.states {
		that.hub.publish(sessionID, state)
	}
}

func (that *gameUseCase) restoreGame(ctx context.Context, sessionID string) (*tictactoe.Controller, error) {
	snapshot, err := that.gameRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	controller, err := tictactoe.Restore(that.logger, snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to restore game: %w", err)
	}

	return controller, nil
}

func (that *gameUseCase) saveGame(ctx context.Context, sessionID string, controller *tictactoe.Controller) error {
	if err := that.gameRepo.Save(ctx, sessionID, controller.Snapshot()); err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}

	return nil
}
