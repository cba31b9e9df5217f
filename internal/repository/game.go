package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

const gameKeyPrefix = "game:"

// GameRepository keeps the game of every browser session until the session
// expires.
type GameRepository interface {
	Save(ctx context.Context, sessionID string, snapshot *entity.Snapshot) error
	GetByID(ctx context.Context, sessionID string) (*entity.Snapshot, error)
	DeleteByID(ctx context.Context, sessionID string) error
}

type redisGame struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGameRepository(client *redis.Client, ttl time.Duration) GameRepository {
	return &redisGame{
		client: client,
		ttl:    ttl,
	}
}

func (that *redisGame) Save(ctx context.Context, sessionID string, snapshot *entity.Snapshot) error {
	gameJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	if err = that.client.Set(ctx, gameKeyPrefix+sessionID, gameJSON, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	return nil
}

// GetByID - returns the stored game and extends its expiration.
func (that *redisGame) GetByID(ctx context.Context, sessionID string) (*entity.Snapshot, error) {
	response, err := that.client.GetEx(ctx, gameKeyPrefix+sessionID, that.ttl).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("game %s: %w", sessionID, apperror.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	var snapshot entity.Snapshot
	if err = json.Unmarshal([]byte(response), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game %s: %w: %w", sessionID, apperror.ErrInvalidSnapshot, err)
	}

	return &snapshot, nil
}

func (that *redisGame) DeleteByID(ctx context.Context, sessionID string) error {
	deleted, err := that.client.Del(ctx, gameKeyPrefix+sessionID).Result()
	if err != nil {
		return fmt.Errorf("failed to delete game by id: %w", err)
	}

	if deleted == 0 {
		return fmt.Errorf("game %s: %w", sessionID, apperror.ErrNotFound)
	}

	return nil
}
