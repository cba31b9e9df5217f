// Package suite runs the redis session store tests against a real redis.
package suite

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/repository/storage"
)

// SessionTTL is the game lifetime the store tests run with.
const SessionTTL = time.Hour

// gameKeyPrefix mirrors the key layout of the redis game store.
const gameKeyPrefix = "game:"

const (
	containerLifetime = uint(120)
	startupTimeout    = 2 * time.Minute
	redisPort         = "6379/tcp"
)

type Suite struct {
	*testing.T
	Logger     *slog.Logger
	SessionTTL time.Duration

	Storage *redis.Client
}

// New - gives the test an empty redis behind the same client the app
// uses. Skipped in -short mode or without a docker daemon.
func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	if testing.Short() {
		t.Skip("redis session store tests need docker")
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	t.Cleanup(cancel)

	client := startRedis(ctx, t)

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush session store: %v", err)
	}

	return ctx, &Suite{
		T:          t,
		Logger:     slog.New(slog.NewJSONHandler(io.Discard, nil)),
		SessionTTL: SessionTTL,
		Storage:    client,
	}
}

// GameKey is where the store keeps the game of a session.
func (that *Suite) GameKey(sessionID string) string {
	return gameKeyPrefix + sessionID
}

// GameTTL reports how long the stored game of a session has left.
func (that *Suite) GameTTL(ctx context.Context, sessionID string) time.Duration {
	that.Helper()

	ttl, err := that.Storage.TTL(ctx, that.GameKey(sessionID)).Result()
	if err != nil {
		that.Fatalf("read ttl of %s: %v", sessionID, err)
	}

	return ttl
}

// PutRawGame stores a value for a session bypassing the store's encoding.
func (that *Suite) PutRawGame(ctx context.Context, sessionID, value string) {
	that.Helper()

	if err := that.Storage.Set(ctx, that.GameKey(sessionID), value, that.SessionTTL).Err(); err != nil {
		that.Fatalf("store raw game of %s: %v", sessionID, err)
	}
}

func startRedis(ctx context.Context, t *testing.T) *redis.Client {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}

	if err = pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "alpine",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Errorf("purge redis container: %v", err)
		}
	})

	// hard kill if cleanup never runs
	_ = resource.Expire(containerLifetime)

	pool.MaxWait = startupTimeout

	var client *redis.Client
	if err = pool.Retry(func() error {
		client, err = storage.New(ctx, resource.GetHostPort(redisPort))
		return err
	}); err != nil {
		t.Fatalf("connect to redis: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })

	return client
}
