package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

type memoryEntry struct {
	snapshot  entity.Snapshot
	expiresAt time.Time
}

func (that memoryEntry) expired(now time.Time) bool {
	return !now.Before(that.expiresAt)
}

type memoryGame struct {
	mu        sync.Mutex
	games     map[string]memoryEntry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryGameRepository(ttl time.Duration) GameRepository {
	return newMemoryGameRepository(ttl, time.Now)
}

func newMemoryGameRepository(ttl time.Duration, now func() time.Time) *memoryGame {
	return &memoryGame{
		games:     make(map[string]memoryEntry),
		ttl:       ttl,
		now:       now,
		lastSweep: now(),
	}
}

func (that *memoryGame) Save(_ context.Context, sessionID string, snapshot *entity.Snapshot) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	now := that.now()
	that.sweep(now)

	that.games[sessionID] = memoryEntry{
		snapshot:  copySnapshot(snapshot),
		expiresAt: now.Add(that.ttl),
	}

	return nil
}

func (that *memoryGame) GetByID(_ context.Context, sessionID string) (*entity.Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	now := that.now()

	entry, ok := that.lookup(sessionID, now)
	if !ok {
		return nil, fmt.Errorf("game %s: %w", sessionID, apperror.ErrNotFound)
	}

	entry.expiresAt = now.Add(that.ttl)
	that.games[sessionID] = entry

	snapshot := copySnapshot(&entry.snapshot)

	return &snapshot, nil
}

func (that *memoryGame) DeleteByID(_ context.Context, sessionID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.lookup(sessionID, that.now()); !ok {
		return fmt.Errorf("game %s: %w", sessionID, apperror.ErrNotFound)
	}

	delete(that.games, sessionID)

	return nil
}

// lookup returns a live entry and drops it when it has expired. Callers hold mu.
func (that *memoryGame) lookup(sessionID string, now time.Time) (memoryEntry, bool) {
	entry, ok := that.games[sessionID]
	if !ok {
		return memoryEntry{}, false
	}

	if entry.expired(now) {
		delete(that.games, sessionID)
		return memoryEntry{}, false
	}

	return entry, true
}

// sweep drops abandoned sessions, at most once per TTL. Callers hold mu.
func (that *memoryGame) sweep(now time.Time) {
	if now.Sub(that.lastSweep) < that.ttl {
		return
	}

	that.lastSweep = now

	for sessionID, entry := range that.games {
		if entry.expired(now) {
			delete(that.games, sessionID)
		}
	}
}

func copySnapshot(snapshot *entity.Snapshot) entity.Snapshot {
	return entity.Snapshot{
		History: slices.Clone(snapshot.History),
		Pointer: snapshot.Pointer,
	}
}
