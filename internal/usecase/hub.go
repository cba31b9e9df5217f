package usecase

import (
	"sync"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/tictactoe"
)

const subscriberBuffer = 16

// hub fans state changes out to the listeners of a session. A listener that
// does not keep up loses updates instead of blocking the game.
type hub struct {
	mu        sync.Mutex
	listeners map[string]map[int]chan tictactoe.State
	nextID    int
}

func newHub() *hub {
	return &hub{
		listeners: make(map[string]map[int]chan tictactoe.State),
	}
}

func (that *hub) subscribe(sessionID string) (<-chan tictactoe.State, func()) {
	that.mu.Lock()
	defer that.mu.Unlock()

	id := that.nextID
	that.nextID++

	ch := make(chan tictactoe.State, subscriberBuffer)
	if that.listeners[sessionID] == nil {
		that.listeners[sessionID] = make(map[int]chan tictactoe.State)
	}
	that.listeners[sessionID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			that.mu.Lock()
			defer that.mu.Unlock()

			delete(that.listeners[sessionID], id)
			if len(that.listeners[sessionID]) == 0 {
				delete(that.listeners, sessionID)
			}
			close(ch)
		})
	}
}

func (that *hub) publish(sessionID string, state tictactoe.State) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for _, ch := range that.listeners[sessionID] {
		select {
		case ch <- state:
		default:
		}
	}
}
