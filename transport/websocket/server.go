package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/tictactoe"
)

const (
	ActionGameState = "game:state"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type uGame interface {
	GetState(ctx context.Context, sessionID string) (tictactoe.State, error)
	Subscribe(sessionID string) (<-chan tictactoe.State, func())
}

// Message is what the browser receives on every change of its game.
type Message struct {
	Action  string           `json:"action"`
	Payload *tictactoe.State `json:"payload,omitempty"`
}

type Server struct {
	logger   *slog.Logger
	uGame    uGame
	upgrader websocket.Upgrader
}

func New(logger *slog.Logger, uGame uGame) *Server {
	return &Server{
		logger: logger.With("component", "websocket"),
		uGame:  uGame,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Serve - upgrades the connection, sends the current state and then every
// change of the session's game until the client goes away.
func (that *Server) Serve(w http.ResponseWriter, r *http.Request, sessionID string) {
	log := that.logger.With("method", "Serve", "sessionID", sessionID)

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	updates, unsubscribe := that.uGame.Subscribe(sessionID)
	defer unsubscribe()

	state, err := that.uGame.GetState(r.Context(), sessionID)
	if err != nil {
		log.Error("failed to get game state", "error", err)
		return
	}

	if err = that.send(conn, state); err != nil {
		log.Debug("failed to send state", "error", err)
		return
	}

	closed := that.readUntilClosed(conn)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case state, ok := <-updates:
			if !ok {
				return
			}

			if err = that.send(conn, state); err != nil {
				log.Debug("failed to send state", "error", err)
				return
			}
		case <-ticker.C:
			if err = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug("failed to ping", "error", err)
				return
			}
		case <-closed:
			log.Debug("client disconnected")
			return
		}
	}
}

func (that *Server) send(conn *websocket.Conn, state tictactoe.State) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return conn.WriteJSON(Message{Action: ActionGameState, Payload: &state})
}

// readUntilClosed drains client frames so control frames are handled, and
// closes the returned channel once the connection fails.
func (that *Server) readUntilClosed(conn *websocket.Conn) <-chan struct{} {
	closed := make(chan struct{})

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go func() {
		defer close(closed)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return closed
}
