package rest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/repository"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-timetravel/transport/websocket"
)

type testClient struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func newTestServer(t *testing.T, options Options) *Server {
	t.Helper()

	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gameUseCase := usecase.NewGameUseCase(logger, repository.NewMemoryGameRepository(time.Hour))

	return New(logger, options, gameUseCase, websocket.New(logger, gameUseCase))
}

func defaultOptions() Options {
	return Options{SessionTTL: time.Hour, RateLimitRPS: 1000, RateLimitBurst: 1000}
}

func newTestClient(t *testing.T, server *Server) *testClient {
	t.Helper()

	return &testClient{t: t, handler: server.Handler()}
}

func (that *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	that.t.Helper()

	if that.cookie != nil {
		req.AddCookie(that.cookie)
	}

	w := httptest.NewRecorder()
	that.handler.ServeHTTP(w, req)

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == SessionCookieName {
			that.cookie = cookie
		}
	}

	return w
}

func (that *testClient) postJSON(path, body string) *httptest.ResponseRecorder {
	that.t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	return that.do(req)
}

func (that *testClient) postForm(path string, values url.Values) *httptest.ResponseRecorder {
	that.t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return that.do(req)
}

func (that *testClient) get(path string) *httptest.ResponseRecorder {
	that.t.Helper()

	return that.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) tictactoe.State {
	t.Helper()

	var state tictactoe.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))

	return state
}

func TestPing(t *testing.T) {
	client := newTestClient(t, newTestServer(t, defaultOptions()))

	// When: ping is requested
	w := client.get("/ping")

	// Then: pong is returned
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestGameAPI(t *testing.T) {
	t.Run("New session gets a cookie and an empty board", func(t *testing.T) {
		client := newTestClient(t, newTestServer(t, defaultOptions()))

		// When: the game is requested without a cookie
		w := client.get("/api/game")

		// Then: a session cookie is issued and the game is fresh
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, client.cookie)
		assert.True(t, client.cookie.HttpOnly)

		state := decodeState(t, w)
		assert.Equal(t, entity.Board{}, state.Board)
		assert.Equal(t, "Next player: X", state.Status)
		assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
	})

	t.Run("Winning game ignores further moves", func(t *testing.T) {
		client := newTestClient(t, newTestServer(t, defaultOptions()))

		// Given: X plays 0, O plays 4, X plays 1, O plays 5, X plays 2
		var w *httptest.ResponseRecorder
		for _, body := range []string{`{"cell":0}`, `{"cell":4}`, `{"cell":1}`, `{"cell":5}`, `{"cell":2}`} {
			w = client.postJSON("/api/game/play", body)
			require.Equal(t, http.StatusOK, w.Code)
		}

		won := decodeState(t, w)
		assert.Equal(t, entity.X, won.Winner)
		assert.Equal(t, "Winner: X", won.Status)

		// When: another empty cell is played
		w = client.postJSON("/api/game/play", `{"cell":3}`)

		// Then: the request succeeds with the unchanged game
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, won, decodeState(t, w))
	})

	t.Run("Jump and replay discards the future", func(t *testing.T) {
		client := newTestClient(t, newTestServer(t, defaultOptions()))

		// Given: X at 0 and O at 4
		client.postJSON("/api/game/play", `{"cell":0}`)
		client.postJSON("/api/game/play", `{"cell":4}`)

		// When: jumping to move 1 and playing cell 3
		w := client.postJSON("/api/game/jump", `{"move":1}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.False(t, decodeState(t, w).XIsNext)

		w = client.postJSON("/api/game/play", `{"cell":3}`)
		require.Equal(t, http.StatusOK, w.Code)

		// Then: three boards remain and the last has no O
		state := decodeState(t, w)
		assert.Len(t, state.Moves, 3)
		assert.Equal(t, entity.Board{entity.X, entity.Empty, entity.Empty, entity.X}, state.Board)
	})

	t.Run("Jump out of range is a bad request", func(t *testing.T) {
		client := newTestClient(t, newTestServer(t, defaultOptions()))

		// When: jumping past the end of a fresh game
		w := client.postJSON("/api/game/jump", `{"move":4}`)

		// Then: 400 is returned
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Missing cell is a bad request", func(t *testing.T) {
		client := newTestClient(t, newTestServer(t, defaultOptions()))

		// When: playing without a cell
		w := client.postJSON("/api/game/play", `{}`)

		// Then: 400 is returned
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Sessions do not share games", func(t *testing.T) {
		server := newTestServer(t, defaultOptions())
		alice := newTestClient(t, server)
		bob := newTestClient(t, server)

		// When: only alice plays
		alice.postJSON("/api/game/play", `{"cell":0}`)
		w := bob.get("/api/game")

		// Then: bob still sees an empty board
		assert.Equal(t, entity.Board{}, decodeState(t, w).Board)
	})

	t.Run("New game resets the session", func(t *testing.T) {
		client := newTestClient(t, newTestServer(t, defaultOptions()))
		client.postJSON("/api/game/play", `{"cell":0}`)

		// When: a new game is requested
		w := client.postJSON("/api/game/new", ``)

		// Then: the board is empty
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, entity.Board{}, decodeState(t, w).Board)
	})
}

func TestGamePage(t *testing.T) {
	t.Run("Forms play and redirect back", func(t *testing.T) {
		client := newTestClient(t, newTestServer(t, defaultOptions()))

		// When: a cell form is posted
		w := client.postForm("/play", url.Values{"cell": {"4"}})

		// Then: the browser is sent back to the page
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))

		// And: the page shows the move list and the next player
		w = client.get("/")
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "Next player: O")
		assert.Contains(t, body, "Go to game start")
		assert.Contains(t, body, "Go to move #1")
	})

	t.Run("Jump form rewinds the page", func(t *testing.T) {
		client := newTestClient(t, newTestServer(t, defaultOptions()))
		client.postForm("/play", url.Values{"cell": {"4"}})

		// When: the game start entry is clicked
		w := client.postForm("/jump", url.Values{"move": {"0"}})
		require.Equal(t, http.StatusSeeOther, w.Code)

		// Then: the page shows X to move again
		assert.Contains(t, client.get("/").Body.String(), "Next player: X")
	})
}

func TestRateLimit(t *testing.T) {
	options := defaultOptions()
	options.RateLimitRPS = 1
	options.RateLimitBurst = 2
	client := newTestClient(t, newTestServer(t, options))

	// When: more moves are sent than the burst allows
	codes := make([]int, 0, 3)
	for _, body := range []string{`{"cell":0}`, `{"cell":1}`, `{"cell":2}`} {
		codes = append(codes, client.postJSON("/api/game/play", body).Code)
	}

	// Then: the last one is throttled
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
