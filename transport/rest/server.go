package rest

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/tictactoe"
)

const shutdownTimeout = 10 * time.Second

//go:embed templates/*.html
var templatesFS embed.FS

type uGame interface {
	GetState(ctx context.Context, sessionID string) (tictactoe.State, error)
	PlayMove(ctx context.Context, sessionID string, cell int) (tictactoe.State, error)
	JumpTo(ctx context.Context, sessionID string, move int) (tictactoe.State, error)
	NewGame(ctx context.Context, sessionID string) (tictactoe.State, error)
}

// streamer pushes state changes of a session over an upgraded connection.
type streamer interface {
	Serve(w http.ResponseWriter, r *http.Request, sessionID string)
}

type Options struct {
	Production     bool
	SessionTTL     time.Duration
	RateLimitRPS   int
	RateLimitBurst int
}

type Server struct {
	logger   *slog.Logger
	options  Options
	uGame    uGame
	streamer streamer
	limiters *limiterStore

	router *gin.Engine
}

func New(logger *slog.Logger, options Options, uGame uGame, streamer streamer) *Server {
	if options.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &Server{
		logger:   logger.With("component", "http"),
		options:  options,
		uGame:    uGame,
		streamer: streamer,
		limiters: newLimiterStore(options.RateLimitRPS, options.RateLimitBurst),
	}

	server.router = server.routes()

	return server
}

func (that *Server) routes() *gin.Engine {
	router := gin.New()
	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	router.Use(gin.Recovery())
	router.Use(that.requestIDMiddleware())
	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression, ginGzip.WithExcludedPaths([]string{"/ws"})))
	router.Use(cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	}))

	router.GET("/ping", that.handlePing)

	game := router.Group("/", that.sessionMiddleware())
	game.GET("/", that.handleIndex)
	game.GET("/ws", that.handleStream)

	forms := game.Group("/", that.rateLimitMiddleware())
	forms.POST("/play", that.handlePlayForm)
	forms.POST("/jump", that.handleJumpForm)
	forms.POST("/new", that.handleNewGameForm)

	api := game.Group("/api/game")
	api.GET("", that.handleGetGame)
	api.POST("/play", that.rateLimitMiddleware(), that.handlePlay)
	api.POST("/jump", that.rateLimitMiddleware(), that.handleJump)
	api.POST("/new", that.rateLimitMiddleware(), that.handleNewGame)

	return router
}

func (that *Server) Handler() http.Handler {
	return that.router
}

// Start - serves HTTP until ctx is canceled, then shuts down gracefully.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("HTTP server shutdown failed", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
