package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/tictactoe"
)

type playRequest struct {
	Cell *int `json:"cell" form:"cell" binding:"required"`
}

type jumpRequest struct {
	Move *int `json:"move" form:"move" binding:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type cellView struct {
	Index    int
	Mark     string
	Disabled bool
}

type pageView struct {
	State tictactoe.State
	Rows  [][]cellView
}

func (that *Server) handlePing(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

func (that *Server) handleIndex(c *gin.Context) {
	state, err := that.uGame.GetState(c.Request.Context(), sessionID(c))
	if err != nil {
		that.internalError(c, "handleIndex", err)
		return
	}

	c.HTML(http.StatusOK, "index.html", newPageView(state))
}

func (that *Server) handleGetGame(c *gin.Context) {
	state, err := that.uGame.GetState(c.Request.Context(), sessionID(c))
	if err != nil {
		that.internalError(c, "handleGetGame", err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// handlePlay - illegal moves are answered with the unchanged state.
func (that *Server) handlePlay(c *gin.Context) {
	var req playRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "cell is required"})
		return
	}

	state, err := that.uGame.PlayMove(c.Request.Context(), sessionID(c), *req.Cell)
	if err != nil {
		that.internalError(c, "handlePlay", err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (that *Server) handleJump(c *gin.Context) {
	var req jumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "move is required"})
		return
	}

	state, err := that.uGame.JumpTo(c.Request.Context(), sessionID(c), *req.Move)
	if errors.Is(err, apperror.ErrMoveOutOfRange) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err != nil {
		that.internalError(c, "handleJump", err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (that *Server) handleNewGame(c *gin.Context) {
	state, err := that.uGame.NewGame(c.Request.Context(), sessionID(c))
	if err != nil {
		that.internalError(c, "handleNewGame", err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (that *Server) handlePlayForm(c *gin.Context) {
	var req playRequest
	if err := c.ShouldBind(&req); err != nil {
		c.String(http.StatusBadRequest, "cell is required")
		return
	}

	if _, err := that.uGame.PlayMove(c.Request.Context(), sessionID(c), *req.Cell); err != nil {
		that.internalError(c, "handlePlayForm", err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

func (that *Server) handleJumpForm(c *gin.Context) {
	var req jumpRequest
	if err := c.ShouldBind(&req); err != nil {
		c.String(http.StatusBadRequest, "move is required")
		return
	}

	_, err := that.uGame.JumpTo(c.Request.Context(), sessionID(c), *req.Move)
	if errors.Is(err, apperror.ErrMoveOutOfRange) {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	if err != nil {
		that.internalError(c, "handleJumpForm", err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

func (that *Server) handleNewGameForm(c *gin.Context) {
	if _, err := that.uGame.NewGame(c.Request.Context(), sessionID(c)); err != nil {
		that.internalError(c, "handleNewGameForm", err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

func (that *Server) handleStream(c *gin.Context) {
	that.streamer.Serve(c.Writer, c.Request, sessionID(c))
}

func (that *Server) internalError(c *gin.Context, method string, err error) {
	that.logger.Error("request failed", "method", method, "sessionID", sessionID(c), "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

func newPageView(state tictactoe.State) pageView {
	finished := state.Winner != entity.Empty

	cells := lo.Map(state.Board[:], func(cell entity.Cell, index int) cellView {
		return cellView{
			Index:    index,
			Mark:     cell.String(),
			Disabled: finished || cell != entity.Empty,
		}
	})

	return pageView{
		State: state,
		Rows:  lo.Chunk(cells, 3),
	}
}
