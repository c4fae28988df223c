package controller

import (
	"context"
	"errors"
	"net/http"

	"ctchen222/tictactoe-relay/internal/api/models"
	"ctchen222/tictactoe-relay/internal/api/response"
	"ctchen222/tictactoe-relay/internal/hub"
	"ctchen222/tictactoe-relay/internal/match"
	"ctchen222/tictactoe-relay/internal/room"

	"github.com/gin-gonic/gin"
)

// SessionHub is the part of the hub the admin API reads and controls.
type SessionHub interface {
	Sessions() []room.Snapshot
	Session(id string) (room.Snapshot, error)
	Terminate(id string) error
	Waiting() []match.Waiting
	RemoveWaiting(ctx context.Context, playerID string) (bool, error)
}

// SessionController handles session and matchmaking requests.
type SessionController struct {
	hub SessionHub
}

func NewSessionController(h SessionHub) *SessionController {
	return &SessionController{hub: h}
}

// List handles GET /api/sessions.
func (sc *SessionController) List(c *gin.Context) {
	response.SuccessResponseList(c, sc.hub.Sessions())
}

// Get handles GET /api/sessions/:id.
func (sc *SessionController) Get(c *gin.Context) {
	snap, err := sc.hub.Session(c.Param("id"))
	if err != nil {
		sc.writeError(c, err)
		return
	}
	response.SuccessResponse(c, snap)
}

// Terminate handles DELETE /api/sessions/:id.
func (sc *SessionController) Terminate(c *gin.Context) {
	id := c.Param("id")
	if err := sc.hub.Terminate(id); err != nil {
		sc.writeError(c, err)
		return
	}
	response.SuccessResponse(c, gin.H{"message": "session terminated", "id": id})
}

// Matchmaking handles GET /api/matchmaking.
func (sc *SessionController) Matchmaking(c *gin.Context) {
	waiting := sc.hub.Waiting()
	response.SuccessResponse(c, models.MatchmakingStatus{Waiting: len(waiting), Players: waiting})
}

// RemoveWaiting handles DELETE /api/matchmaking/:playerId.
func (sc *SessionController) RemoveWaiting(c *gin.Context) {
	id := c.Param("playerId")
	removed, err := sc.hub.RemoveWaiting(c.Request.Context(), id)
	if err != nil {
		response.ErrorResponse(c, http.StatusServiceUnavailable, err.Error())
		return
	}
	if !removed {
		response.ErrorResponse(c, http.StatusNotFound, "player is not waiting")
		return
	}
	response.SuccessResponse(c, gin.H{"message": "player removed", "player_id": id})
}

func (sc *SessionController) writeError(c *gin.Context, err error) {
	if errors.Is(err, hub.ErrSessionNotFound) {
		response.ErrorResponse(c, http.StatusNotFound, err.Error())
		return
	}
	response.ErrorResponse(c, http.StatusInternalServerError, err.Error())
}
