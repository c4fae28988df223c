package controller

import (
	"net/http"

	"ctchen222/tictactoe-relay/internal/api/response"
	"ctchen222/tictactoe-relay/internal/repository"

	"github.com/gin-gonic/gin"
)

// PlayerController serves the roster. A nil repository means the roster is
// disabled: the list is empty and lookups are 404.
type PlayerController struct {
	repo repository.PlayerRepository
}

func NewPlayerController(repo repository.PlayerRepository) *PlayerController {
	return &PlayerController{repo: repo}
}

// List handles GET /api/players.
func (pc *PlayerController) List(c *gin.Context) {
	if pc.repo == nil {
		response.SuccessResponseList(c, []repository.RosterEntry{})
		return
	}

	entries, err := pc.repo.List(c.Request.Context())
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.SuccessResponseList(c, entries)
}

// Get handles GET /api/players/:name.
func (pc *PlayerController) Get(c *gin.Context) {
	if pc.repo == nil {
		response.ErrorResponse(c, http.StatusNotFound, "roster is disabled")
		return
	}

	entry, err := pc.repo.FindByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	if entry == nil {
		response.ErrorResponse(c, http.StatusNotFound, "player not found")
		return
	}
	response.SuccessResponse(c, entry)
}
