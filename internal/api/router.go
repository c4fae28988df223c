package api

import (
	"log/slog"
	"net/http"

	"ctchen222/tictactoe-relay/internal/api/controller"
	"ctchen222/tictactoe-relay/internal/api/middleware"
	"ctchen222/tictactoe-relay/internal/api/response"
	"ctchen222/tictactoe-relay/internal/api/service"
	"ctchen222/tictactoe-relay/internal/repository"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the admin API is built from. Roster may be nil.
type Deps struct {
	Hub    controller.SessionHub
	Feed   controller.Subscriber
	Roster repository.PlayerRepository
	Auth   *service.AuthService
	Logger *slog.Logger
}

// NewRouter builds the admin HTTP engine.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Logger.With("component", "api")))

	sessions := controller.NewSessionController(d.Hub)
	players := controller.NewPlayerController(d.Roster)
	spectate := controller.NewSpectateController(d.Hub, d.Feed, d.Logger)
	admin := middleware.RequireAdmin(d.Auth)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/sessions", sessions.List)
		apiGroup.GET("/sessions/:id", sessions.Get)
		apiGroup.DELETE("/sessions/:id", admin, sessions.Terminate)

		apiGroup.GET("/matchmaking", sessions.Matchmaking)
		apiGroup.DELETE("/matchmaking/:playerId", admin, sessions.RemoveWaiting)

		apiGroup.GET("/players", players.List)
		apiGroup.GET("/players/:name", players.Get)
	}

	r.GET("/ws/spectate", spectate.Spectate)

	r.NoRoute(func(c *gin.Context) {
		response.ErrorResponse(c, http.StatusNotFound, "route not found")
	})

	return r
}
