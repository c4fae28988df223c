package controller

import (
	"log/slog"
	"net/http"
	"time"

	"ctchen222/tictactoe-relay/internal/api/response"
	"ctchen222/tictactoe-relay/internal/events"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("api")

const spectateWriteWait = 5 * time.Second

// Subscriber hands out per-session event feeds.
type Subscriber interface {
	Subscribe(sessionID string) (<-chan events.Event, func())
}

// SpectateController streams a session's events over a websocket.
type SpectateController struct {
	hub      SessionHub
	feed     Subscriber
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewSpectateController(h SessionHub, feed Subscriber, logger *slog.Logger) *SpectateController {
	return &SpectateController{
		hub:  h,
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger.With("component", "spectate"),
	}
}

// snapshotFrame is the first frame a spectator receives.
type snapshotFrame struct {
	Type     string `json:"event"`
	Snapshot any    `json:"snapshot"`
}

// Spectate handles GET /ws/spectate?session=<id>. The first frame is the
// current snapshot; each later frame is one events.Event. The socket closes
// after session_closed.
func (sc *SpectateController) Spectate(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "api.Spectate", trace.WithAttributes(
		attribute.String("session.id", c.Query("session")),
	))
	defer span.End()

	id := c.Query("session")
	if id == "" {
		response.ErrorResponse(c, http.StatusBadRequest, "session query parameter is required")
		return
	}

	feed, cancel := sc.feed.Subscribe(id)
	defer cancel()

	snap, err := sc.hub.Session(id)
	if err != nil {
		response.ErrorResponse(c, http.StatusNotFound, err.Error())
		return
	}

	conn, err := sc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		sc.logger.WarnContext(ctx, "failed to upgrade spectator", "session.id", id, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}
	defer conn.Close()

	// Drain client frames so a closed browser tab is noticed.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := sc.write(conn, snapshotFrame{Type: "snapshot", Snapshot: snap}); err != nil {
		return
	}

	sc.logger.InfoContext(ctx, "spectator attached", "session.id", id)
	for {
		select {
		case e, ok := <-feed:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(spectateWriteWait))
				return
			}
			if err := sc.write(conn, e); err != nil {
				sc.logger.DebugContext(ctx, "spectator write failed", "session.id", id, "error", err)
				return
			}
		case <-gone:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (sc *SpectateController) write(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(spectateWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}
