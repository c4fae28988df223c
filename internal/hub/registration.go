package hub

import (
	"context"
	"errors"

	"ctchen222/tictactoe-relay/internal/bot"
	"ctchen222/tictactoe-relay/internal/player"
	"ctchen222/tictactoe-relay/internal/room"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Register queues a freshly accepted peer for matchmaking.
func (h *Hub) Register(ctx context.Context, p *player.Player) error {
	ctx, span := tracer.Start(ctx, "hub.Register", trace.WithAttributes(
		attribute.String("player.id", p.ID),
		attribute.String("player.addr", p.Conn.RemoteAddr()),
	))
	defer span.End()

	if err := h.matchManager.AddPlayer(ctx, p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to queue player")
		return err
	}
	return nil
}

func (h *Hub) startSession(ctx context.Context, x, o *player.Player) *room.Session {
	id := uuid.New().String()
	s := room.NewSession(id, x, o, room.Options{
		DrawPolicy: h.opts.DrawPolicy,
		Notifier:   h.opts.Notifier,
		Logger:     h.opts.Logger,
	})

	h.mu.Lock()
	h.sessions[id] = s
	h.mu.Unlock()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer h.removeSession(id)

		err := s.Run(ctx)
		switch {
		case err == nil, errors.Is(err, room.ErrTerminated):
			h.logger.InfoContext(ctx, "session ended", "session.id", id)
		case errors.Is(err, player.ErrEndOfStream):
			h.logger.InfoContext(ctx, "session ended by disconnect", "session.id", id)
		default:
			h.logger.WarnContext(ctx, "session ended with error", "session.id", id, "error", err)
		}
	}()

	h.logger.InfoContext(ctx, "session created", "session.id", id, "player.x.id", x.ID, "player.o.id", o.ID)
	return s
}

func (h *Hub) removeSession(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}

func (h *Hub) handleExpired(ctx context.Context, p *player.Player) {
	matchmakingTimeouts.Add(ctx, 1, metric.WithAttributes(attribute.String("action", string(h.opts.OnTimeout))))
	if h.opts.OnTimeout != TimeoutBot {
		h.logger.InfoContext(ctx, "closing player after matchmaking timeout", "player.id", p.ID)
		h.reject(ctx, p, noOpponentReason)
		return
	}
	h.registerBotGame(ctx, p)
}

func (h *Hub) registerBotGame(ctx context.Context, p *player.Player) {
	ctx, span := tracer.Start(ctx, "hub.registerBotGame", trace.WithAttributes(
		attribute.String("player.id", p.ID),
		attribute.String("bot.difficulty", string(h.opts.BotDifficulty)),
	))
	defer span.End()

	botPlayer, b := bot.NewBotPlayer(h.opts.BotDifficulty, h.opts.BotThinkTime, h.opts.Logger)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			h.logger.WarnContext(ctx, "bot stopped with error", "player.id", b.ID, "error", err)
		}
	}()

	s := h.startSession(ctx, p, botPlayer)
	span.SetAttributes(attribute.String("session.id", s.ID))
	h.logger.InfoContext(ctx, "player seated against bot", "player.id", p.ID, "session.id", s.ID)
}
