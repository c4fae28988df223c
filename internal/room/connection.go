package room

import (
	"context"
	"errors"
	"fmt"

	"ctchen222/tictactoe-relay/internal/events"
	"ctchen222/tictactoe-relay/internal/player"
	"ctchen222/tictactoe-relay/pkg/proto"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// relay reads lines from self until the connection ends, the peer breaks
// protocol or the game finishes. The returned error is the teardown cause.
func (s *Session) relay(ctx context.Context, self, opponent *player.Player) error {
	ctx, span := tracer.Start(ctx, "room.Session.relay", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("player.id", self.ID),
	))
	defer span.End()

	for {
		line, err := self.Conn.ReceiveLine()
		if err != nil {
			return s.connectionEnded(ctx, span, self, err)
		}

		msg, err := proto.Decode(line)
		if err == nil && !msg.FromPeer() {
			err = fmt.Errorf("%w: %s is not accepted from peers", proto.ErrProtocol, msg.Verb)
		}
		if err != nil {
			s.logger.WarnContext(ctx, "protocol violation", "player.id", self.ID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Protocol violation")
			if sendErr := self.Send(proto.Error(err.Error())); sendErr != nil {
				s.logger.DebugContext(ctx, "failed to report protocol error", "player.id", self.ID, "error", sendErr)
			}
			return err
		}

		if err := s.HandleMessage(ctx, self, opponent, msg); err != nil {
			return err
		}
	}
}

func (s *Session) connectionEnded(ctx context.Context, span trace.Span, p *player.Player, err error) error {
	s.mu.Lock()
	finished := s.state.Finished()
	s.mu.Unlock()

	switch {
	case finished:
		// The peer hung up after the result, or teardown closed the socket.
		return errGameFinished
	case errors.Is(err, player.ErrConnClosed):
		return err
	case errors.Is(err, proto.ErrProtocol):
		s.logger.WarnContext(ctx, "protocol violation", "player.id", p.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Protocol violation")
		if sendErr := p.Send(proto.Error(err.Error())); sendErr != nil {
			s.logger.DebugContext(ctx, "failed to report protocol error", "player.id", p.ID, "error", sendErr)
		}
		return err
	}

	reason := "transport error"
	if errors.Is(err, player.ErrEndOfStream) {
		reason = "end of stream"
		s.logger.InfoContext(ctx, "player disconnected", "player.id", p.ID)
	} else {
		s.logger.WarnContext(ctx, "player connection error", "player.id", p.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Player connection error")
	}
	s.notify(ctx, events.TypePlayerDisconnected, events.PlayerDisconnectedPayload{
		PlayerID: p.ID,
		Reason:   reason,
	})
	return err
}
