package room

import (
	"context"
	"errors"

	"ctchen222/tictactoe-relay/internal/events"
	"ctchen222/tictactoe-relay/internal/game"
	"ctchen222/tictactoe-relay/internal/player"
	"ctchen222/tictactoe-relay/pkg/proto"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// HandleMessage dispatches one decoded peer message. A non-nil error ends the
// sender's relay and tears the session down.
func (s *Session) HandleMessage(ctx context.Context, p, opponent *player.Player, msg proto.Message) error {
	switch msg.Verb {
	case proto.VerbPlayerID:
		s.handlePlayerID(ctx, p, msg.Text)
		return nil
	case proto.VerbMove:
		return s.handleMove(ctx, p, opponent, msg.Index)
	}
	return nil
}

func (s *Session) handlePlayerID(ctx context.Context, p *player.Player, name string) {
	p.SetName(name)
	s.logger.InfoContext(ctx, "player identified", "player.id", p.ID, "player.name", name)
	s.notify(ctx, events.TypePlayerIdentified, events.PlayerIdentifiedPayload{
		PlayerInfo: s.playerInfo(p),
	})
}

// handleMove applies and evaluates a move under the session lock, so the two
// relays can never interleave between validation and the result.
func (s *Session) handleMove(ctx context.Context, p, opponent *player.Player, index int) error {
	ctx, span := tracer.Start(ctx, "room.handleMove", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("player.id", p.ID),
		attribute.Int("move.index", index),
	))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Finished() {
		return errGameFinished
	}

	mark := p.Mark()
	outcome, err := s.game.Move(mark, index)
	if err != nil {
		if errors.Is(err, game.ErrGameOver) {
			return errGameFinished
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Move rejected")
		movesRejected.Add(ctx, 1)
		s.logger.InfoContext(ctx, "move rejected", "player.id", p.ID, "move.index", index, "error", err)
		s.notify(ctx, events.TypeMoveRejected, events.MovePayload{
			PlayerID: p.ID,
			Mark:     mark,
			Index:    index,
			Reason:   err.Error(),
		})
		return p.Send(proto.Error(err.Error()))
	}

	movesApplied.Add(ctx, 1, metric.WithAttributes(attribute.String("mark", string(mark))))
	s.notify(ctx, events.TypeMoveApplied, events.MovePayload{
		PlayerID: p.ID,
		Mark:     mark,
		Index:    index,
	})
	// A failed relay still settles the outcome so the mover hears the result.
	relayErr := opponent.Send(proto.Move(index))
	if relayErr != nil {
		s.logger.WarnContext(ctx, "failed to relay move", "player.id", opponent.ID, "move.index", index, "error", relayErr)
	}

	switch outcome {
	case game.OutcomeWin:
		return s.handleWin(ctx, p)
	case game.OutcomeDraw:
		if err := s.handleDraw(ctx); err != nil || relayErr == nil {
			return err
		}
		return relayErr
	}

	s.state = turnState(s.game.Turn)
	return relayErr
}

func (s *Session) handleWin(ctx context.Context, winner *player.Player) error {
	s.state = StateWon
	s.logger.InfoContext(ctx, "game won", "player.id", winner.ID, "mark", string(s.game.Winner))
	s.notify(ctx, events.TypeGameWon, events.GameWonPayload{
		Winner:   s.game.Winner,
		PlayerID: winner.ID,
		Board:    s.game.Board,
	})
	s.broadcast(ctx, proto.Winner(s.game.Winner))
	return errGameFinished
}

func (s *Session) handleDraw(ctx context.Context) error {
	s.logger.InfoContext(ctx, "game drawn", "draw_policy", string(s.drawPolicy))
	s.notify(ctx, events.TypeGameDrawn, events.GameDrawnPayload{Board: s.game.Board})
	s.broadcast(ctx, proto.Draw())

	if s.drawPolicy == DrawTerminate {
		s.state = StateDrawn
		return errGameFinished
	}

	s.game.Reset()
	s.state = StateTurnX
	s.notify(ctx, events.TypeBoardReset, events.GameDrawnPayload{Board: s.game.Board})
	return s.playerByMark(game.PlayerX).Send(proto.Turn())
}

// broadcast sends msg to both peers. Failures are logged; the relay that owns
// the failing connection observes the error on its next read.
func (s *Session) broadcast(ctx context.Context, msg proto.Message) {
	for _, p := range s.players {
		if err := p.Send(msg); err != nil {
			s.logger.WarnContext(ctx, "failed to send to player", "player.id", p.ID, "verb", string(msg.Verb), "error", err)
		}
	}
}
