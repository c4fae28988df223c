package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"ctchen222/tictactoe-relay/internal/events"
	"ctchen222/tictactoe-relay/internal/game"
	"ctchen222/tictactoe-relay/internal/player"
	"ctchen222/tictactoe-relay/pkg/proto"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("room")
	meter  = otel.Meter("room")

	sessionsStarted, _ = meter.Int64Counter("tictactoe.sessions.started",
		metric.WithDescription("Match sessions started"))
	sessionsEnded, _ = meter.Int64Counter("tictactoe.sessions.ended",
		metric.WithDescription("Match sessions ended, by reason"))
	movesApplied, _ = meter.Int64Counter("tictactoe.moves.applied",
		metric.WithDescription("Moves accepted and relayed"))
	movesRejected, _ = meter.Int64Counter("tictactoe.moves.rejected",
		metric.WithDescription("Moves refused by turn or board rules"))
)

var (
	// ErrTerminated is returned by Run when the session was closed from
	// outside, by Close or context cancellation.
	ErrTerminated = errors.New("session terminated")

	errGameFinished = errors.New("game finished")
)

// Options configures a Session.
type Options struct {
	DrawPolicy DrawPolicy
	Notifier   events.Notifier
	Logger     *slog.Logger
}

// Session is one match between two peers. The first player is X and moves
// first. Both relay loops funnel moves through a single lock that covers the
// board, the turn and the session state.
type Session struct {
	ID        string
	StartedAt time.Time

	players    [2]*player.Player
	drawPolicy DrawPolicy
	notifier   events.Notifier
	logger     *slog.Logger

	mu    sync.Mutex
	game  *game.Game
	state State

	closeMu    sync.Mutex
	closed     bool
	closeCause error
	done       chan struct{}
}

// NewSession pairs first (X) and second (O) into a session.
func NewSession(id string, first, second *player.Player, opts Options) *Session {
	if opts.DrawPolicy == "" {
		opts.DrawPolicy = DrawReset
	}
	if opts.Notifier == nil {
		opts.Notifier = events.Fanout{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Session{
		ID:         id,
		StartedAt:  time.Now().UTC(),
		players:    [2]*player.Player{first, second},
		drawPolicy: opts.DrawPolicy,
		notifier:   opts.Notifier,
		logger:     opts.Logger.With("component", "room", "session.id", id),
		game:       game.NewGame(),
		state:      StatePaired,
		done:       make(chan struct{}),
	}
}

// Run assigns marks, starts one relay per peer and blocks until both relays
// have exited. It returns nil when the game ended with a result, ErrTerminated
// when the session was closed from outside, and otherwise the error that
// ended the first relay (player.ErrEndOfStream, a proto.ErrProtocol error or
// a transport error).
func (s *Session) Run(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "room.Session.Run", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("player.x.id", s.players[0].ID),
		attribute.String("player.o.id", s.players[1].ID),
	))
	defer span.End()

	sessionsStarted.Add(ctx, 1)

	stop := context.AfterFunc(ctx, func() {
		s.teardown(ErrTerminated)
	})
	defer stop()

	if err := s.assignMarks(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to assign marks", "error", err)
		s.teardown(err)
	} else {
		var wg sync.WaitGroup
		for i, p := range s.players {
			opponent := s.players[1-i]
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.relay(ctx, p, opponent)
				s.teardown(err)
			}()
		}
		wg.Wait()
	}

	result := s.finish(ctx)
	if result != nil && !errors.Is(result, ErrTerminated) {
		span.RecordError(result)
		span.SetStatus(codes.Error, "Session ended abnormally")
	}
	return result
}

// Close tears the session down from outside. Both connections are closed so
// blocked reads return. Safe to call more than once.
func (s *Session) Close() {
	s.teardown(ErrTerminated)
}

// Done is closed once both connections have been closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) assignMarks(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	x, o := s.players[0], s.players[1]
	x.SetMark(game.PlayerX)
	o.SetMark(game.PlayerO)

	if err := x.Send(proto.Mark(game.PlayerX)); err != nil {
		return err
	}
	if err := o.Send(proto.Mark(game.PlayerO)); err != nil {
		return err
	}
	s.state = StateMarkAssigned

	if err := x.Send(proto.Turn()); err != nil {
		return err
	}
	s.state = StateTurnX

	s.logger.InfoContext(ctx, "match started", "player.x.id", x.ID, "player.o.id", o.ID)
	s.notify(ctx, events.TypeMatchStarted, events.MatchStartedPayload{
		Players: []events.PlayerInfo{s.playerInfo(x), s.playerInfo(o)},
	})
	return nil
}

// teardown closes both connections once and remembers what caused it.
func (s *Session) teardown(cause error) {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.closeCause = cause

	for _, p := range s.players {
		if err := p.Conn.Close(); err != nil {
			s.logger.Debug("error closing connection", "player.id", p.ID, "error", err)
		}
	}
	close(s.done)
}

func (s *Session) finish(ctx context.Context) error {
	s.mu.Lock()
	final := s.state
	s.state = StateClosed
	s.mu.Unlock()

	s.closeMu.Lock()
	cause := s.closeCause
	s.closeMu.Unlock()

	var result error
	switch {
	case final == StateWon || final == StateDrawn, errors.Is(cause, errGameFinished):
		result = nil
	case errors.Is(cause, ErrTerminated):
		result = ErrTerminated
	default:
		result = cause
	}

	reason := closeReason(final, result)
	sessionsEnded.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	s.logger.InfoContext(ctx, "session closed", "reason", reason, "final_state", string(final))
	s.notify(ctx, events.TypeSessionClosed, events.SessionClosedPayload{Reason: reason})
	return result
}

func closeReason(final State, result error) string {
	switch {
	case final == StateWon:
		return "won"
	case final == StateDrawn:
		return "drawn"
	case result == nil:
		return "finished"
	case errors.Is(result, ErrTerminated):
		return "terminated"
	case errors.Is(result, player.ErrEndOfStream):
		return "peer disconnected"
	case errors.Is(result, proto.ErrProtocol):
		return "protocol error"
	default:
		return "transport error"
	}
}

func (s *Session) notify(ctx context.Context, eventType string, payload any) {
	s.notifier.Notify(ctx, events.New(eventType, s.ID, payload))
}

func (s *Session) playerInfo(p *player.Player) events.PlayerInfo {
	return events.PlayerInfo{
		PlayerID: p.ID,
		Name:     p.Name(),
		Mark:     p.Mark(),
		Addr:     p.Conn.RemoteAddr(),
	}
}
