package hub

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"ctchen222/tictactoe-relay/internal/bot"
	"ctchen222/tictactoe-relay/internal/events"
	"ctchen222/tictactoe-relay/internal/match"
	"ctchen222/tictactoe-relay/internal/player"
	"ctchen222/tictactoe-relay/internal/room"
	"ctchen222/tictactoe-relay/pkg/proto"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("hub")
	meter  = otel.Meter("hub")

	matchmakingTimeouts, _ = meter.Int64Counter("tictactoe.matchmaking.timeouts",
		metric.WithDescription("Peers whose matchmaking wait ran out, by action"))
)

var ErrSessionNotFound = errors.New("session not found")

// TimeoutAction is what happens to a peer whose matchmaking wait runs out.
type TimeoutAction string

const (
	// TimeoutClose sends ERROR and closes the connection.
	TimeoutClose TimeoutAction = "close"
	// TimeoutBot seats the peer against a practice bot.
	TimeoutBot TimeoutAction = "bot"
)

const noOpponentReason = "no opponent found"

// Options configures a Hub.
type Options struct {
	DrawPolicy    room.DrawPolicy
	MaxWait       time.Duration
	OnTimeout     TimeoutAction
	BotDifficulty bot.Difficulty
	BotThinkTime  time.Duration
	Notifier      events.Notifier
	Logger        *slog.Logger
}

// Hub owns the matchmaking queue and every running session.
type Hub struct {
	opts         Options
	logger       *slog.Logger
	matchManager *match.MatchManager

	mu       sync.RWMutex
	sessions map[string]*room.Session
	wg       sync.WaitGroup
}

// NewHub creates a new hub.
func NewHub(opts Options) *Hub {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = events.Fanout{}
	}
	if opts.OnTimeout == "" {
		opts.OnTimeout = TimeoutClose
	}
	if opts.BotDifficulty == "" {
		opts.BotDifficulty = bot.Hard
	}

	return &Hub{
		opts:         opts,
		logger:       opts.Logger.With("component", "hub"),
		matchManager: match.NewMatchManager(opts.MaxWait, opts.Logger),
		sessions:     make(map[string]*room.Session),
	}
}

// Run starts the matchmaker and turns its output into sessions until ctx is
// cancelled. On return every session has ended and every queued peer has
// been disconnected.
func (h *Hub) Run(ctx context.Context) error {
	mmDone := make(chan error, 1)
	go func() { mmDone <- h.matchManager.Run(ctx) }()

	for {
		select {
		case <-ctx.Done():
			<-mmDone
			h.shutdown()
			return nil

		case pair := <-h.matchManager.MatchedPair():
			h.startSession(ctx, pair[0], pair[1])

		case p := <-h.matchManager.Expired():
			h.handleExpired(ctx, p)
		}
	}
}

func (h *Hub) shutdown() {
	for _, p := range h.matchManager.Drain() {
		h.reject(context.Background(), p, "server shutting down")
	}

	h.mu.RLock()
	for _, s := range h.sessions {
		s.Close()
	}
	h.mu.RUnlock()

	h.wg.Wait()
	h.logger.Info("hub stopped")
}

// reject tells a peer why it is being dropped and closes its connection.
func (h *Hub) reject(ctx context.Context, p *player.Player, reason string) {
	if err := p.Send(proto.Error(reason)); err != nil {
		h.logger.DebugContext(ctx, "failed to notify rejected player", "player.id", p.ID, "error", err)
	}
	if err := p.Conn.Close(); err != nil {
		h.logger.DebugContext(ctx, "error closing connection", "player.id", p.ID, "error", err)
	}
}
