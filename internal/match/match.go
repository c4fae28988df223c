package match

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"ctchen222/tictactoe-relay/internal/player"
)

// ErrStopped is returned by AddPlayer and RemovePlayer once Run has exited.
var ErrStopped = errors.New("matchmaker stopped")

type waiter struct {
	player *player.Player
	since  time.Time
}

// Waiting describes one queued peer.
type Waiting struct {
	PlayerID string    `json:"player_id"`
	Addr     string    `json:"addr"`
	Since    time.Time `json:"since"`
}

type removeRequest struct {
	playerID string
	reply    chan *player.Player
}

// MatchManager pairs peers strictly in arrival order. The earlier arrival of
// each pair is first. Peers waiting longer than maxWait are handed to
// Expired instead.
type MatchManager struct {
	mu             sync.Mutex
	waitingPlayers []waiter
	maxWait        time.Duration
	logger         *slog.Logger

	addPlayerChan    chan *player.Player
	removePlayerChan chan removeRequest
	matchedPairChan  chan [2]*player.Player
	expiredChan      chan *player.Player
	done             chan struct{}
}

// NewMatchManager creates a matchmaker. A maxWait of zero waits forever.
func NewMatchManager(maxWait time.Duration, logger *slog.Logger) *MatchManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchManager{
		waitingPlayers:   make([]waiter, 0),
		maxWait:          maxWait,
		logger:           logger.With("component", "matchmaker"),
		addPlayerChan:    make(chan *player.Player, 1),
		removePlayerChan: make(chan removeRequest),
		matchedPairChan:  make(chan [2]*player.Player, 1),
		expiredChan:      make(chan *player.Player, 1),
		done:             make(chan struct{}),
	}
}

// Run serializes queue changes until ctx is cancelled. Peers still queued at
// that point can be collected with Drain.
func (m *MatchManager) Run(ctx context.Context) error {
	defer close(m.done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		m.armTimer(timer)

		select {
		case <-ctx.Done():
			return ctx.Err()

		case p := <-m.addPlayerChan:
			m.mu.Lock()
			m.waitingPlayers = append(m.waitingPlayers, waiter{player: p, since: time.Now()})
			m.mu.Unlock()
			m.logger.InfoContext(ctx, "player queued", "player.id", p.ID, "waiting", m.WaitingCount())
			if err := m.tryMatchPlayers(ctx); err != nil {
				return err
			}

		case req := <-m.removePlayerChan:
			req.reply <- m.remove(req.playerID)

		case <-timer.C:
			if err := m.expireWaiting(ctx); err != nil {
				return err
			}
		}
	}
}

// AddPlayer queues p. It blocks until Run accepts it.
func (m *MatchManager) AddPlayer(ctx context.Context, p *player.Player) error {
	select {
	case <-m.done:
		return ErrStopped
	default:
	}

	select {
	case m.addPlayerChan <- p:
		return nil
	case <-m.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RemovePlayer takes a still-waiting peer out of the queue. It returns nil if
// the peer was already paired or never queued.
func (m *MatchManager) RemovePlayer(ctx context.Context, playerID string) (*player.Player, error) {
	req := removeRequest{playerID: playerID, reply: make(chan *player.Player, 1)}
	select {
	case m.removePlayerChan <- req:
	case <-m.done:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return <-req.reply, nil
}

// MatchedPair delivers pairs in FIFO order.
func (m *MatchManager) MatchedPair() <-chan [2]*player.Player {
	return m.matchedPairChan
}

// Expired delivers peers that waited longer than maxWait.
func (m *MatchManager) Expired() <-chan *player.Player {
	return m.expiredChan
}

// WaitingCount returns the queue length.
func (m *MatchManager) WaitingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waitingPlayers)
}

// Waiting lists queued peers, oldest first.
func (m *MatchManager) Waiting() []Waiting {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Waiting, 0, len(m.waitingPlayers))
	for _, w := range m.waitingPlayers {
		out = append(out, Waiting{PlayerID: w.player.ID, Addr: w.player.Conn.RemoteAddr(), Since: w.since})
	}
	return out
}

// Drain empties the queue and returns the peers that were in it, together
// with pairs and expired peers nobody received. Call it after Run returns.
func (m *MatchManager) Drain() []*player.Player {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*player.Player, 0, len(m.waitingPlayers)+3)
	for {
		select {
		case pair := <-m.matchedPairChan:
			out = append(out, pair[0], pair[1])
			continue
		case p := <-m.expiredChan:
			out = append(out, p)
			continue
		default:
		}
		break
	}
	for _, w := range m.waitingPlayers {
		out = append(out, w.player)
	}
	m.waitingPlayers = m.waitingPlayers[:0]
	return out
}

func (m *MatchManager) remove(playerID string) *player.Player {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, w := range m.waitingPlayers {
		if w.player.ID == playerID {
			m.waitingPlayers = append(m.waitingPlayers[:i], m.waitingPlayers[i+1:]...)
			m.logger.Info("player removed from waiting list", "player.id", playerID)
			return w.player
		}
	}
	return nil
}

func (m *MatchManager) tryMatchPlayers(ctx context.Context) error {
	for {
		m.mu.Lock()
		if len(m.waitingPlayers) < 2 {
			m.mu.Unlock()
			return nil
		}
		pair := [2]*player.Player{m.waitingPlayers[0].player, m.waitingPlayers[1].player}
		m.mu.Unlock()

		// The pair leaves the queue only once it is handed off, so a cancel
		// here leaves it for Drain.
		select {
		case m.matchedPairChan <- pair:
			m.mu.Lock()
			m.waitingPlayers = m.waitingPlayers[2:]
			m.mu.Unlock()
			m.logger.InfoContext(ctx, "matched players", "player.x.id", pair[0].ID, "player.o.id", pair[1].ID)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (m *MatchManager) expireWaiting(ctx context.Context) error {
	if m.maxWait <= 0 {
		return nil
	}
	cutoff := time.Now().Add(-m.maxWait)

	for {
		m.mu.Lock()
		if len(m.waitingPlayers) == 0 || m.waitingPlayers[0].since.After(cutoff) {
			m.mu.Unlock()
			return nil
		}
		w := m.waitingPlayers[0]
		m.mu.Unlock()

		select {
		case m.expiredChan <- w.player:
			m.mu.Lock()
			m.waitingPlayers = m.waitingPlayers[1:]
			m.mu.Unlock()
			m.logger.InfoContext(ctx, "player waited too long", "player.id", w.player.ID, "waited", time.Since(w.since).String())
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// armTimer points timer at the oldest waiter's deadline. FIFO order means
// the head of the queue always expires first.
func (m *MatchManager) armTimer(timer *time.Timer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxWait <= 0 || len(m.waitingPlayers) == 0 {
		timer.Stop()
		return
	}
	timer.Reset(max(time.Until(m.waitingPlayers[0].since.Add(m.maxWait)), 0))
}
