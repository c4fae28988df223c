package player

import (
	"sync"

	"ctchen222/tictactoe-relay/internal/game"
	"ctchen222/tictactoe-relay/pkg/proto"
)

// Connection is a line-oriented duplex channel to one peer. The TCP
// implementation is LineConn; the practice bot provides an in-memory one.
type Connection interface {
	// ReceiveLine blocks until a full line arrives. It returns
	// ErrEndOfStream when the peer closes and ErrConnClosed after Close.
	ReceiveLine() (string, error)
	// SendLine writes one line and appends the delimiter. Safe for
	// concurrent use.
	SendLine(line string) error
	// Close is idempotent.
	Close() error
	RemoteAddr() string
}

// Player represents a peer bound to a connection.
type Player struct {
	ID   string
	Conn Connection

	mu   sync.RWMutex
	name string
	mark game.PlayerMark
}

// NewPlayer creates a new player.
func NewPlayer(id string, conn Connection) *Player {
	return &Player{
		ID:   id,
		Conn: conn,
	}
}

// Send encodes msg and writes it to the player's connection.
func (p *Player) Send(msg proto.Message) error {
	return p.Conn.SendLine(proto.Encode(msg))
}

// Name is the display name declared with PLAYER_ID, empty until then.
func (p *Player) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.name
}

func (p *Player) SetName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.name = name
}

// Mark is the mark assigned for the current match.
func (p *Player) Mark() game.PlayerMark {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mark
}

func (p *Player) SetMark(mark game.PlayerMark) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mark = mark
}
