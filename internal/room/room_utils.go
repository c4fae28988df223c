package room

import (
	"time"

	"ctchen222/tictactoe-relay/internal/events"
	"ctchen222/tictactoe-relay/internal/game"
	"ctchen222/tictactoe-relay/internal/player"
)

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	ID         string              `json:"id"`
	State      State               `json:"state"`
	Board      game.Board          `json:"board"`
	Turn       game.PlayerMark     `json:"turn"`
	Winner     game.PlayerMark     `json:"winner,omitempty"`
	DrawPolicy DrawPolicy          `json:"draw_policy"`
	Players    []events.PlayerInfo `json:"players"`
	StartedAt  time.Time           `json:"started_at"`
}

// Snapshot copies the session state under the move lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:         s.ID,
		State:      s.state,
		Board:      s.game.Board,
		Turn:       s.game.Turn,
		Winner:     s.game.Winner,
		DrawPolicy: s.drawPolicy,
		Players:    []events.PlayerInfo{s.playerInfo(s.players[0]), s.playerInfo(s.players[1])},
		StartedAt:  s.StartedAt,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Players returns X then O.
func (s *Session) Players() [2]*player.Player {
	return s.players
}

func (s *Session) playerByMark(mark game.PlayerMark) *player.Player {
	for _, p := range s.players {
		if p.Mark() == mark {
			return p
		}
	}
	return nil
}
