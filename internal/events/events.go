package events

import (
	"context"
	"encoding/json"
	"time"

	"ctchen222/tictactoe-relay/internal/game"
)

//go:generate mockgen -source=events.go -destination=mocks/notifier_mock.go -package=mocks

// Pub/Sub channel constants
const (
	EventsChannel     = "channel:events"
	sessionChannelFmt = "channel:session:%s"
)

// Event types
const (
	TypeMatchStarted       = "match_started"
	TypePlayerIdentified   = "player_identified"
	TypeMoveApplied        = "move_applied"
	TypeMoveRejected       = "move_rejected"
	TypeGameWon            = "game_won"
	TypeGameDrawn          = "game_drawn"
	TypeBoardReset         = "board_reset"
	TypePlayerDisconnected = "player_disconnected"
	TypeSessionClosed      = "session_closed"
)

// Event is a session lifecycle notification.
type Event struct {
	Type      string          `json:"event"`
	SessionID string          `json:"session_id"`
	At        time.Time       `json:"at"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Notifier receives session lifecycle events. Implementations must not
// block for long: sessions call Notify while holding their move lock.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// New builds an event, marshalling payload when it is not nil.
func New(eventType, sessionID string, payload any) Event {
	e := Event{Type: eventType, SessionID: sessionID, At: time.Now().UTC()}
	if payload != nil {
		// Payloads are plain structs below; marshalling cannot fail.
		e.Payload, _ = json.Marshal(payload)
	}
	return e
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// PlayerInfo describes one seat of a match.
type PlayerInfo struct {
	PlayerID string          `json:"player_id"`
	Name     string          `json:"name,omitempty"`
	Mark     game.PlayerMark `json:"mark"`
	Addr     string          `json:"addr,omitempty"`
}

// MatchStartedPayload is the payload for the "match_started" event.
type MatchStartedPayload struct {
	Players []PlayerInfo `json:"players"`
}

// PlayerIdentifiedPayload is the payload for the "player_identified" event.
type PlayerIdentifiedPayload struct {
	PlayerInfo
}

// MovePayload is the payload for "move_applied" and "move_rejected".
type MovePayload struct {
	PlayerID string          `json:"player_id"`
	Mark     game.PlayerMark `json:"mark"`
	Index    int             `json:"index"`
	Reason   string          `json:"reason,omitempty"`
}

// GameWonPayload is the payload for the "game_won" event.
type GameWonPayload struct {
	Winner   game.PlayerMark `json:"winner"`
	PlayerID string          `json:"player_id"`
	Board    game.Board      `json:"board"`
}

// GameDrawnPayload is the payload for "game_drawn" and "board_reset".
type GameDrawnPayload struct {
	Board game.Board `json:"board"`
}

// PlayerDisconnectedPayload is the payload for the "player_disconnected" event.
type PlayerDisconnectedPayload struct {
	PlayerID string `json:"player_id"`
	Reason   string `json:"reason"`
}

// SessionClosedPayload is the payload for the "session_closed" event.
type SessionClosedPayload struct {
	Reason string `json:"reason"`
}

// Fanout delivers every event to each notifier in order.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, event Event) {
	for _, n := range f {
		if n != nil {
			n.Notify(ctx, event)
		}
	}
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, event Event)

func (fn NotifierFunc) Notify(ctx context.Context, event Event) {
	fn(ctx, event)
}
