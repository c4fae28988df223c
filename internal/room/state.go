package room

import (
	"fmt"

	"ctchen222/tictactoe-relay/internal/game"
)

// State is a match session's position in its lifecycle:
// paired -> mark_assigned -> turn_x/turn_o (loop) -> won/drawn -> closed.
type State string

const (
	StatePaired       State = "paired"
	StateMarkAssigned State = "mark_assigned"
	StateTurnX        State = "turn_x"
	StateTurnO        State = "turn_o"
	StateWon          State = "won"
	StateDrawn        State = "drawn"
	StateClosed       State = "closed"
)

// Finished reports whether the game reached a result or the session closed.
func (s State) Finished() bool {
	return s == StateWon || s == StateDrawn || s == StateClosed
}

func turnState(mark game.PlayerMark) State {
	if mark == game.PlayerO {
		return StateTurnO
	}
	return StateTurnX
}

// DrawPolicy decides what a session does when the board fills up without a
// winner.
type DrawPolicy string

const (
	// DrawReset clears the board and keeps both peers playing; X moves first.
	DrawReset DrawPolicy = "reset"
	// DrawTerminate ends the session.
	DrawTerminate DrawPolicy = "terminate"
)

// ParseDrawPolicy maps a configuration value to a DrawPolicy.
func ParseDrawPolicy(v string) (DrawPolicy, error) {
	switch DrawPolicy(v) {
	case DrawReset, DrawTerminate:
		return DrawPolicy(v), nil
	case "":
		return DrawReset, nil
	}
	return "", fmt.Errorf("unknown draw policy %q", v)
}
