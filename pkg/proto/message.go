// Package proto is the newline-delimited text protocol spoken between the
// server and its peers. One message per line; the delimiter is not part of
// the encoded form.
package proto

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"ctchen222/tictactoe-relay/internal/game"
)

// Verb identifies the kind of a protocol line.
type Verb string

const (
	// peer -> server
	VerbPlayerID Verb = "PLAYER_ID"

	// both directions
	VerbMove Verb = "MOVE"

	// server -> peer
	VerbMark   Verb = "MARK"
	VerbTurn   Verb = "TURN"
	VerbWinner Verb = "WINNER"
	VerbDraw   Verb = "DRAW"
	VerbError  Verb = "ERROR"
)

const separator = ":"

// MaxLineLength bounds a single line, delimiter excluded.
const MaxLineLength = 1024

var ErrProtocol = errors.New("protocol error")

// Message is one decoded protocol line. Only the field matching Verb is set.
type Message struct {
	Verb  Verb
	Index int             // MOVE
	Mark  game.PlayerMark // MARK, WINNER
	Text  string          // PLAYER_ID, ERROR
}

// FromPeer reports whether peers are allowed to send this verb.
func (m Message) FromPeer() bool {
	return m.Verb == VerbPlayerID || m.Verb == VerbMove
}

// Encode renders m without the trailing delimiter.
func Encode(m Message) string {
	switch m.Verb {
	case VerbMove:
		return string(VerbMove) + separator + strconv.Itoa(m.Index)
	case VerbMark, VerbWinner:
		return string(m.Verb) + separator + string(m.Mark)
	case VerbPlayerID, VerbError:
		return string(m.Verb) + separator + m.Text
	default:
		return string(m.Verb)
	}
}

// Decode parses a single line. A trailing "\r" is tolerated. Any line that
// does not match a known pattern yields an error wrapping ErrProtocol.
func Decode(line string) (Message, error) {
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return Message{}, fmt.Errorf("%w: empty line", ErrProtocol)
	}
	if len(line) > MaxLineLength {
		return Message{}, fmt.Errorf("%w: line exceeds %d bytes", ErrProtocol, MaxLineLength)
	}
	if !utf8.ValidString(line) {
		return Message{}, fmt.Errorf("%w: line is not valid UTF-8", ErrProtocol)
	}

	verb, arg, hasArg := strings.Cut(line, separator)
	switch Verb(verb) {
	case VerbTurn, VerbDraw:
		if hasArg {
			return Message{}, fmt.Errorf("%w: %s takes no argument", ErrProtocol, verb)
		}
		return Message{Verb: Verb(verb)}, nil

	case VerbMove:
		if !hasArg {
			return Message{}, fmt.Errorf("%w: MOVE without index", ErrProtocol)
		}
		index, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return Message{}, fmt.Errorf("%w: MOVE index %q is not a number", ErrProtocol, arg)
		}
		return Message{Verb: VerbMove, Index: index}, nil

	case VerbMark, VerbWinner:
		mark := game.PlayerMark(arg)
		if !hasArg || !mark.Valid() {
			return Message{}, fmt.Errorf("%w: %s mark %q", ErrProtocol, verb, arg)
		}
		return Message{Verb: Verb(verb), Mark: mark}, nil

	case VerbPlayerID, VerbError:
		if !hasArg {
			return Message{}, fmt.Errorf("%w: %s without value", ErrProtocol, verb)
		}
		return Message{Verb: Verb(verb), Text: arg}, nil
	}

	return Message{}, fmt.Errorf("%w: unknown verb %q", ErrProtocol, verb)
}

// Mark assigns a peer its mark for the match.
func Mark(m game.PlayerMark) Message { return Message{Verb: VerbMark, Mark: m} }

// Turn grants the receiving peer the right to move.
func Turn() Message { return Message{Verb: VerbTurn} }

// Move claims (peer) or relays (server) a move at index.
func Move(index int) Message { return Message{Verb: VerbMove, Index: index} }

// Winner announces the winning mark.
func Winner(m game.PlayerMark) Message { return Message{Verb: VerbWinner, Mark: m} }

// Draw announces a full board without a winner.
func Draw() Message { return Message{Verb: VerbDraw} }

// Error tells a peer why its last line was refused.
func Error(reason string) Message { return Message{Verb: VerbError, Text: reason} }

// PlayerID declares a display name.
func PlayerID(name string) Message { return Message{Verb: VerbPlayerID, Text: name} }
