package game

import (
	"errors"
)

// Outcome is the state of a game after a move.
type Outcome string

const (
	OutcomeInProgress Outcome = "in_progress"
	OutcomeWin        Outcome = "win"
	OutcomeDraw       Outcome = "draw"
)

var (
	ErrGameOver    = errors.New("game already finished")
	ErrNotYourTurn = errors.New("not your turn")
)

// Game is a board plus the turn state. It is not safe for concurrent use;
// callers hold their own lock around Move and Reset.
type Game struct {
	Board   Board
	Turn    PlayerMark
	Winner  PlayerMark
	Outcome Outcome
}

// NewGame returns an empty game where X moves first.
func NewGame() *Game {
	return &Game{
		Turn:    PlayerX,
		Winner:  None,
		Outcome: OutcomeInProgress,
	}
}

// Move places mark at index if it is that mark's turn, then evaluates the
// board. The turn only flips while the game is still in progress.
func (g *Game) Move(mark PlayerMark, index int) (Outcome, error) {
	if g.Outcome != OutcomeInProgress {
		return g.Outcome, ErrGameOver
	}
	if mark != g.Turn {
		return g.Outcome, ErrNotYourTurn
	}
	if err := g.Board.Apply(index, mark); err != nil {
		return g.Outcome, err
	}

	if winner := g.Board.Winner(); winner != None {
		g.Winner = winner
		g.Outcome = OutcomeWin
		return g.Outcome, nil
	}
	if g.Board.IsFull() {
		g.Outcome = OutcomeDraw
		return g.Outcome, nil
	}

	g.Turn = g.Turn.Opponent()
	return g.Outcome, nil
}

// Reset starts a new game on the same Game value. X moves first again.
func (g *Game) Reset() {
	g.Board.Reset()
	g.Turn = PlayerX
	g.Winner = None
	g.Outcome = OutcomeInProgress
}

// IsOver reports whether the game reached a win or a draw.
func (g *Game) IsOver() bool {
	return g.Outcome != OutcomeInProgress
}
