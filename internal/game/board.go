package game

import (
	"errors"
	"fmt"
)

// PlayerMark represents the mark of a player (X, O) or an empty cell.
type PlayerMark string

const (
	// Player marks. X always moves first.
	None    PlayerMark = ""
	PlayerX PlayerMark = "X"
	PlayerO PlayerMark = "O"

	// Board boundaries
	CellMin   = 0
	CellMax   = 8
	CellCount = 9
)

var ErrInvalidMove = errors.New("invalid move")

// WinLines are the index triples (rows, columns, diagonals) that win the game.
var WinLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Opponent returns the other player's mark. None has no opponent.
func (m PlayerMark) Opponent() PlayerMark {
	switch m {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return None
	}
}

// Valid reports whether m is a mark a player can place.
func (m PlayerMark) Valid() bool {
	return m == PlayerX || m == PlayerO
}

// Board is a 3x3 grid stored row-major: 0,1,2 / 3,4,5 / 6,7,8.
type Board [CellCount]PlayerMark

// Apply sets cell index to mark. The board is left untouched on error.
func (b *Board) Apply(index int, mark PlayerMark) error {
	if !mark.Valid() {
		return fmt.Errorf("%w: mark %q cannot be placed", ErrInvalidMove, mark)
	}
	if index < CellMin || index > CellMax {
		return fmt.Errorf("%w: cell %d out of range", ErrInvalidMove, index)
	}
	if b[index] != None {
		return fmt.Errorf("%w: cell %d occupied", ErrInvalidMove, index)
	}

	b[index] = mark
	return nil
}

// Winner returns the mark that completes any win line, or None.
func (b *Board) Winner() PlayerMark {
	for _, line := range WinLines {
		first := b[line[0]]
		if first != None && first == b[line[1]] && first == b[line[2]] {
			return first
		}
	}
	return None
}

// IsFull reports whether no cell is empty.
func (b *Board) IsFull() bool {
	for _, cell := range b {
		if cell == None {
			return false
		}
	}
	return true
}

// Reset empties every cell.
func (b *Board) Reset() {
	*b = Board{}
}

// Rows returns the board as a 3x3 grid, the shape API consumers render.
func (b *Board) Rows() [][]PlayerMark {
	rows := make([][]PlayerMark, 3)
	for r := range rows {
		rows[r] = []PlayerMark{b[r*3], b[r*3+1], b[r*3+2]}
	}
	return rows
}
