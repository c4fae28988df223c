package bot

import (
	"fmt"
	"math/rand/v2"

	"ctchen222/tictactoe-relay/internal/game"
)

// Difficulty selects the move strategy.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty maps a configuration value to a Difficulty.
func ParseDifficulty(v string) (Difficulty, error) {
	switch Difficulty(v) {
	case Easy, Medium, Hard:
		return Difficulty(v), nil
	}
	return "", fmt.Errorf("unknown bot difficulty %q", v)
}

var (
	corners = []int{0, 2, 6, 8}
	sides   = []int{1, 3, 5, 7}
)

const center = 4

// CalculateNextMove picks a cell index for botMark, or -1 when the board is
// full. Unknown difficulties play as Hard.
func CalculateNextMove(board game.Board, botMark game.PlayerMark, difficulty Difficulty) int {
	switch difficulty {
	case Easy:
		return easyMove(board)
	case Medium:
		return mediumMove(board, botMark)
	default:
		return hardMove(board, botMark)
	}
}

// easyMove makes a completely random move.
func easyMove(board game.Board) int {
	return randomEmpty(board, allCells())
}

// mediumMove will win if it can, block if it must, otherwise move randomly.
func mediumMove(board game.Board, botMark game.PlayerMark) int {
	if idx, ok := findWinningMove(board, botMark); ok {
		return idx
	}
	if idx, ok := findWinningMove(board, botMark.Opponent()); ok {
		return idx
	}
	return easyMove(board)
}

// hardMove: win, block, center, corner, side.
func hardMove(board game.Board, botMark game.PlayerMark) int {
	if idx, ok := findWinningMove(board, botMark); ok {
		return idx
	}
	if idx, ok := findWinningMove(board, botMark.Opponent()); ok {
		return idx
	}
	if board[center] == game.None {
		return center
	}
	if idx := randomEmpty(board, corners); idx >= 0 {
		return idx
	}
	return randomEmpty(board, sides)
}

// findWinningMove returns the empty cell that completes a line of mark.
func findWinningMove(board game.Board, mark game.PlayerMark) (int, bool) {
	for _, line := range game.WinLines {
		owned, empty := 0, -1
		for _, idx := range line {
			switch board[idx] {
			case mark:
				owned++
			case game.None:
				empty = idx
			}
		}
		if owned == 2 && empty >= 0 {
			return empty, true
		}
	}
	return -1, false
}

func randomEmpty(board game.Board, candidates []int) int {
	var available []int
	for _, idx := range candidates {
		if board[idx] == game.None {
			available = append(available, idx)
		}
	}
	if len(available) == 0 {
		return -1
	}
	return available[rand.IntN(len(available))]
}

func allCells() []int {
	cells := make([]int, game.CellCount)
	for i := range cells {
		cells[i] = i
	}
	return cells
}
