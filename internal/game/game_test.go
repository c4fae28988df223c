package game

import (
	"errors"
	"testing"
)

func TestBoardWinner(t *testing.T) {
	tests := []struct {
		name  string
		board Board
		want  PlayerMark
	}{
		{
			name:  "No winner - empty board",
			board: Board{},
			want:  None,
		},
		{
			name: "No winner - partial board",
			board: Board{
				PlayerX, None, None,
				None, PlayerO, None,
				None, None, None,
			},
			want: None,
		},
		{
			name: "X wins - first row",
			board: Board{
				PlayerX, PlayerX, PlayerX,
				None, PlayerO, None,
				None, None, PlayerO,
			},
			want: PlayerX,
		},
		{
			name: "O wins - second column",
			board: Board{
				PlayerX, PlayerO, None,
				PlayerX, PlayerO, None,
				None, PlayerO, None,
			},
			want: PlayerO,
		},
		{
			name: "X wins - main diagonal",
			board: Board{
				PlayerX, None, None,
				None, PlayerX, None,
				None, None, PlayerX,
			},
			want: PlayerX,
		},
		{
			name: "O wins - anti-diagonal",
			board: Board{
				None, None, PlayerO,
				None, PlayerO, None,
				PlayerO, None, None,
			},
			want: PlayerO,
		},
		{
			name: "No winner - full board (draw)",
			board: Board{
				PlayerX, PlayerO, PlayerX,
				PlayerX, PlayerO, PlayerO,
				PlayerO, PlayerX, PlayerX,
			},
			want: None,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.board.Winner(); got != tt.want {
				t.Errorf("Winner() got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBoardWinner_EveryLine(t *testing.T) {
	for _, mark := range []PlayerMark{PlayerX, PlayerO} {
		for _, line := range WinLines {
			var b Board
			for _, idx := range line {
				b[idx] = mark
			}
			if got := b.Winner(); got != mark {
				t.Errorf("line %v with %s: Winner() = %q, want %q", line, mark, got, mark)
			}
		}
	}
}

func TestBoardIsFull(t *testing.T) {
	tests := []struct {
		name  string
		board Board
		want  bool
	}{
		{
			name:  "Empty board is not full",
			board: Board{},
			want:  false,
		},
		{
			name: "Partial board is not full",
			board: Board{
				PlayerX, None, None,
				None, PlayerO, None,
				None, None, None,
			},
			want: false,
		},
		{
			name: "Full board is full",
			board: Board{
				PlayerX, PlayerO, PlayerX,
				PlayerX, PlayerO, PlayerO,
				PlayerO, PlayerX, PlayerX,
			},
			want: true,
		},
		{
			name: "Full board with winner is full",
			board: Board{
				PlayerX, PlayerX, PlayerX,
				PlayerO, PlayerO, PlayerX,
				PlayerO, PlayerX, PlayerO,
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.board.IsFull(); got != tt.want {
				t.Errorf("IsFull() got = %v, want %v", got, tt.want)
			}
		})
	}
}

// Every full board without a completed line must read as a draw.
func TestBoard_FullWithoutLineIsDraw(t *testing.T) {
	checked := 0
	for bits := 0; bits < 1<<CellCount; bits++ {
		var b Board
		xs := 0
		for i := range b {
			if bits&(1<<i) != 0 {
				b[i] = PlayerX
				xs++
			} else {
				b[i] = PlayerO
			}
		}
		if xs != 5 || hasLine(b) {
			continue
		}
		checked++
		if !b.IsFull() {
			t.Fatalf("board %v: IsFull() = false", b)
		}
		if w := b.Winner(); w != None {
			t.Fatalf("board %v: Winner() = %q, want none", b, w)
		}
	}
	if checked == 0 {
		t.Fatal("no draw boards enumerated")
	}
}

func hasLine(b Board) bool {
	for _, l := range WinLines {
		if b[l[0]] == b[l[1]] && b[l[1]] == b[l[2]] {
			return true
		}
	}
	return false
}

func TestBoardApply(t *testing.T) {
	t.Run("occupied cell leaves board unchanged", func(t *testing.T) {
		var b Board
		if err := b.Apply(4, PlayerX); err != nil {
			t.Fatalf("Apply() unexpected error: %v", err)
		}
		before := b

		err := b.Apply(4, PlayerO)
		if !errors.Is(err, ErrInvalidMove) {
			t.Fatalf("Apply() error = %v, want ErrInvalidMove", err)
		}
		if b != before {
			t.Errorf("board changed after failed Apply: got %v, want %v", b, before)
		}
	})

	for _, idx := range []int{-1, 9, 42} {
		var b Board
		if err := b.Apply(idx, PlayerX); !errors.Is(err, ErrInvalidMove) {
			t.Errorf("Apply(%d) error = %v, want ErrInvalidMove", idx, err)
		}
		if b != (Board{}) {
			t.Errorf("Apply(%d) mutated board: %v", idx, b)
		}
	}

	var b Board
	if err := b.Apply(0, None); !errors.Is(err, ErrInvalidMove) {
		t.Errorf("Apply(None) error = %v, want ErrInvalidMove", err)
	}
}

func TestBoardReset(t *testing.T) {
	b := Board{PlayerX, PlayerO, PlayerX}
	b.Reset()
	if b != (Board{}) {
		t.Errorf("Reset() left %v", b)
	}
}

func TestBoardRows(t *testing.T) {
	b := Board{PlayerX, None, None, None, PlayerO, None, None, None, PlayerX}
	rows := b.Rows()
	if len(rows) != 3 || rows[0][0] != PlayerX || rows[1][1] != PlayerO || rows[2][2] != PlayerX {
		t.Errorf("Rows() = %v", rows)
	}
}

func TestGameMove(t *testing.T) {
	g := NewGame()
	if g.Turn != PlayerX {
		t.Fatalf("first turn = %q, want X", g.Turn)
	}

	if _, err := g.Move(PlayerO, 0); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("O moving first: error = %v, want ErrNotYourTurn", err)
	}
	if g.Board != (Board{}) {
		t.Fatalf("rejected move mutated board: %v", g.Board)
	}

	outcome, err := g.Move(PlayerX, 4)
	if err != nil || outcome != OutcomeInProgress {
		t.Fatalf("Move(X,4) = %v, %v", outcome, err)
	}
	if g.Turn != PlayerO {
		t.Errorf("turn after X = %q, want O", g.Turn)
	}

	if _, err := g.Move(PlayerO, 4); !errors.Is(err, ErrInvalidMove) {
		t.Errorf("occupied: error = %v, want ErrInvalidMove", err)
	}
	if g.Turn != PlayerO {
		t.Errorf("turn flipped after rejected move: %q", g.Turn)
	}
}

func TestGameMove_Win(t *testing.T) {
	g := NewGame()
	moves := []struct {
		mark  PlayerMark
		index int
	}{
		{PlayerX, 0}, {PlayerO, 4}, {PlayerX, 1}, {PlayerO, 3}, {PlayerX, 2},
	}

	var outcome Outcome
	var err error
	for _, m := range moves {
		outcome, err = g.Move(m.mark, m.index)
		if err != nil {
			t.Fatalf("Move(%s,%d): %v", m.mark, m.index, err)
		}
	}

	if outcome != OutcomeWin || g.Winner != PlayerX {
		t.Errorf("outcome = %v winner = %q, want win for X", outcome, g.Winner)
	}
	if _, err := g.Move(PlayerO, 8); !errors.Is(err, ErrGameOver) {
		t.Errorf("move after win: error = %v, want ErrGameOver", err)
	}
}

func TestGameMove_DrawAndReset(t *testing.T) {
	g := NewGame()
	// X O X / X O O / O X X
	order := []int{0, 1, 2, 4, 3, 5, 7, 6, 8}

	var outcome Outcome
	for i, idx := range order {
		mark := PlayerX
		if i%2 == 1 {
			mark = PlayerO
		}
		var err error
		outcome, err = g.Move(mark, idx)
		if err != nil {
			t.Fatalf("Move(%s,%d): %v", mark, idx, err)
		}
	}
	if outcome != OutcomeDraw || !g.IsOver() {
		t.Fatalf("outcome = %v, want draw", outcome)
	}

	g.Reset()
	if g.IsOver() || g.Turn != PlayerX || g.Board != (Board{}) || g.Winner != None {
		t.Errorf("Reset() left game %+v", g)
	}
}

func TestPlayerMarkOpponent(t *testing.T) {
	if PlayerX.Opponent() != PlayerO || PlayerO.Opponent() != PlayerX || None.Opponent() != None {
		t.Error("Opponent() mapping is wrong")
	}
}
