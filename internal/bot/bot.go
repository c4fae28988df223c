package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"ctchen222/tictactoe-relay/internal/game"
	"ctchen222/tictactoe-relay/internal/player"
	"ctchen222/tictactoe-relay/pkg/proto"

	"github.com/google/uuid"
)

const lineBuffer = 8

// Bot is a practice opponent that speaks the peer side of the protocol over
// an in-memory connection. It tracks its own copy of the board from the
// MOVE lines it is sent.
type Bot struct {
	ID         string
	conn       player.Connection
	difficulty Difficulty
	thinkTime  time.Duration
	logger     *slog.Logger

	mark  game.PlayerMark
	board game.Board
}

// NewBotPlayer returns a player to seat in a session and the bot driving the
// other end of its connection. Call Run to start playing.
func NewBotPlayer(difficulty Difficulty, thinkTime time.Duration, logger *slog.Logger) (*player.Player, *Bot) {
	if logger == nil {
		logger = slog.Default()
	}
	id := "bot-" + uuid.New().String()[:8]
	serverEnd, botEnd := player.Pipe("bot", lineBuffer)

	b := &Bot{
		ID:         id,
		conn:       botEnd,
		difficulty: difficulty,
		thinkTime:  thinkTime,
		logger:     logger.With("component", "bot", "player.id", id),
	}
	return player.NewPlayer(id, serverEnd), b
}

// Run plays until the session closes the connection or announces a winner.
func (b *Bot) Run(ctx context.Context) error {
	defer b.conn.Close()
	stop := context.AfterFunc(ctx, func() { b.conn.Close() })
	defer stop()

	if err := b.conn.SendLine(proto.Encode(proto.PlayerID(b.ID))); err != nil {
		return b.ended(err)
	}

	for {
		line, err := b.conn.ReceiveLine()
		if err != nil {
			return b.ended(err)
		}

		msg, err := proto.Decode(line)
		if err != nil {
			b.logger.WarnContext(ctx, "bot ignored unreadable line", "line", line, "error", err)
			continue
		}

		switch msg.Verb {
		case proto.VerbMark:
			b.mark = msg.Mark
			b.logger.InfoContext(ctx, "bot assigned mark", "mark", string(b.mark), "difficulty", string(b.difficulty))

		case proto.VerbTurn:
			if err := b.play(ctx); err != nil {
				return b.ended(err)
			}

		case proto.VerbMove:
			if err := b.board.Apply(msg.Index, b.mark.Opponent()); err != nil {
				b.logger.WarnContext(ctx, "bot board out of sync", "error", err)
				continue
			}
			if b.board.Winner() == game.None && !b.board.IsFull() {
				if err := b.play(ctx); err != nil {
					return b.ended(err)
				}
			}

		case proto.VerbDraw:
			b.board.Reset()

		case proto.VerbWinner:
			b.logger.InfoContext(ctx, "bot game finished", "winner", string(msg.Mark))
			return nil

		case proto.VerbError:
			b.logger.WarnContext(ctx, "bot move refused", "reason", msg.Text)
		}
	}
}

func (b *Bot) play(ctx context.Context) error {
	if b.thinkTime > 0 {
		select {
		case <-time.After(b.thinkTime):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	idx := CalculateNextMove(b.board, b.mark, b.difficulty)
	if idx < 0 {
		return nil
	}
	if err := b.board.Apply(idx, b.mark); err != nil {
		return err
	}
	return b.conn.SendLine(proto.Encode(proto.Move(idx)))
}

func (b *Bot) ended(err error) error {
	if errors.Is(err, player.ErrEndOfStream) || errors.Is(err, player.ErrConnClosed) || errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	return err
}
