package repository

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"ctchen222/tictactoe-relay/internal/db"
	"ctchen222/tictactoe-relay/internal/events"
	"ctchen222/tictactoe-relay/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *sqlitePlayerRepository {
	t.Helper()
	pool, err := db.OpenSQLite(filepath.Join(t.TempDir(), "roster.db"))
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return NewPlayerRepository(pool).(*sqlitePlayerRepository)
}

func TestPlayerRepository_RecordIdentity(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	clock := time.Unix(1_700_000_000, 0)
	repo.now = func() time.Time { return clock }

	require.NoError(t, repo.RecordIdentity(ctx, "alice", "10.0.0.1:4000"))
	clock = clock.Add(time.Minute)
	require.NoError(t, repo.RecordIdentity(ctx, "alice", "10.0.0.2:4001"))
	require.NoError(t, repo.RecordIdentity(ctx, "bob", "10.0.0.3:4002"))

	alice, err := repo.FindByName(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.Equal(t, 2, alice.TimesSeen)
	assert.Equal(t, "10.0.0.2:4001", alice.LastAddr)
	assert.Equal(t, int64(1_700_000_000), alice.FirstSeen.Unix())
	assert.Equal(t, int64(1_700_000_060), alice.LastSeen.Unix())

	missing, err := repo.FindByName(ctx, "carol")
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alice", list[0].Name)
	assert.Equal(t, "bob", list[1].Name)
}

func TestRosterRecorder(t *testing.T) {
	repo := newTestRepo(t)
	rec := NewRosterRecorder(repo, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	ctx := context.Background()

	rec.Notify(ctx, events.New(events.TypeMoveApplied, "s1", events.MovePayload{Index: 4}))
	rec.Notify(ctx, events.New(events.TypePlayerIdentified, "s1", events.PlayerIdentifiedPayload{
		PlayerInfo: events.PlayerInfo{PlayerID: "p1", Name: "alice", Mark: game.PlayerX, Addr: "127.0.0.1:5555"},
	}))
	rec.Notify(ctx, events.New(events.TypePlayerIdentified, "s1", events.PlayerIdentifiedPayload{
		PlayerInfo: events.PlayerInfo{PlayerID: "p2"},
	}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].Name)
	assert.Equal(t, "127.0.0.1:5555", list[0].LastAddr)
}
