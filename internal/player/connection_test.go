package player

import (
	"bufio"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"ctchen222/tictactoe-relay/internal/game"
	"ctchen222/tictactoe-relay/pkg/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineConn_ReceiveLine(t *testing.T) {
	server, client := net.Pipe()
	conn := NewLineConn(server, 0)
	defer conn.Close()

	go func() {
		_, _ = client.Write([]byte("PLAYER_ID:alice\nMOVE:4\r\nMOVE:5"))
		_ = client.Close()
	}()

	line, err := conn.ReceiveLine()
	require.NoError(t, err)
	assert.Equal(t, "PLAYER_ID:alice", line)

	line, err = conn.ReceiveLine()
	require.NoError(t, err)
	assert.Equal(t, "MOVE:4\r", line)

	// A final line without delimiter is still delivered.
	line, err = conn.ReceiveLine()
	require.NoError(t, err)
	assert.Equal(t, "MOVE:5", line)

	_, err = conn.ReceiveLine()
	assert.ErrorIs(t, err, ErrEndOfStream)
}

func TestLineConn_TooLongLineIsProtocolError(t *testing.T) {
	server, client := net.Pipe()
	conn := NewLineConn(server, 0)
	defer conn.Close()

	go func() {
		_, _ = client.Write([]byte(strings.Repeat("a", proto.MaxLineLength*2) + "\n"))
	}()

	_, err := conn.ReceiveLine()
	assert.ErrorIs(t, err, proto.ErrProtocol)
}

func TestLineConn_SendLine(t *testing.T) {
	server, client := net.Pipe()
	conn := NewLineConn(server, time.Second)
	defer conn.Close()

	r := bufio.NewReader(client)
	go func() {
		_ = conn.SendLine("MARK:X")
	}()

	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "MARK:X\n", line)
}

func TestLineConn_ConcurrentSendsDoNotInterleave(t *testing.T) {
	server, client := net.Pipe()
	conn := NewLineConn(server, 0)
	defer conn.Close()

	const senders = 8
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = conn.SendLine("MOVE:" + strings.Repeat("1", 64))
		}()
	}

	r := bufio.NewReader(client)
	for i := 0; i < senders; i++ {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, "MOVE:"+strings.Repeat("1", 64)+"\n", line)
	}
	wg.Wait()
}

func TestLineConn_CloseUnblocksReceive(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	conn := NewLineConn(server, 0)

	errCh := make(chan error, 1)
	go func() {
		_, err := conn.ReceiveLine()
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, conn.Close())
	// Second close is a no-op.
	require.NoError(t, conn.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrConnClosed)
	case <-time.After(time.Second):
		t.Fatal("ReceiveLine did not unblock after Close")
	}

	assert.True(t, errors.Is(conn.SendLine("TURN"), ErrConnClosed))
}

func TestPlayer_Accessors(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	p := NewPlayer("p1", NewLineConn(server, 0))
	defer p.Conn.Close()

	assert.Empty(t, p.Name())
	p.SetName("bob")
	p.SetMark(game.PlayerO)
	assert.Equal(t, "bob", p.Name())
	assert.Equal(t, game.PlayerO, p.Mark())

	go func() { _ = p.Send(proto.Turn()) }()
	line, err := bufio.NewReader(client).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "TURN\n", line)
}
