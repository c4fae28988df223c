package server

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"ctchen222/tictactoe-relay/internal/hub"
	"ctchen222/tictactoe-relay/internal/player"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

type peer struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func dial(t *testing.T, addr string) *peer {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &peer{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

func (p *peer) send(line string) {
	p.t.Helper()
	_, err := io.WriteString(p.conn, line+"\n")
	require.NoError(p.t, err)
}

func (p *peer) expect(want string) {
	p.t.Helper()
	require.NoError(p.t, p.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	line, err := p.reader.ReadString('\n')
	require.NoError(p.t, err)
	require.Equal(p.t, want, strings.TrimRight(line, "\r\n"))
}

func (p *peer) expectEOF() {
	p.t.Helper()
	require.NoError(p.t, p.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := p.reader.ReadString('\n')
	require.ErrorIs(p.t, err, io.EOF)
}

func startStack(t *testing.T, opts hub.Options) string {
	t.Helper()
	opts.Logger = discardLogger()
	h := hub.NewHub(opts)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = h.Run(ctx) }()
	go func() { defer wg.Done(); _ = NewServer(h, time.Second, discardLogger()).Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return ln.Addr().String()
}

func TestServer_FullGameOverTCP(t *testing.T) {
	addr := startStack(t, hub.Options{})

	a := dial(t, addr)
	a.send("PLAYER_ID:A")
	b := dial(t, addr)
	b.send("PLAYER_ID:B")

	a.expect("MARK:X")
	b.expect("MARK:O")
	a.expect("TURN")

	a.send("MOVE:0")
	b.expect("MOVE:0")
	b.send("MOVE:4")
	a.expect("MOVE:4")
	a.send("MOVE:1")
	b.expect("MOVE:1")
	b.send("MOVE:3")
	a.expect("MOVE:3")
	a.send("MOVE:2")
	b.expect("MOVE:2")

	a.expect("WINNER:X")
	b.expect("WINNER:X")
	a.expectEOF()
	b.expectEOF()
}

func TestServer_DisconnectClosesOpponent(t *testing.T) {
	addr := startStack(t, hub.Options{})

	a := dial(t, addr)
	b := dial(t, addr)

	a.expect("MARK:X")
	b.expect("MARK:O")
	a.expect("TURN")

	require.NoError(t, b.conn.Close())
	a.expectEOF()
}

func TestServer_MatchmakingTimeout(t *testing.T) {
	addr := startStack(t, hub.Options{MaxWait: 50 * time.Millisecond, OnTimeout: hub.TimeoutClose})

	a := dial(t, addr)
	a.expect("ERROR:no opponent found")
	a.expectEOF()
}

// orderRegistrar records the remote address of each registered peer.
type orderRegistrar struct {
	mu    sync.Mutex
	addrs []string
}

func (r *orderRegistrar) Register(_ context.Context, p *player.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addrs = append(r.addrs, p.Conn.RemoteAddr())
	return nil
}

func (r *orderRegistrar) registered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.addrs...)
}

func TestServer_RegistersInAcceptOrder(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	reg := &orderRegistrar{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer(reg, 0, discardLogger()).Serve(ctx, ln) }()
	defer func() {
		cancel()
		<-done
	}()

	const peers = 100
	dialed := make([]string, 0, peers)
	for range peers {
		conn, err := net.Dial("tcp", ln.Addr().String())
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		dialed = append(dialed, conn.LocalAddr().String())
	}

	require.Eventually(t, func() bool {
		return len(reg.registered()) == peers
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, dialed, reg.registered())
}

type failingRegistrar struct{}

func (failingRegistrar) Register(context.Context, *player.Player) error {
	return errors.New("queue closed")
}

func TestServer_RegisterFailureClosesConn(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer(failingRegistrar{}, 0, discardLogger()).Serve(ctx, ln) }()

	a := dial(t, ln.Addr().String())
	a.expectEOF()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
