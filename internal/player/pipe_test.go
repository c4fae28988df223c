package player

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipe_Exchange(t *testing.T) {
	a, b := Pipe("bot", 4)

	require.NoError(t, a.SendLine("MOVE:4"))
	require.NoError(t, b.SendLine("MOVE:0"))

	line, err := b.ReceiveLine()
	require.NoError(t, err)
	assert.Equal(t, "MOVE:4", line)

	line, err = a.ReceiveLine()
	require.NoError(t, err)
	assert.Equal(t, "MOVE:0", line)

	assert.Equal(t, "bot", a.RemoteAddr())
}

func TestPipe_PeerCloseDrainsBufferedLines(t *testing.T) {
	a, b := Pipe("bot", 4)

	require.NoError(t, a.SendLine("MARK:X"))
	require.NoError(t, a.SendLine("TURN"))
	require.NoError(t, a.Close())

	line, err := b.ReceiveLine()
	require.NoError(t, err)
	assert.Equal(t, "MARK:X", line)
	line, err = b.ReceiveLine()
	require.NoError(t, err)
	assert.Equal(t, "TURN", line)

	_, err = b.ReceiveLine()
	assert.ErrorIs(t, err, ErrEndOfStream)

	assert.ErrorIs(t, b.SendLine("MOVE:1"), io.ErrClosedPipe)
}

func TestPipe_LocalClose(t *testing.T) {
	a, _ := Pipe("bot", 1)

	done := make(chan error, 1)
	go func() {
		_, err := a.ReceiveLine()
		done <- err
	}()

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	assert.ErrorIs(t, <-done, ErrConnClosed)
	assert.ErrorIs(t, a.SendLine("TURN"), ErrConnClosed)
}
