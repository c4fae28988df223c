package player

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"ctchen222/tictactoe-relay/pkg/proto"
)

var (
	// ErrEndOfStream means the peer closed its side. It is a normal way for
	// a session to end, not a failure.
	ErrEndOfStream = errors.New("end of stream")
	// ErrConnClosed means the connection was closed locally.
	ErrConnClosed = errors.New("connection closed")
)

// LineConn wraps a net.Conn as a newline-delimited text channel.
type LineConn struct {
	conn         net.Conn
	scanner      *bufio.Scanner
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

// NewLineConn wraps conn. A positive writeTimeout bounds every SendLine.
func NewLineConn(conn net.Conn, writeTimeout time.Duration) *LineConn {
	scanner := bufio.NewScanner(conn)
	// Room for the "\r\n" terminator on top of the longest line.
	scanner.Buffer(make([]byte, 0, 256), proto.MaxLineLength+2)

	return &LineConn{
		conn:         conn,
		scanner:      scanner,
		writeTimeout: writeTimeout,
		closed:       make(chan struct{}),
	}
}

// ReceiveLine must only be called from one goroutine at a time.
func (c *LineConn) ReceiveLine() (string, error) {
	if c.scanner.Scan() {
		return c.scanner.Text(), nil
	}

	err := c.scanner.Err()
	switch {
	case err == nil, errors.Is(err, io.EOF):
		if c.isClosed() {
			return "", ErrConnClosed
		}
		return "", ErrEndOfStream
	case errors.Is(err, bufio.ErrTooLong):
		return "", fmt.Errorf("%w: line exceeds %d bytes", proto.ErrProtocol, proto.MaxLineLength)
	case errors.Is(err, net.ErrClosed), c.isClosed():
		return "", ErrConnClosed
	default:
		return "", fmt.Errorf("receive line: %w", err)
	}
}

func (c *LineConn) SendLine(line string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.isClosed() {
		return ErrConnClosed
	}

	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}
	if _, err := io.WriteString(c.conn, line+"\n"); err != nil {
		return fmt.Errorf("send line: %w", err)
	}
	return nil
}

func (c *LineConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *LineConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *LineConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}
