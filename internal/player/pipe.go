package player

import (
	"io"
	"sync"
)

// MemConn is one end of an in-memory line connection created by Pipe.
type MemConn struct {
	in         <-chan string
	out        chan<- string
	closed     chan struct{}
	peerClosed <-chan struct{}
	closeOnce  sync.Once
	addr       string
}

// Pipe returns two connected in-memory ends. Each direction buffers up to
// buffer lines before SendLine blocks. addr is reported by RemoteAddr on both
// ends.
func Pipe(addr string, buffer int) (*MemConn, *MemConn) {
	ab := make(chan string, buffer)
	ba := make(chan string, buffer)
	aClosed := make(chan struct{})
	bClosed := make(chan struct{})

	a := &MemConn{in: ba, out: ab, closed: aClosed, peerClosed: bClosed, addr: addr}
	b := &MemConn{in: ab, out: ba, closed: bClosed, peerClosed: aClosed, addr: addr}
	return a, b
}

// ReceiveLine returns lines the peer sent, including those still buffered
// when the peer closed.
func (c *MemConn) ReceiveLine() (string, error) {
	select {
	case <-c.closed:
		return "", ErrConnClosed
	default:
	}

	select {
	case line := <-c.in:
		return line, nil
	case <-c.closed:
		return "", ErrConnClosed
	case <-c.peerClosed:
		select {
		case line := <-c.in:
			return line, nil
		default:
			return "", ErrEndOfStream
		}
	}
}

func (c *MemConn) SendLine(line string) error {
	select {
	case <-c.closed:
		return ErrConnClosed
	case <-c.peerClosed:
		return io.ErrClosedPipe
	default:
	}

	select {
	case c.out <- line:
		return nil
	case <-c.closed:
		return ErrConnClosed
	case <-c.peerClosed:
		return io.ErrClosedPipe
	}
}

func (c *MemConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
	return nil
}

func (c *MemConn) RemoteAddr() string {
	return c.addr
}
