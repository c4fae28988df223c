package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"ctchen222/tictactoe-relay/internal/player"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("server")
	meter  = otel.Meter("server")

	connsAccepted, _ = meter.Int64Counter("tictactoe.connections.accepted",
		metric.WithDescription("TCP connections accepted on the game port"))
)

const maxAcceptDelay = time.Second

// Registrar takes ownership of an accepted peer.
type Registrar interface {
	Register(ctx context.Context, p *player.Player) error
}

type Server struct {
	registrar    Registrar
	writeTimeout time.Duration
	logger       *slog.Logger
}

func NewServer(r Registrar, writeTimeout time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		registrar:    r,
		writeTimeout: writeTimeout,
		logger:       logger.With("component", "server"),
	}
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then closes ln and
// returns nil. Accept errors other than a closed listener are retried with
// backoff.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	s.logger.InfoContext(ctx, "game listener started", "addr", ln.Addr().String())

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}

			if delay == 0 {
				delay = 5 * time.Millisecond
			} else {
				delay = min(delay*2, maxAcceptDelay)
			}
			s.logger.WarnContext(ctx, "accept failed, retrying", "error", err, "retry_in", delay.String())
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		delay = 0

		s.handleConn(ctx, conn)
	}
}

// handleConn wraps the socket and hands the peer to the registrar. It runs on
// the accept loop so peers are queued in accept order.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	ctx, span := tracer.Start(ctx, "server.handleConn", trace.WithAttributes(
		attribute.String("net.peer.addr", conn.RemoteAddr().String()),
	))
	defer span.End()

	connsAccepted.Add(ctx, 1)

	p := player.NewPlayer(uuid.New().String(), player.NewLineConn(conn, s.writeTimeout))
	span.SetAttributes(attribute.String("player.id", p.ID))
	s.logger.InfoContext(ctx, "peer connected", "player.id", p.ID, "addr", conn.RemoteAddr().String())

	if err := s.registrar.Register(ctx, p); err != nil {
		s.logger.WarnContext(ctx, "failed to register peer", "player.id", p.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to register peer")
		p.Conn.Close()
	}
}
