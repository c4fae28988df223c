package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("events")

// RedisPublisher publishes events to a global channel and to a per-session
// channel so external spectators can follow a single match.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
	logger  *slog.Logger
}

// NewRedisPublisher creates a publisher. An empty channel uses EventsChannel.
func NewRedisPublisher(rdb *redis.Client, channel string, logger *slog.Logger) *RedisPublisher {
	if channel == "" {
		channel = EventsChannel
	}
	return &RedisPublisher{
		rdb:     rdb,
		channel: channel,
		logger:  logger.With("component", "redis-publisher"),
	}
}

// SessionChannel is the per-session Pub/Sub channel name.
func SessionChannel(sessionID string) string {
	return fmt.Sprintf(sessionChannelFmt, sessionID)
}

func (p *RedisPublisher) Notify(ctx context.Context, event Event) {
	if err := p.Publish(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event", "event", event.Type, "session.id", event.SessionID, "error", err)
	}
}

// Publish sends event to both channels in one pipeline.
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	ctx, span := tracer.Start(ctx, "events.Publish", trace.WithAttributes(
		attribute.String("event.type", event.Type),
		attribute.String("session.id", event.SessionID),
	))
	defer span.End()

	data, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pipe := p.rdb.Pipeline()
	pipe.Publish(ctx, p.channel, data)
	pipe.Publish(ctx, SessionChannel(event.SessionID), data)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to publish event")
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

const subscribeTimeout = 5 * time.Second

// RedisSubscriber follows per-session Pub/Sub channels, so spectators see
// events published by any relay instance sharing the Redis server.
type RedisSubscriber struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func NewRedisSubscriber(rdb *redis.Client, logger *slog.Logger) *RedisSubscriber {
	return &RedisSubscriber{rdb: rdb, logger: logger.With("component", "redis-subscriber")}
}

// Subscribe has the same contract as Broker.Subscribe. The subscription is
// confirmed before it returns, so no event published afterwards is missed.
func (s *RedisSubscriber) Subscribe(sessionID string) (<-chan Event, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan Event, subscriberBuffer)

	pubsub := s.rdb.Subscribe(ctx, SessionChannel(sessionID))
	confirmCtx, confirmCancel := context.WithTimeout(ctx, subscribeTimeout)
	_, err := pubsub.Receive(confirmCtx)
	confirmCancel()
	if err != nil {
		s.logger.Error("failed to subscribe", "session.id", sessionID, "error", err)
		pubsub.Close()
		close(out)
		return out, cancel
	}

	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					s.logger.Warn("dropping undecodable event", "session.id", sessionID, "error", err)
					continue
				}
				select {
				case out <- e:
				default:
					s.logger.Warn("spectator too slow, dropping event", "session.id", sessionID, "event", e.Type)
				}
				if e.Type == TypeSessionClosed {
					return
				}
			}
		}
	}()

	return out, cancel
}
