package events

import (
	"context"
	"log/slog"
)

// LogNotifier writes every event to a structured logger.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "events")}
}

func (n *LogNotifier) Notify(ctx context.Context, event Event) {
	n.logger.InfoContext(ctx, "session event",
		"event", event.Type,
		"session.id", event.SessionID,
		"payload", string(event.Payload),
	)
}
