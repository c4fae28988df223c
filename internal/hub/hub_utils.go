package hub

import (
	"context"
	"slices"

	"ctchen222/tictactoe-relay/internal/match"
	"ctchen222/tictactoe-relay/internal/room"
)

// Sessions returns a snapshot of every running session, oldest first.
func (h *Hub) Sessions() []room.Snapshot {
	h.mu.RLock()
	sessions := make([]*room.Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	out := make([]room.Snapshot, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Snapshot())
	}
	slices.SortFunc(out, func(a, b room.Snapshot) int {
		return a.StartedAt.Compare(b.StartedAt)
	})
	return out
}

// Session returns a snapshot of one running session.
func (h *Hub) Session(id string) (room.Snapshot, error) {
	s, ok := h.lookup(id)
	if !ok {
		return room.Snapshot{}, ErrSessionNotFound
	}
	return s.Snapshot(), nil
}

// Terminate closes a running session. Its Run returns room.ErrTerminated.
func (h *Hub) Terminate(id string) error {
	s, ok := h.lookup(id)
	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	return nil
}

// Waiting lists the peers still in the matchmaking queue.
func (h *Hub) Waiting() []match.Waiting {
	return h.matchManager.Waiting()
}

// RemoveWaiting drops a queued peer and closes its connection. It reports
// whether the peer was still waiting.
func (h *Hub) RemoveWaiting(ctx context.Context, playerID string) (bool, error) {
	p, err := h.matchManager.RemovePlayer(ctx, playerID)
	if err != nil || p == nil {
		return false, err
	}
	h.reject(ctx, p, "removed from queue")
	return true, nil
}

func (h *Hub) lookup(id string) (*room.Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}
