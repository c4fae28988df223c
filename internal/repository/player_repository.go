package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ctchen222/tictactoe-relay/internal/events"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("repository.player")

// RosterEntry is one display name seen in a PLAYER_ID line.
type RosterEntry struct {
	Name      string    `json:"name"`
	TimesSeen int       `json:"times_seen"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	LastAddr  string    `json:"last_addr"`
}

type rosterRow struct {
	Name      string `db:"name"`
	TimesSeen int    `db:"times_seen"`
	FirstSeen int64  `db:"first_seen"`
	LastSeen  int64  `db:"last_seen"`
	LastAddr  string `db:"last_addr"`
}

func (r rosterRow) entry() RosterEntry {
	return RosterEntry{
		Name:      r.Name,
		TimesSeen: r.TimesSeen,
		FirstSeen: time.Unix(r.FirstSeen, 0).UTC(),
		LastSeen:  time.Unix(r.LastSeen, 0).UTC(),
		LastAddr:  r.LastAddr,
	}
}

// PlayerRepository is the roster of display names peers have declared.
type PlayerRepository interface {
	RecordIdentity(ctx context.Context, name, addr string) error
	List(ctx context.Context) ([]RosterEntry, error)
	FindByName(ctx context.Context, name string) (*RosterEntry, error)
}

type sqlitePlayerRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPlayerRepository creates a new SQLite-based PlayerRepository.
func NewPlayerRepository(db *sqlx.DB) PlayerRepository {
	return &sqlitePlayerRepository{db: db, now: time.Now}
}

// RecordIdentity inserts name or bumps its counters.
func (r *sqlitePlayerRepository) RecordIdentity(ctx context.Context, name, addr string) error {
	ctx, span := tracer.Start(ctx, "PlayerRepository.RecordIdentity", trace.WithAttributes(
		attribute.String("player.name", name),
	))
	defer span.End()

	now := r.now().Unix()
	query := `
	INSERT INTO players (name, times_seen, first_seen, last_seen, last_addr)
	VALUES (?, 1, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		times_seen = times_seen + 1,
		last_seen  = excluded.last_seen,
		last_addr  = excluded.last_addr`
	if _, err := r.db.ExecContext(ctx, query, name, now, now, addr); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to record identity")
		return fmt.Errorf("failed to record player %q: %w", name, err)
	}
	return nil
}

// List returns every roster entry, most recently seen first.
func (r *sqlitePlayerRepository) List(ctx context.Context) ([]RosterEntry, error) {
	ctx, span := tracer.Start(ctx, "PlayerRepository.List")
	defer span.End()

	var rows []rosterRow
	query := `SELECT name, times_seen, first_seen, last_seen, last_addr FROM players ORDER BY last_seen DESC, name`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list players")
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	out := make([]RosterEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.entry())
	}
	return out, nil
}

// FindByName returns nil, nil when the name was never seen.
func (r *sqlitePlayerRepository) FindByName(ctx context.Context, name string) (*RosterEntry, error) {
	ctx, span := tracer.Start(ctx, "PlayerRepository.FindByName")
	defer span.End()

	var row rosterRow
	query := `SELECT name, times_seen, first_seen, last_seen, last_addr FROM players WHERE name = ?`
	if err := r.db.GetContext(ctx, &row, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get player by name: %w", err)
	}
	entry := row.entry()
	return &entry, nil
}

// RosterRecorder feeds player_identified events into the roster.
type RosterRecorder struct {
	repo   PlayerRepository
	logger *slog.Logger
}

func NewRosterRecorder(repo PlayerRepository, logger *slog.Logger) *RosterRecorder {
	return &RosterRecorder{repo: repo, logger: logger.With("component", "roster")}
}

func (rr *RosterRecorder) Notify(ctx context.Context, e events.Event) {
	if e.Type != events.TypePlayerIdentified {
		return
	}

	var p events.PlayerIdentifiedPayload
	if err := e.Decode(&p); err != nil {
		rr.logger.WarnContext(ctx, "bad player_identified payload", "session.id", e.SessionID, "error", err)
		return
	}
	if p.Name == "" {
		return
	}
	if err := rr.repo.RecordIdentity(ctx, p.Name, p.Addr); err != nil {
		rr.logger.ErrorContext(ctx, "failed to record player", "player.name", p.Name, "error", err)
	}
}
