package models

import "ctchen222/tictactoe-relay/internal/match"

// MatchmakingStatus is the body of GET /api/matchmaking.
type MatchmakingStatus struct {
	Waiting int             `json:"waiting"`
	Players []match.Waiting `json:"players"`
}

