package model

import "time"

// MatchUp mirrors the `matchups` table: a scheduled fight between two
// fighters, referenced by name, with the bookmaker odds for the first.
type MatchUp struct {
	ID          uint64    // matchups.id
	Fighter1    string    // matchups.fighter1
	Fighter2    string    // matchups.fighter2
	WinningOdds float64   // matchups.winning_odds
	CreatedAt   time.Time // matchups.created_at
	UpdatedAt   time.Time // matchups.updated_at
}
