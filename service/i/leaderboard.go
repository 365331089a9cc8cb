package i

import (
	"context"

	"github.com/google/uuid"
)

// RankedPlayer is one leaderboard row.
type RankedPlayer struct {
	ID     uuid.UUID `json:"id"`
	Rating int       `json:"rating"`
}

// Leaderboard maintains the global rating ranking.
type Leaderboard interface {
	// RecordResult applies a race outcome to the player's rating and
	// returns the new rating.
	RecordResult(ctx context.Context, playerID uuid.UUID, won bool) (int, error)

	// Seed writes an initial rating for a new player without affecting
	// an existing entry.
	Seed(ctx context.Context, playerID uuid.UUID, rating int) error

	// Top returns the best n players, highest rating first.
	Top(ctx context.Context, n int64) ([]RankedPlayer, error)

	// Rating returns the player's current rating.
	Rating(ctx context.Context, playerID uuid.UUID) (int, error)
}
