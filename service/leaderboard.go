package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/adaptivemaze/amaze-api/service/i"
	"github.com/google/uuid"
)

const (
	leaderboardKey = "leaderboard:rating"

	defaultSeedRating = 1400
	winDelta          = 16
	lossDelta         = -16
)

// ErrNotRanked is returned when the player has no leaderboard entry.
var ErrNotRanked = errors.New("player is not on the leaderboard")

// Leaderboard keeps player ratings in a shared sorted set so every API
// instance sees the same ranking.
type Leaderboard struct {
	storage i.SortedStorage
	logger  i.Logger
}

// NewLeaderboard wires the leaderboard service.
func NewLeaderboard(storage i.SortedStorage, logger i.Logger) (*Leaderboard, error) {
	if storage == nil {
		return nil, errors.New("leaderboard needs a sorted storage")
	}
	return &Leaderboard{storage: storage, logger: logger}, nil
}

// Seed writes the initial rating without touching an existing entry.
func (l *Leaderboard) Seed(ctx context.Context, playerID uuid.UUID, rating int) error {
	return l.storage.AddIfAbsent(ctx, leaderboardKey, float64(rating), playerID.String())
}

// RecordResult applies a race outcome to the rating and returns the new
// value. Unknown players are seeded first so a race always counts.
func (l *Leaderboard) RecordResult(ctx context.Context, playerID uuid.UUID, won bool) (int, error) {
	if err := l.Seed(ctx, playerID, defaultSeedRating); err != nil {
		return 0, err
	}

	delta := float64(lossDelta)
	if won {
		delta = winDelta
	}

	rating, err := l.storage.IncrBy(ctx, leaderboardKey, delta, playerID.String())
	if err != nil {
		return 0, err
	}

	l.logger.Info(fmt.Sprintf("Rating updated: player=%s won=%v rating=%d", playerID, won, int(rating)))
	return int(rating), nil
}

// Top returns the best n players, highest rating first.
func (l *Leaderboard) Top(ctx context.Context, n int64) ([]i.RankedPlayer, error) {
	members, err := l.storage.Top(ctx, leaderboardKey, n)
	if err != nil {
		return nil, err
	}

	ranked := make([]i.RankedPlayer, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m.Member)
		if err != nil {
			l.logger.Warning(fmt.Sprintf("Non-UUID member on leaderboard: %s", m.Member))
			continue
		}
		ranked = append(ranked, i.RankedPlayer{ID: id, Rating: int(m.Score)})
	}
	return ranked, nil
}

// Rating returns the player's current rating.
func (l *Leaderboard) Rating(ctx context.Context, playerID uuid.UUID) (int, error) {
	score, ok, err := l.storage.Score(ctx, leaderboardKey, playerID.String())
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNotRanked
	}
	return int(score), nil
}
