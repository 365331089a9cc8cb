package i

import "context"

// ScoredMember is one member of a sorted set with its score.
type ScoredMember struct {
	Member string
	Score  float64
}

// SortedStorage is a distributed sorted set with locking around
// read-modify-write sequences.
type SortedStorage interface {
	// Add inserts or replaces a member with the given score.
	Add(ctx context.Context, key string, score float64, member string) error

	// AddIfAbsent inserts the member only when it has no score yet.
	AddIfAbsent(ctx context.Context, key string, score float64, member string) error

	// IncrBy adjusts a member's score by delta and returns the result.
	IncrBy(ctx context.Context, key string, delta float64, member string) (float64, error)

	// Top returns up to n members with the highest scores, descending.
	Top(ctx context.Context, key string, n int64) ([]ScoredMember, error)

	// Score returns the member's score. The boolean reports presence.
	Score(ctx context.Context, key string, member string) (float64, bool, error)
}
