// Package sortedstorage backs the leaderboard with a Redis sorted set.
// Read-modify-write sequences take a distributed lock so concurrent
// API instances cannot interleave rating updates.
package sortedstorage

import (
	"context"

	"github.com/adaptivemaze/amaze-api/service/i"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// RedisSortedStorage manages sorted sets in Redis.
type RedisSortedStorage struct {
	client *redis.Client
	locker *redsync.Redsync
}

// NewRedisSortedStorage initializes a RedisSortedStorage with the provided Redis client.
func NewRedisSortedStorage(client *redis.Client) (i.SortedStorage, error) {
	storage := &RedisSortedStorage{client: client}
	pool := goredis.NewPool(client)
	storage.locker = redsync.New(pool)
	return storage, nil
}

// Add inserts or replaces a member with the given score.
func (s *RedisSortedStorage) Add(ctx context.Context, key string, score float64, member string) error {
	_, err := s.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Result()
	return err
}

// AddIfAbsent inserts the member only when it has no score yet.
func (s *RedisSortedStorage) AddIfAbsent(ctx context.Context, key string, score float64, member string) error {
	_, err := s.client.ZAddNX(ctx, key, redis.Z{Score: score, Member: member}).Result()
	return err
}

// IncrBy adjusts a member's score by delta under a distributed lock and
// returns the resulting score.
func (s *RedisSortedStorage) IncrBy(ctx context.Context, key string, delta float64, member string) (float64, error) {
	mutex := s.locker.NewMutex(key + ":score_lock")
	if err := mutex.Lock(); err != nil {
		return 0, err
	}
	defer func() {
		_, _ = mutex.Unlock()
	}()

	return s.client.ZIncrBy(ctx, key, delta, member).Result()
}

// Top returns up to n members with the highest scores, descending.
func (s *RedisSortedStorage) Top(ctx context.Context, key string, n int64) ([]i.ScoredMember, error) {
	raw, err := s.client.ZRevRangeWithScores(ctx, key, 0, n-1).Result()
	if err != nil {
		return nil, err
	}

	members := make([]i.ScoredMember, 0, len(raw))
	for _, z := range raw {
		if m, ok := z.Member.(string); ok {
			members = append(members, i.ScoredMember{Member: m, Score: z.Score})
		}
	}
	return members, nil
}

// Score returns the member's score. The boolean reports presence.
func (s *RedisSortedStorage) Score(ctx context.Context, key string, member string) (float64, bool, error) {
	score, err := s.client.ZScore(ctx, key, member).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return score, true, nil
}
