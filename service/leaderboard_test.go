package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"testing"

	"github.com/adaptivemaze/amaze-api/logging"
	"github.com/adaptivemaze/amaze-api/service/i"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSortedStorage is an in-memory stand-in for the Redis sorted set.
type memSortedStorage struct {
	mu   sync.Mutex
	sets map[string]map[string]float64
}

func newMemSortedStorage() *memSortedStorage {
	return &memSortedStorage{sets: make(map[string]map[string]float64)}
}

func (m *memSortedStorage) set(key string) map[string]float64 {
	if m.sets[key] == nil {
		m.sets[key] = make(map[string]float64)
	}
	return m.sets[key]
}

func (m *memSortedStorage) Add(_ context.Context, key string, score float64, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(key)[member] = score
	return nil
}

func (m *memSortedStorage) AddIfAbsent(_ context.Context, key string, score float64, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.set(key)[member]; !ok {
		m.set(key)[member] = score
	}
	return nil
}

func (m *memSortedStorage) IncrBy(_ context.Context, key string, delta float64, member string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(key)[member] += delta
	return m.set(key)[member], nil
}

func (m *memSortedStorage) Top(_ context.Context, key string, n int64) ([]i.ScoredMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	members := make([]i.ScoredMember, 0, len(m.sets[key]))
	for member, score := range m.sets[key] {
		members = append(members, i.ScoredMember{Member: member, Score: score})
	}
	sort.Slice(members, func(a, b int) bool { return members[a].Score > members[b].Score })
	if int64(len(members)) > n {
		members = members[:n]
	}
	return members, nil
}

func (m *memSortedStorage) Score(_ context.Context, key string, member string) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	score, ok := m.set(key)[member]
	return score, ok, nil
}

func testLogger(t *testing.T) i.Logger {
	t.Helper()
	logger, err := logging.New("TEST", "", io.Discard)
	require.NoError(t, err)
	return logger
}

func TestLeaderboardRecordsResults(t *testing.T) {
	storage := newMemSortedStorage()
	lb, err := NewLeaderboard(storage, testLogger(t))
	require.NoError(t, err)

	ctx := context.Background()
	winner := uuid.New()
	loser := uuid.New()

	require.NoError(t, lb.Seed(ctx, winner, 1400))
	require.NoError(t, lb.Seed(ctx, loser, 1400))

	// Seeding twice never clobbers an existing rating.
	require.NoError(t, lb.Seed(ctx, winner, 9999))
	rating, err := lb.Rating(ctx, winner)
	require.NoError(t, err)
	assert.Equal(t, 1400, rating)

	rating, err = lb.RecordResult(ctx, winner, true)
	require.NoError(t, err)
	assert.Equal(t, 1416, rating)

	rating, err = lb.RecordResult(ctx, loser, false)
	require.NoError(t, err)
	assert.Equal(t, 1384, rating)

	top, err := lb.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, winner, top[0].ID)
	assert.Equal(t, loser, top[1].ID)
}

func TestLeaderboardUnknownPlayer(t *testing.T) {
	lb, err := NewLeaderboard(newMemSortedStorage(), testLogger(t))
	require.NoError(t, err)

	_, err = lb.Rating(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotRanked)

	// Recording a result for an unknown player seeds them first.
	stranger := uuid.New()
	rating, err := lb.RecordResult(context.Background(), stranger, true)
	require.NoError(t, err)
	assert.Equal(t, 1416, rating)
}
