package modelstore

import (
	"context"
	"testing"

	"github.com/adaptivemaze/amaze-api/agent"
	"github.com/adaptivemaze/amaze-api/maze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotFor(width, height, level int, seedValue float64) agent.Snapshot {
	table := agent.New(width, height, level, agent.DefaultConfig(), nil)
	table.Update(maze.Position{Row: 0, Col: 0}, maze.Right, seedValue, maze.Position{Row: 0, Col: 1})
	return table.Snapshot()
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	snap := snapshotFor(11, 11, 3, 40)
	require.NoError(t, store.Save(ctx, "worker-a", snap))

	loaded, err := store.Load(ctx, 11, 11)
	require.NoError(t, err)
	assert.Equal(t, snap.Width, loaded.Width)
	assert.Equal(t, snap.Height, loaded.Height)
	assert.Equal(t, snap.Level, loaded.Level)
	assert.Equal(t, snap.Values, loaded.Values)
}

func TestLoadMissingShape(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Load(context.Background(), 15, 15)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadPrefersHighestLevel(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "worker-a", snapshotFor(11, 11, 2, 10)))
	require.NoError(t, store.Save(ctx, "worker-b", snapshotFor(11, 11, 7, 20)))
	require.NoError(t, store.Save(ctx, "worker-a", snapshotFor(11, 11, 5, 30)))

	loaded, err := store.Load(ctx, 11, 11)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Level)

	n, err := store.Count(ctx, 11, 11)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestShapesAreIsolated(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "worker-a", snapshotFor(11, 11, 1, 10)))
	require.NoError(t, store.Save(ctx, "worker-a", snapshotFor(15, 15, 9, 20)))

	loaded, err := store.Load(ctx, 11, 11)
	require.NoError(t, err)
	assert.Equal(t, 11, loaded.Width)
	assert.Equal(t, 1, loaded.Level)
}
