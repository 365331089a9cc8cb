package agent

import (
	"math"
	"math/rand"
	"testing"

	"github.com/adaptivemaze/amaze-api/maze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(level int) *ValueTable {
	return New(3, 3, level, DefaultConfig(), rand.New(rand.NewSource(1)))
}

func TestEpsilonFloor(t *testing.T) {
	table := newTestTable(0)
	assert.InDelta(t, 0.3, table.Epsilon(0), 1e-9)
	assert.InDelta(t, 0.2, table.Epsilon(1000), 1e-9)

	// Neither huge step counts nor high levels push below the floor.
	assert.Equal(t, 0.05, table.Epsilon(1_000_000))
	deep := newTestTable(500)
	assert.Equal(t, 0.05, deep.Epsilon(0))
	assert.Equal(t, 0.05, deep.Epsilon(1_000_000))
}

func TestUpdateConvergesToFixedPoint(t *testing.T) {
	table := newTestTable(0)
	state := maze.Position{Row: 1, Col: 1}
	next := maze.Position{Row: 1, Col: 2}

	const reward = 10.0
	fixedPoint := reward / (1 - DefaultConfig().Gamma)

	// With the next state also receiving the same update the value must
	// climb monotonically toward r/(1-gamma).
	prev := table.Value(state, maze.Right)
	for i := 0; i < 5000; i++ {
		table.Update(state, maze.Right, reward, next)
		table.Update(next, maze.Right, reward, next)
		v := table.Value(state, maze.Right)
		require.GreaterOrEqual(t, v, prev)
		prev = v
	}
	assert.InDelta(t, fixedPoint, table.Value(state, maze.Right), fixedPoint*DefaultConfig().Alpha)
}

func TestBestActionDeterministicTieBreak(t *testing.T) {
	table := newTestTable(0)
	p := maze.Position{Row: 0, Col: 0}

	// All zeros: first-enumerated action wins.
	assert.Equal(t, maze.Up, table.BestAction(p))

	table.Update(p, maze.Left, 100, p)
	assert.Equal(t, maze.Left, table.BestAction(p))
}

func TestExploreActionPrefersLeastVisited(t *testing.T) {
	table := newTestTable(0)
	center := maze.Position{Row: 1, Col: 1}

	// Make every neighbor but the one below look well-trodden.
	for _, a := range []maze.Action{maze.Up, maze.Left, maze.Right} {
		n := center.Add(a)
		for i := 0; i < 5; i++ {
			table.visits[n]++
		}
	}

	assert.Equal(t, maze.Down, table.exploreAction(center))

	// In-bounds filtering: from a corner only Down and Right remain, and
	// the tie resolves to the first-enumerated of the two.
	corner := maze.Position{Row: 0, Col: 0}
	assert.Equal(t, maze.Down, table.exploreAction(corner))
}

func TestDecay(t *testing.T) {
	table := newTestTable(0)
	p := maze.Position{Row: 2, Col: 0}
	table.Update(p, maze.Up, 50, p)
	before := table.Value(p, maze.Up)

	table.Decay(0.9)
	assert.InDelta(t, before*0.9, table.Value(p, maze.Up), 1e-12)
}

func TestSnapshotRestore(t *testing.T) {
	table := newTestTable(2)
	p := maze.Position{Row: 0, Col: 2}
	table.Update(p, maze.Down, 25, p)

	snap := table.Snapshot()
	assert.Equal(t, 2, snap.Level)

	fresh := newTestTable(0)
	require.NoError(t, fresh.Restore(snap))
	assert.Equal(t, table.Value(p, maze.Down), fresh.Value(p, maze.Down))
	assert.Equal(t, 2, fresh.Level())

	wrong := New(5, 5, 0, DefaultConfig(), rand.New(rand.NewSource(1)))
	err := wrong.Restore(snap)
	assert.ErrorIs(t, err, ErrShapeMismatch)
	// A rejected restore must leave the table untouched.
	assert.True(t, math.Abs(wrong.Value(maze.Position{}, maze.Up)) < 1e-12)
}

func TestBestValueScansEveryAction(t *testing.T) {
	p := maze.Position{Row: 1, Col: 1}

	// Raise each direction in turn on a fresh table; the argmax and the
	// max must follow regardless of enumeration position.
	for _, want := range [...]maze.Action{maze.Up, maze.Down, maze.Left, maze.Right} {
		table := newTestTable(0)
		table.Update(p, want, 80, p)

		assert.Equal(t, want, table.BestAction(p))
		assert.Equal(t, table.Value(p, want), table.BestValue(p))
	}
}
