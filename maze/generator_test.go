package maze

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateConnectivity(t *testing.T) {
	algorithms := []Algorithm{AlgorithmDFS, AlgorithmKruskal, AlgorithmWilson}
	sizes := [][2]int{{5, 5}, {7, 11}, {11, 11}, {15, 9}}

	for _, alg := range algorithms {
		for _, size := range sizes {
			for seed := int64(0); seed < 30; seed++ {
				rng := rand.New(rand.NewSource(seed))
				grid, err := Generate(size[0], size[1], alg, rng)
				require.NoError(t, err, "alg=%s size=%v seed=%d", alg, size, seed)

				assert.Equal(t, Start, grid.At(grid.Start()))
				assert.Equal(t, Goal, grid.At(grid.Goal()))
				assert.True(t, grid.Connected(), "alg=%s size=%v seed=%d", alg, size, seed)
			}
		}
	}
}

func TestGenerateOddNormalization(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	grid, err := Generate(10, 10, AlgorithmDFS, rng)
	require.NoError(t, err)

	assert.Equal(t, 11, grid.Width())
	assert.Equal(t, 11, grid.Height())
}

func TestGenerateBorderSealedExceptExit(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	grid, err := Generate(11, 11, AlgorithmKruskal, rng)
	require.NoError(t, err)

	openings := 0
	for r := 0; r < grid.Height(); r++ {
		for c := 0; c < grid.Width(); c++ {
			if r != 0 && r != grid.Height()-1 && c != 0 && c != grid.Width()-1 {
				continue
			}
			if code := grid.At(Position{Row: r, Col: c}); code != Wall {
				openings++
				assert.Equal(t, Goal, code)
			}
		}
	}
	assert.Equal(t, 1, openings)
}

func TestGenerateGoalNotTrivialDeadEnd(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		grid, err := Generate(15, 15, AlgorithmDFS, rng)
		require.NoError(t, err)

		// The interior cell next to the exit must keep at least two open
		// directions once the border opening is counted.
		var anchor Position
		for _, a := range Actions() {
			if n := grid.Goal().Add(a); grid.IsOpen(n) {
				anchor = n
			}
		}
		assert.GreaterOrEqual(t, grid.OpenNeighbors(anchor), 2, "seed=%d", seed)
	}
}

func TestNewGeneratorRejectsBadInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := NewGenerator(3, 11, AlgorithmDFS, rng)
	assert.ErrorIs(t, err, ErrDimensionTooSmall)

	_, err = NewGenerator(0, -4, AlgorithmDFS, rng)
	assert.ErrorIs(t, err, ErrDimensionTooSmall)

	_, err = NewGenerator(11, 201, AlgorithmDFS, rng)
	assert.ErrorIs(t, err, ErrDimensionTooLarge)

	_, err = NewGenerator(11, 11, Algorithm("prim"), rng)
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestNewGridValidation(t *testing.T) {
	_, err := NewGrid(nil)
	assert.ErrorIs(t, err, ErrInvalidCells)

	// No goal cell.
	_, err = NewGrid([][]Code{{Wall, Wall}, {Start, Empty}})
	assert.ErrorIs(t, err, ErrNoStartOrGoal)

	grid, err := NewGrid([][]Code{
		{Wall, Wall, Wall},
		{Start, Empty, Goal},
		{Wall, Wall, Wall},
	})
	require.NoError(t, err)
	assert.Equal(t, Position{Row: 1, Col: 0}, grid.Start())
	assert.Equal(t, Position{Row: 1, Col: 2}, grid.Goal())
	assert.True(t, grid.Connected())
}

func TestSnapshotRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	grid, err := Generate(11, 11, AlgorithmWilson, rng)
	require.NoError(t, err)

	player := grid.Start()
	raw, err := json.Marshal(grid.Snapshot(&player))
	require.NoError(t, err)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, grid.Width(), decoded.Width)
	assert.Equal(t, grid.Height(), decoded.Height)
	assert.Equal(t, []int{grid.Start().Row, grid.Start().Col}, decoded.Entry)
	assert.Equal(t, []int{grid.Goal().Row, grid.Goal().Col}, decoded.Exit)
	assert.Equal(t, []int{player.Row, player.Col}, decoded.Player)

	restored, err := GridFromSnapshot(decoded)
	require.NoError(t, err)
	assert.Equal(t, grid.Cells(), restored.Cells())
}

func TestDeltaAction(t *testing.T) {
	from := Position{Row: 4, Col: 4}
	for _, a := range Actions() {
		got, ok := DeltaAction(from, from.Add(a))
		require.True(t, ok)
		assert.Equal(t, a, got)
	}

	_, ok := DeltaAction(from, Position{Row: 6, Col: 4})
	assert.False(t, ok)
}
