package difficulty

import (
	"testing"
	"time"

	"github.com/adaptivemaze/amaze-api/maze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(secs float64, moves, backtracks, revisits, size int) PerformanceRecord {
	return PerformanceRecord{
		CompletionTime: time.Duration(secs * float64(time.Second)),
		TotalMoves:     moves,
		Backtracks:     backtracks,
		Revisits:       revisits,
		MazeWidth:      size,
		MazeHeight:     size,
	}
}

func TestInitialParameters(t *testing.T) {
	c := NewController()
	assert.Equal(t, 1, c.Level())
	assert.Equal(t, SkillBeginner, c.Skill())

	p := c.MazeParameters()
	assert.Equal(t, Parameters{Width: 11, Height: 11, Algorithm: maze.AlgorithmDFS}, p)
}

func TestScoreThresholds(t *testing.T) {
	// Near-optimal 11x11 run: 2s, 4 moves against the ~22-move estimate.
	fast := record(2, 4, 0, 0, 11)
	assert.Less(t, fast.Score(), advancedThreshold)

	// Decent but imperfect: 8s and 12 moves lands in the middle band.
	mid := record(8, 12, 0, 0, 11)
	require.GreaterOrEqual(t, mid.Score(), advancedThreshold)
	assert.Less(t, mid.Score(), intermediateThreshold)

	// Slow and wandering.
	slow := record(240, 200, 40, 60, 11)
	assert.GreaterOrEqual(t, slow.Score(), intermediateThreshold)
}

func TestUpdateDifficultyMovesTiers(t *testing.T) {
	c := NewController()

	c.UpdateDifficulty(record(2, 4, 0, 0, 11))
	assert.Equal(t, SkillAdvanced, c.Skill())
	assert.Equal(t, 2, c.Level())
	assert.Equal(t, maze.AlgorithmWilson, c.MazeParameters().Algorithm)

	// A bad run drops the tier again, but the level keeps rising.
	c.UpdateDifficulty(record(240, 200, 40, 60, 21))
	assert.Equal(t, SkillBeginner, c.Skill())
	assert.Equal(t, 3, c.Level())
	assert.Len(t, c.History(), 2)
}

func TestRestoreProgress(t *testing.T) {
	c := NewController()
	c.RestoreProgress(4, SkillIntermediate)
	assert.Equal(t, 4, c.Level())
	assert.Equal(t, SkillIntermediate, c.Skill())
	// 15 + 2 per level past the first.
	assert.Equal(t, 21, c.MazeParameters().Width)

	// Garbage input falls back to safe defaults.
	c.RestoreProgress(-3, Skill("wizard"))
	assert.Equal(t, 1, c.Level())
	assert.Equal(t, SkillBeginner, c.Skill())
}

func TestMazeParametersGrowWithLevelAndClamp(t *testing.T) {
	c := NewController()
	assert.Equal(t, 11, c.MazeParameters().Width)

	// Drive the level up with consistently strong runs.
	for i := 0; i < 20; i++ {
		c.UpdateDifficulty(record(2, 4, 0, 0, 11))
	}
	require.Equal(t, SkillAdvanced, c.Skill())

	p := c.MazeParameters()
	assert.Equal(t, 31, p.Width)
	assert.Equal(t, 31, p.Height)
	// Dimensions stay odd at every level on the way up.
	fresh := NewController()
	for i := 0; i < 20; i++ {
		q := fresh.MazeParameters()
		assert.Equal(t, 1, q.Width%2)
		fresh.UpdateDifficulty(record(2, 4, 0, 0, q.Width))
	}
}
