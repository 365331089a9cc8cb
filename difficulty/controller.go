// Package difficulty adapts maze parameters to observed player
// performance: a composite skill score drives the algorithm tier while
// the level drives the size.
package difficulty

import (
	"math"
	"time"

	"github.com/adaptivemaze/amaze-api/maze"
)

// Skill is the player's assessed tier. Each tier maps to a base maze
// size and a generation algorithm of matching perceptual difficulty.
type Skill string

const (
	SkillBeginner     Skill = "beginner"
	SkillIntermediate Skill = "intermediate"
	SkillAdvanced     Skill = "advanced"
)

// Parameters describes the maze the controller wants generated next.
type Parameters struct {
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Algorithm maze.Algorithm `json:"algorithm"`
}

// Sizing and scoring constants. Sizes grow by two per level so the
// cell/wall lattice stays odd, and cap at 31 to keep rounds playable.
const (
	levelGrowth  = 2
	maxDimension = 31

	advancedThreshold     = 0.8
	intermediateThreshold = 1.5

	timeWeight      = 5
	backtrackWeight = 3
	revisitWeight   = 2
	efficiencyWeight = 2
)

var tierBase = map[Skill]Parameters{
	SkillBeginner:     {Width: 11, Height: 11, Algorithm: maze.AlgorithmDFS},
	SkillIntermediate: {Width: 15, Height: 15, Algorithm: maze.AlgorithmKruskal},
	SkillAdvanced:     {Width: 21, Height: 21, Algorithm: maze.AlgorithmWilson},
}

// PerformanceRecord is one completed attempt's metrics. Dimensions are
// structured fields, never an encoded "WxH" string.
type PerformanceRecord struct {
	CompletionTime time.Duration `json:"completion_time"`
	TotalMoves     int           `json:"total_moves"`
	Backtracks     int           `json:"backtracks"`
	Revisits       int           `json:"revisits"`
	MazeWidth      int           `json:"maze_width"`
	MazeHeight     int           `json:"maze_height"`
}

// Score condenses the record into a single number; lower is better.
// Time is normalized per tile and moves against a 2*sqrt(area) optimal
// path estimate, so scores compare across maze sizes.
func (r PerformanceRecord) Score() float64 {
	area := float64(r.MazeWidth * r.MazeHeight)
	if area <= 0 {
		area = 121
	}

	optimalEstimate := 2 * math.Sqrt(area)
	moveEfficiency := float64(r.TotalMoves) / math.Max(1, optimalEstimate)
	backtrackRatio := float64(r.Backtracks) / math.Max(1, float64(r.TotalMoves))
	revisitRatio := float64(r.Revisits) / math.Max(1, float64(r.TotalMoves))
	timePerTile := r.CompletionTime.Seconds() / area

	return timePerTile*timeWeight +
		backtrackRatio*backtrackWeight +
		revisitRatio*revisitWeight +
		moveEfficiency*efficiencyWeight
}

// Controller holds one player's difficulty state. It is not safe for
// concurrent use; the race manager serializes access per session.
type Controller struct {
	level   int
	skill   Skill
	history []PerformanceRecord
}

// NewController starts every player at level 1, beginner tier.
func NewController() *Controller {
	return &Controller{level: 1, skill: SkillBeginner}
}

// Level returns the current level, starting at 1.
func (c *Controller) Level() int { return c.level }

// Skill returns the current assessed tier.
func (c *Controller) Skill() Skill { return c.skill }

// RestoreProgress rehydrates a controller from persisted player state.
// Unknown tiers fall back to beginner, levels below one to one.
func (c *Controller) RestoreProgress(level int, skill Skill) {
	if level < 1 {
		level = 1
	}
	if _, ok := tierBase[skill]; !ok {
		skill = SkillBeginner
	}
	c.level = level
	c.skill = skill
}

// History returns the performance records seen so far, oldest first.
func (c *Controller) History() []PerformanceRecord {
	out := make([]PerformanceRecord, len(c.history))
	copy(out, c.history)
	return out
}

// MazeParameters returns the generation parameters for the current
// level and tier: the tier's base size plus two cells per level past
// the first, clamped at 31.
func (c *Controller) MazeParameters() Parameters {
	base, ok := tierBase[c.skill]
	if !ok {
		base = tierBase[SkillBeginner]
	}

	size := base.Width + levelGrowth*(c.level-1)
	if size > maxDimension {
		size = maxDimension
	}
	return Parameters{Width: size, Height: size, Algorithm: base.Algorithm}
}

// UpdateDifficulty folds a completed attempt into the controller:
// reassess the tier from the composite score and advance one level.
// The tier can drop as well as rise; the level only rises.
func (c *Controller) UpdateDifficulty(rec PerformanceRecord) {
	c.history = append(c.history, rec)

	score := rec.Score()
	switch {
	case score < advancedThreshold:
		c.skill = SkillAdvanced
	case score < intermediateThreshold:
		c.skill = SkillIntermediate
	default:
		c.skill = SkillBeginner
	}

	c.level++
}
