// Package agent implements the tabular Q-learning value table behind
// the maze bot: a per-cell, per-action return estimate with an
// epsilon-greedy policy whose exploration is biased toward unseen
// cells.
package agent

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/adaptivemaze/amaze-api/maze"
)

// Epsilon-greedy schedule. The floor keeps a minimum of exploration no
// matter how long training runs.
const (
	epsilonBase  = 0.3
	epsilonFloor = 0.05
	stepAnneal   = 10000.0
	levelAnneal  = 0.02
)

// ErrShapeMismatch is returned when restored values do not match the
// table's grid dimensions. Callers recover by keeping the zero table;
// the mismatch is never fatal.
var ErrShapeMismatch = errors.New("value table shape mismatch")

// Config carries the learning hyperparameters. It replaces the mutable
// package-level constants of older revisions; instances never write
// shared state.
type Config struct {
	Alpha float64 // learning rate
	Gamma float64 // discount factor
}

// DefaultConfig returns the standard hyperparameters.
func DefaultConfig() Config {
	return Config{Alpha: 0.1, Gamma: 0.9}
}

// ValueTable is a (height, width, 4) table of estimated returns plus
// per-cell visit counters used for exploration tie-breaking. Visit
// counters are episode state and are not persisted.
type ValueTable struct {
	cfg    Config
	width  int
	height int
	level  int
	values []float64
	visits map[maze.Position]int
	rng    *rand.Rand
}

// New creates a zero-filled table for the given grid shape. The level
// tag feeds the epsilon schedule and the persistence key. A nil rng
// gets a time-seeded source.
func New(width, height, level int, cfg Config, rng *rand.Rand) *ValueTable {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &ValueTable{
		cfg:    cfg,
		width:  width,
		height: height,
		level:  level,
		values: make([]float64, width*height*maze.ActionCount),
		visits: make(map[maze.Position]int),
		rng:    rng,
	}
}

// Width returns the table's grid width.
func (t *ValueTable) Width() int { return t.width }

// Height returns the table's grid height.
func (t *ValueTable) Height() int { return t.height }

// Level returns the training level tag.
func (t *ValueTable) Level() int { return t.level }

// SetLevel updates the training level tag.
func (t *ValueTable) SetLevel(level int) { t.level = level }

func (t *ValueTable) index(p maze.Position, a maze.Action) int {
	return (p.Row*t.width+p.Col)*maze.ActionCount + int(a)
}

func (t *ValueTable) inBound(p maze.Position) bool {
	return p.Row >= 0 && p.Row < t.height && p.Col >= 0 && p.Col < t.width
}

// Value returns the estimate for taking a at p.
func (t *ValueTable) Value(p maze.Position, a maze.Action) float64 {
	return t.values[t.index(p, a)]
}

// BestValue returns max over the four action values at p.
func (t *ValueTable) BestValue(p maze.Position) float64 {
	actions := maze.Actions()
	best := t.values[t.index(p, maze.Up)]
	for _, a := range actions[1:] {
		if v := t.values[t.index(p, a)]; v > best {
			best = v
		}
	}
	return best
}

// BestAction returns the argmax action at p. Ties resolve to the
// first-enumerated action so exploitation is deterministic.
func (t *ValueTable) BestAction(p maze.Position) maze.Action {
	actions := maze.Actions()
	best := maze.Up
	bestValue := t.values[t.index(p, maze.Up)]
	for _, a := range actions[1:] {
		if v := t.values[t.index(p, a)]; v > bestValue {
			best, bestValue = a, v
		}
	}
	return best
}

// Epsilon returns the effective exploration rate:
// max(0.05, 0.3 - steps/10000 - level*0.02). It decays with cumulative
// steps within an attempt and with training level across attempts.
func (t *ValueTable) Epsilon(totalSteps int) float64 {
	eps := epsilonBase - float64(totalSteps)/stepAnneal - float64(t.level)*levelAnneal
	if eps < epsilonFloor {
		return epsilonFloor
	}
	return eps
}

// ChooseAction picks the next action for the state with an
// epsilon-greedy policy. It also counts the visit to the state.
func (t *ValueTable) ChooseAction(state maze.Position, totalSteps int) maze.Action {
	t.visits[state]++

	if t.rng.Float64() < t.Epsilon(totalSteps) {
		return t.exploreAction(state)
	}
	return t.BestAction(state)
}

// exploreAction implements smart exploration: among the in-bounds
// neighbor actions, take the one leading to the least-visited cell, so
// exploration covers unseen territory instead of thrashing on known
// cells. Ties resolve to the first-enumerated action.
func (t *ValueTable) exploreAction(state maze.Position) maze.Action {
	best := maze.Action(-1)
	bestVisits := 0
	for _, a := range maze.Actions() {
		next := state.Add(a)
		if !t.inBound(next) {
			continue
		}
		if v := t.visits[next]; best < 0 || v < bestVisits {
			best, bestVisits = a, v
		}
	}
	if best < 0 {
		return maze.Action(t.rng.Intn(maze.ActionCount))
	}
	return best
}

// Update applies one step of tabular Q-learning:
// Q(s,a) += alpha * (r + gamma*max Q(s',·) - Q(s,a)).
func (t *ValueTable) Update(state maze.Position, action maze.Action, reward float64, next maze.Position) {
	idx := t.index(state, action)
	t.values[idx] += t.cfg.Alpha * (reward + t.cfg.Gamma*t.BestValue(next) - t.values[idx])
}

// Decay multiplies every estimate by f. The bot uses it to shed
// overconfidence after a stuck episode.
func (t *ValueTable) Decay(f float64) {
	for i := range t.values {
		t.values[i] *= f
	}
}

// Visits returns how often the state was visited this episode.
func (t *ValueTable) Visits(p maze.Position) int {
	return t.visits[p]
}

// ResetVisits clears the per-episode visit counters.
func (t *ValueTable) ResetVisits() {
	t.visits = make(map[maze.Position]int)
}

// Snapshot is the persisted form of a table: shape, level tag and the
// raw estimates. Visit counters are deliberately absent.
type Snapshot struct {
	Width  int
	Height int
	Level  int
	Values []float64
}

// Snapshot captures the table for persistence.
func (t *ValueTable) Snapshot() Snapshot {
	values := make([]float64, len(t.values))
	copy(values, t.values)
	return Snapshot{Width: t.width, Height: t.height, Level: t.level, Values: values}
}

// Restore loads persisted values into the table. A snapshot whose shape
// does not match the table is unusable for this grid and is rejected
// with ErrShapeMismatch, leaving the table untouched.
func (t *ValueTable) Restore(s Snapshot) error {
	if s.Width != t.width || s.Height != t.height ||
		len(s.Values) != t.width*t.height*maze.ActionCount {
		return fmt.Errorf("%w: have %dx%d, snapshot %dx%d",
			ErrShapeMismatch, t.width, t.height, s.Width, s.Height)
	}
	copy(t.values, s.Values)
	t.level = s.Level
	return nil
}
