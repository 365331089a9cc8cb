/*
Package bot implements the hybrid maze-solving navigator.

The navigator arbitrates step by step between a learned Q-table policy
and A* shortest-path hints, remembers dead ends for the current
episode, detects being stuck, and asks the caller to regenerate the
maze when no path to the goal exists. It is single-threaded: each Step
performs at most one solver run plus constant-time table work.
*/
package bot

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/adaptivemaze/amaze-api/agent"
	"github.com/adaptivemaze/amaze-api/difficulty"
	"github.com/adaptivemaze/amaze-api/maze"
	"github.com/adaptivemaze/amaze-api/solver"
)

// State is the navigator's position in its lifecycle.
type State int

const (
	StateNavigating State = iota
	StateStuckCheck
	StateRegenerateRequested
	StateGoalReached
)

// Outcome is what a Step call produced. Regeneration is a plain signal
// the caller must branch on, never an error.
type Outcome int

const (
	OutcomeMoved Outcome = iota
	OutcomeReached
	OutcomeRegenerate
)

// Navigator errors. Out-of-range positions are rejected, not clamped;
// silent clamping would mask caller bugs.
var (
	ErrNoGrid          = errors.New("navigator has no maze")
	ErrBlockedPosition = errors.New("position is not walkable")
)

// Reward shaping constants. Hint rewards scale with momentum so the bot
// prefers continuing in one direction over oscillating.
const (
	hintReward        = 50.0
	momentumSameDir   = 0.8
	momentumTurn      = 0.5
	momentumNoDir     = 0.7
	revisitPenalty    = -30.0
	reversalPenalty   = -60.0
	progressReward    = 15.0
	goalReward        = 100.0
	invalidPenalty    = -20.0
	stuckDecayFactor  = 0.9
	defaultMaxSteps   = 20000
	hintLookahead     = 3
	followProbBase    = 0.7
	followProbGain    = 0.25
	followProbCeiling = 0.95
)

// Config parameterizes a Navigator. UsePathHints toggles the A*-guided
// strategy; with it off the navigator runs the plain learned policy.
// One struct with a flag replaces the old base/enhanced bot split.
type Config struct {
	UsePathHints bool
	MaxSteps     int
	CacheSize    int
	Agent        agent.Config
	RNG          *rand.Rand
}

// HardBacktrackLimit is the caller-side abort threshold,
// 10*sqrt(cells): twice the navigator's own stuck threshold, scaled so
// larger mazes tolerate proportionally more wandering.
func HardBacktrackLimit(width, height int) int {
	return int(10 * math.Sqrt(float64(width*height)))
}

// Navigator walks one maze attempt. Reset rebinds it to a fresh maze;
// episode state (visits, dead ends, path cache, counters) starts over,
// while the value table carries over whenever the grid shape matches.
type Navigator struct {
	cfg   Config
	rng   *rand.Rand
	table *agent.ValueTable
	level int

	grid  *maze.Grid
	pos   maze.Position
	goal  maze.Position
	state State

	visited     map[maze.Position]struct{}
	visitCounts map[maze.Position]int
	deadEnds    map[maze.Position]struct{}
	cache       *pathCache

	lastPos maze.Position
	hasLast bool
	dir     maze.Action
	hasDir  bool

	// steps and backtracks drive stuck detection and reset on recovery;
	// the total* counters feed the performance record and never reset.
	steps          int
	backtracks     int
	stuckThreshold float64

	totalMoves      int
	totalBacktracks int
	revisits        int
	startedAt       time.Time
}

// New creates a Navigator. The value table is allocated lazily on the
// first Reset, once the grid shape is known.
func New(cfg Config) *Navigator {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = defaultMaxSteps
	}
	rng := cfg.RNG
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Navigator{
		cfg:   cfg,
		rng:   rng,
		cache: newPathCache(cfg.CacheSize),
	}
}

// Reset binds the navigator to a maze attempt. Positions outside the
// grid or inside walls are rejected. A value table of a different shape
// is replaced by a zero table for the new shape; learned values carry
// over only between same-shaped mazes.
func (n *Navigator) Reset(grid *maze.Grid, start, goal maze.Position) error {
	if grid == nil {
		return ErrNoGrid
	}
	if !grid.InBound(start) || !grid.InBound(goal) {
		return maze.ErrOutOfBounds
	}
	if !grid.IsOpen(start) || !grid.IsOpen(goal) {
		return ErrBlockedPosition
	}

	if n.table == nil || n.table.Width() != grid.Width() || n.table.Height() != grid.Height() {
		n.table = agent.New(grid.Width(), grid.Height(), n.level, n.cfg.Agent, n.rng)
	}
	n.table.ResetVisits()

	n.grid = grid
	n.pos = start
	n.goal = goal
	n.state = StateNavigating

	n.visited = map[maze.Position]struct{}{start: {}}
	n.visitCounts = make(map[maze.Position]int)
	n.deadEnds = make(map[maze.Position]struct{})
	n.cache.flush()

	n.hasLast = false
	n.hasDir = false
	n.steps = 0
	n.backtracks = 0
	n.totalMoves = 0
	n.totalBacktracks = 0
	n.revisits = 0
	n.stuckThreshold = 5 * math.Sqrt(float64(grid.Width()*grid.Height()))
	n.startedAt = time.Now()
	return nil
}

// AdoptSnapshot restores persisted values into the navigator's table.
// A shape mismatch leaves the zero table in place and is reported so
// the caller can log it; it is never fatal.
func (n *Navigator) AdoptSnapshot(s agent.Snapshot) error {
	if n.table == nil {
		return ErrNoGrid
	}
	return n.table.Restore(s)
}

// SetLevel tags the navigator (and its table) with the training level.
func (n *Navigator) SetLevel(level int) {
	n.level = level
	if n.table != nil {
		n.table.SetLevel(level)
	}
}

// Pos returns the current position.
func (n *Navigator) Pos() maze.Position { return n.pos }

// Goal returns the goal position of the current attempt.
func (n *Navigator) Goal() maze.Position { return n.goal }

// State returns the lifecycle state.
func (n *Navigator) State() State { return n.state }

// Table exposes the value table for persistence.
func (n *Navigator) Table() *agent.ValueTable { return n.table }

// Step advances the bot by at most one cell and reports the outcome.
// OutcomeRegenerate means the maze has no path from the current
// position to the goal and the caller must supply a fresh maze via
// Reset before stepping again.
func (n *Navigator) Step() (maze.Position, Outcome) {
	switch n.state {
	case StateRegenerateRequested:
		return n.pos, OutcomeRegenerate
	case StateGoalReached:
		return n.pos, OutcomeReached
	}

	if float64(n.backtracks) > n.stuckThreshold || n.steps >= n.cfg.MaxSteps {
		return n.stuckCheck()
	}

	if n.cfg.UsePathHints {
		if pos, outcome, ok := n.followHint(); ok {
			return pos, outcome
		}
		return n.exploreFallback()
	}
	return n.policyStep()
}

// stuckCheck decides between "merely inefficient" and "unsolvable".
// The solver runs from the current position; an empty path is the only
// condition fatal to the attempt.
func (n *Navigator) stuckCheck() (maze.Position, Outcome) {
	n.state = StateStuckCheck

	if len(solver.Solve(n.grid, n.pos, n.goal)) == 0 {
		n.state = StateRegenerateRequested
		return n.pos, OutcomeRegenerate
	}

	// A path exists, so the learned policy was just wandering. Shed
	// overconfidence and carry on.
	n.table.Decay(stuckDecayFactor)
	n.steps = 0
	n.backtracks = 0
	n.state = StateNavigating
	return n.pos, OutcomeMoved
}

// hintActions returns the cached or freshly solved shortest-path action
// sequence from the current position.
func (n *Navigator) hintActions() []maze.Action {
	key := cacheKey{pos: n.pos, goal: n.goal}
	if actions, ok := n.cache.get(key); ok {
		return actions
	}
	actions := solver.ActionSequence(solver.Solve(n.grid, n.pos, n.goal))
	n.cache.put(key, actions)
	return actions
}

// followHint tries to commit one move from the shortest-path hint. The
// more backtracking observed so far, the more the bot trusts the hint,
// capped below certainty so it keeps some autonomy. Hint moves train
// the value table exactly like self-chosen ones.
func (n *Navigator) followHint() (maze.Position, Outcome, bool) {
	actions := n.hintActions()
	if len(actions) == 0 {
		return maze.Position{}, 0, false
	}

	stuckFactor := float64(n.backtracks) / math.Max(1, float64(n.steps))
	followProb := math.Min(followProbCeiling, followProbBase+stuckFactor*followProbGain)
	if n.rng.Float64() >= followProb {
		return maze.Position{}, 0, false
	}

	lookahead := hintLookahead
	if len(actions) < lookahead {
		lookahead = len(actions)
	}
	for i := 0; i < lookahead; i++ {
		a := actions[i]
		next := n.pos.Add(a)
		if _, dead := n.deadEnds[next]; dead {
			continue
		}
		if !n.grid.IsOpen(next) {
			continue
		}

		factor := momentumNoDir
		if n.hasDir {
			if a == n.dir {
				factor = momentumSameDir
			} else {
				factor = momentumTurn
			}
		}
		n.table.Update(n.pos, a, hintReward*factor, next)

		pos, outcome := n.commit(next, a)
		return pos, outcome, true
	}
	return maze.Position{}, 0, false
}

// exploreFallback scores every surviving candidate move; lower is
// better: closer to the goal, unvisited, and continuing straight all
// reduce the score.
func (n *Navigator) exploreFallback() (maze.Position, Outcome) {
	type candidate struct {
		action maze.Action
		next   maze.Position
		score  float64
	}

	var best *candidate
	for _, a := range maze.Actions() {
		next := n.pos.Add(a)
		if !n.grid.IsOpen(next) {
			continue
		}
		if _, dead := n.deadEnds[next]; dead {
			continue
		}

		score := 0.5 * float64(maze.Manhattan(next, n.goal))
		if _, seen := n.visited[next]; seen {
			score += 50
		}
		if !n.hasDir || a != n.dir {
			score += 20
		}
		if best == nil || score < best.score {
			best = &candidate{action: a, next: next, score: score}
		}
	}

	if best == nil {
		return n.escapeDeadEnd()
	}

	var reward float64
	if _, seen := n.visited[best.next]; seen {
		reward = revisitPenalty
		if n.hasLast && best.next == n.lastPos {
			reward = reversalPenalty
			n.backtracks++
			n.totalBacktracks++
		}
	} else {
		curDist := maze.Manhattan(n.pos, n.goal)
		newDist := maze.Manhattan(best.next, n.goal)
		reward = progressReward * float64(curDist-newDist)
	}
	n.table.Update(n.pos, best.action, reward, best.next)

	return n.commit(best.next, best.action)
}

// escapeDeadEnd fires when every candidate was filtered out: mark the
// cell and take the first valid move regardless of dead-end status,
// trading optimality for guaranteed progress.
func (n *Navigator) escapeDeadEnd() (maze.Position, Outcome) {
	n.deadEnds[n.pos] = struct{}{}

	for _, a := range maze.Actions() {
		next := n.pos.Add(a)
		if !n.grid.IsOpen(next) {
			continue
		}
		n.pos = next
		n.steps++
		n.totalMoves++
		if next == n.goal {
			n.state = StateGoalReached
			return n.pos, OutcomeReached
		}
		return n.pos, OutcomeMoved
	}

	// Fully sealed cell. Burn a step so the stuck check still fires.
	n.steps++
	return n.pos, OutcomeMoved
}

// policyStep is the plain learned policy used when path hints are off:
// epsilon-greedy action choice with distance-progress shaping.
func (n *Navigator) policyStep() (maze.Position, Outcome) {
	a := n.table.ChooseAction(n.pos, n.steps)
	next := n.pos.Add(a)

	if !n.grid.IsOpen(next) {
		// Invalid attempts still count as moves so the step cap can
		// fire even when the policy keeps picking walls.
		n.table.Update(n.pos, a, invalidPenalty, n.pos)
		n.steps++
		n.totalMoves++
		return n.pos, OutcomeMoved
	}

	var reward float64
	switch {
	case next == n.goal:
		reward = goalReward
	default:
		curDist := maze.Manhattan(n.pos, n.goal)
		newDist := maze.Manhattan(next, n.goal)
		reward = 2 * float64(curDist-newDist)
		reward -= 10 * float64(n.visitCounts[next]+1)
		if n.hasLast && next == n.lastPos {
			reward -= 15
			n.backtracks++
			n.totalBacktracks++
		}
	}
	n.table.Update(n.pos, a, reward, next)

	return n.commit(next, a)
}

// commit finalizes a move: bookkeeping, dead-end marking, goal check.
func (n *Navigator) commit(next maze.Position, a maze.Action) (maze.Position, Outcome) {
	if _, seen := n.visited[next]; seen {
		if !n.hasLast || next != n.lastPos {
			n.revisits++
		}
	}
	n.visitCounts[next]++
	n.visited[next] = struct{}{}

	n.lastPos = n.pos
	n.hasLast = true
	n.dir = a
	n.hasDir = true
	n.pos = next
	n.steps++
	n.totalMoves++

	if next == n.goal {
		n.state = StateGoalReached
		return n.pos, OutcomeReached
	}

	// A cell whose only open neighbor is the one just arrived from is a
	// dead end; remember it for the rest of the episode.
	if n.validMoveCount(next) == 1 {
		n.deadEnds[next] = struct{}{}
	}
	return n.pos, OutcomeMoved
}

func (n *Navigator) validMoveCount(p maze.Position) int {
	count := 0
	for _, a := range maze.Actions() {
		if n.grid.IsOpen(p.Add(a)) {
			count++
		}
	}
	return count
}

// PerformanceData reports the attempt's metrics for difficulty
// adjustment. Counters here are cumulative and unaffected by the
// stuck-recovery resets.
func (n *Navigator) PerformanceData() difficulty.PerformanceRecord {
	return difficulty.PerformanceRecord{
		CompletionTime: time.Since(n.startedAt),
		TotalMoves:     n.totalMoves,
		Backtracks:     n.totalBacktracks,
		Revisits:       n.revisits,
		MazeWidth:      n.grid.Width(),
		MazeHeight:     n.grid.Height(),
	}
}
