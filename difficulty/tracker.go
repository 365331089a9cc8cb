package difficulty

import (
	"time"

	"github.com/adaptivemaze/amaze-api/maze"
)

// Tracker records one human player's movement through a maze and turns
// it into the same PerformanceRecord the bot produces, so both sides
// of a race feed the controller identically.
//
// Invalid attempts (walls, out of bounds) count toward TotalMoves but
// never move the player.
type Tracker struct {
	grid *maze.Grid
	pos  maze.Position

	path    []maze.Position
	visited map[maze.Position]struct{}

	totalMoves int
	wrongTurns int
	backtracks int
	revisits   int

	startedAt  time.Time
	finishedAt time.Time
}

// NewTracker starts tracking at the grid's start cell.
func NewTracker(grid *maze.Grid) *Tracker {
	start := grid.Start()
	return &Tracker{
		grid:      grid,
		pos:       start,
		path:      []maze.Position{start},
		visited:   map[maze.Position]struct{}{start: {}},
		startedAt: time.Now(),
	}
}

// Pos returns the player's current position.
func (t *Tracker) Pos() maze.Position { return t.pos }

// Move applies one action. It returns false without moving when the
// target cell is a wall or outside the grid.
func (t *Tracker) Move(a maze.Action) bool {
	t.totalMoves++

	next := t.pos.Add(a)
	if !t.grid.IsOpen(next) {
		t.wrongTurns++
		return false
	}

	// An immediate return to the previous cell is a backtrack; any
	// other re-entry of a known cell is a revisit.
	if len(t.path) >= 2 && next == t.path[len(t.path)-2] {
		t.backtracks++
	} else if _, seen := t.visited[next]; seen {
		t.revisits++
	}

	t.pos = next
	t.path = append(t.path, next)
	t.visited[next] = struct{}{}
	return true
}

// Finished reports whether the player has reached the goal.
func (t *Tracker) Finished() bool { return t.pos == t.grid.Goal() }

// Complete stamps the completion time. Repeated calls keep the first
// stamp.
func (t *Tracker) Complete() {
	if t.finishedAt.IsZero() {
		t.finishedAt = time.Now()
	}
}

// WrongTurns returns the number of rejected move attempts.
func (t *Tracker) WrongTurns() int { return t.wrongTurns }

// PathLength returns the number of cells entered, start included.
func (t *Tracker) PathLength() int { return len(t.path) }

// Record returns the attempt's metrics. For an uncompleted attempt the
// elapsed time so far is used.
func (t *Tracker) Record() PerformanceRecord {
	end := t.finishedAt
	if end.IsZero() {
		end = time.Now()
	}
	return PerformanceRecord{
		CompletionTime: end.Sub(t.startedAt),
		TotalMoves:     t.totalMoves,
		Backtracks:     t.backtracks,
		Revisits:       t.revisits,
		MazeWidth:      t.grid.Width(),
		MazeHeight:     t.grid.Height(),
	}
}
