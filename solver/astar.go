// Package solver computes shortest paths on maze grids with A*.
//
// The solver is the system's sole unsolvability oracle: an empty path
// means the goal cannot be reached, and callers branch on that rather
// than on an error.
package solver

import (
	"container/heap"
	"errors"

	"github.com/adaptivemaze/amaze-api/maze"
)

// ErrOutOfBounds is returned by SolveActions for start or goal
// positions outside the grid. Rejecting instead of clamping keeps
// caller bugs visible.
var ErrOutOfBounds = errors.New("start or goal is out of the maze")

// item is an open-set entry. count is a monotonically increasing
// insertion counter so equal f-scores pop in FIFO order and the search
// never depends on map iteration.
type item struct {
	pos   maze.Position
	f     int
	count int
}

type openSet []item

func (s openSet) Len() int { return len(s) }

func (s openSet) Less(i, j int) bool {
	if s[i].f != s[j].f {
		return s[i].f < s[j].f
	}
	return s[i].count < s[j].count
}

func (s openSet) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

func (s *openSet) Push(x any) { *s = append(*s, x.(item)) }

func (s *openSet) Pop() any {
	old := *s
	n := len(old)
	popped := old[n-1]
	*s = old[:n-1]
	return popped
}

// Solve returns the shortest path from start to goal inclusive, or an
// empty slice when the goal is unreachable. Manhattan distance is
// admissible and consistent on a 4-connected unit grid, so the returned
// path length is optimal, and the tie-break counter makes repeated
// calls return identical paths.
func Solve(g *maze.Grid, start, goal maze.Position) []maze.Position {
	if !g.IsOpen(start) || !g.InBound(goal) {
		return nil
	}

	open := &openSet{{pos: start, f: maze.Manhattan(start, goal)}}
	heap.Init(open)

	counter := 0
	cameFrom := make(map[maze.Position]maze.Position)
	gScore := map[maze.Position]int{start: 0}
	closed := make(map[maze.Position]struct{})

	for open.Len() > 0 {
		current := heap.Pop(open).(item).pos

		if current == goal {
			return reconstruct(cameFrom, current)
		}
		if _, done := closed[current]; done {
			continue
		}
		closed[current] = struct{}{}

		for _, a := range maze.Actions() {
			neighbor := current.Add(a)
			if !g.IsOpen(neighbor) {
				continue
			}
			if _, done := closed[neighbor]; done {
				continue
			}

			tentative := gScore[current] + 1
			if prev, seen := gScore[neighbor]; seen && tentative >= prev {
				continue
			}

			cameFrom[neighbor] = current
			gScore[neighbor] = tentative
			counter++
			heap.Push(open, item{
				pos:   neighbor,
				f:     tentative + maze.Manhattan(neighbor, goal),
				count: counter,
			})
		}
	}

	return nil
}

// SolveActions validates the endpoints and returns the path as action
// indices. Unlike Solve it reports out-of-range input as an error so
// API callers cannot confuse "bad request" with "unsolvable".
func SolveActions(g *maze.Grid, start, goal maze.Position) ([]maze.Action, error) {
	if !g.InBound(start) || !g.InBound(goal) {
		return nil, ErrOutOfBounds
	}
	return ActionSequence(Solve(g, start, goal)), nil
}

// ActionSequence re-derives the cardinal actions joining consecutive
// path cells. Each displacement matches exactly one of the four unit
// vectors.
func ActionSequence(path []maze.Position) []maze.Action {
	if len(path) < 2 {
		return nil
	}
	actions := make([]maze.Action, 0, len(path)-1)
	for i := 0; i < len(path)-1; i++ {
		if a, ok := maze.DeltaAction(path[i], path[i+1]); ok {
			actions = append(actions, a)
		}
	}
	return actions
}

func reconstruct(cameFrom map[maze.Position]maze.Position, current maze.Position) []maze.Position {
	path := []maze.Position{current}
	for {
		prev, ok := cameFrom[current]
		if !ok {
			break
		}
		current = prev
		path = append(path, current)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
