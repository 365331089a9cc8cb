/*
Package maze provides tools for generating and managing rectangular
code-grid mazes.

A maze is a 2D grid of cell codes (Empty, Wall, Start, Goal) laid out on
a cell/wall lattice: path cells sit on odd coordinates and walls occupy
the coordinates between them, so valid dimensions are always odd. The
package includes three randomized spanning-tree generators (growing-tree
DFS, randomized Kruskal and Wilson's loop-erased random walk),
entry/exit carving, BFS connectivity validation and an ASCII renderer.
*/
package maze

import (
	"errors"
	"fmt"
	"strings"
)

// Code is the value stored in a single grid cell.
type Code int8

// Cell codes. The numeric values are part of the wire format and must
// not change.
const (
	Empty Code = 0
	Wall  Code = 1
	Start Code = 2
	Goal  Code = 3
)

// Grid-related errors.
var (
	ErrOutOfBounds   = errors.New("position is out of the maze")
	ErrInvalidCells  = errors.New("invalid cell codes")
	ErrNoStartOrGoal = errors.New("grid must contain exactly one start and one goal")
)

// Position is a (row, col) pair into a Grid. It is always passed by
// value.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Add returns the position shifted by the given action's unit vector.
func (p Position) Add(a Action) Position {
	d := a.Delta()
	return Position{Row: p.Row + d.Row, Col: p.Col + d.Col}
}

// Manhattan returns the L1 distance between two positions.
func Manhattan(a, b Position) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Grid is a validated rectangular maze. Cell codes are immutable after
// generation; gameplay tracks moving positions separately.
type Grid struct {
	width  int
	height int
	cells  [][]Code
	start  Position
	goal   Position
}

// NewGrid builds a Grid from raw cell codes. It is mainly a test and
// deserialization hook; generated grids come from Generator.Generate.
// The cells must contain exactly one Start and one Goal code.
func NewGrid(cells [][]Code) (*Grid, error) {
	if len(cells) == 0 || len(cells[0]) == 0 {
		return nil, ErrInvalidCells
	}

	height := len(cells)
	width := len(cells[0])
	g := &Grid{width: width, height: height, cells: make([][]Code, height)}

	starts, goals := 0, 0
	for r, row := range cells {
		if len(row) != width {
			return nil, ErrInvalidCells
		}
		g.cells[r] = make([]Code, width)
		copy(g.cells[r], row)
		for c, code := range row {
			switch code {
			case Start:
				starts++
				g.start = Position{Row: r, Col: c}
			case Goal:
				goals++
				g.goal = Position{Row: r, Col: c}
			case Empty, Wall:
			default:
				return nil, fmt.Errorf("%w: %d at (%d,%d)", ErrInvalidCells, code, r, c)
			}
		}
	}

	if starts != 1 || goals != 1 {
		return nil, ErrNoStartOrGoal
	}
	return g, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Start returns the start cell position.
func (g *Grid) Start() Position { return g.start }

// Goal returns the goal cell position.
func (g *Grid) Goal() Position { return g.goal }

// InBound reports whether the position addresses a cell of the grid.
func (g *Grid) InBound(p Position) bool {
	return p.Row >= 0 && p.Row < g.height && p.Col >= 0 && p.Col < g.width
}

// At returns the code at the given position. Callers must check
// InBound first; out-of-range positions are a caller bug and are never
// clamped.
func (g *Grid) At(p Position) Code {
	return g.cells[p.Row][p.Col]
}

// IsOpen reports whether the position is inside the grid and walkable.
func (g *Grid) IsOpen(p Position) bool {
	return g.InBound(p) && g.cells[p.Row][p.Col] != Wall
}

// OpenNeighbors returns the number of walkable cells adjacent to p.
func (g *Grid) OpenNeighbors(p Position) int {
	count := 0
	for _, a := range Actions() {
		if g.IsOpen(p.Add(a)) {
			count++
		}
	}
	return count
}

// Cells returns a deep copy of the raw cell codes, for serialization.
func (g *Grid) Cells() [][]Code {
	out := make([][]Code, g.height)
	for r := range g.cells {
		out[r] = make([]Code, g.width)
		copy(out[r], g.cells[r])
	}
	return out
}

// Connected reports whether the goal is reachable from the start over
// non-wall cells, via breadth-first search.
func (g *Grid) Connected() bool {
	visited := make([]bool, g.width*g.height)
	queue := []Position{g.start}
	visited[g.start.Row*g.width+g.start.Col] = true

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == g.goal {
			return true
		}
		for _, a := range Actions() {
			next := cur.Add(a)
			if !g.IsOpen(next) {
				continue
			}
			idx := next.Row*g.width + next.Col
			if !visited[idx] {
				visited[idx] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// String renders the maze with ASCII characters, start as S, goal as E.
func (g *Grid) String() string {
	var b strings.Builder
	for r := 0; r < g.height; r++ {
		for c := 0; c < g.width; c++ {
			switch g.cells[r][c] {
			case Wall:
				b.WriteString("██")
			case Start:
				b.WriteString("S ")
			case Goal:
				b.WriteString("E ")
			default:
				b.WriteString("  ")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
