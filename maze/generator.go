package maze

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Algorithm selects the spanning-tree construction used by a Generator.
type Algorithm string

// Supported generation algorithms.
const (
	// AlgorithmDFS carves with a growing-tree depth-first search.
	AlgorithmDFS Algorithm = "dfs"
	// AlgorithmKruskal carves with randomized Kruskal over a disjoint set.
	AlgorithmKruskal Algorithm = "kruskal"
	// AlgorithmWilson carves with loop-erased random walks and samples
	// uniformly among all spanning trees.
	AlgorithmWilson Algorithm = "wilson"
)

// Generation limits. Dimensions are checked before any carving starts;
// the validation retry loop must never be the thing that rejects bad
// input.
const (
	minDimension = 5
	maxDimension = 99

	// maxAttempts bounds the regenerate-on-validation-failure loop.
	// Spanning-tree carving plus endpoint placement should validate on
	// the first try; running out of attempts is a bug, not bad luck.
	maxAttempts = 25
)

// Generator errors.
var (
	ErrDimensionTooSmall = errors.New("maze dimension is too small")
	ErrDimensionTooLarge = errors.New("maze dimension is too large")
	ErrUnknownAlgorithm  = errors.New("unknown generation algorithm")
	ErrGenerationFailed  = errors.New("maze generation failed validation")
)

// Generator builds validated mazes of a fixed size with one of the
// three spanning-tree algorithms. Even dimensions are bumped to the
// next odd value so the cell/wall lattice is well formed.
type Generator struct {
	width     int
	height    int
	algorithm Algorithm
	rng       *rand.Rand
}

// NewGenerator validates the requested dimensions and algorithm and
// returns a Generator. A nil rng gets a time-seeded source; passing an
// explicit one makes generation deterministic under replay.
func NewGenerator(width, height int, algorithm Algorithm, rng *rand.Rand) (*Generator, error) {
	if width%2 == 0 {
		width++
	}
	if height%2 == 0 {
		height++
	}

	if min(width, height) < minDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensionTooSmall, width, height)
	}
	if max(width, height) > maxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensionTooLarge, width, height)
	}

	switch algorithm {
	case AlgorithmDFS, AlgorithmKruskal, AlgorithmWilson:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Generator{
		width:     width,
		height:    height,
		algorithm: algorithm,
		rng:       rng,
	}, nil
}

// Generate is a one-shot convenience wrapper around NewGenerator.
func Generate(width, height int, algorithm Algorithm, rng *rand.Rand) (*Grid, error) {
	g, err := NewGenerator(width, height, algorithm, rng)
	if err != nil {
		return nil, err
	}
	return g.Generate()
}

// Generate carves a spanning tree, places start and goal, and validates
// start-to-goal connectivity by BFS. A failed validation retries the
// whole construction with fresh randomness rather than patching the
// grid, so the maze distribution stays unbiased.
func (g *Generator) Generate() (*Grid, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		cells := g.carve()
		if !g.placeEndpoints(cells) {
			continue
		}

		grid, err := NewGrid(cells)
		if err != nil {
			continue
		}
		if grid.Connected() {
			return grid, nil
		}
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrGenerationFailed, maxAttempts)
}

// latticeCell maps half-resolution lattice coordinates to the odd grid
// coordinate of the corresponding path cell.
func latticeCell(ly, lx int) Position {
	return Position{Row: ly*2 + 1, Col: lx*2 + 1}
}

func (g *Generator) carve() [][]Code {
	cells := make([][]Code, g.height)
	for r := range cells {
		cells[r] = make([]Code, g.width)
		for c := range cells[r] {
			cells[r][c] = Wall
		}
	}

	switch g.algorithm {
	case AlgorithmKruskal:
		g.carveKruskal(cells)
	case AlgorithmWilson:
		g.carveWilson(cells)
	default:
		g.carveDFS(cells)
	}
	return cells
}

// carveDFS runs a growing-tree depth-first search over the lattice:
// look at the top of the stack, pick a random unvisited neighbor, carve
// the wall between them, push; pop when no neighbor remains. The stack
// emptying guarantees a spanning tree by construction.
func (g *Generator) carveDFS(cells [][]Code) {
	latHeight := (g.height - 1) / 2
	latWidth := (g.width - 1) / 2

	visited := make([][]bool, latHeight)
	for i := range visited {
		visited[i] = make([]bool, latWidth)
	}

	startY := g.rng.Intn(latHeight)
	startX := g.rng.Intn(latWidth)
	visited[startY][startX] = true
	p := latticeCell(startY, startX)
	cells[p.Row][p.Col] = Empty

	type latPos struct{ y, x int }
	stack := []latPos{{startY, startX}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]

		type candidate struct{ y, x, dy, dx int }
		var neighbors []candidate
		for _, d := range [][2]int{{0, 1}, {1, 0}, {0, -1}, {-1, 0}} {
			ny, nx := top.y+d[0], top.x+d[1]
			if ny >= 0 && ny < latHeight && nx >= 0 && nx < latWidth && !visited[ny][nx] {
				neighbors = append(neighbors, candidate{ny, nx, d[0], d[1]})
			}
		}

		if len(neighbors) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}

		next := neighbors[g.rng.Intn(len(neighbors))]
		cur := latticeCell(top.y, top.x)
		cells[cur.Row+next.dy][cur.Col+next.dx] = Empty
		np := latticeCell(next.y, next.x)
		cells[np.Row][np.Col] = Empty
		visited[next.y][next.x] = true
		stack = append(stack, latPos{next.y, next.x})
	}
}

// carveKruskal treats every lattice cell as a singleton disjoint set,
// shuffles all candidate walls, and carves a wall whenever it separates
// two different sets. Path compression and union by rank keep the set
// operations near-constant time.
func (g *Generator) carveKruskal(cells [][]Code) {
	latHeight := (g.height - 1) / 2
	latWidth := (g.width - 1) / 2

	parent := make([]int, latHeight*latWidth)
	rank := make([]int, latHeight*latWidth)
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(n int) int {
		if parent[n] != n {
			parent[n] = find(parent[n])
		}
		return parent[n]
	}

	union := func(a, b int) bool {
		ra, rb := find(a), find(b)
		if ra == rb {
			return false
		}
		if rank[ra] < rank[rb] {
			parent[ra] = rb
		} else {
			parent[rb] = ra
			if rank[ra] == rank[rb] {
				rank[ra]++
			}
		}
		return true
	}

	for ly := 0; ly < latHeight; ly++ {
		for lx := 0; lx < latWidth; lx++ {
			p := latticeCell(ly, lx)
			cells[p.Row][p.Col] = Empty
		}
	}

	type wall struct{ y1, x1, y2, x2 int }
	var walls []wall
	for ly := 0; ly < latHeight; ly++ {
		for lx := 0; lx < latWidth; lx++ {
			if lx < latWidth-1 {
				walls = append(walls, wall{ly, lx, ly, lx + 1})
			}
			if ly < latHeight-1 {
				walls = append(walls, wall{ly, lx, ly + 1, lx})
			}
		}
	}
	g.rng.Shuffle(len(walls), func(i, j int) {
		walls[i], walls[j] = walls[j], walls[i]
	})

	for _, w := range walls {
		a := w.y1*latWidth + w.x1
		b := w.y2*latWidth + w.x2
		if union(a, b) {
			p := latticeCell(w.y1, w.x1)
			cells[p.Row+(w.y2-w.y1)][p.Col+(w.x2-w.x1)] = Empty
		}
	}
}

// carveWilson starts with a single visited cell and repeatedly performs
// loop-erased random walks from unvisited cells into the visited set,
// carving each finished walk. The result is sampled uniformly among all
// spanning trees, at a higher cost than DFS or Kruskal.
func (g *Generator) carveWilson(cells [][]Code) {
	latHeight := (g.height - 1) / 2
	latWidth := (g.width - 1) / 2

	type latPos struct{ y, x int }
	visited := make(map[latPos]struct{})

	first := latPos{g.rng.Intn(latHeight), g.rng.Intn(latWidth)}
	visited[first] = struct{}{}
	p := latticeCell(first.y, first.x)
	cells[p.Row][p.Col] = Empty

	unvisited := make([]latPos, 0, latHeight*latWidth-1)
	for ly := 0; ly < latHeight; ly++ {
		for lx := 0; lx < latWidth; lx++ {
			if (latPos{ly, lx}) != first {
				unvisited = append(unvisited, latPos{ly, lx})
			}
		}
	}

	deltas := [][2]int{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}

	for len(unvisited) > 0 {
		cur := unvisited[g.rng.Intn(len(unvisited))]

		// Random walk until the visited set is hit, truncating the
		// recorded path at any self-intersection.
		path := []latPos{cur}
		pathIndex := map[latPos]int{cur: 0}
		for {
			if _, ok := visited[cur]; ok {
				break
			}
			d := deltas[g.rng.Intn(len(deltas))]
			next := latPos{cur.y + d[0], cur.x + d[1]}
			if next.y < 0 || next.y >= latHeight || next.x < 0 || next.x >= latWidth {
				continue
			}
			if at, ok := pathIndex[next]; ok {
				for _, erased := range path[at+1:] {
					delete(pathIndex, erased)
				}
				path = path[:at+1]
			} else {
				pathIndex[next] = len(path)
				path = append(path, next)
			}
			cur = next
		}

		for i := 0; i < len(path)-1; i++ {
			a := latticeCell(path[i].y, path[i].x)
			b := latticeCell(path[i+1].y, path[i+1].x)
			cells[a.Row][a.Col] = Empty
			cells[b.Row][b.Col] = Empty
			cells[(a.Row+b.Row)/2][(a.Col+b.Col)/2] = Empty
			visited[path[i]] = struct{}{}
		}

		remaining := unvisited[:0]
		for _, lp := range unvisited {
			if _, ok := visited[lp]; !ok {
				remaining = append(remaining, lp)
			}
		}
		unvisited = remaining
	}
}

// placeEndpoints marks the start at the path cell nearest the grid
// center and opens a goal on the border next to a path cell with at
// least two open neighbors, preferring the side opposite the start.
// Returns false when the carved grid leaves nothing to work with, which
// sends the caller back around the retry loop.
func (g *Generator) placeEndpoints(cells [][]Code) bool {
	start := Position{Row: g.height / 2, Col: g.width / 2}
	// Snap to the odd lattice so the start lands on a carved path cell.
	if start.Row%2 == 0 {
		start.Row--
	}
	if start.Col%2 == 0 {
		start.Col--
	}
	if cells[start.Row][start.Col] != Empty {
		return false
	}
	cells[start.Row][start.Col] = Start

	type exit struct {
		anchor Position // interior path cell next to the border
		border Position // border cell that becomes the goal
		side   int      // 0 top, 1 bottom, 2 left, 3 right
	}

	var candidates []exit
	appendCandidate := func(anchor, border Position, side int) {
		if cells[anchor.Row][anchor.Col] != Empty {
			return
		}
		open := 0
		for _, a := range Actions() {
			n := anchor.Add(a)
			if n.Row >= 0 && n.Row < g.height && n.Col >= 0 && n.Col < g.width &&
				cells[n.Row][n.Col] != Wall {
				open++
			}
		}
		// A single open neighbor means a dead-end exit, which makes the
		// maze trivial to finish.
		if open >= 2 {
			candidates = append(candidates, exit{anchor: anchor, border: border, side: side})
		}
	}

	for col := 1; col < g.width-1; col++ {
		appendCandidate(Position{Row: 1, Col: col}, Position{Row: 0, Col: col}, 0)
		appendCandidate(Position{Row: g.height - 2, Col: col}, Position{Row: g.height - 1, Col: col}, 1)
	}
	for row := 1; row < g.height-1; row++ {
		appendCandidate(Position{Row: row, Col: 1}, Position{Row: row, Col: 0}, 2)
		appendCandidate(Position{Row: row, Col: g.width - 1 - 1}, Position{Row: row, Col: g.width - 1}, 3)
	}

	if len(candidates) == 0 {
		return g.forceCarveExit(cells, start)
	}

	// Prefer exits on the opposite side from the start's nearest border.
	opposite := map[int]int{0: 1, 1: 0, 2: 3, 3: 2}[g.nearestSide(start)]
	var preferred []exit
	for _, c := range candidates {
		if c.side == opposite {
			preferred = append(preferred, c)
		}
	}
	if len(preferred) == 0 {
		preferred = candidates
	}

	chosen := preferred[g.rng.Intn(len(preferred))]
	cells[chosen.border.Row][chosen.border.Col] = Goal
	return true
}

// nearestSide returns which border the position is closest to,
// 0 top, 1 bottom, 2 left, 3 right.
func (g *Generator) nearestSide(p Position) int {
	side := 0
	best := p.Row
	if d := g.height - 1 - p.Row; d < best {
		side, best = 1, d
	}
	if p.Col < best {
		side, best = 2, p.Col
	}
	if d := g.width - 1 - p.Col; d < best {
		side = 3
	}
	return side
}

// forceCarveExit handles grids where no border-adjacent path cell
// qualifies: carve a straight corridor from the interior path cell
// furthest from the start out to its nearest border and open the goal
// there.
func (g *Generator) forceCarveExit(cells [][]Code, start Position) bool {
	var from Position
	bestDist := -1
	for r := 1; r < g.height-1; r++ {
		for c := 1; c < g.width-1; c++ {
			if cells[r][c] != Empty {
				continue
			}
			if d := Manhattan(Position{Row: r, Col: c}, start); d > bestDist {
				bestDist = d
				from = Position{Row: r, Col: c}
			}
		}
	}
	if bestDist < 0 {
		return false
	}

	var step Position
	switch g.nearestSide(from) {
	case 0:
		step = Position{Row: -1}
	case 1:
		step = Position{Row: 1}
	case 2:
		step = Position{Col: -1}
	default:
		step = Position{Col: 1}
	}

	cur := from
	for cur.Row > 0 && cur.Row < g.height-1 && cur.Col > 0 && cur.Col < g.width-1 {
		cur = Position{Row: cur.Row + step.Row, Col: cur.Col + step.Col}
		cells[cur.Row][cur.Col] = Empty
	}
	cells[cur.Row][cur.Col] = Goal
	return true
}
