package maze

import "encoding/json"

// Snapshot is the structured-text form of a maze plus the moving
// player position. The key names and cell code values are the wire
// contract shared with clients and saved games.
type Snapshot struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Maze   [][]Code  `json:"maze"`
	Entry  []int     `json:"entry"`
	Exit   []int     `json:"exit"`
	Player []int     `json:"player,omitempty"`
}

// Snapshot captures the grid and an optional player position. Pass nil
// when no player is tracked.
func (g *Grid) Snapshot(player *Position) Snapshot {
	s := Snapshot{
		Width:  g.width,
		Height: g.height,
		Maze:   g.Cells(),
		Entry:  []int{g.start.Row, g.start.Col},
		Exit:   []int{g.goal.Row, g.goal.Col},
	}
	if player != nil {
		s.Player = []int{player.Row, player.Col}
	}
	return s
}

// MarshalJSON encodes the grid without a player position.
func (g *Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Snapshot(nil))
}

// GridFromSnapshot rebuilds a validated Grid from its snapshot form.
func GridFromSnapshot(s Snapshot) (*Grid, error) {
	return NewGrid(s.Maze)
}
