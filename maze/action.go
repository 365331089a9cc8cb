package maze

// Action is one of the four cardinal moves. The enumeration order is
// fixed: it indexes the third dimension of the agent's value table and
// is the deterministic tie-break order everywhere.
type Action int

const (
	Up Action = iota
	Down
	Left
	Right
)

// ActionCount is the size of the action space.
const ActionCount = 4

var actionDeltas = [ActionCount]Position{
	{Row: -1, Col: 0},
	{Row: 1, Col: 0},
	{Row: 0, Col: -1},
	{Row: 0, Col: 1},
}

var actionNames = [ActionCount]string{"up", "down", "left", "right"}

// Actions returns all actions in enumeration order.
func Actions() [ActionCount]Action {
	return [ActionCount]Action{Up, Down, Left, Right}
}

// Delta returns the unit vector of the action.
func (a Action) Delta() Position {
	return actionDeltas[a]
}

// Valid reports whether a is one of the four cardinal actions.
func (a Action) Valid() bool {
	return a >= Up && a <= Right
}

func (a Action) String() string {
	if !a.Valid() {
		return "invalid"
	}
	return actionNames[a]
}

// ParseAction maps a direction name to its Action. The second return
// value is false for unknown names.
func ParseAction(name string) (Action, bool) {
	for i, n := range actionNames {
		if n == name {
			return Action(i), true
		}
	}
	return 0, false
}

// DeltaAction maps a unit displacement between two adjacent positions
// back to the action producing it.
func DeltaAction(from, to Position) (Action, bool) {
	d := Position{Row: to.Row - from.Row, Col: to.Col - from.Col}
	for i, delta := range actionDeltas {
		if d == delta {
			return Action(i), true
		}
	}
	return 0, false
}
