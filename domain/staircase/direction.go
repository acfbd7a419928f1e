package staircase

// Direction is the way the stimulus level moves after a decision.
type Direction int

const (
	// Down makes the task harder (lower stimulus level)
	Down Direction = iota
	// Up makes the task easier (higher stimulus level)
	Up
)

func (d Direction) String() string {
	switch d {
	case Down:
		return "down"
	case Up:
		return "up"
	default:
		return "unknown"
	}
}

// apply moves x by dx in direction d
func (d Direction) apply(x float64, dx int) float64 {
	if d == Down {
		return x - float64(dx)
	}
	return x + float64(dx)
}
