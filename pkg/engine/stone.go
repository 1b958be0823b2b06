package engine

import "fmt"

// StoneID uniquely identifies a stone on a board.
type StoneID int

// Stone is an immutable checker. The container holding it owns it; the
// board's location index only refers to it.
type Stone struct {
	id    StoneID
	color Color
}

// NewStone creates a stone with the given identity and color.
func NewStone(id StoneID, color Color) Stone {
	return Stone{id: id, color: color}
}

// ID returns the stone's identity.
func (s Stone) ID() StoneID { return s.id }

// Color returns the stone's owner.
func (s Stone) Color() Color { return s.color }

func (s Stone) String() string {
	return fmt.Sprintf("%s#%d", s.color, s.id)
}
