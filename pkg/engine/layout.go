package engine

// Placement puts Count stones of one color at a location.
type Placement struct {
	At    Location `json:"at" yaml:"at"`
	Count int      `json:"count" yaml:"count"`
	Color Color    `json:"color" yaml:"color"`
}

// Layout is a starting arrangement of all 30 stones.
type Layout []Placement

// StandardLayout returns the normal backgammon starting position.
// White runs from 24 down to its home on 1-6; black from 1 up to 19-24.
func StandardLayout() Layout {
	return Layout{
		{At: PointAt(1), Count: 2, Color: Black},
		{At: PointAt(6), Count: 5, Color: White},
		{At: PointAt(8), Count: 3, Color: White},
		{At: PointAt(12), Count: 5, Color: Black},
		{At: PointAt(13), Count: 5, Color: White},
		{At: PointAt(17), Count: 3, Color: Black},
		{At: PointAt(19), Count: 5, Color: Black},
		{At: PointAt(24), Count: 2, Color: White},
	}
}

// BearOffLayout returns a practice position with every stone already in
// its home quadrant.
func BearOffLayout() Layout {
	return Layout{
		{At: PointAt(1), Count: 5, Color: White},
		{At: PointAt(2), Count: 5, Color: White},
		{At: PointAt(4), Count: 5, Color: White},
		{At: PointAt(21), Count: 5, Color: Black},
		{At: PointAt(23), Count: 5, Color: Black},
		{At: PointAt(24), Count: 5, Color: Black},
	}
}

// Presets maps preset names to their layouts.
var Presets = map[string]func() Layout{
	"standard": StandardLayout,
	"bearoff":  BearOffLayout,
}

// Layout captures the board's current arrangement. Feeding it back to
// NewBoardFromLayout yields an equivalent board (stone identities aside).
func (b *Board) Layout() Layout {
	var l Layout
	for n := 1; n <= NumPoints; n++ {
		if c := b.StackColor(n); c != NoColor {
			l = append(l, Placement{At: PointAt(n), Count: b.PointCount(n), Color: c})
		}
	}
	for _, c := range Colors {
		if k := b.BarCount(c); k > 0 {
			l = append(l, Placement{At: BarOf(c), Count: k, Color: c})
		}
		if k := b.HomeCount(c); k > 0 {
			l = append(l, Placement{At: HomeOf(c), Count: k, Color: c})
		}
	}
	return l
}
