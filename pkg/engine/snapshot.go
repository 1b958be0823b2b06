package engine

// PointView is the read-only state of one point.
type PointView struct {
	Point int   `json:"point"`
	Color Color `json:"color"`
	Count int   `json:"count"`
}

// Snapshot is everything a renderer needs to draw the game. Two snapshots
// compare equal with reflect.DeepEqual exactly when the visible game
// state is the same.
type Snapshot struct {
	Player       Color                `json:"player"`
	State        TurnState            `json:"state"`
	Dice         []int                `json:"dice"`
	Roll         [2]int               `json:"roll"`
	Rolled       bool                 `json:"rolled"`
	Winner       Color                `json:"winner,omitzero"`
	Points       [NumPoints]PointView `json:"points"`
	Bar          map[Color]int        `json:"bar"`
	Home         map[Color]int        `json:"home"`
	PositionID   string               `json:"position_id"`
	Selected     *Location            `json:"selected,omitempty"`
	Destinations []Location           `json:"destinations,omitempty"`
	CanUndo      bool                 `json:"can_undo"`
	CanRedo      bool                 `json:"can_redo"`
}

func (c *Controller) snapshot() Snapshot {
	s := Snapshot{
		Player:     c.state.CurrentPlayer(),
		State:      c.phase,
		Dice:       c.state.Dice(),
		Roll:       c.state.LastRoll(),
		Rolled:     c.state.HasRolled(),
		Winner:     c.state.Winner(),
		Bar:        make(map[Color]int, 2),
		Home:       make(map[Color]int, 2),
		PositionID: c.board.PositionID(c.state.CurrentPlayer()),
		CanUndo:    c.phase != GameOver && c.history.Len() > 0,
		CanRedo:    c.phase != GameOver && c.history.RedoLen() > 0,
	}
	if s.Dice == nil {
		s.Dice = []int{}
	}
	for n := 1; n <= NumPoints; n++ {
		s.Points[n-1] = PointView{Point: n, Color: c.board.StackColor(n), Count: c.board.PointCount(n)}
	}
	for _, col := range Colors {
		s.Bar[col] = c.board.BarCount(col)
		s.Home[col] = c.board.HomeCount(col)
	}
	if sel, ok := c.Selection(); ok {
		from := sel.From
		s.Selected = &from
		s.Destinations = sel.Destinations
	}
	return s
}
