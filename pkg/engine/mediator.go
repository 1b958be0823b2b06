package engine

import (
	"cmp"
	"slices"
)

// Mediator is the legality oracle. It reads the board and the game state,
// decides whether a move is allowed and performs it. All relocations go
// through Board.MoveStone.
type Mediator struct {
	board *Board
	state *GameState
}

// NewMediator binds a mediator to a board and state.
func NewMediator(b *Board, s *GameState) *Mediator {
	return &Mediator{board: b, state: s}
}

// Board returns the board the mediator acts on.
func (m *Mediator) Board() *Board { return m.board }

// State returns the game state the mediator reads.
func (m *Mediator) State() *GameState { return m.state }

// MoveResult describes an executed move.
type MoveResult struct {
	Stone    Stone
	Hit      *Stone // opposing blot sent to the bar, if any
	From     Location
	To       Location
	Distance int
	BearOff  bool
}

// step is the direction c moves in: -1 for white, +1 for black.
func step(c Color) int {
	if c == Black {
		return 1
	}
	return -1
}

// entryPoint is where c re-enters from the bar with die.
func entryPoint(c Color, die int) int {
	if c == Black {
		return die
	}
	return 25 - die
}

// Distance returns the pips needed to move c's stone from one location to
// another. A move that goes nowhere or backwards yields a WrongDirection
// rejection; a pairing that is not a move at all yields BadLocation.
func (m *Mediator) Distance(from, to Location, c Color) (int, error) {
	from, to = from.resolve(c), to.resolve(c)
	var d int
	switch {
	case from.IsBar() && to.IsPoint():
		d = to.Point
		if c == White {
			d = 25 - to.Point
		}
	case from.IsPoint() && to.IsHome():
		d = 25 - from.Point
		if c == White {
			d = from.Point
		}
	case from.IsPoint() && to.IsPoint():
		d = to.Point - from.Point
		if c == White {
			d = from.Point - to.Point
		}
	default:
		return 0, reject(from, to, c, ReasonBadLocation)
	}
	if d <= 0 {
		return 0, reject(from, to, c, ReasonWrongDirection)
	}
	return d, nil
}

// CanBearOff reports whether c may bear off: nothing on the bar and no
// stone outside c's home quadrant.
func (m *Mediator) CanBearOff(c Color) bool {
	return m.board.BarCount(c) == 0 && !m.board.OutsideHome(c)
}

// ValidateMove reports whether the player on roll may move from one
// location to the other with the remaining dice.
func (m *Mediator) ValidateMove(from, to Location) bool {
	return m.Validate(from, to) == nil
}

// Validate is ValidateMove with the reason for a rejection. A non-nil
// result is always a *MoveError.
func (m *Mediator) Validate(from, to Location) error {
	player := m.state.CurrentPlayer()
	from, to = from.resolve(player), to.resolve(player)
	no := func(r Reason) error { return reject(from, to, player, r) }

	if m.state.Winner() != NoColor {
		return no(ReasonGameOver)
	}
	if len(m.state.dice) == 0 {
		return no(ReasonNoDice)
	}
	if !from.Valid() || !to.Valid() || from.IsHome() || to.IsBar() {
		return no(ReasonBadLocation)
	}
	if (from.IsBar() && from.Color != player) || (to.IsHome() && to.Color != player) {
		return no(ReasonBadLocation)
	}

	if m.board.BarCount(player) > 0 && !from.IsBar() {
		return no(ReasonMustEnterFromBar)
	}
	if from.IsBar() {
		if m.board.BarCount(player) == 0 {
			return no(ReasonEmptySource)
		}
	} else {
		top, ok := m.board.Top(from.Point)
		if !ok {
			return no(ReasonEmptySource)
		}
		if top.Color() != player {
			return no(ReasonNotOwnStone)
		}
	}

	distance, err := m.Distance(from, to, player)
	if err != nil {
		return err
	}

	bearOff := to.IsHome()
	if bearOff && !m.CanBearOff(player) {
		return no(ReasonCannotBearOff)
	}
	if !m.state.hasPip(distance) {
		if !bearOff {
			return no(ReasonDieUnavailable)
		}
		// Overshoot: a larger die may bear off only the rearmost stone.
		if m.board.StonesBehind(player, from.Point) {
			return no(ReasonStonesBehind)
		}
		if m.state.maxPip() <= distance {
			return no(ReasonDieUnavailable)
		}
	}
	if bearOff {
		return nil
	}

	count := m.board.PointCount(to.Point)
	switch {
	case count == 0:
	case m.board.StackColor(to.Point) == player:
		if count >= PointCapacity {
			return no(ReasonPointFull)
		}
	case count == 1:
		// hit
	default:
		return no(ReasonBlocked)
	}
	return nil
}

// ExecuteMove validates and performs a move: re-entry, ordinary move,
// hit or bear-off. A rejected move leaves everything untouched.
func (m *Mediator) ExecuteMove(from, to Location) (MoveResult, error) {
	if err := m.Validate(from, to); err != nil {
		return MoveResult{}, err
	}
	player := m.state.CurrentPlayer()
	from, to = from.resolve(player), to.resolve(player)
	distance, err := m.Distance(from, to, player)
	if err != nil {
		return MoveResult{}, err
	}

	var mover Stone
	if from.IsBar() {
		waiting := m.board.bar.of(player)
		mover = waiting[len(waiting)-1]
	} else {
		mover, _ = m.board.Top(from.Point)
	}

	res := MoveResult{Stone: mover, From: from, To: to, Distance: distance}
	if to.IsHome() {
		res.BearOff = true
		return res, m.board.MoveStone(mover, from, to)
	}

	if victim, ok := m.blot(to.Point, player); ok {
		if err := m.board.MoveStone(victim, to, BarOf(victim.Color())); err != nil {
			return res, err
		}
		res.Hit = &victim
	}
	return res, m.board.MoveStone(mover, from, to)
}

// blot returns the lone opposing stone on point n, if there is one.
func (m *Mediator) blot(n int, player Color) (Stone, bool) {
	if m.board.PointCount(n) != 1 {
		return Stone{}, false
	}
	top, _ := m.board.Top(n)
	if top.Color() == player {
		return Stone{}, false
	}
	return top, true
}

// pips returns the distinct remaining pips, largest first.
func (m *Mediator) pips() []int {
	p := slices.Clone(m.state.dice)
	slices.SortFunc(p, func(a, b int) int { return cmp.Compare(b, a) })
	return slices.Compact(p)
}

// candidate returns the location a stone at from lands on with pip.
func candidate(from Location, player Color, pip int) Location {
	if from.IsBar() {
		return PointAt(entryPoint(player, pip))
	}
	n := from.Point + step(player)*pip
	if n < 1 || n > NumPoints {
		return HomeOf(player)
	}
	return PointAt(n)
}

// Destinations lists every legal destination from a location for the
// player on roll, probing each remaining pip plus bearing off.
func (m *Mediator) Destinations(from Location) []Location {
	player := m.state.CurrentPlayer()
	from = from.resolve(player)
	var out []Location
	add := func(to Location) {
		if !slices.Contains(out, to) && m.ValidateMove(from, to) {
			out = append(out, to)
		}
	}
	for _, pip := range m.pips() {
		add(candidate(from, player, pip))
	}
	if from.IsPoint() {
		add(HomeOf(player))
	}
	return out
}

// BarEntries lists the points the player on roll may re-enter on.
func (m *Mediator) BarEntries() []Location {
	return m.Destinations(BarOf(m.state.CurrentPlayer()))
}

// AnyLegalMove reports whether the player on roll has at least one legal
// move. Pips are tried largest first and the probe stops at the first hit.
func (m *Mediator) AnyLegalMove() bool {
	player := m.state.CurrentPlayer()
	pips := m.pips()
	if len(pips) == 0 || m.state.Winner() != NoColor {
		return false
	}

	if m.board.BarCount(player) > 0 {
		bar := BarOf(player)
		for _, pip := range pips {
			if m.ValidateMove(bar, candidate(bar, player, pip)) {
				return true
			}
		}
		return false
	}

	off := HomeOf(player)
	for n := 1; n <= NumPoints; n++ {
		if m.board.StackColor(n) != player {
			continue
		}
		from := PointAt(n)
		for _, pip := range pips {
			if to := candidate(from, player, pip); to.IsPoint() && m.ValidateMove(from, to) {
				return true
			}
			if m.ValidateMove(from, off) {
				return true
			}
		}
	}
	return false
}
