package engine

import (
	"fmt"
	"slices"
)

// Board owns every container and the stone→location index. The index is
// a lookup, not a second owner: it changes only together with the
// containers, inside MoveStone.
type Board struct {
	points [NumPoints + 1]stack // index 0 unused
	bar    bar
	home   home
	where  map[StoneID]Location
	byID   map[StoneID]Stone
	nextID StoneID
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	b := &Board{
		where:  make(map[StoneID]Location),
		byID:   make(map[StoneID]Stone),
		nextID: 1,
	}
	for i := 1; i <= NumPoints; i++ {
		b.points[i].point = i
	}
	return b
}

// NewStandardBoard returns a board in the standard starting position.
func NewStandardBoard() *Board {
	b, err := NewBoardFromLayout(StandardLayout())
	if err != nil {
		panic(err) // the preset is known to be valid
	}
	return b
}

// NewBoardFromLayout places stones according to l and verifies the result.
func NewBoardFromLayout(l Layout) (*Board, error) {
	b := NewBoard()
	for _, p := range l {
		if !p.Color.Valid() {
			return nil, fmt.Errorf("placement %s: invalid color", p.At)
		}
		at := p.At.resolve(p.Color)
		if !at.Valid() {
			return nil, fmt.Errorf("placement %s: invalid location", p.At)
		}
		for i := 0; i < p.Count; i++ {
			if err := b.place(NewStone(b.nextID, p.Color), at); err != nil {
				return nil, fmt.Errorf("placement %s: %w", p.At, err)
			}
			b.nextID++
		}
	}
	if err := b.Verify(); err != nil {
		return nil, err
	}
	return b, nil
}

// place puts a new stone on the board during setup.
func (b *Board) place(st Stone, at Location) error {
	if err := b.put(st, at); err != nil {
		return err
	}
	b.where[st.ID()] = at
	b.byID[st.ID()] = st
	return nil
}

// MoveStone relocates st from one container to another. It performs no
// legality checks beyond point capacity; it is the single mutation path
// used by move execution, hits, undo and redo.
func (b *Board) MoveStone(st Stone, from, to Location) error {
	from = from.resolve(st.Color())
	to = to.resolve(st.Color())

	cur, ok := b.where[st.ID()]
	if !ok {
		return invariantf("stone %s is not on the board", st)
	}
	if cur != from {
		return fmt.Errorf("%w: stone %s is at %s, not %s", ErrInvalidState, st, describe(cur), describe(from))
	}
	if err := b.checkDestination(st, to); err != nil {
		return err
	}
	if !b.take(st, from) {
		return invariantf("index places %s at %s but the container does not hold it", st, describe(from))
	}
	if err := b.put(st, to); err != nil {
		return err
	}
	b.where[st.ID()] = to
	return nil
}

func (b *Board) checkDestination(st Stone, to Location) error {
	switch to.Kind {
	case KindPoint:
		if !to.Valid() {
			return fmt.Errorf("%w: point %d out of range", ErrInvalidState, to.Point)
		}
		if b.points[to.Point].full() {
			return fmt.Errorf("%w: point %d is full", ErrInvalidState, to.Point)
		}
	case KindBar, KindHome:
		if to.Color != st.Color() {
			return fmt.Errorf("%w: %s stone cannot go to %s's %s", ErrInvalidState, st.Color(), to.Color, to.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown location kind %s", ErrInvalidState, to.Kind)
	}
	return nil
}

func (b *Board) take(st Stone, from Location) bool {
	switch from.Kind {
	case KindPoint:
		return b.points[from.Point].remove(st)
	case KindBar:
		return b.bar.remove(st)
	case KindHome:
		return b.home.withdraw(st)
	}
	return false
}

func (b *Board) put(st Stone, to Location) error {
	if err := b.checkDestination(st, to); err != nil {
		return err
	}
	switch to.Kind {
	case KindPoint:
		b.points[to.Point].push(st)
	case KindBar:
		b.bar.add(st)
	case KindHome:
		b.home.add(st)
	}
	return nil
}

// StoneLocation returns where st currently is.
func (b *Board) StoneLocation(st Stone) (Location, bool) {
	loc, ok := b.where[st.ID()]
	return loc, ok
}

// Stone looks a stone up by identity.
func (b *Board) Stone(id StoneID) (Stone, bool) {
	st, ok := b.byID[id]
	return st, ok
}

// Top returns the top stone of point n.
func (b *Board) Top(n int) (Stone, bool) {
	if n < 1 || n > NumPoints {
		return Stone{}, false
	}
	return b.points[n].top()
}

// PointCount returns the number of stones on point n.
func (b *Board) PointCount(n int) int {
	if n < 1 || n > NumPoints {
		return 0
	}
	return len(b.points[n].stones)
}

// StackColor returns the color occupying point n, or NoColor when empty.
func (b *Board) StackColor(n int) Color {
	if n < 1 || n > NumPoints {
		return NoColor
	}
	return b.points[n].color()
}

// Stones returns a copy of the stones held at loc.
func (b *Board) Stones(loc Location) []Stone {
	switch loc.Kind {
	case KindPoint:
		if !loc.Valid() {
			return nil
		}
		return slices.Clone(b.points[loc.Point].stones)
	case KindBar:
		return slices.Clone(b.bar.of(loc.Color))
	case KindHome:
		return slices.Clone(b.home.stones[loc.Color.index()])
	}
	return nil
}

// BarStones returns c's stones waiting on the bar.
func (b *Board) BarStones(c Color) []Stone {
	return slices.Clone(b.bar.of(c))
}

// BarCount returns the number of c's stones on the bar.
func (b *Board) BarCount(c Color) int { return len(b.bar.of(c)) }

// HomeCount returns the number of c's stones borne off.
func (b *Board) HomeCount(c Color) int { return b.home.count(c) }

// OutsideHome reports whether any of c's stones sits on a point outside
// c's home quadrant. The scan stops at the first one found.
func (b *Board) OutsideHome(c Color) bool {
	for n := 1; n <= NumPoints; n++ {
		if inHome(c, n) {
			continue
		}
		for _, st := range b.points[n].stones {
			if st.Color() == c {
				return true
			}
		}
	}
	return false
}

// StonesBehind reports whether c has a stone farther from home than point
// n: higher points for white, lower points for black.
func (b *Board) StonesBehind(c Color, n int) bool {
	lo, hi := n+1, NumPoints
	if c == Black {
		lo, hi = 1, n-1
	}
	for p := lo; p <= hi; p++ {
		if b.holds(p, c) {
			return true
		}
	}
	return false
}

// holds reports whether any stone of color c is on point p.
func (b *Board) holds(p int, c Color) bool {
	return slices.ContainsFunc(b.points[p].stones, func(s Stone) bool { return s.Color() == c })
}

// Count returns how many of c's stones are anywhere on the board.
func (b *Board) Count(c Color) int {
	total := b.BarCount(c) + b.HomeCount(c)
	for n := 1; n <= NumPoints; n++ {
		for _, st := range b.points[n].stones {
			if st.Color() == c {
				total++
			}
		}
	}
	return total
}

// Verify checks every board invariant: each stone sits in exactly the
// container the index names, each color has NumStones stones, no point
// exceeds PointCapacity and a point with two or more stones has a single
// color.
func (b *Board) Verify() error {
	seen := make(map[StoneID]Location, len(b.where))
	record := func(st Stone, at Location) error {
		if prev, dup := seen[st.ID()]; dup {
			return invariantf("stone %s is held by both %s and %s", st, describe(prev), describe(at))
		}
		seen[st.ID()] = at
		if idx, ok := b.where[st.ID()]; !ok || idx != at {
			return invariantf("stone %s is held by %s but indexed at %s", st, describe(at), describe(idx))
		}
		return nil
	}

	for n := 1; n <= NumPoints; n++ {
		p := &b.points[n]
		if len(p.stones) > PointCapacity {
			return invariantf("point %d holds %d stones", n, len(p.stones))
		}
		if len(p.stones) >= 2 {
			c := p.stones[0].Color()
			for _, st := range p.stones[1:] {
				if st.Color() != c {
					return invariantf("point %d mixes colors", n)
				}
			}
		}
		for _, st := range p.stones {
			if err := record(st, PointAt(n)); err != nil {
				return err
			}
		}
	}
	for _, c := range Colors {
		for _, st := range b.bar.of(c) {
			if st.Color() != c {
				return invariantf("%s stone on %s's bar", st.Color(), c)
			}
			if err := record(st, BarOf(c)); err != nil {
				return err
			}
		}
		for _, st := range b.home.stones[c.index()] {
			if st.Color() != c {
				return invariantf("%s stone in %s's home", st.Color(), c)
			}
			if err := record(st, HomeOf(c)); err != nil {
				return err
			}
		}
	}
	if len(seen) != len(b.where) {
		return invariantf("index tracks %d stones but containers hold %d", len(b.where), len(seen))
	}
	for _, c := range Colors {
		if n := b.Count(c); n != NumStones {
			return invariantf("%s has %d stones, want %d", c, n, NumStones)
		}
	}
	return nil
}

func describe(l Location) string {
	if l.Kind == KindPoint {
		return fmt.Sprintf("point %d", l.Point)
	}
	return fmt.Sprintf("%s %s", l.Color, l.Kind)
}
