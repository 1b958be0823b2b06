package engine

import "slices"

// PointCapacity is the most stones a single point may hold.
const PointCapacity = 5

// stack is one board point. Stones are ordered; only the last one (the
// top) is inspected for color and hits.
type stack struct {
	point  int
	stones []Stone
}

func (s *stack) full() bool { return len(s.stones) >= PointCapacity }

func (s *stack) push(st Stone) {
	s.stones = append(s.stones, st)
}

func (s *stack) top() (Stone, bool) {
	if len(s.stones) == 0 {
		return Stone{}, false
	}
	return s.stones[len(s.stones)-1], true
}

// color returns the color of the top stone, or NoColor when empty.
func (s *stack) color() Color {
	if top, ok := s.top(); ok {
		return top.Color()
	}
	return NoColor
}

// remove takes st out wherever it sits; normally that is the top.
func (s *stack) remove(st Stone) bool {
	i := indexOf(s.stones, st.ID())
	if i < 0 {
		return false
	}
	s.stones = slices.Delete(s.stones, i, i+1)
	return true
}

// bar holds stones displaced by hits, one unordered group per color.
type bar struct {
	stones [2][]Stone
}

func (b *bar) add(st Stone) {
	i := st.Color().index()
	b.stones[i] = append(b.stones[i], st)
}

func (b *bar) remove(st Stone) bool {
	i := st.Color().index()
	j := indexOf(b.stones[i], st.ID())
	if j < 0 {
		return false
	}
	b.stones[i] = slices.Delete(b.stones[i], j, j+1)
	return true
}

func (b *bar) of(c Color) []Stone { return b.stones[c.index()] }

// mustReenter reports whether c has stones waiting on the bar.
func (b *bar) mustReenter(c Color) bool { return len(b.stones[c.index()]) > 0 }

// home is the bear-off tray. Game rules only ever append; withdraw exists
// for the undo path.
type home struct {
	stones [2][]Stone
}

func (h *home) add(st Stone) {
	i := st.Color().index()
	h.stones[i] = append(h.stones[i], st)
}

func (h *home) withdraw(st Stone) bool {
	i := st.Color().index()
	j := indexOf(h.stones[i], st.ID())
	if j < 0 {
		return false
	}
	h.stones[i] = slices.Delete(h.stones[i], j, j+1)
	return true
}

func (h *home) count(c Color) int { return len(h.stones[c.index()]) }

func indexOf(stones []Stone, id StoneID) int {
	return slices.IndexFunc(stones, func(s Stone) bool { return s.ID() == id })
}
