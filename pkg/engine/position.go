package engine

import (
	"fmt"

	"github.com/yourusername/bgrules/internal/positionid"
)

// ownSlot converts point n to c's own 0-based numbering, counted from
// c's home: white's 1-point is point 1, black's is point 24.
func ownSlot(c Color, n int) int {
	if c == Black {
		return NumPoints - n
	}
	return n - 1
}

// pointFromSlot is the inverse of ownSlot.
func pointFromSlot(c Color, slot int) int {
	if c == Black {
		return NumPoints - slot
	}
	return slot + 1
}

// tan converts the board to gnubg's two-sided representation with onRoll
// as the side to move.
func (b *Board) tan(onRoll Color) positionid.Board {
	var t positionid.Board
	for side, c := range [2]Color{onRoll.Opponent(), onRoll} {
		for n := 1; n <= NumPoints; n++ {
			if b.StackColor(n) == c {
				t[side][ownSlot(c, n)] = uint8(b.PointCount(n))
			}
		}
		t[side][positionid.BarSlot] = uint8(b.BarCount(c))
	}
	return t
}

// PositionID returns the GNU Backgammon position ID of the board with
// onRoll to move.
func (b *Board) PositionID(onRoll Color) string {
	if !onRoll.Valid() {
		onRoll = White
	}
	return positionid.Encode(b.tan(onRoll))
}

// LayoutFromPositionID decodes a gnubg position ID into a layout, with
// onRoll as the side to move. Stones missing from the ID are borne off.
func LayoutFromPositionID(id string, onRoll Color) (Layout, error) {
	if !onRoll.Valid() {
		return nil, fmt.Errorf("position %s: side on roll must be white or black", id)
	}
	t, err := positionid.Decode(id)
	if err != nil {
		return nil, err
	}
	var l Layout
	for side, c := range [2]Color{onRoll.Opponent(), onRoll} {
		total := 0
		for slot := 0; slot < NumPoints; slot++ {
			k := int(t[side][slot])
			if k == 0 {
				continue
			}
			if k > PointCapacity {
				return nil, fmt.Errorf("position %s: %d stones on one point exceeds %d", id, k, PointCapacity)
			}
			l = append(l, Placement{At: PointAt(pointFromSlot(c, slot)), Count: k, Color: c})
			total += k
		}
		if k := int(t[side][positionid.BarSlot]); k > 0 {
			l = append(l, Placement{At: BarOf(c), Count: k, Color: c})
			total += k
		}
		if off := NumStones - total; off > 0 {
			l = append(l, Placement{At: HomeOf(c), Count: off, Color: c})
		}
	}
	return l, nil
}
