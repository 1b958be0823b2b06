// Package engine implements the backgammon rules: the board and its
// containers, move validation and execution, the turn state machine and
// undo/redo history.
package engine

import "fmt"

// Color identifies a player and the stones they own.
type Color uint8

const (
	NoColor Color = iota
	White
	Black
)

// NumStones is the number of stones each color owns.
const NumStones = 15

// Colors lists both players in turn order.
var Colors = [2]Color{White, Black}

// Opponent returns the other player.
func (c Color) Opponent() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return NoColor
	}
}

// index maps a color to 0 (white) or 1 (black) for per-color arrays.
func (c Color) index() int {
	if c == Black {
		return 1
	}
	return 0
}

// Valid reports whether c is White or Black.
func (c Color) Valid() bool {
	return c == White || c == Black
}

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "none"
	}
}

// MarshalText encodes the color as "white", "black" or "none".
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts the output of MarshalText plus the single-letter
// forms "w" and "b".
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColor parses a color name.
func ParseColor(s string) (Color, error) {
	switch s {
	case "white", "w", "White":
		return White, nil
	case "black", "b", "Black":
		return Black, nil
	case "none", "":
		return NoColor, nil
	}
	return NoColor, fmt.Errorf("unknown color %q", s)
}

// homeRange returns the inclusive point range of c's home quadrant.
func homeRange(c Color) (lo, hi int) {
	if c == Black {
		return 19, 24
	}
	return 1, 6
}

// inHome reports whether point lies in c's home quadrant.
func inHome(c Color, point int) bool {
	lo, hi := homeRange(c)
	return point >= lo && point <= hi
}
