// Package positionid encodes boards as GNU Backgammon position IDs.
//
// A position ID is a 14-character base64 string over an 80-bit key. For
// each side (opponent first, then the player on roll) and each of its 25
// slots (its own 1..24 points, then the bar) the key holds one 1-bit per
// stone followed by a 0-bit.
package positionid

import (
	"errors"
	"fmt"
)

// IDLength is the length of a position ID string.
const IDLength = 14

// MaxStones is the number of stones per side.
const MaxStones = 15

// BarSlot is the slot index of the bar.
const BarSlot = 24

// Base64 alphabet used for position ID encoding
const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// Board holds stone counts as [side][slot]. Side 0 is the opponent, side 1
// the player on roll. Slots 0-23 are that side's own 1-24 points counted
// from its home; slot 24 is its bar.
type Board [2][25]uint8

// ErrInvalidPositionID is returned when a position ID cannot be decoded.
var ErrInvalidPositionID = errors.New("invalid position ID")

type key [10]uint8

func makeKey(b Board) key {
	var k key
	bit := 0
	for side := 0; side < 2; side++ {
		for slot := 0; slot < 25; slot++ {
			for n := uint8(0); n < b[side][slot]; n++ {
				k[bit/8] |= 1 << (bit % 8)
				bit++
			}
			bit++
		}
	}
	return k
}

func boardFromKey(k key) (Board, error) {
	var b Board
	side, slot := 0, 0
	for bit := 0; bit < 80 && side < 2; bit++ {
		if k[bit/8]&(1<<(bit%8)) != 0 {
			b[side][slot]++
			continue
		}
		slot++
		if slot == 25 {
			side++
			slot = 0
		}
	}
	if side < 2 {
		return b, fmt.Errorf("%w: key ends before both sides are read", ErrInvalidPositionID)
	}
	return b, nil
}

// Encode returns the position ID of b. The caller is responsible for b
// being a legal position; see Check.
func Encode(b Board) string {
	k := makeKey(b)
	out := make([]byte, IDLength)
	p := k[:]
	for i := 0; i < 3; i++ {
		out[i*4] = base64Chars[p[0]>>2]
		out[i*4+1] = base64Chars[((p[0]&0x03)<<4)|(p[1]>>4)]
		out[i*4+2] = base64Chars[((p[1]&0x0F)<<2)|(p[2]>>6)]
		out[i*4+3] = base64Chars[p[2]&0x3F]
		p = p[3:]
	}
	out[12] = base64Chars[p[0]>>2]
	out[13] = base64Chars[(p[0]&0x03)<<4]
	return string(out)
}

func base64Value(ch byte) (uint8, bool) {
	switch {
	case ch >= 'A' && ch <= 'Z':
		return ch - 'A', true
	case ch >= 'a' && ch <= 'z':
		return ch - 'a' + 26, true
	case ch >= '0' && ch <= '9':
		return ch - '0' + 52, true
	case ch == '+':
		return 62, true
	case ch == '/':
		return 63, true
	}
	return 0, false
}

// Decode parses a position ID. Anything after the first 14 characters,
// such as a gnubg ":matchID" suffix, is ignored.
func Decode(id string) (Board, error) {
	if len(id) < IDLength {
		return Board{}, fmt.Errorf("%w: %q is shorter than %d characters", ErrInvalidPositionID, id, IDLength)
	}
	var v [IDLength]uint8
	for i := 0; i < IDLength; i++ {
		val, ok := base64Value(id[i])
		if !ok {
			return Board{}, fmt.Errorf("%w: bad character %q", ErrInvalidPositionID, id[i])
		}
		v[i] = val
	}

	var k key
	for i := 0; i < 3; i++ {
		c := v[i*4:]
		k[i*3] = (c[0] << 2) | (c[1] >> 4)
		k[i*3+1] = (c[1] << 4) | (c[2] >> 2)
		k[i*3+2] = (c[2] << 6) | c[3]
	}
	k[9] = (v[12] << 2) | (v[13] >> 4)

	b, err := boardFromKey(k)
	if err != nil {
		return b, err
	}
	if err := Check(b); err != nil {
		return b, err
	}
	return b, nil
}

// Check rejects boards with more than MaxStones stones on a side or with
// both sides on the same point.
func Check(b Board) error {
	for side := 0; side < 2; side++ {
		total := 0
		for slot := 0; slot < 25; slot++ {
			total += int(b[side][slot])
		}
		if total > MaxStones {
			return fmt.Errorf("%w: side %d has %d stones", ErrInvalidPositionID, side, total)
		}
	}
	for slot := 0; slot < 24; slot++ {
		if b[0][slot] > 0 && b[1][23-slot] > 0 {
			return fmt.Errorf("%w: both sides occupy the same point", ErrInvalidPositionID)
		}
	}
	return nil
}

// Swap exchanges the two sides, giving the position from the opponent's
// point of view.
func Swap(b Board) Board {
	return Board{b[1], b[0]}
}
