package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// NumPoints is the number of points on the board.
const NumPoints = 24

// LocationKind tags the variant held by a Location.
type LocationKind uint8

const (
	KindPoint LocationKind = iota
	KindBar
	KindHome
)

func (k LocationKind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindBar:
		return "bar"
	case KindHome:
		return "home"
	default:
		return fmt.Sprintf("LocationKind(%d)", uint8(k))
	}
}

// Location names a container on the board: one of the 24 points, a
// color's bar entry or a color's home tray. Bar and home locations built
// with Bar() and Off() carry no color and are resolved against the
// player on roll.
type Location struct {
	Kind  LocationKind
	Point int   // 1..24 when Kind == KindPoint
	Color Color // owner of the bar or home; NoColor means the player on roll
}

// PointAt returns the location of point n.
func PointAt(n int) Location { return Location{Kind: KindPoint, Point: n} }

// BarOf returns c's bar entry.
func BarOf(c Color) Location { return Location{Kind: KindBar, Color: c} }

// HomeOf returns c's bear-off tray.
func HomeOf(c Color) Location { return Location{Kind: KindHome, Color: c} }

// Bar returns the bar of whoever is on roll.
func Bar() Location { return Location{Kind: KindBar} }

// Off returns the bear-off tray of whoever is on roll.
func Off() Location { return Location{Kind: KindHome} }

// IsPoint reports whether l is a board point.
func (l Location) IsPoint() bool { return l.Kind == KindPoint }

// IsBar reports whether l is a bar entry.
func (l Location) IsBar() bool { return l.Kind == KindBar }

// IsHome reports whether l is a bear-off tray.
func (l Location) IsHome() bool { return l.Kind == KindHome }

// Valid reports whether l names an existing container.
func (l Location) Valid() bool {
	switch l.Kind {
	case KindPoint:
		return l.Point >= 1 && l.Point <= NumPoints
	case KindBar, KindHome:
		return l.Color == NoColor || l.Color.Valid()
	}
	return false
}

// resolve fills in the owner of a color-less bar or home location.
func (l Location) resolve(player Color) Location {
	if l.Kind != KindPoint && l.Color == NoColor {
		l.Color = player
	}
	if l.Kind == KindPoint {
		l.Color = NoColor
	}
	return l
}

// String renders l in move notation: "13", "bar" or "off".
func (l Location) String() string {
	switch l.Kind {
	case KindPoint:
		return strconv.Itoa(l.Point)
	case KindBar:
		return "bar"
	case KindHome:
		return "off"
	}
	return "?"
}

// MarshalText encodes l in move notation.
func (l Location) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes move notation.
func (l *Location) UnmarshalText(text []byte) error {
	parsed, err := ParseLocation(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLocation parses "1".."24", "bar" or "off" ("home" is accepted as
// an alias). Bar and home locations are returned without a color.
func ParseLocation(s string) (Location, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bar", "b":
		return Bar(), nil
	case "off", "home", "o":
		return Off(), nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Location{}, fmt.Errorf("invalid location %q", s)
	}
	if n < 1 || n > NumPoints {
		return Location{}, fmt.Errorf("point %d out of range 1-%d", n, NumPoints)
	}
	return PointAt(n), nil
}

// Move is a single-stone move intent. It is built per attempt and never
// stored outside a MoveCommand.
type Move struct {
	From Location `json:"from"`
	To   Location `json:"to"`
}

// String renders the move as "from/to", e.g. "24/18" or "bar/20".
func (m Move) String() string {
	return m.From.String() + "/" + m.To.String()
}

// ParseMove parses "from/to" notation such as "24/18", "bar/20" or
// "6/off". A dash or space also separates the halves.
func ParseMove(s string) (Move, error) {
	parts := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return r == '/' || r == '-' || r == ' '
	})
	if len(parts) != 2 {
		return Move{}, fmt.Errorf("move should look like '24/18', got %q", s)
	}
	from, err := ParseLocation(parts[0])
	if err != nil {
		return Move{}, err
	}
	to, err := ParseLocation(parts[1])
	if err != nil {
		return Move{}, err
	}
	return Move{From: from, To: to}, nil
}
