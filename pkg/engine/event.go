package engine

import "fmt"

// EventKind classifies game events.
type EventKind uint8

const (
	EventRolled EventKind = iota + 1
	EventMoved
	EventForcedEntry
	EventPassed
	EventTurnEnded
	EventUndone
	EventRedone
	EventWon
)

var eventNames = map[EventKind]string{
	EventRolled:      "rolled",
	EventMoved:       "moved",
	EventForcedEntry: "forced_entry",
	EventPassed:      "passed",
	EventTurnEnded:   "turn_ended",
	EventUndone:      "undone",
	EventRedone:      "redone",
	EventWon:         "won",
}

func (k EventKind) String() string {
	if s, ok := eventNames[k]; ok {
		return s
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

// MarshalText encodes the event name.
func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes an event name.
func (k *EventKind) UnmarshalText(text []byte) error {
	for kind, name := range eventNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", text)
}

// Event tells the presentation layer what just happened.
type Event struct {
	Kind         EventKind  `json:"kind"`
	Player       Color      `json:"player"`
	Roll         [2]int     `json:"roll,omitzero"`
	Dice         []int      `json:"dice,omitempty"`
	Move         Move       `json:"move,omitzero"`
	Pip          int        `json:"pip,omitempty"`
	Hit          bool       `json:"hit,omitempty"`
	HitStone     StoneID    `json:"hit_stone,omitempty"`
	BearOff      bool       `json:"bear_off,omitempty"`
	Destinations []Location `json:"destinations,omitempty"`
	Winner       Color      `json:"winner,omitzero"`
}

func (e Event) String() string {
	switch e.Kind {
	case EventRolled:
		return fmt.Sprintf("%s rolled %d-%d", e.Player, e.Roll[0], e.Roll[1])
	case EventMoved, EventRedone:
		s := fmt.Sprintf("%s played %s", e.Player, e.Move)
		if e.Hit {
			s += "*"
		}
		return s
	case EventUndone:
		return fmt.Sprintf("%s took back %s", e.Player, e.Move)
	case EventForcedEntry:
		return fmt.Sprintf("%s must enter from the bar (%v)", e.Player, e.Destinations)
	case EventPassed:
		return fmt.Sprintf("%s cannot move", e.Player)
	case EventTurnEnded:
		return fmt.Sprintf("%s's turn is over", e.Player)
	case EventWon:
		return fmt.Sprintf("%s wins", e.Winner)
	}
	return e.Kind.String()
}
