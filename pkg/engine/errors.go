package engine

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by this package matches exactly one
// of them with errors.Is.
var (
	// ErrIllegalMove is a rejected move. Nothing was mutated and the caller
	// may retry with another intent.
	ErrIllegalMove = errors.New("illegal move")

	// ErrInvalidState is a caller protocol violation, such as rolling
	// twice in a turn. The request is aborted; the game stays usable.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvariant means the board's containers and location index
	// disagree. The game must stop.
	ErrInvariant = errors.New("invariant violation")
)

var (
	ErrAlreadyRolled = fmt.Errorf("%w: dice already rolled this turn", ErrInvalidState)
	ErrNotRolled     = fmt.Errorf("%w: dice not rolled", ErrInvalidState)
	ErrNothingToUndo = fmt.Errorf("%w: no commands to undo", ErrInvalidState)
	ErrNothingToRedo = fmt.Errorf("%w: no commands to redo", ErrInvalidState)
	ErrGameOver      = fmt.Errorf("%w: game is over", ErrInvalidState)
	ErrNotExecuted   = fmt.Errorf("%w: command was never executed", ErrInvalidState)
)

// Reason says why a move was rejected.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonNoDice
	ReasonGameOver
	ReasonMustEnterFromBar
	ReasonEmptySource
	ReasonNotOwnStone
	ReasonBadLocation
	ReasonWrongDirection
	ReasonDieUnavailable
	ReasonCannotBearOff
	ReasonStonesBehind
	ReasonBlocked
	ReasonPointFull
	ReasonNoDestinations
)

var reasonText = map[Reason]string{
	ReasonNone:             "ok",
	ReasonNoDice:           "no dice left to play",
	ReasonGameOver:         "game is over",
	ReasonMustEnterFromBar: "stones on the bar must enter first",
	ReasonEmptySource:      "no stone to move",
	ReasonNotOwnStone:      "stone belongs to the opponent",
	ReasonBadLocation:      "not a valid source or destination",
	ReasonWrongDirection:   "stones cannot move backwards",
	ReasonDieUnavailable:   "no die matches that distance",
	ReasonCannotBearOff:    "not all stones are home",
	ReasonStonesBehind:     "a die larger than needed requires no stones behind",
	ReasonBlocked:          "destination is held by the opponent",
	ReasonPointFull:        "destination already holds five stones",
	ReasonNoDestinations:   "no legal destination from there",
}

var reasonCode = map[Reason]string{
	ReasonNone:             "OK",
	ReasonNoDice:           "NO_DICE",
	ReasonGameOver:         "GAME_OVER",
	ReasonMustEnterFromBar: "MUST_ENTER",
	ReasonEmptySource:      "EMPTY_SOURCE",
	ReasonNotOwnStone:      "NOT_OWN_STONE",
	ReasonBadLocation:      "BAD_LOCATION",
	ReasonWrongDirection:   "WRONG_DIRECTION",
	ReasonDieUnavailable:   "DIE_UNAVAILABLE",
	ReasonCannotBearOff:    "CANNOT_BEAR_OFF",
	ReasonStonesBehind:     "STONES_BEHIND",
	ReasonBlocked:          "BLOCKED",
	ReasonPointFull:        "POINT_FULL",
	ReasonNoDestinations:   "NO_DESTINATIONS",
}

func (r Reason) String() string {
	if s, ok := reasonText[r]; ok {
		return s
	}
	return fmt.Sprintf("Reason(%d)", uint8(r))
}

// Code returns a stable machine-readable identifier for r.
func (r Reason) Code() string {
	if s, ok := reasonCode[r]; ok {
		return s
	}
	return "UNKNOWN"
}

// MoveError is a rejected move together with the reason to display.
type MoveError struct {
	Move   Move
	Player Color
	Reason Reason
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("illegal move %s by %s: %s", e.Move, e.Player, e.Reason)
}

// Unwrap makes errors.Is(err, ErrIllegalMove) hold.
func (e *MoveError) Unwrap() error { return ErrIllegalMove }

func reject(from, to Location, player Color, reason Reason) *MoveError {
	return &MoveError{Move: Move{From: from, To: to}, Player: player, Reason: reason}
}

// ReasonOf extracts the rejection reason from err, or ReasonNone.
func ReasonOf(err error) Reason {
	var me *MoveError
	if errors.As(err, &me) {
		return me.Reason
	}
	return ReasonNone
}

// InvariantError reports a corrupted board.
type InvariantError struct {
	Detail string
}

func (e *InvariantError) Error() string {
	return "invariant violation: " + e.Detail
}

// Unwrap makes errors.Is(err, ErrInvariant) hold.
func (e *InvariantError) Unwrap() error { return ErrInvariant }

func invariantf(format string, args ...any) *InvariantError {
	return &InvariantError{Detail: fmt.Sprintf(format, args...)}
}
